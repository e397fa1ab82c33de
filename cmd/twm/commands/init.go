package commands

import (
	"fmt"

	"git.home.luguber.info/inful/twm/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Lang  string `help:"Project language (js|ts)" default:"js" enum:"js,ts"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Lang, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, "initialized successfully")
	return nil
}
