package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/twm/cmd/twm/commands"
	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("twm"),
		kong.Description("Watches a mini-program source tree and mirrors it into a build output."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}, &cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
