package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/twm/internal/eventstore"
	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of cycles to show" default:"20"`
	ID    string `arg:"" optional:"" help:"Show a single cycle"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, Overrides{})
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").Build()
	}
	store, err := openStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return RunHistory(context.Background(), g, store, h.ID, h.Limit)
}

// RunHistory prints one cycle when id is set, else the most recent cycles and
// the totals.
func RunHistory(ctx context.Context, g *Global, store eventstore.Store, id string, limit int) error {
	if id != "" {
		s, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		printSummary(g, s)
		if s.Error != "" {
			_, _ = fmt.Fprintf(g.Stdout, "error: %s\n", s.Error)
		}
		return nil
	}

	recent, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tKIND\tOUTCOME\tCOPIED\tWRITTEN\tFAILED\tDURATION")
	for _, s := range recent {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.ID, s.Started.Format(time.RFC3339), s.Kind, s.Outcome,
			s.Copied, s.Written, s.Failed, s.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t, err := store.Totals(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "\n%d cycles (%d full, %d partial, %d failed), %d copied, %d written\n",
		t.Cycles, t.Full, t.Partial, t.Failed, t.Copied, t.Written)
	return nil
}
