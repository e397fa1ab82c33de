package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"git.home.luguber.info/inful/twm/internal/resource"
)

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	Overrides
	JSON bool `help:"Print the partition as JSON"`
}

func (s *ScanCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, s.Overrides)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return RunScan(context.Background(), g, app, s.JSON)
}

// ScanEntry is one classified source in scan output.
type ScanEntry struct {
	Collection resource.Collection `json:"collection"`
	Source     string              `json:"source"`
	Target     string              `json:"target,omitempty"`
	Mapping    string              `json:"mapping,omitempty"`
	Translator string              `json:"translator,omitempty"`
}

// RunScan classifies the input tree without building and prints the result.
func RunScan(ctx context.Context, g *Global, app *App, asJSON bool) error {
	if _, err := app.Classifier.Scan(ctx, app.Context); err != nil {
		return err
	}
	entries := scanEntries(app.Context)

	if asJSON {
		enc := json.NewEncoder(g.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COLLECTION\tSOURCE\tTARGET\tTRANSLATOR")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Collection, e.Source, e.Target, e.Translator)
	}
	counts := app.Context.Files.Counts()
	_, _ = fmt.Fprintf(tw, "\n%d only_copy, %d translate, %d normal, %d modification\n",
		counts[resource.CollectionOnlyCopy], counts[resource.CollectionTranslate],
		counts[resource.CollectionNormal], counts[resource.CollectionModification])
	return tw.Flush()
}

func scanEntries(rc *resource.Context) []ScanEntry {
	rel := func(p string) string {
		if r, err := filepath.Rel(rc.InputPath, p); err == nil {
			return filepath.ToSlash(r)
		}
		return p
	}
	mapping := func(c resource.Collection, mp resource.Mapping) ScanEntry {
		e := ScanEntry{Collection: c, Source: rel(mp.Source.SourceAbsolutePath), Mapping: mp.Kind.String()}
		if mp.Kind == resource.MappingRename {
			e.Target = rel(mp.Target.SourceAbsolutePath)
		}
		if r, ok := rc.Rule(mp.Source.Extname); ok {
			e.Translator = r.TranslatorName
		}
		return e
	}

	files := rc.Files
	out := make([]ScanEntry, 0, files.Len())
	for _, f := range files.OnlyCopy {
		out = append(out, ScanEntry{Collection: resource.CollectionOnlyCopy, Source: rel(f.SourceAbsolutePath)})
	}
	for _, mp := range files.Translate {
		out = append(out, mapping(resource.CollectionTranslate, mp))
	}
	for _, mp := range files.Normal {
		e := mapping(resource.CollectionNormal, mp)
		e.Translator = ""
		out = append(out, e)
	}
	for _, f := range files.Modification {
		out = append(out, ScanEntry{Collection: resource.CollectionModification, Source: rel(f.SourceAbsolutePath)})
	}
	return out
}
