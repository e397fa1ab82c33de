// Package classify performs the one-time full-tree scan that partitions every
// source file into the four FileResourceMap collections.
package classify

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/util/sets"
)

// DefaultOnlyCopy matches lockfiles and vendored or type-declaration trees.
var DefaultOnlyCopy = []string{"**/*.lock", "**/node_modules/**", "**/typings/**"}

// DefaultInclude selects every file below the input root.
const DefaultInclude = "**"

// Options tunes discovery. Patterns are doublestar globs relative to the input root.
type Options struct {
	Include          string
	OnlyCopy         []string
	RespectGitignore bool
}

// Stats summarizes one scan.
type Stats struct {
	Discovered int
	Derived    int // files skipped because a discovered sibling is renamed onto them
	Counts     map[resource.Collection]int
}

// Classifier scans an input tree once and fills the context partition.
type Classifier struct {
	opts Options
}

// New validates opts and returns a classifier.
func New(opts Options) (*Classifier, error) {
	if opts.Include == "" {
		opts.Include = DefaultInclude
	}
	if opts.OnlyCopy == nil {
		opts.OnlyCopy = DefaultOnlyCopy
	}
	for _, p := range append([]string{opts.Include}, opts.OnlyCopy...) {
		if !doublestar.ValidatePattern(p) {
			return nil, ferrors.ScanError("invalid glob pattern").WithContext("pattern", p).Build()
		}
	}
	return &Classifier{opts: opts}, nil
}

// Scan discovers files under rc.InputPath and replaces rc.Files and rc.Resources.
func (c *Classifier) Scan(ctx context.Context, rc *resource.Context) (Stats, error) {
	paths, err := c.Discover(ctx, rc)
	if err != nil {
		return Stats{}, err
	}
	files, resources, stats, err := c.Partition(rc, paths)
	if err != nil {
		return Stats{}, err
	}
	rc.Files = files
	rc.Resources = resources
	slog.Info("Scan complete",
		logfields.Count(stats.Discovered),
		slog.Int("only_copy", stats.Counts[resource.CollectionOnlyCopy]),
		slog.Int("translate", stats.Counts[resource.CollectionTranslate]),
		slog.Int("normal", stats.Counts[resource.CollectionNormal]),
		slog.Int("modification", stats.Counts[resource.CollectionModification]),
		slog.Int("derived", stats.Derived))
	return stats, nil
}

// Discover returns the sorted absolute paths of every regular file matched by
// the include pattern, excluding the output tree, dot-prefixed segments and,
// when enabled, gitignored paths.
func (c *Classifier) Discover(ctx context.Context, rc *resource.Context) ([]string, error) {
	st, err := os.Stat(rc.InputPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryScan, "stat input path").
			WithContext("input", rc.InputPath).Fatal().Build()
	}
	if !st.IsDir() {
		return nil, ferrors.ScanError("input path is not a directory").WithContext("input", rc.InputPath).Build()
	}

	var ignore gitignore.Matcher
	if c.opts.RespectGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(rc.InputPath), nil)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryScan, "read .gitignore patterns").Fatal().Build()
		}
		ignore = gitignore.NewMatcher(patterns)
	}

	var out []string
	walkErr := doublestar.GlobWalk(os.DirFS(rc.InputPath), c.opts.Include, func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hasDotSegment(rel) {
			return nil
		}
		abs := filepath.Join(rc.InputPath, filepath.FromSlash(rel))
		if resource.IsWithin(rc.OutputPath, abs) {
			return nil
		}
		if ignore != nil && ignore.Match(strings.Split(rel, "/"), false) {
			return nil
		}
		out = append(out, abs)
		return nil
	}, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if walkErr != nil {
		return nil, ferrors.WrapError(walkErr, ferrors.CategoryScan, "walk input tree").
			WithContext("input", rc.InputPath).Fatal().Build()
	}
	slices.Sort(out)
	return out, nil
}

// Partition classifies paths in order. It is pure with respect to the
// filesystem: targets are derived, never discovered.
func (c *Classifier) Partition(rc *resource.Context, paths []string) (*resource.FileResourceMap, []*resource.FileResource, Stats, error) {
	files := resource.NewFileResourceMap()
	resources := make([]*resource.FileResource, 0, len(paths))
	stats := Stats{Discovered: len(paths)}
	discovered := sets.New(paths...)

	for _, p := range paths {
		dist, err := rc.DistPath(p)
		if err != nil {
			return nil, nil, Stats{}, ferrors.WrapError(err, ferrors.CategoryScan, "map path into output").
				WithContext("path", p).Fatal().Build()
		}
		f := resource.NewFileResource(p, dist)

		if c.isOnlyCopy(rc, p) {
			if files.AddOnlyCopy(f) {
				resources = append(resources, f)
			}
			continue
		}

		rule, ok := rc.Rule(f.Extname)
		if !ok {
			if files.AddModification(f) {
				resources = append(resources, f)
			}
			continue
		}

		if hasSourceSibling(rc, discovered, f) {
			stats.Derived++
			slog.Debug("Skipping derived sibling", logfields.Path(p))
			continue
		}

		mapping := resource.Identity(f)
		if rule.Renames() {
			targetPath := filepath.Join(filepath.Dir(p), f.Stem()+rule.Replace)
			targetDist, err := rc.DistPath(targetPath)
			if err != nil {
				return nil, nil, Stats{}, ferrors.WrapError(err, ferrors.CategoryScan, "map target into output").
					WithContext("path", targetPath).Fatal().Build()
			}
			mapping = resource.Rename(f, resource.NewFileResource(targetPath, targetDist))
		}

		var added bool
		if rc.InBuildPath(p) {
			added = files.AddTranslate(mapping)
		} else {
			added = files.AddNormal(mapping)
		}
		if added {
			resources = append(resources, f)
		}
	}

	stats.Counts = files.Counts()
	return files, resources, stats, nil
}

// hasSourceSibling reports whether f sits next to a discovered file that a
// renaming rule turns into f.
func hasSourceSibling(rc *resource.Context, discovered sets.Set[string], f *resource.FileResource) bool {
	base := filepath.Join(filepath.Dir(f.SourceAbsolutePath), f.Stem())
	for _, ext := range rc.SourceExts(f.Extname) {
		if discovered.Has(base + ext) {
			return true
		}
	}
	return false
}

func (c *Classifier) isOnlyCopy(rc *resource.Context, abs string) bool {
	rel, err := filepath.Rel(rc.InputPath, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.opts.OnlyCopy {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func hasDotSegment(rel string) bool {
	for rel != "" && rel != "." {
		if strings.HasPrefix(path.Base(rel), ".") {
			return true
		}
		rel = path.Dir(rel)
	}
	return false
}
