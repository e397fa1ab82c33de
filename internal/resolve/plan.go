// Package resolve maps a set of changed files onto the copy and write actions
// that bring the output tree up to date, and executes them.
package resolve

import (
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/util/sets"
)

// Actions is the work of one build cycle. Copy entries are copied from
// SourceAbsolutePath to DistAbsolutePath; Write entries have their SourceCode
// written to DistAbsolutePath. A file never appears in both lists.
type Actions struct {
	Copy  []*resource.FileResource
	Write []*resource.FileResource

	// Skip holds source paths of Write entries whose translation failed in
	// this cycle. The executor reports them as skipped.
	Skip sets.Set[string]
}

// Len is the number of planned actions.
func (a Actions) Len() int { return len(a.Copy) + len(a.Write) }

// SkipWrite marks the write for target as skipped.
func (a *Actions) SkipWrite(target *resource.FileResource) {
	if a.Skip == nil {
		a.Skip = sets.New[string]()
	}
	a.Skip.Add(target.SourceAbsolutePath)
}

type planner struct {
	copy, write  []*resource.FileResource
	seenC, seenW sets.Set[string]
}

func newPlanner() *planner {
	return &planner{seenC: sets.New[string](), seenW: sets.New[string](), copy: []*resource.FileResource{}, write: []*resource.FileResource{}}
}

func (p *planner) addCopy(f *resource.FileResource) {
	if p.seenC.Add(f.SourceAbsolutePath) {
		p.copy = append(p.copy, f)
	}
}

func (p *planner) addWrite(f *resource.FileResource) {
	if p.seenW.Add(f.SourceAbsolutePath) {
		p.write = append(p.write, f)
	}
}

func (p *planner) actions() Actions {
	// Writes take precedence over copies of the same file.
	copies := make([]*resource.FileResource, 0, len(p.copy))
	for _, f := range p.copy {
		if !p.seenW.Has(f.SourceAbsolutePath) {
			copies = append(copies, f)
		}
	}
	return Actions{Copy: copies, Write: p.write}
}

// Plan computes the actions for changed. A nil or empty changed set plans the
// first (full) build.
func Plan(files *resource.FileResourceMap, changed []*resource.FileResource) Actions {
	p := newPlanner()
	if len(changed) == 0 {
		planFull(p, files)
		return p.actions()
	}
	for _, f := range changed {
		path := f.SourceAbsolutePath
		if mp, ok := files.LookupTranslate(path); ok {
			p.addWrite(mp.Target)
			if mp.Kind == resource.MappingRename {
				p.addCopy(mp.Source)
			}
			continue
		}
		if mp, ok := files.LookupNormal(path); ok {
			p.addCopy(mp.Source)
			p.addCopy(mp.Target)
			continue
		}
		if m, ok := files.LookupModification(path); ok {
			p.addCopy(m)
		}
	}
	return p.actions()
}

func planFull(p *planner, files *resource.FileResourceMap) {
	for _, f := range files.OnlyCopy {
		p.addCopy(f)
	}
	for _, f := range files.Modification {
		p.addCopy(f)
	}
	for _, mp := range files.Normal {
		p.addCopy(mp.Source)
		p.addCopy(mp.Target)
	}
	for _, mp := range files.Translate {
		p.addCopy(mp.Source)
		p.addWrite(mp.Target)
	}
}
