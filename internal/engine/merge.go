package engine

import (
	"cmp"
	"slices"
	"sync"

	"git.home.luguber.info/inful/twm/internal/resource"
)

// changeSet is the merged work waiting for the next cycle. A full request
// absorbs any scoped paths.
type changeSet struct {
	full  bool
	files map[string]*resource.FileResource
}

func (c *changeSet) resources() []*resource.FileResource {
	if c.full {
		return nil
	}
	out := make([]*resource.FileResource, 0, len(c.files))
	for _, f := range c.files {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *resource.FileResource) int {
		return cmp.Compare(a.SourceAbsolutePath, b.SourceAbsolutePath)
	})
	return out
}

// queue serializes cycles with a merge policy: at most one cycle runs, and
// everything requested meanwhile collapses into a single pending change set.
type queue struct {
	mu      sync.Mutex
	pending *changeSet
	wake    chan struct{}
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

func (q *queue) pendingLocked() *changeSet {
	if q.pending == nil {
		q.pending = &changeSet{files: map[string]*resource.FileResource{}}
	}
	return q.pending
}

// addFull requests a full (unscoped) cycle.
func (q *queue) addFull() {
	q.mu.Lock()
	p := q.pendingLocked()
	p.full = true
	p.files = map[string]*resource.FileResource{}
	q.mu.Unlock()
	q.signal()
}

// addScoped merges files into the pending set.
func (q *queue) addScoped(files []*resource.FileResource) {
	if len(files) == 0 {
		return
	}
	q.mu.Lock()
	p := q.pendingLocked()
	if !p.full {
		for _, f := range files {
			p.files[f.SourceAbsolutePath] = f
		}
	}
	q.mu.Unlock()
	q.signal()
}

// take removes and returns the pending set, or nil.
func (q *queue) take() *changeSet {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := q.pending
	q.pending = nil
	return p
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
