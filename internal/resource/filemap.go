package resource

// MappingKind tags a source/target pair.
type MappingKind int

const (
	// MappingIdentity means the target is the source itself.
	MappingIdentity MappingKind = iota
	// MappingRename means the target is a derived file with another extension;
	// both the original and the derived artifact are published.
	MappingRename
)

func (k MappingKind) String() string {
	if k == MappingRename {
		return "rename"
	}
	return "identity"
}

// Mapping is a source -> target entry of the Translate or Normal collection.
type Mapping struct {
	Kind   MappingKind
	Source *FileResource
	Target *FileResource
}

// Identity builds a mapping whose target is f.
func Identity(f *FileResource) Mapping {
	return Mapping{Kind: MappingIdentity, Source: f, Target: f}
}

// Rename builds a mapping from source to a derived target.
func Rename(source, target *FileResource) Mapping {
	return Mapping{Kind: MappingRename, Source: source, Target: target}
}

// Collection names one of the four partition members.
type Collection string

const (
	CollectionNone         Collection = ""
	CollectionOnlyCopy     Collection = "only_copy"
	CollectionTranslate    Collection = "translate"
	CollectionNormal       Collection = "normal"
	CollectionModification Collection = "modification"
)

// FileResourceMap is the exhaustive, disjoint partition of every classified file.
//
//   - OnlyCopy: copied on the first build only (lockfiles, node_modules, typings).
//   - Translate: mappings inside the build path; targets carry generated content.
//   - Normal: mappings outside the build path; copy-through.
//   - Modification: files no rule matches; copied verbatim on change.
//
// Slices keep insertion order; the index maps are keyed by source path.
type FileResourceMap struct {
	OnlyCopy     []*FileResource
	Translate    []Mapping
	Normal       []Mapping
	Modification []*FileResource

	index map[string]entryRef
}

type entryRef struct {
	collection Collection
	pos        int
}

// NewFileResourceMap returns an empty partition.
func NewFileResourceMap() *FileResourceMap {
	return &FileResourceMap{index: make(map[string]entryRef)}
}

// AddOnlyCopy registers f as copy-once. It returns false if f's source path is
// already registered in any collection.
func (m *FileResourceMap) AddOnlyCopy(f *FileResource) bool {
	if !m.claim(f.SourceAbsolutePath, CollectionOnlyCopy, len(m.OnlyCopy)) {
		return false
	}
	m.OnlyCopy = append(m.OnlyCopy, f)
	return true
}

// AddModification registers f as a verbatim-copy file.
func (m *FileResourceMap) AddModification(f *FileResource) bool {
	if !m.claim(f.SourceAbsolutePath, CollectionModification, len(m.Modification)) {
		return false
	}
	m.Modification = append(m.Modification, f)
	return true
}

// AddTranslate registers a mapping inside the build path.
func (m *FileResourceMap) AddTranslate(mp Mapping) bool {
	if !m.claim(mp.Source.SourceAbsolutePath, CollectionTranslate, len(m.Translate)) {
		return false
	}
	m.Translate = append(m.Translate, mp)
	return true
}

// AddNormal registers a mapping outside the build path.
func (m *FileResourceMap) AddNormal(mp Mapping) bool {
	if !m.claim(mp.Source.SourceAbsolutePath, CollectionNormal, len(m.Normal)) {
		return false
	}
	m.Normal = append(m.Normal, mp)
	return true
}

func (m *FileResourceMap) claim(path string, c Collection, pos int) bool {
	if m.index == nil {
		m.index = make(map[string]entryRef)
	}
	if _, ok := m.index[path]; ok {
		return false
	}
	m.index[path] = entryRef{collection: c, pos: pos}
	return true
}

// Membership returns the collection path's source is registered in.
func (m *FileResourceMap) Membership(path string) Collection {
	return m.index[path].collection
}

// LookupTranslate returns the Translate mapping whose source is path.
func (m *FileResourceMap) LookupTranslate(path string) (Mapping, bool) {
	ref, ok := m.index[path]
	if !ok || ref.collection != CollectionTranslate {
		return Mapping{}, false
	}
	return m.Translate[ref.pos], true
}

// LookupNormal returns the Normal mapping whose source is path.
func (m *FileResourceMap) LookupNormal(path string) (Mapping, bool) {
	ref, ok := m.index[path]
	if !ok || ref.collection != CollectionNormal {
		return Mapping{}, false
	}
	return m.Normal[ref.pos], true
}

// LookupModification returns the Modification entry for path.
func (m *FileResourceMap) LookupModification(path string) (*FileResource, bool) {
	ref, ok := m.index[path]
	if !ok || ref.collection != CollectionModification {
		return nil, false
	}
	return m.Modification[ref.pos], true
}

// Sources returns every registered source resource, never derived targets,
// in collection order: OnlyCopy, Translate, Normal, Modification.
func (m *FileResourceMap) Sources() []*FileResource {
	out := make([]*FileResource, 0, m.Len())
	out = append(out, m.OnlyCopy...)
	for _, mp := range m.Translate {
		out = append(out, mp.Source)
	}
	for _, mp := range m.Normal {
		out = append(out, mp.Source)
	}
	return append(out, m.Modification...)
}

// Len returns the number of registered sources.
func (m *FileResourceMap) Len() int {
	return len(m.OnlyCopy) + len(m.Translate) + len(m.Normal) + len(m.Modification)
}

// Counts returns the size of each collection.
func (m *FileResourceMap) Counts() map[Collection]int {
	return map[Collection]int{
		CollectionOnlyCopy:     len(m.OnlyCopy),
		CollectionTranslate:    len(m.Translate),
		CollectionNormal:       len(m.Normal),
		CollectionModification: len(m.Modification),
	}
}
