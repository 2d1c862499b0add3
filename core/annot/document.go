package annot

import (
	"sort"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// Document is one unit of text plus its annotation sets and metadata.
type Document struct {
	id      string
	name    string
	content string
	hasText bool

	defaultSet *Set
	named      map[string]*Set
	features   *FeatureMap
	aux        *AuxRegistry

	lastID ID
	// owner records which set holds each live ID.
	owner map[ID]*Set
}

// NewDocument creates an empty document with a fresh UUID.
func NewDocument(name string) *Document {
	return NewDocumentWithID(uuid.NewString(), name)
}

// NewDocumentWithID creates an empty document with a caller-supplied ID,
// for restoring persisted documents.
func NewDocumentWithID(id, name string) *Document {
	d := &Document{
		id:       id,
		name:     name,
		named:    make(map[string]*Set),
		features: NewFeatureMap(),
		aux:      newAuxRegistry(),
		owner:    make(map[ID]*Set),
	}
	d.defaultSet = newSet("", d)
	return d
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// SetContent stores the document text. It may be called once.
func (d *Document) SetContent(text string) error {
	if d.hasText {
		return errors.NewState("set content", "content already set for document "+d.id)
	}
	d.content = text
	d.hasText = true
	return nil
}

// Content returns the document text, or "" before SetContent.
func (d *Document) Content() string { return d.content }

// HasContent reports whether SetContent has been called.
func (d *Document) HasContent() bool { return d.hasText }

// Text returns the content covered by a. Offsets past the end of the content
// are clamped.
func (d *Document) Text(a *Annotation) string {
	return d.Slice(a.start, a.end)
}

// Slice returns content[start:end] clamped to the content bounds.
func (d *Document) Slice(start, end int) string {
	n := len(d.content)
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	return d.content[start:end]
}

// Annotations returns the default set.
func (d *Document) Annotations() *Set {
	return d.defaultSet
}

// NamedAnnotations returns the set called name, creating it on first use.
// The empty name refers to the default set.
func (d *Document) NamedAnnotations(name string) *Set {
	if name == "" {
		return d.defaultSet
	}
	s, ok := d.named[name]
	if !ok {
		s = newSet(name, d)
		d.named[name] = s
	}
	return s
}

// HasNamedSet reports whether a named set exists without creating it.
func (d *Document) HasNamedSet(name string) bool {
	_, ok := d.named[name]
	return ok
}

// NamedSets returns a snapshot of the named sets. The default set is not
// included.
func (d *Document) NamedSets() map[string]*Set {
	out := make(map[string]*Set, len(d.named))
	for name, s := range d.named {
		out[name] = s
	}
	return out
}

// SetNames returns the named set names in sorted order.
func (d *Document) SetNames() []string {
	names := make([]string, 0, len(d.named))
	for name := range d.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sets returns the default set followed by the named sets in name order.
func (d *Document) Sets() []*Set {
	sets := []*Set{d.defaultSet}
	for _, name := range d.SetNames() {
		sets = append(sets, d.named[name])
	}
	return sets
}

// Features returns the document-level feature map.
func (d *Document) Features() *FeatureMap { return d.features }

// SetFeatures replaces the document-level feature map. A nil map clears it.
func (d *Document) SetFeatures(f *FeatureMap) {
	if f == nil {
		f = NewFeatureMap()
	}
	d.features = f
}

// Aux returns the registry of auxiliary companion objects.
func (d *Document) Aux() *AuxRegistry { return d.aux }

// Lookup finds an annotation by ID in any set of the document.
func (d *Document) Lookup(id ID) (*Annotation, *Set, bool) {
	s, ok := d.owner[id]
	if !ok {
		return nil, nil, false
	}
	a, ok := s.Get(id)
	return a, s, ok
}

// LastID returns the highest ID allocated so far.
func (d *Document) LastID() ID { return d.lastID }

// AnnotationCount returns the number of annotations across all sets.
func (d *Document) AnnotationCount() int {
	return len(d.owner)
}

// Clone returns a deep copy that keeps the document ID and annotation IDs.
// The auxiliary registry is not copied.
func (d *Document) Clone() *Document {
	c := NewDocumentWithID(d.id, d.name)
	c.content = d.content
	c.hasText = d.hasText
	c.features = d.features.Clone()
	for _, s := range d.Sets() {
		cs := c.NamedAnnotations(s.name)
		for _, a := range s.order {
			cp := a.Clone()
			cs.insert(cp)
		}
	}
	c.lastID = d.lastID
	return c
}

func (d *Document) nextID() ID {
	d.lastID++
	return d.lastID
}

func (d *Document) idInUse(id ID) bool {
	_, ok := d.owner[id]
	return ok
}

// ReserveID makes later fresh IDs start above id. Importers that mix
// explicit and fresh IDs reserve the explicit ones first.
func (d *Document) ReserveID(id ID) {
	if id > d.lastID {
		d.lastID = id
	}
}
