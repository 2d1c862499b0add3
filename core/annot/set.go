package annot

import (
	"iter"
	"slices"
	"sort"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// Set is a named collection of annotations over one document. Sets are
// created by their Document and are not safe for concurrent use.
type Set struct {
	name string
	doc  *Document

	byID   map[ID]*Annotation
	order  []*Annotation
	byType map[string][]*Annotation
	index  intervalIndex
}

func newSet(name string, doc *Document) *Set {
	return &Set{
		name:   name,
		doc:    doc,
		byID:   make(map[ID]*Annotation),
		byType: make(map[string][]*Annotation),
	}
}

// Name returns the set name; the default set is named "".
func (s *Set) Name() string {
	return s.name
}

// Document returns the document this set belongs to.
func (s *Set) Document() *Document {
	return s.doc
}

// Len returns the number of annotations in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// IsEmpty reports whether the set has no annotations.
func (s *Set) IsEmpty() bool {
	return len(s.order) == 0
}

// Add creates an annotation over [start, end) and inserts it. A nil features
// map is replaced by an empty one. The new annotation is visible to queries
// as soon as Add returns.
func (s *Set) Add(start, end int, typ string, features *FeatureMap) (ID, error) {
	if err := checkInterval(start, end); err != nil {
		return 0, err
	}
	if features == nil {
		features = NewFeatureMap()
	}
	a := &Annotation{
		id:       s.doc.nextID(),
		start:    start,
		end:      end,
		typ:      typ,
		features: features,
	}
	s.insert(a)
	return a.id, nil
}

// AddAnnotation inserts a copy of a under a fresh ID and returns that ID.
func (s *Set) AddAnnotation(a *Annotation) (ID, error) {
	if a == nil {
		return 0, errors.NewValidation("annotation", "nil annotation")
	}
	return s.Add(a.start, a.end, a.typ, a.features.Clone())
}

// AddWithID inserts an annotation under a caller-chosen ID, as needed when
// restoring a persisted document. The ID must not be in use anywhere in the
// document.
func (s *Set) AddWithID(id ID, start, end int, typ string, features *FeatureMap) error {
	if err := checkInterval(start, end); err != nil {
		return err
	}
	if id <= 0 {
		return errors.NewValidation("id", "annotation IDs are positive")
	}
	if s.doc.idInUse(id) {
		return errors.NewState("add annotation", "id "+id.String()+" already in use")
	}
	if features == nil {
		features = NewFeatureMap()
	}
	s.doc.ReserveID(id)
	s.insert(&Annotation{id: id, start: start, end: end, typ: typ, features: features})
	return nil
}

func (s *Set) insert(a *Annotation) {
	s.byID[a.id] = a
	s.doc.owner[a.id] = s
	s.order = append(s.order, a)
	s.byType[a.typ] = append(s.byType[a.typ], a)
	s.index.insert(a)
}

// Remove deletes the annotation with the given ID from this set. It is linear
// in the set size and forces an index rebuild, so bulk removals should use
// Clear or rebuild the set instead.
func (s *Set) Remove(id ID) error {
	a, ok := s.byID[id]
	if !ok {
		return errors.NewNotFound("annotation", id.String())
	}
	delete(s.byID, id)
	delete(s.doc.owner, id)
	s.order = slices.DeleteFunc(s.order, func(x *Annotation) bool { return x == a })

	sameType := slices.DeleteFunc(s.byType[a.typ], func(x *Annotation) bool { return x == a })
	if len(sameType) == 0 {
		delete(s.byType, a.typ)
	} else {
		s.byType[a.typ] = sameType
	}

	s.index.invalidate()
	return nil
}

// Clear removes every annotation. IDs are not reused afterwards.
func (s *Set) Clear() {
	for id := range s.byID {
		delete(s.doc.owner, id)
	}
	s.byID = make(map[ID]*Annotation)
	s.order = nil
	s.byType = make(map[string][]*Annotation)
	s.index = intervalIndex{}
}

// Get returns the annotation with the given ID.
func (s *Set) Get(id ID) (*Annotation, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// ByType returns the annotations of the given type in insertion order.
func (s *Set) ByType(typ string) Annotations {
	return append(Annotations{}, s.byType[typ]...)
}

// ByTypes returns the annotations of any of the given types in insertion order.
func (s *Set) ByTypes(types ...string) Annotations {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := Annotations{}
	for _, a := range s.order {
		if want[a.typ] {
			out = append(out, a)
		}
	}
	return out
}

// Types returns the distinct annotation types in sorted order.
func (s *Set) Types() []string {
	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Contained returns the annotations lying entirely inside [start, end),
// ordered by (Start, End, ID).
func (s *Set) Contained(start, end int) (Annotations, error) {
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}
	return s.ensureIndex().contained(start, end), nil
}

// Overlapping returns the annotations intersecting [start, end), ordered by
// (Start, End, ID).
func (s *Set) Overlapping(start, end int) (Annotations, error) {
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}
	return s.ensureIndex().overlapping(start, end), nil
}

// Covering returns the annotations containing all of [start, end), ordered
// by (Start, End, ID).
func (s *Set) Covering(start, end int) (Annotations, error) {
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}
	return s.ensureIndex().covering(start, end), nil
}

// InDocumentOrder returns every annotation ordered by (Start, End, ID).
func (s *Set) InDocumentOrder() Annotations {
	return append(Annotations{}, s.ensureIndex().byStart...)
}

// All yields every annotation in insertion order. Each call starts a new
// traversal. The set must not be modified while a traversal is in progress.
func (s *Set) All() iter.Seq[*Annotation] {
	return func(yield func(*Annotation) bool) {
		for _, a := range s.order {
			if !yield(a) {
				return
			}
		}
	}
}

// Annotations returns every annotation in insertion order.
func (s *Set) Annotations() Annotations {
	return append(Annotations{}, s.order...)
}

func (s *Set) ensureIndex() *intervalIndex {
	if s.index.dirty {
		s.index.rebuild(s.order)
	}
	return &s.index
}
