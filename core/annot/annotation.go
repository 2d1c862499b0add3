package annot

import (
	"strconv"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// ID identifies an annotation within its document.
type ID int64

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Annotation is a typed, feature-bearing half-open interval [Start, End)
// over document content, measured in UTF-8 byte offsets.
//
// The interval and type are fixed once the annotation exists, because sets
// index on them; features stay mutable.
type Annotation struct {
	id       ID
	start    int
	end      int
	typ      string
	features *FeatureMap
}

// NewAnnotation creates a detached annotation, for example to carry a decoded
// value before it is inserted with Set.AddAnnotation. A nil features map is
// replaced by an empty one.
func NewAnnotation(id ID, start, end int, typ string, features *FeatureMap) (*Annotation, error) {
	if err := checkInterval(start, end); err != nil {
		return nil, err
	}
	if features == nil {
		features = NewFeatureMap()
	}
	return &Annotation{id: id, start: start, end: end, typ: typ, features: features}, nil
}

// ID returns the annotation's identity.
func (a *Annotation) ID() ID { return a.id }

// Start returns the inclusive start offset.
func (a *Annotation) Start() int { return a.start }

// End returns the exclusive end offset.
func (a *Annotation) End() int { return a.end }

// Type returns the type label (e.g. "Token", "Sentence").
func (a *Annotation) Type() string { return a.typ }

// Features returns the annotation's own feature map.
func (a *Annotation) Features() *FeatureMap { return a.features }

// Len returns End - Start.
func (a *Annotation) Len() int { return a.end - a.start }

// Within reports whether a lies inside [start, end).
func (a *Annotation) Within(start, end int) bool {
	return a.start >= start && a.end <= end
}

// Overlaps reports whether a intersects [start, end).
func (a *Annotation) Overlaps(start, end int) bool {
	return a.start < end && a.end > start
}

// Covers reports whether a contains all of [start, end).
func (a *Annotation) Covers(start, end int) bool {
	return a.start <= start && a.end >= end
}

// Clone returns a deep copy with the same ID.
func (a *Annotation) Clone() *Annotation {
	return &Annotation{
		id:       a.id,
		start:    a.start,
		end:      a.end,
		typ:      a.typ,
		features: a.features.Clone(),
	}
}

// Equal reports whether a and b have the same ID, interval, type and features.
func (a *Annotation) Equal(b *Annotation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.id == b.id && a.start == b.start && a.end == b.end &&
		a.typ == b.typ && a.features.Equal(b.features)
}

// String returns the text form (see MarshalText).
func (a *Annotation) String() string {
	return EncodeAnnotation(a)
}

// compare orders annotations by (Start, End, ID).
func compare(a, b *Annotation) int {
	switch {
	case a.start != b.start:
		return a.start - b.start
	case a.end != b.end:
		return a.end - b.end
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}
	return 0
}

func checkInterval(start, end int) error {
	if start < 0 {
		return errors.NewRange(start, end, "negative start offset")
	}
	if end < start {
		return errors.NewRange(start, end, "end before start")
	}
	return nil
}

// Annotations is a query result. It never owns its elements: they stay in
// the set that produced them.
type Annotations []*Annotation

// Len returns the number of annotations.
func (as Annotations) Len() int {
	return len(as)
}

// ByType keeps the annotations whose type is typ, preserving order.
func (as Annotations) ByType(typ string) Annotations {
	out := Annotations{}
	for _, a := range as {
		if a.typ == typ {
			out = append(out, a)
		}
	}
	return out
}

// IDs returns the IDs in order.
func (as Annotations) IDs() []ID {
	ids := make([]ID, len(as))
	for i, a := range as {
		ids[i] = a.id
	}
	return ids
}

// First returns the first annotation, if any.
func (as Annotations) First() (*Annotation, bool) {
	if len(as) == 0 {
		return nil, false
	}
	return as[0], true
}
