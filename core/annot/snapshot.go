package annot

import (
	"encoding/json"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// Snapshot is the serializable form of a Document.
type Snapshot struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	HasContent bool          `json:"has_content"`
	Content    string        `json:"content"`
	Features   *FeatureMap   `json:"features"`
	Sets       []SetSnapshot `json:"sets"`
	LastID     ID            `json:"last_id,omitempty"`
}

// SetSnapshot is the serializable form of a Set. Annotations are listed in
// insertion order.
type SetSnapshot struct {
	Name        string               `json:"name"`
	Annotations []AnnotationSnapshot `json:"annotations"`
}

// AnnotationSnapshot is the serializable form of an Annotation.
type AnnotationSnapshot struct {
	ID       ID          `json:"id"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Type     string      `json:"type"`
	Features *FeatureMap `json:"features,omitempty"`
}

// Snapshot captures the document's content, features and sets. The default
// set comes first, then named sets in name order.
func (d *Document) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:         d.id,
		Name:       d.name,
		HasContent: d.hasText,
		Content:    d.content,
		Features:   d.features.Clone(),
		LastID:     d.lastID,
	}
	for _, s := range d.Sets() {
		ss := SetSnapshot{Name: s.name, Annotations: make([]AnnotationSnapshot, 0, len(s.order))}
		for _, a := range s.order {
			ss.Annotations = append(ss.Annotations, AnnotationSnapshot{
				ID:       a.id,
				Start:    a.start,
				End:      a.end,
				Type:     a.typ,
				Features: a.features.Clone(),
			})
		}
		snap.Sets = append(snap.Sets, ss)
	}
	return snap
}

// Restore rebuilds a Document from a snapshot, keeping every ID.
func (snap *Snapshot) Restore() (*Document, error) {
	if snap.ID == "" {
		return nil, errors.NewValidation("id", "document id is required")
	}
	d := NewDocumentWithID(snap.ID, snap.Name)
	if snap.HasContent {
		if err := d.SetContent(snap.Content); err != nil {
			return nil, err
		}
	}
	if snap.Features != nil {
		d.SetFeatures(snap.Features.Clone())
	}
	for _, ss := range snap.Sets {
		s := d.NamedAnnotations(ss.Name)
		for _, as := range ss.Annotations {
			if err := s.AddWithID(as.ID, as.Start, as.End, as.Type, as.Features.Clone()); err != nil {
				return nil, errors.Wrapf(err, "set %q annotation %d", ss.Name, as.ID)
			}
		}
	}
	d.ReserveID(snap.LastID)
	return d, nil
}

// MarshalJSON writes the document as its Snapshot.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

// UnmarshalJSON replaces d with the document described by a Snapshot.
func (d *Document) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	restored, err := snap.Restore()
	if err != nil {
		return err
	}
	*d = *restored
	d.rebind()
	return nil
}

// rebind points every set back at d after the Document value was copied.
func (d *Document) rebind() {
	d.defaultSet.doc = d
	for _, s := range d.named {
		s.doc = d
	}
}
