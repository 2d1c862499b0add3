// Package annot is the in-memory text-annotation store.
//
// A Document owns one immutable content string, a default annotation set,
// any number of named annotation sets, and a FeatureMap of document metadata.
// Annotations are stand-off: they never modify the text, they only point into
// it with half-open byte intervals, so they can overlap freely.
//
// # Core Types
//
//   - Document: one unit of text and everything derived from it
//   - Set: a named collection of annotations over one document
//   - Annotation: a typed interval [Start, End) carrying a FeatureMap
//   - FeatureMap: ordered string-to-string metadata
//
// # Identity
//
// Every annotation gets an ID from its document when a set inserts it. IDs
// increase monotonically and are never reused within a document, so they are
// stable handles for Get and Remove.
//
// # Queries
//
// Sets answer positional queries against a start-sorted index:
//
//   - Contained(start, end): a.Start >= start && a.End <= end
//   - Overlapping(start, end): a.Start < end && a.End > start
//   - Covering(start, end): a.Start <= start && a.End >= end
//
// Interval results are ordered by (Start, End, ID). ByType and All return
// annotations in insertion order.
//
// # Feature Values
//
// Feature values are plain strings. Collections are stored through the
// core/encoding codec ("^set{...}", "^list{...}", "^map{...}"); annotations
// nested in such collections use the text form produced by MarshalText.
//
// # Concurrency
//
// A Document and its sets are not safe for concurrent use. The auxiliary
// registry returned by Document.Aux is the exception: GetOrCreate is
// serialized so only one companion object is ever stored per key.
//
// # Example
//
//	doc := annot.NewDocument("cat.txt")
//	if err := doc.SetContent("The cat sat."); err != nil {
//	    return err
//	}
//	tokens := doc.Annotations()
//	id, err := tokens.Add(4, 7, "Token", annot.NewFeatureMap("string", "cat"))
package annot
