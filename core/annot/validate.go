package annot

import (
	"fmt"
	"unicode/utf8"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// Validate checks a document for problems that mutation does not reject:
// annotations past the end of the content, annotations on a document with
// no content, and offsets that split a UTF-8 sequence. It returns every
// problem found; a nil result means the document is consistent.
func Validate(d *Document) []error {
	var errs []error

	if d.id == "" {
		errs = append(errs, errors.NewValidation("document.id", "ID is required"))
	}

	n := len(d.content)
	for _, s := range d.Sets() {
		for _, a := range s.order {
			field := fmt.Sprintf("%s[%s]", setLabel(s.name), a.id)
			if !d.hasText {
				errs = append(errs, errors.NewValidation(field, "annotation on a document without content"))
				continue
			}
			if a.end > n {
				errs = append(errs, errors.NewValidation(field,
					fmt.Sprintf("end %d beyond content length %d", a.end, n)))
				continue
			}
			if !onRuneBoundary(d.content, a.start) || !onRuneBoundary(d.content, a.end) {
				errs = append(errs, errors.NewValidation(field,
					fmt.Sprintf("interval [%d,%d) splits a UTF-8 sequence", a.start, a.end)))
			}
		}
	}
	return errs
}

func setLabel(name string) string {
	if name == "" {
		return "default"
	}
	return "set." + name
}

func onRuneBoundary(s string, offset int) bool {
	return offset == len(s) || utf8.RuneStart(s[offset])
}
