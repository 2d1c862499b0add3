// Package validation checks untrusted input before it reaches the store:
// archive entry paths read from bundles and text files handed to the
// importer.
package validation

import (
	"bytes"
	"io"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// Limits on untrusted input.
const (
	// MaxTextSize is the largest text file accepted for import (256 MB).
	MaxTextSize = 256 << 20
	// MaxPathLength is the maximum allowed entry path length.
	MaxPathLength = 4096
)

// EntryPath checks an archive entry path. It must be relative, already
// clean, use forward slashes and stay below the archive root.
func EntryPath(p string) error {
	if p == "" {
		return errors.NewValidation("path", "entry path cannot be empty")
	}
	if len(p) > MaxPathLength {
		return errors.NewValidation("path", "entry path too long")
	}
	if strings.ContainsAny(p, "\\\x00") {
		return errors.NewValidation("path", "invalid character in entry path "+p)
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return errors.NewValidation("path", "control character in entry path")
		}
	}
	if path.IsAbs(p) {
		return errors.NewValidation("path", "absolute entry path "+p)
	}
	if path.Clean(p) != p {
		return errors.NewValidation("path", "entry path "+p+" is not clean")
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return errors.NewValidation("path", "path traversal in entry path "+p)
	}
	return nil
}

// ReadText reads a text file for import. The content must be valid UTF-8,
// contain no NUL bytes, and fit in MaxTextSize.
func ReadText(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxTextSize+1))
	if err != nil {
		return "", errors.NewIO("read", name, err)
	}
	if len(data) > MaxTextSize {
		return "", errors.NewValidation(name, "file exceeds the text size limit")
	}
	if err := CheckText(data); err != nil {
		return "", errors.Wrap(err, name)
	}
	return string(data), nil
}

// CheckText reports why data is not importable text, or nil.
func CheckText(data []byte) error {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return errors.NewValidation("content", "binary content (NUL byte) at offset "+strconv.Itoa(i))
	}
	if !utf8.Valid(data) {
		return errors.NewValidation("content", "content is not valid UTF-8")
	}
	return nil
}
