package validation

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/standoff/core/errors"
)

func TestEntryPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"document entry", "documents/abc.json", false},
		{"top level", "manifest.json", false},
		{"dotted name", "documents/a..b.json", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"parent", "../x.json", true},
		{"only parent", "..", true},
		{"inner traversal", "documents/../../x", true},
		{"unclean", "documents//a.json", true},
		{"dot segment", "./a.json", true},
		{"backslash", `documents\a.json`, true},
		{"nul", "a\x00b", true},
		{"control", "a\nb", true},
		{"too long", strings.Repeat("a", MaxPathLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EntryPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("EntryPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("EntryPath(%q) error = %v, want ErrInvalidInput", tt.path, err)
			}
		})
	}
}

func TestCheckText(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"ascii", []byte("The cat sat."), false},
		{"utf8", []byte("café Ünïcode"), false},
		{"empty", nil, false},
		{"nul", []byte("ab\x00cd"), true},
		{"latin1", []byte{'c', 'a', 'f', 0xe9}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckText(tt.data); (err != nil) != tt.wantErr {
				t.Errorf("CheckText() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.ErrUnsupported }

func TestReadText(t *testing.T) {
	got, err := ReadText(strings.NewReader("line one\nline two\n"), "a.txt")
	if err != nil || got != "line one\nline two\n" {
		t.Errorf("ReadText() = %q, %v", got, err)
	}

	_, err = ReadText(strings.NewReader("bad\x00"), "b.bin")
	if !errors.Is(err, errors.ErrInvalidInput) || !strings.Contains(err.Error(), "b.bin") {
		t.Errorf("ReadText() binary error = %v", err)
	}

	_, err = ReadText(failingReader{}, "c.txt")
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("ReadText() read error = %v, want IOError", err)
	}
}
