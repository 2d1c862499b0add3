package standoffxml

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DetectResult reports whether a file looks like GATE XML.
type DetectResult struct {
	Detected bool
	Reason   string
}

// sniffLimit bounds how much of a file Detect reads.
const sniffLimit = 4096

// Detect checks the extension and looks for the GateDocument root element
// near the start of the file.
func Detect(path string) (*DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("cannot stat: %v", err)}, nil
	}
	if info.IsDir() {
		return &DetectResult{Detected: false, Reason: "path is a directory"}, nil
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xml" {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("extension %q is not .xml", ext)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	head := make([]byte, sniffLimit)
	n, _ := f.Read(head)
	if !bytes.Contains(head[:n], []byte("<GateDocument")) {
		return &DetectResult{Detected: false, Reason: "no GateDocument element"}, nil
	}
	return &DetectResult{Detected: true, Reason: "GATE XML document"}, nil
}
