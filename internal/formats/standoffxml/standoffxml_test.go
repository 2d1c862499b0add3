package standoffxml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
)

const sampleGATE = `<?xml version='1.0' encoding='UTF-8'?>
<GateDocument version="3">
<GateDocumentFeatures>
<Feature>
  <Name className="java.lang.String">gate.SourceURL</Name>
  <Value className="java.lang.String">file:/tmp/cat.txt</Value>
</Feature>
</GateDocumentFeatures>
<TextWithNodes><Node id="0"/>The<Node id="3"/> <Node id="4"/>caf&#233;<Node id="8"/> &amp; co<Node id="13"/></TextWithNodes>
<AnnotationSet>
<Annotation Id="1" Type="Token" StartNode="0" EndNode="3">
<Feature>
  <Name className="java.lang.String">string</Name>
  <Value className="java.lang.String">The</Value>
</Feature>
</Annotation>
<Annotation Id="2" Type="Token" StartNode="4" EndNode="8">
</Annotation>
</AnnotationSet>
<AnnotationSet Name="Original markups">
<Annotation Id="7" Type="p" StartNode="0" EndNode="13">
</Annotation>
</AnnotationSet>
</GateDocument>
`

func TestRead(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleGATE), "cat.xml")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if doc.Content() != "The café & co" {
		t.Errorf("Content() = %q", doc.Content())
	}
	if doc.Features().Value("gate.SourceURL") != "file:/tmp/cat.txt" {
		t.Errorf("document features = %v", doc.Features().Pairs())
	}

	tokens := doc.Annotations().ByType("Token")
	if tokens.Len() != 2 {
		t.Fatalf("tokens = %d, want 2", tokens.Len())
	}
	if got := doc.Text(tokens[1]); got != "café" {
		t.Errorf("second token text = %q, want café", got)
	}
	if tokens[0].Features().Value("string") != "The" {
		t.Errorf("first token features = %v", tokens[0].Features().Pairs())
	}

	markup := doc.NamedAnnotations("Original markups")
	p, ok := markup.Get(7)
	if !ok {
		t.Fatal("annotation Id 7 not preserved")
	}
	if doc.Text(p) != doc.Content() {
		t.Errorf("paragraph text = %q", doc.Text(p))
	}
}

func TestReadMixedIDs(t *testing.T) {
	const in = `<GateDocument version="3">
<TextWithNodes><Node id="0"/>The<Node id="3"/> <Node id="4"/>cat<Node id="7"/></TextWithNodes>
<AnnotationSet>
<Annotation Id="x" Type="Token" StartNode="0" EndNode="3"/>
<Annotation Id="1" Type="Token" StartNode="4" EndNode="7"/>
</AnnotationSet>
<AnnotationSet Name="markup">
<Annotation Type="p" StartNode="0" EndNode="7"/>
<Annotation Id="5" Type="s" StartNode="0" EndNode="7"/>
</AnnotationSet>
</GateDocument>`

	doc, err := Read(strings.NewReader(in), "mixed.xml")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	tests := []struct {
		id   annot.ID
		set  string
		typ  string
		text string
	}{
		{1, "", "Token", "cat"},
		{5, "markup", "s", "The cat"},
		{6, "", "Token", "The"},
		{7, "markup", "p", "The cat"},
	}
	for _, tt := range tests {
		a, set, ok := doc.Lookup(tt.id)
		if !ok {
			t.Errorf("Lookup(%d) not found", tt.id)
			continue
		}
		if set.Name() != tt.set || a.Type() != tt.typ || doc.Text(a) != tt.text {
			t.Errorf("Lookup(%d) = %s in %q %q, want %s in %q %q",
				tt.id, a.Type(), set.Name(), doc.Text(a), tt.typ, tt.set, tt.text)
		}
	}

	tokens := doc.Annotations().ByType("Token")
	if len(tokens) != 2 || doc.Text(tokens[0]) != "The" {
		t.Errorf("tokens lost file order: %v", tokens)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not xml", "<GateDocument"},
		{"no text", "<GateDocument></GateDocument>"},
		{"unknown node", `<GateDocument><TextWithNodes><Node id="0"/>x</TextWithNodes>
<AnnotationSet><Annotation Id="1" Type="T" StartNode="0" EndNode="9"/></AnnotationSet></GateDocument>`},
		{"duplicate id", `<GateDocument><TextWithNodes><Node id="0"/>ab<Node id="2"/></TextWithNodes>
<AnnotationSet><Annotation Id="3" Type="T" StartNode="0" EndNode="2"/><Annotation Id="3" Type="T" StartNode="0" EndNode="2"/></AnnotationSet></GateDocument>`},
		{"bad child", `<GateDocument><TextWithNodes><b>x</b></TextWithNodes></GateDocument>`},
		{"inverted", `<GateDocument><TextWithNodes><Node id="0"/>ab<Node id="2"/></TextWithNodes>
<AnnotationSet><Annotation Id="1" Type="T" StartNode="2" EndNode="0"/></AnnotationSet></GateDocument>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), tt.name)
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Read() error = %v, want ParseError", err)
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	doc := annot.NewDocument("round.txt")
	if err := doc.SetContent("Ünïcode <b> & \"quotes\"\n\ttabs"); err != nil {
		t.Fatal(err)
	}
	doc.Features().Put("lang", "de")
	s := doc.Annotations()
	if _, err := s.Add(0, 9, "Token", annot.NewFeatureMap("string", "Ünïcode", "note", "a<b")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(10, 13, "Tag", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.NamedAnnotations("Key & Value").Add(0, len(doc.Content()), "Doc", nil); err != nil {
		t.Fatal(err)
	}
	doc.NamedAnnotations("empty")

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	back, err := Read(&buf, "round.xml")
	if err != nil {
		t.Fatalf("Read() error = %v\n%s", err, buf.String())
	}

	if back.Content() != doc.Content() {
		t.Errorf("Content() = %q, want %q", back.Content(), doc.Content())
	}
	if !back.Features().Equal(doc.Features()) {
		t.Errorf("features = %v, want %v", back.Features().Pairs(), doc.Features().Pairs())
	}
	if got, want := back.SetNames(), doc.SetNames(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SetNames() = %v, want %v", got, want)
	}
	for _, set := range doc.Sets() {
		other := back.NamedAnnotations(set.Name())
		for a := range set.All() {
			b, ok := other.Get(a.ID())
			if !ok {
				t.Errorf("annotation %d missing from set %q", a.ID(), set.Name())
				continue
			}
			if !b.Equal(a) {
				t.Errorf("annotation = %v, want %v", b, a)
			}
		}
	}
}

func TestWriteRejectsInvalidDocument(t *testing.T) {
	doc := annot.NewDocument("bad")
	if err := doc.SetContent("abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Annotations().Add(1, 10, "Past", nil); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, doc); err == nil {
		t.Error("Write() accepted an out-of-bounds annotation")
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	gate := filepath.Join(dir, "doc.xml")
	other := filepath.Join(dir, "other.xml")
	text := filepath.Join(dir, "doc.txt")
	for path, data := range map[string]string{gate: sampleGATE, other: "<osis/>", text: "plain"} {
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want bool
	}{
		{gate, true},
		{other, false},
		{text, false},
		{dir, false},
		{filepath.Join(dir, "missing.xml"), false},
	}
	for _, tt := range tests {
		res, err := Detect(tt.path)
		if err != nil {
			t.Fatalf("Detect(%s) error = %v", tt.path, err)
		}
		if res.Detected != tt.want {
			t.Errorf("Detect(%s) = %v (%s), want %v", tt.path, res.Detected, res.Reason, tt.want)
		}
	}
}
