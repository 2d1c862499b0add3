package standoffxml

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/encoding"
)

const stringClass = "java.lang.String"

// Write serializes doc in the GATE XML layout. Node ids are character
// offsets, as GATE expects. The document must pass annot.Validate.
func Write(w io.Writer, doc *annot.Document) error {
	if errs := annot.Validate(doc); len(errs) > 0 {
		return fmt.Errorf("document %s is not exportable: %w", doc.ID(), errs[0])
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("<?xml version='1.0' encoding='UTF-8'?>\n")
	bw.WriteString("<GateDocument version=\"3\">\n")

	bw.WriteString("<GateDocumentFeatures>\n")
	writeFeatures(bw, doc.Features())
	bw.WriteString("</GateDocumentFeatures>\n")

	writeTextWithNodes(bw, doc)

	for _, set := range doc.Sets() {
		if set.Name() == "" {
			bw.WriteString("<AnnotationSet>\n")
		} else {
			fmt.Fprintf(bw, "<AnnotationSet Name=\"%s\">\n", encoding.EscapeXMLAttr(set.Name()))
		}
		content := doc.Content()
		for a := range set.All() {
			fmt.Fprintf(bw, "<Annotation Id=\"%d\" Type=\"%s\" StartNode=\"%d\" EndNode=\"%d\">\n",
				int64(a.ID()), encoding.EscapeXMLAttr(a.Type()),
				utf8.RuneCountInString(content[:a.Start()]), utf8.RuneCountInString(content[:a.End()]))
			writeFeatures(bw, a.Features())
			bw.WriteString("</Annotation>\n")
		}
		bw.WriteString("</AnnotationSet>\n")
	}

	bw.WriteString("</GateDocument>\n")
	return bw.Flush()
}

// writeTextWithNodes emits the content with a Node at every annotation
// boundary.
func writeTextWithNodes(bw *bufio.Writer, doc *annot.Document) {
	content := doc.Content()
	seen := make(map[int]bool)
	for _, set := range doc.Sets() {
		for a := range set.All() {
			seen[a.Start()] = true
			seen[a.End()] = true
		}
	}
	bounds := make([]int, 0, len(seen))
	for b := range seen {
		bounds = append(bounds, b)
	}
	sort.Ints(bounds)

	bw.WriteString("<TextWithNodes>")
	prev, chars := 0, 0
	for _, b := range bounds {
		bw.WriteString(encoding.EscapeXML(content[prev:b]))
		chars += utf8.RuneCountInString(content[prev:b])
		fmt.Fprintf(bw, "<Node id=\"%d\"/>", chars)
		prev = b
	}
	bw.WriteString(encoding.EscapeXML(content[prev:]))
	bw.WriteString("</TextWithNodes>\n")
}

func writeFeatures(bw *bufio.Writer, f *annot.FeatureMap) {
	for k, v := range f.All() {
		fmt.Fprintf(bw, "<Feature>\n  <Name className=\"%s\">%s</Name>\n  <Value className=\"%s\">%s</Value>\n</Feature>\n",
			stringClass, encoding.EscapeXML(k), stringClass, encoding.EscapeXML(v))
	}
}
