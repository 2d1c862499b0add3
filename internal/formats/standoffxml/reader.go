// Package standoffxml reads and writes documents in the GATE stand-off XML
// layout:
//
//	<GateDocument version="3">
//	  <GateDocumentFeatures> Feature* </GateDocumentFeatures>
//	  <TextWithNodes> text interleaved with <Node id="N"/> </TextWithNodes>
//	  <AnnotationSet Name="..."> Annotation* </AnnotationSet>
//	</GateDocument>
//
// Annotations refer to Node ids rather than raw offsets, so the reader maps
// each id to the byte offset at which the Node appeared in the text.
package standoffxml

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
)

var (
	textExpr        = xpath.MustCompile("/GateDocument/TextWithNodes")
	docFeatureExpr  = xpath.MustCompile("/GateDocument/GateDocumentFeatures/Feature")
	setExpr         = xpath.MustCompile("/GateDocument/AnnotationSet")
	annotationExpr  = xpath.MustCompile("Annotation")
	featureExpr     = xpath.MustCompile("Feature")
	featureNameExpr = xpath.MustCompile("Name")
	featureValExpr  = xpath.MustCompile("Value")
)

// Read parses a GATE XML document into a new Document called name. The
// content is set once, then every source annotation is added to the set
// named by its AnnotationSet with plain string features. Annotation Ids are
// kept when they are positive integers.
func Read(r io.Reader, name string) (*annot.Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.NewParse("gate-xml", name, err.Error())
	}

	textNode := xmlquery.QuerySelector(root, textExpr)
	if textNode == nil {
		return nil, errors.NewParse("gate-xml", name, "missing TextWithNodes element")
	}
	content, offsets, err := readTextWithNodes(textNode)
	if err != nil {
		return nil, errors.NewParse("gate-xml", name, err.Error())
	}

	doc := annot.NewDocument(name)
	if err := doc.SetContent(content); err != nil {
		return nil, err
	}
	for _, f := range xmlquery.QuerySelectorAll(root, docFeatureExpr) {
		k, v := readFeature(f)
		doc.Features().Put(k, v)
	}

	setNodes := xmlquery.QuerySelectorAll(root, setExpr)
	// Fresh IDs for annotations without a usable Id must not collide with
	// explicit Ids that appear later in the file.
	for _, setNode := range setNodes {
		for _, a := range xmlquery.QuerySelectorAll(setNode, annotationExpr) {
			if id, ok := explicitID(a); ok {
				doc.ReserveID(id)
			}
		}
	}
	for _, setNode := range setNodes {
		set := doc.NamedAnnotations(setNode.SelectAttr("Name"))
		for _, a := range xmlquery.QuerySelectorAll(setNode, annotationExpr) {
			if err := readAnnotation(set, a, offsets); err != nil {
				return nil, errors.NewParse("gate-xml", name, err.Error())
			}
		}
	}
	return doc, nil
}

// readTextWithNodes concatenates the text children and records the byte
// offset of every Node element by id.
func readTextWithNodes(n *xmlquery.Node) (string, map[string]int, error) {
	var sb strings.Builder
	offsets := make(map[string]int)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			sb.WriteString(child.Data)
		case xmlquery.ElementNode:
			if child.Data != "Node" {
				return "", nil, fmt.Errorf("unexpected <%s> inside TextWithNodes", child.Data)
			}
			id := child.SelectAttr("id")
			if id == "" {
				return "", nil, fmt.Errorf("Node without id at byte %d", sb.Len())
			}
			offsets[id] = sb.Len()
		}
	}
	return sb.String(), offsets, nil
}

func readAnnotation(set *annot.Set, n *xmlquery.Node, offsets map[string]int) error {
	typ := n.SelectAttr("Type")
	start, ok := offsets[n.SelectAttr("StartNode")]
	if !ok {
		return fmt.Errorf("annotation %q: unknown StartNode %q", n.SelectAttr("Id"), n.SelectAttr("StartNode"))
	}
	end, ok := offsets[n.SelectAttr("EndNode")]
	if !ok {
		return fmt.Errorf("annotation %q: unknown EndNode %q", n.SelectAttr("Id"), n.SelectAttr("EndNode"))
	}

	features := annot.NewFeatureMap()
	for _, f := range xmlquery.QuerySelectorAll(n, featureExpr) {
		k, v := readFeature(f)
		features.Put(k, v)
	}

	if id, ok := explicitID(n); ok {
		return set.AddWithID(id, start, end, typ, features)
	}
	_, err := set.Add(start, end, typ, features)
	return err
}

// explicitID returns the annotation's Id when it is a positive integer.
func explicitID(n *xmlquery.Node) (annot.ID, bool) {
	id, err := strconv.ParseInt(n.SelectAttr("Id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return annot.ID(id), true
}

func readFeature(f *xmlquery.Node) (string, string) {
	var key, value string
	if n := xmlquery.QuerySelector(f, featureNameExpr); n != nil {
		key = n.InnerText()
	}
	if n := xmlquery.QuerySelector(f, featureValExpr); n != nil {
		value = n.InnerText()
	}
	return key, value
}
