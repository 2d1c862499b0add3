// Package encoding provides the feature-value codec and shared text escaping utilities.
package encoding

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// CommaEscape is the sequence a literal comma is rewritten to inside an encoded item.
const CommaEscape = ";&comma"

// Normalize rewrites every comma in s as CommaEscape so s can be used as one item.
// An input that already contains CommaEscape does not survive DeNormalize unchanged.
func Normalize(s string) string {
	return strings.ReplaceAll(s, ",", CommaEscape)
}

// DeNormalize is the textual inverse of Normalize.
func DeNormalize(s string) string {
	return strings.ReplaceAll(s, CommaEscape, ",")
}

// EscapeXML escapes special characters for XML content.
// Uses the standard library's xml.EscapeText for proper escaping.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// EscapeXMLText escapes only the basic XML entities for text content.
// This is a lighter-weight alternative to EscapeXML.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
