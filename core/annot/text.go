package annot

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/standoff/core/encoding"
	"github.com/FocuswithJustin/standoff/core/errors"
)

// annotationGrammar is the participle grammar for the annotation text form.
// Example: "Token#12[4:7]{string=cat;kind=word}"
//
//nolint:govet // participle grammar tags are not standard struct tags
type annotationGrammar struct {
	Type     string            `@Text?`
	ID       string            `"#" @Text`
	Start    string            `"[" @Text`
	End      string            `":" @Text "]"`
	Features []*featureGrammar `"{" ( @@ ( ";" @@ )* )? "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type featureGrammar struct {
	Key   string `@Text? "="`
	Value string `@Text?`
}

// Free-text fields are query-escaped, so Text never has to match punctuation.
var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Text", Pattern: `[A-Za-z0-9%+._~\-]+`},
	{Name: "Punct", Pattern: `[#\[\]:{};=]`},
})

var annotationParser = participle.MustBuild[annotationGrammar](
	participle.Lexer(annotationLexer),
)

// EncodeAnnotation returns the text form of a:
//
//	Type#ID[Start:End]{key=value;key=value}
//
// Type, keys and values are query-escaped, so the result never contains a
// comma and can sit inside any codec collection.
func EncodeAnnotation(a *Annotation) string {
	var sb strings.Builder
	sb.WriteString(url.QueryEscape(a.typ))
	sb.WriteByte('#')
	sb.WriteString(a.id.String())
	sb.WriteByte('[')
	sb.WriteString(strconv.Itoa(a.start))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(a.end))
	sb.WriteString("]{")
	i := 0
	for k, v := range a.features.All() {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
		i++
	}
	sb.WriteByte('}')
	return sb.String()
}

// DecodeAnnotation parses the output of EncodeAnnotation into a detached
// annotation.
func DecodeAnnotation(s string) (*Annotation, error) {
	parsed, err := annotationParser.ParseString("", s)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, err.Error())
	}

	id, err := strconv.ParseInt(parsed.ID, 10, 64)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, "id is not an integer")
	}
	start, err := strconv.Atoi(parsed.Start)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, "start is not an integer")
	}
	end, err := strconv.Atoi(parsed.End)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, "end is not an integer")
	}
	typ, err := url.QueryUnescape(parsed.Type)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, "type: "+err.Error())
	}

	features := NewFeatureMap()
	for _, f := range parsed.Features {
		key, err := url.QueryUnescape(f.Key)
		if err != nil {
			return nil, errors.NewFormat("annotation", s, "feature key: "+err.Error())
		}
		value, err := url.QueryUnescape(f.Value)
		if err != nil {
			return nil, errors.NewFormat("annotation", s, "feature value: "+err.Error())
		}
		features.Put(key, value)
	}

	a, err := NewAnnotation(ID(id), start, end, typ, features)
	if err != nil {
		return nil, errors.NewFormat("annotation", s, err.Error())
	}
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a *Annotation) MarshalText() ([]byte, error) {
	return []byte(EncodeAnnotation(a)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Annotation) UnmarshalText(text []byte) error {
	decoded, err := DecodeAnnotation(string(text))
	if err != nil {
		return err
	}
	*a = *decoded
	return nil
}

func encodeNonNil(a *Annotation) (string, error) {
	if a == nil {
		return "", errors.NewValidation("annotation", "nil annotation")
	}
	return EncodeAnnotation(a), nil
}

// EncodeAnnotationList encodes annotations as a "^list{...}" of text forms.
func EncodeAnnotationList(as []*Annotation) (string, error) {
	return encoding.EncodeListFunc(as, encodeNonNil)
}

// DecodeAnnotationList parses the output of EncodeAnnotationList.
func DecodeAnnotationList(s string) (Annotations, error) {
	return encoding.DecodeListFunc(s, DecodeAnnotation)
}

// EncodeAnnotationSet encodes annotations as a "^set{...}" of text forms.
// Identical text forms collapse into one element.
func EncodeAnnotationSet(as []*Annotation) (string, error) {
	set := encoding.NewStringSet()
	for i, a := range as {
		text, err := encodeNonNil(a)
		if err != nil {
			return "", errors.Wrapf(err, "set item %d", i)
		}
		set.Add(text)
	}
	if len(as) == 0 {
		return encoding.EncodeSet(nil)
	}
	return encoding.EncodeSet(set)
}

// DecodeAnnotationSet parses the output of EncodeAnnotationSet. Elements come
// back ordered by their text form.
func DecodeAnnotationSet(s string) (Annotations, error) {
	set, err := encoding.DecodeToSet(s)
	if err != nil {
		return nil, err
	}
	out := make(Annotations, 0, len(set))
	for _, text := range set.Sorted() {
		a, err := DecodeAnnotation(text)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// EncodeAnnotationMap encodes m as a "^map{...}" from key to text form.
func EncodeAnnotationMap(m map[string]*Annotation) (string, error) {
	flat := make(map[string]string, len(m))
	for k, a := range m {
		text, err := encodeNonNil(a)
		if err != nil {
			return "", errors.Wrapf(err, "map key %q", k)
		}
		flat[k] = text
	}
	if m == nil {
		return encoding.EncodeMap(nil)
	}
	return encoding.EncodeMap(flat)
}

// DecodeAnnotationMap parses the output of EncodeAnnotationMap.
func DecodeAnnotationMap(s string) (map[string]*Annotation, error) {
	flat, err := encoding.DecodeToMap(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Annotation, len(flat))
	for k, text := range flat {
		a, err := DecodeAnnotation(text)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %q", k)
		}
		out[k] = a
	}
	return out, nil
}
