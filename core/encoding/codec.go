package encoding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/standoff/core/errors"
)

// codec.go - flat string form for collection-valued features
//
//	encoded(kind) ::= "^" kind "{" item ("," item)* "}"
//
// Items are Normalize'd before they are joined, so a comma inside an item
// never splits it. Map bodies alternate key and value items.

// Kind identifies an encoded collection type.
type Kind string

// Collection kinds.
const (
	KindSet  Kind = "set"
	KindList Kind = "list"
	KindMap  Kind = "map"
)

const (
	separator  = ","
	closeBrace = "}"
)

// Prefix returns the literal every encoding of this kind starts with (e.g. "^set{").
func (k Kind) Prefix() string {
	return "^" + string(k) + "{"
}

// KindOf reports which collection kind s is encoded as. It only inspects the
// envelope; the body may still fail to decode.
func KindOf(s string) (Kind, bool) {
	for _, k := range []Kind{KindSet, KindList, KindMap} {
		if strings.HasPrefix(s, k.Prefix()) && strings.HasSuffix(s, closeBrace) {
			return k, true
		}
	}
	return "", false
}

// StringSet is an unordered collection of distinct strings.
type StringSet map[string]struct{}

// NewStringSet creates a set holding items, duplicates merged.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts item.
func (s StringSet) Add(item string) {
	s[item] = struct{}{}
}

// Has reports whether item is in the set.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the elements in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same elements.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for item := range s {
		if !other.Has(item) {
			return false
		}
	}
	return true
}

// Pair is one key/value entry of an ordered map encoding.
type Pair struct {
	Key   string
	Value string
}

// EncodeSet encodes s with its elements in sorted order so equal sets encode identically.
func EncodeSet(s StringSet) (string, error) {
	if s == nil {
		return "", errors.NewFormat(string(KindSet), "", "nil collection")
	}
	return encodeItems(KindSet, s.Sorted())
}

// EncodeList encodes items in order.
func EncodeList(items []string) (string, error) {
	if items == nil {
		return "", errors.NewFormat(string(KindList), "", "nil collection")
	}
	return encodeItems(KindList, items)
}

// EncodeMap encodes m with keys in sorted order.
func EncodeMap(m map[string]string) (string, error) {
	if m == nil {
		return "", errors.NewFormat(string(KindMap), "", "nil collection")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: m[k]})
	}
	return EncodePairs(pairs)
}

// EncodePairs encodes pairs as a map, keeping the given order.
func EncodePairs(pairs []Pair) (string, error) {
	if pairs == nil {
		return "", errors.NewFormat(string(KindMap), "", "nil collection")
	}
	items := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		items = append(items, p.Key, p.Value)
	}
	return encodeItems(KindMap, items)
}

// encodeItems writes every item followed by a separator and then drops the
// final separator. An empty collection leaves nothing to drop and is rejected.
func encodeItems(kind Kind, items []string) (string, error) {
	var b strings.Builder
	b.WriteString(kind.Prefix())
	for _, item := range items {
		b.WriteString(Normalize(item))
		b.WriteString(separator)
	}

	out := b.String()
	if !strings.HasSuffix(out, separator) {
		return "", errors.NewFormat(string(kind), out, "empty collection has no items to encode")
	}
	return strings.TrimSuffix(out, separator) + closeBrace, nil
}

// DecodeToList decodes a "^list{...}" string, preserving item order.
func DecodeToList(s string) ([]string, error) {
	tokens, err := splitBody(KindList, s)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = DeNormalize(tok)
	}
	return out, nil
}

// DecodeToSet decodes a "^set{...}" string. Duplicate items are merged.
func DecodeToSet(s string) (StringSet, error) {
	tokens, err := splitBody(KindSet, s)
	if err != nil {
		return nil, err
	}
	out := make(StringSet, len(tokens))
	for _, tok := range tokens {
		out.Add(DeNormalize(tok))
	}
	return out, nil
}

// DecodeToPairs decodes a "^map{...}" string into its pairs in encoded order.
func DecodeToPairs(s string) ([]Pair, error) {
	tokens, err := splitBody(KindMap, s)
	if err != nil {
		return nil, err
	}
	if len(tokens)%2 != 0 {
		return nil, errors.NewFormat(string(KindMap), s,
			fmt.Sprintf("odd number of tokens (%d)", len(tokens)))
	}
	pairs := make([]Pair, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		pairs = append(pairs, Pair{
			Key:   DeNormalize(tokens[i]),
			Value: DeNormalize(tokens[i+1]),
		})
	}
	return pairs, nil
}

// DecodeToMap decodes a "^map{...}" string. When a key repeats the last value wins.
func DecodeToMap(s string) (map[string]string, error) {
	pairs, err := DecodeToPairs(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out, nil
}

// EncodeListFunc encodes items after turning each one into a string with enc.
// enc owns any escaping its output needs beyond the comma rule.
func EncodeListFunc[T any](items []T, enc func(T) (string, error)) (string, error) {
	if items == nil {
		return "", errors.NewFormat(string(KindList), "", "nil collection")
	}
	texts := make([]string, 0, len(items))
	for i, item := range items {
		text, err := enc(item)
		if err != nil {
			return "", errors.Wrapf(err, "list item %d", i)
		}
		texts = append(texts, text)
	}
	return EncodeList(texts)
}

// DecodeListFunc decodes a list and rebuilds each item with dec.
func DecodeListFunc[T any](s string, dec func(string) (T, error)) ([]T, error) {
	texts, err := DecodeToList(s)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(texts))
	for i, text := range texts {
		item, err := dec(text)
		if err != nil {
			return nil, errors.Wrapf(err, "list item %d", i)
		}
		out = append(out, item)
	}
	return out, nil
}

// splitBody checks the envelope of s and splits the body on the separator.
// The returned tokens are still normalized.
func splitBody(kind Kind, s string) ([]string, error) {
	prefix := kind.Prefix()
	if !strings.HasPrefix(s, prefix) {
		return nil, errors.NewFormat(string(kind), s, fmt.Sprintf("missing %q prefix", prefix))
	}
	if !strings.HasSuffix(s, closeBrace) {
		return nil, errors.NewFormat(string(kind), s, "missing closing brace")
	}
	body := s[len(prefix) : len(s)-len(closeBrace)]
	return strings.Split(body, separator), nil
}
