package annot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/FocuswithJustin/standoff/core/encoding"
	"github.com/FocuswithJustin/standoff/core/errors"
)

// FeatureMap is an ordered string-to-string map. Keys keep the position of
// their first Put. The zero value is an empty map ready for use, and read
// methods also accept a nil receiver.
type FeatureMap struct {
	keys   []string
	values map[string]string
}

// NewFeatureMap creates a map from alternating key/value arguments.
// A trailing key without a value is stored with an empty value.
func NewFeatureMap(kv ...string) *FeatureMap {
	f := &FeatureMap{values: make(map[string]string, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		value := ""
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		f.Put(kv[i], value)
	}
	return f
}

// FeatureMapFromPairs creates a map holding pairs in order. Later pairs
// overwrite the value of an earlier pair with the same key.
func FeatureMapFromPairs(pairs []encoding.Pair) *FeatureMap {
	f := NewFeatureMap()
	for _, p := range pairs {
		f.Put(p.Key, p.Value)
	}
	return f
}

// Put sets key to value.
func (f *FeatureMap) Put(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// PutAll copies every entry of other into f, in other's order.
func (f *FeatureMap) PutAll(other *FeatureMap) {
	for k, v := range other.All() {
		f.Put(k, v)
	}
}

// Get returns the value stored under key.
func (f *FeatureMap) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (f *FeatureMap) Value(key string) string {
	v, _ := f.Get(key)
	return v
}

// Has reports whether key is present.
func (f *FeatureMap) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (f *FeatureMap) Delete(key string) bool {
	if _, ok := f.values[key]; !ok {
		return false
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (f *FeatureMap) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in order.
func (f *FeatureMap) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// All yields entries in order.
func (f *FeatureMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if f == nil {
			return
		}
		for _, k := range f.keys {
			if !yield(k, f.values[k]) {
				return
			}
		}
	}
}

// Pairs returns the entries in order.
func (f *FeatureMap) Pairs() []encoding.Pair {
	pairs := make([]encoding.Pair, 0, f.Len())
	for k, v := range f.All() {
		pairs = append(pairs, encoding.Pair{Key: k, Value: v})
	}
	return pairs
}

// Clone returns an independent copy.
func (f *FeatureMap) Clone() *FeatureMap {
	out := NewFeatureMap()
	out.PutAll(f)
	return out
}

// Equal reports whether both maps hold the same entries, ignoring order.
func (f *FeatureMap) Equal(other *FeatureMap) bool {
	if f.Len() != other.Len() {
		return false
	}
	for k, v := range f.All() {
		if ov, ok := other.Get(k); !ok || ov != v {
			return false
		}
	}
	return true
}

// Encode returns the map in "^map{...}" form, keeping entry order.
func (f *FeatureMap) Encode() (string, error) {
	return encoding.EncodePairs(f.Pairs())
}

// DecodeFeatureMap parses the output of Encode.
func DecodeFeatureMap(s string) (*FeatureMap, error) {
	pairs, err := encoding.DecodeToPairs(s)
	if err != nil {
		return nil, err
	}
	return FeatureMapFromPairs(pairs), nil
}

// PutSet stores set under key in encoded form.
func (f *FeatureMap) PutSet(key string, set encoding.StringSet) error {
	encoded, err := encoding.EncodeSet(set)
	if err != nil {
		return errors.Wrapf(err, "feature %q", key)
	}
	f.Put(key, encoded)
	return nil
}

// GetSet decodes the set stored under key.
func (f *FeatureMap) GetSet(key string) (encoding.StringSet, error) {
	v, ok := f.Get(key)
	if !ok {
		return nil, errors.NewNotFound("feature", key)
	}
	return encoding.DecodeToSet(v)
}

// PutList stores items under key in encoded form.
func (f *FeatureMap) PutList(key string, items []string) error {
	encoded, err := encoding.EncodeList(items)
	if err != nil {
		return errors.Wrapf(err, "feature %q", key)
	}
	f.Put(key, encoded)
	return nil
}

// GetList decodes the list stored under key.
func (f *FeatureMap) GetList(key string) ([]string, error) {
	v, ok := f.Get(key)
	if !ok {
		return nil, errors.NewNotFound("feature", key)
	}
	return encoding.DecodeToList(v)
}

// PutMap stores m under key in encoded form.
func (f *FeatureMap) PutMap(key string, m map[string]string) error {
	encoded, err := encoding.EncodeMap(m)
	if err != nil {
		return errors.Wrapf(err, "feature %q", key)
	}
	f.Put(key, encoded)
	return nil
}

// GetMap decodes the map stored under key.
func (f *FeatureMap) GetMap(key string) (map[string]string, error) {
	v, ok := f.Get(key)
	if !ok {
		return nil, errors.NewNotFound("feature", key)
	}
	return encoding.DecodeToMap(v)
}

// MarshalJSON writes the map as a JSON object with keys in entry order.
func (f *FeatureMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range f.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping key order.
func (f *FeatureMap) UnmarshalJSON(data []byte) error {
	fresh := NewFeatureMap()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = *fresh
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feature map: expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("feature map: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("feature map: value of %q: %w", key, err)
		}
		fresh.Put(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = *fresh
	return nil
}
