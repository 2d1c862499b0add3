package annot

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/FocuswithJustin/standoff/core/encoding"
	"github.com/FocuswithJustin/standoff/core/errors"
)

func TestFeatureMapOrder(t *testing.T) {
	f := NewFeatureMap("pos", "NN", "lemma", "cat")
	f.Put("string", "cats")
	f.Put("pos", "NNS")

	if got, want := f.Keys(), []string{"pos", "lemma", "string"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if f.Value("pos") != "NNS" {
		t.Errorf("Value(pos) = %q, want NNS", f.Value("pos"))
	}

	if !f.Delete("lemma") || f.Delete("lemma") {
		t.Error("Delete() reported the wrong presence")
	}
	f.Put("lemma", "cat")
	if got, want := f.Keys(), []string{"pos", "string", "lemma"}; !slices.Equal(got, want) {
		t.Errorf("Keys() after re-put = %v, want %v", got, want)
	}
}

func TestFeatureMapZeroAndNil(t *testing.T) {
	var zero FeatureMap
	zero.Put("k", "v")
	if zero.Value("k") != "v" {
		t.Error("zero value did not accept Put")
	}

	var nilMap *FeatureMap
	if nilMap.Len() != 0 || nilMap.Has("k") || nilMap.Keys() != nil {
		t.Error("nil map is not empty")
	}
	if !nilMap.Equal(NewFeatureMap()) {
		t.Error("nil map not equal to empty map")
	}
	if c := nilMap.Clone(); c == nil || c.Len() != 0 {
		t.Error("Clone() of nil map is not an empty map")
	}
}

func TestFeatureMapOddArgs(t *testing.T) {
	f := NewFeatureMap("a", "1", "dangling")
	if v, ok := f.Get("dangling"); !ok || v != "" {
		t.Errorf("Get(dangling) = %q, %v, want empty, true", v, ok)
	}
}

func TestFeatureMapEqualIgnoresOrder(t *testing.T) {
	a := NewFeatureMap("x", "1", "y", "2")
	b := NewFeatureMap("y", "2", "x", "1")
	if !a.Equal(b) {
		t.Error("Equal() depends on order")
	}
	b.Put("x", "3")
	if a.Equal(b) {
		t.Error("Equal() ignored a changed value")
	}
}

func TestFeatureMapEncode(t *testing.T) {
	f := NewFeatureMap("pos", "NN", "note", "a,b")
	got, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if want := "^map{pos,NN,note,a;&commab}"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	back, err := DecodeFeatureMap(got)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(back.Keys(), f.Keys()) || !back.Equal(f) {
		t.Errorf("DecodeFeatureMap() = %v, want %v", back.Pairs(), f.Pairs())
	}

	if _, err := NewFeatureMap().Encode(); !errors.Is(err, errors.ErrFormat) {
		t.Errorf("Encode() of empty map error = %v, want ErrFormat", err)
	}
}

func TestFeatureMapTypedValues(t *testing.T) {
	f := NewFeatureMap()

	if err := f.PutSet("tags", encoding.NewStringSet("go", "stop", "go")); err != nil {
		t.Fatal(err)
	}
	set, err := f.GetSet("tags")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Equal(encoding.NewStringSet("go", "stop")) {
		t.Errorf("GetSet() = %v", set.Sorted())
	}

	if err := f.PutList("path", []string{"b", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	list, err := f.GetList("path")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "a", "b"}; !slices.Equal(list, want) {
		t.Errorf("GetList() = %v, want %v", list, want)
	}

	if err := f.PutMap("attrs", map[string]string{"k": "v,w"}); err != nil {
		t.Fatal(err)
	}
	m, err := f.GetMap("attrs")
	if err != nil {
		t.Fatal(err)
	}
	if m["k"] != "v,w" {
		t.Errorf("GetMap() = %v", m)
	}

	if err := f.PutList("empty", []string{}); !errors.Is(err, errors.ErrFormat) {
		t.Errorf("PutList(empty) error = %v, want ErrFormat", err)
	}
	if f.Has("empty") {
		t.Error("failed PutList() stored a value")
	}
	if _, err := f.GetSet("missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetSet(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := f.GetList("tags"); !errors.Is(err, errors.ErrFormat) {
		t.Errorf("GetList() of a set error = %v, want ErrFormat", err)
	}
}

func TestFeatureMapJSONKeepsOrder(t *testing.T) {
	f := NewFeatureMap("z", "1", "a", "2", "m", "3")
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"z":"1","a":"2","m":"3"}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back FeatureMap
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(back.Keys(), f.Keys()) {
		t.Errorf("Unmarshal() keys = %v, want %v", back.Keys(), f.Keys())
	}

	if err := json.Unmarshal([]byte(`{"a":1}`), &back); err == nil {
		t.Error("Unmarshal() accepted a non-string value")
	}
	if err := json.Unmarshal([]byte(`[]`), &back); err == nil {
		t.Error("Unmarshal() accepted an array")
	}
}
