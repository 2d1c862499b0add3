package encoding

import (
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"

	serrors "github.com/FocuswithJustin/standoff/core/errors"
)

func TestEncodeSetLiteral(t *testing.T) {
	in := NewStringSet("a", "b", "c", "go,stop,go")

	encoded, err := EncodeSet(in)
	if err != nil {
		t.Fatalf("EncodeSet() error = %v", err)
	}
	if want := "^set{a,b,c,go;&commastop;&commago}"; encoded != want {
		t.Errorf("EncodeSet() = %q, want %q", encoded, want)
	}

	got, err := DecodeToSet(encoded)
	if err != nil {
		t.Fatalf("DecodeToSet() error = %v", err)
	}
	if len(got) != 4 {
		t.Errorf("DecodeToSet() has %d elements, want 4", len(got))
	}
	if !got.Equal(in) {
		t.Errorf("DecodeToSet() = %v, want %v", got.Sorted(), in.Sorted())
	}
}

func TestEncodeList(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  string
	}{
		{"single", []string{"x"}, "^list{x}"},
		{"order kept", []string{"c", "a", "b"}, "^list{c,a,b}"},
		{"duplicates kept", []string{"a", "a"}, "^list{a,a}"},
		{"comma escaped", []string{"1,000", "2"}, "^list{1;&comma000,2}"},
		{"single empty item", []string{""}, "^list{}"},
		{"braces inside", []string{"{x}", "}"}, "^list{{x},}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeList(tt.input)
			if err != nil {
				t.Fatalf("EncodeList(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("EncodeList(%q) = %q, want %q", tt.input, got, tt.want)
			}
			back, err := DecodeToList(got)
			if err != nil {
				t.Fatalf("DecodeToList(%q) error = %v", got, err)
			}
			if !reflect.DeepEqual(back, tt.input) {
				t.Errorf("DecodeToList(%q) = %q, want %q", got, back, tt.input)
			}
		})
	}
}

func TestEncodeMap(t *testing.T) {
	in := map[string]string{"pos": "NN", "lemma": "cat", "note": "a,b"}
	encoded, err := EncodeMap(in)
	if err != nil {
		t.Fatalf("EncodeMap() error = %v", err)
	}
	if want := "^map{lemma,cat,note,a;&commab,pos,NN}"; encoded != want {
		t.Errorf("EncodeMap() = %q, want %q", encoded, want)
	}

	got, err := DecodeToMap(encoded)
	if err != nil {
		t.Fatalf("DecodeToMap() error = %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("DecodeToMap() = %v, want %v", got, in)
	}
}

func TestEncodePairsKeepsOrder(t *testing.T) {
	pairs := []Pair{{"z", "1"}, {"a", "2"}}
	encoded, err := EncodePairs(pairs)
	if err != nil {
		t.Fatalf("EncodePairs() error = %v", err)
	}
	if want := "^map{z,1,a,2}"; encoded != want {
		t.Errorf("EncodePairs() = %q, want %q", encoded, want)
	}
	back, err := DecodeToPairs(encoded)
	if err != nil {
		t.Fatalf("DecodeToPairs() error = %v", err)
	}
	if !reflect.DeepEqual(back, pairs) {
		t.Errorf("DecodeToPairs() = %v, want %v", back, pairs)
	}
}

func TestDecodeToMapLastKeyWins(t *testing.T) {
	got, err := DecodeToMap("^map{k,1,k,2}")
	if err != nil {
		t.Fatalf("DecodeToMap() error = %v", err)
	}
	if got["k"] != "2" || len(got) != 1 {
		t.Errorf("DecodeToMap() = %v, want map[k:2]", got)
	}
}

func TestDecodeToSetMergesDuplicates(t *testing.T) {
	got, err := DecodeToSet("^set{a,b,a}")
	if err != nil {
		t.Fatalf("DecodeToSet() error = %v", err)
	}
	if !got.Equal(NewStringSet("a", "b")) {
		t.Errorf("DecodeToSet() = %v, want [a b]", got.Sorted())
	}
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		decode  func(string) error
		input   string
		wantMsg string
	}{
		{"set without prefix", decodeSet, "not-a-collection", "prefix"},
		{"set given a list", decodeSet, "^list{a}", "prefix"},
		{"list without closing brace", decodeList, "^list{a,b", "closing brace"},
		{"map with odd tokens", decodeMap, "^map{a,1,b}", "odd number of tokens (3)"},
		{"empty map body", decodeMap, "^map{}", "odd number of tokens (1)"},
		{"map without prefix", decodeMap, "map{a,b}", "prefix"},
		{"empty input", decodeList, "", "prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(tt.input)
			if err == nil {
				t.Fatalf("decode(%q) error = nil, want FormatError", tt.input)
			}
			var fe *serrors.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("decode(%q) error = %T, want *FormatError", tt.input, err)
			}
			if fe.Input != tt.input {
				t.Errorf("FormatError.Input = %q, want %q", fe.Input, tt.input)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestEncodeEmptyCollections(t *testing.T) {
	tests := []struct {
		name   string
		encode func() (string, error)
	}{
		{"nil set", func() (string, error) { return EncodeSet(nil) }},
		{"empty set", func() (string, error) { return EncodeSet(NewStringSet()) }},
		{"nil list", func() (string, error) { return EncodeList(nil) }},
		{"empty list", func() (string, error) { return EncodeList([]string{}) }},
		{"nil map", func() (string, error) { return EncodeMap(nil) }},
		{"empty map", func() (string, error) { return EncodeMap(map[string]string{}) }},
		{"empty pairs", func() (string, error) { return EncodePairs([]Pair{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.encode()
			if !errors.Is(err, serrors.ErrFormat) {
				t.Errorf("encode() = %q, %v, want ErrFormat", got, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		input  string
		want   Kind
		wantOK bool
	}{
		{"^set{a}", KindSet, true},
		{"^list{a,b}", KindList, true},
		{"^map{k,v}", KindMap, true},
		{"^list{a", "", false},
		{"plain", "", false},
	}

	for _, tt := range tests {
		got, ok := KindOf(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("KindOf(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestListFunc(t *testing.T) {
	encoded, err := EncodeListFunc([]int{3, 1, 2}, func(n int) (string, error) {
		return strconv.Itoa(n), nil
	})
	if err != nil {
		t.Fatalf("EncodeListFunc() error = %v", err)
	}
	if encoded != "^list{3,1,2}" {
		t.Errorf("EncodeListFunc() = %q, want %q", encoded, "^list{3,1,2}")
	}

	got, err := DecodeListFunc(encoded, strconv.Atoi)
	if err != nil {
		t.Fatalf("DecodeListFunc() error = %v", err)
	}
	if !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Errorf("DecodeListFunc() = %v, want [3 1 2]", got)
	}

	if _, err := DecodeListFunc("^list{x}", strconv.Atoi); err == nil {
		t.Error("DecodeListFunc() with bad item error = nil, want error")
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []rune("ab,;&{}^ é")

	randomString := func() string {
		n := rng.Intn(6)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		return b.String()
	}

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(5)
		list := make([]string, 0, n)
		m := make(map[string]string, n)
		for j := 0; j < n; j++ {
			s := randomString()
			if strings.Contains(s, CommaEscape) {
				continue
			}
			list = append(list, s)
			m[s] = randomString()
			if strings.Contains(m[s], CommaEscape) {
				delete(m, s)
			}
		}
		if len(list) == 0 || len(m) == 0 {
			continue
		}

		encodedList, err := EncodeList(list)
		if err != nil {
			t.Fatalf("EncodeList(%q) error = %v", list, err)
		}
		gotList, err := DecodeToList(encodedList)
		if err != nil || !reflect.DeepEqual(gotList, list) {
			t.Fatalf("list round trip %q -> %q -> %q (%v)", list, encodedList, gotList, err)
		}

		set := NewStringSet(list...)
		encodedSet, err := EncodeSet(set)
		if err != nil {
			t.Fatalf("EncodeSet() error = %v", err)
		}
		gotSet, err := DecodeToSet(encodedSet)
		if err != nil || !gotSet.Equal(set) {
			t.Fatalf("set round trip %q -> %q -> %q (%v)", set.Sorted(), encodedSet, gotSet.Sorted(), err)
		}

		encodedMap, err := EncodeMap(m)
		if err != nil {
			t.Fatalf("EncodeMap() error = %v", err)
		}
		gotMap, err := DecodeToMap(encodedMap)
		if err != nil || !reflect.DeepEqual(gotMap, m) {
			t.Fatalf("map round trip %v -> %q -> %v (%v)", m, encodedMap, gotMap, err)
		}
	}
}

func decodeSet(s string) error {
	_, err := DecodeToSet(s)
	return err
}

func decodeList(s string) error {
	_, err := DecodeToList(s)
	return err
}

func decodeMap(s string) error {
	_, err := DecodeToMap(s)
	return err
}
