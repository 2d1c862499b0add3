package pipeline

import (
	"context"
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
)

// Annotation types and feature names written by the tokenizer.
const (
	TypeToken      = "Token"
	TypeSpaceToken = "SpaceToken"

	FeatureString = "string"
	FeatureKind   = "kind"
	FeatureLength = "length"
)

// Token kinds.
const (
	KindWord        = "word"
	KindNumber      = "number"
	KindPunctuation = "punctuation"
	KindSymbol      = "symbol"
	KindSpace       = "space"
	KindControl     = "control"
)

type charClass int

const (
	classWord charClass = iota
	classSpace
	classPunct
	classSymbol
)

func classify(r rune) charClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '\'':
		return classWord
	case unicode.IsPunct(r):
		return classPunct
	default:
		return classSymbol
	}
}

// Tokenizer splits the content into runs of word, whitespace, punctuation
// and symbol characters. Whitespace runs become SpaceToken annotations and
// the rest become Token annotations, each with string, kind and length
// features. It also registers a TokenIndex under annot.AuxTokenIndex.
type Tokenizer struct {
	// SetName is the target set; "" is the default set.
	SetName string
}

// Name implements Stage.
func (t *Tokenizer) Name() string { return "tokenizer" }

// Process implements Stage.
func (t *Tokenizer) Process(ctx context.Context, doc *annot.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !doc.HasContent() {
		return errors.NewState("tokenize", "document has no content")
	}
	set := doc.NamedAnnotations(t.SetName)
	if len(set.ByType(TypeToken)) > 0 {
		return errors.NewState("tokenize", "set already holds tokens")
	}

	text := doc.Content()
	start := 0
	var current charClass
	for i, r := range text {
		c := classify(r)
		if i == 0 {
			current = c
			continue
		}
		if c != current {
			if err := addToken(set, text, start, i, current); err != nil {
				return err
			}
			start, current = i, c
		}
	}
	if len(text) > 0 {
		if err := addToken(set, text, start, len(text), current); err != nil {
			return err
		}
	}

	doc.Aux().Delete(annot.AuxTokenIndex)
	_, err := doc.Aux().GetOrCreate(annot.AuxTokenIndex, func() (any, error) {
		return NewTokenIndex(set), nil
	})
	return err
}

func addToken(set *annot.Set, text string, start, end int, c charClass) error {
	s := text[start:end]
	typ, kind := TypeToken, KindWord
	switch c {
	case classSpace:
		typ, kind = TypeSpaceToken, KindSpace
		for _, r := range s {
			if unicode.IsControl(r) {
				kind = KindControl
				break
			}
		}
	case classPunct:
		kind = KindPunctuation
	case classSymbol:
		kind = KindSymbol
	default:
		if isNumber(s) {
			kind = KindNumber
		}
	}
	features := annot.NewFeatureMap(
		FeatureString, s,
		FeatureKind, kind,
		FeatureLength, strconv.Itoa(utf8.RuneCountInString(s)),
	)
	_, err := set.Add(start, end, typ, features)
	return err
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// TokenIndex maps byte offsets to the Token annotation covering them.
type TokenIndex struct {
	ids    []annot.ID
	starts []int
	ends   []int
}

// NewTokenIndex indexes the Token annotations of set in document order.
func NewTokenIndex(set *annot.Set) *TokenIndex {
	tokens := set.InDocumentOrder().ByType(TypeToken)
	ti := &TokenIndex{
		ids:    make([]annot.ID, len(tokens)),
		starts: make([]int, len(tokens)),
		ends:   make([]int, len(tokens)),
	}
	for i, a := range tokens {
		ti.ids[i], ti.starts[i], ti.ends[i] = a.ID(), a.Start(), a.End()
	}
	return ti
}

// Len returns the number of indexed tokens.
func (ti *TokenIndex) Len() int { return len(ti.ids) }

// IDs returns the token IDs in document order.
func (ti *TokenIndex) IDs() []annot.ID {
	return append([]annot.ID(nil), ti.ids...)
}

// At returns the token whose span contains offset.
func (ti *TokenIndex) At(offset int) (annot.ID, bool) {
	i := sort.Search(len(ti.starts), func(i int) bool { return ti.starts[i] > offset }) - 1
	if i < 0 || offset >= ti.ends[i] {
		return 0, false
	}
	return ti.ids[i], true
}
