package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
)

const (
	TypeSentence = "Sentence"

	// FeatureTokens holds the number of tokens a sentence spans.
	FeatureTokens = "tokens"
)

// SentenceSplitter groups Token annotations into Sentence annotations. A
// sentence ends after a punctuation token made only of '.', '!' or '?'; any
// tokens after the last terminator form a final sentence. The sentence IDs,
// in document order, are registered under annot.AuxSentenceIndex.
type SentenceSplitter struct {
	// SetName is the set holding the tokens; sentences go to the same set.
	SetName string
}

// Name implements Stage.
func (s *SentenceSplitter) Name() string { return "sentence-splitter" }

// Process implements Stage.
func (s *SentenceSplitter) Process(ctx context.Context, doc *annot.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set := doc.NamedAnnotations(s.SetName)
	if len(set.ByType(TypeSentence)) > 0 {
		return errors.NewState("split sentences", "set already holds sentences")
	}

	var ids []annot.ID
	var run annot.Annotations
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		id, err := set.Add(run[0].Start(), run[len(run)-1].End(), TypeSentence,
			annot.NewFeatureMap(FeatureTokens, strconv.Itoa(len(run))))
		if err != nil {
			return err
		}
		ids = append(ids, id)
		run = run[:0]
		return nil
	}

	for _, tok := range set.InDocumentOrder().ByType(TypeToken) {
		run = append(run, tok)
		if isTerminator(tok) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	doc.Aux().Delete(annot.AuxSentenceIndex)
	_, err := doc.Aux().GetOrCreate(annot.AuxSentenceIndex, func() (any, error) {
		return ids, nil
	})
	return err
}

func isTerminator(tok *annot.Annotation) bool {
	if tok.Features().Value(FeatureKind) != KindPunctuation {
		return false
	}
	s := tok.Features().Value(FeatureString)
	return s != "" && strings.Trim(s, ".!?") == ""
}
