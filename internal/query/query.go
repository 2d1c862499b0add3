// Package query parses and evaluates span selectors over an annotation set.
//
// A selector names an optional annotation type and an optional span test:
//
//	Token               every Token
//	Token in 4:11       Tokens inside [4, 11)
//	Token@4:11          same as "in"
//	over 0:3            any annotation overlapping [0, 3)
//	Sentence covering 5:6
package query

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
)

// Op is the span test applied by a query.
type Op string

const (
	OpAll      Op = ""
	OpIn       Op = "in"
	OpOver     Op = "over"
	OpCovering Op = "covering"
)

// Query is a parsed selector.
type Query struct {
	Type  string
	Op    Op
	Start int
	End   int
}

//nolint:govet // participle grammar tags are not standard struct tags
type queryGrammar struct {
	Type string       `@Ident?`
	Span *spanGrammar `@@?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type spanGrammar struct {
	Op    string `@( Keyword | "@" )`
	Start int    `@Int ":"`
	End   int    `@Int`
}

// Keywords come first so that a bare "in" is never read as a type.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(?:in|over|covering)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.\-]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[@:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var queryParser = participle.MustBuild[queryGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a selector. The empty string selects everything.
func Parse(s string) (*Query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Query{}, nil
	}
	parsed, err := queryParser.ParseString("", s)
	if err != nil {
		return nil, errors.NewFormat("query", s, err.Error())
	}
	q := &Query{Type: parsed.Type}
	if sp := parsed.Span; sp != nil {
		q.Op = Op(sp.Op)
		if sp.Op == "@" {
			q.Op = OpIn
		}
		q.Start, q.End = sp.Start, sp.End
		if q.End < q.Start {
			return nil, errors.NewFormat("query", s, "span end before start")
		}
	}
	return q, nil
}

// String returns the canonical form of q.
func (q *Query) String() string {
	var parts []string
	if q.Type != "" {
		parts = append(parts, q.Type)
	}
	if q.Op != OpAll {
		parts = append(parts, string(q.Op), strconv.Itoa(q.Start)+":"+strconv.Itoa(q.End))
	}
	return strings.Join(parts, " ")
}

// Eval runs q against set. Results are in document order.
func (q *Query) Eval(set *annot.Set) (annot.Annotations, error) {
	var (
		res annot.Annotations
		err error
	)
	switch q.Op {
	case OpAll:
		res = set.InDocumentOrder()
	case OpIn:
		res, err = set.Contained(q.Start, q.End)
	case OpOver:
		res, err = set.Overlapping(q.Start, q.End)
	case OpCovering:
		res, err = set.Covering(q.Start, q.End)
	default:
		return nil, errors.NewUnsupported("query operator", string(q.Op))
	}
	if err != nil {
		return nil, err
	}
	if q.Type != "" {
		res = res.ByType(q.Type)
	}
	return res, nil
}
