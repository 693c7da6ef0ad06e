package challenge

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Answer is the comparison rule of a challenge.
// Variants: Text, Sequence, Numeric, Predicate.
type Answer interface {
	// Match reports whether c is accepted. It must not mutate anything.
	Match(c Candidate) Verdict
	// Kind names the variant ("text", "sequence", "numeric", "predicate").
	Kind() string
}

// Text accepts a candidate whose text equals Value ignoring case and all whitespace.
type Text struct {
	Value string
}

func (a Text) Kind() string { return "text" }

func (a Text) Match(c Candidate) Verdict {
	want := fold(a.Value)
	return Verdict{Correct: want != "" && fold(c.Text) == want}
}

// Sequence accepts a candidate whose Items equal Items position by position.
// A sequence of a different length is never correct.
type Sequence struct {
	Items []string
}

func (a Sequence) Kind() string { return "sequence" }

func (a Sequence) Match(c Candidate) Verdict {
	if len(a.Items) == 0 || len(c.Items) != len(a.Items) {
		return Verdict{}
	}
	answer := foldAll(a.Items)
	guess := foldAll(c.Items)
	marks := markSequence(answer, guess)
	return Verdict{Correct: allHit(marks), Marks: marks}
}

// Numeric accepts a number within Tolerance of Value.
// The candidate may carry Number or a numeric Text.
type Numeric struct {
	Value     float64
	Tolerance float64
}

func (a Numeric) Kind() string { return "numeric" }

func (a Numeric) Match(c Candidate) Verdict {
	var n float64
	switch {
	case c.Number != nil:
		n = *c.Number
	default:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return Verdict{}
		}
		n = v
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Verdict{}
	}
	return Verdict{Correct: math.Abs(n-a.Value) <= math.Abs(a.Tolerance)}
}

// Predicate wraps a bespoke comparison for games that need one.
type Predicate struct {
	Name string
	Fn   func(Candidate) bool
}

func (a Predicate) Kind() string { return "predicate" }

func (a Predicate) Match(c Candidate) Verdict {
	if a.Fn == nil {
		return Verdict{}
	}
	return Verdict{Correct: a.Fn(c)}
}

// fold lowercases s and strips every whitespace rune.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fold(s)
	}
	return out
}
