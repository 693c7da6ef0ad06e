package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/brainarcade/assets"
	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/scoring"
)

func embedded(t *testing.T) *Catalog {
	t.Helper()
	data, err := assets.Games()
	require.NoError(t, err)
	c, err := Parse(data)
	require.NoError(t, err)
	return c
}

func TestEmbeddedCatalogLoadsEveryGame(t *testing.T) {
	c := embedded(t)

	var keys []string
	for _, g := range c.List() {
		keys = append(keys, g.Key)
		assert.Positive(t, g.TimeLimit, g.Key)
		assert.Positive(t, g.Rounds(), g.Key)
		assert.NotNil(t, g.Policy, g.Key)
		for _, ch := range g.Challenges() {
			require.NoError(t, ch.Validate(), g.Key)
		}
	}
	assert.Equal(t, []string{
		"caesar-cipher", "morse-decoder", "code-breaker", "memory-match",
		"math-quiz", "puzzle-assembly", "sound-match", "shape-match",
	}, keys)
}

func TestCaesarEntriesBuildCiphertextAndKey(t *testing.T) {
	g, err := embedded(t).Get("caesar-cipher")
	require.NoError(t, err)

	first := g.Challenges()[0]
	assert.Equal(t, "caesar", first.Prompt.Kind)
	assert.Equal(t, "khoor zruog", first.Prompt.Text)
	assert.True(t, first.Evaluate(challenge.Candidate{Text: "Hello World"}).Correct)

	last := first.Assists[len(first.Assists)-1]
	assert.Equal(t, "key", last.Kind)
	assert.Contains(t, last.Content, "3")
	assert.Equal(t, "flat", g.Policy.Name())
}

func TestMorseEntries(t *testing.T) {
	g, err := embedded(t).Get("morse-decoder")
	require.NoError(t, err)
	first := g.Challenges()[0]
	assert.Equal(t, "... --- ...", first.Prompt.Text)
	assert.True(t, first.Evaluate(challenge.Candidate{Text: "SOS"}).Correct)
}

func TestMathQuizUsesFixedPolicyAndNumbers(t *testing.T) {
	g, err := embedded(t).Get("math-quiz")
	require.NoError(t, err)
	assert.Equal(t, "fixed", g.Policy.Name())
	floor, ok := g.Policy.Floor()
	assert.True(t, ok)
	assert.Equal(t, 0, floor)

	first := g.Challenges()[0]
	assert.True(t, first.Evaluate(challenge.Candidate{Text: "56"}).Correct)
	assert.False(t, first.Evaluate(challenge.Candidate{Text: "54"}).Correct)
}

func TestGetUnknownGame(t *testing.T) {
	_, err := embedded(t).Get("chess")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestPrevious(t *testing.T) {
	c := embedded(t)
	assert.Nil(t, c.Previous("caesar-cipher"))
	prev := c.Previous("morse-decoder")
	require.NotNil(t, prev)
	assert.Equal(t, "caesar-cipher", prev.Key)
}

func TestChallengesReturnsCopy(t *testing.T) {
	g, err := embedded(t).Get("shape-match")
	require.NoError(t, err)
	chs := g.Challenges()
	chs[0].Difficulty = 99
	assert.NotEqual(t, 99, g.Challenges()[0].Difficulty)
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	cases := map[string]string{
		"empty":         "games: []",
		"no key":        "games: [{time_limit: 10, challenges: [{answer: {text: a}}]}]",
		"no time":       "games: [{key: a, challenges: [{answer: {text: a}}]}]",
		"no rounds":     "games: [{key: a, time_limit: 10}]",
		"no answer":     "games: [{key: a, time_limit: 10, challenges: [{prompt: {text: q}}]}]",
		"bad policy":    "games: [{key: a, time_limit: 10, policy: {kind: weird}, challenges: [{answer: {text: a}}]}]",
		"double charge": "games: [{key: a, time_limit: 10, policy: {kind: flat}, challenges: [{answer: {text: a}, assists: [{content: h, cost: 5}]}]}]",
		"morse symbols": "games: [{key: a, time_limit: 10, challenges: [{plaintext: 'hi!', morse: true}]}]",
		"zero shift":    "games: [{key: a, time_limit: 10, challenges: [{plaintext: hello, shift: 26}]}]",
		"duplicate":     "games: [{key: a, time_limit: 10, challenges: [{answer: {text: a}}]}, {key: a, time_limit: 10, challenges: [{answer: {text: a}}]}]",
		"invalid yaml":  "games: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileAndOrdering(t *testing.T) {
	doc := `
games:
  - key: second
    order: 2
    time_limit: 30
    challenges: [{answer: {text: b}}]
  - key: first
    order: 1
    time_limit: 30
    challenges: [{answer: {sequence: [x, y]}, difficulty: 2}]
`
	path := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Key)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, "sequence", list[0].Challenges()[0].Answer.Kind())
}

func TestEmbeddedAssistsChargedOnce(t *testing.T) {
	for _, g := range embedded(t).List() {
		if !scoring.ChargesAssists(g.Policy) {
			continue
		}
		for _, ch := range g.Challenges() {
			for _, a := range ch.Assists {
				assert.Zero(t, a.Cost, g.Key)
			}
		}
	}
}
