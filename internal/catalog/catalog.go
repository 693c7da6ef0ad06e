// internal/catalog/catalog.go
//
// Game catalog: every arcade game is configuration, not code.
//
// Responsibilities:
//   - Parse game definitions (YAML) into ready-to-play challenge tables.
//   - Build cipher prompts (Caesar, Morse) from plaintext via internal/cipher.
//   - Resolve each game's scoring policy.
//   - Expose a process-wide catalog loaded once (Init / Get / List).
//
// Initialization behavior (Init):
//   1. If CATALOG_FILE is set, load games from that file.
//   2. Otherwise fall back to the embedded assets/games.yaml.
//
// Environment variables:
//   CATALOG_FILE=/path/to/games.yaml

package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/brainarcade/assets"
	"github.com/robalobadob/brainarcade/internal/challenge"
	"github.com/robalobadob/brainarcade/internal/cipher"
	"github.com/robalobadob/brainarcade/internal/scoring"
)

// ErrUnknownGame is returned by Get for a key that is not in the catalog.
var ErrUnknownGame = errors.New("catalog: unknown game")

// Game is one playable entry.
type Game struct {
	Key         string
	Title       string
	Description string
	Order       int
	Kind        string
	TimeLimit   int // seconds
	MaxAttempts int // 0 = unlimited
	Policy      scoring.Policy
	challenges  []challenge.Challenge
}

// Challenges returns a copy of the game's challenge table in catalog order.
func (g *Game) Challenges() []challenge.Challenge {
	return append([]challenge.Challenge(nil), g.challenges...)
}

// Rounds is len(Challenges()).
func (g *Game) Rounds() int { return len(g.challenges) }

// Catalog is an immutable, ordered set of games.
type Catalog struct {
	byKey   map[string]*Game
	ordered []*Game
}

// Get looks a game up by key.
func (c *Catalog) Get(key string) (*Game, error) {
	g, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, key)
	}
	return g, nil
}

// List returns the games sorted by Order, then Key.
func (c *Catalog) List() []*Game {
	return append([]*Game(nil), c.ordered...)
}

// Previous returns the game listed immediately before key, or nil for the first.
func (c *Catalog) Previous(key string) *Game {
	for i, g := range c.ordered {
		if g.Key == key {
			if i == 0 {
				return nil
			}
			return c.ordered[i-1]
		}
	}
	return nil
}

// ---------------------------- YAML schema ----------------------------------

type file struct {
	Games []gameDef `yaml:"games"`
}

type gameDef struct {
	Key         string         `yaml:"key"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Order       int            `yaml:"order"`
	Kind        string         `yaml:"kind"`
	TimeLimit   int            `yaml:"time_limit"`
	MaxAttempts int            `yaml:"max_attempts"`
	Policy      scoring.Def   `yaml:"policy"`
	Challenges  []challengeDef `yaml:"challenges"`
}

type challengeDef struct {
	Prompt     challenge.Prompt `yaml:"prompt"`
	Answer     answerDef        `yaml:"answer"`
	Difficulty int              `yaml:"difficulty"`
	Assists    []assistDef      `yaml:"assists"`

	// cipher shorthand
	Plaintext string `yaml:"plaintext"`
	Shift     int    `yaml:"shift"`
	Morse     bool   `yaml:"morse"`
	KeyCost   int    `yaml:"key_cost"`
}

type answerDef struct {
	Text      string   `yaml:"text"`
	Sequence  []string `yaml:"sequence"`
	Number    *float64 `yaml:"number"`
	Tolerance float64  `yaml:"tolerance"`
}

type assistDef struct {
	Kind    string `yaml:"kind"`
	Content string `yaml:"content"`
	Cost    int    `yaml:"cost"`
}

// Parse decodes a YAML catalog and validates every game.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Games) == 0 {
		return nil, errors.New("catalog: no games defined")
	}

	c := &Catalog{byKey: make(map[string]*Game, len(f.Games))}
	for i, def := range f.Games {
		g, err := buildGame(def)
		if err != nil {
			return nil, fmt.Errorf("game #%d (%s): %w", i, def.Key, err)
		}
		if _, dup := c.byKey[g.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate game key %q", g.Key)
		}
		c.byKey[g.Key] = g
		c.ordered = append(c.ordered, g)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].Order != c.ordered[j].Order {
			return c.ordered[i].Order < c.ordered[j].Order
		}
		return c.ordered[i].Key < c.ordered[j].Key
	})
	return c, nil
}

// LoadFile reads and parses a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func buildGame(def gameDef) (*Game, error) {
	if def.Key == "" {
		return nil, errors.New("key is required")
	}
	if def.TimeLimit <= 0 {
		return nil, fmt.Errorf("time_limit must be positive, got %d", def.TimeLimit)
	}
	if len(def.Challenges) == 0 {
		return nil, errors.New("at least one challenge is required")
	}
	policy, err := scoring.FromDef(def.Policy)
	if err != nil {
		return nil, err
	}

	g := &Game{
		Key:         def.Key,
		Title:       def.Title,
		Description: def.Description,
		Order:       def.Order,
		Kind:        def.Kind,
		TimeLimit:   def.TimeLimit,
		MaxAttempts: def.MaxAttempts,
		Policy:      policy,
	}
	if g.Title == "" {
		g.Title = g.Key
	}
	for i, cd := range def.Challenges {
		ch, err := buildChallenge(i, cd)
		if err != nil {
			return nil, fmt.Errorf("challenge #%d: %w", i, err)
		}
		if scoring.ChargesAssists(policy) {
			for _, a := range ch.Assists {
				if a.Cost != 0 {
					return nil, fmt.Errorf("challenge #%d: assist cost %d set but the %s policy charges assists itself", i, a.Cost, policy.Name())
				}
			}
		}
		g.challenges = append(g.challenges, ch)
	}
	return g, nil
}

func buildChallenge(id int, cd challengeDef) (challenge.Challenge, error) {
	ch := challenge.Challenge{
		ID:         id,
		Prompt:     cd.Prompt,
		Difficulty: cd.Difficulty,
	}
	if ch.Difficulty == 0 {
		ch.Difficulty = 1
	}
	for _, a := range cd.Assists {
		kind := a.Kind
		if kind == "" {
			kind = "hint"
		}
		ch.Assists = append(ch.Assists, challenge.Assist{Kind: kind, Content: a.Content, Cost: a.Cost})
	}

	switch {
	case cd.Plaintext != "" && cd.Morse:
		ch.Prompt = challenge.Prompt{Kind: "morse", Text: cipher.EncodeMorse(cd.Plaintext)}
		ch.Answer = challenge.Text{Value: cd.Plaintext}
		ch.Assists = append(ch.Assists, challenge.Assist{
			Kind: "key", Content: cipher.MorseKey(cd.Plaintext), Cost: cd.KeyCost,
		})
	case cd.Plaintext != "":
		ch.Prompt = challenge.Prompt{Kind: "caesar", Text: cipher.Caesar(cd.Plaintext, cd.Shift)}
		ch.Answer = challenge.Text{Value: cd.Plaintext}
		ch.Assists = append(ch.Assists, challenge.Assist{
			Kind: "key", Content: fmt.Sprintf("Shift every letter back by %d", cd.Shift), Cost: cd.KeyCost,
		})
	default:
		ans, err := buildAnswer(cd.Answer)
		if err != nil {
			return challenge.Challenge{}, err
		}
		ch.Answer = ans
	}
	if ch.Prompt.Kind == "" {
		ch.Prompt.Kind = "text"
	}
	if err := checkCipher(ch, cd); err != nil {
		return challenge.Challenge{}, err
	}
	if err := ch.Validate(); err != nil {
		return challenge.Challenge{}, err
	}
	return ch, nil
}

// checkCipher decodes a cipher prompt back and requires the result to be accepted,
// so a plaintext the cipher cannot carry is rejected at load time.
func checkCipher(ch challenge.Challenge, cd challengeDef) error {
	if cd.Plaintext == "" {
		return nil
	}
	var decoded string
	switch ch.Prompt.Kind {
	case "morse":
		text, err := cipher.DecodeMorse(ch.Prompt.Text)
		if err != nil {
			return fmt.Errorf("morse prompt: %w", err)
		}
		decoded = text
	case "caesar":
		if cd.Shift%26 == 0 {
			return fmt.Errorf("caesar shift %d leaves %q unchanged", cd.Shift, cd.Plaintext)
		}
		decoded = cipher.Uncaesar(ch.Prompt.Text, cd.Shift)
	default:
		return nil
	}
	if !ch.Evaluate(challenge.Candidate{Text: decoded}).Correct {
		return fmt.Errorf("plaintext %q does not survive the %s cipher (decodes to %q)", cd.Plaintext, ch.Prompt.Kind, decoded)
	}
	return nil
}

func buildAnswer(a answerDef) (challenge.Answer, error) {
	switch {
	case len(a.Sequence) > 0:
		return challenge.Sequence{Items: append([]string(nil), a.Sequence...)}, nil
	case a.Number != nil:
		return challenge.Numeric{Value: *a.Number, Tolerance: a.Tolerance}, nil
	case a.Text != "":
		return challenge.Text{Value: a.Text}, nil
	default:
		return nil, errors.New("answer needs text, sequence or number")
	}
}

// ------------------------- process-wide catalog -----------------------------

var (
	initOnce   sync.Once
	current    *Catalog
	initialErr error
)

// Init loads the catalog exactly once.
func Init() error {
	initOnce.Do(func() {
		if path := os.Getenv("CATALOG_FILE"); path != "" {
			current, initialErr = LoadFile(path)
			return
		}
		data, err := assets.Games()
		if err != nil {
			initialErr = fmt.Errorf("read embedded catalog: %w", err)
			return
		}
		current, initialErr = Parse(data)
	})
	return initialErr
}

// Default returns the catalog loaded by Init (nil if Init failed or was not called).
func Default() *Catalog { return current }
