// internal/challenge/types.go
//
// Core type definitions for a single round of any arcade game.
// Defines:
//   - Prompt:    opaque display payload (text, items, asset reference).
//   - Assist:    a revealable hint or decryption key with a point cost.
//   - Candidate: one raw submission from the player.
//   - Verdict:   result of evaluating a candidate (plus per-slot marks).
//   - Challenge: one immutable puzzle instance.

package challenge

// Mark represents the evaluation result for a single slot of a sequence answer.
//   - "hit":     element is correct and in the correct position.
//   - "present": element exists in the answer but in a different position.
//   - "miss":    element does not occur in the answer (or all copies are used up).
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Prompt is what the browser renders for a round. The engine never inspects it.
type Prompt struct {
	Kind  string   `json:"kind" yaml:"kind"`                       // "text" | "sequence" | "image" | "sound" | ...
	Text  string   `json:"text,omitempty" yaml:"text,omitempty"`   // question or ciphertext
	Items []string `json:"items,omitempty" yaml:"items,omitempty"` // choices, tiles, pieces
	Asset string   `json:"asset,omitempty" yaml:"asset,omitempty"` // image/sound reference
}

// Assist is an optional aid the player may reveal during a round.
type Assist struct {
	Kind    string `json:"kind"`    // "hint" | "key"
	Content string `json:"content"` // what gets shown
	Cost    int    `json:"cost"`    // points deducted on first reveal
}

// Candidate is a player's submission. Which field matters depends on the Answer variant.
type Candidate struct {
	Text   string   `json:"text,omitempty"`
	Items  []string `json:"items,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

// Verdict is the outcome of Evaluate.
type Verdict struct {
	Correct bool   `json:"correct"`
	Marks   []Mark `json:"marks,omitempty"` // only for sequence answers of matching length
}

// Challenge holds one puzzle instance.
type Challenge struct {
	ID         int      // ordinal within a session
	Prompt     Prompt   // display payload
	Answer     Answer   // comparison rule
	Difficulty int      // positive, used linearly in scoring
	Assists    []Assist // ordered, optional
}
