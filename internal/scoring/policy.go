// Package scoring turns round parameters into point deltas.
//
// Every game picks one Policy; the session engine never hardcodes a formula.
// Three reference policies are provided:
//   - FlatWithPenalty: difficulty-scaled base plus a bonus that shrinks with attempts,
//     minus a fixed penalty per assist.
//   - StreakAmplified: difficulty-scaled base plus a bonus per consecutive correct round.
//   - FixedDelta:      constant reward/penalty with the running score clamped at a floor.
package scoring

import "fmt"

// Round carries the parameters of the round being scored.
type Round struct {
	Difficulty   int // challenge difficulty (positive)
	AttemptsUsed int // including the submission being scored
	AssistsUsed  int // distinct assists revealed this round
	Streak       int // consecutive correct resolutions before this one
}

// Policy is the strategy interface every game configures.
type Policy interface {
	// Name identifies the policy kind ("flat", "streak", "fixed").
	Name() string
	// Correct returns the points awarded for a correct answer. Always > 0.
	Correct(r Round) int
	// Incorrect returns the score delta for a wrong answer. Always <= 0.
	Incorrect(r Round) int
	// Floor returns the lowest score the running total may reach, if any.
	Floor() (int, bool)
}

// AssistCharger is implemented by policies that price revealed assists into
// Correct themselves. Assist costs are not charged on reveal under such a policy.
type AssistCharger interface {
	AssistCharge() int
}

// ChargesAssists reports whether p prices assists itself.
func ChargesAssists(p Policy) bool {
	c, ok := p.(AssistCharger)
	return ok && c.AssistCharge() > 0
}

// Clamp applies p's floor (if it has one) to score.
func Clamp(p Policy, score int) int {
	if floor, ok := p.Floor(); ok && score < floor {
		return floor
	}
	return score
}

// FlatWithPenalty awards difficulty*UnitValue plus an attempt bonus
// max(FloorBonus, CapBonus - (attempts-1)*AttemptDecay), minus AssistPenalty per assist.
// A correct answer never scores less than FloorBonus (or 1 when FloorBonus is 0).
type FlatWithPenalty struct {
	UnitValue     int
	FloorBonus    int
	CapBonus      int
	AttemptDecay  int
	AssistPenalty int
}

// DefaultFlat returns the constants the cipher games ship with.
func DefaultFlat() FlatWithPenalty {
	return FlatWithPenalty{
		UnitValue:     100,
		FloorBonus:    10,
		CapBonus:      50,
		AttemptDecay:  10,
		AssistPenalty: 25,
	}
}

func (p FlatWithPenalty) Name() string { return "flat" }

func (p FlatWithPenalty) Correct(r Round) int {
	extra := r.AttemptsUsed - 1
	if extra < 0 {
		extra = 0
	}
	bonus := p.CapBonus - extra*p.AttemptDecay
	if bonus < p.FloorBonus {
		bonus = p.FloorBonus
	}
	points := r.Difficulty*p.UnitValue + bonus - r.AssistsUsed*p.AssistPenalty

	least := p.FloorBonus
	if least < 1 {
		least = 1
	}
	if points < least {
		points = least
	}
	return points
}

func (p FlatWithPenalty) Incorrect(Round) int { return 0 }

// AssistCharge is the penalty Correct deducts per assist used.
func (p FlatWithPenalty) AssistCharge() int { return p.AssistPenalty }

func (p FlatWithPenalty) Floor() (int, bool) { return 0, true }

// StreakAmplified awards difficulty*UnitValue + streak*StreakBonus.
type StreakAmplified struct {
	UnitValue   int
	StreakBonus int
}

// DefaultStreak returns the constants the memory and matching games ship with.
func DefaultStreak() StreakAmplified {
	return StreakAmplified{UnitValue: 10, StreakBonus: 5}
}

func (p StreakAmplified) Name() string { return "streak" }

func (p StreakAmplified) Correct(r Round) int {
	points := r.Difficulty*p.UnitValue + r.Streak*p.StreakBonus
	if points < 1 {
		points = 1
	}
	return points
}

func (p StreakAmplified) Incorrect(Round) int { return 0 }

func (p StreakAmplified) Floor() (int, bool) { return 0, true }

// FixedDelta awards +Reward on correct, -Penalty on incorrect, clamped at FloorValue.
type FixedDelta struct {
	Reward     int
	Penalty    int
	FloorValue int
}

// DefaultFixed returns the constants the math quiz ships with.
func DefaultFixed() FixedDelta {
	return FixedDelta{Reward: 5, Penalty: 2, FloorValue: 0}
}

func (p FixedDelta) Name() string { return "fixed" }

func (p FixedDelta) Correct(Round) int {
	if p.Reward < 1 {
		return 1
	}
	return p.Reward
}

func (p FixedDelta) Incorrect(Round) int {
	if p.Penalty < 0 {
		return p.Penalty
	}
	return -p.Penalty
}

func (p FixedDelta) Floor() (int, bool) { return p.FloorValue, true }

// Def is the declarative form of a policy, as written in the game catalog.
// Zero fields fall back to the kind's defaults.
type Def struct {
	Kind          string `yaml:"kind" json:"kind"`
	UnitValue     int    `yaml:"unit_value,omitempty" json:"unitValue,omitempty"`
	FloorBonus    int    `yaml:"floor_bonus,omitempty" json:"floorBonus,omitempty"`
	CapBonus      int    `yaml:"cap_bonus,omitempty" json:"capBonus,omitempty"`
	AttemptDecay  int    `yaml:"attempt_decay,omitempty" json:"attemptDecay,omitempty"`
	AssistPenalty int    `yaml:"assist_penalty,omitempty" json:"assistPenalty,omitempty"`
	StreakBonus   int    `yaml:"streak_bonus,omitempty" json:"streakBonus,omitempty"`
	Reward        int    `yaml:"reward,omitempty" json:"reward,omitempty"`
	Penalty       int    `yaml:"penalty,omitempty" json:"penalty,omitempty"`
	Floor         int    `yaml:"floor,omitempty" json:"floor,omitempty"`
}

// FromDef builds a Policy from its declarative form.
func FromDef(s Def) (Policy, error) {
	switch s.Kind {
	case "flat", "":
		p := DefaultFlat()
		override(&p.UnitValue, s.UnitValue)
		override(&p.FloorBonus, s.FloorBonus)
		override(&p.CapBonus, s.CapBonus)
		override(&p.AttemptDecay, s.AttemptDecay)
		override(&p.AssistPenalty, s.AssistPenalty)
		return p, nil
	case "streak":
		p := DefaultStreak()
		override(&p.UnitValue, s.UnitValue)
		override(&p.StreakBonus, s.StreakBonus)
		return p, nil
	case "fixed":
		p := DefaultFixed()
		override(&p.Reward, s.Reward)
		override(&p.Penalty, s.Penalty)
		p.FloorValue = s.Floor
		return p, nil
	default:
		return nil, fmt.Errorf("scoring: unknown policy kind %q", s.Kind)
	}
}

func override(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
