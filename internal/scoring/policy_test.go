package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatWithPenaltyScenario(t *testing.T) {
	p := FlatWithPenalty{UnitValue: 100, FloorBonus: 10, CapBonus: 50, AttemptDecay: 10, AssistPenalty: 25}

	assert.Equal(t, 350, p.Correct(Round{Difficulty: 3, AttemptsUsed: 1}))
}

func TestFlatWithPenaltyDecayAndAssists(t *testing.T) {
	p := DefaultFlat()

	tests := []struct {
		name string
		r    Round
		want int
	}{
		{"second try", Round{Difficulty: 1, AttemptsUsed: 2}, 100 + 40},
		{"bonus floored", Round{Difficulty: 1, AttemptsUsed: 9}, 100 + 10},
		{"one assist", Round{Difficulty: 2, AttemptsUsed: 1, AssistsUsed: 1}, 200 + 50 - 25},
		{"never below floor bonus", Round{Difficulty: 1, AttemptsUsed: 9, AssistsUsed: 10}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Correct(tt.r))
		})
	}
	assert.Equal(t, 0, p.Incorrect(Round{Difficulty: 5}))
}

func TestFlatWithPenaltyZeroFloorStillPositive(t *testing.T) {
	p := FlatWithPenalty{UnitValue: 1, AssistPenalty: 100}
	assert.Equal(t, 1, p.Correct(Round{Difficulty: 1, AttemptsUsed: 1, AssistsUsed: 3}))
}

func TestStreakAmplified(t *testing.T) {
	p := StreakAmplified{UnitValue: 10, StreakBonus: 5}

	assert.Equal(t, 20, p.Correct(Round{Difficulty: 2}))
	assert.Equal(t, 35, p.Correct(Round{Difficulty: 2, Streak: 3}))
	assert.Equal(t, 0, p.Incorrect(Round{Difficulty: 2, Streak: 3}))
}

func TestFixedDeltaClamp(t *testing.T) {
	p := FixedDelta{Reward: 5, Penalty: 2, FloorValue: 0}

	score := Clamp(p, 0+p.Incorrect(Round{}))
	assert.Equal(t, 0, score)
	score = Clamp(p, score+p.Correct(Round{}))
	assert.Equal(t, 5, score)
	score = Clamp(p, score+p.Incorrect(Round{}))
	assert.Equal(t, 3, score)
}

func TestFromDef(t *testing.T) {
	p, err := FromDef(Def{Kind: "flat", UnitValue: 50})
	require.NoError(t, err)
	flat, ok := p.(FlatWithPenalty)
	require.True(t, ok)
	assert.Equal(t, 50, flat.UnitValue)
	assert.Equal(t, 25, flat.AssistPenalty)

	p, err = FromDef(Def{Kind: "streak", StreakBonus: 7})
	require.NoError(t, err)
	assert.Equal(t, "streak", p.Name())
	assert.Equal(t, StreakAmplified{UnitValue: 10, StreakBonus: 7}, p)

	p, err = FromDef(Def{Kind: "fixed", Reward: 3, Floor: -10})
	require.NoError(t, err)
	floor, ok := p.Floor()
	assert.True(t, ok)
	assert.Equal(t, -10, floor)

	_, err = FromDef(Def{Kind: "lottery"})
	assert.Error(t, err)
}

func TestChargesAssists(t *testing.T) {
	assert.True(t, ChargesAssists(DefaultFlat()))
	assert.False(t, ChargesAssists(FlatWithPenalty{UnitValue: 100}))
	assert.False(t, ChargesAssists(DefaultStreak()))
	assert.False(t, ChargesAssists(DefaultFixed()))
}
