package dice_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmforge/dm-api/internal/dice"
	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
)

// scriptedRoller returns predetermined values so tests can force outcomes.
type scriptedRoller struct {
	values []int
	next   int
}

func (r *scriptedRoller) Roll(_ int) (int, error) {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v, nil
}

func (r *scriptedRoller) RollN(count, size int) ([]int, error) {
	rolls := make([]int, count)
	for i := range rolls {
		v, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		rolls[i] = v
	}
	return rolls, nil
}

// seededRoller is uniform entropy with a reproducible seed.
type seededRoller struct {
	rng *rand.Rand
}

func (r *seededRoller) Roll(size int) (int, error) {
	return r.rng.Intn(size) + 1, nil
}

func (r *seededRoller) RollN(count, size int) ([]int, error) {
	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = r.rng.Intn(size) + 1
	}
	return rolls, nil
}

func TestParseSpec(t *testing.T) {
	t.Run("valid notations", func(t *testing.T) {
		cases := map[string]dice.Spec{
			"d20":  {Count: 1, Sides: 20},
			"D20":  {Count: 1, Sides: 20},
			"1d20": {Count: 1, Sides: 20},
			"2d6":  {Count: 2, Sides: 6},
			" 3d8": {Count: 3, Sides: 8},
		}
		for notation, want := range cases {
			spec, err := dice.ParseSpec(notation)
			require.NoErrorf(t, err, "notation %q", notation)
			assert.Equal(t, want, spec)
		}
	})

	t.Run("invalid notations", func(t *testing.T) {
		for _, notation := range []string{"", "d", "20", "0d20", "d0", "d1", "2d", "abc", "-1d6", "2x6"} {
			_, err := dice.ParseSpec(notation)
			assert.Errorf(t, err, "notation %q should fail", notation)
			assert.True(t, errors.IsInvalidArgument(err))
		}
	})
}

func TestCheck_RangeUnderSeededEntropy(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &seededRoller{rng: rand.New(rand.NewSource(42))}})

	for _, sides := range []int{4, 6, 8, 10, 12, 20, 100} {
		seen := make(map[int]bool)
		for i := 0; i < 2000; i++ {
			result, err := engine.Roll(dice.Spec{Count: 1, Sides: sides})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, result.Raw, 1)
			assert.LessOrEqual(t, result.Raw, sides)
			seen[result.Raw] = true
		}
		// Every face should appear over 2000 rolls.
		assert.Lenf(t, seen, sides, "d%d did not cover its range", sides)
	}
}

func TestCheck_ThresholdSemantics(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{15}}})

	result, err := engine.Check(&dice.CheckInput{
		Spec:      dice.Spec{Count: 1, Sides: 20},
		Threshold: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, 15, result.Raw)
	assert.Equal(t, 15, result.Total)
	assert.True(t, result.Checked)
	assert.True(t, result.Succeeded)

	result, err = engine.Check(&dice.CheckInput{
		Spec:      dice.Spec{Count: 1, Sides: 20},
		Threshold: 16,
	})
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
}

func TestCheck_ModifiersFoldIntoTotal(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{10}}})

	result, err := engine.Check(&dice.CheckInput{
		Spec:        dice.Spec{Count: 1, Sides: 20},
		Threshold:   14,
		Modifier:    2,
		Proficiency: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Raw)
	assert.Equal(t, 14, result.Total)
	assert.True(t, result.Succeeded)
}

func TestCheck_NoThresholdMeansNoSuccessFlag(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{20}}})

	result, err := engine.Roll(dice.Spec{Count: 1, Sides: 20})
	require.NoError(t, err)
	assert.False(t, result.Checked)
	assert.False(t, result.Succeeded)
}

func TestCheck_Advantage(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{7, 16}}})

	result, err := engine.Check(&dice.CheckInput{
		Spec: dice.Spec{Count: 1, Sides: 20},
		Mode: game.RollAdvantage,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{7, 16}, result.Rolls)
	assert.Equal(t, 16, result.Raw)
}

func TestCheck_Disadvantage(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{7, 16}}})

	result, err := engine.Check(&dice.CheckInput{
		Spec: dice.Spec{Count: 1, Sides: 20},
		Mode: game.RollDisadvantage,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Raw)
}

func TestCheck_MultiDiceSumsKeptDice(t *testing.T) {
	engine := dice.NewEngine(&dice.Config{Roller: &scriptedRoller{values: []int{3, 4}}})

	result, err := engine.Roll(dice.Spec{Count: 2, Sides: 6})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4}, result.Rolls)
	assert.Equal(t, 7, result.Raw)
}

func TestCheck_InvalidSpec(t *testing.T) {
	engine := dice.NewEngine(nil)

	_, err := engine.Roll(dice.Spec{Count: 1, Sides: 0})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = engine.Roll(dice.Spec{Count: 0, Sides: 20})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = engine.Check(nil)
	assert.True(t, errors.IsInvalidArgument(err))
}
