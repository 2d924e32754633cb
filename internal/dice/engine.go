// Package dice implements deterministic-under-test dice resolution for
// action checks.
package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
)

// Regex for parsing dice notation like "d20", "2d6", "3d8"
var notationRegex = regexp.MustCompile(`^(\d*)d(\d+)$`)

const maxDiceCount = 100

// Spec constrains a roll: how many dice and how many sides
type Spec struct {
	Count int
	Sides int
}

// String renders the spec back to notation
func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

// Validate checks the spec is rollable
func (s Spec) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("Count", s.Count, 1, maxDiceCount, vb)
	if s.Sides < 2 {
		vb.Fieldf("Sides", "die must have at least 2 sides, got %d", s.Sides)
	}
	return vb.Build()
}

// ParseSpec parses notation like "d20" or "2d6". A missing count means one
// die. Anything else is an invalid-argument error.
func ParseSpec(notation string) (Spec, error) {
	matches := notationRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(notation)))
	if len(matches) != 3 {
		return Spec{}, errors.InvalidArgumentf("invalid dice notation: %q (expected format: XdY)", notation)
	}

	count := 1
	if matches[1] != "" {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return Spec{}, errors.InvalidArgumentf("invalid dice count in notation: %q", notation)
		}
		count = n
	}

	sides, err := strconv.Atoi(matches[2])
	if err != nil {
		return Spec{}, errors.InvalidArgumentf("invalid die size in notation: %q", notation)
	}

	spec := Spec{Count: count, Sides: sides}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// CheckInput describes a single action check
type CheckInput struct {
	Spec        Spec
	Threshold   int // 0 means a plain roll with no success semantics
	Modifier    int
	Proficiency int
	Mode        game.RollMode
}

// Result is the outcome of a roll or check
type Result struct {
	Spec        Spec
	Rolls       []int // every die consumed, including a dropped advantage die
	Raw         int   // kept dice total, before modifiers
	Modifier    int
	Proficiency int
	Total       int
	Threshold   int
	Checked     bool // whether a threshold was supplied
	Succeeded   bool
	Mode        game.RollMode
}

// Engine resolves rolls. It has no state beyond the injected entropy
// source, so results are reproducible under a scripted roller.
type Engine struct {
	roller dice.Roller
}

// Config holds the dependencies for the dice engine
type Config struct {
	// Roller supplies entropy. Defaults to the toolkit's roller.
	Roller dice.Roller
}

// NewEngine creates a dice engine
func NewEngine(cfg *Config) *Engine {
	roller := dice.DefaultRoller
	if cfg != nil && cfg.Roller != nil {
		roller = cfg.Roller
	}
	return &Engine{roller: roller}
}

// Roll resolves a plain roll with no threshold
func (e *Engine) Roll(spec Spec) (*Result, error) {
	return e.Check(&CheckInput{Spec: spec, Mode: game.RollNormal})
}

// Check resolves a roll against a difficulty threshold. Advantage and
// disadvantage apply only to single-die rolls: two dice are consumed and
// the higher (or lower) is kept.
func (e *Engine) Check(input *CheckInput) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := input.Spec.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Spec:        input.Spec,
		Modifier:    input.Modifier,
		Proficiency: input.Proficiency,
		Threshold:   input.Threshold,
		Mode:        input.Mode,
	}
	if result.Mode == "" {
		result.Mode = game.RollNormal
	}

	switch {
	case input.Spec.Count == 1 && result.Mode != game.RollNormal:
		first, err := e.roller.Roll(input.Spec.Sides)
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll")
		}
		second, err := e.roller.Roll(input.Spec.Sides)
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll")
		}
		result.Rolls = []int{first, second}
		if result.Mode == game.RollAdvantage {
			result.Raw = max(first, second)
		} else {
			result.Raw = min(first, second)
		}
	default:
		rolls, err := e.roller.RollN(input.Spec.Count, input.Spec.Sides)
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll")
		}
		result.Rolls = rolls
		for _, r := range rolls {
			result.Raw += r
		}
		result.Mode = game.RollNormal
	}

	result.Total = result.Raw + result.Modifier + result.Proficiency
	if input.Threshold > 0 {
		result.Checked = true
		result.Succeeded = result.Total >= input.Threshold
	}
	return result, nil
}
