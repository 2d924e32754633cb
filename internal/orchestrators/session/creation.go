package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dmforge/dm-api/internal/clients/narrative"
	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/prompt"
	"github.com/dmforge/dm-api/internal/repositories/gamestate"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
)

const (
	minAbilityScore = 3
	maxAbilityScore = 18

	helpText = `Commands:
/start - begin or resume your adventure
/sheet - your character sheet
/campaign - the story so far
/inventory - what you carry
/quests - your quest log
/additem name [xN] [- description] - note down an item
/addquest title [- description] - note down a quest
/roll [spec] [adv|dis] - roll dice (d20 by default)
/ask question - ask the narrator out of game
/talk ... or /travel ... - act in the story
/cancel - abandon a pending roll
/restart - erase everything and start over
Anything else you type is what your character does.`

	// cannedIntro covers a narrative-backend failure right after
	// creation. The character is already persisted; only the opening
	// scene is lost.
	cannedIntro = "Your story begins on a muddy road at dusk, an unfamiliar town ahead. The narrator clears their throat... and falls silent. Act, and the tale will follow."
)

func (o *orchestrator) handleStart(ctx context.Context, playerID string) (*sessionsvc.HandleCommandOutput, error) {
	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		fresh := game.NewGameState(playerID, o.now())
		if _, err := o.repo.Put(ctx, gamestate.PutInput{State: fresh}); err != nil {
			return nil, err
		}
		reply, choices := stepPrompt(game.StepRace)
		return &sessionsvc.HandleCommandOutput{
			Reply:   "Welcome, adventurer. Let's shape your character.\n" + reply,
			Choices: choices,
			State:   game.StateCreatingCharacter,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	switch state.Session.State {
	case game.StateCreatingCharacter:
		reply, choices := stepPrompt(state.Session.Step)
		return &sessionsvc.HandleCommandOutput{
			Reply:   "Your character is not finished yet.\n" + reply,
			Choices: choices,
			State:   state.Session.State,
		}, nil
	case game.StateAwaitingRoll:
		return awaitingRollReply(state), nil
	default:
		return &sessionsvc.HandleCommandOutput{
			Reply: fmt.Sprintf("Welcome back. Your %s %s awaits your next move.", state.Sheet.Race, state.Sheet.Class),
			State: state.Session.State,
		}, nil
	}
}

func (o *orchestrator) handleHelp(ctx context.Context, playerID string) (*sessionsvc.HandleCommandOutput, error) {
	output := &sessionsvc.HandleCommandOutput{Reply: helpText}
	if state, err := o.loadState(ctx, playerID); err == nil {
		output.State = state.Session.State
	}
	return output, nil
}

// advanceCreation consumes one creation answer. Input that does not match
// the current step's expected shape re-prompts without advancing.
func (o *orchestrator) advanceCreation(ctx context.Context, state *game.GameState, text string) (*sessionsvc.HandleCommandOutput, error) {
	playerID := state.Session.PlayerID
	step := state.Session.Step

	switch step {
	case game.StepRace:
		choice := strings.ToLower(strings.TrimSpace(text))
		if !containsFold(game.Races, choice) {
			reply, choices := stepPrompt(game.StepRace)
			return &sessionsvc.HandleCommandOutput{
				Reply:   fmt.Sprintf("%q is not a race I know.\n%s", text, reply),
				Choices: choices,
				State:   game.StateCreatingCharacter,
			}, nil
		}
		if err := o.updateCreation(ctx, playerID, func(s *game.GameState) {
			s.Sheet = &game.CharacterSheet{Race: choice}
			s.Session.Step = game.StepClass
		}); err != nil {
			return nil, err
		}
		reply, choices := stepPrompt(game.StepClass)
		return &sessionsvc.HandleCommandOutput{Reply: reply, Choices: choices, State: game.StateCreatingCharacter}, nil

	case game.StepClass:
		choice := strings.ToLower(strings.TrimSpace(text))
		if !containsFold(game.Classes, choice) {
			reply, choices := stepPrompt(game.StepClass)
			return &sessionsvc.HandleCommandOutput{
				Reply:   fmt.Sprintf("%q is not a class I know.\n%s", text, reply),
				Choices: choices,
				State:   game.StateCreatingCharacter,
			}, nil
		}
		if err := o.updateCreation(ctx, playerID, func(s *game.GameState) {
			s.Sheet.Class = choice
			s.Session.Step = game.StepAbilities
		}); err != nil {
			return nil, err
		}
		reply, choices := stepPrompt(game.StepAbilities)
		return &sessionsvc.HandleCommandOutput{Reply: reply, Choices: choices, State: game.StateCreatingCharacter}, nil

	case game.StepAbilities:
		scores, err := parseAbilityScores(text)
		if err != nil {
			reply, choices := stepPrompt(game.StepAbilities)
			return &sessionsvc.HandleCommandOutput{
				Reply:   errors.GetMessage(err) + "\n" + reply,
				Choices: choices,
				State:   game.StateCreatingCharacter,
			}, nil
		}
		if err := o.updateCreation(ctx, playerID, func(s *game.GameState) {
			abilities := make([]game.AbilityScore, len(game.AbilityNames))
			for i, name := range game.AbilityNames {
				abilities[i] = game.AbilityScore{Name: name, Score: scores[i]}
			}
			s.Sheet.Abilities = abilities
			s.Session.Step = game.StepMotivation
		}); err != nil {
			return nil, err
		}
		reply, choices := stepPrompt(game.StepMotivation)
		return &sessionsvc.HandleCommandOutput{Reply: reply, Choices: choices, State: game.StateCreatingCharacter}, nil

	case game.StepMotivation:
		motivation := strings.TrimSpace(text)
		if motivation == "" {
			reply, choices := stepPrompt(game.StepMotivation)
			return &sessionsvc.HandleCommandOutput{Reply: reply, Choices: choices, State: game.StateCreatingCharacter}, nil
		}
		return o.finalizeCreation(ctx, playerID, motivation)

	default:
		return nil, errors.Internalf("unknown creation step: %q", step)
	}
}

// finalizeCreation derives the finished sheet, moves the session to active,
// then asks the narrative backend for an opening scene. The creation
// transition persists first: an intro failure costs only the opening text.
func (o *orchestrator) finalizeCreation(ctx context.Context, playerID, motivation string) (*sessionsvc.HandleCommandOutput, error) {
	updated, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			scores := make([]int, len(s.Sheet.Abilities))
			for i, ability := range s.Sheet.Abilities {
				scores[i] = ability.Score
			}
			s.Sheet = game.NewCharacterSheet(s.Sheet.Race, s.Sheet.Class, scores, motivation)
			s.Session.State = game.StateActive
			s.Session.Step = ""
			s.Session.LastActivity = o.now()
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	state := updated.State

	pctx, err := o.buildContext(state, nil)
	if err != nil {
		return nil, err
	}
	generated, err := o.narrative.Generate(ctx, &narrative.GenerateInput{
		System:    pctx.System,
		Utterance: prompt.Intro(state.Sheet, state.Campaign.Genre),
	})
	if err != nil {
		slog.Warn("intro generation failed, using canned opening",
			"player_id", playerID,
			"error", err,
		)
		return &sessionsvc.HandleCommandOutput{Reply: cannedIntro, State: game.StateActive}, nil
	}

	if _, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			s.Campaign.Append(game.RoleNarrator, generated.Narrative, o.now())
			return nil
		},
	}); err != nil {
		return nil, err
	}

	return &sessionsvc.HandleCommandOutput{Reply: generated.Narrative, State: game.StateActive}, nil
}

// updateCreation applies a creation-step mutation, guarding against the
// record having left the creation state underneath the snapshot.
func (o *orchestrator) updateCreation(ctx context.Context, playerID string, apply func(*game.GameState)) error {
	_, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			if s.Session.State != game.StateCreatingCharacter {
				return errors.FailedPrecondition("character creation is not in progress")
			}
			apply(s)
			s.Session.LastActivity = o.now()
			return nil
		},
	})
	return err
}

func stepPrompt(step game.CreationStep) (string, []string) {
	switch step {
	case game.StepRace:
		return "Choose your race: " + strings.Join(game.Races, ", ") + ".", game.Races
	case game.StepClass:
		return "Choose your class: " + strings.Join(game.Classes, ", ") + ".", game.Classes
	case game.StepAbilities:
		return fmt.Sprintf("Enter six ability scores for %s as comma-separated numbers between %d and %d, for example 12,14,10,8,13,11.",
			strings.Join(game.AbilityNames, ", "), minAbilityScore, maxAbilityScore), nil
	case game.StepMotivation:
		return "What drives your character? A sentence will do.", nil
	default:
		return "Send /start to begin.", nil
	}
}

// parseAbilityScores parses six comma-separated scores in creation order
func parseAbilityScores(text string) ([]int, error) {
	parts := strings.Split(text, ",")
	if len(parts) != len(game.AbilityNames) {
		return nil, errors.InvalidArgumentf("expected %d scores, got %d", len(game.AbilityNames), len(parts))
	}
	scores := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.InvalidArgumentf("%q is not a number", strings.TrimSpace(part))
		}
		if n < minAbilityScore || n > maxAbilityScore {
			return nil, errors.InvalidArgumentf("scores must be between %d and %d, got %d", minAbilityScore, maxAbilityScore, n)
		}
		scores[i] = n
	}
	return scores, nil
}

func containsFold(list []string, value string) bool {
	for _, entry := range list {
		if strings.EqualFold(entry, value) {
			return true
		}
	}
	return false
}
