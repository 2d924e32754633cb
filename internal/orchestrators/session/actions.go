package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmforge/dm-api/internal/clients/narrative"
	"github.com/dmforge/dm-api/internal/dice"
	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/prompt"
	"github.com/dmforge/dm-api/internal/repositories/gamestate"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
)

// checkHeuristics maps action keywords to the ability they test. Evaluated
// in order so results are deterministic.
var checkHeuristics = []struct {
	ability  string
	keywords []string
}{
	{"STR", []string{"attack", "fight", "break", "smash", "lift", "push", "grapple"}},
	{"DEX", []string{"sneak", "climb", "jump", "dodge", "steal", "balance", "hide"}},
	{"CON", []string{"endure", "resist", "march", "hold out"}},
	{"INT", []string{"recall", "study", "decipher", "investigate", "arcane"}},
	{"WIS", []string{"track", "notice", "search", "listen", "sense", "survey"}},
	{"CHA", []string{"persuade", "convince", "charm", "intimidate", "perform", "bargain"}},
}

// handleUtterance routes narrative input by session state: creation answers
// while creating, a reminder while a roll is pending, and a new pending
// action while active.
func (o *orchestrator) handleUtterance(ctx context.Context, playerID string, kind game.ActionKind, text string) (*sessionsvc.HandleCommandOutput, error) {
	text = strings.TrimSpace(text)

	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	switch state.Session.State {
	case game.StateCreatingCharacter:
		return o.advanceCreation(ctx, state, text)
	case game.StateAwaitingRoll:
		return awaitingRollReply(state), nil
	case game.StateActive:
		if text == "" {
			return &sessionsvc.HandleCommandOutput{
				Reply: "What do you do?",
				State: game.StateActive,
			}, nil
		}
		return o.beginAction(ctx, playerID, kind, text)
	default:
		return notStartedReply(), nil
	}
}

// beginAction records the pending action and moves the session to
// awaiting-roll. The action resolves when the player rolls.
func (o *orchestrator) beginAction(ctx context.Context, playerID string, kind game.ActionKind, utterance string) (*sessionsvc.HandleCommandOutput, error) {
	ability, difficulty := chooseCheck(kind, utterance)

	if _, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			if s.Session.State != game.StateActive {
				return errors.FailedPrecondition("no action can start right now")
			}
			s.Session.PendingAction = &game.PendingAction{
				Kind:       kind,
				Utterance:  utterance,
				Ability:    ability,
				Difficulty: difficulty,
			}
			s.Session.State = game.StateAwaitingRoll
			s.Session.LastActivity = o.now()
			return nil
		},
	}); err != nil {
		return nil, err
	}

	return &sessionsvc.HandleCommandOutput{
		Reply:   fmt.Sprintf("That calls for a %s check, DC %d. Send /roll d20 when ready.", ability, difficulty),
		Choices: []string{"/roll d20", "/cancel"},
		State:   game.StateAwaitingRoll,
	}, nil
}

// handleRoll resolves a pending action when one is waiting, or reports a
// casual roll otherwise.
func (o *orchestrator) handleRoll(ctx context.Context, playerID, argument string) (*sessionsvc.HandleCommandOutput, error) {
	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	spec, mode, err := parseRollArgument(argument, state.Session.RollMode)
	if err != nil {
		return nil, err
	}

	if state.Session.State != game.StateAwaitingRoll {
		result, err := o.dice.Check(&dice.CheckInput{Spec: spec, Mode: mode})
		if err != nil {
			return nil, err
		}
		return &sessionsvc.HandleCommandOutput{
			Reply: renderRoll(result),
			State: state.Session.State,
		}, nil
	}

	pending := state.Session.PendingAction
	if pending == nil {
		// A pending-less awaiting state should not happen; repair it.
		slog.Error("awaiting roll without a pending action", "player_id", playerID)
		if err := o.clearPending(ctx, playerID); err != nil {
			return nil, err
		}
		return &sessionsvc.HandleCommandOutput{
			Reply: "There was nothing to roll for after all. Carry on.",
			State: game.StateActive,
		}, nil
	}

	result, err := o.dice.Check(&dice.CheckInput{
		Spec:        spec,
		Threshold:   pending.Difficulty,
		Modifier:    state.Sheet.AbilityModifier(pending.Ability),
		Proficiency: state.Sheet.ProficiencyBonus(),
		Mode:        mode,
	})
	if err != nil {
		return nil, err
	}

	pctx, err := o.buildContext(state, result)
	if err != nil {
		return nil, err
	}
	generated, err := o.narrative.Generate(ctx, &narrative.GenerateInput{
		System:    pctx.System,
		Utterance: prompt.Action(pending.Utterance),
	})
	if err != nil {
		// On timeout the pending action is cleared so the player can act
		// again; every other failure leaves the session exactly as it was.
		if errors.IsDeadlineExceeded(err) {
			if clearErr := o.clearPending(ctx, playerID); clearErr != nil {
				slog.Error("failed to clear pending action after timeout",
					"player_id", playerID,
					"error", clearErr,
				)
			}
		}
		return nil, err
	}

	var levelsGained int
	if _, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			now := o.now()
			s.Campaign.Append(game.RolePlayer, pending.Utterance, now)
			s.Campaign.Append(game.RoleNarrator, generated.Narrative, now)
			levelsGained = o.applyDeltas(s, generated.Deltas)
			s.Session.PendingAction = nil
			s.Session.State = game.StateActive
			s.Session.LastActivity = now
			return nil
		},
	}); err != nil {
		return nil, err
	}

	reply := renderRoll(result) + "\n\n" + generated.Narrative
	if levelsGained > 0 {
		reply += fmt.Sprintf("\n\nYou feel stronger: level %d!", state.Sheet.Level+levelsGained)
	}
	return &sessionsvc.HandleCommandOutput{Reply: reply, State: game.StateActive}, nil
}

// handleAsk is a side channel: it consults the narrative backend with a
// clarification frame and mutates nothing.
func (o *orchestrator) handleAsk(ctx context.Context, playerID, question string) (*sessionsvc.HandleCommandOutput, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return &sessionsvc.HandleCommandOutput{Reply: "Ask what? Try /ask followed by your question."}, nil
	}

	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	pctx, err := o.buildContext(state, nil)
	if err != nil {
		return nil, err
	}
	generated, err := o.narrative.Generate(ctx, &narrative.GenerateInput{
		System:    pctx.System,
		Utterance: prompt.Clarification(question),
	})
	if err != nil {
		return nil, err
	}

	return &sessionsvc.HandleCommandOutput{
		Reply: generated.Narrative,
		State: state.Session.State,
	}, nil
}

func (o *orchestrator) handleCancel(ctx context.Context, playerID string) (*sessionsvc.HandleCommandOutput, error) {
	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	if state.Session.State != game.StateAwaitingRoll {
		return &sessionsvc.HandleCommandOutput{
			Reply: "Nothing to cancel.",
			State: state.Session.State,
		}, nil
	}

	if err := o.clearPending(ctx, playerID); err != nil {
		return nil, err
	}
	return &sessionsvc.HandleCommandOutput{
		Reply: "You hold your action. The moment passes.",
		State: game.StateActive,
	}, nil
}

func (o *orchestrator) handleRestart(ctx context.Context, playerID string) (*sessionsvc.HandleCommandOutput, error) {
	_, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			s.Reset(o.now())
			return nil
		},
	})
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	reply, choices := stepPrompt(game.StepRace)
	return &sessionsvc.HandleCommandOutput{
		Reply:   "The tale is erased; a new one begins.\n" + reply,
		Choices: choices,
		State:   game.StateCreatingCharacter,
	}, nil
}

// clearPending drops the pending action and returns the session to active
func (o *orchestrator) clearPending(ctx context.Context, playerID string) error {
	_, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			s.Session.PendingAction = nil
			s.Session.State = game.StateActive
			s.Session.LastActivity = o.now()
			return nil
		},
	})
	return err
}

// applyDeltas folds explicitly signaled state changes into the record.
// Nothing outside recognized markers ever mutates state.
func (o *orchestrator) applyDeltas(s *game.GameState, deltas []narrative.Delta) int {
	levelsGained := 0
	for _, delta := range deltas {
		switch delta.Kind {
		case narrative.DeltaItemGained:
			s.Inventory = s.Inventory.Add(game.Item{Name: delta.Name, Quantity: delta.Quantity})
		case narrative.DeltaItemLost:
			s.Inventory = s.Inventory.Remove(delta.Name, delta.Quantity)
		case narrative.DeltaQuestAdded:
			s.Quests = s.Quests.Add(game.Quest{
				ID:          o.idGen.Generate(),
				Title:       delta.Name,
				Description: delta.Description,
			})
		case narrative.DeltaQuestCompleted:
			s.Quests.SetStatus(delta.Name, game.QuestCompleted)
		case narrative.DeltaQuestFailed:
			s.Quests.SetStatus(delta.Name, game.QuestFailed)
		case narrative.DeltaXP:
			if s.Sheet != nil {
				levelsGained += s.Sheet.AwardXP(delta.XP)
			}
		case narrative.DeltaHP:
			if s.Sheet == nil {
				continue
			}
			if delta.HP < 0 {
				s.Sheet.ApplyDamage(-delta.HP)
			} else {
				s.Sheet.Heal(delta.HP)
			}
		}
	}
	return levelsGained
}

func (o *orchestrator) buildContext(state *game.GameState, roll *dice.Result) (*prompt.Context, error) {
	return o.assembler.Build(&prompt.BuildInput{
		Campaign:  &state.Campaign,
		Sheet:     state.Sheet,
		Inventory: state.Inventory,
		Quests:    state.Quests,
		Roll:      roll,
		MaxTokens: o.maxContextTokens,
	})
}

// chooseCheck picks the ability an action tests. Talking is always
// charisma, travel is wayfinding, and free-form actions go by keyword.
func chooseCheck(kind game.ActionKind, utterance string) (string, int) {
	switch kind {
	case game.ActionTalk:
		return "CHA", defaultDifficulty
	case game.ActionTravel:
		return "WIS", defaultDifficulty
	}

	lower := strings.ToLower(utterance)
	for _, heuristic := range checkHeuristics {
		for _, keyword := range heuristic.keywords {
			if strings.Contains(lower, keyword) {
				return heuristic.ability, defaultDifficulty
			}
		}
	}
	return "DEX", defaultDifficulty
}

// parseRollArgument reads "[spec] [adv|dis]". A missing spec means d20;
// a missing mode falls back to the session preference.
func parseRollArgument(argument string, fallback game.RollMode) (dice.Spec, game.RollMode, error) {
	mode := fallback
	if mode == "" {
		mode = game.RollNormal
	}
	notation := "d20"

	for _, field := range strings.Fields(strings.ToLower(argument)) {
		switch field {
		case "adv", "advantage":
			mode = game.RollAdvantage
		case "dis", "disadvantage":
			mode = game.RollDisadvantage
		default:
			notation = field
		}
	}

	spec, err := dice.ParseSpec(notation)
	if err != nil {
		return dice.Spec{}, mode, err
	}
	return spec, mode, nil
}

func renderRoll(result *dice.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You roll %s: %d", result.Spec, result.Raw)
	if result.Modifier != 0 || result.Proficiency != 0 {
		fmt.Fprintf(&sb, " %+d", result.Modifier+result.Proficiency)
	}
	if result.Total != result.Raw {
		fmt.Fprintf(&sb, " = %d", result.Total)
	}
	if result.Mode == game.RollAdvantage {
		sb.WriteString(" (advantage)")
	} else if result.Mode == game.RollDisadvantage {
		sb.WriteString(" (disadvantage)")
	}
	if result.Checked {
		if result.Succeeded {
			fmt.Fprintf(&sb, " - success against DC %d!", result.Threshold)
		} else {
			fmt.Fprintf(&sb, " - failure against DC %d.", result.Threshold)
		}
	}
	return sb.String()
}

func awaitingRollReply(state *game.GameState) *sessionsvc.HandleCommandOutput {
	reply := "A roll is pending. Send /roll d20, or /cancel to hold your action."
	if pending := state.Session.PendingAction; pending != nil {
		reply = fmt.Sprintf("You were about to: %s. Send /roll d20 (DC %d %s check), or /cancel.",
			pending.Utterance, pending.Difficulty, pending.Ability)
	}
	return &sessionsvc.HandleCommandOutput{
		Reply:   reply,
		Choices: []string{"/roll d20", "/cancel"},
		State:   game.StateAwaitingRoll,
	}
}

func notStartedReply() *sessionsvc.HandleCommandOutput {
	return &sessionsvc.HandleCommandOutput{
		Reply:   "No adventure in progress. Send /start to begin.",
		Choices: []string{"/start"},
	}
}
