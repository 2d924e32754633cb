// Package session implements the session state machine: it routes every
// inbound player command through stored state, the dice engine, the context
// assembler, and the narrative backend, and folds the results back into the
// store.
package session

import (
	"context"
	"log/slog"

	"github.com/dmforge/dm-api/internal/clients/narrative"
	"github.com/dmforge/dm-api/internal/dice"
	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/pkg/clock"
	"github.com/dmforge/dm-api/internal/pkg/idgen"
	"github.com/dmforge/dm-api/internal/pkg/playerlock"
	"github.com/dmforge/dm-api/internal/prompt"
	"github.com/dmforge/dm-api/internal/repositories/gamestate"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
)

const (
	// defaultContextTokens bounds assembled contexts when the config
	// does not say otherwise
	defaultContextTokens = 2048

	// defaultDifficulty is the check DC when the action heuristic has
	// no stronger opinion
	defaultDifficulty = 12
)

// Config holds the dependencies for the session orchestrator
type Config struct {
	GameStateRepo gamestate.Repository
	Narrative     narrative.Client
	Dice          *dice.Engine
	Assembler     *prompt.Assembler
	Locks         *playerlock.Registry
	Clock         clock.Clock
	IDGenerator   idgen.Generator

	// MaxContextTokens bounds every assembled narrative context
	MaxContextTokens int
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.GameStateRepo == nil {
		vb.RequiredField("GameStateRepo")
	}
	if c.Narrative == nil {
		vb.RequiredField("Narrative")
	}
	if c.Dice == nil {
		vb.RequiredField("Dice")
	}
	if c.Assembler == nil {
		vb.RequiredField("Assembler")
	}
	if c.Locks == nil {
		vb.RequiredField("Locks")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

type orchestrator struct {
	repo             gamestate.Repository
	narrative        narrative.Client
	dice             *dice.Engine
	assembler        *prompt.Assembler
	locks            *playerlock.Registry
	clock            clock.Clock
	idGen            idgen.Generator
	maxContextTokens int
}

// NewOrchestrator creates a session orchestrator with the provided
// dependencies
func NewOrchestrator(cfg *Config) (sessionsvc.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = defaultContextTokens
	}

	return &orchestrator{
		repo:             cfg.GameStateRepo,
		narrative:        cfg.Narrative,
		dice:             cfg.Dice,
		assembler:        cfg.Assembler,
		locks:            cfg.Locks,
		clock:            cfg.Clock,
		idGen:            cfg.IDGenerator,
		maxContextTokens: maxTokens,
	}, nil
}

// HandleCommand processes one player command. Commands for the same player
// serialize in arrival order behind the player lock; the lock spans the
// whole command including the narrative call, but only for that player.
func (o *orchestrator) HandleCommand(ctx context.Context, input *sessionsvc.HandleCommandInput) (*sessionsvc.HandleCommandOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument("player ID is required")
	}

	release, err := o.locks.Acquire(ctx, input.PlayerID)
	if err != nil {
		return nil, err
	}
	defer release()

	slog.Debug("handling command",
		"player_id", input.PlayerID,
		"command", input.Command,
	)

	switch input.Command {
	case sessionsvc.CommandStart:
		return o.handleStart(ctx, input.PlayerID)
	case sessionsvc.CommandHelp:
		return o.handleHelp(ctx, input.PlayerID)
	case sessionsvc.CommandSheet, sessionsvc.CommandCampaign,
		sessionsvc.CommandInventory, sessionsvc.CommandQuests:
		return o.handleQuery(ctx, input.PlayerID, input.Command)
	case sessionsvc.CommandAddItem:
		return o.handleAddItem(ctx, input.PlayerID, input.Argument)
	case sessionsvc.CommandAddQuest:
		return o.handleAddQuest(ctx, input.PlayerID, input.Argument)
	case sessionsvc.CommandRoll:
		return o.handleRoll(ctx, input.PlayerID, input.Argument)
	case sessionsvc.CommandAsk:
		return o.handleAsk(ctx, input.PlayerID, input.Argument)
	case sessionsvc.CommandTalk:
		return o.handleUtterance(ctx, input.PlayerID, game.ActionTalk, input.Argument)
	case sessionsvc.CommandTravel:
		return o.handleUtterance(ctx, input.PlayerID, game.ActionTravel, input.Argument)
	case sessionsvc.CommandSay:
		return o.handleUtterance(ctx, input.PlayerID, game.ActionFreeform, input.Argument)
	case sessionsvc.CommandRestart:
		return o.handleRestart(ctx, input.PlayerID)
	case sessionsvc.CommandCancel:
		return o.handleCancel(ctx, input.PlayerID)
	default:
		return &sessionsvc.HandleCommandOutput{
			Reply:   "I don't know that command. Send /help for the list.",
			Choices: []string{"/help"},
		}, nil
	}
}

// loadState fetches the player's state. NotFound passes through so callers
// can route new players to /start.
func (o *orchestrator) loadState(ctx context.Context, playerID string) (*game.GameState, error) {
	output, err := o.repo.Get(ctx, gamestate.GetInput{PlayerID: playerID})
	if err != nil {
		return nil, err
	}
	return output.State, nil
}

func (o *orchestrator) now() int64 {
	return o.clock.Now().Unix()
}
