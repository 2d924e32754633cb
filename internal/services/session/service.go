// Package session defines the interface for player session operations
package session

//go:generate mockgen -destination=mock/mock_service.go -package=sessionmock github.com/dmforge/dm-api/internal/services/session Service

import (
	"context"

	"github.com/dmforge/dm-api/internal/entities/game"
)

// Command is a recognized chat command name
type Command string

// Recognized commands. CommandSay is the free-text fallthrough: anything
// that is not a slash command is an implicit narrative action.
const (
	CommandStart     Command = "start"
	CommandHelp      Command = "help"
	CommandSheet     Command = "sheet"
	CommandCampaign  Command = "campaign"
	CommandInventory Command = "inventory"
	CommandQuests    Command = "quests"
	CommandAddItem   Command = "additem"
	CommandAddQuest  Command = "addquest"
	CommandRoll      Command = "roll"
	CommandAsk       Command = "ask"
	CommandTalk      Command = "talk"
	CommandTravel    Command = "travel"
	CommandRestart   Command = "restart"
	CommandCancel    Command = "cancel"
	CommandSay       Command = "say"
)

// HandleCommandInput is one inbound player command
type HandleCommandInput struct {
	PlayerID string
	Command  Command
	// Argument is the remainder of the message after the command name,
	// or the whole message for CommandSay
	Argument string
}

// HandleCommandOutput is the reply for one command
type HandleCommandOutput struct {
	// Reply is the player-facing text
	Reply string
	// Choices are suggested follow-up inputs for button-driven transports
	Choices []string
	// State is the session state after the command
	State game.SessionState
}

// Service handles player session commands
type Service interface {
	HandleCommand(ctx context.Context, input *HandleCommandInput) (*HandleCommandOutput, error)
}
