// Package chat adapts inbound chat messages to session commands. It owns
// command parsing and the translation of coded errors into player-facing
// text; no raw error detail ever reaches the player.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmforge/dm-api/internal/errors"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
)

// Message is one inbound chat message
type Message struct {
	PlayerID string
	Text     string
}

// Reply is the outbound response: text plus optional choice buttons
type Reply struct {
	Text    string
	Choices []string
}

// Config holds the dependencies for the chat handler
type Config struct {
	SessionService sessionsvc.Service
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.SessionService == nil {
		return errors.InvalidArgument("session service is required")
	}
	return nil
}

// Handler routes chat messages to the session service
type Handler struct {
	sessions sessionsvc.Service
}

// NewHandler creates a chat handler
func NewHandler(cfg *Config) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &Handler{sessions: cfg.SessionService}, nil
}

// Handle processes one message and always produces a reply; failures come
// back as player-facing text.
func (h *Handler) Handle(ctx context.Context, message *Message) *Reply {
	if message == nil || message.PlayerID == "" {
		return &Reply{Text: "I don't know who you are. Reconnect and try again."}
	}

	command, argument := parseText(message.Text)
	if command == "" {
		return &Reply{Text: "Say something, or send /help for the commands."}
	}

	output, err := h.sessions.HandleCommand(ctx, &sessionsvc.HandleCommandInput{
		PlayerID: message.PlayerID,
		Command:  command,
		Argument: argument,
	})
	if err != nil {
		return &Reply{Text: h.replyForError(message.PlayerID, err)}
	}

	return &Reply{Text: output.Reply, Choices: output.Choices}
}

// parseText splits a message into command and argument. A leading slash
// names a command (with any @botname suffix dropped, the way chat platforms
// address bots); everything else is free text.
func parseText(text string) (sessionsvc.Command, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if !strings.HasPrefix(text, "/") {
		return sessionsvc.CommandSay, text
	}

	name := text[1:]
	argument := ""
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		argument = strings.TrimSpace(name[i+1:])
		name = name[:i]
	}
	name, _, _ = strings.Cut(name, "@")
	return sessionsvc.Command(strings.ToLower(name)), argument
}

func (h *Handler) replyForError(playerID string, err error) string {
	code := errors.GetCode(err)
	switch code {
	case errors.CodeInvalidArgument, errors.CodeFailedPrecondition:
		return errors.GetMessage(err)
	case errors.CodeUnavailable:
		slog.Warn("narrative backend failure surfaced to player",
			"player_id", playerID,
			"code", code,
		)
		return "The storyteller is unreachable right now. Nothing has changed; try that again in a moment."
	case errors.CodeDeadlineExceeded:
		// The timeout path discards the pending action, so the player
		// must start the attempt over rather than re-roll.
		slog.Warn("narrative backend timeout surfaced to player",
			"player_id", playerID,
		)
		return "The storyteller took too long to answer. Your attempt was set aside; try it again in a moment."
	case errors.CodeDataLoss:
		slog.Warn("malformed narrative response",
			"player_id", playerID,
			"error", err,
		)
		return "The storyteller mumbled something unintelligible. Try that again."
	case errors.CodeAborted:
		// Per-player serialization should make this impossible.
		slog.Error("concurrent modification conflict",
			"player_id", playerID,
			"error", err,
		)
		return "Something collided behind the scenes. Try again."
	default:
		slog.Error("command failed",
			"player_id", playerID,
			"code", code,
			"error", err,
		)
		return "Something went wrong on our side. Try again."
	}
}
