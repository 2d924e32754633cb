package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/handlers/chat"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
	sessionmock "github.com/dmforge/dm-api/internal/services/session/mock"
)

func newHandler(t *testing.T) (*chat.Handler, *sessionmock.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := sessionmock.NewMockService(ctrl)
	handler, err := chat.NewHandler(&chat.Config{SessionService: service})
	require.NoError(t, err)
	return handler, service
}

func TestHandle_ParsesCommands(t *testing.T) {
	tests := []struct {
		text     string
		command  sessionsvc.Command
		argument string
	}{
		{"/start", sessionsvc.CommandStart, ""},
		{"/travel north", sessionsvc.CommandTravel, "north"},
		{"/roll d20 adv", sessionsvc.CommandRoll, "d20 adv"},
		{"/additem Rope x2 - sturdy hemp", sessionsvc.CommandAddItem, "Rope x2 - sturdy hemp"},
		{"/sheet@dungeon_bot", sessionsvc.CommandSheet, ""},
		{"/ASK what now?", sessionsvc.CommandAsk, "what now?"},
		{"I sneak past the guard", sessionsvc.CommandSay, "I sneak past the guard"},
		{"  /cancel  ", sessionsvc.CommandCancel, ""},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			handler, service := newHandler(t)
			service.EXPECT().
				HandleCommand(gomock.Any(), &sessionsvc.HandleCommandInput{
					PlayerID: "player_1",
					Command:  tc.command,
					Argument: tc.argument,
				}).
				Return(&sessionsvc.HandleCommandOutput{Reply: "ok"}, nil)

			reply := handler.Handle(context.Background(), &chat.Message{PlayerID: "player_1", Text: tc.text})
			assert.Equal(t, "ok", reply.Text)
		})
	}
}

func TestHandle_PassesThroughReplyAndChoices(t *testing.T) {
	handler, service := newHandler(t)
	service.EXPECT().
		HandleCommand(gomock.Any(), gomock.Any()).
		Return(&sessionsvc.HandleCommandOutput{
			Reply:   "Choose your race.",
			Choices: []string{"elf", "dwarf"},
		}, nil)

	reply := handler.Handle(context.Background(), &chat.Message{PlayerID: "player_1", Text: "/start"})
	assert.Equal(t, "Choose your race.", reply.Text)
	assert.Equal(t, []string{"elf", "dwarf"}, reply.Choices)
}

func TestHandle_ErrorConversion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", errors.Unavailable("backend down"), "unreachable"},
		{"timeout", errors.DeadlineExceeded("timed out"), "set aside"},
		{"malformed", errors.DataLoss("empty narration"), "unintelligible"},
		{"invalid argument", errors.InvalidArgument("invalid dice notation: \"d0\""), "invalid dice notation"},
		{"aborted", errors.Aborted("transaction conflict"), "Try again"},
		{"internal", errors.Internal("redis exploded"), "went wrong"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, service := newHandler(t)
			service.EXPECT().
				HandleCommand(gomock.Any(), gomock.Any()).
				Return(nil, tc.err)

			reply := handler.Handle(context.Background(), &chat.Message{PlayerID: "player_1", Text: "/roll d0"})
			assert.Contains(t, reply.Text, tc.want)
			assert.NotContains(t, reply.Text, "redis", "internal detail must not leak")
		})
	}
}

func TestHandle_EmptyAndAnonymousMessages(t *testing.T) {
	handler, _ := newHandler(t)

	reply := handler.Handle(context.Background(), &chat.Message{PlayerID: "player_1", Text: "   "})
	assert.Contains(t, reply.Text, "/help")

	reply = handler.Handle(context.Background(), &chat.Message{Text: "/start"})
	assert.Contains(t, reply.Text, "who you are")

	reply = handler.Handle(context.Background(), nil)
	assert.Contains(t, reply.Text, "who you are")
}
