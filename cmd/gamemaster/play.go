package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmforge/dm-api/internal/clients/narrative"
	"github.com/dmforge/dm-api/internal/config"
	"github.com/dmforge/dm-api/internal/dice"
	"github.com/dmforge/dm-api/internal/handlers/chat"
	"github.com/dmforge/dm-api/internal/orchestrators/session"
	"github.com/dmforge/dm-api/internal/pkg/clock"
	"github.com/dmforge/dm-api/internal/pkg/idgen"
	"github.com/dmforge/dm-api/internal/pkg/playerlock"
	"github.com/dmforge/dm-api/internal/prompt"
	redisclient "github.com/dmforge/dm-api/internal/redis"
	"github.com/dmforge/dm-api/internal/repositories/gamestate"
)

var playerID string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a session on the local console",
	Long:  `Start a console transport against the full engine. Real chat transports live outside this repo; this one is for development and demos.`,
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playerID, "player", "console", "player identity for this session")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()
	}()

	handler, err := buildHandler()
	if err != nil {
		return err
	}

	fmt.Println("gamemaster console. Send /start to begin, /help for commands, ctrl-d to quit.")
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			reply := handler.Handle(ctx, &chat.Message{PlayerID: playerID, Text: line})
			fmt.Println(reply.Text)
			if len(reply.Choices) > 0 {
				fmt.Printf("[%s]\n", strings.Join(reply.Choices, " | "))
			}
		}
	}
}

func buildHandler() (*chat.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return nil, err
	}

	repo, err := gamestate.NewRedisRepository(&gamestate.Config{
		Client: client,
		Clock:  clock.New(),
	})
	if err != nil {
		return nil, err
	}

	narrativeClient, err := narrative.NewOpenAI(&narrative.Config{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.NarrativeTimeout,
		MaxRetries: cfg.NarrativeRetries,
	})
	if err != nil {
		return nil, err
	}

	svc, err := session.NewOrchestrator(&session.Config{
		GameStateRepo:    repo,
		Narrative:        narrativeClient,
		Dice:             dice.NewEngine(nil),
		Assembler:        prompt.NewAssembler(&prompt.Config{Tokenizer: prompt.NewTokenizer(cfg.OpenAIModel)}),
		Locks:            playerlock.NewRegistry(),
		Clock:            clock.New(),
		IDGenerator:      idgen.NewUUID("quest_"),
		MaxContextTokens: cfg.ContextTokens,
	})
	if err != nil {
		return nil, err
	}

	return chat.NewHandler(&chat.Config{SessionService: svc})
}
