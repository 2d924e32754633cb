package session

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/repositories/gamestate"
	sessionsvc "github.com/dmforge/dm-api/internal/services/session"
)

// campaignTailLength is how many history entries /campaign echoes back
const campaignTailLength = 6

var itemQuantityRegex = regexp.MustCompile(`^(.*?)(?:\s+x(\d+))?$`)

// handleQuery answers sheet/campaign/inventory/quests purely from the
// store; the narrative backend is never consulted.
func (o *orchestrator) handleQuery(ctx context.Context, playerID string, command sessionsvc.Command) (*sessionsvc.HandleCommandOutput, error) {
	state, err := o.loadState(ctx, playerID)
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	if state.Session.State == game.StateCreatingCharacter {
		reply, choices := stepPrompt(state.Session.Step)
		return &sessionsvc.HandleCommandOutput{
			Reply:   "Finish creating your character first.\n" + reply,
			Choices: choices,
			State:   state.Session.State,
		}, nil
	}

	var reply string
	switch command {
	case sessionsvc.CommandSheet:
		reply = renderSheet(state.Sheet)
	case sessionsvc.CommandCampaign:
		reply = renderCampaign(&state.Campaign)
	case sessionsvc.CommandInventory:
		reply = renderInventory(state.Inventory)
	case sessionsvc.CommandQuests:
		reply = renderQuests(state.Quests)
	}

	return &sessionsvc.HandleCommandOutput{Reply: reply, State: state.Session.State}, nil
}

// handleAddItem parses "name [xN] [- description]" and appends to the
// inventory.
func (o *orchestrator) handleAddItem(ctx context.Context, playerID, argument string) (*sessionsvc.HandleCommandOutput, error) {
	name, quantity, description := parseItemArgument(argument)
	if name == "" {
		return &sessionsvc.HandleCommandOutput{
			Reply: "What item? Try /additem Rope x2 - sturdy hemp.",
		}, nil
	}

	updated, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			if s.Session.State == game.StateCreatingCharacter {
				return errors.FailedPrecondition("finish creating your character first")
			}
			s.Inventory = s.Inventory.Add(game.Item{Name: name, Quantity: quantity, Description: description})
			s.Session.LastActivity = o.now()
			return nil
		},
	})
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	return &sessionsvc.HandleCommandOutput{
		Reply: fmt.Sprintf("Noted: %s x%d.", name, quantity),
		State: updated.State.Session.State,
	}, nil
}

// handleAddQuest parses "title [- description]" and appends to the quest log
func (o *orchestrator) handleAddQuest(ctx context.Context, playerID, argument string) (*sessionsvc.HandleCommandOutput, error) {
	title, description := splitDescription(argument)
	if title == "" {
		return &sessionsvc.HandleCommandOutput{
			Reply: "What quest? Try /addquest Find the amulet - it was stolen at the fair.",
		}, nil
	}

	updated, err := o.repo.TransactionalUpdate(ctx, gamestate.TransactionalUpdateInput{
		PlayerID: playerID,
		Mutate: func(s *game.GameState) error {
			if s.Session.State == game.StateCreatingCharacter {
				return errors.FailedPrecondition("finish creating your character first")
			}
			s.Quests = s.Quests.Add(game.Quest{
				ID:          o.idGen.Generate(),
				Title:       title,
				Description: description,
			})
			s.Session.LastActivity = o.now()
			return nil
		},
	})
	if errors.IsNotFound(err) {
		return notStartedReply(), nil
	}
	if err != nil {
		return nil, err
	}

	return &sessionsvc.HandleCommandOutput{
		Reply: fmt.Sprintf("Quest noted: %s.", title),
		State: updated.State.Session.State,
	}, nil
}

func renderSheet(sheet *game.CharacterSheet) string {
	if sheet == nil {
		return "No character yet. Send /start to create one."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "A %s %s, level %d (%d XP)\n", sheet.Race, sheet.Class, sheet.Level, sheet.XP)
	fmt.Fprintf(&sb, "HP %d/%d, proficiency +%d\n", sheet.HitPoints, sheet.MaxHitPoints, sheet.ProficiencyBonus())
	for _, ability := range sheet.Abilities {
		fmt.Fprintf(&sb, "%s %d (%+d)\n", ability.Name, ability.Score, ability.Modifier())
	}
	fmt.Fprintf(&sb, "Motivation: %s", sheet.Motivation)
	return sb.String()
}

func renderCampaign(campaign *game.CampaignState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A %s campaign.\n", campaign.Genre)
	if campaign.Summary != "" {
		fmt.Fprintf(&sb, "%s\n", campaign.Summary)
	}

	tail := campaign.Tail(campaignTailLength)
	if len(tail) == 0 {
		sb.WriteString("The story has not begun. Do something!")
		return sb.String()
	}
	sb.WriteString("Recently:\n")
	for _, entry := range tail {
		speaker := "Narrator"
		if entry.Role == game.RolePlayer {
			speaker = "You"
		}
		fmt.Fprintf(&sb, "%s: %s\n", speaker, entry.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderInventory(inventory game.Inventory) string {
	if len(inventory) == 0 {
		return "You carry nothing."
	}
	var sb strings.Builder
	sb.WriteString("You carry:\n")
	for _, item := range inventory {
		fmt.Fprintf(&sb, "- %s x%d", item.Name, item.Quantity)
		if item.Description != "" {
			fmt.Fprintf(&sb, " (%s)", item.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderQuests(quests game.QuestLog) string {
	if len(quests) == 0 {
		return "Your quest log is empty."
	}
	var sb strings.Builder
	sb.WriteString("Quests:\n")
	for _, quest := range quests {
		fmt.Fprintf(&sb, "- [%s] %s", quest.Status, quest.Title)
		if quest.Description != "" {
			fmt.Fprintf(&sb, " - %s", quest.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseItemArgument splits "name [xN] [- description]"
func parseItemArgument(argument string) (string, int, string) {
	head, description := splitDescription(argument)
	match := itemQuantityRegex.FindStringSubmatch(head)
	name := strings.TrimSpace(match[1])
	quantity := 1
	if match[2] != "" {
		if n, err := strconv.Atoi(match[2]); err == nil && n > 0 {
			quantity = n
		}
	}
	return name, quantity, description
}

// splitDescription splits "text - description" on the first " - "
func splitDescription(argument string) (string, string) {
	argument = strings.TrimSpace(argument)
	if i := strings.Index(argument, " - "); i >= 0 {
		return strings.TrimSpace(argument[:i]), strings.TrimSpace(argument[i+3:])
	}
	return argument, ""
}
