// Package prompt implements the narrative-context assembler: it turns
// persisted game state into the bounded textual package sent to the
// narrative backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dmforge/dm-api/internal/dice"
	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
)

// markerInstructions teaches the model the in-band micro-format. Anything
// the model wants to change about game state must be signaled through
// these markers; free text is inert.
const markerInstructions = `When the story changes game state, signal it with exactly these markers on their own:
[[ITEM_GAINED: name xN]] [[ITEM_LOST: name xN]] [[QUEST_ADDED: title | description]] [[QUEST_COMPLETED: title]] [[QUEST_FAILED: title]] [[XP: amount]] [[HP: -n or +n]]
Never describe the outcome of a pending roll; wait for the player to roll. Stay immersive and genre-consistent.`

const historyHeader = "Recent events:\n"

// Assembler builds bounded prompt contexts. Given identical inputs the
// output is identical: there is no hidden randomness, so tests can assert
// exact results for a fixed history.
type Assembler struct {
	tokenizer Tokenizer
}

// Config holds the dependencies for the assembler
type Config struct {
	// Tokenizer measures text against the budget. Defaults to the
	// chars/4 estimator.
	Tokenizer Tokenizer
}

// NewAssembler creates a context assembler
func NewAssembler(cfg *Config) *Assembler {
	var tokenizer Tokenizer = Estimator{}
	if cfg != nil && cfg.Tokenizer != nil {
		tokenizer = cfg.Tokenizer
	}
	return &Assembler{tokenizer: tokenizer}
}

// BuildInput carries everything the assembler may fold into a context
type BuildInput struct {
	Campaign  *game.CampaignState
	Sheet     *game.CharacterSheet
	Inventory game.Inventory
	Quests    game.QuestLog
	// Roll, when set, is the dice outcome for the action being resolved
	Roll *dice.Result
	// MaxTokens bounds the whole assembled context
	MaxTokens int
}

// Context is the bounded package handed to the narrative backend
type Context struct {
	// System is the assembled system prompt: facts plus recent history
	System string
	// History is the tail of the narrative log that fit the budget,
	// oldest first
	History []game.HistoryEntry
	// TokenCount is the measured size of System
	TokenCount int
}

// factDetail selects how much of the fact block is rendered. Tight budgets
// shed the campaign summary first, then quests, then inventory; the genre
// line, character identity, any roll outcome, and the marker instructions
// are never dropped.
type factDetail int

const (
	factsCore factDetail = iota
	factsWithInventory
	factsWithQuests
	factsFull
)

// Build assembles a context within the token budget. History is filled
// from the most recent entry backwards, so when the budget is tight the
// oldest entries drop first and the remainder keeps its original order.
// When even an empty history leaves the facts over budget, optional fact
// sections are shed; a budget too small for the core facts is an error.
func (a *Assembler) Build(input *BuildInput) (*Context, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	if input.Campaign == nil {
		vb.RequiredField("Campaign")
	}
	if input.MaxTokens <= 0 {
		vb.Field("MaxTokens", "must be positive")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	detail := factsFull
	facts := a.renderFacts(input, detail)
	factTokens := a.tokenizer.Count(facts)
	for factTokens > input.MaxTokens && detail > factsCore {
		detail--
		facts = a.renderFacts(input, detail)
		factTokens = a.tokenizer.Count(facts)
	}
	if factTokens > input.MaxTokens {
		return nil, errors.InvalidArgumentf(
			"a budget of %d tokens cannot fit the character facts (%d tokens)",
			input.MaxTokens, factTokens)
	}

	// Walk the history tail backwards, keeping entries while they fit.
	// The section header is reserved up front so including it never
	// pushes the context past the budget.
	budget := input.MaxTokens - factTokens - a.tokenizer.Count(historyHeader)
	history := input.Campaign.History
	var kept []game.HistoryEntry
	keptTokens := 0
	for i := len(history) - 1; i >= 0; i-- {
		line := renderHistoryLine(history[i])
		cost := a.tokenizer.Count(line + "\n")
		if keptTokens+cost > budget {
			break
		}
		keptTokens += cost
		kept = append(kept, history[i])
	}

	// kept is newest-first; restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	var sb strings.Builder
	sb.WriteString(facts)
	if len(kept) > 0 {
		sb.WriteString(historyHeader)
		for _, entry := range kept {
			sb.WriteString(renderHistoryLine(entry))
			sb.WriteString("\n")
		}
	}

	system := sb.String()
	return &Context{
		System:     system,
		History:    kept,
		TokenCount: a.tokenizer.Count(system),
	}, nil
}

func (a *Assembler) renderFacts(input *BuildInput, detail factDetail) string {
	var sb strings.Builder

	genre := input.Campaign.Genre
	if genre == "" {
		genre = game.DefaultGenre
	}
	fmt.Fprintf(&sb, "You are the game master of a %s adventure.\n", genre)

	if detail >= factsFull && input.Campaign.Summary != "" {
		fmt.Fprintf(&sb, "Story so far: %s\n", input.Campaign.Summary)
	}

	if sheet := input.Sheet; sheet != nil {
		fmt.Fprintf(&sb, "Character: a level %d %s %s (HP %d/%d), motivated by %s.\n",
			sheet.Level, sheet.Race, sheet.Class, sheet.HitPoints, sheet.MaxHitPoints, sheet.Motivation)
		parts := make([]string, len(sheet.Abilities))
		for i, ability := range sheet.Abilities {
			parts[i] = fmt.Sprintf("%s %d", ability.Name, ability.Score)
		}
		fmt.Fprintf(&sb, "Abilities: %s.\n", strings.Join(parts, ", "))
	}

	if detail >= factsWithInventory && len(input.Inventory) > 0 {
		parts := make([]string, len(input.Inventory))
		for i, item := range input.Inventory {
			parts[i] = fmt.Sprintf("%s x%d", item.Name, item.Quantity)
		}
		fmt.Fprintf(&sb, "Inventory: %s.\n", strings.Join(parts, ", "))
	}

	if active := input.Quests.Active(); detail >= factsWithQuests && len(active) > 0 {
		parts := make([]string, len(active))
		for i, quest := range active {
			parts[i] = quest.Title
		}
		fmt.Fprintf(&sb, "Active quests: %s.\n", strings.Join(parts, "; "))
	}

	if input.Roll != nil {
		sb.WriteString(FormatRollOutcome(input.Roll))
		sb.WriteString("\n")
	}

	sb.WriteString(markerInstructions)
	sb.WriteString("\n")
	return sb.String()
}

func renderHistoryLine(entry game.HistoryEntry) string {
	speaker := "Narrator"
	if entry.Role == game.RolePlayer {
		speaker = "Player"
	}
	return speaker + ": " + entry.Text
}

// FormatRollOutcome renders a dice result the way the narrative backend
// expects to see it, including the succeeded flag for checked rolls.
func FormatRollOutcome(result *dice.Result) string {
	if !result.Checked {
		return fmt.Sprintf("Dice outcome: %s rolled %d (total %d).",
			result.Spec, result.Raw, result.Total)
	}
	return fmt.Sprintf("Dice outcome: %s rolled %d + modifier %d + proficiency %d = %d vs DC %d, succeeded=%t.",
		result.Spec, result.Raw, result.Modifier, result.Proficiency, result.Total, result.Threshold, result.Succeeded)
}

// Clarification frames an out-of-game question so the model answers
// concisely without advancing the story.
func Clarification(question string) string {
	return fmt.Sprintf("Out of game, the player asks: %q\nAnswer concisely and consistently with prior events. Do not advance the story and do not emit state markers.", question)
}

// Intro frames the opening-scene request for a freshly created character.
func Intro(sheet *game.CharacterSheet, genre string) string {
	if genre == "" {
		genre = game.DefaultGenre
	}
	return fmt.Sprintf("Open a %s adventure for a %s %s driven by %s. Set a vivid scene with an immediate, personal challenge tied to their motivation.",
		genre, sheet.Race, sheet.Class, sheet.Motivation)
}

// Action frames a player action for outcome narration.
func Action(utterance string) string {
	return fmt.Sprintf("The player attempts: %s\nNarrate the outcome of the check: impact, consequences, and new tension.", utterance)
}
