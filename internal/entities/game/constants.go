package game

// SessionState is the top-level state of a player's session
type SessionState string

// Session states
const (
	StateNew               SessionState = "new"
	StateCreatingCharacter SessionState = "creating_character"
	StateActive            SessionState = "active"
	StateAwaitingRoll      SessionState = "awaiting_roll"
)

// CreationStep is the sub-step within character creation. One field is
// filled per inbound message; malformed input re-prompts without advancing.
type CreationStep string

// Character creation steps, in order
const (
	StepRace       CreationStep = "race"
	StepClass      CreationStep = "class"
	StepAbilities  CreationStep = "abilities"
	StepMotivation CreationStep = "motivation"
)

// Races a player can choose during creation
var Races = []string{"human", "elf", "dwarf", "halfling", "orc"}

// Classes a player can choose during creation
var Classes = []string{"fighter", "ranger", "rogue", "wizard", "cleric", "bard"}

// AbilityNames is the canonical ability ordering. Creation input and the
// character sheet both follow it.
var AbilityNames = []string{"STR", "DEX", "CON", "INT", "WIS", "CHA"}

// QuestStatus tracks a quest through its lifecycle
type QuestStatus string

// Quest statuses. Transitions are monotonic (active → completed|failed)
// except explicit reactivation.
const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// Role identifies the speaker of a narrative-history entry
type Role string

// Speaker roles
const (
	RolePlayer   Role = "player"
	RoleNarrator Role = "narrator"
)

// RollMode adjusts how a d20 check consumes entropy
type RollMode string

// Roll modes
const (
	RollNormal       RollMode = "normal"
	RollAdvantage    RollMode = "advantage"
	RollDisadvantage RollMode = "disadvantage"
)

// ActionKind classifies a pending narrative action
type ActionKind string

// Action kinds that require a roll before resolution
const (
	ActionTalk     ActionKind = "talk"
	ActionTravel   ActionKind = "travel"
	ActionFreeform ActionKind = "freeform"
)

// DefaultGenre seeds new campaigns until the narrative establishes one
const DefaultGenre = "fantasy"
