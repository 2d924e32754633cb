// Package game implements the persisted entities of the game-master engine
package game

// PendingAction describes a narrative action waiting on a dice roll.
// It is set when the session enters the awaiting-roll state and cleared on
// resolution, cancellation, or a narrative-service timeout.
type PendingAction struct {
	Kind       ActionKind `json:"kind"`
	Utterance  string     `json:"utterance"`
	Ability    string     `json:"ability"`
	Difficulty int        `json:"difficulty"`
}

// PlayerSession is the per-player state machine record
type PlayerSession struct {
	PlayerID      string         `json:"player_id"`
	State         SessionState   `json:"state"`
	Step          CreationStep   `json:"step,omitempty"`
	PendingAction *PendingAction `json:"pending_action,omitempty"`
	RollMode      RollMode       `json:"roll_mode"`
	LastActivity  int64          `json:"last_activity"`
}

// GameState bundles everything persisted for one player. It is the unit of
// storage and of transactional update: no partial writes of its parts.
type GameState struct {
	Session   PlayerSession   `json:"session"`
	Sheet     *CharacterSheet `json:"sheet,omitempty"`
	Inventory Inventory       `json:"inventory"`
	Quests    QuestLog        `json:"quests"`
	Campaign  CampaignState   `json:"campaign"`
}

// NewGameState creates the default state for a player who just sent /start
func NewGameState(playerID string, now int64) *GameState {
	return &GameState{
		Session: PlayerSession{
			PlayerID:     playerID,
			State:        StateCreatingCharacter,
			Step:         StepRace,
			RollMode:     RollNormal,
			LastActivity: now,
		},
		Campaign: CampaignState{Genre: DefaultGenre},
	}
}

// Reset reinitializes every downstream entity for the player while keeping
// the identity. Used by /restart.
func (g *GameState) Reset(now int64) {
	fresh := NewGameState(g.Session.PlayerID, now)
	*g = *fresh
}
