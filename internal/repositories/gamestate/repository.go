// Package gamestate provides repository interface and types for per-player
// game state
package gamestate

import (
	"context"

	"github.com/dmforge/dm-api/internal/entities/game"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=gamestatemock github.com/dmforge/dm-api/internal/repositories/gamestate Repository

// GetInput contains parameters for loading a player's state
type GetInput struct {
	PlayerID string
}

// GetOutput contains the loaded state
type GetOutput struct {
	State *game.GameState
}

// PutInput contains the state to store
type PutInput struct {
	State *game.GameState
}

// PutOutput contains the result of storing state
type PutOutput struct{}

// DeleteInput contains parameters for removing a player's state
type DeleteInput struct {
	PlayerID string
}

// DeleteOutput contains the result of removing state
type DeleteOutput struct{}

// TransactionalUpdateInput describes a read-modify-write for one player.
// Mutate receives the freshly loaded state; returning an error aborts the
// transaction with nothing written.
type TransactionalUpdateInput struct {
	PlayerID string
	Mutate   func(*game.GameState) error
}

// TransactionalUpdateOutput contains the state as persisted
type TransactionalUpdateOutput struct {
	State *game.GameState
}

// Repository defines the storage contract for game state. The backing
// mechanism is opaque; the engine relies only on get/put/delete plus
// per-player read-modify-write atomicity (no lost updates for concurrent
// access to the same player).
type Repository interface {
	// Get loads a player's state. A missing record is a NotFound error,
	// which the session orchestrator routes to character creation.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Put stores a player's state unconditionally
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Delete removes a player's state
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// TransactionalUpdate applies Mutate atomically to the player's state
	TransactionalUpdate(ctx context.Context, input TransactionalUpdateInput) (*TransactionalUpdateOutput, error)
}
