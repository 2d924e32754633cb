package gamestate

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/dmforge/dm-api/internal/entities/game"
	"github.com/dmforge/dm-api/internal/errors"
	"github.com/dmforge/dm-api/internal/pkg/clock"
	redisclient "github.com/dmforge/dm-api/internal/redis"
)

const (
	// Key pattern: gamestate:{player_id}
	stateKeyPrefix = "gamestate:"

	// Optimistic transactions retry a few times before giving up.
	// Per-player serialization upstream should make even one retry rare;
	// exhausting them indicates a locking bug.
	maxTxAttempts = 5

	errPlayerIDEmpty = "player ID cannot be empty"
	errStateNil      = "state cannot be nil"
	errMutateNil     = "mutate function cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for game state
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Get loads a player's state
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}

	key := r.buildKey(input.PlayerID)

	stateJSON, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("no game state for player %s", input.PlayerID)
		}
		return nil, errors.Wrapf(err, "failed to get state from Redis")
	}

	var state game.GameState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal state for player %s", input.PlayerID)
	}

	return &GetOutput{State: &state}, nil
}

// Put stores a player's state unconditionally
func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.State == nil {
		return nil, errors.InvalidArgument(errStateNil)
	}
	if input.State.Session.PlayerID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}

	input.State.Session.LastActivity = r.clock.Now().Unix()

	stateJSON, err := json.Marshal(input.State)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal state")
	}

	key := r.buildKey(input.State.Session.PlayerID)
	if err := r.client.Set(ctx, key, stateJSON, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store state in Redis")
	}

	return &PutOutput{}, nil
}

// Delete removes a player's state
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}

	key := r.buildKey(input.PlayerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to delete state from Redis")
	}

	return &DeleteOutput{}, nil
}

// TransactionalUpdate applies Mutate under a WATCH-based optimistic
// transaction, so concurrent writers to the same player cannot lose
// updates. A mutator error aborts with nothing written.
func (r *redisRepository) TransactionalUpdate(ctx context.Context, input TransactionalUpdateInput) (*TransactionalUpdateOutput, error) {
	if input.PlayerID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}
	if input.Mutate == nil {
		return nil, errors.InvalidArgument(errMutateNil)
	}

	key := r.buildKey(input.PlayerID)
	var updated *game.GameState

	txf := func(tx *redis.Tx) error {
		stateJSON, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				return errors.NotFoundf("no game state for player %s", input.PlayerID)
			}
			return err
		}

		var state game.GameState
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
			return errors.Wrapf(err, "failed to unmarshal state for player %s", input.PlayerID)
		}

		if err := input.Mutate(&state); err != nil {
			return err
		}
		state.Session.LastActivity = r.clock.Now().Unix()

		raw, err := json.Marshal(&state)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal state")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &state
		return nil
	}

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return &TransactionalUpdateOutput{State: updated}, nil
		}
		if err == redis.TxFailedErr {
			slog.Warn("game state transaction conflict",
				"player_id", input.PlayerID,
				"attempt", attempt)
			continue
		}

		var coded *errors.Error
		if errors.As(err, &coded) {
			return nil, coded
		}
		return nil, errors.Wrapf(err, "failed to update state for player %s", input.PlayerID)
	}

	// This should not happen: commands for one player are serialized
	// upstream, so sustained WATCH conflicts indicate a locking bug.
	slog.Error("game state transaction aborted after repeated conflicts",
		"player_id", input.PlayerID,
		"attempts", maxTxAttempts)
	return nil, errors.Abortedf("concurrent modification of state for player %s", input.PlayerID)
}

func (r *redisRepository) buildKey(playerID string) string {
	return stateKeyPrefix + playerID
}
