package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/domain"
)

const scanBatchSize = 10

type Config struct {
	GameExpiresIn time.Duration
	LockExpiresIn time.Duration
}

// GameMapper is the durable game storage on Redis. It hands out one Tx per
// inbound command; all writes of a command are buffered on the Tx's pipeline
// and flushed by a single Commit.
type GameMapper struct {
	rdb *redis.Client
	cfg Config
}

func NewGameMapper(rdb *redis.Client, cfg Config) *GameMapper {
	return &GameMapper{rdb: rdb, cfg: cfg}
}

// Begin opens a transaction. The caller must arrange for Close to run when
// the command is done; Close after a successful Commit is a no-op.
func (m *GameMapper) Begin() *Tx {
	return &Tx{
		mapper: m,
		pipe:   m.rdb.Pipeline(),
		locks:  newLockManager(m.rdb, m.cfg.LockExpiresIn),
	}
}

// Tx implements app.GameStore for a single command.
type Tx struct {
	mapper    *GameMapper
	pipe      redis.Pipeliner
	locks     *lockManager
	committed bool
}

var _ app.GameStore = (*Tx)(nil)

func (tx *Tx) ByID(ctx context.Context, gameID domain.GameID, acquire bool) (*domain.Game, error) {
	keys, err := tx.keysByPattern(ctx, gameByIDPattern(gameID), 1)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	if acquire {
		if err := tx.locks.Acquire(ctx, keys[0]); err != nil {
			return nil, err
		}
	}

	data, err := tx.mapper.rdb.Get(ctx, keys[0]).Result()
	if err == redis.Nil {
		// Evicted between scan and get.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game record: %w", err)
	}

	return decodeGame([]byte(data))
}

func (tx *Tx) ListByPlayerIDs(
	ctx context.Context,
	playerIDs [2]domain.UserID,
	sortBy app.SortGamesBy,
	limit int,
) ([]*domain.Game, error) {
	if limit < 0 {
		panic("list games by player ids: negative limit")
	}

	keys, err := tx.keysByPattern(ctx, gameByPlayerIDsPattern(playerIDs[:]), 0)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	games := make([]*domain.Game, 0, len(keys))
	for _, key := range keys {
		data, err := tx.mapper.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get game record: %w", err)
		}

		game, err := decodeGame([]byte(data))
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	if sortBy == app.SortGamesByDescCreatedAt {
		sort.Slice(games, func(i, j int) bool {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		})
	}

	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}

	return games, nil
}

func (tx *Tx) Save(ctx context.Context, game *domain.Game) error {
	return tx.enqueueWrite(ctx, game)
}

func (tx *Tx) Update(ctx context.Context, game *domain.Game) error {
	return tx.enqueueWrite(ctx, game)
}

// enqueueWrite buffers the record write. The TTL is refreshed on every
// write, so a game expires only after an hour of inactivity.
func (tx *Tx) enqueueWrite(ctx context.Context, game *domain.Game) error {
	data, err := encodeGame(game)
	if err != nil {
		return fmt.Errorf("encode game record: %w", err)
	}

	playerIDs := make([]domain.UserID, 0, len(game.Players))
	for playerID := range game.Players {
		playerIDs = append(playerIDs, playerID)
	}

	tx.pipe.Set(ctx, gameKey(game.ID, playerIDs), data, tx.mapper.cfg.GameExpiresIn)
	return nil
}

// Commit flushes the buffered writes atomically and releases the locks.
func (tx *Tx) Commit(ctx context.Context) error {
	if _, err := tx.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("commit game writes: %w", err)
	}
	tx.committed = true
	return tx.locks.ReleaseAll(ctx)
}

// Close aborts an uncommitted transaction: buffered writes are dropped and
// locks released. Idempotent, and a no-op after Commit.
func (tx *Tx) Close(ctx context.Context) error {
	if tx.committed {
		return nil
	}
	tx.pipe.Discard()
	return tx.locks.ReleaseAll(ctx)
}

func (tx *Tx) keysByPattern(ctx context.Context, pattern string, limit int) ([]string, error) {
	var keys []string

	iter := tx.mapper.rdb.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if limit > 0 && len(keys) >= limit {
			return keys, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}

	return keys, nil
}
