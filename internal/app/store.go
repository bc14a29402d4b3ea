package app

import (
	"context"

	"github.com/connectfour/backend/internal/domain"
)

type SortGamesBy int

const (
	SortGamesByNone SortGamesBy = iota
	SortGamesByDescCreatedAt
)

// GameStore is a transaction-scoped view of durable game storage. Writes are
// buffered until Commit, which flushes them atomically and releases every
// lock taken through ByID. A store value must be committed (or closed by its
// owner) exactly once.
type GameStore interface {
	// ByID returns the stored game or nil. With acquire, the game's key is
	// exclusively locked until the transaction completes; re-acquiring a
	// key already held by this transaction is a no-op.
	ByID(ctx context.Context, gameID domain.GameID, acquire bool) (*domain.Game, error)

	// ListByPlayerIDs returns games whose player set equals the unordered
	// pair. limit == 0 means no cap; limit < 0 is a programmer error.
	ListByPlayerIDs(ctx context.Context, playerIDs [2]domain.UserID, sortBy SortGamesBy, limit int) ([]*domain.Game, error)

	// Save enqueues a write for a new game.
	Save(ctx context.Context, game *domain.Game) error

	// Update enqueues a write for an existing game.
	Update(ctx context.Context, game *domain.Game) error

	// Commit atomically flushes enqueued writes and releases locks.
	Commit(ctx context.Context) error
}
