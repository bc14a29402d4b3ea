package app

import (
	"context"
	"time"

	"github.com/connectfour/backend/internal/domain"
)

// TryToLoseByTimeTask asks the executor to end a game by time at ExecuteAt,
// provided the game is still in state GameStateID by then.
type TryToLoseByTimeTask struct {
	ID          string
	ExecuteAt   time.Time
	GameID      domain.GameID
	GameStateID domain.GameStateID
	OperationID OperationID
}

// TryToLoseByTimeTaskID derives the task id from the state id the task is
// scheduled against. Because every mutation burns the state id, a task id
// can never collide with one scheduled for a later state.
func TryToLoseByTimeTaskID(stateID domain.GameStateID) string {
	return "try_to_lose_by_time:" + stateID.Hex()
}

// TaskScheduler registers future lose-by-time tasks. Schedule upserts by
// task id; Unschedule of a missing id is not an error.
type TaskScheduler interface {
	Schedule(ctx context.Context, task TryToLoseByTimeTask) error
	Unschedule(ctx context.Context, taskID string) error
}
