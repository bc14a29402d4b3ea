package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/domain"
)

const (
	// scheduleKey is a sorted set of task ids scored by due time (unix
	// milliseconds). payloadsKey holds each task's payload by id.
	scheduleKey = "schedule:try_to_lose_by_time"
	payloadsKey = "schedule:try_to_lose_by_time:payloads"
)

type taskPayload struct {
	GameID      domain.GameID      `json:"game_id"`
	GameStateID domain.GameStateID `json:"game_state_id"`
	OperationID string             `json:"operation_id"`
	Retries     int                `json:"retries"`
}

// RedisTaskScheduler stores lose-by-time tasks in Redis. Schedule upserts by
// task id; since ids embed the game state id, re-scheduling a new state never
// cancels a task armed for an older one by accident.
type RedisTaskScheduler struct {
	rdb   *redis.Client
	debug bool
}

var _ app.TaskScheduler = (*RedisTaskScheduler)(nil)

func NewRedisTaskScheduler(rdb *redis.Client, debug bool) *RedisTaskScheduler {
	return &RedisTaskScheduler{rdb: rdb, debug: debug}
}

func (s *RedisTaskScheduler) Schedule(ctx context.Context, task app.TryToLoseByTimeTask) error {
	payload, err := json.Marshal(taskPayload{
		GameID:      task.GameID,
		GameStateID: task.GameStateID,
		OperationID: string(task.OperationID),
	})
	if err != nil {
		return fmt.Errorf("encode task payload: %w", err)
	}

	if s.debug {
		log.Printf("[SCHEDULER] scheduling task %s at %s", task.ID, task.ExecuteAt.Format("15:04:05.000"))
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(task.ExecuteAt.UnixMilli()),
		Member: task.ID,
	})
	pipe.HSet(ctx, payloadsKey, task.ID, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("schedule task %s: %w", task.ID, err)
	}
	return nil
}

func (s *RedisTaskScheduler) Unschedule(ctx context.Context, taskID string) error {
	pipe := s.rdb.Pipeline()
	pipe.ZRem(ctx, scheduleKey, taskID)
	pipe.HDel(ctx, payloadsKey, taskID)

	// Removing an id that was never scheduled is fine.
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("unschedule task %s: %w", taskID, err)
	}
	return nil
}
