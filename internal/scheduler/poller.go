package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connectfour/backend/internal/app"
)

const (
	maxTaskRetries = 5
	retryDelay     = time.Second
)

// Executor submits a fired task as a TryToLoseByTime command.
type Executor func(ctx context.Context, cmd app.TryToLoseByTimeCommand) error

// Poller sweeps the schedule for due tasks and hands them to the executor.
// A member is claimed by removing it from the sorted set; whichever poller
// instance wins the ZRem owns the firing, so concurrent pollers never double
// fire a task.
type Poller struct {
	rdb      *redis.Client
	interval time.Duration
	exec     Executor
}

func NewPoller(rdb *redis.Client, interval time.Duration, exec Executor) *Poller {
	return &Poller{
		rdb:      rdb,
		interval: interval,
		exec:     exec,
	}
}

// Run blocks until ctx is done, firing due tasks every poll interval.
func (p *Poller) Run(ctx context.Context) {
	log.Println("[EXECUTOR] task poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[EXECUTOR] task poller stopping")
			return
		case <-ticker.C:
			if err := p.sweep(ctx); err != nil {
				log.Printf("[EXECUTOR] sweep failed: %v", err)
			}
		}
	}
}

func (p *Poller) sweep(ctx context.Context) error {
	now := time.Now().UnixMilli()

	members, err := p.rdb.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("fetch due tasks: %w", err)
	}

	for _, taskID := range members {
		// Claim the member (race-safe against other pollers).
		removed, err := p.rdb.ZRem(ctx, scheduleKey, taskID).Result()
		if err != nil {
			log.Printf("[EXECUTOR] claim task %s failed: %v", taskID, err)
			continue
		}
		if removed == 0 {
			continue
		}

		p.fire(ctx, taskID)
	}

	return nil
}

func (p *Poller) fire(ctx context.Context, taskID string) {
	raw, err := p.rdb.HGet(ctx, payloadsKey, taskID).Result()
	if err == redis.Nil {
		// Unscheduled between sweep and claim; nothing to do.
		return
	}
	if err != nil {
		log.Printf("[EXECUTOR] load payload for task %s failed: %v", taskID, err)
		return
	}

	var payload taskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("[EXECUTOR] dropping task %s with bad payload: %v", taskID, err)
		p.rdb.HDel(ctx, payloadsKey, taskID)
		return
	}

	cmd := app.TryToLoseByTimeCommand{
		GameID:      payload.GameID,
		GameStateID: payload.GameStateID,
		OperationID: app.OperationID(payload.OperationID),
	}

	err = p.exec(ctx, cmd)
	switch {
	case err == nil:
		p.rdb.HDel(ctx, payloadsKey, taskID)

	case errors.Is(err, app.ErrGameDoesNotExist):
		// The game expired before its timeout fired.
		p.rdb.HDel(ctx, payloadsKey, taskID)

	default:
		p.retry(ctx, taskID, payload, err)
	}
}

// retry re-arms a failed firing a short delay out, up to maxTaskRetries.
func (p *Poller) retry(ctx context.Context, taskID string, payload taskPayload, cause error) {
	payload.Retries++
	if payload.Retries > maxTaskRetries {
		log.Printf("[EXECUTOR] dropping task %s after %d retries: %v", taskID, maxTaskRetries, cause)
		p.rdb.HDel(ctx, payloadsKey, taskID)
		return
	}

	log.Printf("[EXECUTOR] task %s failed (attempt %d): %v", taskID, payload.Retries, cause)

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[EXECUTOR] re-encode task %s failed: %v", taskID, err)
		return
	}

	pipe := p.rdb.Pipeline()
	pipe.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(time.Now().Add(retryDelay).UnixMilli()),
		Member: taskID,
	})
	pipe.HSet(ctx, payloadsKey, taskID, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[EXECUTOR] re-arm task %s failed: %v", taskID, err)
	}
}
