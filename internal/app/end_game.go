package app

import (
	"context"
	"fmt"

	"github.com/connectfour/backend/internal/domain"
)

type EndGameCommand struct {
	GameID      domain.GameID
	OperationID OperationID
}

// EndGameProcessor terminates a game on behalf of an external decision (a
// player was disqualified by the connection hub). The requesting service
// announces the end itself, so no event is published here.
type EndGameProcessor struct {
	store     GameStore
	scheduler TaskScheduler
}

func NewEndGameProcessor(store GameStore, scheduler TaskScheduler) *EndGameProcessor {
	return &EndGameProcessor{
		store:     store,
		scheduler: scheduler,
	}
}

func (p *EndGameProcessor) Process(ctx context.Context, cmd EndGameCommand) error {
	game, err := p.store.ByID(ctx, cmd.GameID, true)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if game == nil {
		return ErrGameDoesNotExist
	}

	// Unschedule against the pre-end state id; EndGame burns it.
	if err := p.scheduler.Unschedule(ctx, TryToLoseByTimeTaskID(game.StateID)); err != nil {
		return fmt.Errorf("unschedule timeout: %w", err)
	}

	domain.EndGame(game)

	if err := p.store.Update(ctx, game); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	return p.store.Commit(ctx)
}
