package app

import (
	"context"
	"fmt"

	"github.com/connectfour/backend/internal/domain"
)

type TryToLoseByTimeCommand struct {
	GameID      domain.GameID
	GameStateID domain.GameStateID
	OperationID OperationID
}

// TryToLoseByTimeProcessor handles scheduler firings. A firing whose state
// id no longer matches the game is stale and must have no effect: the move
// that burned the state id already rescheduled or cancelled the timeout.
type TryToLoseByTimeProcessor struct {
	store     GameStore
	publisher EventPublisher
	relay     RealtimeRelay
}

func NewTryToLoseByTimeProcessor(
	store GameStore,
	publisher EventPublisher,
	relay RealtimeRelay,
) *TryToLoseByTimeProcessor {
	return &TryToLoseByTimeProcessor{
		store:     store,
		publisher: publisher,
		relay:     relay,
	}
}

func (p *TryToLoseByTimeProcessor) Process(ctx context.Context, cmd TryToLoseByTimeCommand) error {
	game, err := p.store.ByID(ctx, cmd.GameID, true)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if game == nil {
		return ErrGameDoesNotExist
	}

	// LastTurn of the emitted event is the loser; capture before any
	// mutation for clarity even though TryToLoseByTime never advances it.
	loser := game.CurrentTurn

	if !domain.TryToLoseByTime(game, cmd.GameStateID) {
		// Stale firing: no writes, no events.
		return nil
	}

	if err := p.store.Update(ctx, game); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	event := GameEndedEvent{
		GameID:      game.ID,
		Players:     game.Players,
		Reason:      GameEndReasonLossByTime,
		LastTurn:    loser,
		OperationID: cmd.OperationID,
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish game ended: %w", err)
	}

	if game.UsesCentrifugo() {
		publication := gameEndedPublication(game, GameEndReasonLossByTime, nil)
		if err := p.relay.Publish(ctx, GameChannel(game.ID), publication); err != nil {
			return fmt.Errorf("publish to game channel: %w", err)
		}
	}

	return p.store.Commit(ctx)
}
