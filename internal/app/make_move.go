package app

import (
	"context"
	"fmt"
	"time"

	"github.com/connectfour/backend/internal/domain"
)

type MakeMoveCommand struct {
	GameID        domain.GameID
	CurrentUserID domain.UserID
	Column        int
	OperationID   OperationID
}

type MakeMoveProcessor struct {
	store     GameStore
	publisher EventPublisher
	scheduler TaskScheduler
	relay     RealtimeRelay

	// now is swappable in tests; defaults to UTC wall clock.
	now func() time.Time
}

func NewMakeMoveProcessor(
	store GameStore,
	publisher EventPublisher,
	scheduler TaskScheduler,
	relay RealtimeRelay,
) *MakeMoveProcessor {
	return &MakeMoveProcessor{
		store:     store,
		publisher: publisher,
		scheduler: scheduler,
		relay:     relay,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (p *MakeMoveProcessor) Process(ctx context.Context, cmd MakeMoveCommand) error {
	game, err := p.store.ByID(ctx, cmd.GameID, true)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if game == nil {
		return ErrGameDoesNotExist
	}

	oldStateID := game.StateID
	now := p.now()

	result := domain.MakeMove(game, cmd.CurrentUserID, cmd.Column, now)

	// A rejected move may still have advanced nothing, but a LossByTime or
	// an accepted move always did; the game is persisted either way so the
	// clock bookkeeping on the record matches what was published.
	if err := p.store.Update(ctx, game); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	if _, rejected := result.(domain.MoveRejected); !rejected {
		// The pending timeout was armed against the pre-move state.
		if err := p.scheduler.Unschedule(ctx, TryToLoseByTimeTaskID(oldStateID)); err != nil {
			return fmt.Errorf("unschedule stale timeout: %w", err)
		}
	}

	if _, accepted := result.(domain.MoveAccepted); accepted {
		timeLeft := game.Players[game.CurrentTurn].TimeLeft
		task := TryToLoseByTimeTask{
			ID:          TryToLoseByTimeTaskID(game.StateID),
			ExecuteAt:   now.Add(timeLeft),
			GameID:      game.ID,
			GameStateID: game.StateID,
			OperationID: cmd.OperationID,
		}
		if err := p.scheduler.Schedule(ctx, task); err != nil {
			return fmt.Errorf("schedule timeout: %w", err)
		}
	}

	if err := p.publishEvent(ctx, game, result, cmd.OperationID); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	if game.UsesCentrifugo() {
		if err := p.relay.Publish(ctx, GameChannel(game.ID), relayPublication(game, result)); err != nil {
			return fmt.Errorf("publish to game channel: %w", err)
		}
	}

	return p.store.Commit(ctx)
}

func (p *MakeMoveProcessor) publishEvent(
	ctx context.Context,
	game *domain.Game,
	result domain.MoveResult,
	operationID OperationID,
) error {
	var event Event

	switch r := result.(type) {
	case domain.MoveAccepted:
		event = MoveAcceptedEvent{
			GameID:       game.ID,
			ChipLocation: r.ChipLocation,
			Players:      game.Players,
			CurrentTurn:  game.CurrentTurn,
			OperationID:  operationID,
		}

	case domain.MoveRejected:
		event = MoveRejectedEvent{
			GameID:      game.ID,
			Reason:      r.Reason,
			Players:     game.Players,
			CurrentTurn: game.CurrentTurn,
			OperationID: operationID,
		}

	case domain.Win:
		event = gameEndedEvent(game, GameEndReasonWin, &r.ChipLocation, operationID)

	case domain.Draw:
		event = gameEndedEvent(game, GameEndReasonDraw, &r.ChipLocation, operationID)

	case domain.LossByTime:
		event = gameEndedEvent(game, GameEndReasonLossByTime, &r.ChipLocation, operationID)

	default:
		panic(fmt.Sprintf("unknown move result %T", result))
	}

	return p.publisher.Publish(ctx, event)
}

func gameEndedEvent(
	game *domain.Game,
	reason GameEndReason,
	location *domain.ChipLocation,
	operationID OperationID,
) GameEndedEvent {
	return GameEndedEvent{
		GameID:       game.ID,
		ChipLocation: location,
		Players:      game.Players,
		Reason:       reason,
		LastTurn:     game.CurrentTurn,
		OperationID:  operationID,
	}
}

func relayPublication(game *domain.Game, result domain.MoveResult) map[string]any {
	switch r := result.(type) {
	case domain.MoveAccepted:
		return map[string]any{
			"type":          "move_accepted",
			"chip_location": chipLocationPayload(r.ChipLocation),
			"players":       playersPayload(game.Players),
			"current_turn":  game.CurrentTurn.Hex(),
		}

	case domain.MoveRejected:
		return map[string]any{
			"type":         "move_rejected",
			"players":      playersPayload(game.Players),
			"reason":       string(r.Reason),
			"current_turn": game.CurrentTurn.Hex(),
		}

	case domain.Win:
		return gameEndedPublication(game, GameEndReasonWin, &r.ChipLocation)

	case domain.Draw:
		return gameEndedPublication(game, GameEndReasonDraw, &r.ChipLocation)

	case domain.LossByTime:
		return gameEndedPublication(game, GameEndReasonLossByTime, &r.ChipLocation)

	default:
		panic(fmt.Sprintf("unknown move result %T", result))
	}
}

func gameEndedPublication(
	game *domain.Game,
	reason GameEndReason,
	location *domain.ChipLocation,
) map[string]any {
	var rawLocation any
	if location != nil {
		rawLocation = chipLocationPayload(*location)
	}
	return map[string]any{
		"type":          "game_ended",
		"chip_location": rawLocation,
		"players":       playersPayload(game.Players),
		"reason":        string(reason),
		"last_turn":     game.CurrentTurn.Hex(),
	}
}
