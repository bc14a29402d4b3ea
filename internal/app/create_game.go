package app

import (
	"context"
	"fmt"
	"time"

	"github.com/connectfour/backend/internal/domain"
)

type CreateGameCommand struct {
	GameID       domain.GameID
	LobbyID      domain.LobbyID
	FirstPlayer  domain.Player
	SecondPlayer domain.Player
	CreatedAt    time.Time
	OperationID  OperationID
}

type CreateGameProcessor struct {
	store     GameStore
	publisher EventPublisher
	relay     RealtimeRelay
}

func NewCreateGameProcessor(
	store GameStore,
	publisher EventPublisher,
	relay RealtimeRelay,
) *CreateGameProcessor {
	return &CreateGameProcessor{
		store:     store,
		publisher: publisher,
		relay:     relay,
	}
}

func (p *CreateGameProcessor) Process(ctx context.Context, cmd CreateGameCommand) error {
	game, err := p.store.ByID(ctx, cmd.GameID, false)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if game != nil {
		return ErrGameAlreadyExists
	}

	// The previous meeting of the same pair, if any, drives the color swap.
	lastGames, err := p.store.ListByPlayerIDs(
		ctx,
		[2]domain.UserID{cmd.FirstPlayer.ID, cmd.SecondPlayer.ID},
		SortGamesByDescCreatedAt,
		1,
	)
	if err != nil {
		return fmt.Errorf("list games by player ids: %w", err)
	}

	var lastGame *domain.Game
	if len(lastGames) > 0 {
		lastGame = lastGames[0]
	}

	newGame := domain.NewGame(cmd.GameID, cmd.FirstPlayer, cmd.SecondPlayer, cmd.CreatedAt, lastGame)

	if err := p.store.Save(ctx, newGame); err != nil {
		return fmt.Errorf("save game: %w", err)
	}

	event := GameCreatedEvent{
		GameID:      newGame.ID,
		LobbyID:     cmd.LobbyID,
		Board:       newGame.Board,
		Players:     newGame.Players,
		CurrentTurn: newGame.CurrentTurn,
		OperationID: cmd.OperationID,
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish game created: %w", err)
	}

	if newGame.UsesCentrifugo() {
		publication := map[string]any{
			"type":         "game_created",
			"game_id":      newGame.ID.Hex(),
			"players":      playersPayload(newGame.Players),
			"current_turn": newGame.CurrentTurn.Hex(),
		}
		if err := p.relay.Publish(ctx, LobbyChannel(cmd.LobbyID), publication); err != nil {
			return fmt.Errorf("publish to lobby channel: %w", err)
		}
	}

	return p.store.Commit(ctx)
}
