package app

import (
	"context"

	"github.com/connectfour/backend/internal/domain"
)

// OperationID correlates every emitted event and scheduled task with the
// inbound command that caused it.
type OperationID string

type GameEndReason string

const (
	GameEndReasonWin        GameEndReason = "win"
	GameEndReasonDraw       GameEndReason = "draw"
	GameEndReasonLossByTime GameEndReason = "loss_by_time"
)

// Event is a closed sum of the domain events this service emits.
type Event interface {
	event()
}

type GameCreatedEvent struct {
	GameID      domain.GameID
	LobbyID     domain.LobbyID
	Board       domain.Board
	Players     map[domain.UserID]*domain.PlayerState
	CurrentTurn domain.UserID
	OperationID OperationID
}

type MoveAcceptedEvent struct {
	GameID       domain.GameID
	ChipLocation domain.ChipLocation
	Players      map[domain.UserID]*domain.PlayerState
	CurrentTurn  domain.UserID
	OperationID  OperationID
}

type MoveRejectedEvent struct {
	GameID      domain.GameID
	Reason      domain.MoveRejectionReason
	Players     map[domain.UserID]*domain.PlayerState
	CurrentTurn domain.UserID
	OperationID OperationID
}

// GameEndedEvent's ChipLocation is nil for a scheduler-driven loss by time,
// where no move was played.
type GameEndedEvent struct {
	GameID       domain.GameID
	ChipLocation *domain.ChipLocation
	Players      map[domain.UserID]*domain.PlayerState
	Reason       GameEndReason
	LastTurn     domain.UserID
	OperationID  OperationID
}

func (GameCreatedEvent) event()  {}
func (MoveAcceptedEvent) event() {}
func (MoveRejectedEvent) event() {}
func (GameEndedEvent) event()    {}

// EventPublisher publishes domain events to the bus with at-least-once
// semantics.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
