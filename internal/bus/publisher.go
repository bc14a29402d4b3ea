package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/domain"
)

const (
	subjectGameCreated  = "connect_four.game.created"
	subjectGameEnded    = "connect_four.game.ended"
	subjectMoveAccepted = "connect_four.game.move_accepted"
	subjectMoveRejected = "connect_four.game.move_rejected"
)

// NATSEventPublisher publishes domain events on the games stream. JetStream
// acks give at-least-once delivery; per-game ordering follows commit order
// because each game has a single writer at a time.
type NATSEventPublisher struct {
	js    nats.JetStreamContext
	debug bool
}

var _ app.EventPublisher = (*NATSEventPublisher)(nil)

func NewNATSEventPublisher(js nats.JetStreamContext, debug bool) *NATSEventPublisher {
	return &NATSEventPublisher{js: js, debug: debug}
}

func (p *NATSEventPublisher) Publish(ctx context.Context, event app.Event) error {
	subject, body := eventPayload(event)

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if p.debug {
		log.Printf("[BUS] publishing to %s: %s", subject, data)
	}

	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

func eventPayload(event app.Event) (string, map[string]any) {
	switch e := event.(type) {
	case app.GameCreatedEvent:
		return subjectGameCreated, map[string]any{
			"game_id":      e.GameID.Hex(),
			"lobby_id":     e.LobbyID.Hex(),
			"board":        e.Board,
			"players":      eventPlayers(e.Players),
			"current_turn": e.CurrentTurn.Hex(),
			"operation_id": string(e.OperationID),
		}

	case app.MoveAcceptedEvent:
		return subjectMoveAccepted, map[string]any{
			"game_id":       e.GameID.Hex(),
			"chip_location": e.ChipLocation,
			"players":       eventPlayers(e.Players),
			"current_turn":  e.CurrentTurn.Hex(),
			"operation_id":  string(e.OperationID),
		}

	case app.MoveRejectedEvent:
		return subjectMoveRejected, map[string]any{
			"game_id":      e.GameID.Hex(),
			"reason":       string(e.Reason),
			"players":      eventPlayers(e.Players),
			"current_turn": e.CurrentTurn.Hex(),
			"operation_id": string(e.OperationID),
		}

	case app.GameEndedEvent:
		// chip_location is null for a scheduler-driven loss by time.
		var location any
		if e.ChipLocation != nil {
			location = *e.ChipLocation
		}
		return subjectGameEnded, map[string]any{
			"game_id":       e.GameID.Hex(),
			"chip_location": location,
			"players":       eventPlayers(e.Players),
			"reason":        string(e.Reason),
			"last_turn":     e.LastTurn.Hex(),
			"operation_id":  string(e.OperationID),
		}

	default:
		panic(fmt.Sprintf("unknown event %T", event))
	}
}

func eventPlayers(players map[domain.UserID]*domain.PlayerState) map[string]any {
	payload := make(map[string]any, len(players))
	for playerID, state := range players {
		payload[playerID.Hex()] = map[string]any{
			"chip_type":          string(state.ChipType),
			"time_left":          state.TimeLeft.Seconds(),
			"communication_type": string(state.CommunicationType),
		}
	}
	return payload
}
