package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/domain"
)

func eventTestPlayers() (domain.UserID, map[domain.UserID]*domain.PlayerState) {
	playerID := domain.NewUserID()
	players := map[domain.UserID]*domain.PlayerState{
		playerID: {
			ChipType:          domain.ChipTypeFirst,
			TimeLeft:          45 * time.Second,
			CommunicationType: domain.CommunicationTypeCentrifugo,
		},
	}
	return playerID, players
}

func TestEventPayloadSubjects(t *testing.T) {
	playerID, players := eventTestPlayers()
	gameID := domain.NewGameID()
	location := domain.ChipLocation{Row: 6, Column: 3}

	tests := []struct {
		event   app.Event
		subject string
	}{
		{
			app.GameCreatedEvent{
				GameID: gameID, LobbyID: domain.NewLobbyID(),
				Players: players, CurrentTurn: playerID,
			},
			"connect_four.game.created",
		},
		{
			app.MoveAcceptedEvent{
				GameID: gameID, ChipLocation: location,
				Players: players, CurrentTurn: playerID,
			},
			"connect_four.game.move_accepted",
		},
		{
			app.MoveRejectedEvent{
				GameID: gameID, Reason: domain.RejectionIllegalMove,
				Players: players, CurrentTurn: playerID,
			},
			"connect_four.game.move_rejected",
		},
		{
			app.GameEndedEvent{
				GameID: gameID, ChipLocation: &location,
				Players: players, Reason: app.GameEndReasonWin, LastTurn: playerID,
			},
			"connect_four.game.ended",
		},
	}

	for _, tt := range tests {
		subject, body := eventPayload(tt.event)
		assert.Equal(t, tt.subject, subject)
		assert.Equal(t, gameID.Hex(), body["game_id"])
		assert.Contains(t, body, "operation_id")
	}
}

func TestEventPayloadPlayers(t *testing.T) {
	playerID, players := eventTestPlayers()

	_, body := eventPayload(app.MoveAcceptedEvent{
		GameID:       domain.NewGameID(),
		ChipLocation: domain.ChipLocation{Row: 5, Column: 1},
		Players:      players,
		CurrentTurn:  playerID,
	})

	payload, ok := body["players"].(map[string]any)
	require.True(t, ok)
	state, ok := payload[playerID.Hex()].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "first", state["chip_type"])
	assert.Equal(t, 45.0, state["time_left"])
	assert.Equal(t, "centrifugo", state["communication_type"])
}

func TestEventPayloadLossByTimeHasNullLocation(t *testing.T) {
	playerID, players := eventTestPlayers()

	_, body := eventPayload(app.GameEndedEvent{
		GameID:   domain.NewGameID(),
		Players:  players,
		Reason:   app.GameEndReasonLossByTime,
		LastTurn: playerID,
	})

	assert.Nil(t, body["chip_location"])
	assert.Equal(t, "loss_by_time", body["reason"])
}
