package app

import (
	"context"

	"github.com/connectfour/backend/internal/domain"
)

// RealtimeRelay publishes JSON payloads to per-game and per-lobby channels
// for live clients. Implementations retry internally; a returned error means
// the retry envelope is exhausted and the command must fail.
type RealtimeRelay interface {
	Publish(ctx context.Context, channel string, data any) error
}

func GameChannel(gameID domain.GameID) string {
	return "games:" + gameID.Hex()
}

func LobbyChannel(lobbyID domain.LobbyID) string {
	return "lobbies:" + lobbyID.Hex()
}

// playersPayload renders the players map the way every relay publication
// carries it: chip type plus remaining clock in seconds, keyed by hex id.
func playersPayload(players map[domain.UserID]*domain.PlayerState) map[string]any {
	payload := make(map[string]any, len(players))
	for playerID, state := range players {
		payload[playerID.Hex()] = map[string]any{
			"chip_type": string(state.ChipType),
			"time_left": state.TimeLeft.Seconds(),
		}
	}
	return payload
}

func chipLocationPayload(location domain.ChipLocation) map[string]any {
	return map[string]any{
		"row":    location.Row,
		"column": location.Column,
	}
}
