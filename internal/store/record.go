package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/connectfour/backend/internal/domain"
)

// gameRecord is the stable wire shape of a persisted game. Field names and
// value renderings (hex ids, seconds for clocks, RFC 3339 timestamps) are
// fixed; other services read these records.
type gameRecord struct {
	ID             domain.GameID                       `json:"id"`
	StateID        domain.GameStateID                  `json:"state_id"`
	Status         domain.GameStatus                   `json:"status"`
	Players        map[domain.UserID]playerStateRecord `json:"players"`
	CurrentTurn    domain.UserID                       `json:"current_turn"`
	Board          domain.Board                        `json:"board"`
	LastMoveMadeAt *time.Time                          `json:"last_move_made_at"`
	CreatedAt      time.Time                           `json:"created_at"`
}

type playerStateRecord struct {
	ChipType          domain.ChipType          `json:"chip_type"`
	TimeLeft          float64                  `json:"time_left"`
	CommunicationType domain.CommunicationType `json:"communication_type"`
}

func encodeGame(game *domain.Game) ([]byte, error) {
	players := make(map[domain.UserID]playerStateRecord, len(game.Players))
	for playerID, state := range game.Players {
		players[playerID] = playerStateRecord{
			ChipType:          state.ChipType,
			TimeLeft:          state.TimeLeft.Seconds(),
			CommunicationType: state.CommunicationType,
		}
	}

	record := gameRecord{
		ID:             game.ID,
		StateID:        game.StateID,
		Status:         game.Status,
		Players:        players,
		CurrentTurn:    game.CurrentTurn,
		Board:          game.Board,
		LastMoveMadeAt: game.LastMoveMadeAt,
		CreatedAt:      game.CreatedAt,
	}
	return json.Marshal(record)
}

// secondsToDuration inverts Duration.Seconds. The float is within half a
// nanosecond of the stored clock, so rounding (not truncation) recovers the
// exact duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func decodeGame(data []byte) (*domain.Game, error) {
	var record gameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode game record: %w", err)
	}

	players := make(map[domain.UserID]*domain.PlayerState, len(record.Players))
	for playerID, state := range record.Players {
		players[playerID] = &domain.PlayerState{
			ChipType:          state.ChipType,
			TimeLeft:          secondsToDuration(state.TimeLeft),
			CommunicationType: state.CommunicationType,
		}
	}

	return &domain.Game{
		ID:             record.ID,
		StateID:        record.StateID,
		Status:         record.Status,
		Players:        players,
		CurrentTurn:    record.CurrentTurn,
		Board:          record.Board,
		LastMoveMadeAt: record.LastMoveMadeAt,
		CreatedAt:      record.CreatedAt,
	}, nil
}
