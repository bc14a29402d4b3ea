package bus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/domain"
)

// Inbound command payloads. Durations arrive either as "HH:MM:SS" strings or
// float seconds; timestamps are RFC 3339 UTC; ids are bare hex.

type createGameMessage struct {
	GameID       domain.GameID  `json:"game_id"`
	LobbyID      domain.LobbyID `json:"lobby_id"`
	FirstPlayer  playerMessage  `json:"first_player"`
	SecondPlayer playerMessage  `json:"second_player"`
	CreatedAt    time.Time      `json:"created_at"`
	OperationID  string         `json:"operation_id"`
}

type playerMessage struct {
	ID                domain.UserID            `json:"id"`
	Time              flexDuration             `json:"time"`
	CommunicationType domain.CommunicationType `json:"communication_type"`
}

type endGameMessage struct {
	GameID      domain.GameID `json:"game_id"`
	OperationID string        `json:"operation_id"`
}

type makeMoveMessage struct {
	CurrentUserID domain.UserID `json:"current_user_id"`
	GameID        domain.GameID `json:"game_id"`
	Column        int           `json:"column"`
	OperationID   string        `json:"operation_id"`
}

func decodeCreateGameCommand(data []byte) (app.CreateGameCommand, error) {
	var msg createGameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return app.CreateGameCommand{}, fmt.Errorf("decode create game command: %w", err)
	}

	return app.CreateGameCommand{
		GameID:  msg.GameID,
		LobbyID: msg.LobbyID,
		FirstPlayer: domain.Player{
			ID:                msg.FirstPlayer.ID,
			Time:              time.Duration(msg.FirstPlayer.Time),
			CommunicationType: msg.FirstPlayer.CommunicationType,
		},
		SecondPlayer: domain.Player{
			ID:                msg.SecondPlayer.ID,
			Time:              time.Duration(msg.SecondPlayer.Time),
			CommunicationType: msg.SecondPlayer.CommunicationType,
		},
		CreatedAt:   msg.CreatedAt,
		OperationID: app.OperationID(msg.OperationID),
	}, nil
}

func decodeEndGameCommand(data []byte) (app.EndGameCommand, error) {
	var msg endGameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return app.EndGameCommand{}, fmt.Errorf("decode end game command: %w", err)
	}

	return app.EndGameCommand{
		GameID:      msg.GameID,
		OperationID: app.OperationID(msg.OperationID),
	}, nil
}

func decodeMakeMoveCommand(data []byte) (app.MakeMoveCommand, error) {
	var msg makeMoveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return app.MakeMoveCommand{}, fmt.Errorf("decode make move command: %w", err)
	}

	return app.MakeMoveCommand{
		GameID:        msg.GameID,
		CurrentUserID: msg.CurrentUserID,
		Column:        msg.Column,
		OperationID:   app.OperationID(msg.OperationID),
	}, nil
}

// flexDuration decodes "HH:MM:SS" (with optional fractional seconds) or a
// bare number of seconds.
type flexDuration time.Duration

func (d *flexDuration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseClockDuration(s)
		if err != nil {
			return err
		}
		*d = flexDuration(parsed)
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	// Round rather than truncate so nanosecond clocks survive the float trip.
	*d = flexDuration(math.Round(seconds * float64(time.Second)))
	return nil
}

// ParseClockDuration parses an "HH:MM:SS" clock string, with optional
// fractional seconds.
func ParseClockDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*float64(time.Second)))
	return total, nil
}
