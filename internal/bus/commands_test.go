package bus

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfour/backend/internal/domain"
)

func TestDecodeCreateGameCommand(t *testing.T) {
	gameID := domain.NewGameID()
	lobbyID := domain.NewLobbyID()
	firstID := domain.NewUserID()
	secondID := domain.NewUserID()

	payload := fmt.Sprintf(`{
		"game_id": %q,
		"lobby_id": %q,
		"first_player": {"id": %q, "time": "00:01:00", "communication_type": "centrifugo"},
		"second_player": {"id": %q, "time": 90.5, "communication_type": "other"},
		"created_at": "2026-08-24T12:00:00Z",
		"operation_id": "op-1"
	}`, gameID.Hex(), lobbyID.Hex(), firstID.Hex(), secondID.Hex())

	cmd, err := decodeCreateGameCommand([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, gameID, cmd.GameID)
	assert.Equal(t, lobbyID, cmd.LobbyID)
	assert.Equal(t, firstID, cmd.FirstPlayer.ID)
	assert.Equal(t, time.Minute, cmd.FirstPlayer.Time)
	assert.Equal(t, domain.CommunicationTypeCentrifugo, cmd.FirstPlayer.CommunicationType)
	assert.Equal(t, 90*time.Second+500*time.Millisecond, cmd.SecondPlayer.Time)
	assert.Equal(t, time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC), cmd.CreatedAt)
	assert.Equal(t, "op-1", string(cmd.OperationID))
}

func TestDecodeCreateGameCommandRejectsBadID(t *testing.T) {
	_, err := decodeCreateGameCommand([]byte(`{"game_id": "not-hex"}`))
	assert.Error(t, err)
}

func TestDecodeMakeMoveCommand(t *testing.T) {
	gameID := domain.NewGameID()
	userID := domain.NewUserID()

	payload := fmt.Sprintf(`{
		"game_id": %q,
		"current_user_id": %q,
		"column": 4,
		"operation_id": "op-2"
	}`, gameID.Hex(), userID.Hex())

	cmd, err := decodeMakeMoveCommand([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, gameID, cmd.GameID)
	assert.Equal(t, userID, cmd.CurrentUserID)
	assert.Equal(t, 4, cmd.Column)
	assert.Equal(t, "op-2", string(cmd.OperationID))
}

func TestDecodeEndGameCommand(t *testing.T) {
	gameID := domain.NewGameID()

	cmd, err := decodeEndGameCommand([]byte(fmt.Sprintf(`{"game_id": %q}`, gameID.Hex())))
	require.NoError(t, err)
	assert.Equal(t, gameID, cmd.GameID)
}

func TestFlexDurationRoundsFloatSeconds(t *testing.T) {
	// A nanosecond-precision clock serialized as float seconds must decode
	// back to the exact duration, not one nanosecond short.
	var d flexDuration
	require.NoError(t, json.Unmarshal([]byte("42.584939578"), &d))
	assert.Equal(t, 42*time.Second+584939578*time.Nanosecond, time.Duration(d))
}

func TestParseClockDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"00:01:00", time.Minute},
		{"01:30:00", 90 * time.Minute},
		{"00:00:00.5", 500 * time.Millisecond},
		{"10:00:05", 10*time.Hour + 5*time.Second},
	}
	for _, tt := range tests {
		got, err := ParseClockDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseClockDurationRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "90", "1:2", "aa:bb:cc", "00:01"} {
		_, err := ParseClockDuration(in)
		assert.Error(t, err, in)
	}
}
