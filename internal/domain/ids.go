package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// All identifiers are 128-bit values rendered as lowercase hex without
// dashes. GameStateID is regenerated on every state-mutating transition and
// is the sole idempotency token shared by the store, the scheduler and the
// command stream.

type GameID uuid.UUID

type GameStateID uuid.UUID

type UserID uuid.UUID

type LobbyID uuid.UUID

func NewGameID() GameID           { return GameID(uuid.New()) }
func NewGameStateID() GameStateID { return GameStateID(uuid.New()) }
func NewUserID() UserID           { return UserID(uuid.New()) }
func NewLobbyID() LobbyID         { return LobbyID(uuid.New()) }

func (id GameID) Hex() string      { return hexEncode(id[:]) }
func (id GameStateID) Hex() string { return hexEncode(id[:]) }
func (id UserID) Hex() string      { return hexEncode(id[:]) }
func (id LobbyID) Hex() string     { return hexEncode(id[:]) }

func (id GameID) MarshalText() ([]byte, error)      { return []byte(id.Hex()), nil }
func (id GameStateID) MarshalText() ([]byte, error) { return []byte(id.Hex()), nil }
func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.Hex()), nil }
func (id LobbyID) MarshalText() ([]byte, error)     { return []byte(id.Hex()), nil }

func (id *GameID) UnmarshalText(text []byte) error {
	raw, err := hexDecode(text)
	if err != nil {
		return err
	}
	*id = GameID(raw)
	return nil
}

func (id *GameStateID) UnmarshalText(text []byte) error {
	raw, err := hexDecode(text)
	if err != nil {
		return err
	}
	*id = GameStateID(raw)
	return nil
}

func (id *UserID) UnmarshalText(text []byte) error {
	raw, err := hexDecode(text)
	if err != nil {
		return err
	}
	*id = UserID(raw)
	return nil
}

func (id *LobbyID) UnmarshalText(text []byte) error {
	raw, err := hexDecode(text)
	if err != nil {
		return err
	}
	*id = LobbyID(raw)
	return nil
}

func ParseGameID(s string) (GameID, error) {
	raw, err := hexDecode([]byte(s))
	return GameID(raw), err
}

func ParseGameStateID(s string) (GameStateID, error) {
	raw, err := hexDecode([]byte(s))
	return GameStateID(raw), err
}

func ParseUserID(s string) (UserID, error) {
	raw, err := hexDecode([]byte(s))
	return UserID(raw), err
}

func ParseLobbyID(s string) (LobbyID, error) {
	raw, err := hexDecode([]byte(s))
	return LobbyID(raw), err
}

func hexEncode(raw []byte) string {
	return hex.EncodeToString(raw)
}

func hexDecode(text []byte) (uuid.UUID, error) {
	var raw uuid.UUID
	if len(text) != 32 {
		return raw, fmt.Errorf("invalid id %q: want 32 hex chars", text)
	}
	if _, err := hex.Decode(raw[:], text); err != nil {
		return raw, fmt.Errorf("invalid id %q: %w", text, err)
	}
	return raw, nil
}
