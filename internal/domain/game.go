package domain

import "time"

const (
	BoardRows    = 7
	BoardColumns = 6
)

type ChipType string

const (
	ChipTypeFirst  ChipType = "first"
	ChipTypeSecond ChipType = "second"
)

type GameStatus string

const (
	GameStatusNotStarted GameStatus = "not_started"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusEnded      GameStatus = "ended"
)

type CommunicationType string

const (
	CommunicationTypeCentrifugo CommunicationType = "centrifugo"
	CommunicationTypeOther      CommunicationType = "other"
)

// Board is a fixed-shape rectangle; nil cells are empty. Row 0 is the top,
// chips land on the highest-index empty row of a column.
type Board [BoardRows][BoardColumns]*ChipType

type PlayerState struct {
	ChipType          ChipType
	TimeLeft          time.Duration
	CommunicationType CommunicationType
}

type ChipLocation struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Game is the complete per-game state. It is handed out and taken back by
// the store by value ownership: one processor mutates it at a time under the
// per-game lock.
type Game struct {
	ID             GameID
	StateID        GameStateID
	Status         GameStatus
	Players        map[UserID]*PlayerState
	CurrentTurn    UserID
	Board          Board
	LastMoveMadeAt *time.Time
	CreatedAt      time.Time
}

// OtherPlayer returns the id of the opponent of playerID. Panics if playerID
// is the only member, which would mean a malformed game record.
func (g *Game) OtherPlayer(playerID UserID) UserID {
	for id := range g.Players {
		if id != playerID {
			return id
		}
	}
	panic("game has no other player")
}

// UsesCentrifugo reports whether at least one player receives realtime
// updates through the relay.
func (g *Game) UsesCentrifugo() bool {
	for _, state := range g.Players {
		if state.CommunicationType == CommunicationTypeCentrifugo {
			return true
		}
	}
	return false
}
