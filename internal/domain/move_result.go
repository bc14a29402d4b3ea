package domain

type MoveRejectionReason string

const (
	RejectionGameIsEnded     MoveRejectionReason = "game_is_ended"
	RejectionOtherPlayerTurn MoveRejectionReason = "other_player_turn"
	RejectionIllegalMove     MoveRejectionReason = "illegal_move"
)

// MoveResult is a closed sum: exactly one of MoveAccepted, MoveRejected,
// Win, Draw or LossByTime. Processors switch exhaustively on it.
type MoveResult interface {
	moveResult()
}

type MoveAccepted struct {
	ChipLocation ChipLocation
}

type MoveRejected struct {
	Reason MoveRejectionReason
}

type Win struct {
	ChipLocation ChipLocation
}

type Draw struct {
	ChipLocation ChipLocation
}

// LossByTime carries the location the chip would have landed on even though
// the board is left untouched; clients show where the losing move was aimed.
type LossByTime struct {
	ChipLocation ChipLocation
}

func (MoveAccepted) moveResult() {}
func (MoveRejected) moveResult() {}
func (Win) moveResult()          {}
func (Draw) moveResult()         {}
func (LossByTime) moveResult()   {}
