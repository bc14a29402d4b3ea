package domain

import (
	"fmt"
	"time"
)

// Player describes one participant of a game about to be created.
type Player struct {
	ID                UserID
	Time              time.Duration
	CommunicationType CommunicationType
}

// winDirections are the four scan axes for a connect-four run: horizontal,
// vertical and both diagonals. Each is walked forward and backward from the
// placed chip.
var winDirections = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// NewGame creates a game in the NotStarted status with an empty board.
//
// When lastGame (the most recent game between the same pair) is given, each
// player inherits the opponent's previous chip type, so colors swap between
// consecutive meetings. The player holding the first chip is on turn.
func NewGame(gameID GameID, firstPlayer, secondPlayer Player, createdAt time.Time, lastGame *Game) *Game {
	firstChipType := ChipTypeFirst
	secondChipType := ChipTypeSecond
	if lastGame != nil {
		firstChipType = lastGame.Players[secondPlayer.ID].ChipType
		secondChipType = lastGame.Players[firstPlayer.ID].ChipType
	}

	players := map[UserID]*PlayerState{
		firstPlayer.ID: {
			ChipType:          firstChipType,
			TimeLeft:          firstPlayer.Time,
			CommunicationType: firstPlayer.CommunicationType,
		},
		secondPlayer.ID: {
			ChipType:          secondChipType,
			TimeLeft:          secondPlayer.Time,
			CommunicationType: secondPlayer.CommunicationType,
		},
	}

	currentTurn := firstPlayer.ID
	if firstChipType != ChipTypeFirst {
		currentTurn = secondPlayer.ID
	}

	return &Game{
		ID:          gameID,
		StateID:     NewGameStateID(),
		Status:      GameStatusNotStarted,
		Players:     players,
		CurrentTurn: currentTurn,
		CreatedAt:   createdAt,
	}
}

// MakeMove applies a chip drop into column by currentPlayerID at wall-clock
// time now and returns the outcome.
//
// Rejection checks run before any clock accounting: a rejected move never
// debits time. An otherwise-legal move made after the player's clock ran out
// ends the game with LossByTime without placing the chip.
func MakeMove(game *Game, currentPlayerID UserID, column int, now time.Time) MoveResult {
	if reason, rejected := validateMove(game, currentPlayerID, column); rejected {
		return MoveRejected{Reason: reason}
	}

	location, ok := dropLocation(&game.Board, column)
	if !ok {
		return MoveRejected{Reason: RejectionIllegalMove}
	}

	if applyTurnTime(game, currentPlayerID, now) {
		return LossByTime{ChipLocation: location}
	}

	return placeChip(game, currentPlayerID, location)
}

// EndGame terminates the game unconditionally. Clocks are left untouched.
func EndGame(game *Game) {
	game.StateID = NewGameStateID()
	game.Status = GameStatusEnded
}

// TryToLoseByTime ends the game with the on-turn player's loss by time, but
// only if the game is still in the state the timeout was scheduled against.
// Returns whether the game was ended; false means the firing was stale.
func TryToLoseByTime(game *Game, gameStateID GameStateID) bool {
	if game.StateID != gameStateID {
		return false
	}

	game.StateID = NewGameStateID()
	game.Status = GameStatusEnded
	game.Players[game.CurrentTurn].TimeLeft = 0

	return true
}

func validateMove(game *Game, currentPlayerID UserID, column int) (MoveRejectionReason, bool) {
	if _, ok := game.Players[currentPlayerID]; !ok {
		panic(fmt.Sprintf("player %s is not in game %s", currentPlayerID.Hex(), game.ID.Hex()))
	}

	if game.Status == GameStatusEnded {
		return RejectionGameIsEnded, true
	}

	if game.CurrentTurn != currentPlayerID {
		return RejectionOtherPlayerTurn, true
	}

	if column < 0 || column > BoardColumns-1 {
		return RejectionIllegalMove, true
	}

	return "", false
}

// dropLocation resolves gravity: the chip lands on the highest-index empty
// row of the column. Returns false if the column is full.
func dropLocation(board *Board, column int) (ChipLocation, bool) {
	for row := BoardRows - 1; row >= 0; row-- {
		if board[row][column] == nil {
			return ChipLocation{Row: row, Column: column}, true
		}
	}
	return ChipLocation{}, false
}

// applyTurnTime debits the thinking time of the move from the current
// player's clock and reports whether that clock ran out.
//
// The very first move of a game only arms the clock: lastMoveMadeAt is set
// without any debit, so the first mover has unbounded real time for move #1.
// Kept as-is pending product review.
func applyTurnTime(game *Game, currentPlayerID UserID, now time.Time) bool {
	if game.Status == GameStatusNotStarted {
		game.LastMoveMadeAt = &now
		return false
	}

	timeForMove := now.Sub(*game.LastMoveMadeAt)
	playerState := game.Players[currentPlayerID]

	if timeForMove >= playerState.TimeLeft {
		playerState.TimeLeft = 0
		game.LastMoveMadeAt = &now

		game.StateID = NewGameStateID()
		game.Status = GameStatusEnded

		return true
	}

	playerState.TimeLeft -= timeForMove
	game.LastMoveMadeAt = &now

	return false
}

func placeChip(game *Game, currentPlayerID UserID, location ChipLocation) MoveResult {
	game.StateID = NewGameStateID()

	chipType := game.Players[currentPlayerID].ChipType
	game.Board[location.Row][location.Column] = &chipType

	if game.Status == GameStatusNotStarted {
		game.Status = GameStatusInProgress
		game.CurrentTurn = game.OtherPlayer(currentPlayerID)
		return MoveAccepted{ChipLocation: location}
	}

	if playerWon(&game.Board, location, chipType) {
		game.Status = GameStatusEnded
		return Win{ChipLocation: location}
	}

	if boardIsFull(&game.Board) {
		game.Status = GameStatusEnded
		return Draw{ChipLocation: location}
	}

	game.CurrentTurn = game.OtherPlayer(currentPlayerID)
	return MoveAccepted{ChipLocation: location}
}

func playerWon(board *Board, location ChipLocation, chipType ChipType) bool {
	for _, direction := range winDirections {
		forward := countChips(board, location, direction[0], direction[1], chipType)
		backward := countChips(board, location, -direction[0], -direction[1], chipType)

		// The placed chip is counted once per scan direction.
		if forward+backward-1 >= 4 {
			return true
		}
	}
	return false
}

func countChips(board *Board, location ChipLocation, rowDelta, columnDelta int, chipType ChipType) int {
	count := 0
	row, column := location.Row, location.Column

	for row >= 0 && row < BoardRows && column >= 0 && column < BoardColumns {
		cell := board[row][column]
		if cell == nil || *cell != chipType {
			break
		}
		count++
		row += rowDelta
		column += columnDelta
	}

	return count
}

func boardIsFull(board *Board) bool {
	for row := range board {
		for column := range board[row] {
			if board[row][column] == nil {
				return false
			}
		}
	}
	return true
}
