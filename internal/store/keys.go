package store

import (
	"github.com/connectfour/backend/internal/domain"
)

// Game records live under a composite key carrying both the game id and the
// sorted player pair, so lookups by either side are wildcard scans:
//
//	games:id:{gameHex}:player_ids:{minPlayerHex}:{maxPlayerHex}
//
// Locks sit next to them under locks:{gameKey}.

func gameKey(gameID domain.GameID, playerIDs []domain.UserID) string {
	min, max := sortedPlayerHex(playerIDs)
	return "games:id:" + gameID.Hex() + ":player_ids:" + min + ":" + max
}

func gameByIDPattern(gameID domain.GameID) string {
	return "games:id:" + gameID.Hex() + ":player_ids:*"
}

func gameByPlayerIDsPattern(playerIDs []domain.UserID) string {
	min, max := sortedPlayerHex(playerIDs)
	return "games:id:*:player_ids:" + min + ":" + max
}

func lockKey(gameRecordKey string) string {
	return "locks:" + gameRecordKey
}

// sortedPlayerHex orders the pair by byte value, which for lowercase hex of
// equal length is plain string order.
func sortedPlayerHex(playerIDs []domain.UserID) (string, string) {
	if len(playerIDs) != 2 {
		panic("game key needs exactly two player ids")
	}
	a, b := playerIDs[0].Hex(), playerIDs[1].Hex()
	if a > b {
		a, b = b, a
	}
	return a, b
}
