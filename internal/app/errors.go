package app

import "errors"

var (
	// ErrGameAlreadyExists is returned by CreateGame when the target id is
	// already occupied. Terminal for the command.
	ErrGameAlreadyExists = errors.New("game already exists")

	// ErrGameDoesNotExist is returned by every non-Create command whose
	// target game is absent. Terminal for the command; the task executor
	// swallows it.
	ErrGameDoesNotExist = errors.New("game does not exist")
)
