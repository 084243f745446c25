package game

import "errors"

var (
	ErrOpponentUnavailable = errors.New("opponent engine unavailable")
	ErrOpponentTimeout     = errors.New("opponent engine timed out")
	ErrUnclassifiedOutcome = errors.New("game over without a recognised outcome")
	ErrQuit                = errors.New("quit requested")
)
