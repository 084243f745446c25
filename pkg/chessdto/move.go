package chessdto

import "time"

const (
	EventMove     = "move"
	EventFinished = "finished"
)

// MoveEvent is one relay message: an applied move, or the end of the game.
type MoveEvent struct {
	Type        string    `json:"type"`
	SessionUUID string    `json:"session_uuid"`
	Ply         int       `json:"ply"`
	Side        string    `json:"side,omitempty"`
	Color       string    `json:"color,omitempty"`
	UCI         string    `json:"uci,omitempty"`
	SAN         string    `json:"san,omitempty"`
	FEN         string    `json:"fen"`
	ThinkMS     int64     `json:"think_ms,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Result      string    `json:"result,omitempty"`
	At          time.Time `json:"at"`
}
