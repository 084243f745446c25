// Package chessdto holds the JSON shapes the spectator endpoints and the
// relay publish.
package chessdto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (m MaterialScore) Diff() int { return m.White - m.Black }

// SessionState is the /state.json document.
type SessionState struct {
	SessionUUID  string        `json:"session_uuid"`
	Name         string        `json:"name"`
	Engine       string        `json:"engine"`
	HumanColor   string        `json:"human_color"`
	SideToMove   string        `json:"side_to_move"`
	FEN          string        `json:"fen"`
	MovesUCI     []string      `json:"moves_uci"`
	MovesSAN     []string      `json:"moves_san"`
	MoveCount    int           `json:"move_count"`
	LastMove     string        `json:"last_move,omitempty"`
	Check        bool          `json:"check"`
	Material     MaterialScore `json:"material"`
	OpeningCode  string        `json:"opening_code,omitempty"`
	OpeningTitle string        `json:"opening_title,omitempty"`
	Finished     bool          `json:"finished"`
	Outcome      string        `json:"outcome"`
	Result       string        `json:"result"`
	OutcomeText  string        `json:"outcome_text,omitempty"`
	Error        string        `json:"error,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
