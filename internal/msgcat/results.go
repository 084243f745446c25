package msgcat

import (
	"errors"
	"time"

	"github.com/park285/cheese-desk/internal/game"
)

var outcomeKeys = map[game.Outcome]string{
	game.InProgress:               "result.in_progress",
	game.HumanWin:                 "result.human_win",
	game.OpponentWin:              "result.opponent_win",
	game.Stalemate:                "result.stalemate",
	game.DrawInsufficientMaterial: "result.insufficient_material",
	game.Draw75Move:               "result.seventy_five_moves",
	game.DrawFivefoldRepetition:   "result.fivefold_repetition",
	game.DrawClaimable:            "result.claimable_draw",
	game.Unknown:                  "result.unknown",
}

// OutcomeKey returns the catalog key for the result sentence of o.
func OutcomeKey(o game.Outcome) string {
	if key, ok := outcomeKeys[o]; ok {
		return key
	}
	return "result.unknown"
}

// ResultText is the sentence shown when a session ends. Engine failures
// take precedence over the outcome, which is Unknown in that case.
func (c *Catalog) ResultText(rep game.Report, budget time.Duration) string {
	switch {
	case errors.Is(rep.Err, game.ErrOpponentTimeout):
		return c.MustRender("error.opponent_timeout", map[string]any{"Budget": budget})
	case errors.Is(rep.Err, game.ErrOpponentUnavailable):
		return c.MustRender("error.opponent_unavailable", nil)
	}
	return c.MustRender(OutcomeKey(rep.Outcome), nil)
}

// Summary is the one-line exit report printed by the CLI.
func (c *Catalog) Summary(rep game.Report, budget time.Duration, engine string) string {
	return c.MustRender("summary.line", map[string]any{
		"Result": c.ResultText(rep, budget),
		"Plies":  rep.Plies,
		"Human":  rep.Human.String(),
		"Engine": engine,
	})
}
