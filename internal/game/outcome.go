package game

type Outcome uint8

const (
	InProgress Outcome = iota
	HumanWin
	OpponentWin
	Stalemate
	DrawInsufficientMaterial
	Draw75Move
	DrawFivefoldRepetition
	DrawClaimable
	Unknown
)

var outcomeNames = [...]string{
	"in-progress",
	"human-win",
	"opponent-win",
	"stalemate",
	"draw-insufficient-material",
	"draw-75-move",
	"draw-fivefold-repetition",
	"draw-claimable",
	"unknown",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

func (o Outcome) IsDraw() bool {
	switch o {
	case Stalemate, DrawInsufficientMaterial, Draw75Move, DrawFivefoldRepetition, DrawClaimable:
		return true
	}
	return false
}

// PGNResult maps the outcome to a PGN result token for the given human colour.
func (o Outcome) PGNResult(human Color) string {
	switch {
	case o == HumanWin && human == White, o == OpponentWin && human == Black:
		return "1-0"
	case o == HumanWin && human == Black, o == OpponentWin && human == White:
		return "0-1"
	case o.IsDraw():
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Classify names a finished game. The first matching condition wins; on
// checkmate the side not to move is the winner.
func Classify(r Rules, human Color) (Outcome, error) {
	switch {
	case r.IsCheckmate():
		if r.Turn().Other() == human {
			return HumanWin, nil
		}
		return OpponentWin, nil
	case r.IsStalemate():
		return Stalemate, nil
	case r.IsInsufficientMaterial():
		return DrawInsufficientMaterial, nil
	case r.IsSeventyFiveMoves():
		return Draw75Move, nil
	case r.IsFivefoldRepetition():
		return DrawFivefoldRepetition, nil
	case r.CanClaimDraw():
		return DrawClaimable, nil
	}
	return Unknown, ErrUnclassifiedOutcome
}
