package bots

import (
	"chessGo/game"

	"github.com/notnil/chess"
)

// DefaultEvaluator scores positions in centipawns from White's side.
type DefaultEvaluator struct{}

// MateScore is the value of a checkmate. No sum of positional terms comes
// within an order of magnitude of it.
const MateScore = 100000

const (
	// CenterWeight is paid per attacked central square.
	CenterWeight = 10
	// CoverageWeight is paid per attacked square anywhere on the board.
	CoverageWeight = 2
	// MobilityWeight is paid per legal move.
	MobilityWeight      = 1
	DoubledPawnPenalty  = 10
	IsolatedPawnPenalty = 15
)

var pieceValues = map[chess.PieceType]float64{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// Piece-square tables, rank 8 first, seen from White.
var pawnTable = [64]float64{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]float64{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var centerSquares = [4]chess.Square{chess.D4, chess.E4, chess.D5, chess.E5}

// Evaluate implements PositionEvaluator. It panics on a nil position or a
// position without both kings: such input never passes game.Validate, so
// reaching here with one is a programming error.
func (e DefaultEvaluator) Evaluate(pos *chess.Position) float64 {
	if pos == nil {
		panic("bots: Evaluate called with nil position")
	}
	if _, ok := game.KingSquare(pos, chess.White); !ok {
		panic("bots: Evaluate called on position without white king: " + pos.String())
	}
	if _, ok := game.KingSquare(pos, chess.Black); !ok {
		panic("bots: Evaluate called on position without black king: " + pos.String())
	}

	switch game.StatusOf(pos) {
	case game.Checkmate:
		// The side to move is the one that got mated.
		if pos.Turn() == chess.White {
			return -MateScore
		}
		return MateScore
	case game.Stalemate, game.DrawByRule:
		return 0
	}

	return e.materialScore(pos) +
		e.positionScore(pos) +
		e.centerControl(pos) +
		e.mobilityScore(pos)*MobilityWeight +
		e.pawnStructure(pos)
}

func (e DefaultEvaluator) materialScore(pos *chess.Position) float64 {
	var score float64
	for _, piece := range pos.Board().SquareMap() {
		if piece.Color() == chess.White {
			score += pieceValues[piece.Type()]
		} else {
			score -= pieceValues[piece.Type()]
		}
	}
	return score
}

// tableIndex maps a square onto the rank-8-first tables, mirroring ranks
// for Black.
func tableIndex(sq chess.Square, color chess.Color) int {
	file, rank := int(sq.File()), int(sq.Rank())
	if color == chess.White {
		return (7-rank)*8 + file
	}
	return rank*8 + file
}

func (e DefaultEvaluator) positionScore(pos *chess.Position) float64 {
	var score float64
	for sq, piece := range pos.Board().SquareMap() {
		var v float64
		switch piece.Type() {
		case chess.Pawn:
			v = pawnTable[tableIndex(sq, piece.Color())]
		case chess.Knight:
			v = knightTable[tableIndex(sq, piece.Color())]
		default:
			continue
		}
		if piece.Color() == chess.White {
			score += v
		} else {
			score -= v
		}
	}
	return score
}

// centerControl rewards attacks on the four central squares and, more
// lightly, the total number of squares each side covers.
func (e DefaultEvaluator) centerControl(pos *chess.Position) float64 {
	white := game.Attacks(pos, chess.White)
	black := game.Attacks(pos, chess.Black)

	var score float64
	for _, sq := range centerSquares {
		if white.Has(sq) {
			score += CenterWeight
		}
		if black.Has(sq) {
			score -= CenterWeight
		}
	}
	score += float64(white.Count()-black.Count()) * CoverageWeight
	return score
}

// mobilityScore is the legal-move count difference, White minus Black.
// The opponent's moves are counted on the position with the turn passed;
// a side in check has no such position, so the term is zero then.
func (e DefaultEvaluator) mobilityScore(pos *chess.Position) float64 {
	if game.InCheck(pos, pos.Turn()) {
		return 0
	}
	passed, err := game.PassTurn(pos)
	if err != nil {
		return 0
	}
	current, opponent := len(pos.ValidMoves()), len(passed.ValidMoves())
	if pos.Turn() == chess.White {
		return float64(current - opponent)
	}
	return float64(opponent - current)
}

func (e DefaultEvaluator) pawnStructure(pos *chess.Position) float64 {
	var whitePawns, blackPawns [8]int
	for sq, piece := range pos.Board().SquareMap() {
		switch piece {
		case chess.WhitePawn:
			whitePawns[sq.File()]++
		case chess.BlackPawn:
			blackPawns[sq.File()]++
		}
	}
	return pawnFilePenalty(blackPawns) - pawnFilePenalty(whitePawns)
}

func pawnFilePenalty(files [8]int) float64 {
	var penalty float64
	for file, count := range files {
		if count == 0 {
			continue
		}
		if count > 1 {
			penalty += DoubledPawnPenalty * float64(count-1)
		}
		left := file > 0 && files[file-1] > 0
		right := file < 7 && files[file+1] > 0
		if !left && !right {
			penalty += IsolatedPawnPenalty * float64(count)
		}
	}
	return penalty
}
