package game

import "github.com/notnil/chess"

// AttackMap has one bit per square, indexed by chess.Square.
type AttackMap uint64

// Has reports whether sq is attacked.
func (a AttackMap) Has(sq chess.Square) bool {
	return a&(1<<uint(sq)) != 0
}

// Count returns the number of attacked squares.
func (a AttackMap) Count() int {
	n := 0
	for x := uint64(a); x != 0; x &= x - 1 {
		n++
	}
	return n
}

func (a *AttackMap) set(file, rank int) {
	*a |= 1 << uint(rank*8+file)
}

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// Attacks returns every square attacked by color's pieces, occupied or not.
// Pins are ignored: a pinned piece still controls its squares.
func Attacks(pos *chess.Position, color chess.Color) AttackMap {
	board := pos.Board()
	var attacks AttackMap
	for sq, p := range board.SquareMap() {
		if p.Color() != color {
			continue
		}
		file, rank := int(sq.File()), int(sq.Rank())
		switch p.Type() {
		case chess.Pawn:
			dir := 1
			if color == chess.Black {
				dir = -1
			}
			for _, df := range [2]int{-1, 1} {
				if onBoard(file+df, rank+dir) {
					attacks.set(file+df, rank+dir)
				}
			}
		case chess.Knight:
			attacks |= steps(file, rank, knightSteps[:])
		case chess.King:
			attacks |= steps(file, rank, kingSteps[:])
		case chess.Bishop:
			attacks |= slides(board, file, rank, bishopDirs[:])
		case chess.Rook:
			attacks |= slides(board, file, rank, rookDirs[:])
		case chess.Queen:
			attacks |= slides(board, file, rank, bishopDirs[:])
			attacks |= slides(board, file, rank, rookDirs[:])
		}
	}
	return attacks
}

func steps(file, rank int, deltas [][2]int) AttackMap {
	var a AttackMap
	for _, d := range deltas {
		if f, r := file+d[0], rank+d[1]; onBoard(f, r) {
			a.set(f, r)
		}
	}
	return a
}

func slides(board *chess.Board, file, rank int, dirs [][2]int) AttackMap {
	var a AttackMap
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for onBoard(f, r) {
			a.set(f, r)
			if board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r))) != chess.NoPiece {
				break
			}
			f, r = f+d[0], r+d[1]
		}
	}
	return a
}

// IsAttacked reports whether byColor attacks sq.
func IsAttacked(pos *chess.Position, sq chess.Square, byColor chess.Color) bool {
	return Attacks(pos, byColor).Has(sq)
}

// KingSquare finds color's king. ok is false when the king is missing.
func KingSquare(pos *chess.Position, color chess.Color) (chess.Square, bool) {
	for sq, p := range pos.Board().SquareMap() {
		if p.Type() == chess.King && p.Color() == color {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

// InCheck reports whether color's king is attacked.
func InCheck(pos *chess.Position, color chess.Color) bool {
	king, ok := KingSquare(pos, color)
	if !ok {
		return false
	}
	return IsAttacked(pos, king, color.Other())
}
