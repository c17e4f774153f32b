// Package game adapts github.com/notnil/chess into the rules-engine surface
// the bots search over: validated positions, terminal status, legal moves
// and attack maps.
package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// ErrInvalidPosition is returned for positions that must never be searched.
var ErrInvalidPosition = errors.New("invalid position")

// Status is the terminal state of a position.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	DrawByRule
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawByRule:
		return "draw"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further search is possible from the position.
func (s Status) Terminal() bool {
	return s != Ongoing
}

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParsePosition decodes a FEN string and rejects positions that are not
// reachable under the rules.
func ParsePosition(fen string) (pos *chess.Position, err error) {
	// The rules engine assumes both kings exist while loading a FEN.
	defer func() {
		if r := recover(); r != nil {
			pos, err = nil, fmt.Errorf("%w: %v", ErrInvalidPosition, r)
		}
	}()
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	pos = chess.NewGame(opt).Position()
	if err := Validate(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Validate checks the invariants the search relies on: one king per side,
// no pawns on the back ranks and the side that just moved not left in check.
func Validate(pos *chess.Position) error {
	if pos == nil {
		return fmt.Errorf("%w: nil position", ErrInvalidPosition)
	}
	board := pos.Board()
	kings := map[chess.Color]int{}
	for sq, p := range board.SquareMap() {
		switch p.Type() {
		case chess.King:
			kings[p.Color()]++
		case chess.Pawn:
			if r := sq.Rank(); r == chess.Rank1 || r == chess.Rank8 {
				return fmt.Errorf("%w: pawn on %s", ErrInvalidPosition, sq)
			}
		}
	}
	if kings[chess.White] != 1 || kings[chess.Black] != 1 {
		return fmt.Errorf("%w: want one king per side, got white=%d black=%d",
			ErrInvalidPosition, kings[chess.White], kings[chess.Black])
	}
	if InCheck(pos, pos.Turn().Other()) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}
	return nil
}

// StartingPosition returns a fresh copy of the initial position.
func StartingPosition() *chess.Position {
	return chess.StartingPosition()
}

// SideToMove returns the colour that moves next.
func SideToMove(pos *chess.Position) chess.Color {
	return pos.Turn()
}

// LegalMoves enumerates the legal moves in the rules engine's order.
func LegalMoves(pos *chess.Position) []*chess.Move {
	return pos.ValidMoves()
}

// Apply returns the position after m; pos itself is left untouched.
func Apply(pos *chess.Position, m *chess.Move) *chess.Position {
	return pos.Update(m)
}

// StatusOf classifies the position. Repetition draws need game history
// and are left to the caller.
func StatusOf(pos *chess.Position) Status {
	switch pos.Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	}
	if InsufficientMaterial(pos) || HalfMoveClock(pos) >= 100 {
		return DrawByRule
	}
	return Ongoing
}

// HalfMoveClock reads the fifty-move counter from the FEN encoding.
func HalfMoveClock(pos *chess.Position) int {
	return fenField(pos, 4)
}

// FullMoveNumber reads the move number from the FEN encoding.
func FullMoveNumber(pos *chess.Position) int {
	return fenField(pos, 5)
}

func fenField(pos *chess.Position, i int) int {
	fields := strings.Fields(pos.String())
	if len(fields) <= i {
		return 0
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0
	}
	return n
}

// Key identifies a position independently of its move counters, so that
// transpositions share one key.
func Key(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// SameMove compares moves structurally.
func SameMove(a, b *chess.Move) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.S1() == b.S1() && a.S2() == b.S2() && a.Promo() == b.Promo()
}

// FindLegal maps m, possibly produced against another position object, onto
// the matching legal move of pos.
func FindLegal(pos *chess.Position, m *chess.Move) (*chess.Move, bool) {
	if m == nil {
		return nil, false
	}
	for _, lm := range pos.ValidMoves() {
		if SameMove(lm, m) {
			return lm, true
		}
	}
	return nil, false
}

// ParseMove decodes a move in UCI notation and checks it is legal in pos.
func ParseMove(pos *chess.Position, s string) (*chess.Move, error) {
	m, err := chess.UCINotation{}.Decode(pos, s)
	if err != nil {
		return nil, err
	}
	lm, ok := FindLegal(pos, m)
	if !ok {
		return nil, fmt.Errorf("illegal move %q", s)
	}
	return lm, nil
}

// MoveString encodes m in UCI notation.
func MoveString(pos *chess.Position, m *chess.Move) string {
	if m == nil {
		return "(none)"
	}
	return chess.UCINotation{}.Encode(pos, m)
}

// PieceCount counts every piece on the board, kings included.
func PieceCount(pos *chess.Position) int {
	return len(pos.Board().SquareMap())
}

// InsufficientMaterial reports dead positions: bare kings, a single minor
// piece, or bishops confined to one square colour.
func InsufficientMaterial(pos *chess.Position) bool {
	var minors, bishopsLight, bishopsDark int
	for sq, p := range pos.Board().SquareMap() {
		switch p.Type() {
		case chess.King:
		case chess.Knight:
			minors++
		case chess.Bishop:
			minors++
			if (int(sq.File())+int(sq.Rank()))%2 == 0 {
				bishopsDark++
			} else {
				bishopsLight++
			}
		default:
			return false
		}
	}
	if minors <= 1 {
		return true
	}
	// Only bishops left, all on one colour complex.
	return minors == bishopsDark+bishopsLight && (bishopsDark == 0 || bishopsLight == 0)
}

// Mirror swaps colours and flips the board vertically: the mirrored
// position is the same game seen from the other side.
func Mirror(pos *chess.Position) (*chess.Position, error) {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: short fen %q", ErrInvalidPosition, pos.String())
	}
	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	fields[0] = swapCase(strings.Join(ranks, "/"))
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if fields[2] != "-" {
		castle := swapCase(fields[2])
		var out strings.Builder
		for _, c := range "KQkq" {
			if strings.ContainsRune(castle, c) {
				out.WriteRune(c)
			}
		}
		fields[2] = out.String()
	}
	if ep := fields[3]; ep != "-" && len(ep) == 2 {
		rank := byte('9' - (ep[1] - '0'))
		fields[3] = string([]byte{ep[0], rank})
	}
	return ParsePosition(strings.Join(fields, " "))
}

// PassTurn returns pos with the other side to move and no en passant
// square, as if the side to move had passed.
func PassTurn(pos *chess.Position) (*chess.Position, error) {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: short fen %q", ErrInvalidPosition, pos.String())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}
