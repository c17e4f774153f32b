package bots

import (
	"math"
	"math/rand"

	"chessGo/game"

	"github.com/notnil/chess"
)

// mctsNode is one visited position. A node owns its children; parent is a
// back-reference only and is nil at the root.
//
// total accumulates results in [0, 1] for the player who moved into the
// node, so total/visits is the win rate its parent maximises.
type mctsNode struct {
	pos      *chess.Position
	parent   *mctsNode
	move     *chess.Move
	children []*mctsNode
	untried  []*chess.Move
	visits   int
	total    float64
}

func newRootNode(pos *chess.Position) *mctsNode {
	// The root always offers its legal moves, even in a position drawn by
	// rule, because the caller still wants a move.
	return &mctsNode{pos: pos, untried: ownMoves(pos)}
}

func newChildNode(parent *mctsNode, move *chess.Move) *mctsNode {
	pos := parent.pos.Update(move)
	node := &mctsNode{pos: pos, parent: parent, move: move}
	if game.StatusOf(pos) == game.Ongoing {
		node.untried = ownMoves(pos)
	}
	return node
}

// ownMoves copies the legal moves so that expansion can reorder them
// without touching the slice cached on the position.
func ownMoves(pos *chess.Position) []*chess.Move {
	return append([]*chess.Move(nil), pos.ValidMoves()...)
}

// fullyExpanded nodes are descended through during selection.
func (n *mctsNode) fullyExpanded() bool {
	return len(n.untried) == 0 && len(n.children) > 0
}

func (n *mctsNode) terminal() bool {
	return len(n.untried) == 0 && len(n.children) == 0
}

func (n *mctsNode) winRate() float64 {
	return n.total / float64(max(n.visits, 1))
}

// ucb1 is infinite for unvisited nodes so that every child is tried once
// before any is exploited.
func (n *mctsNode) ucb1(c float64) float64 {
	if n.visits == 0 || n.parent == nil {
		return math.Inf(1)
	}
	return n.winRate() + c*math.Sqrt(math.Log(float64(n.parent.visits))/float64(n.visits))
}

// selectChild returns the child with the highest UCB1, the first one on
// ties.
func (n *mctsNode) selectChild(c float64) *mctsNode {
	var best *mctsNode
	bestValue := math.Inf(-1)
	for _, child := range n.children {
		if v := child.ucb1(c); best == nil || v > bestValue {
			best, bestValue = child, v
		}
	}
	return best
}

// expand consumes one untried move chosen with rng and attaches the child.
func (n *mctsNode) expand(rng *rand.Rand) *mctsNode {
	if len(n.untried) == 0 {
		return nil
	}
	i := rng.Intn(len(n.untried))
	move := n.untried[i]
	last := len(n.untried) - 1
	n.untried[i] = n.untried[last]
	n.untried = n.untried[:last]

	child := newChildNode(n, move)
	n.children = append(n.children, child)
	return child
}

func (n *mctsNode) update(result float64) {
	n.visits++
	n.total += result
}

// child finds the child reached by move.
func (n *mctsNode) child(move *chess.Move) *mctsNode {
	for _, c := range n.children {
		if game.SameMove(c.move, move) {
			return c
		}
	}
	return nil
}

// mostVisited is the robust final choice: visit counts, not win rates.
// Ties keep the first expanded child.
func (n *mctsNode) mostVisited() *mctsNode {
	var best *mctsNode
	for _, c := range n.children {
		if c.visits > 0 && (best == nil || c.visits > best.visits) {
			best = c
		}
	}
	return best
}

func (n *mctsNode) size() int {
	s := 1
	for _, c := range n.children {
		s += c.size()
	}
	return s
}
