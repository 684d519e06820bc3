// Package mcts implements the two-ply bounded Monte Carlo search tree that
// drives gen_move: a root expansion, a second ply of children, rollout
// scoring at the leaves, and minimax-style score propagation back to the
// root.
//
// Grounded on engine/mcts.h and engine/mcts.cc from the reference
// implementation.
package mcts

import (
	"fmt"
	"sync"

	"gongtp/board"
	"gongtp/scorer"
)

// NodeState tracks a node's progress through scoring.
type NodeState int

const (
	// StateNew is a freshly created node, not yet submitted for scoring.
	StateNew NodeState = iota
	// StateScoring is a node whose scorer call is in flight. A node must
	// not be submitted for scoring twice.
	StateScoring
	// StateScored is a node whose scorer call succeeded.
	StateScored
	// StateFailed is a node whose scorer call failed.
	StateFailed
)

// Node is one position in the search tree: an owned, already-legal board
// state, its scoring progress, its children by move, and per-color win
// counts accumulated from its descendants.
type Node struct {
	mu sync.Mutex

	state    NodeState
	Parent   *Node
	Depth    int
	Board    *board.Board
	Children map[board.Position]*Node
	Policy   scorer.Policy
	Value    scorer.Value

	// WinCount indexes by board.Black/board.White; only meaningful after
	// CollectRolloutResults.
	WinCount [2]int
}

func winIndex(c board.Color) int {
	if c == board.Black {
		return 0
	}
	return 1
}

// NewNode creates a node wrapping b, owned by parent (nil for the root).
func NewNode(b *board.Board, parent *Node) *Node {
	depth := 0
	if parent != nil {
		depth = parent.Depth + 1
	}
	return &Node{
		state:    StateNew,
		Parent:   parent,
		Depth:    depth,
		Board:    b,
		Children: make(map[board.Position]*Node),
	}
}

// State returns the node's current scoring state.
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// BeginScoring transitions NEW -> SCORING, returning false if the node was
// already scored, scoring, or failed — callers must not submit a node for
// scoring twice.
func (n *Node) BeginScoring() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateNew {
		return false
	}
	n.state = StateScoring
	return true
}

// FinishScoring transitions SCORING -> SCORED or SCORING -> FAILED and
// records the scorer's output.
func (n *Node) FinishScoring(ok bool, policy scorer.Policy, value scorer.Value) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ok {
		n.state = StateScored
		n.Policy = policy
		n.Value = value
	} else {
		n.state = StateFailed
	}
}

// IsLeaf reports whether this node terminates the search: scoring failed,
// there are no candidate moves, or the current player should resign here.
// Must only be called once scoring has completed (state != NEW/SCORING).
func (n *Node) IsLeaf() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateFailed {
		return true
	}
	if len(n.Policy) == 0 {
		return true
	}
	return n.Value.ShouldResign
}

// ShouldPass reports whether the node's scoring failed or produced no
// candidate moves.
func (n *Node) ShouldPass() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state == StateFailed || len(n.Policy) == 0
}

// ShouldResign reports whether the node was scored and its scored value
// calls for resignation.
func (n *Node) ShouldResign() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state == StateScored && n.Value.ShouldResign
}

// Score returns the node's current value score, safe for concurrent reads
// alongside SetScore.
func (n *Node) Score() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Value.Score
}

// SetScore overwrites the node's score, used by the minimax value
// adjustment and leaf placeholder step.
func (n *Node) SetScore(score float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Value.Score = score
}

// CollectRolloutResults recursively tallies per-color win counts from this
// node's descendants. A childless node contributes exactly one win: for
// black if the current player at this node is the winner and that player is
// black, or symmetrically for white. "The current player wins" unless the
// node calls for the current player to resign.
func (n *Node) CollectRolloutResults() {
	if len(n.Children) == 0 {
		currentPlayerWins := !n.ShouldResign()
		winner := n.Board.CurrentPlayer()
		if !currentPlayerWins {
			winner = winner.Opponent()
		}
		n.WinCount[winIndex(winner)] = 1
		return
	}
	for _, child := range n.Children {
		child.CollectRolloutResults()
		n.WinCount[0] += child.WinCount[0]
		n.WinCount[1] += child.WinCount[1]
	}
}

// String renders a one-line summary for logging and test failures, in the
// same key=value shape as the reference's MctsNode::DebugString.
func (n *Node) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fmt.Sprintf("state=%d depth=%d #children=%d wins=%d,%d score=%s",
		n.state, n.Depth, len(n.Children), n.WinCount[0], n.WinCount[1], n.Value)
}
