package mcts

import (
	"sort"

	channerics "github.com/niceyeti/channerics/channels"

	"gongtp/board"
	"gongtp/scorer"
	"gongtp/stats"
)

// Result is the ranked outcome of one Search: candidate root moves (Move +
// selection score, reusing scorer.Candidate's shape) sorted best-first, and
// the total rollout count behind the ranking.
type Result struct {
	Moves       []scorer.Candidate
	NumRollouts int
}

// Tree runs one bounded two-ply search per Search call, scoring nodes
// through s and logging progress counters. Each Search builds a fresh node
// tree rooted at a clone of the board; only the event counters and the
// score-spread histogram carry over from one call to the next.
type Tree struct {
	scorer      scorer.Scorer
	stats       *stats.Counters
	scoreSpread *stats.Histogram
}

// New builds a search tree scoring nodes with s.
func New(s scorer.Scorer) *Tree {
	return &Tree{
		scorer:      s,
		stats:       stats.NewCounters(),
		scoreSpread: stats.NewHistogram(0, 1, 10),
	}
}

// Stats exposes the tree's event counters, mainly for diagnostics.
func (t *Tree) Stats() *stats.Counters { return t.stats }

// ScoreSpread buckets every ranked root move's final score across every
// Search call this tree has run, for diagnosing whether a search session is
// producing decisive (spread-out) or noisy (bunched-near-0.5) rankings.
func (t *Tree) ScoreSpread() *stats.Histogram { return t.scoreSpread }

// Search clones b as the tree root, expands two plies through the scorer,
// scores the resulting leaves, and ranks the root's candidate moves by a
// two-ply minimax adjustment of their scores.
func (t *Tree) Search(b *board.Board) Result {
	root := NewNode(b.Clone(), nil)
	t.syncScoreNode(root)
	if root.ShouldPass() {
		return Result{Moves: []scorer.Candidate{{Move: board.Pass}}}
	}
	if root.ShouldResign() {
		return Result{Moves: []scorer.Candidate{{Move: board.Resign}}}
	}

	// Ply 1: expand and score every root child concurrently, fanning the
	// per-worker completion signals back in through a single merged channel
	// rather than a WaitGroup (the same channerics.Merge fan-in shape
	// reinforcement/learning.go's agent_worker pool uses).
	done := make(chan struct{})
	defer close(done)
	childDone := make([]<-chan struct{}, 0, len(root.Children))
	for _, child := range root.Children {
		child := child
		ch := make(chan struct{}, 1)
		go func() {
			t.syncScoreNode(child)
			ch <- struct{}{}
			close(ch)
		}()
		childDone = append(childDone, ch)
	}
	for range channerics.Merge(done, childDone...) {
	}

	var rolloutPoints []*Node
	for _, child := range root.Children {
		for _, grandchild := range child.Children {
			rolloutPoints = append(rolloutPoints, grandchild)
		}
	}
	t.stats.LogEvent("rollout_points")

	// Score every leaf concurrently, merged the same way.
	leafDone := make([]<-chan struct{}, 0, len(rolloutPoints))
	for _, n := range rolloutPoints {
		n := n
		ch := make(chan struct{}, 1)
		go func() {
			defer func() { ch <- struct{}{}; close(ch) }()
			if !n.BeginScoring() {
				return
			}
			ok, policy, value := scorer.ScoreSync(t.scorer, n.Board)
			n.FinishScoring(ok, policy, value)
			if !ok {
				t.stats.LogEvent("scorer_failed")
			}
		}()
		leafDone = append(leafDone, ch)
	}
	for range channerics.Merge(done, leafDone...) {
	}

	root.CollectRolloutResults()

	// Value adjustment: leaves get the placeholder score 1 (see
	// DESIGN.md's open-question entry on this — it is preserved literally
	// rather than "fixed", matching the reference's own acknowledged bug).
	// Non-leaf rollout points get the share of their collected wins that
	// went to the player to move there (0.5 when they collected none).
	for _, n := range rolloutPoints {
		if n.IsLeaf() {
			n.SetScore(1)
			continue
		}
		total := n.WinCount[0] + n.WinCount[1]
		probBlackWins := 0.5
		if total > 0 {
			probBlackWins = float64(n.WinCount[0]) / float64(total)
		} else {
			t.stats.LogEvent("zero_rollout_node")
		}
		if n.Board.CurrentPlayer() == board.Black {
			n.SetScore(probBlackWins)
		} else {
			n.SetScore(1 - probBlackWins)
		}
	}

	result := Result{NumRollouts: root.WinCount[0] + root.WinCount[1]}
	for move, child := range root.Children {
		maxChildScore := -1.0
		for _, grandchild := range child.Children {
			if s := grandchild.Score(); s > maxChildScore {
				maxChildScore = s
			}
		}
		child.SetScore(1 - maxChildScore)
		t.scoreSpread.Count(child.Score())
		result.Moves = append(result.Moves, scorer.Candidate{Move: move, Prob: child.Score()})
	}
	sort.Slice(result.Moves, func(i, j int) bool {
		return result.Moves[i].Prob > result.Moves[j].Prob
	})

	return result
}

// syncScoreNode scores n and, unless it's a leaf, materializes a child for
// every candidate move the scorer returned that is still legal on n's
// board. A move the scorer names but which fails legality is logged and
// skipped rather than treated as an error.
func (t *Tree) syncScoreNode(n *Node) {
	if !n.BeginScoring() {
		return
	}
	ok, policy, value := scorer.ScoreSync(t.scorer, n.Board)
	n.FinishScoring(ok, policy, value)
	t.stats.LogEvent("nodes_scored")
	if !ok {
		t.stats.LogEvent("scorer_failed")
	}
	if n.IsLeaf() {
		return
	}

	for _, cand := range n.Policy {
		childBoard := n.Board.Clone()
		if ok, _ := childBoard.Move(cand.Move, true); !ok {
			t.stats.LogEvent("scorer_returned_illegal_move")
			continue
		}
		n.Children[cand.Move] = NewNode(childBoard, n)
	}
}
