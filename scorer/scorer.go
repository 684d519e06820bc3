// Package scorer implements the board-scoring contract MCTS and the simple
// engine depend on: an asynchronous callback interface returning a move
// policy and a value estimate, plus a heuristic and a model-backed
// implementation.
//
// Grounded on engine/scorer.h and engine/scorer.cc from the reference
// implementation.
package scorer

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"gongtp/board"
)

// Candidate pairs a legal move with its probability under a policy.
type Candidate struct {
	Move board.Position
	Prob float64
}

// Policy is an ordered list of candidate moves, summing to 1 when non-empty.
// The Model scorer keeps at most topKSize of them; the Heuristic scorer
// lists every legal move.
type Policy []Candidate

// Value is a scorer's opinion of the position for the player to move:
// whether they should resign outright, and otherwise a score where higher
// favors the current player. SimpleEvaluate's score lies in [-1,1]; the
// Model scorer reports the network's value output unchanged.
type Value struct {
	ShouldResign bool
	Score        float64
}

// String renders a Value for logging and test failures, matching the
// reference's AsyncScorer::DebugString key=value shape.
func (v Value) String() string {
	if v.ShouldResign {
		return "resign"
	}
	return fmt.Sprintf("score=%.4f", v.Score)
}

// String renders a Policy's candidates as "move:prob" pairs, for logging.
func (p Policy) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = fmt.Sprintf("%s:%.3f", c.Move, c.Prob)
	}
	return strings.Join(parts, "; ")
}

// Callback receives the result of one ScoreAsync call. ok is false if
// scoring failed; policy and value are only meaningful when ok is true.
type Callback func(ok bool, policy Policy, value Value)

// Scorer asynchronously evaluates a board for its current player. The
// callback runs exactly once, not necessarily on the caller's goroutine.
type Scorer interface {
	ScoreAsync(b *board.Board, cb Callback)
}

// ScoreSync blocks until a Scorer's callback has run, returning its result
// directly. This is the synchronous wrapper MCTS expansion and the simple
// engine use; it is implemented once here, against the interface, rather
// than duplicated per Scorer implementation — mirroring how the reference's
// AsyncScorer::SyncScoreGoState is a single non-virtual method built on top
// of the virtual ScoreGoState.
func ScoreSync(s Scorer, b *board.Board) (ok bool, policy Policy, value Value) {
	done := make(chan struct{})
	s.ScoreAsync(b, func(cbOk bool, cbPolicy Policy, cbValue Value) {
		ok, policy, value = cbOk, cbPolicy, cbValue
		close(done)
	})
	<-done
	return
}

// SimpleEvaluate scores a board from its territory estimate alone: the margin between
// the current player's approximate points and the opponent's, normalized by
// total board points, plus a crude resignation heuristic for a clearly lost
// game with little territory left unsettled.
func SimpleEvaluate(b *board.Board) Value {
	t := b.ApproxTerritory()
	var current, opponent int
	if b.CurrentPlayer() == board.Black {
		current, opponent = t.Black, t.White
	} else {
		current, opponent = t.White, t.Black
	}
	total := float64(t.Unknown + t.Black + t.White)
	shouldResign := t.Black+t.White > 15 && current+t.Unknown < opponent
	score := float64(current-opponent) / total
	return Value{ShouldResign: shouldResign, Score: score}
}

// CombineValue applies the reference's policy combination rule: a fast
// heuristic resignation call always wins, otherwise the model's value
// output is reported as-is.
func CombineValue(modelScore float64, fastEval Value) Value {
	if fastEval.ShouldResign {
		return fastEval
	}
	return Value{ShouldResign: false, Score: modelScore}
}

// normalize rescales a policy so its probabilities sum to 1. A zero-sum or
// empty policy is left untouched.
func normalize(policy Policy) {
	var sum float64
	for _, c := range policy {
		sum += c.Prob
	}
	if sum <= 0 {
		return
	}
	for i := range policy {
		policy[i].Prob /= sum
	}
}

// topK keeps the k highest-probability candidates, sorted descending.
func topK(policy Policy, k int) Policy {
	sort.Slice(policy, func(i, j int) bool { return policy[i].Prob > policy[j].Prob })
	if len(policy) > k {
		policy = policy[:k]
	}
	return policy
}

// SamplePolicy picks one move from a policy by cumulative-weighted sampling:
// each candidate's share of the cumulative probability mass is its chance of
// being chosen. Panics if policy is empty — callers are expected to have
// already checked ShouldPass.
func SamplePolicy(policy Policy) board.Position {
	if len(policy) == 0 {
		panic("scorer: SamplePolicy called with an empty policy")
	}
	var sum float64
	for _, c := range policy {
		sum += c.Prob
	}
	roll := rand.Float64() * sum
	acc := 0.0
	for _, c := range policy {
		acc += c.Prob
		if acc >= roll {
			return c.Move
		}
	}
	return policy[len(policy)-1].Move
}
