package scorer

import (
	"gongtp/board"
	"gongtp/pool"
)

// Heuristic is a trivial Scorer used mainly for testing and as the
// simple_scorer fallback: a uniform policy over every legal non-pass move,
// plus SimpleEvaluate for its value. It dispatches its callback through a
// worker pool so its async contract matches the model-backed scorer's,
// rather than calling back inline. Grounded on SimpleScorer::ScoreGoState
// in engine/scorer.cc, whose GetScorerThreadPool dispatch this mirrors.
type Heuristic struct {
	pool *pool.Pool
}

// NewHeuristic builds a Heuristic that dispatches callbacks on pool p.
func NewHeuristic(p *pool.Pool) *Heuristic {
	return &Heuristic{pool: p}
}

// ScoreAsync implements Scorer.
func (h *Heuristic) ScoreAsync(b *board.Board, cb Callback) {
	var policy Policy
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			p := board.Position{X: x, Y: y}
			if b.IsLegal(p) {
				policy = append(policy, Candidate{Move: p, Prob: 1.0})
			}
		}
	}
	normalize(policy)
	value := SimpleEvaluate(b)

	h.pool.Submit(func() {
		cb(true, policy, value)
	})
}
