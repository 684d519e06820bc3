package scorer

import (
	"gongtp/batcher"
	"gongtp/board"
)

// topKSize is the number of highest-scoring legal moves a Model scorer keeps
// from a policy network's raw per-cell output.
const topKSize = 20

// Model is a Scorer backed by a neural network accessed through an
// InferenceBatcher: it extracts the board's FeatureSet, submits it for
// batched inference, and converts the raw per-cell policy output into a
// Policy over legal moves only. Grounded on TfScorer::ScoreGoState in
// engine/scorer.cc.
type Model struct {
	batcher *batcher.InferenceBatcher
}

// NewModel builds a Model scorer dispatching through b.
func NewModel(b *batcher.InferenceBatcher) *Model {
	return &Model{batcher: b}
}

// ScoreAsync implements Scorer.
func (m *Model) ScoreAsync(b *board.Board, cb Callback) {
	fastEval := SimpleEvaluate(b)
	m.batcher.Add(b.Features(), func(ok bool, out batcher.Output) {
		if !ok {
			cb(false, nil, fastEval)
			return
		}
		policy := convertToPolicy(b, out.Policy)
		value := CombineValue(float64(out.Value), fastEval)
		cb(true, policy, value)
	})
}

// convertToPolicy keeps the top-K legal-move entries from a raw per-cell
// policy output and renormalizes them.
func convertToPolicy(b *board.Board, raw []float32) Policy {
	var policy Policy
	for i, prob := range raw {
		pos := b.Decode(i)
		if b.IsLegal(pos) {
			policy = append(policy, Candidate{Move: pos, Prob: float64(prob)})
		}
	}
	policy = topK(policy, topKSize)
	normalize(policy)
	return policy
}
