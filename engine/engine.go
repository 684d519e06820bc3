// Package engine holds the game-state layer a GTP session drives: it owns
// the current board, wires a scorer to either a one-shot Simple policy or a
// full Mcts search policy, and exposes the handful of operations the gtp
// package's Engine interface expects. Grounded on engine/go_engine.h/.cc's
// GoEngine/SimpleEngine/MctsEngine split.
package engine

import (
	"log"

	"gongtp/board"
	"gongtp/mcts"
	"gongtp/scorer"
)

// Policy selects how GenMove picks a move once the board state is current.
type Policy interface {
	GenMove(b *board.Board) board.Position
}

// Engine is the GTP-facing game-state holder. It is not safe for concurrent
// use; the gtp.Run loop drives it from a single goroutine, matching the
// reference's single-threaded command dispatch.
type Engine struct {
	board  *board.Board
	komi   float64
	policy Policy
}

// New builds an Engine with the given board size and move-selection policy.
func New(boardSize int, policy Policy) *Engine {
	return &Engine{
		board:  board.New(boardSize, boardSize),
		policy: policy,
	}
}

// SetBoardSize replaces the board with a fresh one of the given size,
// clearing all game state. Returns false for sizes GTP can't encode.
func (e *Engine) SetBoardSize(size int) bool {
	if size <= 0 || size > 25 {
		return false
	}
	e.board = board.New(size, size)
	return true
}

// ClearBoard resets the board to empty at its current size.
func (e *Engine) ClearBoard() {
	e.board = board.New(e.board.Width(), e.board.Height())
}

// SetKomi records komi. The scoring model never consults it directly (see
// SimpleEvaluate in the scorer package), mirroring the reference's own
// GoEngine::SetKomi, which logs and does nothing else.
func (e *Engine) SetKomi(komi float64) {
	e.komi = komi
}

// Play applies an opponent or recorded move for player. Returns false
// without mutating the board if it isn't player's turn or the move is
// illegal.
func (e *Engine) Play(player board.Color, pos board.Position) bool {
	if player != e.board.CurrentPlayer() {
		log.Printf("engine: not %v's turn", player)
		return false
	}
	ok, captured := e.board.Move(pos, true)
	if !ok {
		return false
	}
	log.Printf("engine: %v plays %v, captures %v", player, pos, captured)
	return true
}

// GenMove asks the configured policy for a move on behalf of player,
// applies it, and returns it. A caller requesting a move out of turn gets
// Resign, matching the reference's defensive check in
// SimpleEngine::GenMove/MctsEngine::GenMove.
func (e *Engine) GenMove(player board.Color) board.Position {
	if player != e.board.CurrentPlayer() {
		log.Printf("engine: GenMove called out of turn for %v", player)
		return board.Resign
	}

	move := e.policy.GenMove(e.board)
	ok, captured := e.board.Move(move, true)
	if !ok {
		log.Printf("engine: policy chose illegal move %v, passing instead", move)
		e.board.Move(board.Pass, true)
		return board.Pass
	}
	log.Printf("engine: %v plays %v, captures %v", player, move, captured)
	return move
}

// Board exposes the current board read-only, for diagnostics.
func (e *Engine) Board() *board.Board { return e.board }

// statsProvider is implemented by policies that expose search diagnostics;
// SimplePolicy does not, since it runs no search tree to report on.
type statsProvider interface {
	Stats() string
}

// Stats reports the configured policy's diagnostics, or "" if it has none
// to offer.
func (e *Engine) Stats() string {
	if sp, ok := e.policy.(statsProvider); ok {
		return sp.Stats()
	}
	return ""
}

// SimplePolicy scores the board once with its Scorer and samples a move
// from the resulting policy, or resigns/passes per the value result.
// Grounded on SimpleEngine::GenMove.
type SimplePolicy struct {
	Scorer scorer.Scorer
}

// GenMove implements Policy.
func (p SimplePolicy) GenMove(b *board.Board) board.Position {
	ok, policy, value := scorer.ScoreSync(p.Scorer, b)
	if !ok {
		log.Println("engine: scoring failed, passing")
		return board.Pass
	}
	if value.ShouldResign {
		return board.Resign
	}
	if len(policy) == 0 {
		return board.Pass
	}
	return scorer.SamplePolicy(policy)
}

// MctsPolicy expands a two-ply search tree and plays its top-ranked move.
// Grounded on MctsEngine::GenMove and MonteCarloSearchTree::Search.
type MctsPolicy struct {
	Tree *mcts.Tree
}

// GenMove implements Policy.
func (p MctsPolicy) GenMove(b *board.Board) board.Position {
	result := p.Tree.Search(b)
	if len(result.Moves) == 0 {
		return board.Pass
	}
	return result.Moves[0].Move
}

// Stats reports the search tree's event counters and score-spread
// histogram, for the diagnostics endpoint.
func (p MctsPolicy) Stats() string {
	return p.Tree.Stats().String() + "score_spread: " + p.Tree.ScoreSpread().String()
}
