// Package sgf implements a minimal, line-oriented reader for the subset of
// SGF (Smart Game Format) this engine needs to replay a recorded game: board
// size, black/white setup stones, and a move sequence. It is deliberately
// not a full SGF grammar — no game trees, variations, or comment/markup
// properties — matching how the reference engine only ever reads these
// fields out of a parsed GameRecord (see engine/sgf_utils.cc's PresetStones
// and ReplayGame) rather than round-tripping the format.
package sgf

import (
	"fmt"
	"regexp"
	"strconv"

	"gongtp/board"
)

// Move is one recorded ply: a color, and either a position or a pass.
type Move struct {
	Color  board.Color
	Pos    board.Position
	IsPass bool
}

// GameRecord is the parsed contents of one SGF game tree (no variations).
type GameRecord struct {
	Width, Height int
	Black, White  []board.Position
	Moves         []Move
	// Result is the recorded outcome; positive favors black, per the
	// reference's convention.
	Result float64
}

var (
	sizeRe  = regexp.MustCompile(`SZ\[(\d+)\]`)
	resRe   = regexp.MustCompile(`RE\[([^\]]*)\]`)
	stoneRe = regexp.MustCompile(`(AB|AW)((?:\[[a-z]{0,2}\])+)`)
	moveRe  = regexp.MustCompile(`;([BW])\[([a-z]{0,2})\]`)
	coordRe = regexp.MustCompile(`\[([a-z]{0,2})\]`)
)

// decodeCoord parses a two-letter SGF coordinate ("ab") into a board
// position. An empty coordinate ("") means pass.
func decodeCoord(s string) (board.Position, bool) {
	if s == "" {
		return board.Pass, true
	}
	if len(s) != 2 {
		return board.NoPosition, false
	}
	x := int(s[0] - 'a')
	y := int(s[1] - 'a')
	return board.Position{X: x, Y: y}, true
}

// Parse extracts a GameRecord from raw SGF text. It scans for SZ, AB, AW,
// RE, and ;B[]/;W[] tokens anywhere in the text rather than enforcing a
// strict grammar, which is sufficient for a single-game-tree SGF file with
// no variations.
func Parse(sgfText string) (*GameRecord, error) {
	gr := &GameRecord{Width: 19, Height: 19}

	if m := sizeRe.FindStringSubmatch(sgfText); m != nil {
		size, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("sgf: bad SZ value %q: %w", m[1], err)
		}
		gr.Width, gr.Height = size, size
	}

	if m := resRe.FindStringSubmatch(sgfText); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			gr.Result = v
		}
	}

	for _, m := range stoneRe.FindAllStringSubmatch(sgfText, -1) {
		coords := coordRe.FindAllStringSubmatch(m[2], -1)
		positions := make([]board.Position, 0, len(coords))
		for _, c := range coords {
			pos, ok := decodeCoord(c[1])
			if !ok || pos.IsPass() {
				return nil, fmt.Errorf("sgf: bad setup-stone coordinate %q", c[1])
			}
			positions = append(positions, pos)
		}
		if m[1] == "AB" {
			gr.Black = append(gr.Black, positions...)
		} else {
			gr.White = append(gr.White, positions...)
		}
	}

	for _, m := range moveRe.FindAllStringSubmatch(sgfText, -1) {
		color := board.Black
		if m[1] == "W" {
			color = board.White
		}
		pos, ok := decodeCoord(m[2])
		if !ok {
			return nil, fmt.Errorf("sgf: bad move coordinate %q", m[2])
		}
		gr.Moves = append(gr.Moves, Move{Color: color, Pos: pos, IsPass: pos.IsPass()})
	}

	return gr, nil
}

// ReplayInto builds a board from gr's setup stones and replays every
// recorded move, inserting an automatic pass whenever the recorded move's
// color doesn't match the board's current player — SGF games alternate
// colors implicitly and don't record passes needed purely to resync turn
// order after setup. Returns an error on the first illegal move, naming its
// 1-based step number.
func ReplayInto(gr *GameRecord) (*board.Board, error) {
	if gr.Width <= 0 || gr.Width >= 27 || gr.Height <= 0 || gr.Height >= 27 {
		return nil, fmt.Errorf("sgf: bad board size %dx%d", gr.Width, gr.Height)
	}
	b := board.NewFromSetup(gr.Width, gr.Height, gr.Black, gr.White, board.Black)

	for i, m := range gr.Moves {
		if b.CurrentPlayer() != m.Color {
			b.Move(board.Pass, false)
		}
		move := m.Pos
		if m.IsPass {
			move = board.Pass
		}
		if ok, _ := b.Move(move, false); !ok {
			return nil, fmt.Errorf("sgf: illegal move #%d: %v", i+1, move)
		}
	}
	return b, nil
}
