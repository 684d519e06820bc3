package board

import "fmt"

// Territory is the heuristic territory estimate: counts sum to width*height.
type Territory struct {
	Unknown, Black, White int
}

// Board holds stones, chains, ko, the forbidden set, the feature tensor, and
// the territory estimate for a single game in progress. It is not safe for
// concurrent use; callers must serialize Move calls externally (spec §5).
type Board struct {
	width, height int
	currentPlayer Color

	stones map[Position]Color
	chains map[Position]chainID
	table  map[chainID]*chain
	nextID chainID

	ko        Position
	forbidden map[Position]struct{}

	features  *FeatureSet
	territory Territory
}

// New creates an empty width x height board with Black to move.
func New(width, height int) *Board {
	if width <= 0 || height <= 0 {
		panic("board: width and height must be positive")
	}
	b := &Board{
		width:         width,
		height:        height,
		currentPlayer: Black,
		stones:        make(map[Position]Color),
		chains:        make(map[Position]chainID),
		table:         make(map[chainID]*chain),
		nextID:        1,
		ko:            NoPosition,
		forbidden:     make(map[Position]struct{}),
		features:      NewFeatureSet(width, height),
	}
	b.territory = Territory{Unknown: width * height}
	b.updateFeatureSet()
	return b
}

// NewFromSetup creates a board pre-populated with stones, bypassing move
// legality the way an SGF record's AB/AW setup properties do (spec §6). The
// chain graph is rebuilt from scratch via flood fill over the placed stones;
// callers must ensure the configuration contains no already-dead chains. ko
// and forbidden are computed fresh; toMove becomes the current player.
func NewFromSetup(width, height int, black, white []Position, toMove Color) *Board {
	b := New(width, height)
	for _, p := range black {
		b.stones[p] = Black
	}
	for _, p := range white {
		b.stones[p] = White
	}
	b.rebuildChains()
	b.currentPlayer = toMove
	b.ko = NoPosition
	b.updateForbidden()
	b.updateFeatureSet()
	return b
}

// rebuildChains discards the chain table and reconstructs it from the
// stones map via flood fill. Used only by NewFromSetup, where stones are
// placed directly rather than incrementally via Move.
func (b *Board) rebuildChains() {
	b.table = make(map[chainID]*chain)
	b.chains = make(map[Position]chainID)
	b.nextID = 1
	visited := make(map[Position]bool, len(b.stones))
	for p, color := range b.stones {
		if color == None || visited[p] {
			continue
		}
		id := b.nextID
		b.nextID++
		c := newChain(id, color)
		stack := []Position{p}
		visited[p] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.stones = append(c.stones, cur)
			b.chains[cur] = chainID(id)
			for _, n := range b.neighbors(cur) {
				switch b.stones[n] {
				case None:
					c.addLiberty(n)
				case color:
					if !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}
		b.table[chainID(id)] = c
	}
}

// Width and Height report the immutable board dimensions.
func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// CurrentPlayer is whose turn it is to move.
func (b *Board) CurrentPlayer() Color { return b.currentPlayer }

// Features returns the current player's feature tensor. Callers must not
// mutate it; Clone it if an independent copy is needed.
func (b *Board) Features() *FeatureSet { return b.features }

// ApproxTerritory returns the most recently computed heuristic estimate.
func (b *Board) ApproxTerritory() Territory { return b.territory }

// Snapshot is a JSON-serializable view of a board's state, for pushing to a
// connected diagnostics client. Stones is row-major from y=0 (bottom row
// first), matching FeatureSet's indexing.
type Snapshot struct {
	Width, Height int
	CurrentPlayer Color
	Stones        []Color
	Territory     Territory
}

// Snapshot captures the board's current state for diagnostics.
func (b *Board) Snapshot() Snapshot {
	stones := make([]Color, b.width*b.height)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			stones[y*b.width+x] = b.stones[Position{X: x, Y: y}]
		}
	}
	return Snapshot{
		Width:         b.width,
		Height:        b.height,
		CurrentPlayer: b.currentPlayer,
		Stones:        stones,
		Territory:     b.territory,
	}
}

// Clone returns an independent deep copy of the board.
func (b *Board) Clone() *Board {
	cp := &Board{
		width:         b.width,
		height:        b.height,
		currentPlayer: b.currentPlayer,
		stones:        make(map[Position]Color, len(b.stones)),
		chains:        make(map[Position]chainID, len(b.chains)),
		table:         make(map[chainID]*chain, len(b.table)),
		nextID:        b.nextID,
		ko:            b.ko,
		forbidden:     make(map[Position]struct{}, len(b.forbidden)),
		features:      b.features.Clone(),
		territory:     b.territory,
	}
	for p, c := range b.stones {
		cp.stones[p] = c
	}
	for p, id := range b.chains {
		cp.chains[p] = id
	}
	for id, c := range b.table {
		cp.table[id] = c.clone()
	}
	for p := range b.forbidden {
		cp.forbidden[p] = struct{}{}
	}
	return cp
}

// Encode maps an in-bounds position to an index in [0, width*height).
func (b *Board) Encode(p Position) int {
	if !b.inBounds(p) {
		panic(fmt.Sprintf("board: encode out of bounds: %v", p))
	}
	return p.Y*b.width + p.X
}

// Decode is the inverse of Encode.
func (b *Board) Decode(idx int) Position {
	p := Position{X: idx % b.width, Y: idx / b.width}
	if !b.inBounds(p) {
		panic(fmt.Sprintf("board: decode out of bounds: %d", idx))
	}
	return p
}

func (b *Board) inBounds(p Position) bool {
	return p.X >= 0 && p.X < b.width && p.Y >= 0 && p.Y < b.height
}

// GetStone returns the color at a board position (None if empty).
func (b *Board) GetStone(p Position) Color {
	return b.stones[p]
}

// ChainInfo is a read-only snapshot of a chain, returned by GetChain.
type ChainInfo struct {
	Color     Color
	Stones    []Position
	Liberties []Position
}

// GetChain returns the chain occupying p, or ok=false if p is empty or
// out of bounds.
func (b *Board) GetChain(p Position) (info ChainInfo, ok bool) {
	if !b.inBounds(p) {
		return ChainInfo{}, false
	}
	id, present := b.chains[p]
	if !present || id == noChain {
		return ChainInfo{}, false
	}
	c, present := b.table[id]
	if !present {
		panic("board: chain-id map points to a missing chain record")
	}
	libs := make([]Position, 0, len(c.liberties))
	for l := range c.liberties {
		libs = append(libs, l)
	}
	return ChainInfo{Color: c.color, Stones: append([]Position(nil), c.stones...), Liberties: libs}, true
}

func (b *Board) neighbors(p Position) []Position {
	deltas := [4]Position{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
	out := make([]Position, 0, 4)
	for _, d := range deltas {
		n := Position{X: p.X + d.X, Y: p.Y + d.Y}
		if b.inBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

func (b *Board) chainAt(p Position) *chain {
	id, ok := b.chains[p]
	if !ok || id == noChain {
		return nil
	}
	c, ok := b.table[id]
	if !ok {
		panic("board: chain-id map points to a missing chain record")
	}
	return c
}

// IsLegal reports whether move is legal for the current player. Pass and
// Resign are always legal; otherwise the position must be in bounds, empty,
// not the ko point, and not in the forbidden (suicide) set.
func (b *Board) IsLegal(move Position) bool {
	if move.IsPass() || move.IsResign() {
		return true
	}
	if !b.inBounds(move) {
		return false
	}
	if b.stones[move] != None {
		return false
	}
	if b.ko != NoPosition && move == b.ko {
		return false
	}
	if _, forbidden := b.forbidden[move]; forbidden {
		return false
	}
	return true
}

// Move applies move for the current player. It returns ok=false and leaves
// the board unmutated if the move is illegal. estimateTerritory controls
// whether the (slower) flood-fill territory estimate is recomputed;
// otherwise a placing move zeroes the estimate and a pass leaves it as it was.
func (b *Board) Move(move Position, estimateTerritory bool) (ok bool, captured []Position) {
	if !b.IsLegal(move) {
		return false, nil
	}
	if move.IsResign() {
		return true, nil
	}
	if move.IsPass() {
		b.currentPlayer = b.currentPlayer.Opponent()
		b.updateForbidden()
		b.updateFeatureSet()
		if estimateTerritory {
			b.estimateTerritory()
		}
		// A pass clears ko: the recapture restriction lasts only until the
		// next move of either kind (see DESIGN.md open question #2).
		b.ko = NoPosition
		return true, nil
	}

	player := b.currentPlayer
	opponent := player.Opponent()

	var emptyNeighbors []Position
	sameColor := map[chainID]*chain{}
	oppColor := map[chainID]*chain{}
	for _, n := range b.neighbors(move) {
		switch b.stones[n] {
		case None:
			emptyNeighbors = append(emptyNeighbors, n)
		case player:
			c := b.chainAt(n)
			sameColor[c.id] = c
		case opponent:
			c := b.chainAt(n)
			oppColor[c.id] = c
		}
	}

	// Place the stone; chain id is assigned below.
	b.stones[move] = player
	b.chains[move] = noChain

	// Capture phase: remove any opponent chain whose only liberty was this move.
	captured = nil
	for _, c := range oppColor {
		if c.numLiberties() == 1 && c.firstLiberty() == move {
			captured = append(captured, b.removeChain(c)...)
		} else {
			c.removeLiberty(move)
		}
	}

	// Placement phase: merge same-color neighbors, or create a new chain.
	var placed *chain
	if len(sameColor) == 0 {
		placed = b.newChain(player, move, emptyNeighbors)
	} else {
		placed = b.mergeChains(move, emptyNeighbors, sameColor)
	}

	// Liberty repair: every captured stone is now an empty point; any chain
	// still adjacent to it gains it back as a liberty.
	for _, dead := range captured {
		for _, n := range b.neighbors(dead) {
			if c := b.chainAt(n); c != nil {
				c.addLiberty(dead)
			}
		}
	}

	// Ko detection: exactly one stone captured, and the new chain's only
	// liberty is the point just captured.
	b.ko = NoPosition
	if len(captured) == 1 && placed.numLiberties() == 1 && placed.firstLiberty() == captured[0] {
		b.ko = captured[0]
	}

	b.currentPlayer = opponent
	b.updateForbidden()
	b.updateFeatureSet()
	if estimateTerritory {
		b.estimateTerritory()
	} else {
		b.territory = Territory{}
	}
	return true, captured
}

func (b *Board) removeChain(c *chain) (dead []Position) {
	dead = append(dead, c.stones...)
	for _, p := range c.stones {
		b.stones[p] = None
		delete(b.chains, p)
	}
	delete(b.table, c.id)
	return dead
}

func (b *Board) newChain(color Color, stone Position, liberties []Position) *chain {
	id := b.nextID
	b.nextID++
	c := newChain(id, color)
	c.stones = append(c.stones, stone)
	for _, l := range liberties {
		c.addLiberty(l)
	}
	b.chains[stone] = id
	b.table[id] = c
	return c
}

func (b *Board) mergeChains(joint Position, liberties []Position, neighbors map[chainID]*chain) *chain {
	var merged *chain
	for _, c := range neighbors {
		if merged == nil {
			merged = c
			continue
		}
		for _, stone := range c.stones {
			b.chains[stone] = merged.id
			merged.stones = append(merged.stones, stone)
		}
		for l := range c.liberties {
			merged.addLiberty(l)
		}
		delete(b.table, c.id)
	}
	merged.stones = append(merged.stones, joint)
	b.chains[joint] = merged.id
	merged.removeLiberty(joint)
	for _, l := range liberties {
		merged.addLiberty(l)
	}
	return merged
}

// updateForbidden recomputes the suicide/forbidden set for the current
// player from scratch. A position x is forbidden iff it is the sole liberty
// of some current-player chain, and placing there would neither extend that
// chain's liberties, capture an adjacent single-liberty opponent chain, nor
// merge into another current-player chain that would still have a liberty
// left afterward.
func (b *Board) updateForbidden() {
	b.forbidden = make(map[Position]struct{})
	for _, c := range b.table {
		if c.color != b.currentPlayer {
			continue
		}
		if c.numLiberties() >= 2 {
			continue
		}
		only := c.firstLiberty()
		isForbidden := true
		for _, n := range b.neighbors(only) {
			stoneColor := b.stones[n]
			if stoneColor == None {
				isForbidden = false
				break
			}
			nc := b.chainAt(n)
			if nc == c {
				continue
			}
			if nc.color != b.currentPlayer && nc.numLiberties() == 1 {
				isForbidden = false
				break
			}
			if nc.color == b.currentPlayer && nc.numLiberties() >= 2 {
				isForbidden = false
				break
			}
		}
		if isForbidden {
			b.forbidden[only] = struct{}{}
		}
	}
}

// updateFeatureSet recomputes the seven feature planes for the current
// player's viewpoint.
func (b *Board) updateFeatureSet() {
	b.features.Reset()
	flip := b.currentPlayer == White
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			p := Position{X: x, Y: y}
			var value float32
			switch b.stones[p] {
			case Black:
				if flip {
					value = -1
				} else {
					value = 1
				}
			case White:
				if flip {
					value = 1
				} else {
					value = -1
				}
			}
			b.features.Set(PlaneOrig, x, y, value)
		}
	}

	for _, c := range b.table {
		if c.numLiberties() > 3 {
			continue
		}
		plane := c.numLiberties() // 1,2,3 -> PlaneB1..B3 offsets
		if c.color != b.currentPlayer {
			plane += 3
		}
		for _, stone := range c.stones {
			b.features.Set(plane, stone.X, stone.Y, 1)
		}
	}
}

// estimateTerritory runs the heuristic: for fewer than 11 total stones,
// territory is simply the stone counts plus all empty space as unknown.
// Otherwise each maximal empty region is flood-filled and attributed to
// whichever single color borders it, or to "unknown" if both (or neither) do.
func (b *Board) estimateTerritory() {
	var black, white int
	for _, c := range b.stones {
		switch c {
		case Black:
			black++
		case White:
			white++
		}
	}

	if black+white < 11 {
		b.territory = Territory{
			Unknown: b.width*b.height - black - white,
			Black:   black,
			White:   white,
		}
		return
	}

	visited := make(map[Position]bool, b.width*b.height)
	var unknownArea int

	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			start := Position{X: x, Y: y}
			if visited[start] || b.stones[start] != None {
				continue
			}
			region, touchesBlack, touchesWhite := b.floodFill(start, visited)
			switch {
			case touchesBlack && !touchesWhite:
				black += region
			case touchesWhite && !touchesBlack:
				white += region
			default:
				unknownArea += region
			}
		}
	}

	b.territory = Territory{Unknown: unknownArea, Black: black, White: white}
}

func (b *Board) floodFill(start Position, visited map[Position]bool) (size int, touchesBlack, touchesWhite bool) {
	stack := []Position{start}
	visited[start] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		for _, n := range b.neighbors(p) {
			switch b.stones[n] {
			case None:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			case Black:
				touchesBlack = true
			case White:
				touchesWhite = true
			}
		}
	}
	return
}

// String renders a human-readable board, for debug logging and test failures.
func (b *Board) String() string {
	s := fmt.Sprintf("%dx%d board, %s to move, ko=%v\n", b.width, b.height, b.currentPlayer, b.ko)
	for y := b.height - 1; y >= 0; y-- {
		for x := 0; x < b.width; x++ {
			switch b.stones[Position{X: x, Y: y}] {
			case Black:
				s += "X "
			case White:
				s += "O "
			default:
				s += ". "
			}
		}
		s += "\n"
	}
	return s
}
