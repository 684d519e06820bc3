package board

import (
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func posSet(ps []Position) map[Position]bool {
	m := make(map[Position]bool, len(ps))
	for _, p := range ps {
		m[p] = true
	}
	return m
}

func sortedPositions(ps []Position) []Position {
	out := append([]Position(nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// s1Board builds the 5x5 scenario S1 starting position from spec §8.
func s1Board() *Board {
	black := []Position{
		{0, 4}, {3, 4},
		{1, 3}, {2, 3}, {4, 3},
		{0, 1}, {2, 1}, {3, 1},
		{1, 0},
	}
	white := []Position{
		{2, 4},
		{0, 3}, {3, 3},
		{1, 2}, {3, 2},
		{1, 1}, {4, 1},
		{2, 0}, {3, 0},
	}
	return NewFromSetup(5, 5, black, white, Black)
}

func TestScenarioS1Capture(t *testing.T) {
	Convey("Given the S1 starting position", t, func() {
		b := s1Board()

		Convey("Black plays (4,0) and captures the two-stone white chain", func() {
			ok, captured := b.Move(Position{4, 0}, false)
			So(ok, ShouldBeTrue)
			So(posSet(captured), ShouldResemble, posSet([]Position{{2, 0}, {3, 0}}))
			So(b.GetStone(Position{2, 0}), ShouldEqual, None)
			So(b.GetStone(Position{3, 0}), ShouldEqual, None)
			So(b.CurrentPlayer(), ShouldEqual, White)

			Convey("White recaptures at (3,0), taking the lone black stone at (4,0)", func() {
				ok, captured := b.Move(Position{3, 0}, false)
				So(ok, ShouldBeTrue)
				So(captured, ShouldResemble, []Position{{4, 0}})
				So(b.GetStone(Position{4, 0}), ShouldEqual, None)
				So(b.CurrentPlayer(), ShouldEqual, Black)
			})
		})
	})
}

func TestScenarioS2Suicide(t *testing.T) {
	Convey("Given S1 after Black (4,0) and White (3,0)", t, func() {
		b := s1Board()
		b.Move(Position{4, 0}, false)
		b.Move(Position{3, 0}, false)

		Convey("Black plays (2,2)", func() {
			ok, _ := b.Move(Position{2, 2}, false)
			So(ok, ShouldBeTrue)

			Convey("White (0,2) is rejected as suicide", func() {
				So(b.IsLegal(Position{0, 2}), ShouldBeFalse)
				ok, _ := b.Move(Position{0, 2}, false)
				So(ok, ShouldBeFalse)
			})

			Convey("Black's stone at (2,2) is unaffected and the rejected move left no mutation", func() {
				before := b.String()
				b.Move(Position{0, 2}, false) // rejected, must not mutate
				So(b.String(), ShouldEqual, before)
			})
		})
	})
}

func TestScenarioS4NewChainZeroLibertyCapture(t *testing.T) {
	Convey("Given the S1 starting position", t, func() {
		b := s1Board()
		ok, _ := b.Move(Position{4, 2}, false)
		So(ok, ShouldBeTrue)
		ok, _ = b.Move(Position{0, 2}, false)
		So(ok, ShouldBeTrue)

		Convey("Black (4,0) captures the two white chains sharing that liberty", func() {
			ok, captured := b.Move(Position{4, 0}, false)
			So(ok, ShouldBeTrue)
			want := posSet([]Position{{2, 0}, {3, 0}, {4, 1}})
			So(posSet(captured), ShouldResemble, want)
			So(b.GetStone(Position{4, 0}), ShouldEqual, Black)
		})
	})
}

func TestScenarioS3Ko(t *testing.T) {
	Convey("Given S1 after Black (4,0), White (3,0), Black (2,2)", t, func() {
		b := s1Board()
		b.Move(Position{4, 0}, false)
		b.Move(Position{3, 0}, false)
		b.Move(Position{2, 2}, false)

		Convey("White plays (4,4), capturing (3,4)", func() {
			ok, captured := b.Move(Position{4, 4}, false)
			So(ok, ShouldBeTrue)
			So(captured, ShouldResemble, []Position{{3, 4}})

			Convey("Black cannot immediately recapture at (3,4)", func() {
				So(b.IsLegal(Position{3, 4}), ShouldBeFalse)
			})

			Convey("passing then returning clears the ko restriction at (3,4)", func() {
				b.Move(Pass, false) // Black passes
				So(b.CurrentPlayer(), ShouldEqual, White)
				b.Move(Pass, false) // White passes
				So(b.IsLegal(Position{3, 4}), ShouldBeTrue)
			})
		})
	})
}

func TestInvariants(t *testing.T) {
	Convey("For every reachable board state", t, func() {
		b := New(9, 9)
		moves := []Position{{2, 2}, {3, 3}, {2, 3}, {3, 2}, {4, 4}, {5, 5}}
		for _, m := range moves {
			b.Move(m, true)
		}

		Convey("stone counts plus empties equal width*height", func() {
			occupied := 0
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					if b.GetStone(Position{x, y}) != None {
						occupied++
					}
				}
			}
			So(occupied, ShouldEqual, len(moves))
		})

		Convey("every occupied position's chain contains that position with matching color", func() {
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					p := Position{x, y}
					color := b.GetStone(p)
					if color == None {
						continue
					}
					info, ok := b.GetChain(p)
					So(ok, ShouldBeTrue)
					So(info.Color, ShouldEqual, color)
					found := false
					for _, s := range info.Stones {
						if s == p {
							found = true
						}
					}
					So(found, ShouldBeTrue)
				}
			}
		})

		Convey("every chain has at least one liberty, and every liberty is empty", func() {
			seen := map[Position]bool{}
			for y := 0; y < b.Height(); y++ {
				for x := 0; x < b.Width(); x++ {
					p := Position{x, y}
					if b.GetStone(p) == None || seen[p] {
						continue
					}
					info, _ := b.GetChain(p)
					for _, s := range info.Stones {
						seen[s] = true
					}
					So(len(info.Liberties), ShouldBeGreaterThan, 0)
					for _, lib := range info.Liberties {
						So(b.GetStone(lib), ShouldEqual, None)
					}
				}
			}
		})

		Convey("approx_territory sums to width*height", func() {
			t := b.ApproxTerritory()
			So(t.Unknown+t.Black+t.White, ShouldEqual, b.Width()*b.Height())
		})

		Convey("clone then apply a move preserves the original", func() {
			before := b.String()
			clone := b.Clone()
			clone.Move(Position{0, 0}, true)
			So(b.String(), ShouldEqual, before)
			So(clone.String(), ShouldNotEqual, before)
		})
	})
}

func TestFeatureOrigPlane(t *testing.T) {
	Convey("Given a board with a few stones placed", t, func() {
		b := New(5, 5)
		b.Move(Position{1, 1}, false) // black
		b.Move(Position{2, 2}, false) // white

		Convey("orig is +1 for the current player's stones and -1 for the opponent's", func() {
			// Black to move now (black placed, then white placed)
			fs := b.Features()
			idxBlack := 1*b.Width() + 1
			idxWhite := 2*b.Width() + 2
			idxEmpty := 0*b.Width() + 0
			// current player is black (flip=false)
			So(fs.Plane(PlaneOrig)[idxBlack], ShouldEqual, float32(1))
			So(fs.Plane(PlaneOrig)[idxWhite], ShouldEqual, float32(-1))
			So(fs.Plane(PlaneOrig)[idxEmpty], ShouldEqual, float32(0))
		})
	})
}

func TestTwoPointEyeNeverForbidden(t *testing.T) {
	Convey("A two-point eye surrounded by one color is never forbidden for that color", t, func() {
		// Black forms a ring around a 1x2 eye at (1,1) and (2,1) on a 4x3 board.
		black := []Position{
			{0, 0}, {1, 0}, {2, 0}, {3, 0},
			{0, 1}, {3, 1},
			{0, 2}, {1, 2}, {2, 2}, {3, 2},
		}
		b := NewFromSetup(4, 3, black, nil, Black)
		So(b.IsLegal(Position{1, 1}), ShouldBeTrue)
		So(b.IsLegal(Position{2, 1}), ShouldBeTrue)
	})
}

func TestSingleStoneSelfCaptureForbidden(t *testing.T) {
	Convey("A fully surrounded empty point is forbidden as self-capture", t, func() {
		// White stones surround (1,1) on a 3x3 board; black has no stone there,
		// so white playing into its own eye at (1,1) would be suicide.
		white := []Position{
			{0, 0}, {1, 0}, {2, 0},
			{0, 1}, {2, 1},
			{0, 2}, {1, 2}, {2, 2},
		}
		b := NewFromSetup(3, 3, nil, white, White)
		So(b.IsLegal(Position{1, 1}), ShouldBeFalse)
	})
}

func TestRoundTripSameMoveSequence(t *testing.T) {
	Convey("Cloning then applying the same move sequence yields identical derived state", t, func() {
		b1 := New(7, 7)
		b2 := New(7, 7)
		moves := []Position{{3, 3}, {3, 4}, {4, 3}, {4, 4}, {2, 2}, Pass, {5, 5}}
		for _, m := range moves {
			b1.Move(m, true)
			b2.Move(m, true)
		}
		So(b1.String(), ShouldEqual, b2.String())
		So(b1.ApproxTerritory(), ShouldResemble, b2.ApproxTerritory())
	})
}

func TestIllegalMoveDoesNotMutate(t *testing.T) {
	Convey("Out-of-bounds and occupied moves fail without mutation", t, func() {
		b := New(5, 5)
		b.Move(Position{0, 0}, false)
		before := b.String()

		ok, captured := b.Move(Position{-1, 0}, false)
		So(ok, ShouldBeFalse)
		So(captured, ShouldBeNil)
		So(b.String(), ShouldEqual, before)

		ok, captured = b.Move(Position{0, 0}, false)
		So(ok, ShouldBeFalse)
		So(captured, ShouldBeNil)
		So(b.String(), ShouldEqual, before)
	})
}

func TestBoundaryLibertyCounts(t *testing.T) {
	Convey("Corner, edge, and center placements have correct liberty counts", t, func() {
		b := New(5, 5)
		b.Move(Position{0, 0}, false) // corner: 2 liberties
		info, ok := b.GetChain(Position{0, 0})
		So(ok, ShouldBeTrue)
		So(len(info.Liberties), ShouldEqual, 2)

		b.Move(Position{2, 0}, false) // edge: 3 liberties
		info, ok = b.GetChain(Position{2, 0})
		So(ok, ShouldBeTrue)
		So(len(info.Liberties), ShouldEqual, 3)

		b.Move(Position{2, 2}, false) // center: 4 liberties
		info, ok = b.GetChain(Position{2, 2})
		So(ok, ShouldBeTrue)
		So(len(info.Liberties), ShouldEqual, 4)
	})
}

func TestSnapshotReflectsCurrentState(t *testing.T) {
	Convey("Given a board with one stone placed", t, func() {
		b := New(3, 3)
		ok, _ := b.Move(Position{1, 1}, false)
		So(ok, ShouldBeTrue)

		snap := b.Snapshot()

		Convey("dimensions, current player, and the stone grid are reported", func() {
			So(snap.Width, ShouldEqual, 3)
			So(snap.Height, ShouldEqual, 3)
			So(snap.CurrentPlayer, ShouldEqual, White)
			So(len(snap.Stones), ShouldEqual, 9)
			So(snap.Stones[1*3+1], ShouldEqual, Black)
			So(snap.Stones[0], ShouldEqual, None)
		})
	})
}

var _ = sortedPositions
