/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) <= eps }

func TestUnionAll(t *testing.T) {
	b, ok := UnionAll([]Rect{R(10, 10, 20, 20), R(-5, 15, 10, 30)})
	if !ok {
		t.Fatalf("expected union of two rects")
	}
	if b.X != -5 || b.Y != 10 || b.W != 35 || b.H != 35 {
		t.Fatalf("unexpected union: %+v", b)
	}
	if _, ok := UnionAll(nil); ok {
		t.Fatalf("expected empty union to report !ok")
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -90: 270, 725: 5, -720: 0}
	for in, want := range cases {
		if got := NormalizeDegrees(in); !near(got, want) {
			t.Fatalf("NormalizeDegrees(%v)=%v want %v", in, got, want)
		}
	}
	if NormalizeDegrees(math.NaN()) != 0 {
		t.Fatalf("expected NaN to normalize to 0")
	}
	if d := AngleDiff(10, 350); !near(d, 20) {
		t.Fatalf("AngleDiff(10,350)=%v", d)
	}
}

func TestFootprintAndUnrotatedSize(t *testing.T) {
	ew, eh := Footprint(100, 50, 90)
	if !near(ew, 50) || !near(eh, 100) {
		t.Fatalf("footprint at 90°: %v×%v", ew, eh)
	}
	W, H := Footprint(100, 50, 30)
	w, h, ok := UnrotatedSize(W, H, 30)
	if !ok || !near(w, 100) || !near(h, 50) {
		t.Fatalf("recovered %v×%v ok=%v", w, h, ok)
	}
	if _, _, ok := UnrotatedSize(120, 120, 45); ok {
		t.Fatalf("expected 45° to be reported as singular")
	}
	if _, _, ok := UnrotatedSize(120, 120, 135); ok {
		t.Fatalf("expected 135° to be reported as singular")
	}
}

func TestRotatedBoundsMatchesCorners(t *testing.T) {
	r := R(20, 30, 80, 40)
	b := RotatedBounds(r, 33)
	var minX, minY = math.Inf(1), math.Inf(1)
	var maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range Corners(r, 33) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if !near(b.X, minX) || !near(b.Y, minY) || !near(b.X+b.W, maxX) || !near(b.Y+b.H, maxY) {
		t.Fatalf("bounds %+v disagree with corners (%v,%v)-(%v,%v)", b, minX, minY, maxX, maxY)
	}
}

func TestClampMove(t *testing.T) {
	ws := R(0, 0, 800, 600)
	p := ClampMove(Pt{-500, 10}, 100, 50, 0, ws, DefaultMoveOverflow)
	if !near(p.X, -90) || p.Y != 10 {
		t.Fatalf("left clamp: %+v", p)
	}
	p = ClampMove(Pt{900, 700}, 100, 50, 0, ws, DefaultMoveOverflow)
	if !near(p.X, 700) || !near(p.Y, 550) {
		t.Fatalf("far clamp: %+v", p)
	}
	// Rotated 90°: footprint is 50 wide, centred on the element centre.
	p = ClampMove(Pt{750, 300}, 100, 50, 90, ws, DefaultMoveOverflow)
	if !near(p.X, 725) {
		t.Fatalf("rotated clamp: %+v", p)
	}
	p = ClampMove(Pt{-5000, -5000}, 100, 50, 0, Rect{}, DefaultMoveOverflow)
	if p.X != -5000 || p.Y != -5000 {
		t.Fatalf("degenerate workspace must not clamp: %+v", p)
	}
}

func TestResize_BottomRightKeepsPosition(t *testing.T) {
	start := R(10, 10, 50, 50)
	got := Resize(start, 0, HandleSE, 20, 0, ResizeOptions{MinWidth: DefaultMinSize, MinHeight: DefaultMinSize})
	if got.X != 10 || got.Y != 10 || got.W != 70 || got.H != 50 {
		t.Fatalf("unexpected resize: %+v", got)
	}
}

func TestResize_LeftHandleKeepsRightEdge(t *testing.T) {
	start := R(10, 10, 50, 50)
	got := Resize(start, 0, HandleW, -10, 0, ResizeOptions{MinWidth: DefaultMinSize, MinHeight: DefaultMinSize})
	if got.X != 0 || got.W != 60 || got.X+got.W != 60 {
		t.Fatalf("unexpected resize: %+v", got)
	}
}

func TestResize_MinimumSize(t *testing.T) {
	got := Resize(R(0, 0, 50, 50), 0, HandleE, -100, 0, ResizeOptions{MinWidth: DefaultMinSize, MinHeight: DefaultMinSize})
	if got.W != DefaultMinSize || got.X != 0 {
		t.Fatalf("expected width clamped to %v at x=0, got %+v", DefaultMinSize, got)
	}
}

func TestResize_RotatedKeepsOppositeEdgeFixed(t *testing.T) {
	start := R(0, 0, 100, 50)
	opt := ResizeOptions{MinWidth: 1, MinHeight: 1}
	// At 90° clockwise the element's local x axis points down the canvas.
	got := Resize(start, 90, HandleE, 0, 20, opt)
	if !near(got.W, 120) || !near(got.H, 50) {
		t.Fatalf("unexpected size %+v", got)
	}
	anchor := func(r Rect) Pt { return RotatePoint(Pt{r.X, r.Y + r.H/2}, r.Center(), 90) }
	a0, a1 := anchor(start), anchor(got)
	if !near(a0.X, a1.X) || !near(a0.Y, a1.Y) {
		t.Fatalf("opposite edge moved from %+v to %+v", a0, a1)
	}
}

func TestResize_KeepAspectOnCorner(t *testing.T) {
	got := Resize(R(0, 0, 100, 50), 0, HandleSE, 100, 0, ResizeOptions{KeepAspect: true})
	if got.W != 200 || got.H != 100 {
		t.Fatalf("expected aspect kept, got %+v", got)
	}
}

func TestResize_NonFiniteDeltaKeepsStart(t *testing.T) {
	start := R(1, 2, 3, 4)
	if got := Resize(start, 0, HandleSE, math.NaN(), 0, ResizeOptions{}); got != start {
		t.Fatalf("expected start rect, got %+v", got)
	}
	if got := Resize(start, 0, Handle("middle"), 5, 5, ResizeOptions{}); got != start {
		t.Fatalf("expected start rect for unknown handle, got %+v", got)
	}
}

func TestScaleFont(t *testing.T) {
	if f := ScaleFont(16, 100, 150); f != 24 {
		t.Fatalf("expected 24, got %v", f)
	}
	if f := ScaleFont(16, 100, 400); f != 48 {
		t.Fatalf("expected clamp to 3x, got %v", f)
	}
	if f := ScaleFont(16, 100, 20); f != 8 {
		t.Fatalf("expected clamp to 0.5x, got %v", f)
	}
}

func TestRotationFromPointer(t *testing.T) {
	pivot := Pt{0, 0}
	if r := RotationFromPointer(pivot, Pt{10, 0}, Pt{0, 10}, 0, 0); !near(r, 90) {
		t.Fatalf("expected 90, got %v", r)
	}
	if r := RotationFromPointer(pivot, Pt{10, 0}, Pt{0, -10}, 0, 0); !near(r, 270) {
		t.Fatalf("expected 270, got %v", r)
	}
	if r := RotationFromPointer(pivot, Pt{10, 0}, Pt{10, 1}, 0, 15); r != 0 {
		t.Fatalf("expected snap to 0, got %v", r)
	}
	if r := RotationFromPointer(pivot, pivot, Pt{10, 1}, 30, 0); r != 30 {
		t.Fatalf("pointer on pivot must keep initial rotation, got %v", r)
	}
}

func TestApplyCropDelta_LeftInward(t *testing.T) {
	got := ApplyCropDelta(Insets{}, CropLeft, 20, 200, DefaultMinVisible)
	if !near(got.Left, 10) || got.Right != 0 || got.Top != 0 || got.Bottom != 0 {
		t.Fatalf("unexpected insets %+v", got)
	}
	if got.Left+got.Right > 100-DefaultMinVisible {
		t.Fatalf("horizontal total too large: %+v", got)
	}
}

func TestApplyCropDelta_MovedEdgeAbsorbs(t *testing.T) {
	got := ApplyCropDelta(Insets{Left: 60, Right: 39}, CropLeft, 5, 100, 1)
	if got.Left != 60 || got.Right != 39 {
		t.Fatalf("expected moved edge to absorb the excess, got %+v", got)
	}
	got = ApplyCropDelta(Insets{Right: 100}, CropLeft, 0, 100, 1)
	if got.Left != 0 || !near(got.Right, 99) {
		t.Fatalf("expected split correction, got %+v", got)
	}
}

func TestApplyCropDelta_DegenerateDimension(t *testing.T) {
	start := Insets{Top: 5}
	if got := ApplyCropDelta(start, CropTop, 10, 0, 1); got != start {
		t.Fatalf("zero dimension must skip the axis, got %+v", got)
	}
	if got := ApplyCropDelta(start, CropTop, math.Inf(1), 100, 1); got != start {
		t.Fatalf("infinite delta must skip the axis, got %+v", got)
	}
}

func TestApplyCropDelta_RandomSequencesStayValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	edges := []CropEdge{CropTop, CropRight, CropBottom, CropLeft}
	in := Insets{}
	for i := 0; i < 5000; i++ {
		e := edges[rng.Intn(len(edges))]
		in = ApplyCropDelta(in, e, rng.Float64()*600-300, 1+rng.Float64()*400, DefaultMinVisible)
		for _, v := range []float64{in.Top, in.Right, in.Bottom, in.Left} {
			if v < 0 || v > 100 {
				t.Fatalf("step %d: inset out of range: %+v", i, in)
			}
		}
		if in.Left+in.Right > 100-DefaultMinVisible+1e-9 || in.Top+in.Bottom > 100-DefaultMinVisible+1e-9 {
			t.Fatalf("step %d: totals exceed limit: %+v", i, in)
		}
	}
}

func TestScaleGroup(t *testing.T) {
	kids := []ChildFrame{{ID: "a", Position: Pt{50, 25}, Width: 20, Height: 10, FontSize: 12, Offset: Pt{50, 25}}}
	out := ScaleGroup(R(0, 0, 100, 50), R(10, 10, 200, 100), kids)
	c := out[0]
	if c.Offset != (Pt{100, 50}) || c.Position != (Pt{110, 60}) {
		t.Fatalf("unexpected placement %+v", c)
	}
	if c.Width != 40 || c.Height != 20 || c.FontSize != 24 {
		t.Fatalf("unexpected size/font %+v", c)
	}
	if kids[0].Width != 20 {
		t.Fatalf("input must not be modified")
	}
	if sx, sy := ScaleFactors(R(0, 0, 0, 10), R(0, 0, 50, 20)); sx != 1 || sy != 2 {
		t.Fatalf("degenerate axis must yield 1, got %v,%v", sx, sy)
	}
}

func TestRotateGroup(t *testing.T) {
	center := Pt{50, 50}
	kids := []ChildFrame{{ID: "a", Position: Pt{90, 45}, Width: 20, Height: 10, Rotation: 10}}
	out := RotateGroup(center, 90, Pt{0, 0}, kids)
	if !near(out[0].Position.X, 40) || !near(out[0].Position.Y, 95) {
		t.Fatalf("unexpected position %+v", out[0].Position)
	}
	if !near(out[0].Rotation, 100) || out[0].Offset != out[0].Position {
		t.Fatalf("unexpected rotation/offset %+v", out[0])
	}
}

func TestRotateGroup_RoundTrip(t *testing.T) {
	center := Pt{120, 80}
	kids := []ChildFrame{
		{ID: "a", Position: Pt{100, 60}, Width: 30, Height: 20, Rotation: 5},
		{ID: "b", Position: Pt{140, 90}, Width: 10, Height: 40, Rotation: 350},
	}
	back := RotateGroup(center, -37.5, Pt{}, RotateGroup(center, 37.5, Pt{}, kids))
	for i := range kids {
		if !near(back[i].Position.X, kids[i].Position.X) || !near(back[i].Position.Y, kids[i].Position.Y) {
			t.Fatalf("%s position drifted: %+v vs %+v", kids[i].ID, back[i].Position, kids[i].Position)
		}
		if math.Abs(AngleDiff(back[i].Rotation, kids[i].Rotation)) > eps {
			t.Fatalf("%s rotation drifted: %v vs %v", kids[i].ID, back[i].Rotation, kids[i].Rotation)
		}
	}
}

func TestTranslateGroupIsExact(t *testing.T) {
	kids := []ChildFrame{{ID: "a", Offset: Pt{0, 0}}, {ID: "b", Offset: Pt{30, 0}}}
	out := TranslateGroup(Pt{15, 15}, kids)
	if out[0].Position != (Pt{15, 15}) || out[1].Position != (Pt{45, 15}) {
		t.Fatalf("unexpected positions %+v", out)
	}
}

func TestSnapMove(t *testing.T) {
	anchor := Anchor{Rect: R(0, 0, 200, 100), Weight: 1}
	off, guides := SnapMove(R(3, 4, 80, 40), []Anchor{anchor}, SnapOptions{Threshold: 6, Edges: true})
	if off != (Pt{-3, -4}) {
		t.Fatalf("expected offset (-3,-4), got %+v", off)
	}
	if len(guides) != 2 {
		t.Fatalf("expected two guides, got %d", len(guides))
	}
	off, guides = SnapMove(R(48, 27, 100, 50), []Anchor{anchor}, SnapOptions{Threshold: 5, Centers: true})
	if off != (Pt{2, -2}) || len(guides) != 2 || guides[0].Kind != "center" {
		t.Fatalf("unexpected centre snap %+v %+v", off, guides)
	}
	off, guides = SnapMove(R(50, 50, 10, 10), []Anchor{anchor}, SnapOptions{Threshold: 2, Edges: true})
	if off != (Pt{}) || len(guides) != 0 {
		t.Fatalf("expected no snap, got %+v %+v", off, guides)
	}
}

func TestSnapMoveComparesWeightedDistances(t *testing.T) {
	heavy := Anchor{Rect: R(104, 500, 1000, 10), Weight: 4}
	light := Anchor{Rect: R(97, 500, 1, 10), Weight: 1}
	off, guides := SnapMove(R(100, 0, 10, 10), []Anchor{heavy, light}, SnapOptions{Threshold: 5, Edges: true})
	if off != (Pt{4, 0}) || len(guides) != 1 {
		t.Fatalf("heavier anchor must win, got %+v %+v", off, guides)
	}
}
