/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package measure derives the on-screen extent of blocks. Stored sizes are
// unreliable for auto-sized text and cropped images, so grouping and
// exporting go through a Measurer instead of reading Block.Size directly.
package measure

import (
	"math"
	"strings"

	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
)

const defaultLineHeight = 1.2

// Measurer returns the unrotated frame size of a block.
type Measurer interface {
	Measure(b domain.Block) domain.Size
}

// Geometric measures from stored geometry only. Auto-sized text is estimated
// from character count with a fixed advance of CharWidth × font size.
type Geometric struct {
	CharWidth float64 // share of the font size per character, default 0.6
}

func (g Geometric) Measure(b domain.Block) domain.Size {
	if b.Size != nil {
		return *b.Size
	}
	if b.Text == nil {
		return domain.Size{}
	}
	cw := g.CharWidth
	if cw <= 0 {
		cw = 0.6
	}
	fs := b.Text.FontSize
	lines := strings.Split(b.Text.Content, "\n")
	w := 0.0
	for _, l := range lines {
		w = math.Max(w, float64(len([]rune(l)))*fs*cw)
	}
	return domain.Size{Width: w, Height: float64(len(lines)) * fs * lineHeight(b.Text)}
}

func lineHeight(t *domain.TextProps) float64 {
	if t.LineHeight > 0 {
		return t.LineHeight
	}
	return defaultLineHeight
}

// Frame returns the block's unrotated frame in canvas coordinates.
func Frame(m Measurer, b domain.Block) geometry.Rect {
	sz := m.Measure(b)
	return geometry.R(b.Position.X, b.Position.Y, sz.Width, sz.Height)
}

// Visible returns the frame trimmed by the block's crop insets.
func Visible(m Measurer, b domain.Block) geometry.Rect {
	r := Frame(m, b)
	if b.Crop == nil {
		return r
	}
	c := b.Crop
	l, rt := r.W*c.Left/100, r.W*c.Right/100
	t, bt := r.H*c.Top/100, r.H*c.Bottom/100
	return geometry.R(r.X+l, r.Y+t, math.Max(0, r.W-l-rt), math.Max(0, r.H-t-bt))
}

// Bounds returns the axis-aligned on-screen box of the visible part of b,
// rotated about the centre of its frame.
func Bounds(m Measurer, b domain.Block) geometry.Rect {
	frame := Frame(m, b)
	vis := Visible(m, b)
	if b.Rotation == 0 {
		return vis
	}
	c := frame.Center()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4]geometry.Pt{vis.Min(), {X: vis.X + vis.W, Y: vis.Y}, vis.Max(), {X: vis.X, Y: vis.Y + vis.H}} {
		q := geometry.RotatePoint(p, c, b.Rotation)
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	return geometry.R(minX, minY, maxX-minX, maxY-minY)
}

// UnionBounds returns the combined on-screen box of blocks.
func UnionBounds(m Measurer, blocks []domain.Block) (geometry.Rect, bool) {
	rs := make([]geometry.Rect, 0, len(blocks))
	for _, b := range blocks {
		rs = append(rs, Bounds(m, b))
	}
	return geometry.UnionAll(rs)
}
