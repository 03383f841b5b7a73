/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// ChildFrame is the transform-relevant state of one group member.
// FontSize is zero for non-text members.
type ChildFrame struct {
	ID       string
	Position Pt
	Width    float64
	Height   float64
	Rotation float64
	FontSize float64
	Offset   Pt
}

func (c ChildFrame) center() Pt {
	return Pt{c.Position.X + c.Width/2, c.Position.Y + c.Height/2}
}

// ScaleFactors returns the per-axis scale from one group box to another.
// A degenerate source axis yields 1.
func ScaleFactors(from, to Rect) (sx, sy float64) {
	sx, sy = 1, 1
	if from.W > 0 && Finite(to.W) {
		sx = to.W / from.W
	}
	if from.H > 0 && Finite(to.H) {
		sy = to.H / from.H
	}
	return sx, sy
}

// ScaleGroup maps children from the group box start onto next. Offsets and
// sizes scale per axis; fonts scale by the smaller factor. Offsets are the
// stored ones, scaled, never re-derived from positions.
func ScaleGroup(start, next Rect, children []ChildFrame) []ChildFrame {
	sx, sy := ScaleFactors(start, next)
	fs := math.Min(sx, sy)
	out := make([]ChildFrame, len(children))
	for i, c := range children {
		off := c.Offset.Scale(sx, sy)
		c.Offset = off
		c.Position = next.Min().Add(off)
		c.Width *= sx
		c.Height *= sy
		if c.FontSize > 0 {
			c.FontSize *= fs
		}
		out[i] = c
	}
	return out
}

// RotateGroup revolves every child's centre about center by delta degrees,
// adds delta to its own rotation and re-derives its offset from groupPos.
func RotateGroup(center Pt, delta float64, groupPos Pt, children []ChildFrame) []ChildFrame {
	out := make([]ChildFrame, len(children))
	for i, c := range children {
		half := Pt{c.Width / 2, c.Height / 2}
		nc := RotatePoint(c.center(), center, delta)
		c.Position = nc.Sub(half)
		c.Rotation = NormalizeDegrees(c.Rotation + delta)
		c.Offset = c.Position.Sub(groupPos)
		out[i] = c
	}
	return out
}

// TranslateGroup places each child at groupPos plus its stored offset.
func TranslateGroup(groupPos Pt, children []ChildFrame) []ChildFrame {
	out := make([]ChildFrame, len(children))
	for i, c := range children {
		c.Position = groupPos.Add(c.Offset)
		out[i] = c
	}
	return out
}
