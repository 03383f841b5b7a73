/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// DefaultMinVisible is the minimum visible share (percent) kept on each axis.
const DefaultMinVisible = 1.0

// Insets are percentage trims of an image's edges, each in [0, 100].
type Insets struct {
	Top, Right, Bottom, Left float64
}

// CropEdge names the edge a crop handle moves.
type CropEdge string

const (
	CropTop    CropEdge = "top"
	CropRight  CropEdge = "right"
	CropBottom CropEdge = "bottom"
	CropLeft   CropEdge = "left"
)

// Valid reports whether e is one of the four edges.
func (e CropEdge) Valid() bool {
	switch e {
	case CropTop, CropRight, CropBottom, CropLeft:
		return true
	}
	return false
}

// ApplyCropDelta moves one crop edge by deltaPx along its axis, where a
// positive delta points right (left/right edges) or down (top/bottom edges)
// in the element's local frame. dimensionPx is the element's extent along
// that axis. The moved edge absorbs any violation of
// opposite+moved ≤ 100−minVisible; only when that is impossible is the
// correction split between both edges. A degenerate dimension leaves the
// axis untouched.
func ApplyCropDelta(start Insets, edge CropEdge, deltaPx, dimensionPx, minVisible float64) Insets {
	out := clampInsets(start)
	if !edge.Valid() || !Finite(deltaPx, dimensionPx) || dimensionPx <= 0 {
		return out
	}
	limit := 100 - clamp(minVisible, 0, 100)
	pct := deltaPx / dimensionPx * 100
	switch edge {
	case CropLeft:
		out.Left = clamp(out.Left+pct, 0, 100)
		fitPair(&out.Left, &out.Right, limit)
	case CropRight:
		out.Right = clamp(out.Right-pct, 0, 100)
		fitPair(&out.Right, &out.Left, limit)
	case CropTop:
		out.Top = clamp(out.Top+pct, 0, 100)
		fitPair(&out.Top, &out.Bottom, limit)
	case CropBottom:
		out.Bottom = clamp(out.Bottom-pct, 0, 100)
		fitPair(&out.Bottom, &out.Top, limit)
	}
	return out
}

func fitPair(moved, opposite *float64, limit float64) {
	excess := *moved + *opposite - limit
	if excess <= 0 {
		return
	}
	if *moved-excess >= 0 {
		*moved -= excess
		return
	}
	half := excess / 2
	*moved -= half
	*opposite -= half
	if *moved < 0 {
		*opposite += *moved
		*moved = 0
	}
	if *opposite < 0 {
		*moved += *opposite
		*opposite = 0
	}
}

func clampInsets(in Insets) Insets {
	fix := func(v float64) float64 {
		if !Finite(v) {
			return 0
		}
		return clamp(v, 0, 100)
	}
	return Insets{Top: fix(in.Top), Right: fix(in.Right), Bottom: fix(in.Bottom), Left: fix(in.Left)}
}
