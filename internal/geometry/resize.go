/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Default minimum sizes enforced while resizing.
const (
	DefaultMinSize      = 40.0
	DefaultMinTextWidth = 20.0
	minFontScale        = 0.5
	maxFontScale        = 3.0
)

// Handle names a resize handle on an element's selection frame.
type Handle string

const (
	HandleN  Handle = "top"
	HandleS  Handle = "bottom"
	HandleE  Handle = "right"
	HandleW  Handle = "left"
	HandleNE Handle = "top-right"
	HandleNW Handle = "top-left"
	HandleSE Handle = "bottom-right"
	HandleSW Handle = "bottom-left"
)

// signs returns the direction each axis grows when the handle is dragged
// outward: +1 right/down, -1 left/up, 0 for an axis the handle does not touch.
func (h Handle) signs() (hx, hy float64, ok bool) {
	switch h {
	case HandleN:
		return 0, -1, true
	case HandleS:
		return 0, 1, true
	case HandleE:
		return 1, 0, true
	case HandleW:
		return -1, 0, true
	case HandleNE:
		return 1, -1, true
	case HandleNW:
		return -1, -1, true
	case HandleSE:
		return 1, 1, true
	case HandleSW:
		return -1, 1, true
	}
	return 0, 0, false
}

func (h Handle) Valid() bool {
	_, _, ok := h.signs()
	return ok
}

// IsCorner reports whether the handle moves both axes.
func (h Handle) IsCorner() bool {
	hx, hy, ok := h.signs()
	return ok && hx != 0 && hy != 0
}

// ResizeOptions bound a resize.
type ResizeOptions struct {
	MinWidth   float64
	MinHeight  float64
	KeepAspect bool // corner handles only
}

// Resize computes the new unrotated frame of an element of the given rotation
// when handle h is dragged by the screen delta (dx, dy) from its start frame.
// The delta is projected into the element's local axes and the edge (or
// corner) opposite the handle stays fixed in canvas space.
func Resize(start Rect, deg float64, h Handle, dx, dy float64, opt ResizeOptions) Rect {
	hx, hy, ok := h.signs()
	if !ok || !Finite(dx, dy, start.X, start.Y, start.W, start.H) {
		return start
	}
	s, c := math.Sincos(Rad(deg))
	lx := dx*c + dy*s
	ly := -dx*s + dy*c

	w, ht := start.W, start.H
	if hx != 0 {
		w = start.W + hx*lx
	}
	if hy != 0 {
		ht = start.H + hy*ly
	}
	w = math.Max(w, opt.MinWidth)
	ht = math.Max(ht, opt.MinHeight)

	if opt.KeepAspect && hx != 0 && hy != 0 && start.W > 0 && start.H > 0 {
		k := math.Max(w/start.W, ht/start.H)
		w, ht = start.W*k, start.H*k
	}

	// Shift the centre by half the growth along each local axis, then rotate
	// the shift back into canvas space so the opposite side stays put.
	sx := hx * (w - start.W) / 2
	sy := hy * (ht - start.H) / 2
	center := start.Center().Add(Pt{X: sx*c - sy*s, Y: sx*s + sy*c})
	out := Rect{X: center.X - w/2, Y: center.Y - ht/2, W: w, H: ht}
	if !Finite(out.X, out.Y, out.W, out.H) {
		return start
	}
	return out
}

// ScaleFont scales a text block's font with its width change, clamped to
// [0.5×, 3×] of the starting font size.
func ScaleFont(startFont, startW, newW float64) float64 {
	if startFont <= 0 || startW <= 0 || !Finite(newW) {
		return startFont
	}
	return startFont * clamp(newW/startW, minFontScale, maxFontScale)
}
