/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// singularEps bounds |cos²θ − sin²θ| below which the size recovery system is
// treated as singular (θ near 45°, 135°, ...).
const singularEps = 1e-6

func Rad(deg float64) float64 { return deg * math.Pi / 180 }
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees maps any angle into [0, 360). Non-finite input yields 0.
func NormalizeDegrees(d float64) float64 {
	if !Finite(d) {
		return 0
	}
	m := math.Mod(d, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m -= 360
	}
	return m
}

// AngleDiff returns the signed smallest difference a-b in (-180, 180].
func AngleDiff(a, b float64) float64 {
	d := NormalizeDegrees(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

// RotatePoint revolves p around c by deg (clockwise on a y-down canvas).
func RotatePoint(p, c Pt, deg float64) Pt {
	s, co := math.Sincos(Rad(deg))
	dx, dy := p.X-c.X, p.Y-c.Y
	return Pt{X: c.X + dx*co - dy*s, Y: c.Y + dx*s + dy*co}
}

// Footprint returns the axis-aligned extent of a w×h box rotated by deg.
func Footprint(w, h, deg float64) (effW, effH float64) {
	s, c := math.Sincos(Rad(deg))
	effW = math.Abs(w*c) + math.Abs(h*s)
	effH = math.Abs(w*s) + math.Abs(h*c)
	return effW, effH
}

// UnrotatedSize recovers the pre-rotation size from an axis-aligned extent
// W×H of a box rotated by deg by solving
//
//	W = w·|cosθ| + h·|sinθ|
//	H = w·|sinθ| + h·|cosθ|
//
// ok is false when the system is singular or the result is not a valid size;
// callers then use the rotated extent as-is.
func UnrotatedSize(W, H, deg float64) (w, h float64, ok bool) {
	s, c := math.Sincos(Rad(deg))
	s, c = math.Abs(s), math.Abs(c)
	det := c*c - s*s
	if math.Abs(det) < singularEps {
		return 0, 0, false
	}
	w = (W*c - H*s) / det
	h = (H*c - W*s) / det
	if !Finite(w, h) || w < 0 || h < 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Corners returns the four corners of r rotated about its centre, clockwise
// starting at the (unrotated) top-left.
func Corners(r Rect, deg float64) [4]Pt {
	c := r.Center()
	pts := [4]Pt{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
	if deg == 0 {
		return pts
	}
	for i := range pts {
		pts[i] = RotatePoint(pts[i], c, deg)
	}
	return pts
}

// RotatedBounds returns the axis-aligned bounding box of r rotated about its centre.
func RotatedBounds(r Rect, deg float64) Rect {
	effW, effH := Footprint(r.W, r.H, deg)
	c := r.Center()
	return Rect{X: c.X - effW/2, Y: c.Y - effH/2, W: effW, H: effH}
}

// RotationFromPointer derives the new rotation of an element pivoting around
// pivot while the pointer travels from start to current. snapStep > 0 snaps
// the result to multiples of that many degrees.
func RotationFromPointer(pivot, start, current Pt, initial, snapStep float64) float64 {
	if start == pivot || current == pivot {
		return NormalizeDegrees(initial)
	}
	a0 := math.Atan2(start.Y-pivot.Y, start.X-pivot.X)
	a1 := math.Atan2(current.Y-pivot.Y, current.X-pivot.X)
	r := initial + Deg(a1-a0)
	if snapStep > 0 {
		r = math.Round(r/snapStep) * snapStep
	}
	return NormalizeDegrees(r)
}
