/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// DefaultMoveOverflow is the share of an element's footprint that may be
// dragged past the leading workspace edge.
const DefaultMoveOverflow = 0.9

// ClampMove clamps the candidate top-left pos of a w×h element rotated by deg
// so that its on-screen footprint stays within
// [edge − footprint·overflow, oppositeEdge − footprint] on each axis.
// A workspace without area disables clamping.
func ClampMove(pos Pt, w, h, deg float64, workspace Rect, overflow float64) Pt {
	if workspace.W <= 0 || workspace.H <= 0 || !Finite(pos.X, pos.Y, w, h) {
		return pos
	}
	effW, effH := Footprint(w, h, deg)
	// The footprint is centred on the element centre, not on pos.
	vx := pos.X + w/2 - effW/2
	vy := pos.Y + h/2 - effH/2
	vx = clampLoose(vx, workspace.X-effW*overflow, workspace.X+workspace.W-effW)
	vy = clampLoose(vy, workspace.Y-effH*overflow, workspace.Y+workspace.H-effH)
	return Pt{X: vx - w/2 + effW/2, Y: vy - h/2 + effH/2}
}

// clampLoose clamps v into [lo, hi]; when the range is inverted lo wins.
func clampLoose(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
