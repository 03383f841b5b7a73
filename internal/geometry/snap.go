/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Snapping of a moving box against sibling extents. Deterministic and
// renderer-agnostic so frontends can draw the returned guides themselves.

// DefaultSnapThreshold is the snap distance used when none is set.
const DefaultSnapThreshold = 6.0

// SnapOptions controls which features are aligned and within which distance.
type SnapOptions struct {
	// Threshold is the maximum distance in canvas pixels at which a snap
	// happens. Zero selects DefaultSnapThreshold.
	Threshold float64
	Edges     bool
	Centers   bool
}

// Anchor is a static reference box, usually the visual bounds of a sibling.
// Higher Weight wins ties.
type Anchor struct {
	Rect   Rect
	Weight float64
}

type GuideOrientation string

const (
	GuideVertical   GuideOrientation = "vertical"
	GuideHorizontal GuideOrientation = "horizontal"
)

// Guide is a line the UI may render while a snap is in effect.
type Guide struct {
	Orientation GuideOrientation
	Kind        string // "edge" or "center"
	Position    float64
	From, To    Pt
}

// SnapMove aligns moving against anchors independently on each axis and
// returns the offset to add to the moving box plus the guides that produced it.
func SnapMove(moving Rect, anchors []Anchor, opts SnapOptions) (Pt, []Guide) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSnapThreshold
	}
	bx := snapAxis{dist: math.Inf(1)}
	by := snapAxis{dist: math.Inf(1)}

	for _, a := range anchors {
		r := a.Rect
		if opts.Edges {
			for _, m := range [2]float64{moving.X, moving.X + moving.W} {
				for _, t := range [2]float64{r.X, r.X + r.W} {
					bx.consider(t-m, opts.Threshold, a.Weight, verticalGuide(t, moving, r, "edge"))
				}
			}
			for _, m := range [2]float64{moving.Y, moving.Y + moving.H} {
				for _, t := range [2]float64{r.Y, r.Y + r.H} {
					by.consider(t-m, opts.Threshold, a.Weight, horizontalGuide(t, moving, r, "edge"))
				}
			}
		}
		if opts.Centers {
			mc, rc := moving.Center(), r.Center()
			bx.consider(rc.X-mc.X, opts.Threshold, a.Weight, verticalGuide(rc.X, moving, r, "center"))
			by.consider(rc.Y-mc.Y, opts.Threshold, a.Weight, horizontalGuide(rc.Y, moving, r, "center"))
		}
	}

	var off Pt
	var guides []Guide
	if bx.ok {
		off.X = FloatRound(bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		off.Y = FloatRound(by.delta, 3)
		guides = append(guides, by.guide)
	}
	return off, guides
}

type snapAxis struct {
	ok    bool
	delta float64
	dist  float64
	guide Guide
}

func (s *snapAxis) consider(delta, threshold, weight float64, g Guide) {
	d := math.Abs(delta)
	if d > threshold {
		return
	}
	if w := d / math.Max(1, weight); w < s.dist {
		s.ok = true
		s.dist = w
		s.delta = delta
		s.guide = g
	}
}

func verticalGuide(x float64, a, b Rect, kind string) Guide {
	x = FloatRound(x, 3)
	return Guide{
		Orientation: GuideVertical,
		Kind:        kind,
		Position:    x,
		From:        Pt{x, math.Min(a.Y, b.Y)},
		To:          Pt{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontalGuide(y float64, a, b Rect, kind string) Guide {
	y = FloatRound(y, 3)
	return Guide{
		Orientation: GuideHorizontal,
		Kind:        kind,
		Position:    y,
		From:        Pt{math.Min(a.X, b.X), y},
		To:          Pt{math.Max(a.X+a.W, b.X+b.W), y},
	}
}
