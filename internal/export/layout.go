/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders layout proofs of composer pages: every block's
// rotated outline, the visible part of cropped images and the boxes of
// groups. Proofs are for checking geometry; content is not rendered.
package export

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
	"gocomposer/internal/measure"
)

// ErrPageNotFound is returned for an unknown page id.
var ErrPageNotFound = errors.New("page not found")

// Shape is one outlined element of a page proof, in canvas coordinates.
type Shape struct {
	ID      string
	Type    domain.BlockType // empty for groups
	Outline [4]geometry.Pt   // rotated frame
	Visible [4]geometry.Pt   // rotated visible area, equals Outline unless cropped
	Cropped bool
	Locked  bool
	Label   string
}

// Layout is the proof geometry of one page. Blocks are in paint order.
type Layout struct {
	PageID string
	Title  string
	Bounds geometry.Rect
	Blocks []Shape
	Groups []Shape
}

// PageLayout computes the proof geometry of page pageID. An empty pageID
// selects the active page. A nil measurer uses stored sizes.
func PageLayout(doc domain.Document, pageID string, m measure.Measurer) (Layout, error) {
	if m == nil {
		m = measure.Geometric{}
	}
	if pageID == "" {
		pageID = doc.ActivePageID
	}
	var page *domain.Page
	for i := range doc.Pages {
		if doc.Pages[i].ID == pageID {
			page = &doc.Pages[i]
			break
		}
	}
	if page == nil {
		return Layout{}, fmt.Errorf("%w: %q", ErrPageNotFound, pageID)
	}

	blocks := append([]domain.Block(nil), page.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].ZIndex < blocks[j].ZIndex })
	out := Layout{PageID: page.ID, Title: page.Title}
	onPage := make(map[string]bool, len(blocks))
	var pts []geometry.Pt
	for _, b := range blocks {
		onPage[b.ID] = true
		frame := measure.Frame(m, b)
		vis := measure.Visible(m, b)
		s := Shape{
			ID:      b.ID,
			Type:    b.Type,
			Outline: geometry.Corners(frame, b.Rotation),
			Visible: rotateAbout(vis, frame.Center(), b.Rotation),
			Cropped: b.Crop != nil && vis != frame,
			Locked:  b.Locked,
			Label:   label(b),
		}
		out.Blocks = append(out.Blocks, s)
		pts = append(pts, s.Outline[:]...)
	}
	for _, g := range doc.Groups {
		if len(g.ChildIDs) == 0 || !onPage[g.ChildIDs[0]] {
			continue
		}
		box := geometry.R(g.Position.X, g.Position.Y, g.Size.Width, g.Size.Height)
		s := Shape{ID: g.ID, Outline: geometry.Corners(box, g.Rotation), Label: fmt.Sprintf("%s (%d)", shortID(g.ID), len(g.ChildIDs))}
		s.Visible = s.Outline
		out.Groups = append(out.Groups, s)
		pts = append(pts, s.Outline[:]...)
	}
	out.Bounds = boundsOf(pts)
	return out, nil
}

func rotateAbout(r geometry.Rect, c geometry.Pt, deg float64) [4]geometry.Pt {
	pts := [4]geometry.Pt{{X: r.X, Y: r.Y}, {X: r.X + r.W, Y: r.Y}, {X: r.X + r.W, Y: r.Y + r.H}, {X: r.X, Y: r.Y + r.H}}
	if deg == 0 {
		return pts
	}
	for i := range pts {
		pts[i] = geometry.RotatePoint(pts[i], c, deg)
	}
	return pts
}

func boundsOf(pts []geometry.Pt) geometry.Rect {
	if len(pts) == 0 {
		return geometry.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return geometry.R(minX, minY, maxX-minX, maxY-minY)
}

func label(b domain.Block) string {
	s := fmt.Sprintf("%s %s", b.Type, shortID(b.ID))
	if b.Rotation != 0 {
		s += fmt.Sprintf(" %g°", geometry.FloatRound(b.Rotation, 1))
	}
	if b.Locked {
		s += " locked"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// canvas maps canvas coordinates onto an output surface with a margin.
type canvas struct {
	origin geometry.Pt
	scale  float64
	w, h   float64
}

// fit returns a canvas covering the layout bounds and the origin, so blocks
// keep their distance to the page origin, plus margin on every side.
func fit(l Layout, margin, scale float64) canvas {
	if scale <= 0 {
		scale = 1
	}
	r := l.Bounds.Union(geometry.Rect{})
	if r.W <= 0 || r.H <= 0 {
		r = geometry.R(0, 0, 100, 100)
	}
	return canvas{
		origin: geometry.Pt{X: r.X - margin, Y: r.Y - margin},
		scale:  scale,
		w:      (r.W + 2*margin) * scale,
		h:      (r.H + 2*margin) * scale,
	}
}

func (c canvas) at(p geometry.Pt) (float64, float64) {
	return (p.X - c.origin.X) * c.scale, (p.Y - c.origin.Y) * c.scale
}
