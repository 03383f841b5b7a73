/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interaction turns pointer gestures into live geometry updates and,
// on release, into one undoable command. A gesture snapshots its target on
// pointer-down; every move recomputes from that snapshot plus the total
// pointer delta, so event rate and order never accumulate error.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gocomposer/internal/commands"
	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
	applog "gocomposer/internal/log"
	"gocomposer/internal/measure"
	"gocomposer/internal/scene"
	"gocomposer/internal/undo"
)

// Kind is the gesture type.
type Kind string

const (
	Move   Kind = "move"
	Resize Kind = "resize"
	Rotate Kind = "rotate"
	Crop   Kind = "crop"
)

func (k Kind) label() string {
	switch k {
	case Move:
		return "Move"
	case Resize:
		return "Resize"
	case Rotate:
		return "Rotate"
	case Crop:
		return "Crop"
	}
	return string(k)
}

var (
	ErrNotFound     = errors.New("target not found")
	ErrNotCroppable = errors.New("only images can be cropped")
	ErrInvalid      = errors.New("invalid gesture")
)

// Request describes a pointer-down. Coordinates are canvas pixels.
type Request struct {
	Kind       Kind
	Target     string // block or group id
	Pointer    geometry.Pt
	Handle     geometry.Handle   // Resize
	Edge       geometry.CropEdge // Crop
	KeepAspect bool              // Resize with a corner handle
}

// Options tune gesture geometry. Zero values select the defaults.
type Options struct {
	Workspace     geometry.Rect // moves are clamped to it when it has an area
	MoveOverflow  float64
	MinSize       float64
	MinTextWidth  float64
	MinVisible    float64 // crop, percent per axis
	RotationSnap  float64 // degrees, 0 disables
	Snap          bool
	SnapThreshold float64
}

func (o Options) withDefaults() Options {
	if o.MoveOverflow <= 0 {
		o.MoveOverflow = geometry.DefaultMoveOverflow
	}
	if o.MinSize <= 0 {
		o.MinSize = geometry.DefaultMinSize
	}
	if o.MinTextWidth <= 0 {
		o.MinTextWidth = geometry.DefaultMinTextWidth
	}
	if o.MinVisible <= 0 {
		o.MinVisible = geometry.DefaultMinVisible
	}
	return o
}

// session is the single mutable gesture slot. Everything but the listeners
// is captured on pointer-down and never changes afterwards.
type session struct {
	req Request
	ref domain.Ref

	block domain.Block
	frame geometry.Rect // measured unrotated frame of block

	group    domain.Group
	box      geometry.Rect // group box
	children []domain.Block
	frames   []geometry.ChildFrame // aligned with children

	pivot   geometry.Pt
	anchors []geometry.Anchor

	moveL, upL Listener
}

// Controller runs at most one gesture at a time against a store.
type Controller struct {
	store   *scene.Store
	stack   *undo.Stack
	measure measure.Measurer
	frames  FrameScheduler
	bus     *PointerBus
	opts    Options
	log     *slog.Logger

	cur          *session
	guides       []geometry.Guide
	onFrame      func()
	framePending bool
}

// NewController wires a controller. A nil measurer uses stored geometry; a
// nil scheduler runs frame work synchronously.
func NewController(store *scene.Store, stack *undo.Stack, m measure.Measurer, frames FrameScheduler, opts Options) *Controller {
	if m == nil {
		m = measure.Geometric{}
	}
	if frames == nil {
		frames = immediate{}
	}
	return &Controller{
		store:   store,
		stack:   stack,
		measure: m,
		frames:  frames,
		bus:     &PointerBus{},
		opts:    opts.withDefaults(),
		log:     applog.WithComponent("interaction"),
	}
}

// Bus returns the pointer bus the host feeds.
func (c *Controller) Bus() *PointerBus { return c.bus }

// SetOptions replaces the gesture options; a running gesture keeps its
// snapshot but uses the new limits from its next move.
func (c *Controller) SetOptions(o Options) { c.opts = o.withDefaults() }

// SetOnFrame installs work that runs at most once per frame while a gesture
// changes geometry.
func (c *Controller) SetOnFrame(fn func()) { c.onFrame = fn }

// Active reports whether a gesture is running.
func (c *Controller) Active() bool { return c.cur != nil }

// Target returns the id and kind of the running gesture's target.
func (c *Controller) Target() (string, Kind, bool) {
	if c.cur == nil {
		return "", "", false
	}
	return c.cur.ref.ID, c.cur.req.Kind, true
}

// Guides returns the snap guides of the last move.
func (c *Controller) Guides() []geometry.Guide { return append([]geometry.Guide(nil), c.guides...) }

// Begin starts a gesture. A running gesture is committed first. A locked
// target starts nothing and reports false without an error.
func (c *Controller) Begin(req Request) (bool, error) {
	if c.cur != nil {
		c.End()
	}
	switch req.Kind {
	case Move, Rotate:
	case Resize:
		if !req.Handle.Valid() {
			return false, fmt.Errorf("resize handle %q: %w", req.Handle, ErrInvalid)
		}
	case Crop:
		if !req.Edge.Valid() {
			return false, fmt.Errorf("crop edge %q: %w", req.Edge, ErrInvalid)
		}
	default:
		return false, fmt.Errorf("gesture %q: %w", req.Kind, ErrInvalid)
	}
	if !geometry.Finite(req.Pointer.X, req.Pointer.Y) {
		return false, fmt.Errorf("pointer %v: %w", req.Pointer, ErrInvalid)
	}

	s := &session{req: req, ref: c.store.Resolve(req.Target)}
	var (
		locked bool
		err    error
	)
	switch s.ref.Kind {
	case domain.KindBlock:
		locked, err = c.snapshotBlock(s)
	case domain.KindGroup:
		locked, err = c.snapshotGroup(s)
	default:
		return false, fmt.Errorf("%s %q: %w", req.Kind, req.Target, ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if locked {
		c.log.Debug("gesture on locked target", slog.String("target", req.Target))
		return false, nil
	}

	s.moveL = c.bus.OnMove(c.Move)
	s.upL = c.bus.OnUp(c.release)
	c.cur = s
	c.guides = nil
	c.log.Debug("gesture begin", slog.String("kind", string(req.Kind)), slog.String("target", req.Target))
	return true, nil
}

func (c *Controller) snapshotBlock(s *session) (bool, error) {
	b, _ := c.store.GetBlockByID(s.ref.ID)
	if b.Locked {
		return true, nil
	}
	if s.req.Kind == Crop && b.Type != domain.BlockImage {
		return false, fmt.Errorf("crop %s (%s): %w", b.ID, b.Type, ErrNotCroppable)
	}
	s.block = b.Clone()
	s.frame = measure.Frame(c.measure, b)
	s.pivot = s.frame.Center()
	if s.req.Kind == Move && c.opts.Snap {
		s.anchors = c.anchors(b.ID, map[string]bool{b.ID: true})
	}
	return false, nil
}

// snapshotGroup captures the group and every live child. Children without a
// stored offset get one from their current position.
func (c *Controller) snapshotGroup(s *session) (bool, error) {
	g, _ := c.store.GetGroupByID(s.ref.ID)
	if s.req.Kind == Crop {
		return false, fmt.Errorf("crop group %s: %w", g.ID, ErrNotCroppable)
	}
	s.group = g.Clone()
	s.box = geometry.R(g.Position.X, g.Position.Y, g.Size.Width, g.Size.Height)
	s.pivot = s.box.Center()
	members := map[string]bool{}
	for _, id := range g.ChildIDs {
		b, ok := c.store.GetBlockByID(id)
		if !ok {
			continue
		}
		if b.Locked {
			return true, nil
		}
		off, ok := g.BlockOffsets[id]
		if !ok {
			off = b.Position.Sub(g.Position)
		}
		sz := c.measure.Measure(b)
		s.children = append(s.children, b.Clone())
		s.frames = append(s.frames, geometry.ChildFrame{
			ID:       id,
			Position: pt(b.Position),
			Width:    sz.Width,
			Height:   sz.Height,
			Rotation: b.Rotation,
			FontSize: b.FontSize(),
			Offset:   pt(off),
		})
		members[id] = true
	}
	if s.req.Kind == Move && c.opts.Snap && len(s.children) > 0 {
		s.anchors = c.anchors(s.children[0].ID, members)
	}
	return false, nil
}

// anchors collects the visual bounds of every block on the page of pageOf
// that is not excluded, plus the workspace.
func (c *Controller) anchors(pageOf string, exclude map[string]bool) []geometry.Anchor {
	var out []geometry.Anchor
	if pid, ok := c.store.FindPageContainingBlock(pageOf); ok {
		blocks, _ := c.store.PageBlocks(pid)
		for _, b := range blocks {
			if exclude[b.ID] {
				continue
			}
			out = append(out, geometry.Anchor{Rect: measure.Bounds(c.measure, b), Weight: 1})
		}
	}
	if ws := c.opts.Workspace; ws.W > 0 && ws.H > 0 {
		out = append(out, geometry.Anchor{Rect: ws, Weight: 2})
	}
	return out
}

// Move updates the running gesture for the pointer at p. Without a gesture
// it does nothing.
func (c *Controller) Move(p geometry.Pt) {
	s := c.cur
	if s == nil || !geometry.Finite(p.X, p.Y) {
		return
	}
	d := p.Sub(s.req.Pointer)
	if s.ref.IsGroup() {
		c.moveGroup(s, p, d)
	} else {
		c.moveBlock(s, p, d)
	}
	c.requestFrame()
}

func (c *Controller) release(p geometry.Pt) {
	c.Move(p)
	c.End()
}

func (c *Controller) moveBlock(s *session, p, d geometry.Pt) {
	b := s.block
	switch s.req.Kind {
	case Move:
		pos := pt(b.Position).Add(d)
		pos = c.snap(s, measure.Bounds(c.measure, b).Translate(d), pos)
		pos = geometry.ClampMove(pos, s.frame.W, s.frame.H, b.Rotation, c.opts.Workspace, c.opts.MoveOverflow)
		c.store.UpdateBlock(b.ID, scene.BlockPatch{Position: dp(pos)})
	case Resize:
		opt := geometry.ResizeOptions{MinWidth: c.opts.MinSize, MinHeight: c.opts.MinSize, KeepAspect: s.req.KeepAspect}
		if b.Text != nil {
			opt.MinWidth, opt.MinHeight = c.opts.MinTextWidth, c.opts.MinTextWidth
		}
		r := geometry.Resize(s.frame, b.Rotation, s.req.Handle, d.X, d.Y, opt)
		patch := scene.BlockPatch{Position: dp(r.Min()), Size: &domain.Size{Width: r.W, Height: r.H}}
		if b.Text != nil {
			t := *b.Text
			t.FontSize = geometry.ScaleFont(b.Text.FontSize, s.frame.W, r.W)
			patch.Text = &t
		}
		c.store.UpdateBlock(b.ID, patch)
	case Rotate:
		rot := geometry.RotationFromPointer(s.pivot, s.req.Pointer, p, b.Rotation, c.opts.RotationSnap)
		c.store.UpdateBlock(b.ID, scene.BlockPatch{Rotation: &rot})
	case Crop:
		c.store.UpdateBlock(b.ID, scene.BlockPatch{Crop: c.cropAt(s, d)})
	}
}

// cropAt projects the pointer delta onto the block's local axes and moves the
// dragged edge by the component along its axis.
func (c *Controller) cropAt(s *session, d geometry.Pt) *domain.Crop {
	var in geometry.Insets
	if cr := s.block.Crop; cr != nil {
		in = geometry.Insets{Top: cr.Top, Right: cr.Right, Bottom: cr.Bottom, Left: cr.Left}
	}
	sn, cs := math.Sincos(geometry.Rad(s.block.Rotation))
	delta, dim := d.X*cs+d.Y*sn, s.frame.W
	if s.req.Edge == geometry.CropTop || s.req.Edge == geometry.CropBottom {
		delta, dim = -d.X*sn+d.Y*cs, s.frame.H
	}
	out := geometry.ApplyCropDelta(in, s.req.Edge, delta, dim, c.opts.MinVisible)
	return &domain.Crop{Top: out.Top, Right: out.Right, Bottom: out.Bottom, Left: out.Left}
}

func (c *Controller) moveGroup(s *session, p, d geometry.Pt) {
	next := s.box
	rot := s.group.Rotation
	var frames []geometry.ChildFrame
	switch s.req.Kind {
	case Move:
		pos := s.box.Min().Add(d)
		pos = c.snap(s, s.box.Translate(d), pos)
		pos = geometry.ClampMove(pos, s.box.W, s.box.H, 0, c.opts.Workspace, c.opts.MoveOverflow)
		next = geometry.R(pos.X, pos.Y, s.box.W, s.box.H)
		frames = geometry.TranslateGroup(pos, s.frames)
	case Resize:
		// Group boxes resize along canvas axes regardless of group rotation.
		opt := geometry.ResizeOptions{MinWidth: c.opts.MinSize, MinHeight: c.opts.MinSize, KeepAspect: s.req.KeepAspect}
		next = geometry.Resize(s.box, 0, s.req.Handle, d.X, d.Y, opt)
		frames = geometry.ScaleGroup(s.box, next, s.frames)
	case Rotate:
		delta := geometry.RotationFromPointer(s.pivot, s.req.Pointer, p, 0, c.opts.RotationSnap)
		frames = geometry.RotateGroup(s.pivot, delta, s.box.Min(), s.frames)
		rot = geometry.NormalizeDegrees(s.group.Rotation + delta)
	default:
		return
	}

	offsets := make(map[string]domain.Point, len(frames))
	for i, f := range frames {
		patch := scene.BlockPatch{Position: dp(f.Position), Rotation: &f.Rotation}
		if s.req.Kind == Resize {
			patch.Size = &domain.Size{Width: f.Width, Height: f.Height}
			if t := s.children[i].Text; t != nil {
				nt := *t
				nt.FontSize = f.FontSize
				patch.Text = &nt
			}
		}
		c.store.UpdateBlock(f.ID, patch)
		offsets[f.ID] = *dp(f.Offset)
	}
	c.store.UpdateGroup(s.group.ID, scene.GroupPatch{
		Position:     dp(next.Min()),
		Size:         &domain.Size{Width: next.W, Height: next.H},
		Rotation:     &rot,
		BlockOffsets: offsets,
	})
}

func (c *Controller) snap(s *session, moving geometry.Rect, pos geometry.Pt) geometry.Pt {
	if !c.opts.Snap || len(s.anchors) == 0 {
		c.guides = nil
		return pos
	}
	off, guides := geometry.SnapMove(moving, s.anchors, geometry.SnapOptions{Threshold: c.opts.SnapThreshold, Edges: true, Centers: true})
	c.guides = guides
	return pos.Add(off)
}

func (c *Controller) requestFrame() {
	if c.onFrame == nil || c.framePending {
		return
	}
	c.framePending = true
	c.frames.RequestFrame(func() {
		c.framePending = false
		if c.onFrame != nil {
			c.onFrame()
		}
	})
}

// End finishes the running gesture. If the target's geometry differs from
// the snapshot, one command covering the target and, for groups, every child
// is pushed. It reports whether a command was pushed.
func (c *Controller) End() bool {
	s := c.cur
	if s == nil {
		return false
	}
	c.detach(s)
	t := c.transform(s)
	if !t.Changed() {
		c.log.Debug("gesture without change", slog.String("target", s.ref.ID))
		return false
	}
	if err := c.stack.Apply(t); err != nil {
		c.log.Warn("commit gesture", slog.String("target", s.ref.ID), slog.Any("err", err))
	}
	return true
}

// Abort cancels the running gesture and restores the snapshot. Nothing is
// recorded.
func (c *Controller) Abort() bool {
	s := c.cur
	if s == nil {
		return false
	}
	c.detach(s)
	_ = c.transform(s).Undo(c.store)
	c.requestFrame()
	c.log.Debug("gesture aborted", slog.String("target", s.ref.ID))
	return true
}

func (c *Controller) detach(s *session) {
	s.moveL.Remove()
	s.upL.Remove()
	c.cur = nil
	c.guides = nil
}

// transform pairs the snapshot with the live state.
func (c *Controller) transform(s *session) *commands.Transform {
	if s.ref.IsBlock() {
		var after []domain.Block
		if b, ok := c.store.GetBlockByID(s.block.ID); ok {
			after = append(after, b)
		}
		return commands.NewTransform(s.req.Kind.label(), []domain.Block{s.block}, after, nil, nil)
	}
	var after []domain.Block
	for _, ch := range s.children {
		if b, ok := c.store.GetBlockByID(ch.ID); ok {
			after = append(after, b)
		}
	}
	var groups []domain.Group
	if g, ok := c.store.GetGroupByID(s.group.ID); ok {
		groups = append(groups, g)
	}
	return commands.NewTransform(s.req.Kind.label(), s.children, after, []domain.Group{s.group}, groups)
}

func pt(p domain.Point) geometry.Pt { return geometry.Pt{X: p.X, Y: p.Y} }

func dp(p geometry.Pt) *domain.Point { return &domain.Point{X: p.X, Y: p.Y} }
