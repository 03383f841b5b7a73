/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the surface the UI talks to. It wires the scene store,
// the history, the membership manager and the gesture controller together
// and exposes live primitives, undoable operations, lookups and pointer
// input in one place.
package editor

import (
	"fmt"
	"log/slog"

	"gocomposer/internal/commands"
	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
	"gocomposer/internal/interaction"
	applog "gocomposer/internal/log"
	"gocomposer/internal/measure"
	"gocomposer/internal/membership"
	"gocomposer/internal/scene"
	"gocomposer/internal/undo"
)

// ErrNotFound is returned when no named block or group exists. Membership
// operations report the same sentinel.
var ErrNotFound = membership.ErrNotFound

// Options configure an editor. Zero values select the defaults.
type Options struct {
	Measurer        measure.Measurer
	Frames          interaction.FrameScheduler // nil queues frames until FlushFrames
	Interaction     interaction.Options
	History         undo.Config
	DuplicateOffset domain.Point // zero selects (20, 20)
}

type Editor struct {
	store   *scene.Store
	stack   *undo.Stack
	members *membership.Manager
	ctl     *interaction.Controller
	measure measure.Measurer
	extents *measure.Rendered
	frames  interaction.FrameScheduler
	log     *slog.Logger

	dupOffset domain.Point
	selection []string
	selBounds geometry.Rect
	selOK     bool
}

// New returns an editor holding an empty document with one page.
func New(opts Options) *Editor {
	m := opts.Measurer
	extents := measure.NewRendered(m)
	m = extents
	frames := opts.Frames
	if frames == nil {
		frames = &interaction.ManualFrames{}
	}
	off := opts.DuplicateOffset
	if off == (domain.Point{}) {
		off = domain.Point{X: 20, Y: 20}
	}
	store := scene.New(domain.Document{})
	stack := undo.NewStack(store, opts.History)
	e := &Editor{
		store:     store,
		stack:     stack,
		members:   membership.New(store, m),
		ctl:       interaction.NewController(store, stack, m, frames, opts.Interaction),
		measure:   m,
		extents:   extents,
		frames:    frames,
		log:       applog.WithComponent("editor"),
		dupOffset: off,
	}
	e.ctl.SetOnFrame(e.refreshSelection)
	return e
}

// Load replaces the document. Membership is repaired on the way in, any
// running gesture is cancelled and the history is cleared. It returns the
// number of repairs.
func (e *Editor) Load(doc domain.Document) int {
	e.ctl.Abort()
	fixed, n := membership.Repair(doc)
	if n > 0 {
		e.log.Warn("document membership repaired", slog.String("doc", doc.ID), slog.Int("fixes", n))
	}
	e.store.Reset(fixed)
	e.stack.Clear()
	e.extents.Reset()
	e.selection = nil
	e.refreshSelection()
	return n
}

// ReportExtent records the axis-aligned on-screen size the host rendered for
// a block. Grouping, gestures and selection bounds prefer it over computed
// sizes until the block's geometry changes.
func (e *Editor) ReportExtent(id string, w, h float64) bool {
	b, ok := e.store.GetBlockByID(id)
	if !ok || !geometry.Finite(w, h) || w <= 0 || h <= 0 {
		return false
	}
	e.extents.Report(b, w, h)
	return true
}

// Document returns a deep copy of the current document.
func (e *Editor) Document() domain.Document { return e.store.Document() }

// Revision increases with every change to the document.
func (e *Editor) Revision() uint64 { return e.store.Revision() }

// Check validates group membership of the live document.
func (e *Editor) Check() error { return e.members.Check() }

// SetInteractionOptions replaces the gesture options.
func (e *Editor) SetInteractionOptions(o interaction.Options) { e.ctl.SetOptions(o) }

// ---- live primitives (no history) ----

func (e *Editor) UpdateBlock(id string, patch scene.BlockPatch) bool { return e.store.UpdateBlock(id, patch) }

func (e *Editor) UpdateGroup(id string, patch scene.GroupPatch) bool { return e.store.UpdateGroup(id, patch) }

func (e *Editor) AddGroup(g domain.Group) (domain.Group, bool) { return e.store.AddGroup(g) }

func (e *Editor) RemoveGroup(id string) bool {
	_, ok := e.store.RemoveGroup(id)
	return ok
}

func (e *Editor) AddPage(title string) string { return e.store.AddPage(title) }

func (e *Editor) SetActivePage(id string) bool { return e.store.SetActivePage(id) }

// ---- undoable operations ----

// Apply pushes cmd onto the history. A running gesture is committed first so
// history stays in gesture order.
func (e *Editor) Apply(cmd undo.Command) error {
	e.ctl.End()
	err := e.stack.Apply(cmd)
	e.pruneSelection()
	return err
}

// AddBlock adds b to pageID (empty for the active page) and returns its id.
func (e *Editor) AddBlock(b domain.Block, pageID string) (string, error) {
	cmd := commands.NewAddBlock(b, pageID)
	if err := e.Apply(cmd); err != nil {
		return "", err
	}
	return cmd.ID(), nil
}

// RemoveBlocks deletes blocks; groups left empty go with them.
func (e *Editor) RemoveBlocks(ids ...string) error {
	cmd, err := e.members.RemoveBlocks(ids)
	if err != nil {
		return fmt.Errorf("remove blocks: %w", err)
	}
	return e.Apply(cmd)
}

// DuplicateBlocks copies blocks, offset and stacked on top, selects the
// copies and returns their ids.
func (e *Editor) DuplicateBlocks(ids ...string) ([]string, error) {
	cmd := commands.NewDuplicate(e.store, ids, e.dupOffset)
	out := cmd.IDs()
	if len(out) == 0 {
		return nil, fmt.Errorf("duplicate: %w", ErrNotFound)
	}
	if err := e.Apply(cmd); err != nil {
		return nil, err
	}
	e.Select(out...)
	return out, nil
}

// SetBlockProps applies patch to one block as an undoable step.
func (e *Editor) SetBlockProps(id, label string, patch scene.BlockPatch) error {
	if _, ok := e.store.GetBlockByID(id); !ok {
		return fmt.Errorf("set props %s: %w", id, ErrNotFound)
	}
	if label == "" {
		label = "Change properties"
	}
	return e.Apply(commands.NewSetBlockProps(e.store, label, id, patch))
}

// Group groups the blocks, selects the group and returns its id.
func (e *Editor) Group(ids ...string) (string, error) {
	cmd, gid, err := e.members.Group(ids)
	if err != nil {
		return "", err
	}
	if err := e.Apply(cmd); err != nil {
		return "", err
	}
	e.Select(gid)
	return gid, nil
}

// Ungroup dissolves a group and selects its former members.
func (e *Editor) Ungroup(groupID string) error {
	g, ok := e.store.GetGroupByID(groupID)
	cmd, err := e.members.Ungroup(groupID)
	if err != nil {
		return err
	}
	if err := e.Apply(cmd); err != nil {
		return err
	}
	if ok {
		e.Select(g.ChildIDs...)
	}
	return nil
}

// DeleteGroup deletes a group and its members as one step.
func (e *Editor) DeleteGroup(groupID string) error {
	cmd, err := e.members.DeleteGroup(groupID)
	if err != nil {
		return err
	}
	return e.Apply(cmd)
}

// Arrange restacks blocks. Group ids stand for their members.
func (e *Editor) Arrange(op scene.ArrangeOp, ids ...string) error {
	cmd, err := commands.NewArrange(e.store, e.expand(ids), op)
	if err != nil {
		return fmt.Errorf("arrange: %w", ErrNotFound)
	}
	return e.Apply(cmd)
}

// Nudge moves blocks and groups by (dx, dy). A grouped block moves with its
// group. Bursts of nudges of the same targets merge into one history entry.
func (e *Editor) Nudge(dx, dy float64, ids ...string) error {
	found := false
	for _, id := range ids {
		found = found || e.store.Resolve(id).Valid()
	}
	if !found {
		return fmt.Errorf("nudge: %w", ErrNotFound)
	}
	cmd := commands.NewNudge(e.store, ids, dx, dy)
	if len(cmd.Targets()) == 0 || !cmd.Changed() {
		return nil
	}
	return e.Apply(cmd)
}

// Undo reverts the newest entry. A running gesture is committed first.
func (e *Editor) Undo() (bool, error) {
	e.ctl.End()
	ok, err := e.stack.Undo()
	e.pruneSelection()
	return ok, err
}

// Redo reapplies the newest undone entry.
func (e *Editor) Redo() (bool, error) {
	e.ctl.End()
	ok, err := e.stack.Redo()
	e.pruneSelection()
	return ok, err
}

func (e *Editor) CanUndo() bool { return e.stack.CanUndo() }
func (e *Editor) CanRedo() bool { return e.stack.CanRedo() }

// UndoLabel and RedoLabel name the entries Undo and Redo would act on.
func (e *Editor) UndoLabel() string { return e.stack.UndoLabel() }
func (e *Editor) RedoLabel() string { return e.stack.RedoLabel() }

// HistoryStats reports history depths and the number of evicted entries.
func (e *Editor) HistoryStats() (undoDepth, redoDepth, evicted int) { return e.stack.Stats() }

// ---- lookups ----

func (e *Editor) GetBlockByID(id string) (domain.Block, bool) { return e.store.GetBlockByID(id) }

func (e *Editor) GetGroupByID(id string) (domain.Group, bool) { return e.store.GetGroupByID(id) }

func (e *Editor) FindPageContainingBlock(id string) (string, bool) {
	return e.store.FindPageContainingBlock(id)
}

func (e *Editor) ActivePage() (domain.Page, bool) { return e.store.ActivePage() }

// Blocks returns the blocks of the active page.
func (e *Editor) Blocks() []domain.Block { return e.store.Blocks() }

func (e *Editor) Groups() []domain.Group { return e.store.Groups() }

// ---- gestures ----

// PointerDown selects the target and starts a gesture on it. Blocks inside a
// group move, resize and rotate with their group; crop always addresses the
// block itself. A locked target is selected but not dragged.
func (e *Editor) PointerDown(req interaction.Request) (bool, error) {
	if req.Kind != interaction.Crop {
		if b, ok := e.store.GetBlockByID(req.Target); ok && b.GroupID != "" {
			if _, ok := e.store.GetGroupByID(b.GroupID); ok {
				req.Target = b.GroupID
			}
		}
	}
	e.ctl.End()
	if e.store.Resolve(req.Target).Valid() {
		e.Select(req.Target)
	}
	return e.ctl.Begin(req)
}

func (e *Editor) PointerMove(p geometry.Pt) { e.ctl.Bus().DispatchMove(p) }

func (e *Editor) PointerUp(p geometry.Pt) { e.ctl.Bus().DispatchUp(p) }

// CancelGesture reverts the running gesture without recording it.
func (e *Editor) CancelGesture() bool { return e.ctl.Abort() }

// Dragging reports whether a gesture is running.
func (e *Editor) Dragging() bool { return e.ctl.Active() }

// Guides returns the snap guides of the running gesture.
func (e *Editor) Guides() []geometry.Guide { return e.ctl.Guides() }

// FlushFrames runs queued frame work when the editor owns the frame queue.
func (e *Editor) FlushFrames() int {
	if mf, ok := e.frames.(*interaction.ManualFrames); ok {
		return mf.Flush()
	}
	return 0
}

// ---- selection ----

// Select replaces the selection with the ids that name a block or group.
func (e *Editor) Select(ids ...string) {
	sel := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] || !e.store.Resolve(id).Valid() {
			continue
		}
		seen[id] = true
		sel = append(sel, id)
	}
	e.selection = sel
	e.refreshSelection()
}

func (e *Editor) Selection() []string { return append([]string(nil), e.selection...) }

// SelectionBounds returns the on-screen box of the selection as of the last
// frame.
func (e *Editor) SelectionBounds() (geometry.Rect, bool) { return e.selBounds, e.selOK }

func (e *Editor) pruneSelection() {
	kept := e.selection[:0]
	for _, id := range e.selection {
		if e.store.Resolve(id).Valid() {
			kept = append(kept, id)
		}
	}
	e.selection = kept
	e.refreshSelection()
}

func (e *Editor) refreshSelection() {
	var blocks []domain.Block
	for _, id := range e.expand(e.selection) {
		if b, ok := e.store.GetBlockByID(id); ok {
			blocks = append(blocks, b)
		}
	}
	e.selBounds, e.selOK = measure.UnionBounds(e.measure, blocks)
}

// expand replaces group ids with their member ids.
func (e *Editor) expand(ids []string) []string {
	var out []string
	for _, id := range ids {
		if g, ok := e.store.GetGroupByID(id); ok {
			out = append(out, g.ChildIDs...)
			continue
		}
		out = append(out, id)
	}
	return out
}
