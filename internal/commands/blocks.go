/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"errors"
	"fmt"

	"gocomposer/internal/domain"
	"gocomposer/internal/scene"
)

// ErrMissing is returned when a command's target disappeared from the store.
var ErrMissing = errors.New("target not found")

// AddBlock inserts one block. The id is fixed at construction so redo
// recreates the same entity.
type AddBlock struct {
	block  domain.Block
	pageID string
	index  int
}

// NewAddBlock places b on pageID (empty for the active page) at the top of
// the page's block list.
func NewAddBlock(b domain.Block, pageID string) *AddBlock {
	nb := b.Clone()
	if nb.ID == "" {
		nb.ID = domain.NewBlockID()
	}
	nb.GroupID = ""
	return &AddBlock{block: nb, pageID: pageID, index: -1}
}

func (c *AddBlock) Label() string { return "Add " + string(c.block.Type) }

// ID returns the id the block is added under.
func (c *AddBlock) ID() string { return c.block.ID }

func (c *AddBlock) Do(s *scene.Store) error {
	if _, ok := s.InsertBlockAt(c.block, c.pageID, c.index); !ok {
		return fmt.Errorf("add block %s: %w", c.block.ID, ErrMissing)
	}
	return nil
}

func (c *AddBlock) Undo(s *scene.Store) error {
	s.RemoveBlock(c.block.ID)
	return nil
}

// RemoveBlocks deletes blocks and takes them out of their groups. Groups left
// without members are removed in the same step. Undo puts every block back
// at its page index and restores the groups exactly.
type RemoveBlocks struct {
	label string
	ids   []string

	removed []scene.Removed
	groups  []domain.Group // affected groups before removal
	dropped []string       // groups removed because they became empty
}

func NewRemoveBlocks(label string, ids []string) *RemoveBlocks {
	return &RemoveBlocks{label: label, ids: append([]string(nil), ids...)}
}

func (c *RemoveBlocks) Label() string { return c.label }

func (c *RemoveBlocks) Do(s *scene.Store) error {
	c.removed, c.groups, c.dropped = nil, nil, nil
	seen := map[string]bool{}
	for _, id := range c.ids {
		b, ok := s.GetBlockByID(id)
		if !ok {
			continue
		}
		if g, ok := s.GetGroupByID(b.GroupID); ok && !seen[g.ID] {
			seen[g.ID] = true
			c.groups = append(c.groups, g)
		}
	}
	for _, id := range c.ids {
		if rm, ok := s.RemoveBlock(id); ok {
			c.removed = append(c.removed, rm)
		}
	}
	for _, g := range c.groups {
		if cur, ok := s.GetGroupByID(g.ID); ok && len(cur.ChildIDs) == 0 {
			s.RemoveGroup(g.ID)
			c.dropped = append(c.dropped, g.ID)
		}
	}
	return nil
}

func (c *RemoveBlocks) Undo(s *scene.Store) error {
	for _, g := range c.groups {
		if _, ok := s.GetGroupByID(g.ID); !ok {
			empty := g.Clone()
			empty.ChildIDs = nil
			s.AddGroup(empty)
		}
	}
	for i := len(c.removed) - 1; i >= 0; i-- {
		rm := c.removed[i]
		s.InsertBlockAt(rm.Block, rm.PageID, rm.Index)
	}
	for _, g := range c.groups {
		children := append([]string(nil), g.ChildIDs...)
		s.UpdateGroup(g.ID, scene.GroupPatch{
			ChildIDs:     &children,
			BlockOffsets: g.BlockOffsets,
			PriorZ:       g.PriorZ,
		})
	}
	return nil
}

// Removed returns what the last Do took out, for callers that report it.
func (c *RemoveBlocks) Removed() []scene.Removed { return c.removed }

// Dropped returns ids of groups removed because they became empty.
func (c *RemoveBlocks) Dropped() []string { return c.dropped }

// SetBlockProps applies a patch to one block, e.g. a lock toggle or a text
// edit. Undo restores the whole block as it was.
type SetBlockProps struct {
	label  string
	id     string
	patch  scene.BlockPatch
	before domain.Block
	valid  bool
}

// NewSetBlockProps captures the block's current state as the undo payload.
func NewSetBlockProps(s *scene.Store, label, id string, patch scene.BlockPatch) *SetBlockProps {
	b, ok := s.GetBlockByID(id)
	return &SetBlockProps{label: label, id: id, patch: clonePatch(patch), before: b, valid: ok}
}

func (c *SetBlockProps) Label() string { return c.label }

func (c *SetBlockProps) Do(s *scene.Store) error {
	if !c.valid || !s.UpdateBlock(c.id, c.patch) {
		return fmt.Errorf("set props %s: %w", c.id, ErrMissing)
	}
	return nil
}

func (c *SetBlockProps) Undo(s *scene.Store) error {
	if c.valid {
		s.ReplaceBlock(c.before)
	}
	return nil
}

func clonePatch(p scene.BlockPatch) scene.BlockPatch {
	out := p
	if p.Position != nil {
		v := *p.Position
		out.Position = &v
	}
	if p.Size != nil {
		v := *p.Size
		out.Size = &v
	}
	if p.Rotation != nil {
		v := *p.Rotation
		out.Rotation = &v
	}
	if p.ZIndex != nil {
		v := *p.ZIndex
		out.ZIndex = &v
	}
	if p.Locked != nil {
		v := *p.Locked
		out.Locked = &v
	}
	if p.Crop != nil {
		v := *p.Crop
		out.Crop = &v
	}
	if p.Text != nil {
		v := *p.Text
		out.Text = &v
	}
	if p.Line != nil {
		v := *p.Line
		out.Line = &v
	}
	if p.Palette != nil {
		v := append([]string(nil), (*p.Palette)...)
		out.Palette = &v
	}
	if p.Src != nil {
		v := *p.Src
		out.Src = &v
	}
	return out
}

// Arrange changes stacking order. Both rank maps are captured at
// construction so undo restores the exact prior ranks.
type Arrange struct {
	op     scene.ArrangeOp
	before map[string]int
	after  map[string]int
}

// NewArrange ranks every block of the page containing the first id.
func NewArrange(s *scene.Store, ids []string, op scene.ArrangeOp) (*Arrange, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("arrange: %w", ErrMissing)
	}
	pageID, ok := s.FindPageContainingBlock(ids[0])
	if !ok {
		return nil, fmt.Errorf("arrange %s: %w", ids[0], ErrMissing)
	}
	blocks, _ := s.PageBlocks(pageID)
	before := make(map[string]int, len(blocks))
	for _, b := range blocks {
		before[b.ID] = b.ZIndex
	}
	return &Arrange{op: op, before: before, after: scene.Arrange(blocks, ids, op)}, nil
}

func (c *Arrange) Label() string { return "Arrange " + string(c.op) }

func (c *Arrange) Do(s *scene.Store) error {
	s.SetZIndices(c.after)
	return nil
}

func (c *Arrange) Undo(s *scene.Store) error {
	s.SetZIndices(c.before)
	return nil
}

// Duplicate copies blocks onto their own page, shifted by offset and stacked
// above everything else. Copies do not join the originals' groups.
type Duplicate struct {
	copies []*AddBlock
}

func NewDuplicate(s *scene.Store, ids []string, offset domain.Point) *Duplicate {
	d := &Duplicate{}
	top := map[string]int{}
	for _, id := range ids {
		b, ok := s.GetBlockByID(id)
		if !ok {
			continue
		}
		pageID, _ := s.FindPageContainingBlock(id)
		if _, ok := top[pageID]; !ok {
			blocks, _ := s.PageBlocks(pageID)
			top[pageID] = scene.MaxZ(blocks)
		}
		top[pageID]++
		c := b.Clone()
		c.ID = ""
		c.Position = c.Position.Add(offset)
		c.ZIndex = top[pageID]
		c.Locked = false
		d.copies = append(d.copies, NewAddBlock(c, pageID))
	}
	return d
}

func (d *Duplicate) Label() string { return "Duplicate" }

// IDs returns the ids of the copies.
func (d *Duplicate) IDs() []string {
	out := make([]string, len(d.copies))
	for i, c := range d.copies {
		out[i] = c.ID()
	}
	return out
}

func (d *Duplicate) Do(s *scene.Store) error {
	var err error
	for _, c := range d.copies {
		if e := c.Do(s); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (d *Duplicate) Undo(s *scene.Store) error {
	for i := len(d.copies) - 1; i >= 0; i-- {
		_ = d.copies[i].Undo(s)
	}
	return nil
}
