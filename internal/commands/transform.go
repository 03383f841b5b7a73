/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package commands holds the reversible operations pushed onto the undo
// stack. Every command deep-copies its payload when constructed.
package commands

import (
	"sort"
	"strings"

	"gocomposer/internal/domain"
	"gocomposer/internal/scene"
	"gocomposer/internal/undo"
)

// Transform restores geometry of any number of blocks and groups as one unit.
// Only fields a gesture can change are written: position, size, rotation,
// crop and text props for blocks; position, size, rotation and offsets for
// groups.
type Transform struct {
	label        string
	beforeBlocks []domain.Block
	afterBlocks  []domain.Block
	beforeGroups []domain.Group
	afterGroups  []domain.Group
}

// NewTransform pairs before/after snapshots by id. Entities present in only
// one of the lists are ignored.
func NewTransform(label string, beforeBlocks, afterBlocks []domain.Block, beforeGroups, afterGroups []domain.Group) *Transform {
	t := &Transform{label: label}
	after := make(map[string]domain.Block, len(afterBlocks))
	for _, b := range afterBlocks {
		after[b.ID] = b
	}
	for _, b := range beforeBlocks {
		if a, ok := after[b.ID]; ok {
			t.beforeBlocks = append(t.beforeBlocks, b.Clone())
			t.afterBlocks = append(t.afterBlocks, a.Clone())
		}
	}
	ga := make(map[string]domain.Group, len(afterGroups))
	for _, g := range afterGroups {
		ga[g.ID] = g
	}
	for _, g := range beforeGroups {
		if a, ok := ga[g.ID]; ok {
			t.beforeGroups = append(t.beforeGroups, g.Clone())
			t.afterGroups = append(t.afterGroups, a.Clone())
		}
	}
	return t
}

func (t *Transform) Label() string { return t.label }

// Changed reports whether any snapshot pair differs.
func (t *Transform) Changed() bool {
	for i := range t.beforeBlocks {
		if !t.beforeBlocks[i].SameGeometry(t.afterBlocks[i]) {
			return true
		}
	}
	for i := range t.beforeGroups {
		if !t.beforeGroups[i].SameGeometry(t.afterGroups[i]) {
			return true
		}
	}
	return false
}

// Targets returns the sorted ids of every entity the transform touches.
func (t *Transform) Targets() []string {
	out := make([]string, 0, len(t.beforeBlocks)+len(t.beforeGroups))
	for _, b := range t.beforeBlocks {
		out = append(out, b.ID)
	}
	for _, g := range t.beforeGroups {
		out = append(out, g.ID)
	}
	sort.Strings(out)
	return out
}

func (t *Transform) Do(s *scene.Store) error {
	write(s, t.afterBlocks, t.afterGroups)
	return nil
}

func (t *Transform) Undo(s *scene.Store) error {
	write(s, t.beforeBlocks, t.beforeGroups)
	return nil
}

// write applies the snapshots; children first so group offsets land last.
func write(s *scene.Store, blocks []domain.Block, groups []domain.Group) {
	for _, b := range blocks {
		s.UpdateBlock(b.ID, GeometryPatch(b))
	}
	for _, g := range groups {
		s.UpdateGroup(g.ID, GroupGeometryPatch(g))
	}
}

// GeometryPatch returns a patch that sets every gesture-controlled field of b.
func GeometryPatch(b domain.Block) scene.BlockPatch {
	p := scene.BlockPatch{Position: &b.Position, Rotation: &b.Rotation}
	if b.Size != nil {
		p.Size = b.Size
	} else {
		p.ClearSize = true
	}
	if b.Crop != nil {
		p.Crop = b.Crop
	} else {
		p.ClearCrop = true
	}
	if b.Text != nil {
		p.Text = b.Text
	}
	return p
}

// GroupGeometryPatch returns a patch that sets the transform fields of g.
func GroupGeometryPatch(g domain.Group) scene.GroupPatch {
	offsets := g.BlockOffsets
	if offsets == nil {
		offsets = map[string]domain.Point{}
	}
	return scene.GroupPatch{Position: &g.Position, Size: &g.Size, Rotation: &g.Rotation, BlockOffsets: offsets}
}

// Nudge is a keyboard move. Consecutive nudges of the same selection merge
// into one history entry.
type Nudge struct {
	*Transform
	key string
}

// NewNudge builds a move of the given blocks and groups by (dx, dy) from their
// current state. Members of a moved group follow it; a grouped block id
// addresses its group. Locked blocks, and groups with a locked member, stay.
func NewNudge(s *scene.Store, ids []string, dx, dy float64) *Nudge {
	d := domain.Point{X: dx, Y: dy}
	var bb, ab []domain.Block
	var bg, ag []domain.Group
	seen := map[string]bool{}
	moveBlock := func(b domain.Block, to domain.Point) {
		if seen[b.ID] {
			return
		}
		seen[b.ID] = true
		bb = append(bb, b)
		n := b.Clone()
		n.Position = to
		ab = append(ab, n)
	}
	for _, id := range ids {
		if b, ok := s.GetBlockByID(id); ok && b.GroupID != "" {
			if _, ok := s.GetGroupByID(b.GroupID); ok {
				id = b.GroupID
			}
		}
		switch ref := s.Resolve(id); ref.Kind {
		case domain.KindGroup:
			g, _ := s.GetGroupByID(id)
			if seen[g.ID] || hasLockedMember(s, g) {
				continue
			}
			seen[g.ID] = true
			n := g.Clone()
			n.Position = g.Position.Add(d)
			bg = append(bg, g)
			ag = append(ag, n)
			for _, cid := range g.ChildIDs {
				if b, ok := s.GetBlockByID(cid); ok {
					moveBlock(b, n.Position.Add(g.BlockOffsets[cid]))
				}
			}
		case domain.KindBlock:
			b, _ := s.GetBlockByID(id)
			if b.Locked {
				continue
			}
			moveBlock(b, b.Position.Add(d))
		}
	}
	t := NewTransform("Nudge", bb, ab, bg, ag)
	return &Nudge{Transform: t, key: strings.Join(t.Targets(), ",")}
}

func hasLockedMember(s *scene.Store, g domain.Group) bool {
	for _, id := range g.ChildIDs {
		if b, ok := s.GetBlockByID(id); ok && b.Locked {
			return true
		}
	}
	return false
}

// Coalesce absorbs a following nudge of the same targets by adopting its
// after-state; the before-state stays the one of the first nudge.
func (n *Nudge) Coalesce(next undo.Command) bool {
	o, ok := next.(*Nudge)
	if !ok || o.key != n.key {
		return false
	}
	ab := make(map[string]domain.Block, len(o.afterBlocks))
	for _, b := range o.afterBlocks {
		ab[b.ID] = b
	}
	for i, b := range n.beforeBlocks {
		n.afterBlocks[i] = ab[b.ID].Clone()
	}
	ag := make(map[string]domain.Group, len(o.afterGroups))
	for _, g := range o.afterGroups {
		ag[g.ID] = g
	}
	for i, g := range n.beforeGroups {
		n.afterGroups[i] = ag[g.ID].Clone()
	}
	return true
}
