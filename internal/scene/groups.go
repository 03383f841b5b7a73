/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"log/slog"
	"math"
	"sort"

	"gocomposer/internal/domain"
)

// GroupPatch lists group fields to overwrite; nil fields are left alone.
// Maps are replaced wholesale and copied.
type GroupPatch struct {
	Position     *domain.Point
	Size         *domain.Size
	Rotation     *float64
	BlockOffsets map[string]domain.Point
	PriorZ       map[string]int
	// ChildIDs replaces the member list. Blocks leaving the group lose their
	// group reference, blocks joining it gain one.
	ChildIDs *[]string
}

// UpdateGroup merges patch into the group.
func (s *Store) UpdateGroup(id string, patch GroupPatch) bool {
	gi := s.groupIndex(id)
	if gi < 0 {
		s.log.Debug("update group: not found", slog.String("group", id))
		return false
	}
	g := &s.groups[gi]
	if patch.Position != nil {
		g.Position = *patch.Position
	}
	if patch.Size != nil {
		g.Size = *patch.Size
	}
	if patch.Rotation != nil {
		g.Rotation = *patch.Rotation
	}
	if patch.BlockOffsets != nil {
		g.BlockOffsets = copyOffsets(patch.BlockOffsets)
	}
	if patch.PriorZ != nil {
		g.PriorZ = copyZ(patch.PriorZ)
	}
	if patch.ChildIDs != nil {
		s.setChildren(gi, *patch.ChildIDs)
	}
	s.touch()
	return true
}

// setChildren diffs the old and new member sets of group gi and updates the
// back-references of every affected block.
func (s *Store) setChildren(gi int, ids []string) {
	gid := s.groups[gi].ID
	next := s.existingUnique(ids)
	keep := make(map[string]bool, len(next))
	for _, id := range next {
		keep[id] = true
	}
	old := append([]string(nil), s.groups[gi].ChildIDs...)
	for _, id := range old {
		if keep[id] {
			continue
		}
		if pi, bi, ok := s.locate(id); ok && s.pages[pi].Blocks[bi].GroupID == gid {
			s.pages[pi].Blocks[bi].GroupID = ""
		}
		delete(s.groups[gi].BlockOffsets, id)
		delete(s.groups[gi].PriorZ, id)
	}
	s.groups[gi].ChildIDs = next
	for _, id := range next {
		s.enrol(id, gid)
	}
}

// enrol stamps gid on the block, taking it out of any other group first, and
// fills a missing offset from its current position.
func (s *Store) enrol(blockID, gid string) {
	pi, bi, ok := s.locate(blockID)
	if !ok {
		return
	}
	b := &s.pages[pi].Blocks[bi]
	if b.GroupID != "" && b.GroupID != gid {
		if oi := s.groupIndex(b.GroupID); oi >= 0 {
			dropChild(&s.groups[oi], blockID)
		}
	}
	b.GroupID = gid
	gi := s.groupIndex(gid)
	if gi < 0 {
		return
	}
	g := &s.groups[gi]
	if g.BlockOffsets == nil {
		g.BlockOffsets = map[string]domain.Point{}
	}
	if _, ok := g.BlockOffsets[blockID]; !ok {
		g.BlockOffsets[blockID] = b.Position.Sub(g.Position)
	}
}

// existingUnique drops duplicates and ids that name no block.
func (s *Store) existingUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, _, ok := s.locate(id); !ok {
			s.log.Debug("group child not found", slog.String("block", id))
			continue
		}
		out = append(out, id)
	}
	return out
}

// AddGroup normalizes g and registers it. A missing id is generated, a zero
// size is replaced by the stored bounding box of the members, missing offsets
// are taken from current positions. Every member is stamped with the id.
func (s *Store) AddGroup(g domain.Group) (domain.Group, bool) {
	ng := g.Clone()
	if ng.ID == "" {
		ng.ID = domain.NewGroupID()
	}
	if s.groupIndex(ng.ID) >= 0 || s.Resolve(ng.ID).IsBlock() {
		s.log.Warn("add group: id already in use", slog.String("group", ng.ID))
		return domain.Group{}, false
	}
	ng.ChildIDs = s.existingUnique(ng.ChildIDs)
	if ng.Size == (domain.Size{}) {
		if box, ok := s.storedBounds(ng.ChildIDs); ok {
			ng.Position = domain.Point{X: box[0], Y: box[1]}
			ng.Size = domain.Size{Width: box[2] - box[0], Height: box[3] - box[1]}
		}
	}
	members := make(map[string]bool, len(ng.ChildIDs))
	for _, id := range ng.ChildIDs {
		members[id] = true
	}
	if ng.BlockOffsets == nil {
		ng.BlockOffsets = map[string]domain.Point{}
	}
	for id := range ng.BlockOffsets {
		if !members[id] {
			delete(ng.BlockOffsets, id)
		}
	}
	for id := range ng.PriorZ {
		if !members[id] {
			delete(ng.PriorZ, id)
		}
	}
	s.groups = append(s.groups, ng)
	for _, id := range ng.ChildIDs {
		s.enrol(id, ng.ID)
	}
	s.touch()
	out, _ := s.GetGroupByID(ng.ID)
	return out, true
}

// storedBounds returns minX, minY, maxX, maxY over the stored geometry of ids.
func (s *Store) storedBounds(ids []string) ([4]float64, bool) {
	box := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	found := false
	for _, id := range ids {
		b, ok := s.GetBlockByID(id)
		if !ok {
			continue
		}
		d := b.Dims()
		box[0] = math.Min(box[0], b.Position.X)
		box[1] = math.Min(box[1], b.Position.Y)
		box[2] = math.Max(box[2], b.Position.X+d.Width)
		box[3] = math.Max(box[3], b.Position.Y+d.Height)
		found = true
	}
	return box, found
}

// RemoveGroup detaches every current child and deletes the group record.
func (s *Store) RemoveGroup(id string) (domain.Group, bool) {
	gi := s.groupIndex(id)
	if gi < 0 {
		s.log.Debug("remove group: not found", slog.String("group", id))
		return domain.Group{}, false
	}
	g := s.groups[gi].Clone()
	for _, cid := range g.ChildIDs {
		if pi, bi, ok := s.locate(cid); ok && s.pages[pi].Blocks[bi].GroupID == id {
			s.pages[pi].Blocks[bi].GroupID = ""
		}
	}
	s.groups = append(s.groups[:gi], s.groups[gi+1:]...)
	s.touch()
	return g, true
}

func copyOffsets(m map[string]domain.Point) map[string]domain.Point {
	out := make(map[string]domain.Point, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyZ(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
