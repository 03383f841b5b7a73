/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"fmt"

	"gocomposer/internal/domain"
	"gocomposer/internal/scene"
)

// CreateGroup registers a fully built group record and applies the z-order
// that lifts its members. Undo removes the record and restores prior ranks.
type CreateGroup struct {
	group   domain.Group
	zBefore map[string]int
	zAfter  map[string]int
}

func NewCreateGroup(g domain.Group, zBefore, zAfter map[string]int) *CreateGroup {
	return &CreateGroup{group: g.Clone(), zBefore: copyRanks(zBefore), zAfter: copyRanks(zAfter)}
}

func (c *CreateGroup) Label() string { return "Group" }

// GroupID returns the id of the created group.
func (c *CreateGroup) GroupID() string { return c.group.ID }

func (c *CreateGroup) Do(s *scene.Store) error {
	if _, ok := s.AddGroup(c.group); !ok {
		return fmt.Errorf("create group %s: id in use", c.group.ID)
	}
	s.SetZIndices(c.zAfter)
	return nil
}

func (c *CreateGroup) Undo(s *scene.Store) error {
	s.RemoveGroup(c.group.ID)
	s.SetZIndices(c.zBefore)
	return nil
}

// DissolveGroup removes a group record while keeping its members, the
// inverse of CreateGroup. Undo re-registers the record with its offsets.
type DissolveGroup struct {
	group   domain.Group
	zBefore map[string]int
	zAfter  map[string]int
}

func NewDissolveGroup(g domain.Group, zBefore, zAfter map[string]int) *DissolveGroup {
	return &DissolveGroup{group: g.Clone(), zBefore: copyRanks(zBefore), zAfter: copyRanks(zAfter)}
}

func (c *DissolveGroup) Label() string { return "Ungroup" }

func (c *DissolveGroup) Do(s *scene.Store) error {
	if _, ok := s.RemoveGroup(c.group.ID); !ok {
		return fmt.Errorf("dissolve group %s: %w", c.group.ID, ErrMissing)
	}
	s.SetZIndices(c.zAfter)
	return nil
}

func (c *DissolveGroup) Undo(s *scene.Store) error {
	s.AddGroup(c.group)
	s.SetZIndices(c.zBefore)
	return nil
}

// SetGroupChildren replaces a group's member list together with its offsets
// and recorded prior z-indices.
type SetGroupChildren struct {
	before domain.Group
	after  domain.Group
}

func NewSetGroupChildren(before, after domain.Group) *SetGroupChildren {
	return &SetGroupChildren{before: before.Clone(), after: after.Clone()}
}

func (c *SetGroupChildren) Label() string { return "Change group members" }

func (c *SetGroupChildren) Do(s *scene.Store) error { return setChildren(s, c.after) }

func (c *SetGroupChildren) Undo(s *scene.Store) error { return setChildren(s, c.before) }

func setChildren(s *scene.Store, g domain.Group) error {
	ids := append([]string(nil), g.ChildIDs...)
	offsets := g.BlockOffsets
	if offsets == nil {
		offsets = map[string]domain.Point{}
	}
	prior := g.PriorZ
	if prior == nil {
		prior = map[string]int{}
	}
	if !s.UpdateGroup(g.ID, scene.GroupPatch{ChildIDs: &ids, BlockOffsets: offsets, PriorZ: prior}) {
		return fmt.Errorf("set children %s: %w", g.ID, ErrMissing)
	}
	return nil
}

func copyRanks(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
