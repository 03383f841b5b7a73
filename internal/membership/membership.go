/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package membership is the one place that changes which blocks belong to
// which group. Every operation returns a single undoable command that keeps
// Group.ChildIDs and Block.GroupID consistent in both directions.
package membership

import (
	"errors"
	"fmt"
	"log/slog"

	"gocomposer/internal/commands"
	"gocomposer/internal/domain"
	applog "gocomposer/internal/log"
	"gocomposer/internal/measure"
	"gocomposer/internal/scene"
	"gocomposer/internal/undo"
)

var (
	ErrTooFewBlocks = errors.New("grouping needs at least two blocks")
	ErrMixedPages   = errors.New("blocks are on different pages")
	ErrNotFound     = errors.New("not found")
)

// Manager builds membership commands against a store.
type Manager struct {
	store   *scene.Store
	measure measure.Measurer
	log     *slog.Logger
}

// New returns a manager. A nil measurer uses stored geometry.
func New(store *scene.Store, m measure.Measurer) *Manager {
	if m == nil {
		m = measure.Geometric{}
	}
	return &Manager{store: store, measure: m, log: applog.WithComponent("membership")}
}

// Group builds the command that groups the given blocks. The group box is
// the union of the members' measured on-screen bounds; offsets are taken
// relative to its origin. Members are lifted to contiguous ranks above the
// rest of the page and their prior ranks recorded. Members of other groups leave those first.
func (m *Manager) Group(ids []string) (undo.Command, string, error) {
	ids = unique(ids)
	if len(ids) < 2 {
		return nil, "", ErrTooFewBlocks
	}
	blocks := make([]domain.Block, 0, len(ids))
	pageID := ""
	for _, id := range ids {
		b, ok := m.store.GetBlockByID(id)
		if !ok {
			return nil, "", fmt.Errorf("group: block %s: %w", id, ErrNotFound)
		}
		pid, _ := m.store.FindPageContainingBlock(id)
		if pageID == "" {
			pageID = pid
		} else if pid != pageID {
			return nil, "", fmt.Errorf("group: %w", ErrMixedPages)
		}
		blocks = append(blocks, b)
	}
	box, _ := measure.UnionBounds(m.measure, blocks)

	g := domain.Group{
		ID:           domain.NewGroupID(),
		ChildIDs:     ids,
		Position:     domain.Point{X: box.X, Y: box.Y},
		Size:         domain.Size{Width: box.W, Height: box.H},
		BlockOffsets: make(map[string]domain.Point, len(blocks)),
		PriorZ:       make(map[string]int, len(blocks)),
	}
	for _, b := range blocks {
		g.BlockOffsets[b.ID] = b.Position.Sub(g.Position)
		g.PriorZ[b.ID] = b.ZIndex
	}

	pageBlocks, _ := m.store.PageBlocks(pageID)
	zBefore := ranksOf(blocks)
	zAfter := liftRanks(pageBlocks, ids)

	var steps []undo.Command
	steps = append(steps, m.leaveGroups(blocks)...)
	steps = append(steps, commands.NewCreateGroup(g, zBefore, zAfter))
	m.log.Debug("group", slog.String("group", g.ID), slog.Int("members", len(ids)))
	return &undo.Batch{Name: "Group", Commands: steps}, g.ID, nil
}

// leaveGroups returns the commands that take blocks out of their current
// groups. A group that would be left empty is dissolved instead.
func (m *Manager) leaveGroups(blocks []domain.Block) []undo.Command {
	leaving := map[string][]string{}
	var order []string
	for _, b := range blocks {
		if b.GroupID == "" {
			continue
		}
		if _, ok := leaving[b.GroupID]; !ok {
			order = append(order, b.GroupID)
		}
		leaving[b.GroupID] = append(leaving[b.GroupID], b.ID)
	}
	var out []undo.Command
	for _, gid := range order {
		old, ok := m.store.GetGroupByID(gid)
		if !ok {
			continue
		}
		gone := map[string]bool{}
		for _, id := range leaving[gid] {
			gone[id] = true
		}
		after := old.Clone()
		after.ChildIDs = nil
		for _, id := range old.ChildIDs {
			if !gone[id] {
				after.ChildIDs = append(after.ChildIDs, id)
			} else {
				delete(after.BlockOffsets, id)
				delete(after.PriorZ, id)
			}
		}
		if len(after.ChildIDs) == 0 {
			out = append(out, commands.NewDissolveGroup(old, nil, nil))
			continue
		}
		out = append(out, commands.NewSetGroupChildren(old, after))
	}
	return out
}

// Ungroup builds the command that dissolves a group, keeping its members and
// restoring their recorded prior z-indices. When a prior rank has since been
// taken by another block the members keep their current ranks.
func (m *Manager) Ungroup(groupID string) (undo.Command, error) {
	g, ok := m.store.GetGroupByID(groupID)
	if !ok {
		return nil, fmt.Errorf("ungroup %s: %w", groupID, ErrNotFound)
	}
	zBefore := map[string]int{}
	zAfter := map[string]int{}
	for _, id := range g.ChildIDs {
		b, ok := m.store.GetBlockByID(id)
		if !ok {
			continue
		}
		zBefore[id] = b.ZIndex
		zAfter[id] = b.ZIndex
		if z, ok := g.PriorZ[id]; ok {
			zAfter[id] = z
		}
	}
	if !m.ranksFree(g, zAfter) {
		m.log.Debug("prior ranks taken, keeping current stacking", slog.String("group", g.ID))
		zAfter = zBefore
	}
	return commands.NewDissolveGroup(g, zBefore, zAfter), nil
}

// ranksFree reports whether the wanted member ranks are distinct and unused
// by the other blocks on the group's page.
func (m *Manager) ranksFree(g domain.Group, want map[string]int) bool {
	if len(g.ChildIDs) == 0 {
		return true
	}
	pageID, ok := m.store.FindPageContainingBlock(g.ChildIDs[0])
	if !ok {
		return true
	}
	pageBlocks, _ := m.store.PageBlocks(pageID)
	used := map[int]bool{}
	for _, b := range pageBlocks {
		if _, member := want[b.ID]; !member {
			used[b.ZIndex] = true
		}
	}
	for _, z := range want {
		if used[z] {
			return false
		}
		used[z] = true
	}
	return true
}

// DeleteGroup builds the command that deletes a group together with all of
// its current member blocks.
func (m *Manager) DeleteGroup(groupID string) (undo.Command, error) {
	g, ok := m.store.GetGroupByID(groupID)
	if !ok {
		return nil, fmt.Errorf("delete group %s: %w", groupID, ErrNotFound)
	}
	if len(g.ChildIDs) == 0 {
		return commands.NewDissolveGroup(g, nil, nil), nil
	}
	return commands.NewRemoveBlocks("Delete group", g.ChildIDs), nil
}

// RemoveBlocks builds the command that deletes blocks and removes them from
// their groups. Groups left without members go in the same command.
func (m *Manager) RemoveBlocks(ids []string) (undo.Command, error) {
	var found []string
	for _, id := range unique(ids) {
		if _, ok := m.store.GetBlockByID(id); ok {
			found = append(found, id)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("remove blocks: %w", ErrNotFound)
	}
	return commands.NewRemoveBlocks("Delete", found), nil
}

// Check validates the live document.
func (m *Manager) Check() error { return Validate(m.store.Document()) }

// liftRanks places the named blocks above everything else on the page in
// their current relative order. Other blocks keep their ranks.
func liftRanks(pageBlocks []domain.Block, ids []string) map[string]int {
	sel := make(map[string]bool, len(ids))
	for _, id := range ids {
		sel[id] = true
	}
	top := scene.MaxZ(pageBlocks)
	out := make(map[string]int, len(ids))
	for _, id := range scene.ZOrder(pageBlocks) {
		if sel[id] {
			top++
			out[id] = top
		}
	}
	return out
}

func ranksOf(blocks []domain.Block) map[string]int {
	out := make(map[string]int, len(blocks))
	for _, b := range blocks {
		out[b.ID] = b.ZIndex
	}
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
