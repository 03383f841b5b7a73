/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package membership

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/multierr"

	"gocomposer/internal/domain"
	"gocomposer/internal/scene"
	"gocomposer/internal/undo"
)

func box(id string, x, y float64, z int) domain.Block {
	return domain.Block{ID: id, Type: domain.BlockImage, Position: domain.Point{X: x, Y: y}, Size: &domain.Size{Width: 20, Height: 20}, ZIndex: z}
}

func setup() (*scene.Store, *undo.Stack, *Manager) {
	s := scene.New(domain.Document{ActivePageID: "p", Pages: []domain.Page{{ID: "p", Blocks: []domain.Block{
		box("a", 0, 0, 0), box("b", 30, 10, 1), box("c", 100, 0, 2), box("d", 200, 0, 3),
	}}}})
	return s, undo.NewStack(s, undo.Config{}), New(s, nil)
}

func apply(t *testing.T, st *undo.Stack, cmd undo.Command, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	if err := st.Apply(cmd); err != nil {
		t.Fatalf("apply %s: %v", cmd.Label(), err)
	}
}

func TestGroupComputesBoxOffsetsAndZ(t *testing.T) {
	s, st, m := setup()
	cmd, gid, err := m.Group([]string{"a", "b"})
	apply(t, st, cmd, err)
	g, ok := s.GetGroupByID(gid)
	if !ok {
		t.Fatalf("group not created")
	}
	if g.Position != (domain.Point{}) || g.Size != (domain.Size{Width: 50, Height: 30}) {
		t.Fatalf("unexpected box %+v %+v", g.Position, g.Size)
	}
	if g.BlockOffsets["b"] != (domain.Point{X: 30, Y: 10}) {
		t.Fatalf("unexpected offset %+v", g.BlockOffsets["b"])
	}
	a, _ := s.GetBlockByID("a")
	b, _ := s.GetBlockByID("b")
	if a.ZIndex != 4 || b.ZIndex != 5 || a.GroupID != gid || b.GroupID != gid {
		t.Fatalf("members not lifted/stamped: a=%+v b=%+v", a, b)
	}
	if g.PriorZ["a"] != 0 || g.PriorZ["b"] != 1 {
		t.Fatalf("prior z not recorded: %v", g.PriorZ)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("unexpected violations: %v", err)
	}

	_, _ = st.Undo()
	if _, ok := s.GetGroupByID(gid); ok {
		t.Fatalf("undo must remove the group")
	}
	a, _ = s.GetBlockByID("a")
	if a.ZIndex != 0 || a.GroupID != "" {
		t.Fatalf("undo must restore z and membership, got %+v", a)
	}
}

func TestGroupRejectsTooFewAndMixedPages(t *testing.T) {
	s, _, m := setup()
	if _, _, err := m.Group([]string{"a", "a"}); !errors.Is(err, ErrTooFewBlocks) {
		t.Fatalf("expected ErrTooFewBlocks, got %v", err)
	}
	pid := s.AddPage("Two")
	s.AddBlockToPage(box("x", 0, 0, 0), pid)
	if _, _, err := m.Group([]string{"a", "x"}); !errors.Is(err, ErrMixedPages) {
		t.Fatalf("expected ErrMixedPages, got %v", err)
	}
	if _, _, err := m.Group([]string{"a", "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func pageRanks(t *testing.T, s *scene.Store) ([]string, map[string]int) {
	t.Helper()
	blocks, ok := s.PageBlocks("p")
	if !ok {
		t.Fatalf("page p missing")
	}
	z := map[string]int{}
	seen := map[int]string{}
	for _, b := range blocks {
		if other, dup := seen[b.ZIndex]; dup {
			t.Fatalf("blocks %s and %s share rank %d", other, b.ID, b.ZIndex)
		}
		seen[b.ZIndex] = b.ID
		z[b.ID] = b.ZIndex
	}
	return scene.ZOrder(blocks), z
}

func TestGroupLiftsOnlyMembers(t *testing.T) {
	s, st, m := setup()
	cmd, _, err := m.Group([]string{"a", "c"})
	apply(t, st, cmd, err)
	order, z := pageRanks(t, s)
	if !slices.Equal(order, []string{"b", "d", "a", "c"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if z["b"] != 1 || z["d"] != 3 {
		t.Fatalf("non-members must keep their ranks, got %v", z)
	}
}

func TestUngroupRestoresPriorZ(t *testing.T) {
	s, st, m := setup()
	before, _ := pageRanks(t, s)
	cmd, gid, err := m.Group([]string{"a", "c"})
	apply(t, st, cmd, err)
	ucmd, err := m.Ungroup(gid)
	apply(t, st, ucmd, err)
	a, _ := s.GetBlockByID("a")
	c, _ := s.GetBlockByID("c")
	if a.ZIndex != 0 || c.ZIndex != 2 || a.GroupID != "" || c.GroupID != "" {
		t.Fatalf("unexpected state after ungroup a=%+v c=%+v", a, c)
	}
	if after, z := pageRanks(t, s); !slices.Equal(after, before) {
		t.Fatalf("ungroup must restore stacking %v, got %v (%v)", before, after, z)
	}
	_, _ = st.Undo()
	g, ok := s.GetGroupByID(gid)
	if !ok || !slices.Equal(g.ChildIDs, []string{"a", "c"}) {
		t.Fatalf("undo of ungroup must restore the group, got %+v", g)
	}
	a, _ = s.GetBlockByID("a")
	if a.GroupID != gid || a.ZIndex != 4 {
		t.Fatalf("undo of ungroup must restore membership and lifted z, got %+v", a)
	}
	_, _ = st.Undo()
	if after, _ := pageRanks(t, s); !slices.Equal(after, before) {
		t.Fatalf("undo of group must restore stacking %v, got %v", before, after)
	}
}

func TestUngroupKeepsStackingWhenPriorRanksTaken(t *testing.T) {
	s, st, m := setup()
	cmd, gid, err := m.Group([]string{"a", "b"})
	apply(t, st, cmd, err)
	z := 0
	s.UpdateBlock("c", scene.BlockPatch{ZIndex: &z})
	ucmd, err := m.Ungroup(gid)
	apply(t, st, ucmd, err)
	if order, _ := pageRanks(t, s); !slices.Equal(order, []string{"c", "d", "a", "b"}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRegroupTakesMembersFromOldGroup(t *testing.T) {
	s, st, m := setup()
	cmd, g1, err := m.Group([]string{"a", "b", "c"})
	apply(t, st, cmd, err)
	cmd, g2, err := m.Group([]string{"c", "d"})
	apply(t, st, cmd, err)
	old, _ := s.GetGroupByID(g1)
	if !slices.Equal(old.ChildIDs, []string{"a", "b"}) {
		t.Fatalf("c must leave %s, got %v", g1, old.ChildIDs)
	}
	c, _ := s.GetBlockByID("c")
	if c.GroupID != g2 {
		t.Fatalf("c must join %s", g2)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("violations after regroup: %v", err)
	}
	_, _ = st.Undo()
	old, _ = s.GetGroupByID(g1)
	c, _ = s.GetBlockByID("c")
	if !slices.Equal(old.ChildIDs, []string{"a", "b", "c"}) || c.GroupID != g1 {
		t.Fatalf("undo must return c to %s, got %v / %q", g1, old.ChildIDs, c.GroupID)
	}
	if _, ok := s.GetGroupByID(g2); ok {
		t.Fatalf("undo must remove %s", g2)
	}
}

func TestRegroupingAllMembersDissolvesOldGroup(t *testing.T) {
	s, st, m := setup()
	cmd, g1, err := m.Group([]string{"a", "b"})
	apply(t, st, cmd, err)
	cmd, _, err = m.Group([]string{"a", "b", "c"})
	apply(t, st, cmd, err)
	if _, ok := s.GetGroupByID(g1); ok {
		t.Fatalf("emptied group must be dissolved")
	}
	_, _ = st.Undo()
	if g, ok := s.GetGroupByID(g1); !ok || len(g.ChildIDs) != 2 {
		t.Fatalf("undo must restore the old group, got %+v ok=%v", g, ok)
	}
}

func TestDeleteGroupRemovesMembersAtomically(t *testing.T) {
	s, st, m := setup()
	cmd, gid, err := m.Group([]string{"a", "b"})
	apply(t, st, cmd, err)
	dcmd, err := m.DeleteGroup(gid)
	apply(t, st, dcmd, err)
	if _, ok := s.GetGroupByID(gid); ok {
		t.Fatalf("group must be gone")
	}
	if _, ok := s.GetBlockByID("a"); ok {
		t.Fatalf("members must be gone")
	}
	if u, _, _ := st.Stats(); u != 2 {
		t.Fatalf("delete group must be one history entry, got %d entries", u)
	}
	_, _ = st.Undo()
	g, ok := s.GetGroupByID(gid)
	if !ok || len(g.ChildIDs) != 2 {
		t.Fatalf("undo must restore group and members, got %+v", g)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("violations after undo: %v", err)
	}
}

func TestRemoveBlocksErrorsWhenNothingFound(t *testing.T) {
	_, _, m := setup()
	if _, err := m.RemoveBlocks([]string{"ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func brokenDoc() domain.Document {
	a := box("a", 0, 0, 0)
	a.GroupID = "grp_x"
	b := box("b", 10, 0, 1)
	b.GroupID = "grp_missing"
	c := box("c", 20, 0, 2)
	return domain.Document{Pages: []domain.Page{{ID: "p", Blocks: []domain.Block{a, b, c}}}, Groups: []domain.Group{
		{ID: "grp_x", ChildIDs: []string{"a", "a", "c", "ghost"}, BlockOffsets: map[string]domain.Point{"a": {}, "zzz": {}}},
		{ID: "grp_empty"},
	}}
}

func TestValidateAggregatesViolations(t *testing.T) {
	err := Validate(brokenDoc())
	if err == nil {
		t.Fatalf("expected violations")
	}
	// duplicate a, missing ghost, c back-reference, c offset, zzz offset, empty group, b missing group
	if n := len(multierr.Errors(err)); n != 7 {
		t.Fatalf("expected 7 violations, got %d: %v", n, err)
	}
}

func TestRepairProducesValidDocument(t *testing.T) {
	doc, fixes := Repair(brokenDoc())
	if fixes == 0 {
		t.Fatalf("expected fixes")
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("repaired document still invalid: %v", err)
	}
	if len(doc.Groups) != 1 || !slices.Equal(doc.Groups[0].ChildIDs, []string{"a", "c"}) {
		t.Fatalf("unexpected groups after repair: %+v", doc.Groups)
	}
	if doc.Pages[0].Blocks[1].GroupID != "" || doc.Pages[0].Blocks[2].GroupID != "grp_x" {
		t.Fatalf("unexpected back-references after repair")
	}
	if _, again := Repair(doc); again != 0 {
		t.Fatalf("repair must be idempotent, got %d fixes", again)
	}
}
