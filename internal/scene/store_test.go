/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"sort"
	"testing"

	"gocomposer/internal/domain"
)

func block(id string, x, y, w, h float64, z int) domain.Block {
	return domain.Block{ID: id, Type: domain.BlockImage, Position: domain.Point{X: x, Y: y}, Size: &domain.Size{Width: w, Height: h}, ZIndex: z}
}

func newTestStore() *Store {
	return New(domain.Document{
		ID:           "doc",
		ActivePageID: "p1",
		Pages: []domain.Page{{ID: "p1", Title: "One", Blocks: []domain.Block{
			block("a", 10, 10, 50, 50, 0),
			block("b", 40, 10, 20, 20, 1),
			block("c", 100, 100, 10, 10, 2),
		}}},
	})
}

func TestNewCreatesPageForEmptyDocument(t *testing.T) {
	s := New(domain.Document{})
	p, ok := s.ActivePage()
	if !ok || p.ID == "" {
		t.Fatalf("expected a default active page, got %+v ok=%v", p, ok)
	}
	if s.Document().ID == "" {
		t.Fatalf("expected generated document id")
	}
}

func TestUpdateBlockMergesAndMissingIsNoop(t *testing.T) {
	s := newTestStore()
	rev := s.Revision()
	pos := domain.Point{X: 1, Y: 2}
	if !s.UpdateBlock("a", BlockPatch{Position: &pos}) {
		t.Fatalf("expected update to succeed")
	}
	b, _ := s.GetBlockByID("a")
	if b.Position != pos || b.Size.Width != 50 {
		t.Fatalf("unexpected block after patch: %+v", b)
	}
	if s.Revision() == rev {
		t.Fatalf("revision must advance on mutation")
	}
	rev = s.Revision()
	if s.UpdateBlock("missing", BlockPatch{Position: &pos}) {
		t.Fatalf("expected missing block update to report false")
	}
	if s.Revision() != rev {
		t.Fatalf("missing-entity update must not count as mutation")
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	s := newTestStore()
	b, _ := s.GetBlockByID("a")
	b.Size.Width = 999
	again, _ := s.GetBlockByID("a")
	if again.Size.Width != 50 {
		t.Fatalf("lookup leaked internal pointer")
	}
	if pid, ok := s.FindPageContainingBlock("c"); !ok || pid != "p1" {
		t.Fatalf("unexpected page for c: %q %v", pid, ok)
	}
	if _, ok := s.FindPageContainingBlock("zzz"); ok {
		t.Fatalf("expected not found")
	}
}

func TestAddGroupStampsChildrenAndNormalizes(t *testing.T) {
	s := newTestStore()
	g, ok := s.AddGroup(domain.Group{ChildIDs: []string{"a", "b", "a", "ghost"}})
	if !ok {
		t.Fatalf("expected group to be added")
	}
	if len(g.ChildIDs) != 2 {
		t.Fatalf("expected duplicates and unknown ids dropped, got %v", g.ChildIDs)
	}
	if g.Position != (domain.Point{X: 10, Y: 10}) || g.Size != (domain.Size{Width: 50, Height: 50}) {
		t.Fatalf("unexpected group box: %+v %+v", g.Position, g.Size)
	}
	if g.BlockOffsets["b"] != (domain.Point{X: 30, Y: 0}) {
		t.Fatalf("unexpected offset for b: %+v", g.BlockOffsets["b"])
	}
	for _, id := range []string{"a", "b"} {
		b, _ := s.GetBlockByID(id)
		if b.GroupID != g.ID {
			t.Fatalf("block %s not stamped: %q", id, b.GroupID)
		}
	}
	if r := s.Resolve(g.ID); !r.IsGroup() {
		t.Fatalf("expected group ref, got %+v", r)
	}
	if r := s.Resolve("a"); !r.IsBlock() {
		t.Fatalf("expected block ref, got %+v", r)
	}
}

func TestUpdateGroupChildDiff(t *testing.T) {
	s := newTestStore()
	g, _ := s.AddGroup(domain.Group{ChildIDs: []string{"a", "b"}})
	next := []string{"b", "c"}
	s.UpdateGroup(g.ID, GroupPatch{ChildIDs: &next})
	a, _ := s.GetBlockByID("a")
	c, _ := s.GetBlockByID("c")
	if a.GroupID != "" || c.GroupID != g.ID {
		t.Fatalf("unexpected membership a=%q c=%q", a.GroupID, c.GroupID)
	}
	got, _ := s.GetGroupByID(g.ID)
	if _, ok := got.BlockOffsets["a"]; ok {
		t.Fatalf("offset of removed member must be dropped")
	}
	if got.BlockOffsets["c"] != (domain.Point{X: 90, Y: 90}) {
		t.Fatalf("unexpected offset for joined member: %+v", got.BlockOffsets["c"])
	}
}

func TestJoiningAnotherGroupLeavesTheFirst(t *testing.T) {
	s := newTestStore()
	g1, _ := s.AddGroup(domain.Group{ChildIDs: []string{"a", "b"}})
	g2, _ := s.AddGroup(domain.Group{ChildIDs: []string{"b", "c"}})
	first, _ := s.GetGroupByID(g1.ID)
	if first.HasChild("b") {
		t.Fatalf("b must have left %s", g1.ID)
	}
	b, _ := s.GetBlockByID("b")
	if b.GroupID != g2.ID {
		t.Fatalf("b must belong to %s, got %q", g2.ID, b.GroupID)
	}
}

func TestRemoveGroupDetachesChildren(t *testing.T) {
	s := newTestStore()
	g, _ := s.AddGroup(domain.Group{ChildIDs: []string{"a", "b"}})
	if _, ok := s.RemoveGroup(g.ID); !ok {
		t.Fatalf("expected removal")
	}
	for _, id := range []string{"a", "b"} {
		b, _ := s.GetBlockByID(id)
		if b.GroupID != "" {
			t.Fatalf("block %s still references removed group", id)
		}
	}
	if _, ok := s.RemoveGroup(g.ID); ok {
		t.Fatalf("second removal must be a no-op")
	}
}

func TestRemoveAndInsertBlockRestoresPlace(t *testing.T) {
	s := newTestStore()
	g, _ := s.AddGroup(domain.Group{ChildIDs: []string{"a", "b"}})
	rm, ok := s.RemoveBlock("b")
	if !ok || rm.Index != 1 || rm.PageID != "p1" {
		t.Fatalf("unexpected removal: %+v ok=%v", rm, ok)
	}
	got, _ := s.GetGroupByID(g.ID)
	if got.HasChild("b") {
		t.Fatalf("removed block still listed as child")
	}
	if _, ok := s.InsertBlockAt(rm.Block, rm.PageID, rm.Index); !ok {
		t.Fatalf("expected reinsert")
	}
	ids := []string{}
	for _, b := range s.Blocks() {
		ids = append(ids, b.ID)
	}
	if len(ids) != 3 || ids[1] != "b" {
		t.Fatalf("unexpected order after reinsert: %v", ids)
	}
	got, _ = s.GetGroupByID(g.ID)
	if !got.HasChild("b") || got.BlockOffsets["b"] != (domain.Point{X: 30, Y: 0}) {
		t.Fatalf("reinserted block must rejoin its group: %+v", got)
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	s := newTestStore()
	if _, ok := s.AddBlockToPage(block("a", 0, 0, 1, 1, 0), ""); ok {
		t.Fatalf("expected duplicate id to be rejected")
	}
	id, ok := s.AddBlockToPage(domain.Block{Type: domain.BlockText}, "")
	if !ok || id == "" {
		t.Fatalf("expected generated id")
	}
}

func TestArrangeIsPermutation(t *testing.T) {
	s := newTestStore()
	blocks := s.Blocks()
	for _, op := range []ArrangeOp{BringToFront, SendToBack, Forward, Backward} {
		ranks := Arrange(blocks, []string{"a", "c"}, op)
		if len(ranks) != len(blocks) {
			t.Fatalf("%s: expected %d ranks, got %d", op, len(blocks), len(ranks))
		}
		vals := []int{}
		for _, v := range ranks {
			vals = append(vals, v)
		}
		sort.Ints(vals)
		for i, v := range vals {
			if v != i {
				t.Fatalf("%s: ranks not dense: %v", op, vals)
			}
		}
	}
	front := Arrange(blocks, []string{"a"}, BringToFront)
	if front["a"] != 2 || front["b"] != 0 || front["c"] != 1 {
		t.Fatalf("unexpected front ranks: %v", front)
	}
	fwd := Arrange(blocks, []string{"a"}, Forward)
	if fwd["a"] != 1 || fwd["b"] != 0 {
		t.Fatalf("unexpected forward ranks: %v", fwd)
	}
	back := Arrange(blocks, []string{"c"}, Backward)
	if back["c"] != 1 || back["b"] != 2 {
		t.Fatalf("unexpected backward ranks: %v", back)
	}
	s.SetZIndices(front)
	a, _ := s.GetBlockByID("a")
	if a.ZIndex != 2 {
		t.Fatalf("expected z applied, got %d", a.ZIndex)
	}
}

func TestParseArrangeOp(t *testing.T) {
	if op, err := ParseArrangeOp("front"); err != nil || op != BringToFront {
		t.Fatalf("unexpected parse: %v %v", op, err)
	}
	if _, err := ParseArrangeOp("sideways"); err == nil {
		t.Fatalf("expected error for unknown op")
	}
}
