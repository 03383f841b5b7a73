/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene owns the live document: pages, blocks and groups. Mutations
// are synchronous and immediately observable. Addressing an id that no longer
// exists is a logged no-op, never a panic, because live updates run at
// pointer-move frequency.
//
// A Store is not safe for concurrent use; it is driven from a single event
// loop. Every method that walks entities iterates over a copied id list so a
// mutation triggered from another mutation's side effect cannot corrupt the
// walk.
package scene

import (
	"log/slog"

	"gocomposer/internal/domain"
	applog "gocomposer/internal/log"
)

// Store is the document owner.
type Store struct {
	docID        string
	pages        []domain.Page
	activePageID string
	groups       []domain.Group
	rev          uint64
	log          *slog.Logger
}

// New returns a store holding a deep copy of doc. A document without pages
// gets one empty page.
func New(doc domain.Document) *Store {
	s := &Store{log: applog.WithComponent("scene")}
	s.Reset(doc)
	return s
}

// Reset replaces the whole document.
func (s *Store) Reset(doc domain.Document) {
	d := doc.Clone()
	if d.ID == "" {
		d.ID = domain.NewDocumentID()
	}
	if len(d.Pages) == 0 {
		d.Pages = []domain.Page{{ID: domain.NewPageID(), Title: "Page 1"}}
	}
	if d.ActivePageID == "" || pageIndex(d.Pages, d.ActivePageID) < 0 {
		d.ActivePageID = d.Pages[0].ID
	}
	s.docID = d.ID
	s.pages = d.Pages
	s.activePageID = d.ActivePageID
	s.groups = d.Groups
	s.rev++
}

// Document returns a deep copy of the current document.
func (s *Store) Document() domain.Document {
	return domain.Document{
		ID:           s.docID,
		Pages:        s.pages,
		ActivePageID: s.activePageID,
		Groups:       s.groups,
	}.Clone()
}

// Revision increases with every successful mutation.
func (s *Store) Revision() uint64 { return s.rev }

func (s *Store) touch() { s.rev++ }

// ---- pages ----

func pageIndex(pages []domain.Page, id string) int {
	for i := range pages {
		if pages[i].ID == id {
			return i
		}
	}
	return -1
}

// ActivePageID returns the id of the page blocks are added to by default.
func (s *Store) ActivePageID() string { return s.activePageID }

// ActivePage returns a copy of the active page.
func (s *Store) ActivePage() (domain.Page, bool) {
	i := pageIndex(s.pages, s.activePageID)
	if i < 0 {
		return domain.Page{}, false
	}
	return s.pages[i].Clone(), true
}

// SetActivePage switches the active page; unknown ids are ignored.
func (s *Store) SetActivePage(id string) bool {
	if pageIndex(s.pages, id) < 0 {
		s.log.Debug("set active page: not found", slog.String("page", id))
		return false
	}
	s.activePageID = id
	s.touch()
	return true
}

// AddPage appends an empty page and returns its id.
func (s *Store) AddPage(title string) string {
	id := domain.NewPageID()
	s.pages = append(s.pages, domain.Page{ID: id, Title: title})
	s.touch()
	return id
}

// Pages returns copies of all pages in order.
func (s *Store) Pages() []domain.Page {
	out := make([]domain.Page, len(s.pages))
	for i, p := range s.pages {
		out[i] = p.Clone()
	}
	return out
}

// Blocks returns copies of the active page's blocks in page order.
func (s *Store) Blocks() []domain.Block {
	bs, _ := s.PageBlocks(s.activePageID)
	return bs
}

// PageBlocks returns copies of a page's blocks in page order.
func (s *Store) PageBlocks(pageID string) ([]domain.Block, bool) {
	i := pageIndex(s.pages, pageID)
	if i < 0 {
		return nil, false
	}
	out := make([]domain.Block, len(s.pages[i].Blocks))
	for j, b := range s.pages[i].Blocks {
		out[j] = b.Clone()
	}
	return out, true
}

// ---- lookups ----

func (s *Store) locate(id string) (pi, bi int, ok bool) {
	if id == "" {
		return -1, -1, false
	}
	for pi = range s.pages {
		for bi = range s.pages[pi].Blocks {
			if s.pages[pi].Blocks[bi].ID == id {
				return pi, bi, true
			}
		}
	}
	return -1, -1, false
}

func (s *Store) groupIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.groups {
		if s.groups[i].ID == id {
			return i
		}
	}
	return -1
}

// GetBlockByID returns a copy of the block.
func (s *Store) GetBlockByID(id string) (domain.Block, bool) {
	pi, bi, ok := s.locate(id)
	if !ok {
		return domain.Block{}, false
	}
	return s.pages[pi].Blocks[bi].Clone(), true
}

// GetGroupByID returns a copy of the group.
func (s *Store) GetGroupByID(id string) (domain.Group, bool) {
	i := s.groupIndex(id)
	if i < 0 {
		return domain.Group{}, false
	}
	return s.groups[i].Clone(), true
}

// FindPageContainingBlock returns the id of the page holding the block.
func (s *Store) FindPageContainingBlock(id string) (string, bool) {
	pi, _, ok := s.locate(id)
	if !ok {
		return "", false
	}
	return s.pages[pi].ID, true
}

// Groups returns copies of all groups.
func (s *Store) Groups() []domain.Group {
	out := make([]domain.Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

// Resolve tags id with the kind of entity it names, by lookup.
func (s *Store) Resolve(id string) domain.Ref {
	if s.groupIndex(id) >= 0 {
		return domain.Ref{Kind: domain.KindGroup, ID: id}
	}
	if _, _, ok := s.locate(id); ok {
		return domain.Ref{Kind: domain.KindBlock, ID: id}
	}
	return domain.Ref{}
}

// ---- block mutations ----

// BlockPatch lists block fields to overwrite; nil fields are left alone.
// Pointer payloads are copied, the caller keeps ownership of its values.
type BlockPatch struct {
	Position  *domain.Point
	Size      *domain.Size
	ClearSize bool // switch to auto-size; ignored when Size is set
	Rotation  *float64
	ZIndex    *int
	Locked    *bool
	Crop      *domain.Crop
	ClearCrop bool
	Text      *domain.TextProps
	Line      *domain.LineProps
	Palette   *[]string
	Src       *string
}

// Empty reports whether the patch changes nothing.
func (p BlockPatch) Empty() bool {
	return p.Position == nil && p.Size == nil && !p.ClearSize && p.Rotation == nil &&
		p.ZIndex == nil && p.Locked == nil && p.Crop == nil && !p.ClearCrop &&
		p.Text == nil && p.Line == nil && p.Palette == nil && p.Src == nil
}

// UpdateBlock merges patch into the block. Membership is not part of a block
// patch; it changes only through group mutations.
func (s *Store) UpdateBlock(id string, patch BlockPatch) bool {
	pi, bi, ok := s.locate(id)
	if !ok {
		s.log.Debug("update block: not found", slog.String("block", id))
		return false
	}
	b := &s.pages[pi].Blocks[bi]
	if patch.Position != nil {
		b.Position = *patch.Position
	}
	switch {
	case patch.Size != nil:
		sz := *patch.Size
		b.Size = &sz
	case patch.ClearSize:
		b.Size = nil
	}
	if patch.Rotation != nil {
		b.Rotation = *patch.Rotation
	}
	if patch.ZIndex != nil {
		b.ZIndex = *patch.ZIndex
	}
	if patch.Locked != nil {
		b.Locked = *patch.Locked
	}
	switch {
	case patch.Crop != nil:
		c := *patch.Crop
		b.Crop = &c
	case patch.ClearCrop:
		b.Crop = nil
	}
	if patch.Text != nil {
		t := *patch.Text
		b.Text = &t
	}
	if patch.Line != nil {
		l := *patch.Line
		b.Line = &l
	}
	if patch.Palette != nil {
		b.Palette = append([]string(nil), (*patch.Palette)...)
	}
	if patch.Src != nil {
		b.Src = *patch.Src
	}
	s.touch()
	return true
}

// ReplaceBlock overwrites the stored block with the same id, keeping its
// page and position in the page. The stored group reference is kept.
func (s *Store) ReplaceBlock(b domain.Block) bool {
	pi, bi, ok := s.locate(b.ID)
	if !ok {
		s.log.Debug("replace block: not found", slog.String("block", b.ID))
		return false
	}
	nb := b.Clone()
	nb.GroupID = s.pages[pi].Blocks[bi].GroupID
	s.pages[pi].Blocks[bi] = nb
	s.touch()
	return true
}

// AddBlockToPage appends b to the page (the active page when pageID is
// empty) and returns its id, generating one if b has none.
func (s *Store) AddBlockToPage(b domain.Block, pageID string) (string, bool) {
	return s.InsertBlockAt(b, pageID, -1)
}

// InsertBlockAt inserts b at index in the page's block list; an index out of
// range appends. A GroupID naming an existing group enrols the block in it.
func (s *Store) InsertBlockAt(b domain.Block, pageID string, index int) (string, bool) {
	if pageID == "" {
		pageID = s.activePageID
	}
	pi := pageIndex(s.pages, pageID)
	if pi < 0 {
		s.log.Debug("insert block: page not found", slog.String("page", pageID))
		return "", false
	}
	nb := b.Clone()
	if nb.ID == "" {
		nb.ID = domain.NewBlockID()
	}
	if _, _, dup := s.locate(nb.ID); dup || s.groupIndex(nb.ID) >= 0 {
		s.log.Warn("insert block: id already in use", slog.String("block", nb.ID))
		return "", false
	}
	gi := s.groupIndex(nb.GroupID)
	if gi < 0 {
		nb.GroupID = ""
	}
	blocks := s.pages[pi].Blocks
	if index < 0 || index > len(blocks) {
		index = len(blocks)
	}
	blocks = append(blocks, domain.Block{})
	copy(blocks[index+1:], blocks[index:])
	blocks[index] = nb
	s.pages[pi].Blocks = blocks

	if gi >= 0 {
		g := &s.groups[gi]
		if !g.HasChild(nb.ID) {
			g.ChildIDs = append(g.ChildIDs, nb.ID)
		}
		if g.BlockOffsets == nil {
			g.BlockOffsets = map[string]domain.Point{}
		}
		if _, ok := g.BlockOffsets[nb.ID]; !ok {
			g.BlockOffsets[nb.ID] = nb.Position.Sub(g.Position)
		}
	}
	s.touch()
	return nb.ID, true
}

// Removed describes a block taken out of the document, with enough context to
// put it back exactly.
type Removed struct {
	Block  domain.Block
	PageID string
	Index  int
}

// RemoveBlock deletes the block and drops it from its group's child list and
// offsets. A group left empty is kept; membership decides its fate.
func (s *Store) RemoveBlock(id string) (Removed, bool) {
	pi, bi, ok := s.locate(id)
	if !ok {
		s.log.Debug("remove block: not found", slog.String("block", id))
		return Removed{}, false
	}
	b := s.pages[pi].Blocks[bi]
	s.pages[pi].Blocks = append(s.pages[pi].Blocks[:bi], s.pages[pi].Blocks[bi+1:]...)
	if gi := s.groupIndex(b.GroupID); gi >= 0 {
		dropChild(&s.groups[gi], id)
	}
	s.touch()
	return Removed{Block: b, PageID: s.pages[pi].ID, Index: bi}, true
}

func dropChild(g *domain.Group, id string) {
	kept := g.ChildIDs[:0]
	for _, c := range g.ChildIDs {
		if c != id {
			kept = append(kept, c)
		}
	}
	g.ChildIDs = kept
	delete(g.BlockOffsets, id)
	delete(g.PriorZ, id)
}

// SetZIndices applies a rank map produced by Arrange.
func (s *Store) SetZIndices(ranks map[string]int) {
	for _, id := range sortedKeys(ranks) {
		z := ranks[id]
		s.UpdateBlock(id, BlockPatch{ZIndex: &z})
	}
}
