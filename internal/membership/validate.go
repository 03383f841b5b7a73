/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package membership

import (
	"fmt"

	"go.uber.org/multierr"

	"gocomposer/internal/domain"
)

type blockLoc struct{ page, idx int }

func indexBlocks(doc domain.Document) map[string]blockLoc {
	out := map[string]blockLoc{}
	for pi, p := range doc.Pages {
		for bi, b := range p.Blocks {
			out[b.ID] = blockLoc{pi, bi}
		}
	}
	return out
}

// Validate reports every membership inconsistency in doc. The returned error
// combines all findings; use multierr.Errors to list them.
func Validate(doc domain.Document) error {
	var err error
	loc := indexBlocks(doc)
	groupIDs := map[string]bool{}
	for _, g := range doc.Groups {
		if groupIDs[g.ID] {
			err = multierr.Append(err, fmt.Errorf("group %s: duplicate id", g.ID))
		}
		groupIDs[g.ID] = true
		if _, clash := loc[g.ID]; clash {
			err = multierr.Append(err, fmt.Errorf("group %s: id also used by a block", g.ID))
		}
		if len(g.ChildIDs) == 0 {
			err = multierr.Append(err, fmt.Errorf("group %s: no children", g.ID))
		}
		seen := map[string]bool{}
		for _, id := range g.ChildIDs {
			if seen[id] {
				err = multierr.Append(err, fmt.Errorf("group %s: child %s listed twice", g.ID, id))
				continue
			}
			seen[id] = true
			l, ok := loc[id]
			if !ok {
				err = multierr.Append(err, fmt.Errorf("group %s: child %s does not exist", g.ID, id))
				continue
			}
			if b := doc.Pages[l.page].Blocks[l.idx]; b.GroupID != g.ID {
				err = multierr.Append(err, fmt.Errorf("group %s: child %s references group %q", g.ID, id, b.GroupID))
			}
			if _, ok := g.BlockOffsets[id]; !ok {
				err = multierr.Append(err, fmt.Errorf("group %s: no offset for child %s", g.ID, id))
			}
		}
		for id := range g.BlockOffsets {
			if !seen[id] {
				err = multierr.Append(err, fmt.Errorf("group %s: offset for non-member %s", g.ID, id))
			}
		}
	}
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			if b.GroupID == "" {
				continue
			}
			if !groupIDs[b.GroupID] {
				err = multierr.Append(err, fmt.Errorf("block %s: references missing group %s", b.ID, b.GroupID))
			}
		}
	}
	return err
}

// Repair returns a copy of doc with consistent membership and the number of
// fixes applied. Each group keeps the children that exist and are not
// claimed by an earlier group; missing offsets are taken from current
// positions; groups left empty are dropped; every block's reference is set
// from the surviving child lists.
func Repair(doc domain.Document) (domain.Document, int) {
	out := doc.Clone()
	loc := indexBlocks(out)
	fixes := 0
	owner := map[string]string{}
	seenGroup := map[string]bool{}
	kept := out.Groups[:0]
	for _, g := range out.Groups {
		if _, clash := loc[g.ID]; clash || g.ID == "" || seenGroup[g.ID] {
			fixes++
			continue
		}
		seenGroup[g.ID] = true
		var children []string
		for _, id := range g.ChildIDs {
			if _, ok := loc[id]; !ok || owner[id] != "" {
				fixes++
				continue
			}
			owner[id] = g.ID
			children = append(children, id)
		}
		if len(children) == 0 {
			fixes++
			continue
		}
		g.ChildIDs = children
		if g.BlockOffsets == nil {
			g.BlockOffsets = map[string]domain.Point{}
		}
		for id := range g.BlockOffsets {
			if owner[id] != g.ID {
				delete(g.BlockOffsets, id)
				fixes++
			}
		}
		for id := range g.PriorZ {
			if owner[id] != g.ID {
				delete(g.PriorZ, id)
			}
		}
		for _, id := range children {
			if _, ok := g.BlockOffsets[id]; !ok {
				l := loc[id]
				g.BlockOffsets[id] = out.Pages[l.page].Blocks[l.idx].Position.Sub(g.Position)
				fixes++
			}
		}
		kept = append(kept, g)
	}
	out.Groups = kept
	for pi := range out.Pages {
		for bi := range out.Pages[pi].Blocks {
			b := &out.Pages[pi].Blocks[bi]
			if want := owner[b.ID]; b.GroupID != want {
				b.GroupID = want
				fixes++
			}
		}
	}
	return out, fixes
}
