/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Clone returns a deep copy of the block. Every pointer, slice and map field
// is copied so that later mutation of the live block cannot reach the copy.
func (b Block) Clone() Block {
	out := b
	if b.Size != nil {
		s := *b.Size
		out.Size = &s
	}
	if b.Crop != nil {
		c := *b.Crop
		out.Crop = &c
	}
	if b.Text != nil {
		t := *b.Text
		out.Text = &t
	}
	if b.Line != nil {
		l := *b.Line
		out.Line = &l
	}
	if b.Palette != nil {
		out.Palette = append([]string(nil), b.Palette...)
	}
	return out
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	out := g
	out.ChildIDs = append([]string(nil), g.ChildIDs...)
	if g.BlockOffsets != nil {
		out.BlockOffsets = make(map[string]Point, len(g.BlockOffsets))
		for k, v := range g.BlockOffsets {
			out.BlockOffsets[k] = v
		}
	}
	if g.PriorZ != nil {
		out.PriorZ = make(map[string]int, len(g.PriorZ))
		for k, v := range g.PriorZ {
			out.PriorZ[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	out.Blocks = make([]Block, len(p.Blocks))
	for i, b := range p.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	out.Groups = make([]Group, len(d.Groups))
	for i, g := range d.Groups {
		out.Groups[i] = g.Clone()
	}
	return out
}

// SameGeometry reports whether two snapshots of a block agree on every field
// an interaction can change.
func (b Block) SameGeometry(o Block) bool {
	if b.Position != o.Position || b.Rotation != o.Rotation {
		return false
	}
	if (b.Size == nil) != (o.Size == nil) || (b.Size != nil && *b.Size != *o.Size) {
		return false
	}
	if (b.Crop == nil) != (o.Crop == nil) || (b.Crop != nil && *b.Crop != *o.Crop) {
		return false
	}
	return b.FontSize() == o.FontSize()
}

// SameGeometry reports whether two snapshots of a group agree on transform
// fields and stored offsets.
func (g Group) SameGeometry(o Group) bool {
	if g.Position != o.Position || g.Size != o.Size || g.Rotation != o.Rotation {
		return false
	}
	if len(g.BlockOffsets) != len(o.BlockOffsets) {
		return false
	}
	for k, v := range g.BlockOffsets {
		if w, ok := o.BlockOffsets[k]; !ok || w != v {
			return false
		}
	}
	return true
}
