/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the document model of the composer: pages holding blocks,
// and groups that aggregate blocks under one transform. The structs serialize
// to the JSON document exchanged with the UI and written by the storage package.

// BlockType tags the content variant of a block.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockImage   BlockType = "image"
	BlockLine    BlockType = "line"
	BlockPalette BlockType = "palette"
	BlockOther   BlockType = "other"
)

// Point is a canvas-local position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Crop holds percentage insets (0..100) trimming each edge of an image.
type Crop struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextProps carries the text-specific fields of a block.
type TextProps struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize"`
	LineHeight float64 `json:"lineHeight,omitempty"` // multiple of FontSize, 0 means 1.2
}

// LineProps carries stroke settings of a line block.
type LineProps struct {
	StrokeWidth float64 `json:"strokeWidth"`
	Color       string  `json:"color,omitempty"`
}

// Block is a positioned content element on a page.
// Size is nil for auto-sized text; its extent is then measured.
type Block struct {
	ID       string     `json:"id"`
	Type     BlockType  `json:"type"`
	Position Point      `json:"position"`
	Size     *Size      `json:"size,omitempty"`
	Rotation float64    `json:"rotation"` // degrees, clockwise
	ZIndex   int        `json:"zIndex"`
	Locked   bool       `json:"locked,omitempty"`
	GroupID  string     `json:"groupId,omitempty"` // weak back-reference
	Crop     *Crop      `json:"crop,omitempty"`
	Text     *TextProps `json:"text,omitempty"`
	Line     *LineProps `json:"line,omitempty"`
	Palette  []string   `json:"palette,omitempty"`
	Src      string     `json:"src,omitempty"`
}

// Group is a composite transform node over member blocks.
// BlockOffsets hold each child's position relative to Position. They are
// captured on creation and re-derived only by explicit resize/rotate.
type Group struct {
	ID           string           `json:"id"`
	ChildIDs     []string         `json:"childIds"`
	Position     Point            `json:"position"`
	Size         Size             `json:"size"`
	Rotation     float64          `json:"rotation"`
	BlockOffsets map[string]Point `json:"blockOffsets"`
	PriorZ       map[string]int   `json:"priorZ,omitempty"`
}

// Page is an ordered list of blocks.
type Page struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Document is the persisted unit: the ordered pages with the active page
// (the project) plus the parallel group list.
type Document struct {
	ID           string  `json:"id"`
	Pages        []Page  `json:"pages"`
	ActivePageID string  `json:"activePageId"`
	Groups       []Group `json:"groups"`
}

// HasSize reports whether the block carries an explicit size.
func (b Block) HasSize() bool { return b.Size != nil }

// Dims returns the stored size or zero for auto-sized blocks.
func (b Block) Dims() Size {
	if b.Size == nil {
		return Size{}
	}
	return *b.Size
}

// FontSize returns the text font size, or 0 for non-text blocks.
func (b Block) FontSize() float64 {
	if b.Text == nil {
		return 0
	}
	return b.Text.FontSize
}

// HasChild reports whether id is listed as a member.
func (g Group) HasChild(id string) bool {
	for _, c := range g.ChildIDs {
		if c == id {
			return true
		}
	}
	return false
}
