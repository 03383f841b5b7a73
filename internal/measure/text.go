/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package measure

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"gocomposer/internal/domain"
)

// TextMeasurer measures text blocks with real glyph advances from the Go
// fonts. Family "mono" selects Go Mono, anything else Go Regular. Other
// block types fall back to Geometric.
type TextMeasurer struct {
	DPI float64 // default 72, so one point is one pixel

	regular *opentype.Font
	mono    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	mono bool
	size float64
}

func NewTextMeasurer() (*TextMeasurer, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse goregular: %w", err)
	}
	mono, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomono: %w", err)
	}
	return &TextMeasurer{regular: reg, mono: mono, faces: map[faceKey]font.Face{}}, nil
}

func (m *TextMeasurer) face(family string, size float64) (font.Face, error) {
	if size <= 0 {
		size = 12
	}
	k := faceKey{mono: strings.EqualFold(family, "mono"), size: size}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[k]; ok {
		return f, nil
	}
	dpi := m.DPI
	if dpi <= 0 {
		dpi = 72
	}
	src := m.regular
	if k.mono {
		src = m.mono
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: dpi, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("face %s %.1f: %w", family, size, err)
	}
	m.faces[k] = f
	return f, nil
}

// Measure returns the stored size for non-text blocks. Text without a size
// is measured on one line per newline; text with a size keeps its width and
// grows its height to fit the word-wrapped content.
func (m *TextMeasurer) Measure(b domain.Block) domain.Size {
	if b.Text == nil {
		return Geometric{}.Measure(b)
	}
	face, err := m.face(b.Text.FontFamily, b.Text.FontSize)
	if err != nil {
		return Geometric{}.Measure(b)
	}
	d := &font.Drawer{Face: face}
	lh := b.Text.FontSize * lineHeight(b.Text)
	paras := strings.Split(b.Text.Content, "\n")
	if b.Size == nil {
		w := 0.0
		for _, p := range paras {
			w = math.Max(w, advance(d, p))
		}
		return domain.Size{Width: math.Ceil(w), Height: float64(len(paras)) * lh}
	}
	lines := 0
	for _, p := range paras {
		lines += wrapCount(d, p, b.Size.Width)
	}
	return domain.Size{Width: b.Size.Width, Height: math.Max(b.Size.Height, float64(lines)*lh)}
}

// Close releases cached faces.
func (m *TextMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for k, f := range m.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.faces, k)
	}
	return first
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// wrapCount returns how many lines a paragraph occupies when broken on spaces
// to fit maxWidth. A single over-long word takes one line.
func wrapCount(d *font.Drawer, para string, maxWidth float64) int {
	words := strings.Fields(para)
	if len(words) == 0 || maxWidth <= 0 {
		return 1
	}
	space := advance(d, " ")
	lines, cur := 1, 0.0
	for _, w := range words {
		ww := advance(d, w)
		switch {
		case cur == 0:
			cur = ww
		case cur+space+ww > maxWidth:
			lines++
			cur = ww
		default:
			cur += space + ww
		}
	}
	return lines
}
