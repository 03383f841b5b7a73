/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package measure

import (
	"math"
	"testing"

	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
)

func TestGeometricUsesStoredSize(t *testing.T) {
	b := domain.Block{Type: domain.BlockImage, Size: &domain.Size{Width: 30, Height: 20}}
	if sz := (Geometric{}).Measure(b); sz.Width != 30 || sz.Height != 20 {
		t.Fatalf("unexpected size %+v", sz)
	}
}

func TestGeometricEstimatesAutoText(t *testing.T) {
	b := domain.Block{Type: domain.BlockText, Text: &domain.TextProps{Content: "abcd\nab", FontSize: 10}}
	sz := Geometric{}.Measure(b)
	if math.Abs(sz.Width-24) > 1e-9 || math.Abs(sz.Height-24) > 1e-9 {
		t.Fatalf("unexpected estimate %+v", sz)
	}
}

func TestVisibleAppliesCrop(t *testing.T) {
	b := domain.Block{Position: domain.Point{X: 10, Y: 10}, Size: &domain.Size{Width: 100, Height: 50}, Crop: &domain.Crop{Left: 10, Right: 20, Top: 10}}
	r := Visible(Geometric{}, b)
	if r.X != 20 || r.Y != 15 || r.W != 70 || r.H != 45 {
		t.Fatalf("unexpected visible rect %+v", r)
	}
}

func TestBoundsRotated(t *testing.T) {
	b := domain.Block{Position: domain.Point{X: 0, Y: 0}, Size: &domain.Size{Width: 100, Height: 50}, Rotation: 90}
	r := Bounds(Geometric{}, b)
	if math.Abs(r.W-50) > 1e-6 || math.Abs(r.H-100) > 1e-6 || math.Abs(r.X-25) > 1e-6 || math.Abs(r.Y+25) > 1e-6 {
		t.Fatalf("unexpected rotated bounds %+v", r)
	}
}

func TestUnionBounds(t *testing.T) {
	bs := []domain.Block{
		{Position: domain.Point{X: 0, Y: 0}, Size: &domain.Size{Width: 10, Height: 10}},
		{Position: domain.Point{X: 20, Y: 5}, Size: &domain.Size{Width: 10, Height: 10}},
	}
	r, ok := UnionBounds(Geometric{}, bs)
	if !ok || r.W != 30 || r.H != 15 {
		t.Fatalf("unexpected union %+v", r)
	}
}

func TestTextMeasurer(t *testing.T) {
	m, err := NewTextMeasurer()
	if err != nil {
		t.Fatalf("new measurer: %v", err)
	}
	defer m.Close()
	short := domain.Block{Type: domain.BlockText, Text: &domain.TextProps{Content: "Hi", FontSize: 16}}
	long := domain.Block{Type: domain.BlockText, Text: &domain.TextProps{Content: "Hello, composer", FontSize: 16}}
	s1, s2 := m.Measure(short), m.Measure(long)
	if s1.Width <= 0 || s2.Width <= s1.Width {
		t.Fatalf("expected longer text to be wider: %v vs %v", s1.Width, s2.Width)
	}
	if math.Abs(s1.Height-16*defaultLineHeight) > 1e-9 {
		t.Fatalf("unexpected line height %v", s1.Height)
	}
	wrapped := long.Clone()
	wrapped.Size = &domain.Size{Width: s2.Width / 2, Height: 1}
	if got := m.Measure(wrapped); got.Height < 2*16*defaultLineHeight-1e-9 || got.Width != s2.Width/2 {
		t.Fatalf("expected wrapping to two lines, got %+v", got)
	}
	mono := domain.Block{Type: domain.BlockText, Text: &domain.TextProps{Content: "iiii", FontSize: 16, FontFamily: "mono"}}
	wide := domain.Block{Type: domain.BlockText, Text: &domain.TextProps{Content: "mmmm", FontSize: 16, FontFamily: "mono"}}
	if m.Measure(mono).Width != m.Measure(wide).Width {
		t.Fatalf("mono family must have fixed advances")
	}
}

func TestRenderedRecoversFrameFromRotatedExtent(t *testing.T) {
	r := NewRendered(nil)
	b := domain.Block{ID: "t", Type: domain.BlockText, Rotation: 30, Text: &domain.TextProps{Content: "abc", FontSize: 10}}
	W, H := geometry.Footprint(100, 40, 30)
	r.Report(b, W, H)
	sz := r.Measure(b)
	if math.Abs(sz.Width-100) > 1e-6 || math.Abs(sz.Height-40) > 1e-6 {
		t.Fatalf("expected 100x40, got %+v", sz)
	}

	b.Rotation = 45
	r.Report(b, 90, 90)
	if sz := r.Measure(b); sz.Width != 90 || sz.Height != 90 {
		t.Fatalf("singular angle must use the extent as-is, got %+v", sz)
	}

	b.Text = &domain.TextProps{Content: "changed", FontSize: 10}
	if sz := r.Measure(b); sz != (Geometric{}).Measure(b) {
		t.Fatalf("stale extent must fall back, got %+v", sz)
	}
	r.Forget("t")
	b.Text = &domain.TextProps{Content: "abc", FontSize: 10}
	if sz := r.Measure(b); sz != (Geometric{}).Measure(b) {
		t.Fatalf("forgotten extent must fall back, got %+v", sz)
	}
}
