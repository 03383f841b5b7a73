/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
	"gocomposer/internal/measure"
)

// PNGOptions controls the raster thumbnail of a page proof. Scale maps
// canvas pixels to image pixels (default 0.5).
type PNGOptions struct {
	Measurer measure.Measurer
	Scale    float64
	Margin   float64 // canvas pixels, default 16
}

// PagePNG writes a PNG thumbnail of page pageID to out.
func PagePNG(doc domain.Document, pageID string, out io.Writer, opt PNGOptions) error {
	img, err := RenderPage(doc, pageID, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// RenderPage rasterizes the proof of page pageID.
func RenderPage(doc domain.Document, pageID string, opt PNGOptions) (*image.RGBA, error) {
	if opt.Scale <= 0 {
		opt.Scale = 0.5
	}
	if opt.Margin <= 0 {
		opt.Margin = 16
	}
	l, err := PageLayout(doc, pageID, opt.Measurer)
	if err != nil {
		return nil, err
	}
	cv := fit(l, opt.Margin, opt.Scale)
	w, h := int(math.Ceil(cv.w-1e-6)), int(math.Ceil(cv.h-1e-6))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	z := vector.NewRasterizer(w, h)
	paint := func(c color.Color) {
		z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
		z.Reset(w, h)
		z.DrawOp = draw.Over
	}
	z.DrawOp = draw.Over
	for _, s := range l.Blocks {
		f := typeFill[s.Type]
		fillPolygon(z, cv, s.Visible)
		paint(color.NRGBA{R: f.R, G: f.G, B: f.B, A: 96})
		width := 1.0
		if s.Locked {
			width = 2
		}
		strokePolygon(z, cv, s.Outline, width)
		paint(color.NRGBA{R: 40, G: 40, B: 40, A: 255})
		if s.Cropped {
			strokePolygon(z, cv, s.Visible, 1)
			paint(color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	for _, s := range l.Groups {
		strokePolygon(z, cv, s.Outline, 1)
	}
	if len(l.Groups) > 0 {
		paint(color.NRGBA{R: 30, G: 90, B: 200, A: 255})
	}
	return img, nil
}

func fillPolygon(z *vector.Rasterizer, cv canvas, pts [4]geometry.Pt) {
	for i, p := range pts {
		x, y := cv.at(p)
		if i == 0 {
			z.MoveTo(float32(x), float32(y))
		} else {
			z.LineTo(float32(x), float32(y))
		}
	}
	z.ClosePath()
}

// strokePolygon adds each edge as a quad of the given width in image pixels.
func strokePolygon(z *vector.Rasterizer, cv canvas, pts [4]geometry.Pt, width float64) {
	for i := range pts {
		ax, ay := cv.at(pts[i])
		bx, by := cv.at(pts[(i+1)%len(pts)])
		dx, dy := bx-ax, by-ay
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		nx, ny := -dy/n*width/2, dx/n*width/2
		z.MoveTo(float32(ax+nx), float32(ay+ny))
		z.LineTo(float32(bx+nx), float32(by+ny))
		z.LineTo(float32(bx-nx), float32(by-ny))
		z.LineTo(float32(ax-nx), float32(ay-ny))
		z.ClosePath()
	}
}
