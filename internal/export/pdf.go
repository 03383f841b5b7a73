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
	"io"

	"github.com/jung-kurt/gofpdf"

	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
	"gocomposer/internal/measure"
)

// RGB is an 8-bit colour.
type RGB struct{ R, G, B uint8 }

// PDFOptions controls the layout proof. Units are points; one canvas pixel
// maps to Scale points (default 1).
type PDFOptions struct {
	Measurer    measure.Measurer
	Scale       float64
	Margin      float64 // default 24
	Labels      bool
	Title       string
	BlockStroke RGB
	CropStroke  RGB
	GroupStroke RGB
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Margin <= 0 {
		o.Margin = 24
	}
	if o.BlockStroke == (RGB{}) {
		o.BlockStroke = RGB{40, 40, 40}
	}
	if o.CropStroke == (RGB{}) {
		o.CropStroke = RGB{200, 30, 30}
	}
	if o.GroupStroke == (RGB{}) {
		o.GroupStroke = RGB{30, 90, 200}
	}
	return o
}

// fills per block type, drawn translucent under the outline
var typeFill = map[domain.BlockType]RGB{
	domain.BlockText:    {120, 160, 230},
	domain.BlockImage:   {180, 180, 180},
	domain.BlockLine:    {90, 90, 90},
	domain.BlockPalette: {230, 190, 90},
	domain.BlockOther:   {200, 200, 200},
}

// PagePDF writes a one-page PDF proof of page pageID to out.
func PagePDF(doc domain.Document, pageID string, out io.Writer, opt PDFOptions) error {
	opt = opt.withDefaults()
	l, err := PageLayout(doc, pageID, opt.Measurer)
	if err != nil {
		return err
	}
	cv := fit(l, opt.Margin, opt.Scale)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: cv.w, Ht: cv.h},
	})
	title := opt.Title
	if title == "" {
		title = l.Title
	}
	pdf.SetTitle(fmt.Sprintf("%s layout proof", title), true)
	pdf.SetAuthor("Go Composer", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 7)

	for _, s := range l.Blocks {
		fill := typeFill[s.Type]
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		pdf.SetAlpha(0.35, "Normal")
		pdf.Polygon(points(cv, s.Visible), "F")
		pdf.SetAlpha(1, "Normal")

		setDraw(pdf, opt.BlockStroke)
		pdf.SetLineWidth(0.8)
		if s.Locked {
			pdf.SetLineWidth(1.6)
		}
		pdf.Polygon(points(cv, s.Outline), "D")
		if s.Cropped {
			setDraw(pdf, opt.CropStroke)
			pdf.SetLineWidth(0.6)
			pdf.Polygon(points(cv, s.Visible), "D")
		}
		if opt.Labels {
			x, y := cv.at(s.Outline[0])
			pdf.SetTextColor(int(opt.BlockStroke.R), int(opt.BlockStroke.G), int(opt.BlockStroke.B))
			pdf.Text(x+2, y+8, tr(s.Label))
		}
	}

	setDraw(pdf, opt.GroupStroke)
	pdf.SetLineWidth(0.8)
	pdf.SetDashPattern([]float64{4, 3}, 0)
	for _, s := range l.Groups {
		pdf.Polygon(points(cv, s.Outline), "D")
		if opt.Labels {
			x, y := cv.at(s.Outline[0])
			pdf.SetTextColor(int(opt.GroupStroke.R), int(opt.GroupStroke.G), int(opt.GroupStroke.B))
			pdf.Text(x, y-2, tr(s.Label))
		}
	}
	pdf.SetDashPattern(nil, 0)

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func points(cv canvas, pts [4]geometry.Pt) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		x, y := cv.at(p)
		out[i] = gofpdf.PointType{X: x, Y: y}
	}
	return out
}

func setDraw(pdf *gofpdf.Fpdf, c RGB) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}
