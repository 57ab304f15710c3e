/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"triptych/internal/domain"
	applog "triptych/internal/log"
	"triptych/internal/render"
	"triptych/internal/vector"
)

// PDFOptions controls PDF export. The page is the physical sheet size in
// millimeters; panels sit side by side on one page.
//
// Text uses the core PDF fonts (Helvetica, Times, Courier) picked from the
// element's family list, so nothing is embedded.
type PDFOptions struct {
	IncludeGuides bool
	GuideColor    string // default red
}

// ExportPDF writes the snapshot as a one-page PDF at outPath.
func ExportPDF(ctx context.Context, snap render.Snapshot, imgs Images, outPath string, opt PDFOptions) error {
	sw, sh := sheetSize(snap)
	if sw <= 0 || sh <= 0 || snap.WidthMM <= 0 || snap.HeightMM <= 0 {
		return fmt.Errorf("empty sheet %gx%g mm", snap.WidthMM, snap.HeightMM)
	}
	// millimeters per canvas pixel
	u := snap.WidthMM / sw

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: snap.WidthMM, Ht: snap.HeightMM},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(snap.ProjectName, true)
	pdf.SetCreator("triptych", true)
	pdf.AddPage()

	w := &pdfWriter{pdf: pdf, u: u, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	images := resolveImages(ctx, snap, imgs)
	for _, d := range snap.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Visible() {
			continue
		}
		pdf.SetAlpha(vector.Clamp(d.Opacity, 0, 1), "Normal")
		switch {
		case d.Shape != nil:
			w.shape(snap, d)
		case d.Text != nil:
			w.text(snap, d)
		case d.Image != nil:
			w.image(snap, d, images[d.Image.Src])
		}
		pdf.SetAlpha(1, "Normal")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("draw %s: %w", d.ID, err)
		}
	}

	if opt.IncludeGuides {
		gc, ok := parseColor(opt.GuideColor)
		if !ok {
			gc, _ = parseColor("red")
		}
		pdf.SetDrawColor(int(gc.R), int(gc.G), int(gc.B))
		pdf.SetLineWidth(0.2)
		pdf.Rect(0, 0, snap.WidthMM, snap.HeightMM, "D")
		pdf.SetDashPattern([]float64{2, 1}, 0)
		for i := 1; i < len(snap.Panels); i++ {
			x := float64(i) * snap.PanelW * u
			pdf.Line(x, 0, x, snap.HeightMM)
		}
		pdf.SetDashPattern(nil, 0)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	applog.WithOperation(applog.WithComponent("export"), "pdf").Debug("pdf written",
		slog.String("path", outPath), slog.Int("items", len(snap.Items)))
	return nil
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	u   float64
	tr  func(string) string
	n   int
}

// toPage maps element-local pixels to page millimeters.
func (w *pdfWriter) toPage(s render.Snapshot, d render.Drawable) vector.Affine2D {
	return vector.Scale(w.u, w.u).Mul(itemMatrix(s, d))
}

// rotated runs fn with the page rotated about the element center, so fn can
// draw an axis-aligned frame at (x, y).
func (w *pdfWriter) rotated(s render.Snapshot, d render.Drawable, fn func(x, y, wd, ht float64)) {
	o := s.SheetPoint(d.Panel, vector.Pt{X: d.Frame.X, Y: d.Frame.Y})
	x, y := o.X*w.u, o.Y*w.u
	wd, ht := d.Frame.Width*w.u, d.Frame.Height*w.u
	if d.Frame.Rotation == 0 {
		fn(x, y, wd, ht)
		return
	}
	w.pdf.TransformBegin()
	// gofpdf angles run counter-clockwise.
	w.pdf.TransformRotate(-d.Frame.Rotation, x+wd/2, y+ht/2)
	fn(x, y, wd, ht)
	w.pdf.TransformEnd()
}

func (w *pdfWriter) shape(s render.Snapshot, d render.Drawable) {
	st := d.Shape
	r := vector.R(0, 0, d.Frame.Width, d.Frame.Height)
	var p vector.Path
	switch st.ShapeType {
	case domain.ShapeEllipse:
		p = vector.EllipsePath(r)
	case domain.ShapeTriangle:
		p = vector.TrianglePath(r)
	default:
		p = vector.RectPath(r, st.CornerRadius)
	}
	style := ""
	if c, ok := parseColor(st.FillColor); ok {
		w.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		style += "F"
	}
	if c, ok := parseColor(st.StrokeColor); ok && st.StrokeWidth > 0 {
		w.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		w.pdf.SetLineWidth(st.StrokeWidth * w.u)
		style += "D"
	}
	if style == "" {
		return
	}
	w.path(p.Transform(w.toPage(s, d)), style)
}

func (w *pdfWriter) path(p vector.Path, style string) {
	for _, c := range p.Cmds {
		switch c.Op {
		case vector.MoveTo:
			w.pdf.MoveTo(c.Data[0], c.Data[1])
		case vector.LineTo:
			w.pdf.LineTo(c.Data[0], c.Data[1])
		case vector.QuadTo:
			w.pdf.CurveTo(c.Data[0], c.Data[1], c.Data[2], c.Data[3])
		case vector.CubicTo:
			w.pdf.CurveBezierCubicTo(c.Data[0], c.Data[1], c.Data[2], c.Data[3], c.Data[4], c.Data[5])
		case vector.Close:
			w.pdf.ClosePath()
		}
	}
	w.pdf.DrawPath(style)
}

func (w *pdfWriter) text(s render.Snapshot, d render.Drawable) {
	t := d.Text
	c, ok := parseColor(t.Color)
	if !ok || strings.TrimSpace(t.Text) == "" {
		return
	}
	family, style := coreFont(t)
	sizeMM := t.FontSize * w.u
	w.pdf.SetFont(family, style, vector.MmToPt(sizeMM))
	w.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	align := map[string]string{"center": "C", "right": "R", "justify": "J"}[t.TextAlign]
	if align == "" {
		align = "L"
	}
	w.pdf.SetCellMargin(0)
	w.rotated(s, d, func(x, y, wd, _ float64) {
		w.pdf.SetXY(x, y)
		w.pdf.MultiCell(wd, sizeMM*1.2, w.tr(t.Text), "", align, false)
	})
}

// coreFont maps a CSS family list and style to a core PDF font.
func coreFont(t *domain.TextStyle) (family, style string) {
	family = "Helvetica"
	for _, f := range strings.Split(strings.ToLower(t.FontFamily), ",") {
		f = strings.Trim(strings.TrimSpace(f), "\"'")
		switch {
		case strings.Contains(f, "courier") || f == "monospace":
			family = "Courier"
		case strings.Contains(f, "times") || f == "serif" || strings.Contains(f, "georgia"):
			family = "Times"
		case f == "":
			continue
		}
		break
	}
	if strings.EqualFold(t.FontWeight, "bold") {
		style += "B"
	}
	if strings.EqualFold(t.FontStyle, "italic") {
		style += "I"
	}
	if strings.EqualFold(t.TextDecoration, "underline") {
		style += "U"
	}
	return family, style
}

func (w *pdfWriter) image(s render.Snapshot, d render.Drawable, img image.Image) {
	if img == nil {
		w.pdf.SetFillColor(0xe0, 0xe0, 0xe0)
		w.pdf.SetDrawColor(0x99, 0x99, 0x99)
		w.pdf.SetLineWidth(0.2)
		w.path(vector.RectPath(vector.R(0, 0, d.Frame.Width, d.Frame.Height), 0).Transform(w.toPage(s, d)), "FD")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		w.pdf.SetError(fmt.Errorf("encode image: %w", err))
		return
	}
	w.n++
	name := fmt.Sprintf("img-%d", w.n)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader(name, opts, &buf)
	w.rotated(s, d, func(x, y, wd, ht float64) {
		w.pdf.ImageOptions(name, x, y, wd, ht, false, opts, 0, "")
	})
}
