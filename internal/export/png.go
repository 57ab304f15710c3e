/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	"triptych/internal/domain"
	"triptych/internal/render"
	"triptych/internal/textlayout"
	"triptych/internal/vector"
)

// PNGOptions controls raster export.
type PNGOptions struct {
	DPI           int // default CanvasDPI
	IncludeGuides bool
	Background    string // default white; "none" keeps the sheet transparent
	Fonts         *textlayout.FontLibrary
}

func (o PNGOptions) scale() float64 {
	if o.DPI <= 0 {
		return 1
	}
	return float64(o.DPI) / CanvasDPI
}

// ExportPNG rasterizes the snapshot into a single PNG at outPath.
func ExportPNG(ctx context.Context, snap render.Snapshot, imgs Images, outPath string, opt PNGOptions) error {
	img, err := RenderPNG(ctx, snap, imgs, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// RenderPNG rasterizes the snapshot. The image is the whole sheet, three
// panels wide, at opt.DPI.
func RenderPNG(ctx context.Context, snap render.Snapshot, imgs Images, opt PNGOptions) (*image.RGBA, error) {
	k := opt.scale()
	sw, sh := sheetSize(snap)
	w, h := int(math.Ceil(sw*k)), int(math.Ceil(sh*k))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty sheet %gx%g", sw, sh)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := opt.Background
	if bg == "" {
		bg = "#ffffff"
	}
	if c, ok := parseColor(bg); ok {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	}
	fonts := opt.Fonts
	if fonts == nil {
		fonts = textlayout.DefaultLibrary()
	}
	r := &rasterizer{k: k, images: resolveImages(ctx, snap, imgs), provider: textlayout.OTProvider{Lib: fonts}}
	for _, d := range snap.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.Visible() {
			continue
		}
		r.item(dst, snap, d)
	}
	if opt.IncludeGuides {
		guideCol := color.NRGBA{R: 255, A: 160}
		for i := 0; i <= len(snap.Panels); i++ {
			x := float64(i) * snap.PanelW * k
			fillRect(dst, x-k/2, 0, x+k/2, float64(h), guideCol)
		}
		fillRect(dst, 0, 0, float64(w), k, guideCol)
		fillRect(dst, 0, float64(h)-k, float64(w), float64(h), guideCol)
	}
	return dst, nil
}

type rasterizer struct {
	k        float64
	images   map[string]image.Image
	provider textlayout.Provider
}

// item paints d unrotated into an offscreen buffer at device scale, then
// composites it through the element transform.
func (r *rasterizer) item(dst *image.RGBA, s render.Snapshot, d render.Drawable) {
	lw, lh := d.Frame.Width*r.k, d.Frame.Height*r.k
	pad := 1.0
	if d.Shape != nil {
		pad += math.Ceil(d.Shape.StrokeWidth * r.k / 2)
	}
	off := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(lw+2*pad)), int(math.Ceil(lh+2*pad))))
	frame := vector.R(pad, pad, lw, lh)
	switch {
	case d.Shape != nil:
		r.shape(off, frame, d.Shape)
	case d.Text != nil:
		r.text(off, frame, d.Text)
	case d.Image != nil:
		r.picture(off, frame, d.Image)
	}

	m := vector.Scale(r.k, r.k).Mul(itemMatrix(s, d)).Mul(vector.Scale(1/r.k, 1/r.k)).Mul(vector.Translate(-pad, -pad))
	s2d := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	var opts *draw.Options
	if d.Opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(vector.Clamp(d.Opacity, 0, 1)*255 + 0.5)})}
	}
	draw.BiLinear.Transform(dst, s2d, off, off.Bounds(), draw.Over, opts)
}

func (r *rasterizer) shape(off *image.RGBA, frame vector.Rect, st *domain.ShapeStyle) {
	var p vector.Path
	switch st.ShapeType {
	case domain.ShapeEllipse:
		p = vector.EllipsePath(frame)
	case domain.ShapeTriangle:
		p = vector.TrianglePath(frame)
	default:
		p = vector.RectPath(frame, st.CornerRadius*r.k)
	}
	polys := p.Flatten(24)
	if c, ok := parseColor(st.FillColor); ok {
		fillPolys(off, polys, c)
	}
	if c, ok := parseColor(st.StrokeColor); ok && st.StrokeWidth > 0 {
		strokePolys(off, polys, st.StrokeWidth*r.k, c)
	}
}

func (r *rasterizer) text(off *image.RGBA, frame vector.Rect, t *domain.TextStyle) {
	c, ok := parseColor(t.Color)
	if !ok {
		return
	}
	spec := textlayout.SpecFor(t)
	spec.SizePx *= r.k
	box := textlayout.NewWordWrap(r.provider).Layout(t.Text, spec, frame.W, t.TextAlign)
	face, met := r.provider.Resolve(spec)
	defer face.Close()

	dr := &font.Drawer{Dst: off, Src: image.NewUniform(c), Face: face}
	for _, line := range box.Lines {
		y := frame.Y + line.Baseline
		for _, w := range line.Words {
			dr.Dot = fixed.Point26_6{X: fixed.Int26_6((frame.X + w.X) * 64), Y: fixed.Int26_6(y * 64)}
			dr.DrawString(w.Text)
		}
		if t.TextDecoration == "underline" && len(line.Words) > 0 {
			first, last := line.Words[0], line.Words[len(line.Words)-1]
			uy := y + met.Descent/2
			fillRect(off, frame.X+first.X, uy, frame.X+last.X+last.Width, uy+max(1, spec.SizePx/14), c)
		}
	}
}

func (r *rasterizer) picture(off *image.RGBA, frame vector.Rect, src *domain.ImageSource) {
	img := r.images[src.Src]
	if img == nil {
		polys := vector.RectPath(frame, 0).Flatten(0)
		fillPolys(off, polys, color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff})
		strokePolys(off, polys, max(1, r.k), color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
		return
	}
	rect := image.Rect(int(math.Round(frame.X)), int(math.Round(frame.Y)),
		int(math.Round(frame.X+frame.W)), int(math.Round(frame.Y+frame.H)))
	draw.CatmullRom.Scale(off, rect, img, img.Bounds(), draw.Over, nil)
}

func fillPolys(dst *image.RGBA, polys []vector.Polyline, c color.NRGBA) {
	b := dst.Bounds()
	z := xvector.NewRasterizer(b.Dx(), b.Dy())
	for _, pl := range polys {
		if len(pl.Pts) < 3 {
			continue
		}
		polygon(z, pl.Pts...)
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokePolys paints a stroke of the given width centered on each polyline.
// Every segment quad and join octagon winds the same way so overlaps add up
// instead of cancelling.
func strokePolys(dst *image.RGBA, polys []vector.Polyline, width float64, c color.NRGBA) {
	hw := width / 2
	b := dst.Bounds()
	z := xvector.NewRasterizer(b.Dx(), b.Dy())
	for _, pl := range polys {
		pts := pl.Pts
		if pl.Closed && len(pts) > 1 {
			pts = append(pts[:len(pts):len(pts)], pts[0])
		}
		for i := 1; i < len(pts); i++ {
			a, e := pts[i-1], pts[i]
			l := vector.Distance(a, e)
			if l == 0 {
				continue
			}
			n := vector.Pt{X: -(e.Y - a.Y) / l * hw, Y: (e.X - a.X) / l * hw}
			polygon(z, a.Add(n), e.Add(n), e.Sub(n), a.Sub(n))
		}
		for _, p := range pts {
			var oct [8]vector.Pt
			for i := range oct {
				th := -float64(i) * math.Pi / 4
				oct[i] = vector.Pt{X: p.X + hw*math.Cos(th), Y: p.Y + hw*math.Sin(th)}
			}
			polygon(z, oct[:]...)
		}
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func polygon(z *xvector.Rasterizer, pts ...vector.Pt) {
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, q := range pts[1:] {
		z.LineTo(float32(q.X), float32(q.Y))
	}
	z.ClosePath()
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 float64, c color.NRGBA) {
	r := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}
