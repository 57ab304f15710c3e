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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"triptych/internal/domain"
	"triptych/internal/render"
	"triptych/internal/textlayout"
	"triptych/internal/vector"
)

// SVGOptions controls vector export. Fonts is used only to measure text
// for wrapping; the SVG names the element's own family list.
type SVGOptions struct {
	IncludeGuides bool
	Fonts         *textlayout.FontLibrary
}

// ExportSVG writes the snapshot as one SVG at outPath.
func ExportSVG(snap render.Snapshot, outPath string, opt SVGOptions) error {
	data, err := RenderSVG(snap, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// RenderSVG builds the SVG document. The user unit is one canvas pixel;
// width and height carry the physical size in millimeters.
func RenderSVG(snap render.Snapshot, opt SVGOptions) ([]byte, error) {
	sw, sh := sheetSize(snap)
	if sw <= 0 || sh <= 0 {
		return nil, fmt.Errorf("empty sheet %gx%g", sw, sh)
	}
	fonts := opt.Fonts
	if fonts == nil {
		fonts = textlayout.DefaultLibrary()
	}
	layouter := textlayout.NewWordWrap(textlayout.OTProvider{Lib: fonts})

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}
	g := func(v float64) string { return fmt.Sprint(vector.FloatRound(v, 3)) }

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%smm\" height=\"%smm\" viewBox=\"0 0 %s %s\">\n",
		g(snap.WidthMM), g(snap.HeightMM), g(sw), g(sh))
	if snap.ProjectName != "" {
		wf("  <title>%s</title>\n", escText(snap.ProjectName))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" fill=\"#ffffff\"/>\n", g(sw), g(sh))

	for _, d := range snap.Items {
		if !d.Visible() {
			continue
		}
		m := itemMatrix(snap, d)
		wf("  <g id=\"%s\" transform=\"matrix(%s %s %s %s %s %s)\"", escAttr(d.ID), g(m.A), g(m.B), g(m.C), g(m.D), g(m.E), g(m.F))
		if d.Opacity < 1 {
			wf(" opacity=\"%s\"", g(d.Opacity))
		}
		wf(">\n")
		w, h := d.Frame.Width, d.Frame.Height
		switch {
		case d.Shape != nil:
			paint := svgPaint(d.Shape)
			switch d.Shape.ShapeType {
			case domain.ShapeEllipse:
				wf("    <ellipse cx=\"%s\" cy=\"%s\" rx=\"%s\" ry=\"%s\"%s/>\n", g(w/2), g(h/2), g(w/2), g(h/2), paint)
			case domain.ShapeTriangle:
				t := vector.TrianglePoints(vector.R(0, 0, w, h))
				wf("    <polygon points=\"%s,%s %s,%s %s,%s\"%s/>\n", g(t[0].X), g(t[0].Y), g(t[1].X), g(t[1].Y), g(t[2].X), g(t[2].Y), paint)
			default:
				rad := vector.Clamp(d.Shape.CornerRadius, 0, min(w, h)/2)
				wf("    <rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" rx=\"%s\" ry=\"%s\"%s/>\n", g(w), g(h), g(rad), g(rad), paint)
			}
		case d.Text != nil:
			t := d.Text
			spec := textlayout.SpecFor(t)
			box := layouter.Layout(t.Text, spec, w, t.TextAlign)
			fill := "#000000"
			if c, ok := parseColor(t.Color); ok {
				fill = hexColor(c)
			}
			wf("    <text font-family=\"%s\" font-size=\"%s\" font-weight=\"%s\" font-style=\"%s\" text-decoration=\"%s\" fill=\"%s\" xml:space=\"preserve\">\n",
				escAttr(t.FontFamily), g(spec.SizePx), escAttr(orDefault(t.FontWeight, "normal")), escAttr(orDefault(t.FontStyle, "normal")),
				escAttr(orDefault(t.TextDecoration, "none")), fill)
			for _, line := range box.Lines {
				for _, word := range line.Words {
					wf("      <tspan x=\"%s\" y=\"%s\">%s</tspan>\n", g(word.X), g(line.Baseline), escText(word.Text))
				}
			}
			wf("    </text>\n")
		case d.Image != nil:
			if d.Image.Src == "" {
				wf("    <rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" fill=\"#e0e0e0\" stroke=\"#999999\"/>\n", g(w), g(h))
				break
			}
			aspect := "none"
			if d.Image.MaintainRatio {
				aspect = "xMidYMid meet"
			}
			wf("    <image x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" preserveAspectRatio=\"%s\" href=\"%s\" xlink:href=\"%s\"><title>%s</title></image>\n",
				g(w), g(h), aspect, escAttr(d.Image.Src), escAttr(d.Image.Src), escText(d.Image.Alt))
		}
		wf("  </g>\n")
	}

	if opt.IncludeGuides {
		for i := 0; i <= len(snap.Panels); i++ {
			x := float64(i) * snap.PanelW
			wf("  <line x1=\"%s\" y1=\"0\" x2=\"%s\" y2=\"%s\" stroke=\"#ff0000\" stroke-width=\"0.5\" stroke-dasharray=\"4 2\"/>\n", g(x), g(x), g(sh))
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func svgPaint(st *domain.ShapeStyle) string {
	var b strings.Builder
	if c, ok := parseColor(st.FillColor); ok {
		fmt.Fprintf(&b, " fill=\"%s\"", hexColor(c))
		if c.A < 255 {
			fmt.Fprintf(&b, " fill-opacity=\"%g\"", vector.FloatRound(float64(c.A)/255, 3))
		}
	} else {
		b.WriteString(" fill=\"none\"")
	}
	if c, ok := parseColor(st.StrokeColor); ok && st.StrokeWidth > 0 {
		fmt.Fprintf(&b, " stroke=\"%s\" stroke-width=\"%g\"", hexColor(c), st.StrokeWidth)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func escAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", "\n", " ", "\r", "")
	return r.Replace(s)
}

func escText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
