/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and word-wraps the text of text elements for
// the raster and vector exporters.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"triptych/internal/domain"
)

// FontSpec is a resolved font request. Sizes are canvas pixels.
type FontSpec struct {
	Families []string // CSS family list, first preferred
	SizePx   float64
	Bold     bool
	Italic   bool
}

func (s FontSpec) size() float64 {
	if s.SizePx <= 0 {
		return domain.DefaultFontSize
	}
	return s.SizePx
}

// SpecFor derives the font request of a text element.
func SpecFor(t *domain.TextStyle) FontSpec {
	if t == nil {
		return FontSpec{SizePx: domain.DefaultFontSize}
	}
	var fams []string
	for _, f := range strings.Split(t.FontFamily, ",") {
		f = strings.Trim(strings.TrimSpace(f), "\"'")
		if f != "" {
			fams = append(fams, f)
		}
	}
	return FontSpec{
		Families: fams,
		SizePx:   t.FontSize,
		Bold:     t.FontWeight == "bold" || t.FontWeight == "700",
		Italic:   t.FontStyle == "italic",
	}
}

// Metrics are line metrics in pixels. Scale converts the face's advances
// to the requested size for faces that cannot be sized.
type Metrics struct {
	Ascent, Descent, LineGap float64
	Scale                    float64
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a FontSpec to a concrete face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses basicfont.Face7x13 scaled to the requested size. It
// is deterministic and needs no font files.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f, spec.size()/float64(f.Height))
}

func metricsOf(f font.Face, scale float64) Metrics {
	m := f.Metrics()
	asc := float64(m.Ascent.Round())
	desc := float64(m.Descent.Round())
	gap := float64(m.Height.Round()) - asc - desc
	if gap < 0 {
		gap = 0
	}
	return Metrics{Ascent: asc * scale, Descent: desc * scale, LineGap: gap * scale, Scale: scale}
}

// Word is a placed word; X is relative to the box's left edge.
type Word struct {
	Text  string
	X     float64
	Width float64
}

// Line is one laid out line. Baseline is relative to the box's top edge.
type Line struct {
	Words    []Word
	Width    float64
	Baseline float64
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Box is the result of laying out a text into a width.
type Box struct {
	Lines   []Line
	Width   float64 // widest line
	Height  float64
	Metrics Metrics
}

// Layouter breaks text into lines.
type Layouter interface {
	Layout(text string, spec FontSpec, maxWidth float64, align string) Box
}

// WordWrapLayouter breaks on spaces and newlines. Words wider than the box
// stand alone on their line; there is no hyphenation.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) provider() Provider {
	if l.Provider == nil {
		return BasicProvider{}
	}
	return l.Provider
}

// Layout wraps text into maxWidth (no wrapping when maxWidth <= 0) and
// positions words for align: left, center, right or justify. Justified
// lines stretch the gaps, except the last line of each paragraph.
func (l *WordWrapLayouter) Layout(text string, spec FontSpec, maxWidth float64, align string) Box {
	face, met := l.provider().Resolve(spec)
	d := &font.Drawer{Face: face}
	adv := func(s string) float64 { return float64(d.MeasureString(s)) / 64 * met.Scale }
	space := adv(" ")

	box := Box{Metrics: met}
	var cur []Word
	var width float64
	flush := func(last bool) {
		line := Line{Words: cur, Width: width, Baseline: box.Height + met.Ascent}
		place(&line, space, maxWidth, align, last)
		box.Lines = append(box.Lines, line)
		box.Width = max(box.Width, line.Width)
		box.Height += met.LineHeight()
		cur, width = nil, 0
	}

	for _, para := range strings.Split(text, "\n") {
		for _, w := range strings.Fields(para) {
			ww := adv(w)
			if len(cur) > 0 && maxWidth > 0 && width+space+ww > maxWidth {
				flush(false)
			}
			if len(cur) > 0 {
				width += space
			}
			cur = append(cur, Word{Text: w, Width: ww})
			width += ww
		}
		flush(true)
	}
	return box
}

func place(line *Line, space, maxWidth float64, align string, last bool) {
	x := 0.0
	gap := space
	if maxWidth > 0 {
		switch align {
		case "center":
			x = (maxWidth - line.Width) / 2
		case "right":
			x = maxWidth - line.Width
		case "justify":
			if !last && len(line.Words) > 1 && line.Width < maxWidth {
				gap += (maxWidth - line.Width) / float64(len(line.Words)-1)
				line.Width = maxWidth
			}
		}
	}
	for i := range line.Words {
		line.Words[i].X = x
		x += line.Words[i].Width + gap
	}
}

// Measure returns the single-line width and the line height of text.
func Measure(provider Provider, text string, spec FontSpec) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(text)) / 64 * met.Scale, met.LineHeight()
}
