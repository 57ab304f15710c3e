/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes print output for a render snapshot. Coordinates in
// a snapshot are canvas pixels at 96 dpi; every writer maps them to its own
// unit (millimeters for PDF, device pixels for PNG, user units for SVG).
package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/mazznoer/csscolorparser"

	"triptych/internal/domain"
	applog "triptych/internal/log"
	"triptych/internal/render"
	"triptych/internal/vector"
)

// CanvasDPI is the resolution of snapshot coordinates.
const CanvasDPI = 96

// Images resolves an image element's src to pixels. *assets.Loader
// satisfies it.
type Images interface {
	Image(ctx context.Context, src string) (image.Image, error)
}

func sheetSize(s render.Snapshot) (w, h float64) {
	return s.PanelW * float64(len(domain.Panels)), s.PanelH
}

// itemMatrix maps element-local coordinates, origin at the top-left of the
// unrotated frame, to sheet pixels.
func itemMatrix(s render.Snapshot, d render.Drawable) vector.Affine2D {
	o := s.SheetPoint(d.Panel, vector.Pt{})
	return vector.Translate(o.X, o.Y).Mul(d.Transform()).Mul(vector.Translate(d.Frame.X, d.Frame.Y))
}

// resolveImages loads every distinct image src once. Failures are logged
// and left out; writers paint a placeholder instead.
func resolveImages(ctx context.Context, s render.Snapshot, imgs Images) map[string]image.Image {
	out := make(map[string]image.Image)
	if imgs == nil {
		return out
	}
	l := applog.WithOperation(applog.WithComponent("export"), "images")
	for _, d := range s.Items {
		if d.Image == nil || d.Image.Src == "" {
			continue
		}
		if _, seen := out[d.Image.Src]; seen {
			continue
		}
		img, err := imgs.Image(ctx, d.Image.Src)
		if err != nil {
			l.Warn("image unavailable", slog.String("id", d.ID), slog.Any("err", err))
			out[d.Image.Src] = nil
			continue
		}
		out[d.Image.Src] = img
	}
	return out
}

// parseColor accepts any CSS color (hex, rgb(), hsl(), names). ok is false
// for fully transparent colors and anything unparsable, "none" included.
func parseColor(s string) (c color.NRGBA, ok bool) {
	pc, err := csscolorparser.Parse(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return c, false
	}
	r, g, b, a := pc.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, a > 0
}

// fade scales the alpha of c by opacity.
func fade(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*vector.Clamp(opacity, 0, 1) + 0.5)
	return c
}

func hexColor(c color.NRGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// fileStem turns the project name into a safe base file name.
func fileStem(s render.Snapshot) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s.ProjectName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
	}
	stem := strings.Trim(b.String(), "-")
	if stem == "" {
		return "triptych"
	}
	return stem
}
