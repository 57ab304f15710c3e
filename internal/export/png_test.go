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
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"triptych/internal/domain"
)

func rgbaAt(t *testing.T, img interface{ At(x, y int) color.Color }, x, y int) color.RGBA {
	t.Helper()
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func TestRenderPNGPlacesShapesPerPanel(t *testing.T) {
	s := sheet(box("a", domain.PanelCenter, 10, 10, 40, 40))
	img, err := RenderPNG(context.Background(), s, nil, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 80 {
		t.Fatalf("bounds = %v", b)
	}
	if c := rgbaAt(t, img, 130, 30); c.R != 255 || c.G > 10 || c.B > 10 {
		t.Fatalf("inside shape = %v", c)
	}
	if c := rgbaAt(t, img, 30, 30); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("left panel must stay white, got %v", c)
	}
}

func TestRenderPNGScalesWithDPI(t *testing.T) {
	s := sheet(box("a", domain.PanelCenter, 10, 10, 40, 40))
	img, err := RenderPNG(context.Background(), s, nil, PNGOptions{DPI: 192})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 160 {
		t.Fatalf("bounds = %v", b)
	}
	if c := rgbaAt(t, img, 260, 60); c.R != 255 || c.G > 10 {
		t.Fatalf("inside shape = %v", c)
	}
	if c := rgbaAt(t, img, 215, 60); c.G != 255 {
		t.Fatalf("outside shape = %v", c)
	}
}

func TestRenderPNGRotationAndOpacity(t *testing.T) {
	bar := box("bar", domain.PanelLeft, 30, 35, 40, 10)
	bar.Frame.Rotation = 90
	ghost := box("ghost", domain.PanelRight, 10, 10, 40, 40)
	ghost.Opacity = 0.5
	hidden := box("hidden", domain.PanelRight, 60, 10, 30, 30)
	hidden.Opacity = 0
	img, err := RenderPNG(context.Background(), sheet(bar, ghost, hidden), nil, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// rotated a quarter turn the bar spans y 20..60 at x 45..55
	if c := rgbaAt(t, img, 50, 25); c.G > 10 {
		t.Fatalf("rotated bar missing at (50,25): %v", c)
	}
	if c := rgbaAt(t, img, 35, 40); c.G != 255 {
		t.Fatalf("unrotated footprint must be empty at (35,40): %v", c)
	}
	if c := rgbaAt(t, img, 230, 30); c.R != 255 || c.G < 100 || c.G > 160 {
		t.Fatalf("half transparent fill = %v", c)
	}
	if c := rgbaAt(t, img, 275, 25); c.G != 255 {
		t.Fatalf("hidden element painted: %v", c)
	}
}

func TestRenderPNGStroke(t *testing.T) {
	ring := box("ring", domain.PanelLeft, 20, 20, 40, 40)
	ring.Shape.FillColor = "none"
	ring.Shape.StrokeColor = "#000000"
	ring.Shape.StrokeWidth = 4
	img, err := RenderPNG(context.Background(), sheet(ring), nil, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if c := rgbaAt(t, img, 20, 40); c.R > 60 {
		t.Fatalf("stroke missing on the left edge: %v", c)
	}
	if c := rgbaAt(t, img, 40, 40); c.R != 255 {
		t.Fatalf("unfilled interior painted: %v", c)
	}
}

func TestRenderPNGImagesAndText(t *testing.T) {
	pic := box("pic", domain.PanelLeft, 0, 0, 20, 20)
	pic.Kind, pic.Shape = domain.KindImage, nil
	pic.Image = &domain.ImageSource{Src: "mem://blue"}
	missing := pic
	missing.ID = "missing"
	missing.Frame.X = 40
	missing.Image = &domain.ImageSource{Src: "mem://gone"}
	label := box("label", domain.PanelCenter, 0, 0, 100, 60)
	label.Kind, label.Shape = domain.KindText, nil
	label.Text = &domain.TextStyle{Text: "HELLO", FontFamily: "Go", FontSize: 32, Color: "#000000", TextAlign: "left"}

	imgs := fakeImages{"mem://blue": solid(4, 4, color.RGBA{0, 0, 255, 255})}
	img, err := RenderPNG(context.Background(), sheet(pic, missing, label), imgs, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if c := rgbaAt(t, img, 10, 10); c.B != 255 || c.R > 10 {
		t.Fatalf("image pixel = %v", c)
	}
	if c := rgbaAt(t, img, 50, 10); c.R < 0xd0 || c.R > 0xf0 || c.R != c.B {
		t.Fatalf("placeholder pixel = %v", c)
	}
	dark := 0
	for y := 0; y < 60; y++ {
		for x := 100; x < 200; x++ {
			if rgbaAt(t, img, x, y).R < 128 {
				dark++
			}
		}
	}
	if dark < 50 {
		t.Fatalf("text left only %d dark pixels", dark)
	}
}

func TestRenderPNGCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderPNG(ctx, sheet(box("a", domain.PanelLeft, 0, 0, 30, 30)), nil, PNGOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestExportPNGWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "fair.png")
	imgs := fakeImages{"mem://logo": solid(8, 8, color.RGBA{0, 255, 0, 255})}
	if err := ExportPNG(context.Background(), sceneSnapshot(t), imgs, out, PNGOptions{IncludeGuides: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil || st.Size() == 0 {
		t.Fatalf("png missing or empty: %v", err)
	}
}
