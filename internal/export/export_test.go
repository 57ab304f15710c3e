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
	"errors"
	"image"
	"image/color"
	"testing"

	"triptych/internal/domain"
	"triptych/internal/render"
	"triptych/internal/scene"
)

// sheet returns a small print snapshot: three 100x80 px panels.
func sheet(items ...render.Drawable) render.Snapshot {
	s := render.Snapshot{
		Mode:        render.ModePrint,
		ProjectName: "Spring Fair",
		WidthMM:     300 * 0.2645833,
		HeightMM:    80 * 0.2645833,
		PanelW:      100,
		PanelH:      80,
		Items:       items,
	}
	for i, id := range domain.Panels {
		s.Panels = append(s.Panels, render.Panel{ID: id})
		s.Panels[i].Origin.X = float64(i) * s.PanelW
	}
	return s
}

func box(id string, panel domain.PanelID, x, y, w, h float64) render.Drawable {
	return render.Drawable{
		ID:      id,
		Kind:    domain.KindShape,
		Panel:   panel,
		Frame:   domain.Frame{X: x, Y: y, Width: w, Height: h},
		Opacity: 1,
		Shape:   &domain.ShapeStyle{ShapeType: domain.ShapeRectangle, FillColor: "#ff0000"},
	}
}

type fakeImages map[string]image.Image

func (f fakeImages) Image(_ context.Context, src string) (image.Image, error) {
	if img, ok := f[src]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// sceneSnapshot builds a print snapshot through the real scene and renderer.
func sceneSnapshot(t *testing.T) render.Snapshot {
	t.Helper()
	m := scene.New(scene.Options{})
	m.SetProjectName("Spring Fair")
	r := render.New()
	r.Attach(m)
	txt := domain.NewText("Spring & Summer\nFair")
	txt.Move(20, 20)
	m.AddElement(txt)
	sh := domain.NewShape(domain.ShapeEllipse)
	sh.Panel = domain.PanelLeft
	sh.Rotate(30)
	m.AddElement(sh)
	img := domain.NewImage("mem://logo", 40, 40)
	img.Panel = domain.PanelRight
	m.AddElement(img)
	m.SelectElement(sh)
	return r.Snapshot(render.ModePrint)
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#fff":                {255, 255, 255, 255},
		"#3498db":             {0x34, 0x98, 0xdb, 255},
		"#00000080":           {0, 0, 0, 0x80},
		"rgb(10, 20, 30)":     {10, 20, 30, 255},
		"rgba(10, 20, 30, 1)": {10, 20, 30, 255},
		"hsl(0, 100%, 50%)":   {255, 0, 0, 255},
		" Red ":               {255, 0, 0, 255},
	}
	for in, want := range cases {
		got, ok := parseColor(in)
		if !ok || got != want {
			t.Fatalf("parseColor(%q) = %v %v, want %v", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "none", "transparent", "#12", "rgb(1,2)", "#00000000"} {
		if _, ok := parseColor(in); ok {
			t.Fatalf("parseColor(%q) must not paint", in)
		}
	}
}

func TestFileStem(t *testing.T) {
	s := sheet()
	s.ProjectName = "  Spring Fair 2025!"
	if got := fileStem(s); got != "spring-fair-2025" {
		t.Fatalf("stem = %q", got)
	}
	s.ProjectName = "***"
	if got := fileStem(s); got != "triptych" {
		t.Fatalf("stem = %q", got)
	}
}
