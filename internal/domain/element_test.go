/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"triptych/internal/vector"
)

func TestDefaultsPerVariant(t *testing.T) {
	txt := NewText("hello")
	if txt.Width != 100 || txt.Height != 100 || txt.Opacity != 1 || txt.Panel != PanelCenter {
		t.Fatalf("unexpected base defaults: %+v", txt.Base)
	}
	if txt.Text.FontSize != 16 || txt.Text.Color != "#000000" || txt.Text.TextAlign != "left" {
		t.Fatalf("unexpected text defaults: %+v", txt.Text)
	}
	img := NewImage("a.png", 200, 100)
	if !img.Image.MaintainRatio || img.Image.Alt != "Image" {
		t.Fatalf("unexpected image defaults: %+v", img.Image)
	}
	sh := NewShape("hexagon")
	if sh.Shape.ShapeType != ShapeRectangle || sh.Shape.FillColor != "#3498db" || sh.Shape.StrokeWidth != 1 {
		t.Fatalf("unexpected shape defaults: %+v", sh.Shape)
	}
	if _, err := New("video"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("New(video) err = %v", err)
	}
	if err := ValidateID(txt.ID); err != nil {
		t.Fatalf("generated id invalid: %v", err)
	}
	if txt.ID == img.ID {
		t.Fatalf("ids must be unique")
	}
}

func TestResizeFloor(t *testing.T) {
	e := NewShape(ShapeRectangle)
	if e.Resize(20, 50) {
		t.Fatalf("width 20 must be rejected")
	}
	if e.Resize(50, 5) {
		t.Fatalf("height 5 must be rejected")
	}
	if e.Width != 100 || e.Height != 100 {
		t.Fatalf("rejected resize changed size: %vx%v", e.Width, e.Height)
	}
	if !e.Resize(21, 21) {
		t.Fatalf("21x21 should be accepted")
	}

	start := NewShape(ShapeRectangle).Frame()
	g := NewShape(ShapeRectangle)
	if g.ResizeWithConstraint(start, -80, 0, BottomRight) {
		t.Fatalf("gesture ending at width 20 must be rejected")
	}
	if !g.ResizeWithConstraint(start, -79, 0, BottomRight) || g.Width != 21 {
		t.Fatalf("gesture ending at width 21 should apply, got %v", g.Width)
	}
}

func TestOpacityClamped(t *testing.T) {
	e := NewText("x")
	e.SetOpacity(3)
	if e.Opacity != 1 {
		t.Fatalf("opacity = %v", e.Opacity)
	}
	e.SetOpacity(-1)
	if e.Opacity != 0 {
		t.Fatalf("opacity = %v", e.Opacity)
	}
}

func TestFreeResizeKeepsOppositeCorner(t *testing.T) {
	cases := []struct {
		a      Anchor
		dx, dy float64
		want   Frame
	}{
		{BottomRight, 30, 10, Frame{X: 10, Y: 10, Width: 130, Height: 110}},
		{TopLeft, -30, -10, Frame{X: -20, Y: 0, Width: 130, Height: 110}},
		{TopRight, 30, -10, Frame{X: 10, Y: 0, Width: 130, Height: 110}},
		{BottomLeft, -30, 10, Frame{X: -20, Y: 10, Width: 130, Height: 110}},
	}
	for _, c := range cases {
		e := NewShape(ShapeRectangle)
		e.Move(10, 10)
		start := e.Frame()
		if !e.ResizeWithConstraint(start, c.dx, c.dy, c.a) {
			t.Fatalf("%s: resize rejected", c.a)
		}
		if got := e.Frame(); got != c.want {
			t.Fatalf("%s: frame = %+v, want %+v", c.a, got, c.want)
		}
	}
}

func TestImageRatioResizeBottomRight(t *testing.T) {
	e := NewImage("a.png", 200, 100)
	e.Resize(200, 100)
	start := e.Frame()
	if !e.ResizeWithConstraint(start, 40, 10, BottomRight) {
		t.Fatalf("resize rejected")
	}
	if e.Width != 240 || e.Height != 120 {
		t.Fatalf("size = %vx%v, want 240x120", e.Width, e.Height)
	}
	if e.X != 0 || e.Y != 0 {
		t.Fatalf("bottom-right must not move origin: %v,%v", e.X, e.Y)
	}
}

func TestImageRatioResizeTopLeftPinsBottomRight(t *testing.T) {
	e := NewImage("a.png", 200, 100)
	e.Resize(200, 100)
	e.Move(50, 50)
	start := e.Frame()
	if !e.ResizeWithConstraint(start, 40, 0, TopLeft) {
		t.Fatalf("resize rejected")
	}
	if e.Width != 160 || e.Height != 80 {
		t.Fatalf("size = %vx%v, want 160x80", e.Width, e.Height)
	}
	if e.X+e.Width != 250 || e.Y+e.Height != 150 {
		t.Fatalf("bottom-right corner moved: (%v,%v)", e.X+e.Width, e.Y+e.Height)
	}
}

func TestImageWithoutNaturalSizeResizesFreely(t *testing.T) {
	e := NewImage("", 0, 0)
	start := e.Frame()
	e.ResizeWithConstraint(start, 40, 10, BottomRight)
	if e.Width != 140 || e.Height != 110 {
		t.Fatalf("size = %vx%v", e.Width, e.Height)
	}
}

func TestResizeConstraintNeverBelowFloor(t *testing.T) {
	e := NewImage("a.png", 200, 100)
	e.Resize(200, 100)
	start := e.Frame()
	for dx := 0.0; dx <= 400; dx += 7 {
		e.ResizeWithConstraint(start, dx, dx, BottomLeft)
		e.ResizeWithConstraint(start, -dx, dx, BottomRight)
		if e.Width <= MinDimension || e.Height <= MinDimension {
			t.Fatalf("size dropped to %vx%v at dx=%v", e.Width, e.Height, dx)
		}
	}
}

func TestApplyIgnoresUnknownAndMismatchedKeys(t *testing.T) {
	e := NewText("hi")
	before := e.Serialize()
	got := e.Apply(Props{"fillColor": "#ff0000", "bogus": 1, "x": "12", "color": "#00ff00"})
	if !reflect.DeepEqual(got, []string{"color"}) {
		t.Fatalf("applied = %v", got)
	}
	after := e.Serialize()
	if after["color"] != "#00ff00" {
		t.Fatalf("color not applied")
	}
	if _, ok := after["fillColor"]; ok {
		t.Fatalf("text element must not grow a fillColor")
	}
	if after["x"] != before["x"] {
		t.Fatalf("string x must be ignored")
	}
}

func TestApplyPartialGeometry(t *testing.T) {
	e := NewShape(ShapeEllipse)
	e.Move(5, 6)
	e.Apply(Props{"x": 40.0, "width": 300})
	if e.X != 40 || e.Y != 6 || e.Width != 300 || e.Height != 100 {
		t.Fatalf("frame = %+v", e.Frame())
	}
	if keys := e.Apply(Props{"width": 10.0}); len(keys) != 0 {
		t.Fatalf("rejected resize must not be reported: %v", keys)
	}
}

func TestSerializeDeserializeRoundTripThroughJSON(t *testing.T) {
	e := NewShape(ShapeTriangle)
	e.Move(12.5, 7)
	e.Resize(80, 60)
	e.Rotate(-30)
	e.SetZIndex(7)
	e.SetPanel(PanelRight)
	e.Shape.CornerRadius = 4

	raw, err := json.Marshal(e.Serialize())
	if err != nil {
		t.Fatal(err)
	}
	var p Props
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatal(err)
	}
	back, err := Deserialize(p)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if back.ID != e.ID || back.ZIndex != 7 || back.Panel != PanelRight || back.Frame() != e.Frame() {
		t.Fatalf("round trip mismatch: %+v vs %+v", back.Base, e.Base)
	}
	if *back.Shape != *e.Shape {
		t.Fatalf("shape mismatch: %+v vs %+v", back.Shape, e.Shape)
	}
}

func TestDeserializeLegacyPanelAndUnknownType(t *testing.T) {
	e, err := Deserialize(Props{"type": "text", "text": "hi", "panelId": "panel-left", "width": 10.0})
	if err != nil {
		t.Fatal(err)
	}
	if e.Panel != PanelLeft || e.Text.Text != "hi" {
		t.Fatalf("unexpected: %+v %+v", e.Base, e.Text)
	}
	if e.Width != 10 {
		t.Fatalf("stored width must load as is, got %v", e.Width)
	}
	if _, err := Deserialize(Props{"type": "unknown"}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Deserialize(Props{}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("missing type err = %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	e := NewText("a")
	c := e.Clone()
	c.Text.Text = "b"
	if e.Text.Text != "a" {
		t.Fatalf("clone aliases text payload")
	}
}

func TestContainsRespectsShapeAndRotation(t *testing.T) {
	e := NewShape(ShapeEllipse)
	if !e.Contains(vector.Pt{X: 50, Y: 50}) || e.Contains(vector.Pt{X: 2, Y: 2}) {
		t.Fatalf("ellipse hit wrong")
	}
	r := NewText("x")
	r.Resize(200, 40)
	r.Rotate(90)
	if r.Contains(vector.Pt{X: 5, Y: 20}) {
		t.Fatalf("rotated text should not contain its unrotated corner")
	}
	if !r.Contains(vector.Pt{X: 100, Y: -60}) {
		t.Fatalf("rotated text should contain point along its rotated axis")
	}
}

func TestLabelsAndDisplayRotation(t *testing.T) {
	e := NewText(strings.Repeat("abc", 10))
	if got := e.Label(); got != "Text: abcabcabcabcabcabcab..." {
		t.Fatalf("label = %q", got)
	}
	if got := NewShape(ShapeEllipse).Label(); got != "Shape: ellipse" {
		t.Fatalf("label = %q", got)
	}
	e.Rotate(-450)
	if e.DisplayRotation() != 270 || e.Rotation != -450 {
		t.Fatalf("display rotation = %v stored = %v", e.DisplayRotation(), e.Rotation)
	}
}

func TestParsePanelAndAnchor(t *testing.T) {
	if p, ok := ParsePanel("Panel-Right"); !ok || p != PanelRight {
		t.Fatalf("ParsePanel = %v %v", p, ok)
	}
	if _, ok := ParsePanel("middle"); ok {
		t.Fatalf("middle is not a panel")
	}
	if a, ok := ParseAnchor("top-right"); !ok || a != TopRight {
		t.Fatalf("ParseAnchor = %v %v", a, ok)
	}
}

func TestDocumentNormalize(t *testing.T) {
	d := Document{Version: "0.9"}
	d.Normalize()
	if d.Width != 630 || d.Height != 297 || d.ProjectName == "" || d.Elements == nil || d.Version != "0.9" {
		t.Fatalf("normalize: %+v", d)
	}
	if d.PanelWidth() != 210 {
		t.Fatalf("panel width = %v", d.PanelWidth())
	}
}

func TestRestoreBypassesResizeFloor(t *testing.T) {
	e := NewText("x")
	keys := e.Restore(Props{"width": 12.0, "height": 15.0, "x": 3.0})
	if e.Width != 12 || e.Height != 15 || e.X != 3 {
		t.Fatalf("restore: %+v", e.Frame())
	}
	if !reflect.DeepEqual(keys, []string{"height", "width", "x"}) {
		t.Fatalf("keys = %v", keys)
	}
}
