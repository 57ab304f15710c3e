/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render keeps a retained, paint-ready view of the scene. One
// Drawable exists per element; live changes patch it in place. A print
// snapshot carries no selection decoration and no handles.
package render

import (
	"triptych/internal/domain"
	"triptych/internal/interact"
	"triptych/internal/vector"
)

// Mode selects interactive (decorated) or print output.
type Mode uint8

const (
	ModeInteractive Mode = iota
	ModePrint
)

func (m Mode) String() string {
	if m == ModePrint {
		return "print"
	}
	return "interactive"
}

const (
	// HandleSize is the side of a square resize handle in canvas pixels.
	HandleSize = 10.0
	// RotateOffset is the distance of the rotate handle above the top edge.
	RotateOffset = 20.0
)

// Handle is a grab point of the selected element, in panel coordinates.
type Handle struct {
	Hit    interact.Hit
	Center vector.Pt
}

// Drawable is the retained paint state of one element. Style pointers are
// private copies; they never alias the scene's elements.
type Drawable struct {
	ID       string
	Kind     domain.Kind
	Panel    domain.PanelID
	Frame    domain.Frame
	Opacity  float64
	ZIndex   int
	Text     *domain.TextStyle
	Image    *domain.ImageSource
	Shape    *domain.ShapeStyle
	Selected bool
	Handles  []Handle

	// Revision counts in-place patches since creation.
	Revision int
}

func newDrawable(el *domain.Element) *Drawable {
	d := &Drawable{ID: el.ID, Kind: el.Kind}
	d.patch(el)
	d.Revision = 0
	return d
}

func (d *Drawable) patch(el *domain.Element) {
	d.Panel = el.Panel
	d.Frame = el.Frame()
	d.Opacity = el.Opacity
	d.ZIndex = el.ZIndex
	d.Selected = el.Selected
	d.Text, d.Image, d.Shape = nil, nil, nil
	if el.Text != nil {
		t := *el.Text
		d.Text = &t
	}
	if el.Image != nil {
		i := *el.Image
		d.Image = &i
	}
	if el.Shape != nil {
		s := *el.Shape
		d.Shape = &s
	}
	d.Handles = nil
	if d.Selected {
		d.Handles = handlesFor(d.Box())
	}
	d.Revision++
}

func (d Drawable) clone(mode Mode) Drawable {
	c := d
	if d.Text != nil {
		t := *d.Text
		c.Text = &t
	}
	if d.Image != nil {
		i := *d.Image
		c.Image = &i
	}
	if d.Shape != nil {
		s := *d.Shape
		c.Shape = &s
	}
	c.Handles = append([]Handle(nil), d.Handles...)
	if mode == ModePrint {
		c.Selected = false
		c.Handles = nil
	}
	return c
}

// Box is the rotated footprint in panel coordinates.
func (d Drawable) Box() vector.Box {
	return vector.Box{Rect: d.Frame.Rect(), Rotation: d.Frame.Rotation}
}

// Transform maps the unrotated element frame to panel coordinates.
func (d Drawable) Transform() vector.Affine2D { return d.Box().Transform() }

// Visible reports whether the drawable paints anything.
func (d Drawable) Visible() bool { return d.Opacity > 0 }

// Outline is the shape outline in panel coordinates with rotation applied.
// Text and image drawables outline their frame.
func (d Drawable) Outline() vector.Path {
	r := d.Frame.Rect()
	var p vector.Path
	switch {
	case d.Shape != nil && d.Shape.ShapeType == domain.ShapeEllipse:
		p = vector.EllipsePath(r)
	case d.Shape != nil && d.Shape.ShapeType == domain.ShapeTriangle:
		p = vector.TrianglePath(r)
	case d.Shape != nil:
		p = vector.RectPath(r, d.Shape.CornerRadius)
	default:
		p = vector.RectPath(r, 0)
	}
	return p.Transform(d.Transform())
}

func handlesFor(b vector.Box) []Handle {
	r := b.Rect
	m := b.Transform()
	corners := []struct {
		a domain.Anchor
		p vector.Pt
	}{
		{domain.TopLeft, vector.Pt{X: r.X, Y: r.Y}},
		{domain.TopRight, vector.Pt{X: r.X + r.W, Y: r.Y}},
		{domain.BottomLeft, vector.Pt{X: r.X, Y: r.Y + r.H}},
		{domain.BottomRight, vector.Pt{X: r.X + r.W, Y: r.Y + r.H}},
	}
	hs := make([]Handle, 0, 5)
	for _, c := range corners {
		hs = append(hs, Handle{Hit: interact.Handle(c.a), Center: m.Apply(c.p)})
	}
	top := vector.Pt{X: r.X + r.W/2, Y: r.Y - RotateOffset}
	return append(hs, Handle{Hit: interact.RotateHandle(), Center: m.Apply(top)})
}

// HandleAt returns the handle under p, if any. Handles win over the body.
func (d Drawable) HandleAt(p vector.Pt) (interact.Hit, bool) {
	for _, h := range d.Handles {
		if vector.Distance(h.Center, p) <= HandleSize {
			return h.Hit, true
		}
	}
	return interact.Hit{}, false
}
