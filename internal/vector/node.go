/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package vector

// Box is a rectangle rotated about its own center, the footprint of a
// canvas element. Hit tests map the query point back into the unrotated
// rect and test there.
type Box struct {
	Rect     Rect
	Rotation float64 // degrees, clockwise on screen
}

// Transform maps unrotated box coordinates to canvas coordinates.
func (b Box) Transform() Affine2D {
	if b.Rotation == 0 {
		return Identity
	}
	return RotateAbout(b.Rotation, b.Rect.Center())
}

// Local maps a canvas point into the unrotated frame of the box.
func (b Box) Local(p Pt) Pt {
	if b.Rotation == 0 {
		return p
	}
	return b.Transform().Invert().Apply(p)
}

// Corners returns top-left, top-right, bottom-right, bottom-left after rotation.
func (b Box) Corners() [4]Pt {
	r := b.Rect
	m := b.Transform()
	return [4]Pt{
		m.Apply(Pt{r.X, r.Y}),
		m.Apply(Pt{r.X + r.W, r.Y}),
		m.Apply(Pt{r.X + r.W, r.Y + r.H}),
		m.Apply(Pt{r.X, r.Y + r.H}),
	}
}

// Bounds is the axis-aligned box enclosing the rotated rect.
func (b Box) Bounds() Rect {
	c := b.Corners()
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Contains reports whether p lies inside the rotated rect.
func (b Box) Contains(p Pt) bool { return b.Rect.Contains(b.Local(p)) }

// HitEllipse tests q (unrotated frame) against the ellipse inscribed in r.
func HitEllipse(r Rect, q Pt) bool {
	rx, ry := r.W/2, r.H/2
	if rx == 0 || ry == 0 {
		return false
	}
	c := r.Center()
	dx := (q.X - c.X) / rx
	dy := (q.Y - c.Y) / ry
	return dx*dx+dy*dy <= 1
}

// HitRoundedRect tests q against r with uniform corner radius.
func HitRoundedRect(r Rect, radius float64, q Pt) bool {
	if !r.Contains(q) {
		return false
	}
	radius = Clamp(radius, 0, min(r.W, r.H)/2)
	if radius == 0 {
		return true
	}
	core := r.Inset(radius, radius)
	if core.W >= 0 && core.H >= 0 {
		if (q.X >= core.X && q.X <= core.X+core.W) || (q.Y >= core.Y && q.Y <= core.Y+core.H) {
			return true
		}
	}
	cx := []float64{r.X + radius, r.X + r.W - radius}
	cy := []float64{r.Y + radius, r.Y + r.H - radius}
	r2 := radius * radius
	for _, x := range cx {
		for _, y := range cy {
			dx, dy := q.X-x, q.Y-y
			if dx*dx+dy*dy <= r2 {
				return true
			}
		}
	}
	return false
}

// TrianglePoints returns the isosceles triangle inscribed in r: apex at top
// center, base along the bottom edge.
func TrianglePoints(r Rect) [3]Pt {
	return [3]Pt{{r.X + r.W/2, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
}

// HitTriangle tests q against the triangle inscribed in r.
func HitTriangle(r Rect, q Pt) bool {
	t := TrianglePoints(r)
	d1 := cross(t[0], t[1], q)
	d2 := cross(t[1], t[2], q)
	d3 := cross(t[2], t[0], q)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func cross(a, b, p Pt) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}
