/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package vector

import (
	"strconv"
	"strings"
)

// Path commands and shape outlines.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

func (c PathCmd) points() int {
	switch c.Op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	}
	return 0
}

// Transform returns a copy of p with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		nc := PathCmd{Op: c.Op}
		for k := 0; k < c.points(); k++ {
			q := m.Apply(Pt{c.Data[2*k], c.Data[2*k+1]})
			nc.Data[2*k], nc.Data[2*k+1] = q.X, q.Y
		}
		out.Cmds[i] = nc
	}
	return out
}

// Bounds returns an axis-aligned bounding box using control points, which
// always encloses the curve.
func (p Path) Bounds() Rect {
	minX, minY := 1e18, 1e18
	maxX, maxY := -1e18, -1e18
	for _, c := range p.Cmds {
		for k := 0; k < c.points(); k++ {
			x, y := c.Data[2*k], c.Data[2*k+1]
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// SVG renders the path as an SVG path data string.
func (p Path) SVG() string {
	var b strings.Builder
	f := func(v float64) string { return strconv.FormatFloat(FloatRound(v, 3), 'f', -1, 64) }
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case MoveTo:
			b.WriteString("M" + f(c.Data[0]) + " " + f(c.Data[1]))
		case LineTo:
			b.WriteString("L" + f(c.Data[0]) + " " + f(c.Data[1]))
		case QuadTo:
			b.WriteString("Q" + f(c.Data[0]) + " " + f(c.Data[1]) + " " + f(c.Data[2]) + " " + f(c.Data[3]))
		case CubicTo:
			b.WriteString("C" + f(c.Data[0]) + " " + f(c.Data[1]) + " " + f(c.Data[2]) + " " + f(c.Data[3]) + " " + f(c.Data[4]) + " " + f(c.Data[5]))
		case Close:
			b.WriteString("Z")
		}
	}
	return b.String()
}

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

// RectPath outlines r; radius > 0 rounds the corners.
func RectPath(r Rect, radius float64) Path {
	var p Path
	radius = Clamp(radius, 0, min(r.W, r.H)/2)
	if radius == 0 {
		p.MoveTo(r.X, r.Y)
		p.LineTo(r.X+r.W, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H)
		p.LineTo(r.X, r.Y+r.H)
		p.Close()
		return p
	}
	k := radius * kappa
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	p.MoveTo(x0+radius, y0)
	p.LineTo(x1-radius, y0)
	p.CubicTo(x1-radius+k, y0, x1, y0+radius-k, x1, y0+radius)
	p.LineTo(x1, y1-radius)
	p.CubicTo(x1, y1-radius+k, x1-radius+k, y1, x1-radius, y1)
	p.LineTo(x0+radius, y1)
	p.CubicTo(x0+radius-k, y1, x0, y1-radius+k, x0, y1-radius)
	p.LineTo(x0, y0+radius)
	p.CubicTo(x0, y0+radius-k, x0+radius-k, y0, x0+radius, y0)
	p.Close()
	return p
}

// EllipsePath outlines the ellipse inscribed in r.
func EllipsePath(r Rect) Path {
	var p Path
	c := r.Center()
	rx, ry := r.W/2, r.H/2
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(c.X+rx, c.Y)
	p.CubicTo(c.X+rx, c.Y+ky, c.X+kx, c.Y+ry, c.X, c.Y+ry)
	p.CubicTo(c.X-kx, c.Y+ry, c.X-rx, c.Y+ky, c.X-rx, c.Y)
	p.CubicTo(c.X-rx, c.Y-ky, c.X-kx, c.Y-ry, c.X, c.Y-ry)
	p.CubicTo(c.X+kx, c.Y-ry, c.X+rx, c.Y-ky, c.X+rx, c.Y)
	p.Close()
	return p
}

// TrianglePath outlines TrianglePoints(r).
func TrianglePath(r Rect) Path {
	var p Path
	t := TrianglePoints(r)
	p.MoveTo(t[0].X, t[0].Y)
	p.LineTo(t[1].X, t[1].Y)
	p.LineTo(t[2].X, t[2].Y)
	p.Close()
	return p
}

// Polyline is one flattened subpath.
type Polyline struct {
	Pts    []Pt
	Closed bool
}

// Flatten approximates curves with n line segments each (n < 1 means 16)
// and returns one polyline per subpath.
func (p Path) Flatten(n int) []Polyline {
	if n < 1 {
		n = 16
	}
	var out []Polyline
	var cur *Polyline
	var last, start Pt
	begin := func(at Pt) {
		out = append(out, Polyline{Pts: []Pt{at}})
		cur = &out[len(out)-1]
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			last = Pt{c.Data[0], c.Data[1]}
			start = last
			begin(last)
			continue
		case Close:
			if cur != nil {
				cur.Closed = true
				cur = nil
			}
			last = start
			continue
		}
		if cur == nil {
			begin(last)
		}
		switch c.Op {
		case LineTo:
			last = Pt{c.Data[0], c.Data[1]}
			cur.Pts = append(cur.Pts, last)
		case QuadTo:
			p0, p1, p2 := last, Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur.Pts = append(cur.Pts, Pt{
					X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
					Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
				})
			}
			last = p2
		case CubicTo:
			p0 := last
			p1, p2, p3 := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}, Pt{c.Data[4], c.Data[5]}
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				a, b, cc, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
				cur.Pts = append(cur.Pts, Pt{
					X: a*p0.X + b*p1.X + cc*p2.X + d*p3.X,
					Y: a*p0.Y + b*p1.Y + cc*p2.Y + d*p3.Y,
				})
			}
			last = p3
		}
	}
	return out
}
