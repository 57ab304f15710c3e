/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package vector

import (
	"strings"
	"testing"
)

func TestPathBoundsAndTransform(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()

	b := p.Bounds()
	if b.X != 0 || b.Y != 0 || b.W != 10 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	bb := p.Transform(Translate(5, 5)).Bounds()
	if bb.X != 5 || bb.Y != 5 || bb.W != 10 || bb.H != 10 {
		t.Fatalf("unexpected transformed bounds: %+v", bb)
	}
	if len(p.Cmds) != 4 {
		t.Fatalf("transform must not mutate the source path")
	}
}

func TestShapePaths(t *testing.T) {
	r := R(10, 10, 100, 50)
	if b := RectPath(r, 0).Bounds(); b != r {
		t.Fatalf("rect path bounds %+v", b)
	}
	if b := RectPath(r, 10).Bounds(); b != r {
		t.Fatalf("rounded rect path bounds %+v", b)
	}
	if b := EllipsePath(r).Bounds(); b != r {
		t.Fatalf("ellipse path bounds %+v", b)
	}
	tri := TrianglePath(r)
	if b := tri.Bounds(); b != r {
		t.Fatalf("triangle bounds %+v", b)
	}
	d := tri.SVG()
	if !strings.HasPrefix(d, "M60 10 L110 60 L10 60") || !strings.HasSuffix(d, "Z") {
		t.Fatalf("unexpected svg path %q", d)
	}
}

func TestFlatten(t *testing.T) {
	polys := RectPath(R(0, 0, 10, 10), 0).Flatten(0)
	if len(polys) != 1 || !polys[0].Closed || len(polys[0].Pts) != 4 {
		t.Fatalf("rect flatten: %+v", polys)
	}
	e := EllipsePath(R(0, 0, 20, 10)).Flatten(8)
	if len(e) != 1 || len(e[0].Pts) != 1+4*8 {
		t.Fatalf("ellipse flatten: %d polys", len(e))
	}
	end := e[0].Pts[len(e[0].Pts)-1]
	if Distance(end, Pt{20, 5}) > 1e-9 {
		t.Fatalf("ellipse must end where it started, got %+v", end)
	}
	for _, q := range e[0].Pts {
		if q.X < -1e-9 || q.X > 20+1e-9 || q.Y < -1e-9 || q.Y > 10+1e-9 {
			t.Fatalf("point outside bounds: %+v", q)
		}
	}
}
