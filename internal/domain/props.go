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
	"math"
	"sort"
)

// ErrUnknownType is returned by Deserialize for records whose "type" is not
// a known variant. Loaders skip such records.
var ErrUnknownType = errors.New("unknown element type")

// Props is the flat attribute mapping of an element, the unit of
// serialization and of partial updates.
type Props map[string]any

// Clone returns a shallow copy; values are scalars so this is a deep copy in practice.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	c := make(Props, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Serialize returns all base and variant attributes plus "type".
func (e *Element) Serialize() Props {
	p := Props{
		"id":       e.ID,
		"type":     string(e.Kind),
		"x":        e.X,
		"y":        e.Y,
		"width":    e.Width,
		"height":   e.Height,
		"rotation": e.Rotation,
		"opacity":  e.Opacity,
		"zIndex":   e.ZIndex,
		"panelId":  string(e.Panel),
	}
	switch {
	case e.Text != nil:
		p["text"] = e.Text.Text
		p["fontFamily"] = e.Text.FontFamily
		p["fontSize"] = e.Text.FontSize
		p["fontWeight"] = e.Text.FontWeight
		p["fontStyle"] = e.Text.FontStyle
		p["textDecoration"] = e.Text.TextDecoration
		p["textAlign"] = e.Text.TextAlign
		p["color"] = e.Text.Color
	case e.Image != nil:
		p["src"] = e.Image.Src
		p["alt"] = e.Image.Alt
		p["originalWidth"] = e.Image.OriginalWidth
		p["originalHeight"] = e.Image.OriginalHeight
		p["maintainRatio"] = e.Image.MaintainRatio
	case e.Shape != nil:
		p["shapeType"] = string(e.Shape.ShapeType)
		p["fillColor"] = e.Shape.FillColor
		p["strokeColor"] = e.Shape.StrokeColor
		p["strokeWidth"] = e.Shape.StrokeWidth
		p["cornerRadius"] = e.Shape.CornerRadius
	}
	return p
}

// Deserialize reconstructs an element from a record, keeping its id and
// zIndex. Stored geometry is taken as is apart from non-positive sizes,
// which fall back to defaults.
func Deserialize(p Props) (*Element, error) {
	kind, _ := asString(p["type"])
	e, err := New(Kind(kind))
	if err != nil {
		return nil, err
	}
	if id, ok := asString(p["id"]); ok && id != "" {
		e.ID = id
	}
	rest := p.Clone()
	delete(rest, "id")
	delete(rest, "type")
	e.Restore(rest)
	return e, nil
}

// Restore reapplies a previously recorded state. Unlike Apply it takes any
// positive stored size as is, since the state was valid when recorded.
func (e *Element) Restore(p Props) []string {
	var sized []string
	if v, ok := asFloat(p["width"]); ok && v > 0 && finite(v) {
		e.Width = v
		sized = append(sized, "width")
	}
	if v, ok := asFloat(p["height"]); ok && v > 0 && finite(v) {
		e.Height = v
		sized = append(sized, "height")
	}
	rest := p
	if len(sized) > 0 {
		rest = p.Clone()
		delete(rest, "width")
		delete(rest, "height")
	}
	applied := append(e.Apply(rest), sized...)
	sort.Strings(applied)
	return applied
}

// Apply routes each recognized key through the matching mutator and
// returns the keys that took effect, sorted. Unknown keys, keys of another
// variant, and values of the wrong type are ignored.
func (e *Element) Apply(p Props) []string {
	var applied []string
	mark := func(keys ...string) {
		for _, k := range keys {
			if _, ok := p[k]; ok {
				applied = append(applied, k)
			}
		}
	}

	x, hasX := asFloat(p["x"])
	y, hasY := asFloat(p["y"])
	if hasX || hasY {
		if !hasX {
			x = e.X
		}
		if !hasY {
			y = e.Y
		}
		e.Move(x, y)
		if hasX {
			mark("x")
		}
		if hasY {
			mark("y")
		}
	}
	w, hasW := asFloat(p["width"])
	h, hasH := asFloat(p["height"])
	if hasW || hasH {
		if !hasW {
			w = e.Width
		}
		if !hasH {
			h = e.Height
		}
		if e.Resize(w, h) {
			if hasW {
				mark("width")
			}
			if hasH {
				mark("height")
			}
		}
	}
	if v, ok := asFloat(p["rotation"]); ok {
		e.Rotate(v)
		mark("rotation")
	}
	if v, ok := asFloat(p["opacity"]); ok {
		e.SetOpacity(v)
		mark("opacity")
	}
	if v, ok := asInt(p["zIndex"]); ok {
		e.SetZIndex(v)
		mark("zIndex")
	}
	if v, ok := asString(p["panelId"]); ok {
		if pid, ok := ParsePanel(v); ok && e.SetPanel(pid) {
			mark("panelId")
		}
	}

	switch {
	case e.Text != nil:
		applied = append(applied, e.Text.apply(p)...)
	case e.Image != nil:
		applied = append(applied, e.Image.apply(p)...)
	case e.Shape != nil:
		applied = append(applied, e.Shape.apply(p)...)
	}
	sort.Strings(applied)
	return applied
}

func (t *TextStyle) apply(p Props) []string {
	var keys []string
	str := func(key string, dst *string) {
		if v, ok := asString(p[key]); ok {
			*dst = v
			keys = append(keys, key)
		}
	}
	str("text", &t.Text)
	str("fontFamily", &t.FontFamily)
	str("fontWeight", &t.FontWeight)
	str("fontStyle", &t.FontStyle)
	str("textDecoration", &t.TextDecoration)
	str("textAlign", &t.TextAlign)
	str("color", &t.Color)
	if v, ok := asFloat(p["fontSize"]); ok && v > 0 && finite(v) {
		t.FontSize = v
		keys = append(keys, "fontSize")
	}
	return keys
}

func (i *ImageSource) apply(p Props) []string {
	var keys []string
	if v, ok := asString(p["src"]); ok {
		i.Src = v
		keys = append(keys, "src")
	}
	if v, ok := asString(p["alt"]); ok {
		i.Alt = v
		keys = append(keys, "alt")
	}
	if v, ok := asBool(p["maintainRatio"]); ok {
		i.MaintainRatio = v
		keys = append(keys, "maintainRatio")
	}
	if v, ok := asFloat(p["originalWidth"]); ok && v >= 0 && finite(v) {
		i.OriginalWidth = v
		keys = append(keys, "originalWidth")
	}
	if v, ok := asFloat(p["originalHeight"]); ok && v >= 0 && finite(v) {
		i.OriginalHeight = v
		keys = append(keys, "originalHeight")
	}
	return keys
}

func (s *ShapeStyle) apply(p Props) []string {
	var keys []string
	if v, ok := asString(p["shapeType"]); ok && validShape(ShapeKind(v)) {
		s.ShapeType = ShapeKind(v)
		keys = append(keys, "shapeType")
	}
	if v, ok := asString(p["fillColor"]); ok {
		s.FillColor = v
		keys = append(keys, "fillColor")
	}
	if v, ok := asString(p["strokeColor"]); ok {
		s.StrokeColor = v
		keys = append(keys, "strokeColor")
	}
	if v, ok := asFloat(p["strokeWidth"]); ok && v >= 0 && finite(v) {
		s.StrokeWidth = v
		keys = append(keys, "strokeWidth")
	}
	if v, ok := asFloat(p["cornerRadius"]); ok && v >= 0 && finite(v) {
		s.CornerRadius = v
		keys = append(keys, "cornerRadius")
	}
	return keys
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || !finite(f) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
