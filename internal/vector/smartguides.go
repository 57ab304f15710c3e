/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package vector

// Snapping of a dragged element against panel bounds and sibling elements.
// Deterministic and UI-agnostic so drag behaviour is unit-testable.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance at which snapping occurs. Zero means 6.
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Anchor is a static reference rect (panel bounds or another element).
// Higher Weight wins ties; use 1 when unsure.
type Anchor struct {
	Rect   Rect
	Weight float64
}

// GuideLine describes a visual guide produced by a snap.
// Orientation is "vertical" or "horizontal"; Kind is "edge" or "center".
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

type snapCandidate struct {
	delta float64
	score float64
	guide GuideLine
	ok    bool
}

func (c *snapCandidate) consider(delta, threshold, weight float64, g GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if !c.ok || score < c.score {
		*c = snapCandidate{delta: delta, score: score, guide: g, ok: true}
	}
}

// ComputeSmartGuides snaps moving against anchors independently in X and Y
// and returns the snapped rect plus the guides to draw.
func ComputeSmartGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var bx, by snapCandidate

	mL, mR, mT, mB := moving.X, moving.X+moving.W, moving.Y, moving.Y+moving.H
	mc := moving.Center()

	for _, a := range anchors {
		aL, aR, aT, aB := a.Rect.X, a.Rect.X+a.Rect.W, a.Rect.Y, a.Rect.Y+a.Rect.H
		ac := a.Rect.Center()
		th, w := opts.Threshold, a.Weight

		if opts.SnapToEdges {
			bx.consider(mL-aL, th, w, vertical(aL, moving, a.Rect, "edge"))
			bx.consider(mR-aR, th, w, vertical(aR, moving, a.Rect, "edge"))
			bx.consider(mL-aR, th, w, vertical(aR, moving, a.Rect, "edge"))
			bx.consider(mR-aL, th, w, vertical(aL, moving, a.Rect, "edge"))

			by.consider(mT-aT, th, w, horizontal(aT, moving, a.Rect, "edge"))
			by.consider(mB-aB, th, w, horizontal(aB, moving, a.Rect, "edge"))
			by.consider(mT-aB, th, w, horizontal(aB, moving, a.Rect, "edge"))
			by.consider(mB-aT, th, w, horizontal(aT, moving, a.Rect, "edge"))
		}
		if opts.SnapToCenters {
			bx.consider(mc.X-ac.X, th, w, vertical(ac.X, moving, a.Rect, "center"))
			by.consider(mc.Y-ac.Y, th, w, horizontal(ac.Y, moving, a.Rect, "center"))
		}
	}

	var guides []GuideLine
	snapped := moving
	if bx.ok {
		snapped.X = FloatRound(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		snapped.Y = FloatRound(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func vertical(x float64, a, b Rect, kind string) GuideLine {
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        Pt{x, math.Min(a.Y, b.Y)},
		To:          Pt{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontal(y float64, a, b Rect, kind string) GuideLine {
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        Pt{math.Min(a.X, b.X), y},
		To:          Pt{math.Max(a.X+a.W, b.X+b.W), y},
	}
}
