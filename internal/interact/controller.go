/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
// Package interact turns pointer drags into element geometry changes. A
// Controller updates its element live on every move and reports exactly one
// Gesture when the pointer is released.
package interact

import (
	"triptych/internal/domain"
	"triptych/internal/vector"
)

// Target is the part of an element the pointer went down on.
type Target uint8

const (
	TargetBody Target = iota
	TargetHandle
	TargetRotate
)

// Hit names a pointer-down target; Anchor is used for TargetHandle only.
type Hit struct {
	Target Target
	Anchor domain.Anchor
}

func Body() Hit                  { return Hit{Target: TargetBody} }
func Handle(a domain.Anchor) Hit { return Hit{Target: TargetHandle, Anchor: a} }
func RotateHandle() Hit          { return Hit{Target: TargetRotate} }
func (h Hit) mode() domain.Mode {
	switch h.Target {
	case TargetHandle:
		return domain.ModeResizing
	case TargetRotate:
		return domain.ModeRotating
	}
	return domain.ModeDragging
}

// Gesture is a completed pointer-down, move*, pointer-up interaction.
type Gesture struct {
	ElementID string
	Mode      domain.Mode
	Start     domain.Frame
	Final     domain.Frame
}

// Changed reports whether the gesture moved, resized or rotated anything.
func (g Gesture) Changed() bool { return g.Start != g.Final }

// SnapFunc may adjust the rect of a dragged element, e.g. to align it with
// panel edges. It is not consulted while resizing or rotating.
type SnapFunc func(el *domain.Element, moving vector.Rect) vector.Rect

type Options struct {
	// OnLive is called after every accepted intermediate frame.
	OnLive func(el *domain.Element)
	// OnComplete receives the finished gesture; it is the only hand-off point to history.
	OnComplete func(Gesture)
	Snap       SnapFunc
}

// Controller is the per-element state machine Idle -> Dragging|Resizing|Rotating -> Idle.
// Not safe for concurrent use; the owner serializes pointer events.
type Controller struct {
	el   *domain.Element
	opts Options

	anchor     domain.Anchor
	start      domain.Frame
	startPtr   vector.Pt
	center     vector.Pt
	startAngle float64
}

func New(el *domain.Element, opts Options) *Controller {
	return &Controller{el: el, opts: opts}
}

// Element returns the controlled element.
func (c *Controller) Element() *domain.Element { return c.el }

// State is the element's current interaction mode.
func (c *Controller) State() domain.Mode { return c.el.Mode }

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool { return c.el.Mode != domain.ModeIdle }

// PointerDown starts a gesture. It is ignored, returning false, while
// another gesture is in progress.
func (c *Controller) PointerDown(h Hit, p vector.Pt) bool {
	if c.Active() {
		return false
	}
	c.start = c.el.Frame()
	c.startPtr = p
	c.anchor = h.Anchor
	if h.Target == TargetRotate {
		c.center = c.el.Center()
		c.startAngle = vector.AngleDeg(c.center, p)
	}
	c.el.Mode = h.mode()
	return true
}

// PointerMove applies the pointer position to the element. No history is
// written here. Returns false when idle or when the frame was rejected.
func (c *Controller) PointerMove(p vector.Pt) bool {
	d := p.Sub(c.startPtr)
	switch c.el.Mode {
	case domain.ModeDragging:
		r := vector.R(c.start.X+d.X, c.start.Y+d.Y, c.el.Width, c.el.Height)
		if c.opts.Snap != nil {
			r = c.opts.Snap(c.el, r)
		}
		c.el.Move(r.X, r.Y)
	case domain.ModeResizing:
		if !c.el.ResizeWithConstraint(c.start, d.X, d.Y, c.anchor) {
			return false
		}
	case domain.ModeRotating:
		c.el.Rotate(c.start.Rotation + vector.AngleDeg(c.center, p) - c.startAngle)
	default:
		return false
	}
	if c.opts.OnLive != nil {
		c.opts.OnLive(c.el)
	}
	return true
}

// PointerUp ends the gesture and emits it to OnComplete. The final pointer
// position is applied first so a release without a preceding move still counts.
func (c *Controller) PointerUp(p vector.Pt) (Gesture, bool) {
	if !c.Active() {
		return Gesture{}, false
	}
	if p != c.startPtr {
		c.PointerMove(p)
	}
	g := Gesture{ElementID: c.el.ID, Mode: c.el.Mode, Start: c.start, Final: c.el.Frame()}
	c.el.Mode = domain.ModeIdle
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(g)
	}
	return g, true
}

// Cancel aborts the gesture and restores the start frame without emitting.
func (c *Controller) Cancel() {
	if !c.Active() {
		return
	}
	c.el.Restore(domain.Props{
		"x": c.start.X, "y": c.start.Y,
		"width": c.start.Width, "height": c.start.Height,
		"rotation": c.start.Rotation,
	})
	c.el.Mode = domain.ModeIdle
	if c.opts.OnLive != nil {
		c.opts.OnLive(c.el)
	}
}
