/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"triptych/internal/domain"
	"triptych/internal/interact"
	"triptych/internal/render"
	"triptych/internal/vector"
)

// PointerDown selects the element and starts a gesture on it. It returns
// false for an unknown id or while another gesture is running.
func (e *Editor) PointerDown(id string, hit interact.Hit, p vector.Pt) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pointerDown(id, hit, p)
}

func (e *Editor) pointerDown(id string, hit interact.Hit, p vector.Pt) bool {
	if e.active != nil && e.active.Active() {
		return false
	}
	el := e.model.ElementByID(id)
	c := e.ctrls[id]
	if el == nil || c == nil {
		return false
	}
	e.model.SelectElement(el)
	if !c.PointerDown(hit, p) {
		return false
	}
	e.active = c
	return true
}

// PointerDownAt routes a press at p in panel coordinates: a handle of the
// selected element wins, then the topmost element under p. A press on empty
// space deselects and returns false.
func (e *Editor) PointerDownAt(panel domain.PanelID, p vector.Pt) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.Active() {
		return false
	}
	if sel := e.model.Selected(); sel != nil && sel.Panel == panel {
		if d, ok := e.renderer.Drawable(sel.ID); ok {
			if hit, ok := d.HandleAt(p); ok {
				return e.pointerDown(sel.ID, hit, p)
			}
		}
	}
	if el := e.model.HitTest(panel, p); el != nil {
		return e.pointerDown(el.ID, interact.Body(), p)
	}
	e.model.DeselectElement()
	return false
}

// PointerMove feeds the active gesture. The pointer may be anywhere, even
// outside the element or its panel.
func (e *Editor) PointerMove(p vector.Pt) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return false
	}
	return e.active.PointerMove(p)
}

// PointerUp finishes the active gesture; the scene records it as one
// history entry when the frame changed.
func (e *Editor) PointerUp(p vector.Pt) (interact.Gesture, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return interact.Gesture{}, false
	}
	g, ok := e.active.PointerUp(p)
	e.active, e.guides = nil, nil
	return g, ok
}

// Cancel aborts the active gesture and restores its start frame.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return
	}
	e.active.Cancel()
	e.active, e.guides = nil, nil
}

// ActiveMode reports the interaction mode of the active gesture.
func (e *Editor) ActiveMode() (domain.Mode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return domain.ModeIdle, false
	}
	return e.active.State(), true
}

// HandlesOf returns the grab points of element id; only the selected
// element has any.
func (e *Editor) HandlesOf(id string) []render.Handle {
	d, ok := e.renderer.Drawable(id)
	if !ok {
		return nil
	}
	return d.Handles
}
