/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package scene

import (
	"triptych/internal/domain"
)

// Alignment positions an element against the edges or center of its panel.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenterH Alignment = "center-h"
	AlignRight   Alignment = "right"
	AlignTop     Alignment = "top"
	AlignCenterV Alignment = "center-v"
	AlignBottom  Alignment = "bottom"
)

// ParseAlignment maps a toolbar name to an Alignment.
func ParseAlignment(s string) (Alignment, bool) {
	switch a := Alignment(s); a {
	case AlignLeft, AlignCenterH, AlignRight, AlignTop, AlignCenterV, AlignBottom:
		return a, true
	}
	return "", false
}

// BringToFront puts the element above every other element.
func (m *Model) BringToFront(id string) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	top := el.ZIndex
	for _, o := range m.elements {
		if o != el && o.ZIndex >= top {
			top = o.ZIndex + 1
		}
	}
	if top == el.ZIndex {
		return true
	}
	return m.UpdateElement(id, domain.Props{"zIndex": top})
}

// SendToBack puts the element below every other element. The resulting
// zIndex may be zero or negative.
func (m *Model) SendToBack(id string) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	bottom := el.ZIndex
	for _, o := range m.elements {
		if o != el && o.ZIndex <= bottom {
			bottom = o.ZIndex - 1
		}
	}
	if bottom == el.ZIndex {
		return true
	}
	return m.UpdateElement(id, domain.Props{"zIndex": bottom})
}

// Align moves the element to an edge or the center of its panel. Rotation
// is ignored; the unrotated frame is aligned.
func (m *Model) Align(id string, a Alignment) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	pw, ph := m.PanelSize()
	var p domain.Props
	switch a {
	case AlignLeft:
		p = domain.Props{"x": 0.0}
	case AlignCenterH:
		p = domain.Props{"x": (pw - el.Width) / 2}
	case AlignRight:
		p = domain.Props{"x": pw - el.Width}
	case AlignTop:
		p = domain.Props{"y": 0.0}
	case AlignCenterV:
		p = domain.Props{"y": (ph - el.Height) / 2}
	case AlignBottom:
		p = domain.Props{"y": ph - el.Height}
	default:
		return false
	}
	return m.UpdateElement(id, p)
}

// ToggleVisibility switches opacity between 0 and 1. A partially
// transparent element becomes hidden.
func (m *Model) ToggleVisibility(id string) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	o := 0.0
	if el.Opacity == 0 {
		o = 1
	}
	return m.UpdateElement(id, domain.Props{"opacity": o})
}

// MoveToPanel reassigns the element to another panel, keeping its
// panel-relative position.
func (m *Model) MoveToPanel(id string, panel domain.PanelID) bool {
	if panel.Index() < 0 {
		return false
	}
	return m.UpdateElement(id, domain.Props{"panelId": string(panel)})
}

// Duplicate adds a copy of the element offset by (dx, dy) on the same
// panel. The copy gets a fresh id and the next zIndex and becomes selected.
func (m *Model) Duplicate(id string, dx, dy float64) *domain.Element {
	el := m.ElementByID(id)
	if el == nil {
		return nil
	}
	c := el.Clone()
	c.ID = domain.NewID()
	c.Selected = false
	c.Move(el.X+dx, el.Y+dy)
	return m.AddElement(c)
}

// DeleteSelected removes the current selection.
func (m *Model) DeleteSelected() bool {
	if m.selected == nil {
		return false
	}
	return m.RemoveElement(m.selected.ID)
}
