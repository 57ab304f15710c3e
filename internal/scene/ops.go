/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package scene

import (
	"reflect"

	"triptych/internal/domain"
	"triptych/internal/interact"
	"triptych/internal/undo"
)

// The methods in this file are the history-recording mutation path.
// Undo, redo and load use the bypassing primitives in replay.go instead.

func (m *Model) record(a undo.Action) {
	m.history.Push(a)
	m.emit(HistoryChanged, nil)
}

// AddElement assigns the next zIndex, appends and selects el, and records
// the insertion. An element whose id is already present gets a fresh id.
func (m *Model) AddElement(el *domain.Element) *domain.Element {
	if el == nil {
		return nil
	}
	if el.ID == "" || m.indexOf(el.ID) >= 0 {
		el.ID = domain.NewID()
	}
	el.SetZIndex(m.nextZ)
	m.nextZ++
	el.Mode = domain.ModeIdle
	m.elements = append(m.elements, el)
	m.SelectElement(el)
	m.record(undo.Add(el.Serialize()))
	m.emit(ElementAdded, el)
	m.emit(ModelChanged, nil)
	m.modified = true
	return el
}

// RemoveElement deletes the element with the given id, recording its full
// state. Unknown ids return false.
func (m *Model) RemoveElement(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	el := m.elements[i]
	m.elements = append(m.elements[:i:i], m.elements[i+1:]...)
	if m.selected == el {
		m.DeselectElement()
	}
	m.record(undo.Remove(el.Serialize()))
	m.emit(ElementRemoved, el)
	m.emit(ModelChanged, nil)
	m.modified = true
	return true
}

// SelectElement makes el the single selection. The previous selection is
// deselected, and notified, before el is. Elements not in the model are
// ignored; nil deselects.
func (m *Model) SelectElement(el *domain.Element) bool {
	if el == nil {
		m.DeselectElement()
		return true
	}
	if i := m.indexOf(el.ID); i < 0 || m.elements[i] != el {
		return false
	}
	if m.selected != nil && m.selected != el {
		m.DeselectElement()
	}
	m.selected = el
	el.Selected = true
	m.emit(ElementSelected, el)
	return true
}

// DeselectElement clears the selection, if any.
func (m *Model) DeselectElement() {
	prev := m.selected
	if prev == nil {
		return
	}
	prev.Selected = false
	m.selected = nil
	m.emit(ElementDeselected, prev)
}

// UpdateElement applies partial props through the element mutators and
// records one Update with the before and after state. Unknown ids return
// false. Unrecognized keys are ignored; an update that changes nothing
// succeeds without recording history.
func (m *Model) UpdateElement(id string, props domain.Props) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	oldProps := el.Serialize()
	el.Apply(props)
	newProps := el.Serialize()
	if reflect.DeepEqual(oldProps, newProps) {
		return true
	}
	m.bumpNextZ(el.ZIndex)
	m.record(undo.Update(id, oldProps, newProps))
	m.emit(ElementChanged, el)
	m.emit(ModelChanged, nil)
	m.modified = true
	return true
}

// CommitGesture turns a completed pointer gesture into a single
// UpdateElement. The element already shows the final frame; it is put back
// to the start frame first so the recorded old state is the pre-gesture one.
func (m *Model) CommitGesture(g interact.Gesture) bool {
	el := m.ElementByID(g.ElementID)
	if el == nil || !g.Changed() {
		return false
	}
	el.Restore(frameProps(g.Start))
	return m.UpdateElement(g.ElementID, frameProps(g.Final))
}

func frameProps(f domain.Frame) domain.Props {
	return domain.Props{"x": f.X, "y": f.Y, "width": f.Width, "height": f.Height, "rotation": f.Rotation}
}

// ClearElements removes every element in one undoable step and restarts
// zIndex allocation at 1.
func (m *Model) ClearElements() {
	m.DeselectElement()
	removed := m.elements
	snaps := make([]domain.Props, len(removed))
	for i, el := range removed {
		snaps[i] = el.Serialize()
	}
	m.elements = nil
	m.nextZ = 1
	m.record(undo.Clear(snaps))
	for _, el := range removed {
		m.emit(ElementRemoved, el)
	}
	m.emit(ModelChanged, nil)
	m.modified = true
}
