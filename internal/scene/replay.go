/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package scene

import (
	"log/slog"

	"triptych/internal/domain"
	applog "triptych/internal/log"
	"triptych/internal/undo"
)

// History-bypassing primitives. They never record; only Undo, Redo and Load
// call them.

// insertWithoutHistory recreates an element from a snapshot, keeping its id
// and zIndex.
func (m *Model) insertWithoutHistory(p domain.Props) *domain.Element {
	el, err := domain.Deserialize(p)
	if err != nil {
		applog.WithOperation(applog.WithComponent("scene"), "replay").Warn("skip snapshot", slog.Any("err", err))
		return nil
	}
	if m.indexOf(el.ID) >= 0 {
		return nil
	}
	m.elements = append(m.elements, el)
	m.bumpNextZ(el.ZIndex)
	m.emit(ElementAdded, el)
	return el
}

func (m *Model) removeWithoutHistory(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	el := m.elements[i]
	m.elements = append(m.elements[:i:i], m.elements[i+1:]...)
	if m.selected == el {
		m.DeselectElement()
	}
	m.emit(ElementRemoved, el)
	return true
}

func (m *Model) updateWithoutHistory(id string, p domain.Props) bool {
	el := m.ElementByID(id)
	if el == nil {
		return false
	}
	el.Restore(p)
	m.bumpNextZ(el.ZIndex)
	m.emit(ElementChanged, el)
	return true
}

func (m *Model) clearWithoutHistory() {
	m.DeselectElement()
	removed := m.elements
	m.elements = nil
	m.nextZ = 1
	for _, el := range removed {
		m.emit(ElementRemoved, el)
	}
}

// Undo reverts the action under the history cursor. Returns false when
// there is nothing to undo.
func (m *Model) Undo() bool {
	a, ok := m.history.StepBack()
	if !ok {
		return false
	}
	switch a.Kind() {
	case undo.KindAdd:
		m.removeWithoutHistory(a.ElementID())
	case undo.KindRemove:
		m.insertWithoutHistory(a.Snapshot())
	case undo.KindUpdate:
		m.updateWithoutHistory(a.ElementID(), a.Old())
	case undo.KindClear:
		for _, p := range a.Snapshots() {
			m.insertWithoutHistory(p)
		}
	}
	m.afterReplay("undo", a)
	return true
}

// Redo reapplies the action after the history cursor. Returns false at the end of history.
func (m *Model) Redo() bool {
	a, ok := m.history.StepForward()
	if !ok {
		return false
	}
	switch a.Kind() {
	case undo.KindAdd:
		m.insertWithoutHistory(a.Snapshot())
	case undo.KindRemove:
		m.removeWithoutHistory(a.ElementID())
	case undo.KindUpdate:
		m.updateWithoutHistory(a.ElementID(), a.New())
	case undo.KindClear:
		m.clearWithoutHistory()
	}
	m.afterReplay("redo", a)
	return true
}

func (m *Model) afterReplay(op string, a undo.Action) {
	m.modified = true
	applog.WithOperation(applog.WithComponent("scene"), op).Debug("replayed",
		slog.String("action", a.Kind().String()),
		slog.String("element", a.ElementID()),
		slog.Int("index", m.history.Index()))
	m.emit(HistoryChanged, nil)
	m.emit(ModelChanged, nil)
}
