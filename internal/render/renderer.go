/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"sort"
	"sync"

	"triptych/internal/domain"
	"triptych/internal/scene"
	"triptych/internal/vector"
)

// Panel describes one triptych panel in a snapshot. Origin is the panel's
// top-left corner on the full sheet, in canvas pixels.
type Panel struct {
	ID     domain.PanelID
	Label  string
	Origin vector.Pt
}

// Snapshot is an immutable, z-ordered copy of the retained state.
type Snapshot struct {
	Mode          Mode
	ProjectName   string
	WidthMM       float64
	HeightMM      float64
	PanelW        float64 // canvas pixels
	PanelH        float64
	Panels        []Panel
	Items         []Drawable // bottom first
	SelectedID    string
	ElementsTotal int
	Zoom          float64 // view factor, always 1 in print mode
}

// SheetPoint maps a panel-local point to sheet coordinates.
func (s Snapshot) SheetPoint(panel domain.PanelID, p vector.Pt) vector.Pt {
	i := panel.Index()
	if i < 0 {
		i = 1
	}
	return vector.Pt{X: p.X + float64(i)*s.PanelW, Y: p.Y}
}

// Renderer mirrors a scene.Model into Drawables. Scene notifications
// arrive on the mutating goroutine; Snapshot may be called from any
// goroutine.
type Renderer struct {
	mu    sync.RWMutex
	sheet sheet
	items map[string]*Drawable
	unsub []func()
	zoom  float64
}

type sheet struct {
	name           string
	wMM, hMM       float64
	panelW, panelH float64
}

func New() *Renderer { return &Renderer{items: make(map[string]*Drawable), zoom: 1} }

// Attach subscribes to m and builds drawables for its current elements.
// A previous attachment is dropped.
func (r *Renderer) Attach(m *scene.Model) {
	r.Detach()
	r.mu.Lock()
	r.items = make(map[string]*Drawable, m.Len())
	for _, el := range m.Elements() {
		r.items[el.ID] = newDrawable(el)
	}
	r.mu.Unlock()
	r.syncSheet(m)

	on := func(t scene.EventType, fn func(*domain.Element)) {
		r.unsub = append(r.unsub, m.Subscribe(t, func(e scene.Event) { fn(e.Element) }))
	}
	on(scene.ElementAdded, r.added)
	on(scene.ElementRemoved, r.removed)
	on(scene.ElementChanged, r.Update)
	on(scene.ElementSelected, r.Update)
	on(scene.ElementDeselected, r.Update)
	r.unsub = append(r.unsub, m.Subscribe(scene.ModelChanged, func(scene.Event) { r.syncSheet(m) }))
}

func (r *Renderer) syncSheet(m *scene.Model) {
	var sh sheet
	sh.name = m.ProjectName()
	sh.wMM, sh.hMM = m.Size()
	sh.panelW, sh.panelH = m.PanelSize()
	r.mu.Lock()
	r.sheet = sh
	r.mu.Unlock()
}

// Detach removes all subscriptions.
func (r *Renderer) Detach() {
	for _, u := range r.unsub {
		u()
	}
	r.unsub = nil
}

func (r *Renderer) added(el *domain.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.items[el.ID]; ok {
		d.patch(el)
		return
	}
	r.items[el.ID] = newDrawable(el)
}

func (r *Renderer) removed(el *domain.Element) {
	r.mu.Lock()
	delete(r.items, el.ID)
	r.mu.Unlock()
}

// Update patches the drawable of el in place. It is the live-change sink
// of the interaction controllers. Unknown elements are ignored.
func (r *Renderer) Update(el *domain.Element) {
	if el == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.items[el.ID]; ok {
		d.patch(el)
	}
}

// Drawable returns a copy of the drawable for id.
func (r *Renderer) Drawable(id string) (Drawable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return Drawable{}, false
	}
	return d.clone(ModeInteractive), true
}

// Len is the number of retained drawables.
func (r *Renderer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Snapshot copies the retained state sorted by zIndex. In print mode the
// selection, handles and panel labels are stripped and hidden elements are
// left out.
func (r *Renderer) Snapshot(mode Mode) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Snapshot{
		Mode:          mode,
		ProjectName:   r.sheet.name,
		WidthMM:       r.sheet.wMM,
		HeightMM:      r.sheet.hMM,
		PanelW:        r.sheet.panelW,
		PanelH:        r.sheet.panelH,
		ElementsTotal: len(r.items),
		Zoom:          1,
	}
	if mode == ModeInteractive {
		s.Zoom = r.zoom
	}
	for i, id := range domain.Panels {
		p := Panel{ID: id, Origin: vector.Pt{X: float64(i) * s.PanelW}}
		if mode == ModeInteractive {
			p.Label = panelLabel(id)
		}
		s.Panels = append(s.Panels, p)
	}
	for _, d := range r.items {
		if mode == ModePrint && !d.Visible() {
			continue
		}
		if d.Selected && mode == ModeInteractive {
			s.SelectedID = d.ID
		}
		s.Items = append(s.Items, d.clone(mode))
	}
	sort.SliceStable(s.Items, func(i, j int) bool {
		if s.Items[i].ZIndex != s.Items[j].ZIndex {
			return s.Items[i].ZIndex < s.Items[j].ZIndex
		}
		return s.Items[i].ID < s.Items[j].ID
	})
	return s
}

func panelLabel(id domain.PanelID) string {
	switch id {
	case domain.PanelLeft:
		return "Left panel"
	case domain.PanelRight:
		return "Right panel"
	}
	return "Center panel"
}
