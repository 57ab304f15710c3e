/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package scene

import (
	"encoding/json"
	"testing"

	"triptych/internal/domain"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New(Options{})
	m.SetProjectName("Expo")
	m.AddElement(text("a"))
	img := domain.NewImage("photo.png", 400, 200)
	m.AddElement(img)
	m.UpdateElement("a", domain.Props{"zIndex": 7})
	if !m.Modified() {
		t.Fatalf("model must be modified")
	}
	doc := m.Save()
	if m.Modified() {
		t.Fatalf("save must clear modified")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.Document
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	n := New(Options{})
	rep := n.Load(back)
	if rep.Loaded != 2 || len(rep.Skipped) != 0 || rep.VersionMismatch {
		t.Fatalf("report = %+v", rep)
	}
	if n.ProjectName() != "Expo" || n.NextZIndex() != 8 {
		t.Fatalf("name=%q next=%d", n.ProjectName(), n.NextZIndex())
	}
	if n.CanUndo() || n.HistoryLen() != 0 {
		t.Fatalf("load must reset history")
	}
	got := n.ElementByID(img.ID)
	if got == nil || got.Image.OriginalWidth != 400 || got.Image.Src != "photo.png" {
		t.Fatalf("image = %+v", got)
	}
}

func TestLoadSkipsUnknownAndDuplicates(t *testing.T) {
	doc := domain.NewDocument("x")
	doc.Version = "0.9"
	doc.Elements = []domain.Props{
		{"id": "a", "type": "text", "text": "one", "zIndex": 3.0},
		{"id": "b", "type": "video"},
		{"id": "a", "type": "shape"},
		{"id": "c", "type": "shape", "width": 10.0, "height": 12.0, "panelId": "panel-left"},
	}
	m := New(Options{})
	m.AddElement(text("old"))
	var removed, added int
	m.Subscribe(ElementRemoved, func(Event) { removed++ })
	m.Subscribe(ElementAdded, func(Event) { added++ })
	rep := m.Load(doc)
	if !rep.VersionMismatch || rep.Loaded != 2 || len(rep.Skipped) != 2 || rep.UnknownTypes() != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if removed != 1 || added != 2 {
		t.Fatalf("removed=%d added=%d", removed, added)
	}
	c := m.ElementByID("c")
	if c == nil || c.Width != 10 || c.Panel != domain.PanelLeft {
		t.Fatalf("stored geometry must be kept as is: %+v", c)
	}
	if m.NextZIndex() != 4 {
		t.Fatalf("next = %d", m.NextZIndex())
	}
	if len(rep.ForeignIDs) != 2 || rep.ForeignIDs[0] != "a" || rep.ForeignIDs[1] != "c" {
		t.Fatalf("hand-written ids should be reported as foreign: %v", rep.ForeignIDs)
	}
}

func TestLoadGeneratedIDsAreNotForeign(t *testing.T) {
	src := New(Options{})
	src.AddElement(domain.NewShape(domain.ShapeEllipse))
	src.AddElement(domain.NewText("hi"))
	m := New(Options{})
	rep := m.Load(src.Save())
	if rep.Loaded != 2 || len(rep.ForeignIDs) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestLoadEmpty(t *testing.T) {
	m := New(Options{})
	m.AddElement(text("a"))
	m.Load(domain.NewDocument(""))
	if m.Len() != 0 || m.NextZIndex() != 1 || m.ProjectName() == "" {
		t.Fatalf("len=%d next=%d name=%q", m.Len(), m.NextZIndex(), m.ProjectName())
	}
}
