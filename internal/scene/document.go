/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"triptych/internal/domain"
	applog "triptych/internal/log"
)

// SkippedRecord describes an element record that Load could not use.
type SkippedRecord struct {
	Index int
	Type  string
	Err   error
}

// LoadReport summarizes a Load. Skipped records and a version mismatch are
// warnings; the load itself always succeeds.
type LoadReport struct {
	Loaded          int
	Skipped         []SkippedRecord
	VersionMismatch bool
	Version         string
	// ForeignIDs lists loaded ids that are not generated element ids,
	// typically from documents written by other tools. They are kept.
	ForeignIDs []string
}

// Save returns the full project document and clears the modified flag.
func (m *Model) Save() domain.Document {
	doc := m.Document()
	m.modified = false
	return doc
}

// Document returns the project document without touching the modified flag.
func (m *Model) Document() domain.Document {
	doc := domain.Document{
		Version:     domain.DocumentVersion,
		ProjectName: m.name,
		Width:       m.width,
		Height:      m.height,
		Elements:    make([]domain.Props, 0, len(m.elements)),
	}
	for _, el := range m.elements {
		doc.Elements = append(doc.Elements, el.Serialize())
	}
	return doc
}

// Load replaces the scene with doc. Records of unknown type or with a
// duplicate id are skipped one by one. History is reset and zIndex
// allocation resumes above the highest loaded zIndex.
func (m *Model) Load(doc domain.Document) LoadReport {
	l := applog.WithOperation(applog.WithComponent("scene"), "load")
	rep := LoadReport{Version: doc.Version}
	if doc.Version != domain.DocumentVersion {
		rep.VersionMismatch = true
		l.Warn("document version mismatch, loading anyway",
			slog.String("version", doc.Version), slog.String("expected", domain.DocumentVersion))
	}
	doc.Normalize()

	m.clearWithoutHistory()
	m.name, m.width, m.height = doc.ProjectName, doc.Width, doc.Height

	for i, rec := range doc.Elements {
		typ, _ := rec["type"].(string)
		el, err := domain.Deserialize(rec)
		if err == nil && m.indexOf(el.ID) >= 0 {
			err = fmt.Errorf("duplicate id %q", el.ID)
		}
		if err != nil {
			rep.Skipped = append(rep.Skipped, SkippedRecord{Index: i, Type: typ, Err: err})
			l.Warn("skip element record", slog.Int("index", i), slog.String("type", typ), slog.Any("err", err))
			continue
		}
		if err := domain.ValidateID(el.ID); err != nil {
			rep.ForeignIDs = append(rep.ForeignIDs, el.ID)
			l.Debug("foreign element id kept", slog.String("id", el.ID), slog.Any("err", err))
		}
		m.elements = append(m.elements, el)
		m.emit(ElementAdded, el)
	}
	rep.Loaded = len(m.elements)

	m.history.Reset()
	m.nextZ = 1
	if len(m.elements) > 0 {
		maxZ := m.elements[0].ZIndex
		for _, el := range m.elements[1:] {
			maxZ = max(maxZ, el.ZIndex)
		}
		m.nextZ = maxZ + 1
	}
	m.modified = false
	m.emit(ModelChanged, nil)
	m.emit(HistoryChanged, nil)
	l.Info("document loaded", slog.Int("elements", rep.Loaded), slog.Int("skipped", len(rep.Skipped)))
	return rep
}

// UnknownTypes reports how many records were skipped for an unknown type.
func (r LoadReport) UnknownTypes() int {
	n := 0
	for _, s := range r.Skipped {
		if errors.Is(s.Err, domain.ErrUnknownType) {
			n++
		}
	}
	return n
}
