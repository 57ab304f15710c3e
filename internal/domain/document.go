/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package domain

// DocumentVersion is the format version written by Save.
const DocumentVersion = "1.0"

// Default physical size: three A4 portrait panels side by side, in millimeters.
const (
	DefaultWidthMM  = 630.0
	DefaultHeightMM = 297.0
	DefaultName     = "New triptych"
)

// Document is the persisted project. Elements are stored as flat records
// so unknown variants survive decoding and can be skipped one by one.
type Document struct {
	Version     string  `json:"version"`
	ProjectName string  `json:"projectName"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Elements    []Props `json:"elements"`
}

// NewDocument returns an empty document with default size.
func NewDocument(name string) Document {
	if name == "" {
		name = DefaultName
	}
	return Document{
		Version:     DocumentVersion,
		ProjectName: name,
		Width:       DefaultWidthMM,
		Height:      DefaultHeightMM,
		Elements:    []Props{},
	}
}

// Normalize fills missing size and name with defaults. Version is left alone
// so callers can still warn about a mismatch.
func (d *Document) Normalize() {
	if d.ProjectName == "" {
		d.ProjectName = DefaultName
	}
	if d.Width <= 0 {
		d.Width = DefaultWidthMM
	}
	if d.Height <= 0 {
		d.Height = DefaultHeightMM
	}
	if d.Elements == nil {
		d.Elements = []Props{}
	}
}

// PanelWidth is the width of one panel in millimeters.
func (d Document) PanelWidth() float64 { return d.Width / float64(len(Panels)) }
