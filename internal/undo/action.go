/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"time"

	"triptych/internal/domain"
)

// Kind tags the variant of an Action.
type Kind uint8

const (
	KindAdd Kind = iota
	KindRemove
	KindUpdate
	KindClear
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindUpdate:
		return "update"
	case KindClear:
		return "clear"
	}
	return "unknown"
}

// Action is one recorded, reversible model mutation. It is immutable: the
// constructors copy their inputs and the accessors hand out copies.
type Action struct {
	kind      Kind
	elementID string
	snapshot  domain.Props   // add, remove
	old, new  domain.Props   // update
	all       []domain.Props // clear
	ts        time.Time
}

// Add records the insertion of an element in its post-insert state.
func Add(snapshot domain.Props) Action {
	return Action{kind: KindAdd, elementID: idOf(snapshot), snapshot: snapshot.Clone(), ts: time.Now()}
}

// Remove records the deletion of an element with its full pre-delete state.
func Remove(snapshot domain.Props) Action {
	return Action{kind: KindRemove, elementID: idOf(snapshot), snapshot: snapshot.Clone(), ts: time.Now()}
}

// Update records an attribute change of one element.
func Update(id string, oldProps, newProps domain.Props) Action {
	return Action{kind: KindUpdate, elementID: id, old: oldProps.Clone(), new: newProps.Clone(), ts: time.Now()}
}

// Clear records the removal of every element at once.
func Clear(snapshots []domain.Props) Action {
	return Action{kind: KindClear, all: cloneAll(snapshots), ts: time.Now()}
}

func (a Action) Kind() Kind                { return a.kind }
func (a Action) ElementID() string         { return a.elementID }
func (a Action) Snapshot() domain.Props    { return a.snapshot.Clone() }
func (a Action) Old() domain.Props         { return a.old.Clone() }
func (a Action) New() domain.Props         { return a.new.Clone() }
func (a Action) Snapshots() []domain.Props { return cloneAll(a.all) }
func (a Action) Time() time.Time           { return a.ts }

func idOf(p domain.Props) string {
	id, _ := p["id"].(string)
	return id
}

func cloneAll(in []domain.Props) []domain.Props {
	out := make([]domain.Props, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
