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

import "sync"

// DefaultMaxEntries bounds the history when Config leaves it unset.
const DefaultMaxEntries = 50

// Config controls the history depth.
type Config struct {
	// MaxEntries caps the number of recorded actions; the oldest is dropped beyond it.
	MaxEntries int
}

// Log is a bounded linear history with a cursor. Index -1 means "before the
// first action"; recording while the cursor is behind the end discards the
// actions after it. It is safe for concurrent use.
type Log struct {
	cfg     Config
	mu      sync.Mutex
	actions []Action
	index   int
}

func NewLog(cfg Config) *Log {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &Log{cfg: cfg, index: -1}
}

// Push records a new action after the cursor and moves the cursor onto it.
func (l *Log) Push(a Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// branch discard
	if l.index < len(l.actions)-1 {
		l.actions = l.actions[:l.index+1]
	}
	l.actions = append(l.actions, a)
	l.index = len(l.actions) - 1
	l.enforceCapLocked()
}

// StepBack returns the action under the cursor and moves the cursor back.
func (l *Log) StepBack() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index < 0 {
		return Action{}, false
	}
	a := l.actions[l.index]
	l.index--
	return a, true
}

// StepForward moves the cursor forward and returns the action now under it.
func (l *Log) StepForward() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index >= len(l.actions)-1 {
		return Action{}, false
	}
	l.index++
	return l.actions[l.index], true
}

func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index >= 0
}

func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index < len(l.actions)-1
}

// Len is the number of recorded actions.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions)
}

// Index is the cursor, -1 when nothing can be undone.
func (l *Log) Index() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index
}

// Reset empties the history.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = nil
	l.index = -1
}

// Actions returns a copy of the recorded actions, oldest first.
func (l *Log) Actions() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Action(nil), l.actions...)
}

// Stats returns the history length, the cursor and the cap for diagnostics.
func (l *Log) Stats() (entries, index, max int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions), l.index, l.cfg.MaxEntries
}

func (l *Log) enforceCapLocked() {
	if over := len(l.actions) - l.cfg.MaxEntries; over > 0 {
		l.actions = append([]Action{}, l.actions[over:]...)
		l.index -= over
		if l.index < -1 {
			l.index = -1
		}
	}
}
