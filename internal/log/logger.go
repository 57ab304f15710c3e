/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for the editor.
// Records carry component and operation attributes, plus the document path
// when the context was tagged with ContextWithDocument.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"triptych/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "TRP_LOG_LEVEL"  // debug|info|warn|error
	EnvFormat = "TRP_LOG_FORMAT" // console|json
	EnvSource = "TRP_LOG_SOURCE" // true|false
	EnvFile   = "TRP_LOG_FILE"   // path, enables rotated JSON file output
)

// Options controls logger initialization.
// Defaults: INFO level, console format, no source, no file.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string    // optional path for file logging (rotated)
	Console   io.Writer // nil means stderr
}

var current atomic.Pointer[slog.Logger]

// L returns the application logger, initializing it from the environment
// on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init replaces the application logger and slog's default.
func Init(opts Options) {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	w := opts.Console
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = newConsoleHandler(w, hopts)
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: 5, MaxBackups: 5, MaxAge: 14, Compress: true}
		h = tee(h, slog.NewJSONHandler(rot, hopts))
	}

	l := slog.New(docHandler{h}).With(
		slog.String("app", "triptych"),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)
	current.Store(l)
	slog.SetDefault(l)
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	o := Options{
		Level:  os.Getenv(EnvLevel),
		Format: os.Getenv(EnvFormat),
		File:   os.Getenv(EnvFile),
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvSource))) {
	case "1", "true", "yes", "on":
		o.AddSource = true
	}
	return o
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type docKey struct{}

// ContextWithDocument tags ctx with the path of the document being worked on.
// Records logged with that context (InfoContext etc.) carry a "doc" attribute.
func ContextWithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, docKey{}, path)
}

// DocumentFrom returns the document path stored by ContextWithDocument.
func DocumentFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	p, ok := ctx.Value(docKey{}).(string)
	return p, ok && p != ""
}
