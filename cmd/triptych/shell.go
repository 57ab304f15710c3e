/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"triptych/internal/domain"
	"triptych/internal/editor"
	"triptych/internal/scene"
	"triptych/internal/vector"
)

const shellHelp = `Commands (<id> may be "." for the selected element):
  list                              elements in z order
  add text <words...> [@panel]      add a text box
  add shape <kind> [@panel]         rectangle | ellipse | triangle
  add image <src> [@panel]          file path, data: or http(s) URL
  select <id> | deselect
  move <id> <x> <y>                 panel-local position
  size <id> <w> <h>
  rotate <id> <deg>
  set <id> key=value...             any element property, e.g. fillColor=#ff0000
  src <id> <src>                    replace an image source
  drag <panel> <x0> <y0> <x1> <y1>  pointer gesture in zoomed panel coordinates
  zoom [in|out|reset|<percent>]     view zoom, 10% to 500%
  front|back|hide|rm|dup <id>
  align <id> <left|center-h|right|top|center-v|bottom>
  panel <id> <left|center|right>
  undo | redo | clear | history
  save [path]
  export [flags]                    same flags as 'triptych export'
  quit | quit!                      quit! discards unsaved changes`

func (a *app) cmdEdit(ctx context.Context, path string, in io.Reader) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := a.ed.Create(path, ""); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Created", path)
	} else if err := a.open(path); err != nil {
		return err
	}
	sh := &shell{app: a, ctx: ctx, path: path}
	return sh.loop(in)
}

type shell struct {
	*app
	ctx  context.Context
	path string
}

func (s *shell) loop(in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			quit, err := s.exec(line)
			if err != nil {
				fmt.Fprintln(s.out, "Error:", err)
			}
			if quit {
				return nil
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if s.ed.Modified() {
		fmt.Fprintln(s.out, "\nInput closed with unsaved changes")
	}
	return nil
}

func (s *shell) exec(line string) (quit bool, err error) {
	f := strings.Fields(line)
	cmd, args := f[0], f[1:]
	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		if s.ed.Modified() {
			return false, errors.New("unsaved changes; save first or use quit!")
		}
		return true, nil
	case "quit!":
		return true, nil
	case "list", "ls":
		s.list()
	case "add":
		return false, s.add(args)
	case "select":
		id, err := s.id(args, 1)
		if err != nil {
			return false, err
		}
		return false, check(s.ed.Select(id), "select", id)
	case "deselect":
		s.ed.Deselect()
	case "move", "size", "rotate":
		return false, s.geometry(cmd, args)
	case "set":
		return false, s.set(args)
	case "src":
		id, err := s.id(args, 2)
		if err != nil {
			return false, err
		}
		return false, s.ed.ReplaceImageSource(s.ctx, id, args[1])
	case "drag":
		return false, s.drag(args)
	case "front", "back", "hide", "rm", "dup":
		return false, s.arrange(cmd, args)
	case "align":
		id, err := s.id(args, 2)
		if err != nil {
			return false, err
		}
		al, ok := scene.ParseAlignment(args[1])
		if !ok {
			return false, fmt.Errorf("unknown alignment %q", args[1])
		}
		return false, check(s.ed.Align(id, al), "align", id)
	case "panel":
		id, err := s.id(args, 2)
		if err != nil {
			return false, err
		}
		p, ok := domain.ParsePanel(args[1])
		if !ok {
			return false, fmt.Errorf("unknown panel %q", args[1])
		}
		return false, check(s.ed.MoveToPanel(id, p), "panel", id)
	case "undo":
		if !s.ed.Undo() {
			fmt.Fprintln(s.out, "Nothing to undo")
		}
	case "redo":
		if !s.ed.Redo() {
			fmt.Fprintln(s.out, "Nothing to redo")
		}
	case "clear":
		s.ed.Clear()
	case "zoom":
		err = s.zoom(args)
	case "history":
		i, n, capacity := s.ed.History()
		fmt.Fprintf(s.out, "History: %d of %d (cap %d)\n", i+1, n, capacity)
	case "save":
		if len(args) > 0 {
			s.path = args[0]
			err = s.ed.SaveAs(args[0])
		} else {
			err = s.ed.Save()
		}
		if err == nil {
			fmt.Fprintln(s.out, "Saved", s.ed.Path())
		}
		return false, err
	case "export":
		opt, err := s.exportFlags("export", s.path, args)
		if err != nil {
			return false, err
		}
		return false, s.exportOnce(s.ctx, opt)
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func check(ok bool, op, id string) error {
	if !ok {
		return fmt.Errorf("%s %s: no change", op, id)
	}
	return nil
}

// id resolves args[0] and checks that at least n arguments were given.
func (s *shell) id(args []string, n int) (string, error) {
	if len(args) < n {
		return "", fmt.Errorf("expected %d argument(s)", n)
	}
	if args[0] == "." {
		el, ok := s.ed.Selected()
		if !ok {
			return "", errors.New("nothing selected")
		}
		return el.ID, nil
	}
	if _, ok := s.ed.Element(args[0]); !ok {
		return "", fmt.Errorf("%w: %s", editor.ErrNotFound, args[0])
	}
	return args[0], nil
}

func floats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func (s *shell) list() {
	els := s.ed.Elements()
	if len(els) == 0 {
		fmt.Fprintln(s.out, "(empty)")
		return
	}
	for _, el := range els {
		mark := " "
		if el.Selected {
			mark = "*"
		}
		detail := ""
		switch {
		case el.Text != nil:
			detail = strconv.Quote(el.Text.Text)
		case el.Shape != nil:
			detail = string(el.Shape.ShapeType) + " " + el.Shape.FillColor
		case el.Image != nil:
			detail = el.Image.Alt
			if el.Image.Src == "" {
				detail += " (no source)"
			}
		}
		hidden := ""
		if el.Opacity == 0 {
			hidden = " hidden"
		}
		fmt.Fprintf(s.out, "%s %s %-5s %-6s z=%d %.0f,%.0f %.0fx%.0f rot=%.0f%s %s\n",
			mark, el.ID, el.Kind, el.Panel, el.ZIndex, el.X, el.Y, el.Width, el.Height, el.Rotation, hidden, detail)
	}
}

// placement strips a trailing @panel token.
func placement(args []string) ([]string, editor.Placement, error) {
	var pl editor.Placement
	if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "@") {
		p, ok := domain.ParsePanel(strings.TrimPrefix(args[n-1], "@"))
		if !ok {
			return nil, pl, fmt.Errorf("unknown panel %q", args[n-1])
		}
		pl.Panel = p
		args = args[:n-1]
	}
	return args, pl, nil
}

func (s *shell) add(args []string) error {
	if len(args) == 0 {
		return errors.New("add text|shape|image")
	}
	kind := args[0]
	rest, pl, err := placement(args[1:])
	if err != nil {
		return err
	}
	var el *domain.Element
	switch kind {
	case "text":
		el = s.ed.AddText(strings.Join(rest, " "), pl)
	case "shape":
		k := domain.ShapeRectangle
		if len(rest) > 0 {
			k = domain.ShapeKind(rest[0])
		}
		switch k {
		case domain.ShapeRectangle, domain.ShapeEllipse, domain.ShapeTriangle:
		default:
			return fmt.Errorf("unknown shape %q", k)
		}
		el = s.ed.AddShape(k, pl)
	case "image":
		if len(rest) == 0 {
			return errors.New("add image <src>")
		}
		el, err = s.ed.AddImage(s.ctx, rest[0], pl)
		if err != nil {
			// The element is kept as a placeholder.
			fmt.Fprintln(s.out, "Warning:", err)
		}
	default:
		return fmt.Errorf("cannot add %q", kind)
	}
	if el != nil {
		fmt.Fprintln(s.out, "Added", el.ID)
	}
	return nil
}

func (s *shell) geometry(cmd string, args []string) error {
	want := 3
	if cmd == "rotate" {
		want = 2
	}
	id, err := s.id(args, want)
	if err != nil {
		return err
	}
	v, err := floats(args[1:want])
	if err != nil {
		return err
	}
	var p domain.Props
	switch cmd {
	case "move":
		p = domain.Props{"x": v[0], "y": v[1]}
	case "size":
		p = domain.Props{"width": v[0], "height": v[1]}
	case "rotate":
		p = domain.Props{"rotation": v[0]}
	}
	return check(s.ed.Update(id, p), cmd, id)
}

// parseValue turns a shell token into a property value.
func parseValue(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func (s *shell) set(args []string) error {
	id, err := s.id(args, 2)
	if err != nil {
		return err
	}
	p := domain.Props{}
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		p[k] = parseValue(v)
	}
	return check(s.ed.Update(id, p), "set", id)
}

func (s *shell) drag(args []string) error {
	if len(args) != 5 {
		return errors.New("drag <panel> <x0> <y0> <x1> <y1>")
	}
	panel, ok := domain.ParsePanel(args[0])
	if !ok {
		return fmt.Errorf("unknown panel %q", args[0])
	}
	v, err := floats(args[1:])
	if err != nil {
		return err
	}
	start := s.ed.ViewToCanvas(vector.Pt{X: v[0], Y: v[1]})
	if !s.ed.PointerDownAt(panel, start) {
		return errors.New("nothing under the pointer")
	}
	end := s.ed.ViewToCanvas(vector.Pt{X: v[2], Y: v[3]})
	s.ed.PointerMove(end)
	if g, ok := s.ed.PointerUp(end); ok {
		fmt.Fprintf(s.out, "%s %s\n", g.Mode, g.ElementID)
	}
	return nil
}

func (s *shell) zoom(args []string) error {
	var z float64
	switch {
	case len(args) == 0:
		z = s.ed.Zoom()
	case args[0] == "in":
		z = s.ed.ZoomIn()
	case args[0] == "out":
		z = s.ed.ZoomOut()
	case args[0] == "reset":
		z = s.ed.ResetZoom()
	default:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
		if err != nil {
			return fmt.Errorf("zoom [in|out|reset|<percent>]: %w", err)
		}
		z = s.ed.SetZoom(pct / 100)
	}
	fmt.Fprintf(s.out, "Zoom: %d%%\n", int(math.Round(z*100)))
	return nil
}

func (s *shell) arrange(cmd string, args []string) error {
	id, err := s.id(args, 1)
	if err != nil {
		return err
	}
	switch cmd {
	case "front":
		return check(s.ed.BringToFront(id), cmd, id)
	case "back":
		return check(s.ed.SendToBack(id), cmd, id)
	case "hide":
		return check(s.ed.ToggleVisibility(id), cmd, id)
	case "rm":
		return check(s.ed.Remove(id), cmd, id)
	case "dup":
		c, ok := s.ed.Duplicate(id, 20, 20)
		if !ok {
			return check(false, cmd, id)
		}
		fmt.Fprintln(s.out, "Added", c.ID)
	}
	return nil
}
