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
	"fmt"
	"io"
	"strconv"
	"strings"

	"triptych/internal/config"
)

// cmdConfig prints the effective settings or manages the token kept in the OS keychain.
func (a *app) cmdConfig(args []string, in io.Reader, token string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		return a.showConfig(token)
	case "set-token":
		tok := ""
		if len(args) > 1 {
			tok = args[1]
		} else {
			sc := bufio.NewScanner(in)
			if sc.Scan() {
				tok = sc.Text()
			}
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return usageError{"set-token requires a token argument or a line on stdin"}
		}
		// Save the file values only; env overrides stay out of the YAML.
		fc, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := config.Save(fc, tok); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Token stored in the OS keychain")
		return nil
	case "clear-token":
		if err := config.ClearToken(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Token removed")
		return nil
	default:
		return usageError{fmt.Sprintf("unknown config command %q (show, set-token, clear-token)", sub)}
	}
}

func (a *app) showConfig(token string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Config file:", path)
	values := settings(a.cfg)
	for _, key := range config.OverrideKeys() {
		line := fmt.Sprintf("  %-24s %s", key, values[key])
		if name, ok := config.EnvOverrideFor(key); ok {
			line += "  (env " + name + ")"
		}
		fmt.Fprintln(a.out, line)
	}
	state := "not set"
	if token != "" {
		state = "set"
	}
	fmt.Fprintf(a.out, "  %-24s %s\n", "assets.token", state)
	return nil
}

func settings(c config.AppConfig) map[string]string {
	return map[string]string{
		"editor.history_limit":   strconv.Itoa(c.Editor.HistoryLimit),
		"editor.default_panel":   c.Editor.DefaultPanel,
		"editor.snap_tolerance":  strconv.FormatFloat(c.Editor.SnapTolerance, 'g', -1, 64),
		"assets.timeout_ms":      strconv.Itoa(c.Assets.TimeoutMs),
		"assets.retries":         strconv.Itoa(c.Assets.Retries),
		"assets.cache_dir":       c.Assets.CacheDir,
		"assets.cache_max_bytes": strconv.FormatInt(c.Assets.CacheMaxBytes, 10),
		"export.preset":          c.Export.Preset,
		"export.dpi":             strconv.Itoa(c.Export.DPI),
		"export.guides":          strconv.FormatBool(c.Export.Guides),
		"logging.level":          c.Logging.Level,
		"logging.format":         c.Logging.Format,
		"logging.source":         strconv.FormatBool(c.Logging.Source),
		"logging.file":           c.Logging.File,
	}
}
