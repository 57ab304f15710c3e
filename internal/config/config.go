/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type EditorConfig struct {
	HistoryLimit  int     `yaml:"history_limit"`
	DefaultPanel  string  `yaml:"default_panel"` // left | center | right
	SnapTolerance float64 `yaml:"snap_tolerance"`
}

type AssetsConfig struct {
	TimeoutMs     int    `yaml:"timeout_ms"`
	Retries       int    `yaml:"retries"`
	CacheDir      string `yaml:"cache_dir"`
	CacheMaxBytes int64  `yaml:"cache_max_bytes"`
	// The bearer token for remote images is not stored on disk; it lives in the OS keychain.
}

type ExportConfig struct {
	Preset string `yaml:"preset"` // print | web
	DPI    int    `yaml:"dpi"`
	Guides bool   `yaml:"guides"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Assets        AssetsConfig  `yaml:"assets"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{HistoryLimit: 50, DefaultPanel: "center", SnapTolerance: 6},
		Assets:        AssetsConfig{TimeoutMs: 10000, Retries: 3, CacheMaxBytes: 64 << 20},
		Export:        ExportConfig{Preset: "print", DPI: 300, Guides: false},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// EnvPrefix is prepended to every override key, e.g. TRP_ASSETS_TIMEOUT_MS.
const EnvPrefix = "TRP"

// EnvConfigPath points Load/Save at a specific file instead of the per-user location.
const EnvConfigPath = "TRP_CONFIG"

// envOverrides mirrors the overridable settings. Nil means "not set in the environment".
type envOverrides struct {
	HistoryLimit  *int     `envconfig:"EDITOR_HISTORY_LIMIT"`
	DefaultPanel  *string  `envconfig:"EDITOR_DEFAULT_PANEL"`
	SnapTolerance *float64 `envconfig:"EDITOR_SNAP_TOLERANCE"`
	TimeoutMs     *int     `envconfig:"ASSETS_TIMEOUT_MS"`
	Retries       *int     `envconfig:"ASSETS_RETRIES"`
	CacheDir      *string  `envconfig:"ASSETS_CACHE_DIR"`
	CacheMaxBytes *int64   `envconfig:"ASSETS_CACHE_MAX_BYTES"`
	ExportPreset  *string  `envconfig:"EXPORT_PRESET"`
	ExportDPI     *int     `envconfig:"EXPORT_DPI"`
	ExportGuides  *bool    `envconfig:"EXPORT_GUIDES"`
	LogLevel      *string  `envconfig:"LOG_LEVEL"`
	LogFormat     *string  `envconfig:"LOG_FORMAT"`
	LogSource     *bool    `envconfig:"LOG_SOURCE"`
	LogFile       *string  `envconfig:"LOG_FILE"`
}

// overrideKeys maps YAML dotted keys to the env var suffix above.
var overrideKeys = map[string]string{
	"editor.history_limit":   "EDITOR_HISTORY_LIMIT",
	"editor.default_panel":   "EDITOR_DEFAULT_PANEL",
	"editor.snap_tolerance":  "EDITOR_SNAP_TOLERANCE",
	"assets.timeout_ms":      "ASSETS_TIMEOUT_MS",
	"assets.retries":         "ASSETS_RETRIES",
	"assets.cache_dir":       "ASSETS_CACHE_DIR",
	"assets.cache_max_bytes": "ASSETS_CACHE_MAX_BYTES",
	"export.preset":          "EXPORT_PRESET",
	"export.dpi":             "EXPORT_DPI",
	"export.guides":          "EXPORT_GUIDES",
	"logging.level":          "LOG_LEVEL",
	"logging.format":         "LOG_FORMAT",
	"logging.source":         "LOG_SOURCE",
	"logging.file":           "LOG_FILE",
}

// Service/keys for OS keyring.
const (
	keyringService = "Triptych"
	keyringToken   = "assets_token"
)

// tokenStore abstracts the keyring so tests can stub it.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Triptych")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Triptych")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "triptych")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// LoadFile reads the user config file (if present) over the defaults without applying environment overrides.
// It is the base to edit and Save back, so values coming from the environment are not persisted.
func LoadFile() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	return cfg, nil
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// The remote asset token is read from the keyring and returned separately; a missing token is not an error.
func Load() (AppConfig, string, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, "", err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, "", err
	}
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		// keyring unavailable (headless CI, no dbus): run without a token
		tok = ""
	}
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the stored remote asset token.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if v := strings.ToLower(strings.TrimSpace(src.Editor.DefaultPanel)); v != "" {
		dst.Editor.DefaultPanel = v
	}
	if src.Editor.SnapTolerance > 0 {
		dst.Editor.SnapTolerance = src.Editor.SnapTolerance
	}
	if src.Assets.TimeoutMs > 0 {
		dst.Assets.TimeoutMs = src.Assets.TimeoutMs
	}
	if src.Assets.Retries > 0 {
		dst.Assets.Retries = src.Assets.Retries
	}
	if v := strings.TrimSpace(src.Assets.CacheDir); v != "" {
		dst.Assets.CacheDir = v
	}
	if src.Assets.CacheMaxBytes > 0 {
		dst.Assets.CacheMaxBytes = src.Assets.CacheMaxBytes
	}
	if v := strings.ToLower(strings.TrimSpace(src.Export.Preset)); v != "" {
		dst.Export.Preset = v
	}
	if src.Export.DPI > 0 {
		dst.Export.DPI = src.Export.DPI
	}
	// booleans: copy directly from the file so user preferences persist
	dst.Export.Guides = src.Export.Guides
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	var ov envOverrides
	if err := envconfig.Process(EnvPrefix, &ov); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if ov.HistoryLimit != nil && *ov.HistoryLimit > 0 {
		cfg.Editor.HistoryLimit = *ov.HistoryLimit
	}
	if ov.DefaultPanel != nil {
		cfg.Editor.DefaultPanel = strings.ToLower(*ov.DefaultPanel)
	}
	if ov.SnapTolerance != nil {
		cfg.Editor.SnapTolerance = *ov.SnapTolerance
	}
	if ov.TimeoutMs != nil {
		cfg.Assets.TimeoutMs = *ov.TimeoutMs
	}
	if ov.Retries != nil {
		cfg.Assets.Retries = *ov.Retries
	}
	if ov.CacheDir != nil {
		cfg.Assets.CacheDir = *ov.CacheDir
	}
	if ov.CacheMaxBytes != nil {
		cfg.Assets.CacheMaxBytes = *ov.CacheMaxBytes
	}
	if ov.ExportPreset != nil {
		cfg.Export.Preset = strings.ToLower(*ov.ExportPreset)
	}
	if ov.ExportDPI != nil {
		cfg.Export.DPI = *ov.ExportDPI
	}
	if ov.ExportGuides != nil {
		cfg.Export.Guides = *ov.ExportGuides
	}
	if ov.LogLevel != nil {
		cfg.Logging.Level = strings.ToLower(*ov.LogLevel)
	}
	if ov.LogFormat != nil {
		cfg.Logging.Format = strings.ToLower(*ov.LogFormat)
	}
	if ov.LogSource != nil {
		cfg.Logging.Source = *ov.LogSource
	}
	if ov.LogFile != nil {
		cfg.Logging.File = *ov.LogFile
	}
	return nil
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	suffix, ok := overrideKeys[key]
	if !ok {
		return "", false
	}
	name := EnvPrefix + "_" + suffix
	if os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// OverrideKeys lists the dotted keys that accept an environment override, sorted.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrideKeys))
	for k := range overrideKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Timeout returns the per-attempt asset fetch timeout.
func (a AssetsConfig) Timeout() time.Duration {
	if a.TimeoutMs <= 0 {
		return time.Duration(Defaults().Assets.TimeoutMs) * time.Millisecond
	}
	return time.Duration(a.TimeoutMs) * time.Millisecond
}
