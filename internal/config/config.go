/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gocomposer/internal/editor"
	"gocomposer/internal/geometry"
	"gocomposer/internal/interaction"
	applog "gocomposer/internal/log"
	"gocomposer/internal/undo"
)

// AppConfig is the user-editable configuration persisted as YAML in the user
// scope. Environment variables are read-only overrides applied at load time.
// config_version is bumped when the structure changes incompatibly.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

type EditorConfig struct {
	HistoryDepth    int     `yaml:"history_depth"`
	CoalesceMs      int     `yaml:"coalesce_ms"`
	MinSize         float64 `yaml:"min_size"`
	MinTextWidth    float64 `yaml:"min_text_width"`
	MoveOverflow    float64 `yaml:"move_overflow"`
	CropMinVisible  float64 `yaml:"crop_min_visible"`
	SnapEnabled     bool    `yaml:"snap_enabled"`
	SnapThreshold   float64 `yaml:"snap_threshold"`
	RotateSnapDeg   float64 `yaml:"rotate_snap_deg"`
	WorkspaceWidth  float64 `yaml:"workspace_width"`  // 0 leaves moves unclamped
	WorkspaceHeight float64 `yaml:"workspace_height"` // 0 leaves moves unclamped
	DuplicateOffset float64 `yaml:"duplicate_offset"`
}

type StorageConfig struct {
	AutosaveKeep int `yaml:"autosave_keep"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Source     bool   `yaml:"source"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			HistoryDepth:    100,
			CoalesceMs:      250,
			MinSize:         geometry.DefaultMinSize,
			MinTextWidth:    geometry.DefaultMinTextWidth,
			MoveOverflow:    geometry.DefaultMoveOverflow,
			CropMinVisible:  geometry.DefaultMinVisible,
			SnapEnabled:     true,
			SnapThreshold:   geometry.DefaultSnapThreshold,
			WorkspaceWidth:  1000,
			WorkspaceHeight: 1000,
			DuplicateOffset: 20,
		},
		Storage: StorageConfig{AutosaveKeep: 20},
		Logging: LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Env var names used as overrides.
const (
	EnvHistoryDepth = "GCP_HISTORY_DEPTH"
	EnvSnapEnabled  = "GCP_SNAP"
	EnvRotateSnap   = "GCP_ROTATE_SNAP_DEG"
	EnvAutosaveKeep = "GCP_AUTOSAVE_KEEP"
	EnvLogLevel     = "GCP_LOG_LEVEL"
	EnvLogFormat    = "GCP_LOG_FORMAT"
	EnvLogSource    = "GCP_LOG_SOURCE"
	EnvLogFile      = "GCP_LOG_FILE"
	EnvConfigPath   = "GCP_CONFIG"
)

const (
	configFileName  = "config.yaml"
	appDirName      = "GoComposer"
	appDirNameLinux = "gocomposer"
)

// ConfigPath returns the per-user config file path. GCP_CONFIG overrides it.
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
		base = filepath.Join(base, appDirName)
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", appDirName)
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, appDirNameLinux)
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", appDirNameLinux)
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, configFileName), nil
}

// Load reads the user config file if present, applies defaults and merges
// environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults;
// a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg, data)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to the user config path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as YAML to path.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// mergeInto copies set fields of src over dst. Booleans are taken from the
// file only when their key is present in raw.
func mergeInto(dst *AppConfig, src *AppConfig, raw []byte) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	e, s := &dst.Editor, src.Editor
	setInt(&e.HistoryDepth, s.HistoryDepth)
	setInt(&e.CoalesceMs, s.CoalesceMs)
	setFloat(&e.MinSize, s.MinSize)
	setFloat(&e.MinTextWidth, s.MinTextWidth)
	setFloat(&e.MoveOverflow, s.MoveOverflow)
	setFloat(&e.CropMinVisible, s.CropMinVisible)
	setFloat(&e.SnapThreshold, s.SnapThreshold)
	setFloat(&e.RotateSnapDeg, s.RotateSnapDeg)
	setFloat(&e.WorkspaceWidth, s.WorkspaceWidth)
	setFloat(&e.WorkspaceHeight, s.WorkspaceHeight)
	setFloat(&e.DuplicateOffset, s.DuplicateOffset)
	if hasKey(raw, "editor", "snap_enabled") {
		e.SnapEnabled = s.SnapEnabled
	}
	setInt(&dst.Storage.AutosaveKeep, src.Storage.AutosaveKeep)

	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	setInt(&dst.Logging.MaxSizeMB, src.Logging.MaxSizeMB)
	setInt(&dst.Logging.MaxBackups, src.Logging.MaxBackups)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// hasKey reports whether the YAML document sets section.key.
func hasKey(raw []byte, section, key string) bool {
	var m map[string]map[string]any
	if yaml.Unmarshal(raw, &m) != nil {
		return false
	}
	_, ok := m[section][key]
	return ok
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.HistoryDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapEnabled)); v != "" {
		cfg.Editor.SnapEnabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvRotateSnap)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Editor.RotateSnapDeg = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.AutosaveKeep = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name := map[string]string{
		"editor.history_depth":   EnvHistoryDepth,
		"editor.snap_enabled":    EnvSnapEnabled,
		"editor.rotate_snap_deg": EnvRotateSnap,
		"storage.autosave_keep":  EnvAutosaveKeep,
		"logging.level":          EnvLogLevel,
		"logging.format":         EnvLogFormat,
		"logging.source":         EnvLogSource,
		"logging.file":           EnvLogFile,
	}[key]
	if name == "" || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Options converts the editor section into editor options.
func (c EditorConfig) Options() editor.Options {
	opts := editor.Options{
		History: undo.Config{
			MaxDepth:    c.HistoryDepth,
			MinInterval: time.Duration(c.CoalesceMs) * time.Millisecond,
		},
		Interaction: interaction.Options{
			MoveOverflow:  c.MoveOverflow,
			MinSize:       c.MinSize,
			MinTextWidth:  c.MinTextWidth,
			MinVisible:    c.CropMinVisible,
			RotationSnap:  c.RotateSnapDeg,
			Snap:          c.SnapEnabled,
			SnapThreshold: c.SnapThreshold,
		},
	}
	if c.WorkspaceWidth > 0 && c.WorkspaceHeight > 0 {
		opts.Interaction.Workspace = geometry.Rect{W: c.WorkspaceWidth, H: c.WorkspaceHeight}
	}
	if c.DuplicateOffset != 0 {
		opts.DuplicateOffset.X, opts.DuplicateOffset.Y = c.DuplicateOffset, c.DuplicateOffset
	}
	return opts
}

// Options converts the logging section into logger options.
func (c LoggingConfig) Options() applog.Options {
	return applog.Options{
		Level:      c.Level,
		Format:     c.Format,
		AddSource:  c.Source,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}
