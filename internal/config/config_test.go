/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	for _, k := range []string{EnvHistoryDepth, EnvSnapEnabled, EnvRotateSnap, EnvAutosaveKeep, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(k, "")
	}
	return path
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Editor.HistoryDepth = 7
	cfg.Editor.SnapEnabled = false
	cfg.Storage.AutosaveKeep = 3
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Editor.HistoryDepth != 7 || got.Editor.SnapEnabled || got.Storage.AutosaveKeep != 3 {
		t.Fatalf("saved values not loaded: %#v", got)
	}
}

func TestPartialFileKeepsOtherDefaults(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("editor:\n  min_size: 12\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Editor.MinSize != 12 {
		t.Fatalf("min_size not merged: %v", cfg.Editor.MinSize)
	}
	if !cfg.Editor.SnapEnabled || cfg.Editor.HistoryDepth != 100 {
		t.Fatalf("absent keys must keep defaults: %#v", cfg.Editor)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("editor: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Editor.HistoryDepth != 100 {
		t.Fatalf("defaults expected alongside the error, got %#v", cfg.Editor)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gcp.log"
	mergeInto(&dst, &src, nil)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gcp.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryDepth, "5")
	t.Setenv(EnvSnapEnabled, "off")
	t.Setenv(EnvRotateSnap, "15")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogSource, "1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 5 || cfg.Editor.SnapEnabled || cfg.Editor.RotateSnapDeg != 15 {
		t.Fatalf("editor overrides not applied: %#v", cfg.Editor)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %#v", cfg.Logging)
	}
	if name, ok := EnvOverrideFor("editor.history_depth"); !ok || name != EnvHistoryDepth {
		t.Fatalf("EnvOverrideFor = %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("storage.autosave_keep"); ok {
		t.Fatalf("unset variable must not report an override")
	}
}

func TestEditorOptions(t *testing.T) {
	c := Defaults().Editor
	c.RotateSnapDeg = 15
	o := c.Options()
	if o.History.MaxDepth != 100 || o.History.MinInterval != 250*time.Millisecond {
		t.Fatalf("history options wrong: %#v", o.History)
	}
	if o.Interaction.Workspace.W != 1000 || o.Interaction.RotationSnap != 15 || !o.Interaction.Snap {
		t.Fatalf("interaction options wrong: %#v", o.Interaction)
	}
	if o.DuplicateOffset.X != 20 || o.DuplicateOffset.Y != 20 {
		t.Fatalf("duplicate offset wrong: %#v", o.DuplicateOffset)
	}
	c.WorkspaceWidth = 0
	if c.Options().Interaction.Workspace.W != 0 {
		t.Fatalf("zero workspace must leave moves unclamped")
	}
}
