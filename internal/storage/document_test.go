/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"gocomposer/internal/domain"
)

func sampleDoc() domain.Document {
	return domain.Document{
		ID:           "doc_test",
		ActivePageID: "p1",
		Pages: []domain.Page{{ID: "p1", Title: "Cover", Blocks: []domain.Block{
			{ID: "a", Type: domain.BlockImage, Position: domain.Point{X: 10, Y: 20}, Size: &domain.Size{Width: 100, Height: 50}, Crop: &domain.Crop{Left: 10}},
			{ID: "t", Type: domain.BlockText, Position: domain.Point{X: 0, Y: 0}, Text: &domain.TextProps{Content: "Hi", FontSize: 16}, ZIndex: 1},
		}}},
	}
}

func TestCreateWritesValidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc"+FileExt)
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	b, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if err := Validate(b); err != nil {
		t.Fatalf("written document fails schema: %v", err)
	}
	var got domain.Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if got.ID != "doc_test" || len(got.Pages[0].Blocks) != 2 {
		t.Fatalf("unexpected content %+v", got)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc"+FileExt)
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Document.Pages[0].Title = "changed"
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	baks, err := Backups(path)
	if err != nil {
		t.Fatalf("Backups error: %v", err)
	}
	if len(baks) == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
	if !strings.HasPrefix(filepath.Base(baks[0]), "doc"+FileExt+".") {
		t.Fatalf("unexpected backup name %s", baks[0])
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc"+FileExt)
	h, err := Create(path, sampleDoc())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt document: %v", err)
	}
	opened, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Document.ID != "doc_test" {
		t.Fatalf("opened wrong document %q", opened.Document.ID)
	}
}

func TestOpenWithoutBackupFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc"+FileExt)
	if err := os.WriteFile(path, []byte(`{"id": ""}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for invalid document without backups")
	}
}

func TestOpenRepairsMembership(t *testing.T) {
	doc := sampleDoc()
	doc.Pages[0].Blocks[0].GroupID = "grp_gone"
	path := filepath.Join(t.TempDir(), "doc"+FileExt)
	if _, err := Create(path, doc); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if h.Repaired == 0 || h.Document.Pages[0].Blocks[0].GroupID != "" {
		t.Fatalf("dangling group reference must be cleared, repaired=%d", h.Repaired)
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	dir := t.TempDir()
	h, err := Create(filepath.Join(dir, "a"+FileExt), sampleDoc())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	dst := filepath.Join(dir, "copy", "b"+FileExt)
	if err := SaveAs(h, dst); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if h.Path != dst {
		t.Fatalf("handle not updated: %s", h.Path)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("new file missing: %v", err)
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	h, err := Create(filepath.Join(t.TempDir(), "doc"+FileExt), sampleDoc())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Document.Pages[0].Title = "unsaved"
	path, err := AutosaveCrashSnapshot(h)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Pages[0].Title != "unsaved" {
		t.Fatalf("snapshot content mismatch: %q", got.Pages[0].Title)
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	data := []byte(`{
		"id": "doc",
		"activePageId": "p",
		"pages": [{"id": "p", "blocks": [
			{"id": "a", "type": "bogus", "position": {"x": 0, "y": 0}},
			{"id": "b", "type": "image", "position": {"x": 0, "y": 0}, "crop": {"left": 150}}
		]}]
	}`)
	err := Validate(data)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", n, err)
	}
	if err := Validate([]byte("not json")); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument for malformed input, got %v", err)
	}
}
