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
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocomposer/internal/domain"
	applog "gocomposer/internal/log"
	"gocomposer/internal/membership"
)

const (
	FileExt        = ".gcp.json"
	BackupsDirName = "backups"
	backupStamp    = "20060102-150405"
)

// Handle tracks a document loaded from or saved to disk.
// Repaired counts membership fixes applied when the file was opened.
type Handle struct {
	Path     string
	Document domain.Document
	Repaired int
}

// Create writes doc to path, creating parent directories, and returns a handle.
func Create(path string, doc domain.Document) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("document path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	if doc.ID == "" {
		doc.ID = domain.NewDocumentID()
	}
	h := &Handle{Path: path, Document: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads the document at path. A file that cannot be read, parsed or
// validated is replaced by the newest backup. Group membership is repaired
// on the way in.
func Open(path string) (*Handle, error) {
	l := applog.WithComponent("storage")
	doc, err := readDocument(path)
	if err != nil {
		bdoc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		l.Warn("opened from backup", slog.String("path", path), slog.Any("err", err))
		doc = bdoc
	}
	fixed, n := membership.Repair(doc)
	if n > 0 {
		l.Info("repaired group membership", slog.String("path", path), slog.Int("fixes", n))
	}
	return &Handle{Path: path, Document: fixed, Repaired: n}, nil
}

func readDocument(path string) (domain.Document, error) {
	var d domain.Document
	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := Validate(b); err != nil {
		return d, fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Marshal returns the indented on-disk form of doc.
func Marshal(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the handle's document transactionally. The previous file, if
// any, is copied to a timestamped backup first.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Path == "" {
		return errors.New("invalid Handle: missing path")
	}
	data, err := Marshal(h.Document)
	if err != nil {
		return err
	}

	bdir := backupsDir(h.Path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	base := filepath.Base(h.Path)
	if _, statErr := os.Stat(h.Path); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", base, time.Now().Format(backupStamp)))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	temp := filepath.Join(filepath.Dir(h.Path), fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path and points the handle at it.
func SaveAs(h *Handle, path string) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if path == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	h.Path = path
	return Save(h)
}

// AutosaveCrashSnapshot writes the in-memory document next to the backups
// without touching the document file itself. It returns the snapshot path.
func AutosaveCrashSnapshot(h *Handle) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("invalid Handle")
	}
	data, err := Marshal(h.Document)
	if err != nil {
		return "", err
	}
	bdir := backupsDir(h.Path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	out := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), time.Now().Format(backupStamp)))
	if err := writeFileSync(out, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return out, nil
}

// backupsDir returns the directory holding backups of the document at path.
func backupsDir(path string) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName)
}

// Backups lists backup files of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := backupsDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup reads the newest backup that passes validation.
func openFromLatestBackup(path string) (domain.Document, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Document{}, err
	}
	if len(candidates) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	var last error
	for i := len(candidates) - 1; i >= 0; i-- {
		d, err := readDocument(candidates[i])
		if err == nil {
			return d, nil
		}
		last = err
	}
	return domain.Document{}, fmt.Errorf("no usable backup: %w", last)
}
