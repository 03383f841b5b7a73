/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocomposer/internal/domain"
	applog "gocomposer/internal/log"
	"gocomposer/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// RevisionsDirName holds disposable per-directory data next to documents.
	RevisionsDirName  = ".gcp"
	RevisionsFileName = "revisions.sqlite"

	schemaVersion = 1

	// Fixed-width so that ORDER BY ts sorts chronologically.
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// language=SQL
// dialect=SQLite
const createRevisionsSQL = `CREATE TABLE IF NOT EXISTS revisions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id  TEXT NOT NULL,
	ts      TEXT NOT NULL,
	blob    BLOB NOT NULL
)`

// language=SQL
// dialect=SQLite
const createRevisionsIndexSQL = `CREATE INDEX IF NOT EXISTS revisions_doc_ts ON revisions(doc_id, ts)`

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(doc_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT ts, blob FROM revisions WHERE doc_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE doc_id = ? AND id NOT IN (
	SELECT id FROM revisions WHERE doc_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Revision is one autosaved document blob.
type Revision struct {
	TS   time.Time
	Blob []byte
}

// Document decodes the revision blob.
func (r Revision) Document() (domain.Document, error) {
	var d domain.Document
	if err := Validate(r.Blob); err != nil {
		return d, err
	}
	if err := json.Unmarshal(r.Blob, &d); err != nil {
		return d, fmt.Errorf("parse revision: %w", err)
	}
	return d, nil
}

// Revisions is the autosave store of one directory.
type Revisions struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// RevisionsPath returns the database path for documents stored in dir.
func RevisionsPath(dir string) string {
	return filepath.Join(dir, RevisionsDirName, RevisionsFileName)
}

// OpenRevisions opens or creates <dir>/.gcp/revisions.sqlite in WAL mode and
// makes sure the schema exists.
func OpenRevisions(dir string) (*Revisions, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "revisions_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, RevisionsDirName), 0o755); err != nil {
		l.Error("create .gcp dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gcp dir: %w", err)
	}

	path := RevisionsPath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("revisions ready", slog.String("path", path))
	return &Revisions{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		createRevisionsSQL,
		createRevisionsIndexSQL,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("revisions schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (r *Revisions) Path() string { return r.path }

// Close releases the database.
func (r *Revisions) Close() error { return r.db.Close() }

// Save stores blob as a revision of docID taken at ts.
func (r *Revisions) Save(ctx context.Context, docID string, blob []byte, ts time.Time) error {
	if docID == "" {
		return errors.New("document id is required")
	}
	_, err := r.db.ExecContext(ctx, insertRevisionSQL, docID, ts.UTC().Format(tsLayout), blob)
	return err
}

// Snapshot stores the current state of doc and keeps only the newest keep
// revisions. keep <= 0 disables pruning.
func (r *Revisions) Snapshot(ctx context.Context, doc domain.Document, keep int) error {
	blob, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := r.Save(ctx, doc.ID, blob, time.Now()); err != nil {
		return fmt.Errorf("save revision: %w", err)
	}
	if keep > 0 {
		n, err := r.Prune(ctx, doc.ID, keep)
		if err != nil {
			return fmt.Errorf("prune revisions: %w", err)
		}
		if n > 0 {
			r.log.Debug("pruned revisions", slog.String("doc", doc.ID), slog.Int64("removed", n))
		}
	}
	return nil
}

// Latest returns the newest revision of docID; ok is false when there is none.
func (r *Revisions) Latest(ctx context.Context, docID string) (Revision, bool, error) {
	revs, err := r.List(ctx, docID, 1)
	if err != nil || len(revs) == 0 {
		return Revision{}, false, err
	}
	return revs[0], true, nil
}

// List returns up to limit revisions of docID, newest first.
func (r *Revisions) List(ctx context.Context, docID string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listRevisionsSQL, docID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(tsLayout, tsStr)
		out = append(out, Revision{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// Prune keeps at most keep revisions of docID and deletes older ones.
func (r *Revisions) Prune(ctx context.Context, docID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, pruneRevisionsSQL, docID, docID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
