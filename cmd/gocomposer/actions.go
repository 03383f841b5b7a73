/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"gocomposer/internal/domain"
	"gocomposer/internal/export"
	"gocomposer/internal/membership"
	"gocomposer/internal/storage"
)

func argPath(cmd *cli.Command, i int, name string) (string, error) {
	p := strings.TrimSpace(cmd.Args().Get(i))
	if p == "" {
		return "", fmt.Errorf("%w: %s is required", errUsage, name)
	}
	return filepath.Abs(p)
}

func initDocument(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("%s already exists (use --overwrite)", path)
	}
	pageID := domain.NewPageID()
	doc := domain.Document{
		ID:           domain.NewDocumentID(),
		ActivePageID: pageID,
		Pages:        []domain.Page{{ID: pageID, Title: cmd.String("title"), Blocks: []domain.Block{}}},
	}
	h, err := storage.Create(path, doc)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	env.log.Info("document created", slog.String("path", h.Path), slog.String("doc", doc.ID))
	_, err = fmt.Fprintf(env.out, "Created %s (%s)\n", h.Path, doc.ID)
	return err
}

func inspectDocument(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	h, err := storage.Open(path)
	if err != nil {
		return err
	}
	d := h.Document
	w := env.out
	fmt.Fprintf(w, "Document %s\n", d.ID)
	fmt.Fprintf(w, "Path: %s\n", h.Path)
	if h.Repaired > 0 {
		fmt.Fprintf(w, "Membership repairs applied on load: %d\n", h.Repaired)
	}
	for _, p := range d.Pages {
		marker := " "
		if p.ID == d.ActivePageID {
			marker = "*"
		}
		types := map[domain.BlockType]int{}
		locked := 0
		for _, b := range p.Blocks {
			types[b.Type]++
			if b.Locked {
				locked++
			}
		}
		fmt.Fprintf(w, "%s page %s %q: %d blocks%s", marker, p.ID, p.Title, len(p.Blocks), typeSummary(types))
		if locked > 0 {
			fmt.Fprintf(w, ", %d locked", locked)
		}
		fmt.Fprintln(w)
	}
	for _, g := range d.Groups {
		fmt.Fprintf(w, "  group %s: %d members at (%g,%g) %gx%g rot %g\n",
			g.ID, len(g.ChildIDs), g.Position.X, g.Position.Y, g.Size.Width, g.Size.Height, g.Rotation)
	}
	return nil
}

func typeSummary(types map[domain.BlockType]int) string {
	if len(types) == 0 {
		return ""
	}
	keys := make([]string, 0, len(types))
	for t := range types {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d %s", types[domain.BlockType(k)], k)
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

var errInvalid = errors.New("document is invalid")

func validateDocument(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	problems := multierr.Errors(storage.Validate(data))
	if len(problems) == 0 {
		var doc domain.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		problems = multierr.Errors(membership.Validate(doc))
	}
	if len(problems) == 0 {
		_, err := fmt.Fprintf(env.out, "%s: ok\n", path)
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(env.out, "%s: %v\n", path, p)
	}
	return fmt.Errorf("%w: %d problems", errInvalid, len(problems))
}

func renderProof(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	out, err := argPath(cmd, 1, "OUT")
	if err != nil {
		return err
	}
	h, err := storage.Open(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	page := cmd.String("page")
	if strings.EqualFold(filepath.Ext(out), ".png") {
		err = export.PagePNG(h.Document, page, f, export.PNGOptions{Measurer: env.measurer(), Scale: cmd.Float("scale")})
	} else {
		err = export.PagePDF(h.Document, page, f, export.PDFOptions{Measurer: env.measurer(), Scale: cmd.Float("scale"), Labels: cmd.Bool("labels")})
	}
	err = multierr.Append(err, f.Close())
	if err != nil {
		_ = os.Remove(out)
		return err
	}
	env.log.Info("proof written", slog.String("out", out))
	_, err = fmt.Fprintf(env.out, "Wrote %s\n", out)
	return err
}

func listRevisions(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	h, err := storage.Open(path)
	if err != nil {
		return err
	}
	revs, err := storage.OpenRevisions(filepath.Dir(path))
	if err != nil {
		return err
	}
	env.onClose(revs)

	limit := cmd.Int("limit")
	restore := cmd.Int("restore")
	if restore >= limit {
		limit = restore + 1
	}
	list, err := revs.List(ctx, h.Document.ID, limit)
	if err != nil {
		return fmt.Errorf("list revisions: %w", err)
	}
	if restore >= 0 {
		if restore >= len(list) {
			return fmt.Errorf("revision %d does not exist (%d available)", restore, len(list))
		}
		doc, err := list[restore].Document()
		if err != nil {
			return fmt.Errorf("decode revision %d: %w", restore, err)
		}
		h.Document, _ = membership.Repair(doc)
		if err := storage.Save(h); err != nil {
			return err
		}
		_, err = fmt.Fprintf(env.out, "Restored revision %d from %s\n", restore, list[restore].TS.Local().Format("2006-01-02 15:04:05"))
		return err
	}
	if len(list) == 0 {
		_, err = fmt.Fprintf(env.out, "No revisions for %s\n", h.Document.ID)
		return err
	}
	for i, r := range list {
		fmt.Fprintf(env.out, "%3d  %s  %6d bytes\n", i, r.TS.Local().Format("2006-01-02 15:04:05.000"), len(r.Blob))
	}
	return nil
}
