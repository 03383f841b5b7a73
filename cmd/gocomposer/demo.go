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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"gocomposer/internal/crash"
	"gocomposer/internal/domain"
	"gocomposer/internal/editor"
	"gocomposer/internal/geometry"
	"gocomposer/internal/interaction"
	applog "gocomposer/internal/log"
	"gocomposer/internal/storage"
)

type demoResult struct {
	DocID     string
	Steps     []string
	UndoDepth int
	RedoDepth int
	Saved     bool
}

func runDemoCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFrom(ctx)
	path, err := argPath(cmd, 0, "FILE")
	if err != nil {
		return err
	}
	res, err := runDemo(ctx, env, path, !cmd.Bool("no-save"))
	if err != nil {
		return err
	}
	for i, s := range res.Steps {
		fmt.Fprintf(env.out, "%2d. %s\n", i+1, s)
	}
	fmt.Fprintf(env.out, "History: %d undo, %d redo\n", res.UndoDepth, res.RedoDepth)
	if res.Saved {
		fmt.Fprintf(env.out, "Saved %s\n", path)
	}
	return nil
}

// openOrCreate opens path, or builds a fresh one-page document handle when
// the file does not exist yet.
func openOrCreate(path string) (*storage.Handle, error) {
	h, err := storage.Open(path)
	if err == nil {
		return h, nil
	}
	if _, serr := os.Stat(path); !errors.Is(serr, fs.ErrNotExist) {
		return nil, err
	}
	pageID := domain.NewPageID()
	doc := domain.Document{
		ID:           domain.NewDocumentID(),
		ActivePageID: pageID,
		Pages:        []domain.Page{{ID: pageID, Title: "Page 1", Blocks: []domain.Block{}}},
	}
	return &storage.Handle{Path: path, Document: doc}, nil
}

// runDemo drives an editor through adding blocks, the four gestures,
// grouping and a round of undo/redo, then checks membership and saves.
func runDemo(ctx context.Context, env *appEnv, path string, save bool) (res demoResult, err error) {
	h, err := openOrCreate(path)
	if err != nil {
		return res, err
	}
	opts := env.cfg.Editor.Options()
	opts.Measurer = env.measurer()
	opts.Frames = &interaction.ManualFrames{}
	ed := editor.New(opts)
	if n := ed.Load(h.Document); n > 0 {
		res.Steps = append(res.Steps, fmt.Sprintf("repaired %d membership problems", n))
	}
	res.DocID = h.Document.ID
	ctx = applog.WithDocument(ctx, res.DocID)
	log := env.log.With(slog.String("op", "demo"))
	defer crash.Recover(h, ed.Document)

	step := func(format string, args ...any) {
		s := fmt.Sprintf(format, args...)
		res.Steps = append(res.Steps, s)
		log.DebugContext(ctx, s)
	}
	drag := func(req interaction.Request, to geometry.Pt) error {
		gctx := applog.WithGesture(ctx, string(req.Kind))
		started, err := ed.PointerDown(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", req.Kind, req.Target, err)
		}
		if !started {
			log.WarnContext(gctx, "gesture not started", slog.String("target", req.Target))
			return nil
		}
		mid := geometry.Pt{X: (req.Pointer.X + to.X) / 2, Y: (req.Pointer.Y + to.Y) / 2}
		ed.PointerMove(mid)
		ed.PointerMove(to)
		ed.FlushFrames()
		ed.PointerUp(to)
		log.DebugContext(gctx, "gesture committed", slog.String("label", ed.UndoLabel()))
		return nil
	}

	img, err := ed.AddBlock(domain.Block{
		Type:     domain.BlockImage,
		Position: domain.Point{X: 100, Y: 100},
		Size:     &domain.Size{Width: 200, Height: 120},
	}, "")
	if err != nil {
		return res, err
	}
	step("added image %s", img)
	txt, err := ed.AddBlock(domain.Block{
		Type:     domain.BlockText,
		Position: domain.Point{X: 400, Y: 120},
		Text:     &domain.TextProps{Content: "Composer", FontSize: 24},
	}, "")
	if err != nil {
		return res, err
	}
	step("added text %s", txt)
	img2, err := ed.AddBlock(domain.Block{
		Type:     domain.BlockImage,
		Position: domain.Point{X: 100, Y: 300},
		Size:     &domain.Size{Width: 120, Height: 120},
	}, "")
	if err != nil {
		return res, err
	}
	step("added image %s", img2)

	if err = drag(interaction.Request{Kind: interaction.Move, Target: img, Pointer: geometry.Pt{X: 150, Y: 150}}, geometry.Pt{X: 250, Y: 180}); err != nil {
		return res, err
	}
	b, _ := ed.GetBlockByID(img)
	step("moved %s to (%.0f, %.0f)", img, b.Position.X, b.Position.Y)

	t0, _ := ed.GetBlockByID(txt)
	sz := opts.Measurer.Measure(t0)
	se := geometry.Pt{X: t0.Position.X + sz.Width, Y: t0.Position.Y + sz.Height}
	if err = drag(interaction.Request{Kind: interaction.Resize, Target: txt, Pointer: se, Handle: geometry.HandleSE}, se.Add(geometry.Pt{X: 60, Y: 20})); err != nil {
		return res, err
	}
	b, _ = ed.GetBlockByID(txt)
	if b.Text != nil {
		step("resized %s, font now %.1f", txt, b.Text.FontSize)
	}

	if err = drag(interaction.Request{Kind: interaction.Rotate, Target: img2, Pointer: geometry.Pt{X: 160, Y: 280}}, geometry.Pt{X: 240, Y: 360}); err != nil {
		return res, err
	}
	b, _ = ed.GetBlockByID(img2)
	step("rotated %s to %.0f°", img2, b.Rotation)

	b, _ = ed.GetBlockByID(img)
	left := geometry.Pt{X: b.Position.X, Y: b.Position.Y + 60}
	if err = drag(interaction.Request{Kind: interaction.Crop, Target: img, Pointer: left, Edge: geometry.CropLeft}, left.Add(geometry.Pt{X: 40})); err != nil {
		return res, err
	}
	b, _ = ed.GetBlockByID(img)
	if b.Crop != nil {
		step("cropped %s left edge to %.1f%%", img, b.Crop.Left)
	}

	gid, err := ed.Group(img, img2)
	if err != nil {
		return res, err
	}
	step("grouped %s and %s as %s", img, img2, gid)
	g, _ := ed.GetGroupByID(gid)
	grab := geometry.Pt{X: g.Position.X + g.Size.Width/2, Y: g.Position.Y + g.Size.Height/2}
	if err = drag(interaction.Request{Kind: interaction.Move, Target: img, Pointer: grab}, grab.Add(geometry.Pt{X: 50, Y: 40})); err != nil {
		return res, err
	}
	g, _ = ed.GetGroupByID(gid)
	step("moved %s to (%.0f, %.0f)", gid, g.Position.X, g.Position.Y)

	label := ed.UndoLabel()
	if _, err = ed.Undo(); err != nil {
		return res, err
	}
	if _, err = ed.Redo(); err != nil {
		return res, err
	}
	step("undid and redid %q", label)

	if err = ed.Check(); err != nil {
		return res, fmt.Errorf("membership check failed: %w", err)
	}
	res.UndoDepth, res.RedoDepth, _ = ed.HistoryStats()

	if !save {
		return res, nil
	}
	h.Document = ed.Document()
	if err = storage.Save(h); err != nil {
		return res, err
	}
	revs, err := storage.OpenRevisions(filepath.Dir(h.Path))
	if err != nil {
		return res, err
	}
	defer revs.Close()
	if err = revs.Snapshot(ctx, h.Document, env.cfg.Storage.AutosaveKeep); err != nil {
		return res, err
	}
	res.Saved = true
	log.InfoContext(ctx, "demo session saved", slog.String("path", h.Path), slog.Int("steps", len(res.Steps)))
	return res, nil
}
