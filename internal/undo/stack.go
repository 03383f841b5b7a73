/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "gocomposer/internal/log"
	"gocomposer/internal/scene"
)

// Command is a reversible unit of change. Implementations carry their own
// before/after payload, deep-copied at construction, and are never mutated
// once pushed.
type Command interface {
	Do(s *scene.Store) error
	Undo(s *scene.Store) error
	Label() string
}

// Coalescer is implemented by commands that can absorb a directly following
// command of the same kind, e.g. repeated keyboard nudges. next has already
// been executed when Coalesce is called.
type Coalescer interface {
	Coalesce(next Command) bool
}

// Config controls history depth and coalescing.
type Config struct {
	// MaxDepth caps the undo list; the oldest entries are evicted (default 100).
	MaxDepth int
	// MinInterval is the window in which a Coalescer on top of the stack may
	// absorb the next command (default 250ms).
	MinInterval time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

type entry struct {
	cmd Command
	ts  time.Time
}

// Stack applies commands to a store and keeps the undo and redo lists.
// It is safe for concurrent use, but commands run under its lock and must not
// call back into the stack.
type Stack struct {
	cfg   Config
	store *scene.Store
	log   *slog.Logger

	mu      sync.Mutex
	undo    []entry
	redo    []entry
	evicted int
}

func NewStack(store *scene.Store, cfg Config) *Stack {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 100
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Stack{cfg: cfg, store: store, log: applog.WithComponent("undo")}
}

// Apply executes cmd and records it. The redo list is cleared. A command whose
// Do fails is still recorded; the error is logged and returned.
func (st *Stack) Apply(cmd Command) error {
	if cmd == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	err := st.run(cmd, "do", cmd.Do)
	now := st.cfg.Clock()
	st.redo = nil
	if n := len(st.undo); n > 0 && err == nil {
		top := &st.undo[n-1]
		if c, ok := top.cmd.(Coalescer); ok && now.Sub(top.ts) < st.cfg.MinInterval && c.Coalesce(cmd) {
			top.ts = now
			return nil
		}
	}
	st.undo = append(st.undo, entry{cmd: cmd, ts: now})
	st.enforceCapLocked()
	return err
}

// Undo reverts the most recent command. ok is false when there is nothing
// to undo.
func (st *Stack) Undo() (ok bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.undo)
	if n == 0 {
		return false, nil
	}
	e := st.undo[n-1]
	st.undo = st.undo[:n-1]
	err = st.run(e.cmd, "undo", e.cmd.Undo)
	st.redo = append(st.redo, e)
	return true, err
}

// Redo re-applies the most recently undone command.
func (st *Stack) Redo() (ok bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.redo)
	if n == 0 {
		return false, nil
	}
	e := st.redo[n-1]
	st.redo = st.redo[:n-1]
	err = st.run(e.cmd, "redo", e.cmd.Do)
	// A redone entry must not absorb later commands.
	e.ts = time.Time{}
	st.undo = append(st.undo, e)
	st.enforceCapLocked()
	return true, err
}

func (st *Stack) CanUndo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.undo) > 0
}

func (st *Stack) CanRedo() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.redo) > 0
}

// UndoLabel names the command Undo would revert, or "".
func (st *Stack) UndoLabel() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if n := len(st.undo); n > 0 {
		return st.undo[n-1].cmd.Label()
	}
	return ""
}

// RedoLabel names the command Redo would re-apply, or "".
func (st *Stack) RedoLabel() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if n := len(st.redo); n > 0 {
		return st.redo[n-1].cmd.Label()
	}
	return ""
}

// Clear drops all history.
func (st *Stack) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.undo, st.redo = nil, nil
}

// Stats returns current sizes for diagnostics.
func (st *Stack) Stats() (undoDepth, redoDepth, evicted int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.undo), len(st.redo), st.evicted
}

// run executes one phase of a command, converting a panic into an error.
func (st *Stack) run(cmd Command, phase string, fn func(*scene.Store) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %q: panic: %v", phase, cmd.Label(), r)
		}
		if err != nil {
			st.log.Error("command failed", slog.String("phase", phase), slog.String("cmd", cmd.Label()), slog.Any("err", err))
		}
	}()
	if e := fn(st.store); e != nil {
		return fmt.Errorf("%s %q: %w", phase, cmd.Label(), e)
	}
	return nil
}

func (st *Stack) enforceCapLocked() {
	if over := len(st.undo) - st.cfg.MaxDepth; over > 0 {
		st.evicted += over
		st.undo = append([]entry(nil), st.undo[over:]...)
	}
}
