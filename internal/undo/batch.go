/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"go.uber.org/multierr"

	"gocomposer/internal/scene"
)

// Batch runs several commands as one history entry. Undo runs them in
// reverse order. A failing step does not stop the remaining ones; all errors
// are returned together.
type Batch struct {
	Name     string
	Commands []Command
}

func (b *Batch) Label() string { return b.Name }

func (b *Batch) Do(s *scene.Store) error {
	var err error
	for _, c := range b.Commands {
		err = multierr.Append(err, c.Do(s))
	}
	return err
}

func (b *Batch) Undo(s *scene.Store) error {
	var err error
	for i := len(b.Commands) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.Commands[i].Undo(s))
	}
	return err
}

// Func adapts a pair of closures to Command.
type Func struct {
	Name   string
	DoFn   func(*scene.Store) error
	UndoFn func(*scene.Store) error
}

func (f Func) Label() string { return f.Name }

func (f Func) Do(s *scene.Store) error {
	if f.DoFn == nil {
		return nil
	}
	return f.DoFn(s)
}

func (f Func) Undo(s *scene.Store) error {
	if f.UndoFn == nil {
		return nil
	}
	return f.UndoFn(s)
}
