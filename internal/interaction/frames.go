/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

// FrameScheduler runs work before the next display frame. Hosts adapt their
// animation-frame hook to it.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// ManualFrames queues frame callbacks until Flush. It backs headless hosts
// and tests.
type ManualFrames struct {
	pending []func()
}

func (m *ManualFrames) RequestFrame(fn func()) { m.pending = append(m.pending, fn) }

// Pending returns the number of queued callbacks.
func (m *ManualFrames) Pending() int { return len(m.pending) }

// Flush runs the queued callbacks. Callbacks requested while flushing run on
// the next Flush.
func (m *ManualFrames) Flush() int {
	run := m.pending
	m.pending = nil
	for _, fn := range run {
		fn()
	}
	return len(run)
}

// immediate runs work synchronously.
type immediate struct{}

func (immediate) RequestFrame(fn func()) { fn() }
