/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import "gocomposer/internal/geometry"

// PointerBus fans pointer move and up events out to registered listeners.
// The host feeds it from its global pointer events; sessions attach while a
// gesture runs and detach when it ends.
type PointerBus struct {
	nextID int
	move   []listener
	up     []listener
}

type listener struct {
	id int
	fn func(geometry.Pt)
}

type event int

const (
	eventMove event = iota
	eventUp
)

// Listener removes a registered callback.
type Listener struct {
	bus   *PointerBus
	id    int
	event event
}

// Remove detaches the callback. Removing twice or removing the zero value is
// a no-op.
func (l Listener) Remove() {
	if l.bus == nil {
		return
	}
	switch l.event {
	case eventMove:
		l.bus.move = removeListener(l.bus.move, l.id)
	case eventUp:
		l.bus.up = removeListener(l.bus.up, l.id)
	}
}

func removeListener(ls []listener, id int) []listener {
	for i, h := range ls {
		if h.id == id {
			return append(ls[:i:i], ls[i+1:]...)
		}
	}
	return ls
}

// OnMove registers fn for pointer moves.
func (b *PointerBus) OnMove(fn func(geometry.Pt)) Listener {
	b.nextID++
	b.move = append(b.move, listener{id: b.nextID, fn: fn})
	return Listener{bus: b, id: b.nextID, event: eventMove}
}

// OnUp registers fn for pointer releases.
func (b *PointerBus) OnUp(fn func(geometry.Pt)) Listener {
	b.nextID++
	b.up = append(b.up, listener{id: b.nextID, fn: fn})
	return Listener{bus: b, id: b.nextID, event: eventUp}
}

// DispatchMove calls every move listener. Listeners may detach themselves or
// others while being called.
func (b *PointerBus) DispatchMove(p geometry.Pt) { dispatch(b.move, p) }

// DispatchUp calls every up listener.
func (b *PointerBus) DispatchUp(p geometry.Pt) { dispatch(b.up, p) }

func dispatch(ls []listener, p geometry.Pt) {
	for _, h := range append([]listener(nil), ls...) {
		h.fn(p)
	}
}

// Listeners returns the number of attached move and up callbacks.
func (b *PointerBus) Listeners() (move, up int) { return len(b.move), len(b.up) }
