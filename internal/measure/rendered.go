/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package measure

import (
	"gocomposer/internal/domain"
	"gocomposer/internal/geometry"
)

// Rendered prefers the axis-aligned on-screen extents a host reports for
// blocks over its fallback measurer. A rotated extent is turned back into a
// frame size; near 45° that is unrecoverable and the extent is used as-is.
// A reported extent is ignored once the block's rotation, stored size or text
// differ from the ones it was reported for.
type Rendered struct {
	Fallback Measurer
	extents  map[string]extent
}

type extent struct {
	w, h  float64
	rot   float64
	sized bool
	size  domain.Size
	text  domain.TextProps
}

func NewRendered(fallback Measurer) *Rendered {
	if fallback == nil {
		fallback = Geometric{}
	}
	return &Rendered{Fallback: fallback, extents: map[string]extent{}}
}

// Report records the on-screen extent w×h of b in its current state.
func (r *Rendered) Report(b domain.Block, w, h float64) {
	r.extents[b.ID] = snapshotExtent(b, w, h)
}

// Forget drops the extent reported for id.
func (r *Rendered) Forget(id string) { delete(r.extents, id) }

// Reset drops every reported extent.
func (r *Rendered) Reset() { clear(r.extents) }

func snapshotExtent(b domain.Block, w, h float64) extent {
	e := extent{w: w, h: h, rot: b.Rotation, sized: b.HasSize()}
	if e.sized {
		e.size = *b.Size
	}
	if b.Text != nil {
		e.text = *b.Text
	}
	return e
}

func (r *Rendered) Measure(b domain.Block) domain.Size {
	e, ok := r.extents[b.ID]
	if !ok || snapshotExtent(b, e.w, e.h) != e {
		return r.Fallback.Measure(b)
	}
	w, h, ok := geometry.UnrotatedSize(e.w, e.h, b.Rotation)
	if !ok {
		return domain.Size{Width: e.w, Height: e.h}
	}
	return domain.Size{Width: w, Height: h}
}
