/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"
	"sort"

	"gocomposer/internal/domain"
)

// ArrangeOp is a stacking-order operation.
type ArrangeOp string

const (
	BringToFront ArrangeOp = "front"
	SendToBack   ArrangeOp = "back"
	Forward      ArrangeOp = "forward"
	Backward     ArrangeOp = "backward"
)

// ParseArrangeOp maps a name to an ArrangeOp.
func ParseArrangeOp(s string) (ArrangeOp, error) {
	switch op := ArrangeOp(s); op {
	case BringToFront, SendToBack, Forward, Backward:
		return op, nil
	}
	return "", fmt.Errorf("unknown arrange op %q", s)
}

// ZOrder returns the ids of blocks sorted bottom to top. Ties in ZIndex keep
// page order.
func ZOrder(blocks []domain.Block) []string {
	idx := make([]int, len(blocks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return blocks[idx[a]].ZIndex < blocks[idx[b]].ZIndex })
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = blocks[j].ID
	}
	return out
}

// Arrange computes new dense ranks 0..n-1 for all blocks after applying op
// to the blocks named by ids. The moved set keeps its relative order; ids not
// among blocks are ignored.
func Arrange(blocks []domain.Block, ids []string, op ArrangeOp) map[string]int {
	order := ZOrder(blocks)
	sel := make(map[string]bool, len(ids))
	for _, id := range ids {
		sel[id] = true
	}
	switch op {
	case BringToFront, SendToBack:
		var moved, rest []string
		for _, id := range order {
			if sel[id] {
				moved = append(moved, id)
			} else {
				rest = append(rest, id)
			}
		}
		if op == BringToFront {
			order = append(rest, moved...)
		} else {
			order = append(moved, rest...)
		}
	case Forward:
		for i := len(order) - 2; i >= 0; i-- {
			if sel[order[i]] && !sel[order[i+1]] {
				order[i], order[i+1] = order[i+1], order[i]
			}
		}
	case Backward:
		for i := 1; i < len(order); i++ {
			if sel[order[i]] && !sel[order[i-1]] {
				order[i], order[i-1] = order[i-1], order[i]
			}
		}
	}
	ranks := make(map[string]int, len(order))
	for i, id := range order {
		ranks[id] = i
	}
	return ranks
}

// MaxZ returns the highest ZIndex among blocks, or -1 for none.
func MaxZ(blocks []domain.Block) int {
	m := -1
	for _, b := range blocks {
		if b.ZIndex > m {
			m = b.ZIndex
		}
	}
	return m
}
