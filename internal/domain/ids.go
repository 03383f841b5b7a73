/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "github.com/google/uuid"

// GroupIDPrefix keeps group ids disjoint from block ids. Code must not branch
// on it; use Ref from a store lookup instead.
const GroupIDPrefix = "grp_"

// Kind distinguishes the two addressable entity types.
type Kind int

const (
	KindNone Kind = iota
	KindBlock
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindGroup:
		return "group"
	default:
		return "none"
	}
}

// Ref is a resolved reference to either a block or a group.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) IsBlock() bool { return r.Kind == KindBlock }
func (r Ref) IsGroup() bool { return r.Kind == KindGroup }
func (r Ref) Valid() bool   { return r.Kind != KindNone && r.ID != "" }

func NewBlockID() string    { return uuid.NewString() }
func NewGroupID() string    { return GroupIDPrefix + uuid.NewString() }
func NewPageID() string     { return "page_" + uuid.NewString() }
func NewDocumentID() string { return "doc_" + uuid.NewString() }
