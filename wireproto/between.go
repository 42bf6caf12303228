// Copyright 2024 The Mononoke-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wireproto

import (
	"context"

	"github.com/mononoke-go/mononoke/store/ids"
)

// BetweenPair is one (top, bottom) argument to Between.
type BetweenPair struct {
	Top    ids.ChangesetId
	Bottom ids.ChangesetId
}

// Between walks, for each pair, the first-parent chain from top toward
// bottom, emitting nodes at indices 1, 2, 4, 8, 16, ... (doubling from 1)
// and stopping when it reaches bottom or the null changeset. The
// doubling sequence matches hg's wireproto exactly; e.g.
// between(c20, c0) over a 20-commit chain is [c20, c19, c17, c13, c5].
// It is NOT a binary-search midpoint sequence.
func (e *Engine) Between(ctx context.Context, pairs []BetweenPair) ([][]ids.ChangesetId, error) {
	var result [][]ids.ChangesetId
	err := e.withTimeout(ctx, "wireproto.Between", DefaultTimeout, func(ctx context.Context) error {
		result = make([][]ids.ChangesetId, len(pairs))
		for i, pair := range pairs {
			nodes, err := e.betweenOne(ctx, pair.Top, pair.Bottom)
			if err != nil {
				return err
			}
			result[i] = nodes
		}
		return nil
	})
	return result, err
}

// betweenOne walks top's first-parent chain until bottom or the null
// changeset is reached, collecting the nodes at distance 0, 1, 3, 7,
// 15, ... from top (see powersOfTwoWalk).
func (e *Engine) betweenOne(ctx context.Context, top, bottom ids.ChangesetId) ([]ids.ChangesetId, error) {
	var out []ids.ChangesetId

	chain := []ids.ChangesetId{top}
	cur := top
	for !cur.IsNull() && cur != bottom {
		parents, err := e.Changesets.GetParents(ctx, cur)
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			break
		}
		cur = parents[0] // first-parent chain
		chain = append(chain, cur)
	}

	for _, idx := range powersOfTwoWalk(len(chain)) {
		out = append(out, chain[idx])
	}
	return out, nil
}

// powersOfTwoWalk returns the chain-index sequence 0, 1, 3, 7, 15, ...
// (each next index is the previous one doubled plus one) for as long as
// the index stays within [0, length). Mercurial computes this by
// doubling a counter; this is exactly that counter, not a binary-search
// midpoint sequence.
func powersOfTwoWalk(length int) []int {
	if length <= 0 {
		return nil
	}
	out := []int{0}
	idx := 0
	for {
		idx = idx*2 + 1
		if idx >= length {
			break
		}
		out = append(out, idx)
	}
	return out
}
