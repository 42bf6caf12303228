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

package datas

import (
	"context"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/ids"
)

// GenerationBFS is the reachability index: an ancestor query over the
// commit DAG bounded by generation numbers for pruning. Each BFS layer
// first collects every parent of the current frontier, THEN filters by
// seen and by the generation bound, never interleaving fetch and filter
// per-node.
type GenerationBFS struct {
	store *Store
}

func NewGenerationBFS(store *Store) *GenerationBFS {
	return &GenerationBFS{store: store}
}

// QueryReachability reports whether dst is an ancestor of src (or src
// itself) in the commit DAG.
func (g *GenerationBFS) QueryReachability(ctx context.Context, src, dst ids.ChangesetId) (bool, error) {
	const op = "datas.QueryReachability"

	if _, err := g.store.LookupChangeset(ctx, src); err != nil {
		if mverrors.KindOf(err) == mverrors.NotFound {
			return false, mverrors.Wrap(mverrors.NotFound, op, err)
		}
		return false, err
	}

	dstGen, err := g.store.GetGeneration(ctx, dst)
	if err != nil {
		return false, err
	}

	currLayer := map[ids.ChangesetId]struct{}{src: {}}
	seen := map[ids.ChangesetId]struct{}{}

	for {
		if _, ok := currLayer[dst]; ok {
			return true, nil
		}
		if len(currLayer) == 0 {
			return false, nil
		}

		for n := range currLayer {
			seen[n] = struct{}{}
		}

		var allParents []ids.ChangesetId
		for n := range currLayer {
			parents, err := g.store.GetParents(ctx, n)
			if err != nil {
				return false, err
			}
			allParents = append(allParents, parents...)
		}

		nextLayer := map[ids.ChangesetId]struct{}{}
		for _, p := range allParents {
			if _, alreadySeen := seen[p]; alreadySeen {
				continue
			}
			pGen, err := g.store.GetGeneration(ctx, p)
			if err != nil {
				return false, err
			}
			if pGen >= dstGen {
				nextLayer[p] = struct{}{}
			}
		}
		currLayer = nextLayer
	}
}
