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

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/refs"
)

// Known reports, for each node, whether it exists AND is Public; a
// draft-only changeset is not "known" over this command. An empty input
// returns an empty (not nil) result.
func (e *Engine) Known(ctx context.Context, nodes []ids.ChangesetId) ([]bool, error) {
	var result []bool
	err := e.withTimeout(ctx, "wireproto.Known", DefaultTimeout, func(ctx context.Context) error {
		result = make([]bool, len(nodes))
		if len(nodes) == 0 {
			return nil
		}

		existing := make([]ids.ChangesetId, 0, len(nodes))
		existsAt := make(map[ids.ChangesetId]bool, len(nodes))
		for _, n := range nodes {
			if _, err := e.Changesets.LookupChangeset(ctx, n); err != nil {
				if mverrors.Is(err, mverrors.NotFound) {
					continue
				}
				return err
			}
			existing = append(existing, n)
			existsAt[n] = true
		}

		phases, err := e.Phases.GetAllPhases(ctx, existing)
		if err != nil {
			return err
		}
		for i, n := range nodes {
			result[i] = existsAt[n] && phases[n] == refs.Public
		}
		return nil
	})
	return result, err
}

// KnownNodes reports mere existence of each node, without a phase filter.
func (e *Engine) KnownNodes(ctx context.Context, nodes []ids.ChangesetId) ([]bool, error) {
	var result []bool
	err := e.withTimeout(ctx, "wireproto.KnownNodes", DefaultTimeout, func(ctx context.Context) error {
		result = make([]bool, len(nodes))
		for i, n := range nodes {
			if _, err := e.Changesets.LookupChangeset(ctx, n); err != nil {
				if mverrors.Is(err, mverrors.NotFound) {
					result[i] = false
					continue
				}
				return err
			}
			result[i] = true
		}
		return nil
	})
	return result, err
}
