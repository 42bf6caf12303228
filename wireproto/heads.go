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

// BookmarkHeadsProvider is a minimal HeadsProvider: the distinct set of
// current bookmark targets. A production deployment maintains heads
// incrementally as changesets land (derived from parent links, not from
// bookmarks alone), but that bookkeeping lives with ingestion, outside
// this core. Using bookmark targets as a stand-in is a reasonable, if
// approximate, default; heads() is allowed to serve stale answers.
type BookmarkHeadsProvider struct {
	Bookmarks Bookmarks
}

func (p BookmarkHeadsProvider) Heads(ctx context.Context) ([]ids.ChangesetId, error) {
	bm, err := p.Bookmarks.ListBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[ids.ChangesetId]bool{}
	var out []ids.ChangesetId
	for _, target := range bm {
		if seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out, nil
}
