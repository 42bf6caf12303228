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
	"fmt"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/ids"
)

// Lookup resolves key, which may be a hex changeset hash or a bookmark
// name, to Mercurial's wire-level lookup reply: "1 <hex>\n" on success,
// "0 <message>\n" on failure. An unknown bookmark name replies
// "0 <name> not found\n".
func (e *Engine) Lookup(ctx context.Context, key string) (string, error) {
	var result string
	err := e.withTimeout(ctx, "wireproto.Lookup", DefaultTimeout, func(ctx context.Context) error {
		if h, ok := parseHexNode(key); ok {
			cs := ids.ChangesetIdFromHash(h)
			if _, err := e.Changesets.LookupChangeset(ctx, cs); err != nil {
				if mverrors.Is(err, mverrors.NotFound) {
					result = fmt.Sprintf("0 %s not found\n", key)
					return nil
				}
				return err
			}
			result = fmt.Sprintf("1 %s\n", hexNode(h))
			return nil
		}

		target, ok, err := e.Bookmarks.GetBookmark(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			result = fmt.Sprintf("0 %s not found\n", key)
			return nil
		}
		result = fmt.Sprintf("1 %s\n", hexNode(target.AsHash()))
		return nil
	})
	return result, err
}
