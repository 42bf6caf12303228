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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

func TestLookupByHexNode(t *testing.T) {
	cs := newFakeChangesets()
	id := ids.ChangesetIdFromHash(hash.Of([]byte("c1")))
	cs.put(id, datas.Changeset{Author: "alice"}, 1)
	e := newTestEngine(cs, nil, nil)

	result, err := e.Lookup(context.Background(), hexNode(id.AsHash()))
	require.NoError(t, err)
	assert.Equal(t, "1 "+hexNode(id.AsHash())+"\n", result)
}

func TestLookupUnknownHexNode(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)
	key := hexNode(hash.Of([]byte("missing")))

	result, err := e.Lookup(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "0 "+key+" not found\n", result)
}

func TestLookupByBookmark(t *testing.T) {
	cs := newFakeChangesets()
	id := ids.ChangesetIdFromHash(hash.Of([]byte("c1")))
	cs.put(id, datas.Changeset{Author: "alice"}, 1)
	bm := &fakeBookmarks{targets: map[string]ids.ChangesetId{"main": id}}
	e := newTestEngine(cs, bm, nil)

	result, err := e.Lookup(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "1 "+hexNode(id.AsHash())+"\n", result)
}

func TestLookupUnknownBookmark(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	result, err := e.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "0 nope not found\n", result)
}
