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

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

func TestGetPackV1BuildsHistoryAndFullTextData(t *testing.T) {
	cs := newFakeChangesets()
	ctx := context.Background()

	parent := ids.ChangesetIdFromHash(hash.Of([]byte("wp-parent")))
	link := ids.ChangesetIdFromHash(hash.Of([]byte("wp-link")))
	cs.put(parent, datas.Changeset{Author: "a"}, 1)
	cs.put(link, datas.Changeset{Author: "a", Parents: []ids.ChangesetId{parent}}, 2)

	path := ids.RepoPath("src/main.go")
	node := ids.FileNodeIdFromHash(hash.Of([]byte("wp-node")))
	cs.putLinknode(path, node, link)

	e := newTestEngine(cs, nil, nil)
	content := []byte("package main\n")
	require.NoError(t, e.Blobs.Put(ctx, fileContentKey(node), content))

	packs, err := e.GetPackV1(ctx, []GetPackV1Request{
		{Path: path, Nodes: []ids.FileNodeId{node}},
	})
	require.NoError(t, err)
	require.Len(t, packs, 1)

	pack := packs[0]
	assert.Equal(t, path, pack.Path)

	require.Len(t, pack.History, 1)
	assert.Equal(t, node, pack.History[0].Node)
	assert.Equal(t, ids.FileNodeIdFromHash(parent.AsHash()), pack.History[0].P1)
	assert.True(t, pack.History[0].P2.IsNull())
	assert.Equal(t, link, pack.History[0].Linknode)

	require.Len(t, pack.Data, 1)
	assert.Equal(t, content, pack.Data[0].Content)
	assert.True(t, pack.Data[0].DeltaBase.IsNull(), "data is always full-text, delta_base null")

	assert.Equal(t, xxhash.Sum64(content), pack.Checksum)
}

func TestGetPackV1MissingLinknodeYieldsNullParents(t *testing.T) {
	cs := newFakeChangesets()
	node := ids.FileNodeIdFromHash(hash.Of([]byte("wp-orphan")))

	e := newTestEngine(cs, nil, nil)
	packs, err := e.GetPackV1(context.Background(), []GetPackV1Request{
		{Path: ids.RepoPath("orphan"), Nodes: []ids.FileNodeId{node}},
	})
	require.NoError(t, err)
	require.Len(t, packs, 1)
	require.Len(t, packs[0].History, 1)
	assert.True(t, packs[0].History[0].P1.IsNull())
	assert.True(t, packs[0].History[0].Linknode.IsNull())
}
