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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

func TestGetFilesReturnsRawContentBelowThreshold(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)
	fn := ids.FileNodeIdFromHash(hash.Of([]byte("small-file")))
	require.NoError(t, e.Blobs.Put(context.Background(), fileContentKey(fn), []byte("hello")))

	out, err := e.GetFiles(context.Background(), []FileRequest{
		{Node: fn, Path: ids.RepoPath("a.txt")},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].IsLFSPointer)
	assert.Equal(t, []byte("hello"), out[0].Content)
	assert.Empty(t, out[0].History, "no linknode recorded, so no history")
}

func TestGetFilesFetchesHistoryChain(t *testing.T) {
	cs := newFakeChangesets()
	ctx := context.Background()

	// Two changesets, child first-parented to root; the file exists at
	// both, so its filenode chain is node2 -> node1.
	rootCS := ids.ChangesetIdFromHash(hash.Of([]byte("gf-root-cs")))
	childCS := ids.ChangesetIdFromHash(hash.Of([]byte("gf-child-cs")))
	cs.put(rootCS, datas.Changeset{Author: "a"}, 1)
	cs.put(childCS, datas.Changeset{Author: "a", Parents: []ids.ChangesetId{rootCS}}, 2)

	path := ids.RepoPath("b.txt")
	node1 := ids.FileNodeIdFromHash(rootCS.AsHash())
	node2 := ids.FileNodeIdFromHash(hash.Of([]byte("gf-node2")))
	cs.putLinknode(path, node1, rootCS)
	cs.putLinknode(path, node2, childCS)

	e := newTestEngine(cs, nil, nil)
	require.NoError(t, e.Blobs.Put(ctx, fileContentKey(node2), []byte("v2")))

	out, err := e.GetFiles(ctx, []FileRequest{{Node: node2, Path: path}})
	require.NoError(t, err)
	require.Len(t, out, 1)

	history := out[0].History
	require.Len(t, history, 2)
	assert.Equal(t, node2, history[0].Node)
	assert.Equal(t, childCS, history[0].Linknode)
	assert.Equal(t, node1, history[0].P1)
	assert.Equal(t, node1, history[1].Node)
	assert.Equal(t, rootCS, history[1].Linknode)
	assert.True(t, history[1].P1.IsNull())
	assert.Equal(t, []byte("v2"), out[0].Content)
}

func TestGetFilesSubstitutesLFSPointerAboveThreshold(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)
	e.LFSThreshold = 16

	fn := ids.FileNodeIdFromHash(hash.Of([]byte("big-file")))
	big := bytes.Repeat([]byte("x"), 64)
	require.NoError(t, e.Blobs.Put(context.Background(), fileContentKey(fn), big))

	out, err := e.GetFiles(context.Background(), []FileRequest{
		{Node: fn, Path: ids.RepoPath("big.bin")},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsLFSPointer)
	assert.Nil(t, out[0].Content)
	assert.Equal(t, fn.String(), out[0].LFSOid)
	assert.Equal(t, int64(64), out[0].LFSSize)
}

func TestGetFilesPreservesRequestOrder(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	var reqs []FileRequest
	for i := 0; i < 10; i++ {
		fn := ids.FileNodeIdFromHash(hash.Of([]byte{byte(i)}))
		require.NoError(t, e.Blobs.Put(context.Background(), fileContentKey(fn), []byte{byte(i)}))
		reqs = append(reqs, FileRequest{Node: fn})
	}

	out, err := e.GetFiles(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, out, 10)
	for i, b := range out {
		assert.Equal(t, []byte{byte(i)}, b.Content)
	}
}
