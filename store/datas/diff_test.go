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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/ids"
)

func drainStream(t *testing.T, next func() (DiffEntry, bool, error)) []DiffEntry {
	t.Helper()
	var out []DiffEntry
	for {
		e, ok, err := next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestChangedFileStreamAddedModifiedDeleted(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	oldManifest := Manifest{Entries: []ManifestEntry{
		{Name: []byte("keep.txt"), Type: Regular, Hash: hashOfString("v1")},
		{Name: []byte("gone.txt"), Type: Regular, Hash: hashOfString("v1")},
		{Name: []byte("changed.txt"), Type: Regular, Hash: hashOfString("old")},
	}}
	newManifest := Manifest{Entries: []ManifestEntry{
		{Name: []byte("keep.txt"), Type: Regular, Hash: hashOfString("v1")},
		{Name: []byte("changed.txt"), Type: Regular, Hash: hashOfString("new")},
		{Name: []byte("added.txt"), Type: Regular, Hash: hashOfString("v1")},
	}}

	oldID := ComputeManifestId(oldManifest)
	newID := ComputeManifestId(newManifest)
	require.NoError(t, s.PutManifest(ctx, oldID, oldManifest))
	require.NoError(t, s.PutManifest(ctx, newID, newManifest))

	next, err := s.ChangedFileStream(ctx, newID, oldID, 0)
	require.NoError(t, err)
	entries := drainStream(t, next)

	byName := map[string]DiffEntry{}
	for _, e := range entries {
		byName[string(e.Path)] = e
	}

	require.Contains(t, byName, "changed.txt")
	assert.Equal(t, Modified, byName["changed.txt"].Status)
	require.Contains(t, byName, "added.txt")
	assert.Equal(t, Added, byName["added.txt"].Status)
	require.Contains(t, byName, "gone.txt")
	assert.Equal(t, Deleted, byName["gone.txt"].Status)
	assert.NotContains(t, byName, "keep.txt")
}

func TestChangedFileStreamIsRestartable(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	oldManifest := Manifest{}
	newManifest := Manifest{Entries: []ManifestEntry{
		{Name: []byte("a.txt"), Type: Regular, Hash: hashOfString("v1")},
	}}
	oldID := ComputeManifestId(oldManifest)
	newID := ComputeManifestId(newManifest)
	require.NoError(t, s.PutManifest(ctx, oldID, oldManifest))
	require.NoError(t, s.PutManifest(ctx, newID, newManifest))

	next1, err := s.ChangedFileStream(ctx, newID, oldID, 0)
	require.NoError(t, err)
	first := drainStream(t, next1)
	require.Len(t, first, 1)

	next2, err := s.ChangedFileStream(ctx, newID, oldID, 0)
	require.NoError(t, err)
	second := drainStream(t, next2)
	require.Len(t, second, 1)
	assert.Equal(t, first, second)
}

func TestDeletedPrunerDropsDeletions(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	oldManifest := Manifest{Entries: []ManifestEntry{
		{Name: []byte("gone.txt"), Type: Regular, Hash: hashOfString("v1")},
	}}
	newManifest := Manifest{}
	oldID := ComputeManifestId(oldManifest)
	newID := ComputeManifestId(newManifest)
	require.NoError(t, s.PutManifest(ctx, oldID, oldManifest))
	require.NoError(t, s.PutManifest(ctx, newID, newManifest))

	next, err := s.ChangedFileStream(ctx, newID, oldID, 0, DeletedPruner)
	require.NoError(t, err)
	entries := drainStream(t, next)
	assert.Empty(t, entries)
}

func TestFilePrunerKeepsOnlyTrees(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	subManifest := Manifest{}
	subID := ComputeManifestId(subManifest)
	require.NoError(t, s.PutManifest(ctx, subID, subManifest))

	oldManifest := Manifest{}
	newManifest := Manifest{Entries: []ManifestEntry{
		{Name: []byte("leaf.txt"), Type: Regular, Hash: hashOfString("v1")},
		{Name: []byte("subdir"), Type: Tree, Hash: subID.AsHash()},
	}}
	oldID := ComputeManifestId(oldManifest)
	newID := ComputeManifestId(newManifest)
	require.NoError(t, s.PutManifest(ctx, oldID, oldManifest))
	require.NoError(t, s.PutManifest(ctx, newID, newManifest))

	next, err := s.ChangedFileStream(ctx, newID, oldID, 0, FilePruner)
	require.NoError(t, err)
	entries := drainStream(t, next)
	require.Len(t, entries, 1)
	assert.Equal(t, "subdir", string(entries[0].Path))
}

// buildNestedManifests stores a two-level tree:
//
//	top/           (Tree)
//	    inner/     (Tree)
//	        f.txt  (Regular, content per leafContent)
//
// and returns the root manifest's id.
func buildNestedManifests(t *testing.T, s *Store, leafContent string) ids.ManifestId {
	t.Helper()
	ctx := context.Background()

	inner := Manifest{Entries: []ManifestEntry{
		{Name: []byte("f.txt"), Type: Regular, Hash: hashOfString(leafContent)},
	}}
	innerID := ComputeManifestId(inner)
	require.NoError(t, s.PutManifest(ctx, innerID, inner))

	top := Manifest{Entries: []ManifestEntry{
		{Name: []byte("inner"), Type: Tree, Hash: innerID.AsHash()},
	}}
	topID := ComputeManifestId(top)
	require.NoError(t, s.PutManifest(ctx, topID, top))

	root := Manifest{Entries: []ManifestEntry{
		{Name: []byte("top"), Type: Tree, Hash: topID.AsHash()},
	}}
	rootID := ComputeManifestId(root)
	require.NoError(t, s.PutManifest(ctx, rootID, root))
	return rootID
}

func TestChangedFileStreamRecursesIntoSubtrees(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	oldRoot := buildNestedManifests(t, s, "old")
	newRoot := buildNestedManifests(t, s, "new")

	next, err := s.ChangedFileStream(ctx, newRoot, oldRoot, 0)
	require.NoError(t, err)
	entries := drainStream(t, next)

	byPath := map[string]DiffEntry{}
	for _, e := range entries {
		byPath[string(e.Path)] = e
	}
	require.Contains(t, byPath, "top")
	require.Contains(t, byPath, "top/inner")
	require.Contains(t, byPath, "top/inner/f.txt")
	assert.Equal(t, Modified, byPath["top/inner/f.txt"].Status)
	assert.Len(t, entries, 3)
}

func TestChangedFileStreamHonorsDepthBound(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	oldRoot := buildNestedManifests(t, s, "old")
	newRoot := buildNestedManifests(t, s, "new")

	next, err := s.ChangedFileStream(ctx, newRoot, oldRoot, 2)
	require.NoError(t, err)
	entries := drainStream(t, next)

	var paths []string
	for _, e := range entries {
		paths = append(paths, string(e.Path))
	}
	assert.ElementsMatch(t, []string{"top", "top/inner"}, paths,
		"depth 2 stops before the third manifest level")
}

func TestChangedFileStreamAddedSubtreeDiffsAgainstEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestDatasStore(t)

	empty := Manifest{}
	emptyID := ComputeManifestId(empty)
	require.NoError(t, s.PutManifest(ctx, emptyID, empty))

	newRoot := buildNestedManifests(t, s, "v1")

	next, err := s.ChangedFileStream(ctx, newRoot, emptyID, 0)
	require.NoError(t, err)
	entries := drainStream(t, next)

	var paths []string
	for _, e := range entries {
		assert.Equal(t, Added, e.Status)
		paths = append(paths, string(e.Path))
	}
	assert.ElementsMatch(t, []string{"top", "top/inner", "top/inner/f.txt"}, paths)
}

func TestAndComposesPruners(t *testing.T) {
	alwaysTrue := func(DiffEntry) bool { return true }
	alwaysFalse := func(DiffEntry) bool { return false }

	assert.True(t, And(alwaysTrue, alwaysTrue)(DiffEntry{}))
	assert.False(t, And(alwaysTrue, alwaysFalse)(DiffEntry{}))
}
