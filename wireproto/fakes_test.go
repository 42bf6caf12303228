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
	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/refs"
)

// fakeChangesets is a minimal in-memory ChangesetStore for wireproto's
// own tests, the same test-double-per-package idiom store/nbs,
// store/datas and store/refs each use for their own storage fakes.
type fakeChangesets struct {
	byID      map[ids.ChangesetId]datas.Changeset
	gens      map[ids.ChangesetId]int64
	manifests map[ids.ManifestId]datas.Manifest
	linknodes map[string]ids.ChangesetId
	diffs     map[ids.ManifestId][]datas.DiffEntry
}

func newFakeChangesets() *fakeChangesets {
	return &fakeChangesets{
		byID:      map[ids.ChangesetId]datas.Changeset{},
		gens:      map[ids.ChangesetId]int64{},
		manifests: map[ids.ManifestId]datas.Manifest{},
		linknodes: map[string]ids.ChangesetId{},
		diffs:     map[ids.ManifestId][]datas.DiffEntry{},
	}
}

func (f *fakeChangesets) put(id ids.ChangesetId, cs datas.Changeset, gen int64) {
	f.byID[id] = cs
	f.gens[id] = gen
}

func (f *fakeChangesets) LookupChangeset(_ context.Context, id ids.ChangesetId) (datas.Changeset, error) {
	cs, ok := f.byID[id]
	if !ok {
		return datas.Changeset{}, mverrors.NewNotFound("fake.LookupChangeset", "Changeset", id.String())
	}
	return cs, nil
}

func (f *fakeChangesets) LookupManifest(_ context.Context, id ids.ManifestId) (datas.Manifest, error) {
	return f.manifests[id], nil
}

func (f *fakeChangesets) FindFileInManifest(context.Context, []byte, ids.ManifestId) (*datas.ManifestEntry, error) {
	return nil, nil
}

func (f *fakeChangesets) GetParents(_ context.Context, id ids.ChangesetId) ([]ids.ChangesetId, error) {
	cs, ok := f.byID[id]
	if !ok {
		return nil, mverrors.NewNotFound("fake.GetParents", "Changeset", id.String())
	}
	return cs.Parents, nil
}

func (f *fakeChangesets) GetLinknode(_ context.Context, path ids.RepoPath, fn ids.FileNodeId) (ids.ChangesetId, bool, error) {
	cs, ok := f.linknodes[path.String()+"\x00"+fn.String()]
	return cs, ok, nil
}

func (f *fakeChangesets) putLinknode(path ids.RepoPath, fn ids.FileNodeId, cs ids.ChangesetId) {
	f.linknodes[path.String()+"\x00"+fn.String()] = cs
}

func (f *fakeChangesets) GetGeneration(_ context.Context, id ids.ChangesetId) (int64, error) {
	g, ok := f.gens[id]
	if !ok {
		return 0, mverrors.NewNotFound("fake.GetGeneration", "Changeset", id.String())
	}
	return g, nil
}

// ChangedFileStream yields the pre-seeded diff entries for mfNew,
// applying pruners the way the real store does, so pruner-sharing tests
// (gettreepack's VisitedPruner) exercise the same composition. The seeded
// entries are flat, so the depth bound has nothing to cut here.
func (f *fakeChangesets) ChangedFileStream(_ context.Context, mfNew, _ ids.ManifestId, _ int, pruners ...datas.Pruner) (func() (datas.DiffEntry, bool, error), error) {
	entries := f.diffs[mfNew]
	keep := datas.And(pruners...)
	idx := 0
	return func() (datas.DiffEntry, bool, error) {
		for idx < len(entries) {
			e := entries[idx]
			idx++
			if keep(e) {
				return e, true, nil
			}
		}
		return datas.DiffEntry{}, false, nil
	}, nil
}

// fakeReach is a Reachability stub wired directly off fakeChangesets'
// parent map via simple unbounded DFS, sufficient for getbundle tests
// that only need "is dst an ancestor of src."
type fakeReach struct {
	changesets *fakeChangesets
}

func (f *fakeReach) QueryReachability(_ context.Context, src, dst ids.ChangesetId) (bool, error) {
	visited := map[ids.ChangesetId]bool{}
	var walk func(id ids.ChangesetId) bool
	walk = func(id ids.ChangesetId) bool {
		if id == dst {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		cs, ok := f.changesets.byID[id]
		if !ok {
			return false
		}
		for _, p := range cs.Parents {
			if walk(p) {
				return true
			}
		}
		return false
	}
	return walk(src), nil
}

type fakeBookmarks struct {
	targets map[string]ids.ChangesetId
}

func (f *fakeBookmarks) ListBookmarks(context.Context) (map[string]ids.ChangesetId, error) {
	out := make(map[string]ids.ChangesetId, len(f.targets))
	for k, v := range f.targets {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBookmarks) GetBookmark(_ context.Context, name string) (ids.ChangesetId, bool, error) {
	t, ok := f.targets[name]
	return t, ok, nil
}

type fakePhases struct {
	phases map[ids.ChangesetId]refs.Phase
}

func (f *fakePhases) GetAllPhases(_ context.Context, changesets []ids.ChangesetId) (map[ids.ChangesetId]refs.Phase, error) {
	out := make(map[ids.ChangesetId]refs.Phase, len(changesets))
	for _, id := range changesets {
		p, ok := f.phases[id]
		if !ok {
			p = refs.Draft
		}
		out[id] = p
	}
	return out, nil
}

type fakeBlobs struct {
	values map[string][]byte
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{values: map[string][]byte{}} }

func (f *fakeBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeBlobs) Put(_ context.Context, key string, value []byte) error {
	f.values[key] = value
	return nil
}

func (f *fakeBlobs) IsPresent(_ context.Context, key string) (bool, error) {
	_, ok := f.values[key]
	return ok, nil
}

func newTestEngine(cs *fakeChangesets, bm *fakeBookmarks, ph *fakePhases) *Engine {
	if bm == nil {
		bm = &fakeBookmarks{targets: map[string]ids.ChangesetId{}}
	}
	if ph == nil {
		ph = &fakePhases{phases: map[ids.ChangesetId]refs.Phase{}}
	}
	return &Engine{
		Repo:        1,
		Changesets:  cs,
		Reach:       &fakeReach{changesets: cs},
		Bookmarks:   bm,
		Phases:      ph,
		Blobs:       newFakeBlobs(),
		HeadsSource: BookmarkHeadsProvider{Bookmarks: bm},
	}
}
