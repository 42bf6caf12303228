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

// Package wireproto implements the Mercurial wire-protocol command
// engine: hello, heads, lookup, known/knownnodes, between,
// getbundle, gettreepack, getfiles, getpackv1, stream_out_shallow and
// unbundle. Each command is a method on Engine; every method that may
// block on storage or network I/O takes a context.Context and is run
// under the command's wall-clock timeout (see timeouts.go).
//
// Engine depends only on small locally-declared interfaces (ChangesetStore,
// Reachability, Bookmarks, Phases, BlobStore, HeadsProvider) rather than
// the concrete store/datas, store/refs and store/nbs types, following the
// same test-substitutability idiom those packages themselves use for
// their own storage backends.
package wireproto

import (
	"context"

	"go.uber.org/zap"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/refs"
)

// ChangesetStore is the subset of *store/datas.Store the engine depends on.
type ChangesetStore interface {
	LookupChangeset(ctx context.Context, id ids.ChangesetId) (datas.Changeset, error)
	LookupManifest(ctx context.Context, id ids.ManifestId) (datas.Manifest, error)
	FindFileInManifest(ctx context.Context, name []byte, id ids.ManifestId) (*datas.ManifestEntry, error)
	GetParents(ctx context.Context, id ids.ChangesetId) ([]ids.ChangesetId, error)
	GetLinknode(ctx context.Context, path ids.RepoPath, fn ids.FileNodeId) (ids.ChangesetId, bool, error)
	GetGeneration(ctx context.Context, id ids.ChangesetId) (int64, error)
	ChangedFileStream(ctx context.Context, mfNew, mfOld ids.ManifestId, depth int, pruners ...datas.Pruner) (func() (datas.DiffEntry, bool, error), error)
}

// Reachability is the ancestor-query contract of the reachability index.
type Reachability interface {
	QueryReachability(ctx context.Context, src, dst ids.ChangesetId) (bool, error)
}

// Bookmarks is the read side of the named-refs store.
type Bookmarks interface {
	ListBookmarks(ctx context.Context) (map[string]ids.ChangesetId, error)
	GetBookmark(ctx context.Context, name string) (ids.ChangesetId, bool, error)
}

// Phases is the read side of phase tracking.
type Phases interface {
	GetAllPhases(ctx context.Context, changesets []ids.ChangesetId) (map[ids.ChangesetId]refs.Phase, error)
}

// BlobStore is the subset of *store/nbs.Store the engine reads raw file
// and manifest content through.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	IsPresent(ctx context.Context, key string) (bool, error)
}

// HeadsProvider resolves the repo's current set of head changesets.
//
// Head tracking has no table of its own (unlike bookmarks and phases);
// a real deployment maintains it incrementally as changesets land. That
// bookkeeping lives with ingestion, outside this core, so Engine depends
// on whatever implementation the caller wires in.
type HeadsProvider interface {
	Heads(ctx context.Context) ([]ids.ChangesetId, error)
}

// ReadOnlyChecker reports whether the repo currently rejects writes,
// consulted by Unbundle before invoking the Bundle Resolver.
type ReadOnlyChecker interface {
	ReadOnly() bool
}

// Engine composes the storage layers into the wire-protocol commands.
// One Engine serves one repository.
type Engine struct {
	Repo ids.RepoID

	Changesets   ChangesetStore
	Reach        Reachability
	Bookmarks    Bookmarks
	Phases       Phases
	Blobs        BlobStore
	HeadsSource  HeadsProvider
	ReadOnly     ReadOnlyChecker
	Log          *zap.Logger
	LFSThreshold int64 // bytes; 0 selects DefaultLFSThreshold
}

// NewEngine constructs an Engine. log may be nil, in which case a no-op
// logger is substituted.
func NewEngine(repo ids.RepoID, changesets ChangesetStore, reach Reachability, bookmarks Bookmarks, phases Phases, blobs BlobStore, heads HeadsProvider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Repo:        repo,
		Changesets:  changesets,
		Reach:       reach,
		Bookmarks:   bookmarks,
		Phases:      phases,
		Blobs:       blobs,
		HeadsSource: heads,
		Log:         log,
	}
}

// Heads returns the repo's current head changesets.
func (e *Engine) Heads(ctx context.Context) ([]ids.ChangesetId, error) {
	return e.HeadsSource.Heads(ctx)
}
