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

package bundle2

import (
	"context"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
)

// BlobPutter is the subset of *store/nbs.Store the resolver writes staged
// content through.
type BlobPutter interface {
	Put(ctx context.Context, key string, value []byte) error
}

// ChangesetWriter is the subset of *store/datas.Store the resolver writes
// staged changesets/manifests through.
type ChangesetWriter interface {
	PutChangeset(ctx context.Context, id ids.ChangesetId, cs datas.Changeset) error
	PutManifest(ctx context.Context, id ids.ManifestId, m datas.Manifest) error
}

// BookmarkSetter is the compare-and-swap contract the resolver's bookmark
// stage drives.
type BookmarkSetter interface {
	SetBookmark(ctx context.Context, name string, old, new ids.ChangesetId) error
}

// PhaseMarker is the phase-propagation contract the resolver's final
// stage drives.
type PhaseMarker interface {
	MarkPublicHead(ctx context.Context, id ids.ChangesetId) error
}

// BookmarkMove is one requested bookmark update, carried by a push.
type BookmarkMove struct {
	Name string
	Old  ids.ChangesetId
	New  ids.ChangesetId
}

// StagedBlob is one file-content or manifest payload drained from a
// changegroup/treegroup2 part, keyed the same way store/nbs.Store keys
// content (e.g. "content:<hash>").
type StagedBlob struct {
	Key   string
	Value []byte
}

// StagedChangeset is one changeset drained from a changegroup part,
// paired with the id the client claims it hashes to.
type StagedChangeset struct {
	ID ids.ChangesetId
	CS datas.Changeset
}

// StagedManifest is one manifest drained from a changegroup or
// b2x:treegroup2 part.
type StagedManifest struct {
	ID ids.ManifestId
	M  datas.Manifest
}

// PushUnit is everything one Unbundle call stages before committing:
// the typed in-memory form a drained part stream resolves to. A real
// dispatcher builds this by interpreting changegroup/treegroup2 part
// payloads; which part-payload codec produced it is out of this core's
// scope, so PushUnit is the contract those parsers must fill in.
type PushUnit struct {
	PushID          string // opaque, correlates this push's logs and reply; NewPushID() if empty
	Blobs           []StagedBlob
	Manifests       []StagedManifest
	Changesets      []StagedChangeset
	BookmarkMoves   []BookmarkMove
	MarkPublicHeads []ids.ChangesetId
}

// Resolver drives the five-stage push path: drain, upload, verify,
// bookmark update, phase update.
type Resolver struct {
	Blobs      BlobPutter
	Changesets ChangesetWriter
	Bookmarks  BookmarkSetter
	Phases     PhaseMarker
}

func NewResolver(blobs BlobPutter, changesets ChangesetWriter, bookmarks BookmarkSetter, phases PhaseMarker) *Resolver {
	return &Resolver{Blobs: blobs, Changesets: changesets, Bookmarks: bookmarks, Phases: phases}
}

// Unbundle runs all five stages in sequence. A failure at any stage
// returns immediately without invoking later stages, so no partial
// bookmark updates are visible. It returns unit.PushID (allocating one
// via NewPushID if the caller left it empty) so the caller can stamp the
// reply bundle and its own log lines with the same correlation id.
func (r *Resolver) Unbundle(ctx context.Context, unit PushUnit) (string, error) {
	pushID := unit.PushID
	if pushID == "" {
		pushID = NewPushID()
	}
	if err := r.uploadBlobs(ctx, unit.Blobs); err != nil {
		return pushID, err
	}
	if err := r.uploadManifests(ctx, unit.Manifests); err != nil {
		return pushID, err
	}
	if err := r.verifyAndStoreChangesets(ctx, unit.Changesets); err != nil {
		return pushID, err
	}
	if err := r.applyBookmarkMoves(ctx, unit.BookmarkMoves); err != nil {
		return pushID, err
	}
	if err := r.applyPhaseUpdates(ctx, unit.MarkPublicHeads); err != nil {
		return pushID, err
	}
	return pushID, nil
}

// uploadBlobs is stage (2)'s content half: upload file content to the
// blob store, de-duplicating by key within this push. A client sending
// the same key twice in one bundle is a hard error ("Blob already
// provided before"), not a silent dedup.
func (r *Resolver) uploadBlobs(ctx context.Context, blobs []StagedBlob) error {
	const op = "bundle2.uploadBlobs"
	seen := make(map[string]bool, len(blobs))
	for _, b := range blobs {
		if seen[b.Key] {
			return mverrors.Wrap(mverrors.Conflict, op, errBlobAlreadyProvided(b.Key))
		}
		seen[b.Key] = true
		if err := r.Blobs.Put(ctx, b.Key, b.Value); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
	}
	return nil
}

// uploadManifests is stage (2)'s manifest half, with the same
// already-provided-before de-duplication, keyed by ManifestId.
func (r *Resolver) uploadManifests(ctx context.Context, manifests []StagedManifest) error {
	const op = "bundle2.uploadManifests"
	seen := make(map[ids.ManifestId]bool, len(manifests))
	for _, m := range manifests {
		if seen[m.ID] {
			return mverrors.Wrap(mverrors.Conflict, op, errBlobAlreadyProvided(m.ID.String()))
		}
		seen[m.ID] = true
		if err := r.Changesets.PutManifest(ctx, m.ID, m.M); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
	}
	return nil
}

// verifyAndStoreChangesets is stage (3): recompute each staged
// changeset's hash and verify it matches the id the client claimed,
// before persisting. A mismatch is a protocol violation, never silently
// accepted under the client's claimed id.
func (r *Resolver) verifyAndStoreChangesets(ctx context.Context, changesets []StagedChangeset) error {
	const op = "bundle2.verifyAndStoreChangesets"
	for _, sc := range changesets {
		computed := datas.ComputeChangesetId(sc.CS)
		if computed != sc.ID {
			return mverrors.Wrap(mverrors.ProtocolViolation, op,
				errHashMismatch(sc.ID.String(), computed.String()))
		}
		if err := r.Changesets.PutChangeset(ctx, sc.ID, sc.CS); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
	}
	return nil
}

// applyBookmarkMoves is stage (4): bookmark updates within a single push
// are ordered and applied transactionally per name via the underlying
// CAS; a losing CAS aborts the whole unbundle.
func (r *Resolver) applyBookmarkMoves(ctx context.Context, moves []BookmarkMove) error {
	const op = "bundle2.applyBookmarkMoves"
	for _, mv := range moves {
		if err := r.Bookmarks.SetBookmark(ctx, mv.Name, mv.Old, mv.New); err != nil {
			return mverrors.Wrap(mverrors.Conflict, op, err)
		}
	}
	return nil
}

// applyPhaseUpdates is stage (5): mark each newly-pushed public head,
// walking its ancestors via refs.Store.MarkPublicHead.
func (r *Resolver) applyPhaseUpdates(ctx context.Context, heads []ids.ChangesetId) error {
	const op = "bundle2.applyPhaseUpdates"
	for _, h := range heads {
		if err := r.Phases.MarkPublicHead(ctx, h); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
	}
	return nil
}

type blobAlreadyProvidedErr struct{ key string }

func (e blobAlreadyProvidedErr) Error() string { return "Blob already provided before: " + e.key }

func errBlobAlreadyProvided(key string) error { return blobAlreadyProvidedErr{key: key} }

type hashMismatchErr struct{ claimed, computed string }

func (e hashMismatchErr) Error() string {
	return "changeset hash mismatch: claimed " + e.claimed + " computed " + e.computed
}

func errHashMismatch(claimed, computed string) error {
	return hashMismatchErr{claimed: claimed, computed: computed}
}
