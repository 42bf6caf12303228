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

package refs

import (
	"context"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/ids"
)

// Phase is a changeset's visibility in the partial order Public > Draft;
// Public is absorbing: phase(parent) >= phase(child) along the ancestor
// relation.
type Phase int

const (
	Draft Phase = iota
	Public
)

func (p Phase) String() string {
	if p == Public {
		return "Public"
	}
	return "Draft"
}

// ParentFetcher is the subset of store/datas.Store that phase computation
// needs: walking ancestors of a known-public head. Declared locally
// rather than importing store/datas, so refs has no dependency on the
// changeset model beyond this one method.
type ParentFetcher interface {
	GetParents(ctx context.Context, id ids.ChangesetId) ([]ids.ChangesetId, error)
}

// Store holds the repository's bookmarks and phases.
type Store struct {
	repo    ids.RepoID
	conn    refConn
	parents ParentFetcher
}

func NewStore(repo ids.RepoID, conn refConn, parents ParentFetcher) *Store {
	return &Store{repo: repo, conn: conn, parents: parents}
}

// ListBookmarks returns every bookmark's name -> target mapping.
func (s *Store) ListBookmarks(ctx context.Context) (map[string]ids.ChangesetId, error) {
	raw, err := s.conn.listBookmarks(ctx, s.repo)
	if err != nil {
		return nil, mverrors.Wrap(mverrors.InternalIO, "refs.ListBookmarks", err)
	}
	out := make(map[string]ids.ChangesetId, len(raw))
	for name, h := range raw {
		out[name] = ids.ChangesetIdFromHash(h)
	}
	return out, nil
}

// GetBookmark returns name's target, if the bookmark exists.
func (s *Store) GetBookmark(ctx context.Context, name string) (ids.ChangesetId, bool, error) {
	h, ok, err := s.conn.getBookmark(ctx, s.repo, name)
	if err != nil {
		return ids.ChangesetId{}, false, mverrors.Wrap(mverrors.InternalIO, "refs.GetBookmark", err)
	}
	if !ok {
		return ids.ChangesetId{}, false, nil
	}
	return ids.ChangesetIdFromHash(h), true, nil
}

// SetBookmark performs a compare-and-swap: name's target is updated to
// newTarget only if it currently equals oldTarget (the zero ChangesetId
// for "bookmark does not yet exist"). Returns mverrors.Conflict when the
// CAS loses the race.
func (s *Store) SetBookmark(ctx context.Context, name string, oldTarget, newTarget ids.ChangesetId) error {
	const op = "refs.SetBookmark"
	ok, err := s.conn.casBookmark(ctx, s.repo, name, oldTarget.AsHash(), newTarget.AsHash())
	if err != nil {
		return mverrors.Wrap(mverrors.InternalIO, op, err)
	}
	if !ok {
		return mverrors.Wrap(mverrors.Conflict, op, errConflict)
	}
	return nil
}

var errConflict = conflictErr{}

type conflictErr struct{}

func (conflictErr) Error() string { return "bookmark target changed concurrently" }

// MarkPublicHead declares id a known-public head and walks its entire
// ancestor set, marking every ancestor (and id itself) Public and
// persisting the result. Already-Public ancestors are skipped, so
// repeated calls over overlapping history are cheap.
func (s *Store) MarkPublicHead(ctx context.Context, id ids.ChangesetId) error {
	const op = "refs.MarkPublicHead"
	frontier := []ids.ChangesetId{id}
	visited := map[ids.ChangesetId]bool{}

	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, n := range frontier {
			if visited[n] {
				continue
			}
			visited[n] = true

			phase, known, err := s.conn.getPhase(ctx, s.repo, n)
			if err != nil {
				return mverrors.Wrap(mverrors.InternalIO, op, err)
			}
			if known && phase == Public {
				continue
			}
			if err := s.conn.setPhase(ctx, s.repo, n, Public); err != nil {
				return mverrors.Wrap(mverrors.InternalIO, op, err)
			}

			parents, err := s.parents.GetParents(ctx, n)
			if err != nil {
				return err
			}
			next = append(next, parents...)
		}
		frontier = next
	}
	return nil
}

// GetAllPhases returns the current phase of each id in ids, defaulting to
// Draft for any changeset whose phase has never been computed/persisted.
func (s *Store) GetAllPhases(ctx context.Context, changesets []ids.ChangesetId) (map[ids.ChangesetId]Phase, error) {
	out := make(map[ids.ChangesetId]Phase, len(changesets))
	for _, id := range changesets {
		phase, known, err := s.conn.getPhase(ctx, s.repo, id)
		if err != nil {
			return nil, mverrors.Wrap(mverrors.InternalIO, "refs.GetAllPhases", err)
		}
		if !known {
			phase = Draft
		}
		out[id] = phase
	}
	return out, nil
}
