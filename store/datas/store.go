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
	"encoding/binary"
	"fmt"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/cache"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

// BlobStore is the subset of *nbs.Store this package depends on, so tests
// can substitute an in-memory fake without pulling in SQL.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store is the changeset/manifest data model, layered over a
// content-addressed BlobStore with a derived-value cache in front of
// generation-number lookups, the hottest path in reachability queries.
type Store struct {
	blobs BlobStore
	gens  cache.Cache
}

func NewStore(blobs BlobStore, gens cache.Cache) *Store {
	if gens == nil {
		gens = cache.NewMock()
	}
	return &Store{blobs: blobs, gens: gens}
}

func changesetKey(id ids.ChangesetId) string { return "changeset:" + id.String() }
func manifestKey(id ids.ManifestId) string   { return "manifest:" + id.String() }
func linknodeKey(path ids.RepoPath, fn ids.FileNodeId) string {
	return fmt.Sprintf("linknode:%s:%s", fn.String(), path.String())
}
func generationKey(id ids.ChangesetId) string { return "generation:" + id.String() }

// PutChangeset writes a Changeset's encoded form keyed by its id.
// Callers are responsible for having computed id as a deterministic
// function of cs's content and parents.
func (s *Store) PutChangeset(ctx context.Context, id ids.ChangesetId, cs Changeset) error {
	return s.blobs.Put(ctx, changesetKey(id), cs.Encode())
}

// LookupChangeset fetches and decodes a Changeset by id.
func (s *Store) LookupChangeset(ctx context.Context, id ids.ChangesetId) (Changeset, error) {
	const op = "datas.LookupChangeset"
	raw, ok, err := s.blobs.Get(ctx, changesetKey(id))
	if err != nil {
		return Changeset{}, mverrors.Wrap(mverrors.InternalIO, op, err)
	}
	if !ok {
		return Changeset{}, mverrors.NewNotFound(op, "Changeset", id.String())
	}
	cs, err := DecodeChangeset(raw)
	if err != nil {
		return Changeset{}, err
	}
	return cs, nil
}

// PutManifest writes a Manifest's encoded form keyed by its id.
func (s *Store) PutManifest(ctx context.Context, id ids.ManifestId, m Manifest) error {
	return s.blobs.Put(ctx, manifestKey(id), m.Encode())
}

// LookupManifest fetches and decodes a Manifest by id.
func (s *Store) LookupManifest(ctx context.Context, id ids.ManifestId) (Manifest, error) {
	const op = "datas.LookupManifest"
	raw, ok, err := s.blobs.Get(ctx, manifestKey(id))
	if err != nil {
		return Manifest{}, mverrors.Wrap(mverrors.InternalIO, op, err)
	}
	if !ok {
		return Manifest{}, mverrors.NewNotFound(op, "Manifest", id.String())
	}
	m, err := DecodeManifest(raw)
	if err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// FindFileInManifest looks up a single path component's entry at the top
// level of a manifest. Multi-component paths are resolved by the caller
// descending through Tree entries one LookupManifest at a time; this
// operation deliberately does one level per call, matching the commit
// graph's lazy-manifest-walk idiom.
func (s *Store) FindFileInManifest(ctx context.Context, name []byte, id ids.ManifestId) (*ManifestEntry, error) {
	m, err := s.LookupManifest(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range m.Entries {
		if string(m.Entries[i].Name) == string(name) {
			e := m.Entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// GetParents returns a Changeset's 0-2 parents.
func (s *Store) GetParents(ctx context.Context, id ids.ChangesetId) ([]ids.ChangesetId, error) {
	cs, err := s.LookupChangeset(ctx, id)
	if err != nil {
		return nil, err
	}
	return cs.Parents, nil
}

// PutLinknode records which changeset introduced fn at path, the reverse
// index get_linknode needs.
func (s *Store) PutLinknode(ctx context.Context, path ids.RepoPath, fn ids.FileNodeId, cs ids.ChangesetId) error {
	return s.blobs.Put(ctx, linknodeKey(path, fn), cs.AsHash().Bytes())
}

// GetLinknode returns the changeset that introduced fn at path, if any.
func (s *Store) GetLinknode(ctx context.Context, path ids.RepoPath, fn ids.FileNodeId) (ids.ChangesetId, bool, error) {
	raw, ok, err := s.blobs.Get(ctx, linknodeKey(path, fn))
	if err != nil {
		return ids.ChangesetId{}, false, mverrors.Wrap(mverrors.InternalIO, "datas.GetLinknode", err)
	}
	if !ok {
		return ids.ChangesetId{}, false, nil
	}
	return ids.ChangesetIdFromHash(hash.New(raw)), true, nil
}

// PutGeneration persists a precomputed generation number for id.
func (s *Store) PutGeneration(ctx context.Context, id ids.ChangesetId, gen int64) error {
	buf := binary.AppendVarint(nil, gen)
	return s.blobs.Put(ctx, generationKey(id), buf)
}

// GetGeneration returns id's generation number, computing it (and every
// ancestor's, recursively, bottom-up) if not already persisted, then
// caching the result. Generation lookups are the hot path of the
// reachability BFS and are the one piece of this model routed through
// the caching layer rather than straight to the blob store.
func (s *Store) GetGeneration(ctx context.Context, id ids.ChangesetId) (int64, error) {
	v, err := s.gens.GetOrFill(ctx, generationKey(id), func(ctx context.Context) (cache.Value, error) {
		raw, ok, err := s.blobs.Get(ctx, generationKey(id))
		if err != nil {
			return nil, mverrors.Wrap(mverrors.InternalIO, "datas.GetGeneration", err)
		}
		if ok {
			g, k := binary.Varint(raw)
			if k <= 0 {
				return nil, mverrors.NewCorruption("datas.GetGeneration", "generation", "valid varint", "malformed")
			}
			return generationValue(g), nil
		}

		cs, err := s.LookupChangeset(ctx, id)
		if err != nil {
			return nil, err
		}
		var parentGens []int64
		for _, p := range cs.Parents {
			pg, err := s.GetGeneration(ctx, p)
			if err != nil {
				return nil, err
			}
			parentGens = append(parentGens, pg)
		}
		gen := Generation(parentGens)
		if err := s.PutGeneration(ctx, id, gen); err != nil {
			return nil, err
		}
		return generationValue(gen), nil
	})
	if err != nil {
		return 0, err
	}
	return int64(v.(generationValue)), nil
}

type generationValue int64

func (g generationValue) Encode() []byte { return binary.AppendVarint(nil, int64(g)) }
