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

package nbs

import (
	"context"
	"fmt"

	"github.com/gocraft/dbr/v2"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/metrics"
)

// DefaultChunkSize is the byte size of each chunk row once a value is
// split. It, like the shard hash seed, is part of the on-disk contract.
const DefaultChunkSize = 256 * 1024

// Store is the sharded, chunked, content-addressed blob store. One
// Store serves one repository; RepoID is mixed into every shard
// computation and every row, so distinct repositories may safely share
// the same physical shards.
type Store struct {
	repo      ids.RepoID
	numShards int
	chunkSize int
	shards    []*ShardPool

	sizes metrics.ByteHistogram
}

// New constructs a Store. shards must hold at least one pool and the
// shard count is len(shards); chunkSize <= 0 selects DefaultChunkSize.
func New(repo ids.RepoID, shards []*ShardPool, chunkSize int) (*Store, error) {
	const op = "nbs.New"
	if len(shards) == 0 {
		return nil, mverrors.Wrap(mverrors.InvalidInput, op, fmt.Errorf("at least one shard is required"))
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Store{repo: repo, numShards: len(shards), chunkSize: chunkSize, shards: shards}, nil
}

// readDataRow performs the replica-then-master fallback read for the
// `data` table: replica first to spread load, then master on an empty
// result to tolerate replica lag.
func (s *Store) readDataRow(ctx context.Context, key string) (*dataRow, error) {
	shard := s.shards[shardFor(s.repo, key, s.numShards)-1]

	row, err := shard.Replica.selectData(ctx, s.repo, key)
	if err != nil {
		return nil, mverrors.Wrap(mverrors.InternalIO, "nbs.Get.replica", err)
	}
	if row != nil {
		return row, nil
	}
	row, err = shard.Master.selectData(ctx, s.repo, key)
	if err != nil {
		return nil, mverrors.Wrap(mverrors.InternalIO, "nbs.Get.master", err)
	}
	return row, nil
}

// Get returns the complete value for key, or (nil, false, nil) when the
// key is not present at all. Missing data is distinguished from missing
// chunks: a top-level key absent from master is "not present" (returns
// false, no error); a chunk absent from master means a header exists
// whose chunks do not, which is corruption, never silently folded into
// "not present".
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "nbs.Get"
	row, err := s.readDataRow(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		return nil, false, nil
	}

	switch recordKind(row.Type) {
	case kindData:
		s.sizes.Sample(uint64(len(row.Value)))
		return row.Value, true, nil
	case kindInChunk:
		numChunks, err := decodeInChunkHeader(row.Value)
		if err != nil {
			return nil, false, err
		}
		value, err := s.reassemble(ctx, key, numChunks)
		if err != nil {
			return nil, false, err
		}
		s.sizes.Sample(uint64(len(value)))
		return value, true, nil
	default:
		return nil, false, mverrors.NewCorruption(op, "data.type", "1 (Data) or 2 (InChunk)", fmt.Sprintf("%d", row.Type))
	}
}

// reassemble fetches all numChunks chunk rows for key, in order, and
// concatenates them. A chunk missing from both replica and master is a
// fatal corruption error.
func (s *Store) reassemble(ctx context.Context, key string, numChunks int) ([]byte, error) {
	const op = "nbs.reassemble"
	var out []byte
	for i := 0; i < numChunks; i++ {
		chunkID := uint32(i)
		shard := s.shards[shardForChunk(s.repo, key, chunkID, s.numShards)-1]

		value, ok, err := shard.Replica.selectChunk(ctx, s.repo, key, chunkID)
		if err != nil {
			return nil, mverrors.Wrap(mverrors.InternalIO, op, err)
		}
		if !ok {
			value, ok, err = shard.Master.selectChunk(ctx, s.repo, key, chunkID)
			if err != nil {
				return nil, mverrors.Wrap(mverrors.InternalIO, op, err)
			}
			if !ok {
				return nil, mverrors.NewCorruption(op, fmt.Sprintf("chunk(%s,%d)", key, chunkID),
					"chunk present", "missing chunk")
			}
		}
		out = append(out, value...)
	}
	return out, nil
}

// IsPresent reports whether key exists, without fetching its value.
func (s *Store) IsPresent(ctx context.Context, key string) (bool, error) {
	shard := s.shards[shardFor(s.repo, key, s.numShards)-1]

	present, err := shard.Replica.selectIsDataPresent(ctx, s.repo, key)
	if err != nil {
		return false, mverrors.Wrap(mverrors.InternalIO, "nbs.IsPresent.replica", err)
	}
	if present {
		return true, nil
	}
	present, err = shard.Master.selectIsDataPresent(ctx, s.repo, key)
	if err != nil {
		return false, mverrors.Wrap(mverrors.InternalIO, "nbs.IsPresent.master", err)
	}
	return present, nil
}

// Put writes value under key. Writes are insert-or-ignore: if key
// already has a row the call is a silent no-op for that row, so Put is
// idempotent by key and the first write wins. Values larger than the
// configured chunk threshold are split into ceil(len/chunkSize) chunk
// rows plus an InChunk(n) header row.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const op = "nbs.Put"
	if len(value) <= s.chunkSize {
		shard := s.shards[shardFor(s.repo, key, s.numShards)-1]
		if err := shard.Master.insertData(ctx, s.repo, key, kindData, value); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
		return nil
	}

	numChunks := (len(value) + s.chunkSize - 1) / s.chunkSize
	for i := 0; i < numChunks; i++ {
		start := i * s.chunkSize
		end := start + s.chunkSize
		if end > len(value) {
			end = len(value)
		}
		chunkID := uint32(i)
		shard := s.shards[shardForChunk(s.repo, key, chunkID, s.numShards)-1]
		if err := shard.Master.insertChunk(ctx, s.repo, key, chunkID, value[start:end]); err != nil {
			return mverrors.Wrap(mverrors.InternalIO, op, err)
		}
	}

	header := encodeInChunkHeader(numChunks)
	shard := s.shards[shardFor(s.repo, key, s.numShards)-1]
	if err := shard.Master.insertData(ctx, s.repo, key, kindInChunk, header); err != nil {
		return mverrors.Wrap(mverrors.InternalIO, op, err)
	}
	return nil
}

// Sizes returns a snapshot histogram of value sizes observed by Get,
// exposed for ambient operational visibility.
func (s *Store) Sizes() metrics.ByteHistogram { return s.sizes }

// OpenShardDB opens a *sql.DB and wraps it as a dbr.Connection, the
// pattern every ShardPool's Replica/Master field is built from. Kept as
// a small helper so callers (cmd/mononokesrv) don't each repeat the dbr
// wiring boilerplate.
func OpenShardDB(driverName, dsn string) (*dbr.Connection, error) {
	return dbr.Open(driverName, dsn, nil)
}
