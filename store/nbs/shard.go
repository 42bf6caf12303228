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

// Package nbs implements the sharded, chunked, content-addressed blob
// store backed by SQL: values are keyed by (repo, string key), spread
// across N shards by a content-derived hash, and transparently split
// into chunk rows above a size threshold.
package nbs

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"

	"github.com/mononoke-go/mononoke/store/ids"
)

// shardHashSeed is part of the on-disk contract: changing it invalidates
// every previously written row.
const shardHashSeed = 0

// shardFor computes the 1-indexed shard for a top-level (data table) key:
// XxHash32(repo_id_bytes || key_bytes) mod N. repo_id is mixed in as four
// little-endian i32 bytes, followed by the raw key bytes. Part of the
// on-disk contract.
func shardFor(repo ids.RepoID, key string, numShards int) int {
	h := xxhash.NewS32(shardHashSeed)
	var repoBuf [4]byte
	binary.LittleEndian.PutUint32(repoBuf[:], uint32(int32(repo)))
	_, _ = h.Write(repoBuf[:])
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()%uint32(numShards)) + 1
}

// shardForChunk computes the 1-indexed shard for a chunk row, mixing in
// chunk_id as four little-endian bytes after the key, so a large value's
// chunks spread across shards instead of landing on the key's shard.
func shardForChunk(repo ids.RepoID, key string, chunkID uint32, numShards int) int {
	h := xxhash.NewS32(shardHashSeed)
	var repoBuf [4]byte
	binary.LittleEndian.PutUint32(repoBuf[:], uint32(int32(repo)))
	_, _ = h.Write(repoBuf[:])
	_, _ = h.Write([]byte(key))
	var chunkBuf [4]byte
	binary.LittleEndian.PutUint32(chunkBuf[:], chunkID)
	_, _ = h.Write(chunkBuf[:])
	return int(h.Sum32()%uint32(numShards)) + 1
}
