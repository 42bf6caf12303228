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
	"encoding/binary"

	"github.com/mononoke-go/mononoke/mverrors"
)

// recordKind is the `type` column of the `data` table.
type recordKind int32

const (
	kindData    recordKind = 1
	kindInChunk recordKind = 2
)

// tagNumChunks is the only recognized variant of the InChunk header
// framing: a minimal, self-describing tag-byte-plus-varint encoding
// whose single known field is the chunk count. Anything else is a
// deserialization error, not a skippable unknown field.
const tagNumChunks byte = 1

// encodeInChunkHeader serializes an InChunk(n) header.
func encodeInChunkHeader(numChunks int) []byte {
	buf := make([]byte, 1, 10)
	buf[0] = tagNumChunks
	buf = binary.AppendUvarint(buf, uint64(numChunks))
	return buf
}

// decodeInChunkHeader parses an InChunk(n) header, returning a
// DataCorruption error for any unrecognized tag, truncated buffer, or
// out-of-range chunk count. Corrupt headers are fatal, never folded
// into a "not present" result.
func decodeInChunkHeader(b []byte) (int, error) {
	const op = "nbs.decodeInChunkHeader"
	if len(b) < 2 {
		return 0, mverrors.NewCorruption(op, "data.value", "tag+varint(numChunks)", "truncated header")
	}
	if b[0] != tagNumChunks {
		return 0, mverrors.NewCorruption(op, "data.value", "tag=num_of_chunks", "unknown variant tag")
	}
	n, k := binary.Uvarint(b[1:])
	if k <= 0 {
		return 0, mverrors.NewCorruption(op, "data.value", "valid varint", "malformed varint")
	}
	if n == 0 || n > 1<<31 {
		return 0, mverrors.NewCorruption(op, "data.value", "num_of_chunks in (0, 2^31]", "out of range")
	}
	return int(n), nil
}
