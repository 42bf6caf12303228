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
	"encoding/binary"
	"sort"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

// Encode/Decode for Changeset and Manifest use the same length-prefixed
// framing style as the blob store's InChunk header (store/nbs/record.go):
// a flat sequence of varint-length-prefixed fields, not a general-purpose
// interchange format. Both types implement cache.Value's Encode()
// contract so they can be stored directly in the caching layer.

func putBytes(buf []byte, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func putString(buf []byte, s string) []byte {
	return putBytes(buf, []byte(s))
}

func takeBytes(b []byte) (val, rest []byte, err error) {
	n, k := binary.Uvarint(b)
	if k <= 0 || uint64(k)+n > uint64(len(b)) {
		return nil, nil, mverrors.NewCorruption("datas.decode", "length-prefixed field", "valid length", "truncated or malformed")
	}
	return b[k : uint64(k)+n], b[uint64(k)+n:], nil
}

// Encode serializes a Changeset.
func (c Changeset) Encode() []byte {
	var buf []byte
	buf = putBytes(buf, c.ManifestRoot.AsHash().Bytes())
	buf = putString(buf, c.Author)
	buf = binary.AppendVarint(buf, c.Date)
	buf = putString(buf, c.Message)
	buf = binary.AppendUvarint(buf, uint64(len(c.Parents)))
	for _, p := range c.Parents {
		buf = putBytes(buf, p.AsHash().Bytes())
	}
	buf = binary.AppendUvarint(buf, uint64(len(c.Extra)))
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys) // map order is random; sorted keys keep the encoding (and the id) deterministic
	for _, k := range keys {
		buf = putString(buf, k)
		buf = putBytes(buf, c.Extra[k])
	}
	return buf
}

// DecodeChangeset parses a Changeset previously produced by Encode.
func DecodeChangeset(b []byte) (Changeset, error) {
	const op = "datas.DecodeChangeset"
	var c Changeset

	rootBytes, rest, err := takeBytes(b)
	if err != nil {
		return c, err
	}
	c.ManifestRoot = ids.ManifestIdFromHash(hash.New(rootBytes))

	authorBytes, rest, err := takeBytes(rest)
	if err != nil {
		return c, err
	}
	c.Author = string(authorBytes)

	date, k := binary.Varint(rest)
	if k <= 0 {
		return c, mverrors.NewCorruption(op, "date", "valid varint", "malformed")
	}
	c.Date = date
	rest = rest[k:]

	msgBytes, rest2, err := takeBytes(rest)
	if err != nil {
		return c, err
	}
	c.Message = string(msgBytes)
	rest = rest2

	numParents, k := binary.Uvarint(rest)
	if k <= 0 {
		return c, mverrors.NewCorruption(op, "numParents", "valid varint", "malformed")
	}
	rest = rest[k:]
	c.Parents = make([]ids.ChangesetId, numParents)
	for i := range c.Parents {
		var pb []byte
		pb, rest, err = takeBytes(rest)
		if err != nil {
			return c, err
		}
		c.Parents[i] = ids.ChangesetIdFromHash(hash.New(pb))
	}

	numExtra, k := binary.Uvarint(rest)
	if k <= 0 {
		return c, mverrors.NewCorruption(op, "numExtra", "valid varint", "malformed")
	}
	rest = rest[k:]
	if numExtra > 0 {
		c.Extra = make(map[string][]byte, numExtra)
	}
	for i := uint64(0); i < numExtra; i++ {
		var kb, vb []byte
		kb, rest, err = takeBytes(rest)
		if err != nil {
			return c, err
		}
		vb, rest, err = takeBytes(rest)
		if err != nil {
			return c, err
		}
		c.Extra[string(kb)] = vb
	}
	return c, nil
}

// Encode serializes a Manifest.
func (m Manifest) Encode() []byte {
	var buf []byte
	buf = binary.AppendUvarint(buf, uint64(len(m.Entries)))
	for _, e := range m.Entries {
		buf = putBytes(buf, e.Name)
		buf = binary.AppendUvarint(buf, uint64(e.Type))
		buf = putBytes(buf, e.Hash.Bytes())
		if e.Size != nil {
			buf = append(buf, 1)
			buf = binary.AppendVarint(buf, *e.Size)
		} else {
			buf = append(buf, 0)
		}
		buf = putBytes(buf, e.ContentSHA1)
	}
	return buf
}

// DecodeManifest parses a Manifest previously produced by Encode.
func DecodeManifest(b []byte) (Manifest, error) {
	const op = "datas.DecodeManifest"
	var m Manifest

	numEntries, k := binary.Uvarint(b)
	if k <= 0 {
		return m, mverrors.NewCorruption(op, "numEntries", "valid varint", "malformed")
	}
	rest := b[k:]
	m.Entries = make([]ManifestEntry, numEntries)
	for i := range m.Entries {
		var nameBytes, hashBytes, sha1Bytes []byte
		var err error

		nameBytes, rest, err = takeBytes(rest)
		if err != nil {
			return m, err
		}

		typ, k := binary.Uvarint(rest)
		if k <= 0 {
			return m, mverrors.NewCorruption(op, "entry.type", "valid varint", "malformed")
		}
		rest = rest[k:]

		hashBytes, rest, err = takeBytes(rest)
		if err != nil {
			return m, err
		}

		if len(rest) < 1 {
			return m, mverrors.NewCorruption(op, "entry.size tag", "0 or 1", "truncated")
		}
		hasSize := rest[0] == 1
		rest = rest[1:]
		var size *int64
		if hasSize {
			var sv int64
			sv, k = binary.Varint(rest)
			if k <= 0 {
				return m, mverrors.NewCorruption(op, "entry.size", "valid varint", "malformed")
			}
			rest = rest[k:]
			size = &sv
		}

		sha1Bytes, rest, err = takeBytes(rest)
		if err != nil {
			return m, err
		}

		m.Entries[i] = ManifestEntry{
			Name:        nameBytes,
			Type:        FileType(typ),
			Hash:        hash.New(hashBytes),
			Size:        size,
			ContentSHA1: sha1Bytes,
		}
	}
	return m, nil
}
