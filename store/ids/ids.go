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

// Package ids defines the typed content-address wrappers used throughout
// the system. They all share the same underlying representation
// (hash.Hash) but are distinct Go types so that, for example, a
// ManifestId can never be passed where a ChangesetId is expected without
// an explicit conversion.
package ids

import "github.com/mononoke-go/mononoke/store/hash"

// RepoID identifies a repository. It is threaded through every blob store
// key and every SQL row.
type RepoID int32

// ChangesetId identifies an immutable commit object.
type ChangesetId hash.Hash

// AsHash exposes the underlying digest for hashing/serialization code that
// is type-agnostic (the blob store, the SQL layer).
func (c ChangesetId) AsHash() hash.Hash { return hash.Hash(c) }

func (c ChangesetId) String() string { return hash.Hash(c).String() }

// IsNull reports whether c is Mercurial's null changeset (no parent).
func (c ChangesetId) IsNull() bool { return hash.Hash(c).IsEmpty() }

// ChangesetIdFromHash converts explicitly; there is no implicit path.
func ChangesetIdFromHash(h hash.Hash) ChangesetId { return ChangesetId(h) }

// ManifestId identifies a manifest tree node.
type ManifestId hash.Hash

func (m ManifestId) AsHash() hash.Hash          { return hash.Hash(m) }
func (m ManifestId) String() string             { return hash.Hash(m).String() }
func ManifestIdFromHash(h hash.Hash) ManifestId { return ManifestId(h) }

// FileNodeId identifies a specific content version of a file at a specific
// history position.
type FileNodeId hash.Hash

func (f FileNodeId) AsHash() hash.Hash          { return hash.Hash(f) }
func (f FileNodeId) String() string             { return hash.Hash(f).String() }
func (f FileNodeId) IsNull() bool               { return hash.Hash(f).IsEmpty() }
func FileNodeIdFromHash(h hash.Hash) FileNodeId { return FileNodeId(h) }

// ContentId identifies raw file content, independent of its filenode
// history (two filenodes with identical bytes share a ContentId).
type ContentId hash.Hash

func (c ContentId) AsHash() hash.Hash         { return hash.Hash(c) }
func (c ContentId) String() string            { return hash.Hash(c).String() }
func ContentIdFromHash(h hash.Hash) ContentId { return ContentId(h) }

// RepoPath is a repository-relative path. It is a byte string, not
// guaranteed UTF-8: Mercurial paths can carry arbitrary bytes on
// case-sensitive, non-UTF-8 filesystems. Never convert to string except
// for best-effort logging.
type RepoPath []byte

func (p RepoPath) Equal(o RepoPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p RepoPath) String() string { return string(p) }
