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

// Package datas implements the changeset/manifest data model and the
// generation-number BFS reachability index over the commit DAG.
package datas

import (
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

// FileType distinguishes the kinds of entry a Manifest can contain.
type FileType int

const (
	Regular FileType = iota
	Executable
	Symlink
	Tree
)

func (t FileType) String() string {
	switch t {
	case Regular:
		return "Regular"
	case Executable:
		return "Executable"
	case Symlink:
		return "Symlink"
	case Tree:
		return "Tree"
	default:
		return "Unknown"
	}
}

// Changeset is an immutable commit snapshot. Its hash (ids.ChangesetId)
// is a deterministic function of its content and parents; recomputing it
// from the same fields must reproduce the same id.
type Changeset struct {
	ManifestRoot ids.ManifestId
	Author       string
	Date         int64 // Unix seconds
	Message      string
	Parents      []ids.ChangesetId // 0, 1, or 2 entries
	Extra        map[string][]byte
}

// ComputeChangesetId derives cs's content address: a deterministic
// function of its encoded content, which includes its parents.
// Recomputing it for a stored changeset must reproduce the stored id.
func ComputeChangesetId(cs Changeset) ids.ChangesetId {
	return ids.ChangesetIdFromHash(hash.Of(cs.Encode()))
}

// ComputeManifestId derives m's content address the same way.
func ComputeManifestId(m Manifest) ids.ManifestId {
	return ids.ManifestIdFromHash(hash.Of(m.Encode()))
}

// Generation returns a Changeset's generation number given its parents'
// generations: gen(c) = 1 + max(gen(parents(c))), gen(root) = 1.
func Generation(parentGens []int64) int64 {
	var max int64
	for _, g := range parentGens {
		if g > max {
			max = g
		}
	}
	return max + 1
}

// ManifestEntry is one row of a Manifest: a name mapped to either a file
// (Regular/Executable/Symlink, referencing file content) or a Tree
// (referencing another Manifest).
// ManifestEntry.Hash is a ManifestId when Type == Tree, or a FileNodeId
// (care of FileNodeIdFromHash) for Regular/Executable/Symlink entries;
// both share the same underlying hash.Hash representation.
type ManifestEntry struct {
	Name        []byte
	Type        FileType
	Hash        hash.Hash
	Size        *int64
	ContentSHA1 []byte // optional, 20 bytes when present
}

// Manifest is an ordered set of entries, conceptually a directory's
// filename -> node mapping rooted at a ManifestId.
type Manifest struct {
	Entries []ManifestEntry
}

// DiffStatus classifies one entry of a changed-file stream.
type DiffStatus int

const (
	Added DiffStatus = iota
	Modified
	Deleted
)

// DiffEntry is one element of ChangedFileStream's output.
type DiffEntry struct {
	Path   ids.RepoPath
	Status DiffStatus
	From   *ManifestEntry // set when Status ∈ {Modified, Deleted}
	To     *ManifestEntry // set when Status ∈ {Added, Modified}
}
