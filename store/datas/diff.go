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

	"github.com/mononoke-go/mononoke/store/ids"
)

// Pruner decides whether a DiffEntry should be kept (true) or dropped.
// Pruners compose by logical AND via the And helper. A pruned Tree entry
// is also not descended into: that is what lets VisitedPruner cut an
// entire shared subtree out of a walk, not just its root entry.
type Pruner func(DiffEntry) bool

// And composes pruners: the result keeps an entry only if every pruner
// keeps it.
func And(pruners ...Pruner) Pruner {
	return func(e DiffEntry) bool {
		for _, p := range pruners {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// FilePruner drops leaf file entries, keeping only directory-level diffs.
func FilePruner(e DiffEntry) bool {
	ref := e.To
	if ref == nil {
		ref = e.From
	}
	return ref != nil && ref.Type == Tree
}

// DeletedPruner drops deletions.
func DeletedPruner(e DiffEntry) bool {
	return e.Status != Deleted
}

// VisitedPruner deduplicates subtrees already seen across multiple calls
// to ChangedFileStream sharing the same Pruner instance.
func VisitedPruner() Pruner {
	seen := map[string]bool{}
	return func(e DiffEntry) bool {
		ref := e.To
		if ref == nil {
			ref = e.From
		}
		if ref == nil {
			return true
		}
		key := ref.Hash.String()
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	}
}

// diffFrame is one pending pairwise manifest comparison in a tree walk:
// the two manifests reached at prefix, and how many more levels the walk
// may still descend below them.
type diffFrame struct {
	prefix ids.RepoPath
	newID  ids.ManifestId
	oldID  ids.ManifestId
	depth  int
}

// ChangedFileStream returns a pull-based iterator walking the manifest
// trees rooted at mfNew and mfOld pairwise, yielding one DiffEntry per
// call until the walk is exhausted (then (_, false, nil) forever).
// Matching Tree entries recurse: a kept Added/Deleted/Modified entry
// whose side(s) are trees queues the child manifest pair, so nested
// changes surface no matter how deep they sit. depth bounds how many
// manifest levels are walked (1 = top level only); depth <= 0 means no
// bound. A zero ManifestId on either side stands for the empty manifest,
// so a missing base diffs as all-added. The iterator is restartable:
// calling ChangedFileStream again builds an entirely fresh walk state,
// sharing nothing with a previous call over the same manifests.
func (s *Store) ChangedFileStream(ctx context.Context, mfNew, mfOld ids.ManifestId, depth int, pruners ...Pruner) (func() (DiffEntry, bool, error), error) {
	keep := And(pruners...)
	frames := []diffFrame{{newID: mfNew, oldID: mfOld, depth: depth}}
	var pending []DiffEntry
	idx := 0
	curDepth := depth

	return func() (DiffEntry, bool, error) {
		for {
			for idx < len(pending) {
				e := pending[idx]
				idx++
				if len(pruners) > 0 && !keep(e) {
					continue
				}
				if child, ok := childFrame(e, curDepth); ok {
					frames = append(frames, child)
				}
				return e, true, nil
			}
			if len(frames) == 0 {
				return DiffEntry{}, false, nil
			}
			f := frames[0]
			frames = frames[1:]
			newManifest, err := s.manifestOrEmpty(ctx, f.newID)
			if err != nil {
				return DiffEntry{}, false, err
			}
			oldManifest, err := s.manifestOrEmpty(ctx, f.oldID)
			if err != nil {
				return DiffEntry{}, false, err
			}
			pending = diffManifests(f.prefix, newManifest, oldManifest)
			idx = 0
			curDepth = f.depth
		}
	}, nil
}

// childFrame queues the pairwise comparison below e when e involves a
// Tree on either side and depth permits another level. depth == 1 means
// the current level was the last allowed; depth <= 0 means unbounded.
func childFrame(e DiffEntry, depth int) (diffFrame, bool) {
	if depth == 1 {
		return diffFrame{}, false
	}
	var newID, oldID ids.ManifestId
	if e.To != nil && e.To.Type == Tree {
		newID = ids.ManifestIdFromHash(e.To.Hash)
	}
	if e.From != nil && e.From.Type == Tree {
		oldID = ids.ManifestIdFromHash(e.From.Hash)
	}
	if newID.AsHash().IsEmpty() && oldID.AsHash().IsEmpty() {
		return diffFrame{}, false
	}
	child := depth - 1
	if depth <= 0 {
		child = 0
	}
	return diffFrame{prefix: e.Path, newID: newID, oldID: oldID, depth: child}, true
}

// manifestOrEmpty resolves id, treating the zero ManifestId as the empty
// manifest so added and deleted subtrees diff against nothing.
func (s *Store) manifestOrEmpty(ctx context.Context, id ids.ManifestId) (Manifest, error) {
	if id.AsHash().IsEmpty() {
		return Manifest{}, nil
	}
	return s.LookupManifest(ctx, id)
}

// diffManifests computes a name-keyed comparison of one level of two
// manifests, prefixing each entry's path with the directory that led
// here. Recursion into matching Tree entries is driven by the caller's
// frame queue, one fetched manifest pair at a time, so the walk stays
// lazy.
func diffManifests(prefix ids.RepoPath, newManifest, oldManifest Manifest) []DiffEntry {
	oldByName := make(map[string]ManifestEntry, len(oldManifest.Entries))
	for _, e := range oldManifest.Entries {
		oldByName[string(e.Name)] = e
	}

	var out []DiffEntry
	seenNames := make(map[string]bool, len(newManifest.Entries))
	for _, ne := range newManifest.Entries {
		seenNames[string(ne.Name)] = true
		ne := ne
		if oe, ok := oldByName[string(ne.Name)]; ok {
			if oe.Hash != ne.Hash || oe.Type != ne.Type {
				oe := oe
				out = append(out, DiffEntry{Path: joinPath(prefix, ne.Name), Status: Modified, From: &oe, To: &ne})
			}
		} else {
			out = append(out, DiffEntry{Path: joinPath(prefix, ne.Name), Status: Added, To: &ne})
		}
	}
	for _, oe := range oldManifest.Entries {
		if !seenNames[string(oe.Name)] {
			oe := oe
			out = append(out, DiffEntry{Path: joinPath(prefix, oe.Name), Status: Deleted, From: &oe})
		}
	}
	return out
}

func joinPath(prefix ids.RepoPath, name []byte) ids.RepoPath {
	if len(prefix) == 0 {
		return ids.RepoPath(append([]byte(nil), name...))
	}
	p := make([]byte, 0, len(prefix)+1+len(name))
	p = append(p, prefix...)
	p = append(p, '/')
	return ids.RepoPath(append(p, name...))
}
