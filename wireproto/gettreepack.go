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

package wireproto

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/mononoke-go/mononoke/bundle2"
	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
)

// DefaultTreepackDepth is gettreepack's default depth when the caller
// does not specify one.
const DefaultTreepackDepth = 1 << 17

// GetTreePackArgs is gettreepack's argument set.
type GetTreePackArgs struct {
	RootDir      []byte
	MfNodes      []ids.ManifestId
	BaseMfNodes  []ids.ManifestId
	Directories  [][]byte // unsupported: non-empty fails
	Depth        int      // 0 selects DefaultTreepackDepth
	VerifyPctg   int      // 0-100: percentage of entries to hash-verify
}

// treepackEntry is one surviving Tree entry gettreepack emits, carrying
// everything the client needs to reconstruct the manifest node.
type treepackEntry struct {
	path     ids.RepoPath
	entry    datas.ManifestEntry
	parents  []ids.ChangesetId
	linknode ids.ChangesetId
	raw      []byte
}

// GetTreePack streams a manifest-tree pack for the requested roots,
// recursing into changed subtrees down to Depth manifest levels. If
// multiple MfNodes are given, each is diffed against the first
// BaseMfNodes entry, sharing one VisitedPruner so subtrees common to
// multiple targets are only sent once.
func (e *Engine) GetTreePack(ctx context.Context, args GetTreePackArgs) ([]byte, error) {
	const op = "wireproto.GetTreePack"
	if len(args.Directories) > 0 {
		return nil, mverrors.Wrap(mverrors.InvalidInput, op, errDirectoriesUnsupported)
	}
	depth := args.Depth
	if depth <= 0 {
		depth = DefaultTreepackDepth
	}

	var out []byte
	err := e.withTimeout(ctx, op, DefaultTimeout, func(ctx context.Context) error {
		var base ids.ManifestId
		if len(args.BaseMfNodes) > 0 {
			base = args.BaseMfNodes[0]
		}

		shared := datas.VisitedPruner()
		standard := datas.And(datas.FilePruner, datas.DeletedPruner)

		var entries []treepackEntry
		for _, target := range args.MfNodes {
			pruner := datas.And(standard, shared)
			stream, err := e.Changesets.ChangedFileStream(ctx, target, base, depth, pruner)
			if err != nil {
				return err
			}
			for {
				diff, ok, err := stream()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				ref := diff.To
				if ref == nil {
					ref = diff.From
				}
				if ref == nil || ref.Type != datas.Tree {
					continue
				}
				te, err := e.buildTreepackEntry(ctx, diff.Path, *ref, args.VerifyPctg)
				if err != nil {
					return err
				}
				entries = append(entries, te)
			}
		}

		payload := encodeTreepackPayload(entries)
		w := bundle2.NewWriter()
		w.WritePart(bundle2.Part{
			Type:      "treepack",
			Mandatory: true,
			Params:    map[string]string{"checksum": strconv.FormatUint(xxhash.Sum64(payload), 16)},
			Payload:   payload,
		})
		out = w.Bytes()
		return nil
	})
	return out, err
}

// buildTreepackEntry fetches a surviving Tree entry's parents, linknode
// and raw manifest bytes, optionally verifying the manifest's recomputed
// id equals the claimed node, sampled at verifyPctg percent.
func (e *Engine) buildTreepackEntry(ctx context.Context, path ids.RepoPath, ref datas.ManifestEntry, verifyPctg int) (treepackEntry, error) {
	mid := ids.ManifestIdFromHash(ref.Hash)
	m, err := e.Changesets.LookupManifest(ctx, mid)
	if err != nil {
		return treepackEntry{}, err
	}
	raw := m.Encode()

	fn := ids.FileNodeIdFromHash(ref.Hash)
	linknode, found, err := e.Changesets.GetLinknode(ctx, path, fn)
	if err != nil {
		return treepackEntry{}, err
	}
	var parents []ids.ChangesetId
	if found {
		parents, err = e.Changesets.GetParents(ctx, linknode)
		if err != nil {
			return treepackEntry{}, err
		}
	}

	if verifyPctg > 0 && rand.Intn(100) < verifyPctg {
		if computed := datas.ComputeManifestId(m); computed != mid {
			return treepackEntry{}, mverrors.NewCorruption("wireproto.GetTreePack",
				path.String(), mid.String(), computed.String())
		}
	}

	return treepackEntry{path: path, entry: ref, parents: parents, linknode: linknode, raw: raw}, nil
}

func encodeTreepackPayload(entries []treepackEntry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = appendLP(buf, e.path)
		buf = appendLP(buf, e.entry.Hash.Bytes())
		var p1, p2 ids.ChangesetId
		if len(e.parents) > 0 {
			p1 = e.parents[0]
		}
		if len(e.parents) > 1 {
			p2 = e.parents[1]
		}
		buf = appendLP(buf, p1.AsHash().Bytes())
		buf = appendLP(buf, p2.AsHash().Bytes())
		buf = appendLP(buf, e.linknode.AsHash().Bytes())
		buf = appendLP(buf, e.raw)
	}
	return buf
}

type directoriesUnsupportedErr struct{}

func (directoriesUnsupportedErr) Error() string {
	return "gettreepack: directories parameter is unsupported"
}

var errDirectoriesUnsupported = directoriesUnsupportedErr{}
