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

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mononoke-go/mononoke/mverrors"
	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
)

func splitPath(raw string) ids.RepoPath {
	raw = strings.Trim(raw, "/")
	return ids.RepoPath(raw)
}

// resolveManifestPath descends from a changeset's manifest root through
// path's slash-separated components, following Tree entries one
// LookupManifest at a time, the HTTP-surface equivalent of the
// single-level descent datas.Store.FindFileInManifest documents as the
// repo-wide convention for walking a path through nested manifests.
func (s *Server) resolveManifestPath(r *http.Request, csHex, rawPath string) (*datas.ManifestEntry, error) {
	const op = "httpapi.resolveManifestPath"
	h, ok := parseHexNode(csHex)
	if !ok {
		return nil, mverrors.Wrap(mverrors.InvalidInput, op, errBadHash(csHex))
	}
	cs, err := s.Changesets.LookupChangeset(r.Context(), ids.ChangesetIdFromHash(h))
	if err != nil {
		return nil, err
	}

	root := cs.ManifestRoot
	rawPath = strings.Trim(rawPath, "/")
	if rawPath == "" {
		return &datas.ManifestEntry{Type: datas.Tree, Hash: root.AsHash()}, nil
	}
	segments := strings.Split(rawPath, "/")

	var entry *datas.ManifestEntry
	cur := root
	for i, seg := range segments {
		e, err := s.Changesets.FindFileInManifest(r.Context(), []byte(seg), cur)
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, mverrors.NewNotFound(op, "path component", seg)
		}
		entry = e
		if i < len(segments)-1 {
			if e.Type != datas.Tree {
				return nil, mverrors.NewNotFound(op, "directory", seg)
			}
			cur = ids.ManifestIdFromHash(e.Hash)
		}
	}
	return entry, nil
}

func errBadHash(s string) error { return badHashErr(s) }

type badHashErr string

func (e badHashErr) Error() string { return "not a valid 40-char hex node id: " + string(e) }

// handleRaw serves a file's raw content at a changeset/path.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.resolveManifestPath(r, vars["changeset"], vars["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	if entry.Type == datas.Tree {
		badRequest(w, "path refers to a directory, not a file")
		return
	}
	content, ok, err := s.Blobs.Get(r.Context(), contentKey(ids.FileNodeIdFromHash(entry.Hash)))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, mverrors.NewNotFound("httpapi.handleRaw", "content", entry.Hash.String()))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(content)
}

// handleGetHgFile serves a filenode's raw content directly.
func (s *Server) handleGetHgFile(w http.ResponseWriter, r *http.Request) {
	h, ok := parseHexNode(mux.Vars(r)["filenode"])
	if !ok {
		badRequest(w, "invalid filenode")
		return
	}
	content, found, err := s.Blobs.Get(r.Context(), contentKey(ids.FileNodeIdFromHash(h)))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, mverrors.NewNotFound("httpapi.handleGetHgFile", "content", hexNode(h)))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(content)
}

type historyEntryJSON struct {
	Node     string `json:"node"`
	P1       string `json:"p1"`
	P2       string `json:"p2"`
	Linknode string `json:"linknode"`
}

// handleGetFileHistory walks a filenode's ancestor chain up to depth
// entries (default unlimited), returned as JSON.
func (s *Server) handleGetFileHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h, ok := parseHexNode(vars["filenode"])
	if !ok {
		badRequest(w, "invalid filenode")
		return
	}
	path := splitPath(vars["path"])

	depth := -1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			badRequest(w, "invalid depth")
			return
		}
		depth = d
	}

	var out []historyEntryJSON
	node := ids.FileNodeIdFromHash(h)
	for i := 0; depth < 0 || i < depth; i++ {
		linknode, found, err := s.Changesets.GetLinknode(r.Context(), path, node)
		if err != nil {
			writeError(w, err)
			return
		}
		if !found {
			break
		}
		entry := historyEntryJSON{Node: hexNode(node.AsHash()), Linknode: hexNode(linknode.AsHash())}
		parents, err := s.Changesets.GetParents(r.Context(), linknode)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(parents) > 0 {
			entry.P1 = hexNode(parents[0].AsHash())
		}
		if len(parents) > 1 {
			entry.P2 = hexNode(parents[1].AsHash())
		}
		out = append(out, entry)
		if len(parents) == 0 {
			break
		}
		node = ids.FileNodeIdFromHash(parents[0].AsHash())
	}
	writeJSON(w, out)
}

// handleIsAncestor answers whether ancestor is reachable from descendant
// via the reachability index.
func (s *Server) handleIsAncestor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	anc, ok1 := parseHexNode(vars["ancestor"])
	desc, ok2 := parseHexNode(vars["descendant"])
	if !ok1 || !ok2 {
		badRequest(w, "invalid changeset hash")
		return
	}
	reachable, err := s.Reach.QueryReachability(r.Context(),
		ids.ChangesetIdFromHash(desc), ids.ChangesetIdFromHash(anc))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	if reachable {
		w.Write([]byte("true"))
	} else {
		w.Write([]byte("false"))
	}
}

type manifestEntryJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// handleList lists a directory's (or file's) manifest entry/entries at a
// changeset/path.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h, ok := parseHexNode(vars["changeset"])
	if !ok {
		badRequest(w, "invalid changeset")
		return
	}
	cs, err := s.Changesets.LookupChangeset(r.Context(), ids.ChangesetIdFromHash(h))
	if err != nil {
		writeError(w, err)
		return
	}

	root := cs.ManifestRoot
	rawPath := strings.Trim(vars["path"], "/")
	if rawPath != "" {
		entry, err := s.resolveManifestPath(r, vars["changeset"], rawPath)
		if err != nil {
			writeError(w, err)
			return
		}
		if entry.Type != datas.Tree {
			writeJSON(w, []manifestEntryJSON{toManifestEntryJSON(*entry)})
			return
		}
		root = ids.ManifestIdFromHash(entry.Hash)
	}

	m, err := s.Changesets.LookupManifest(r.Context(), root)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]manifestEntryJSON, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, toManifestEntryJSON(e))
	}
	writeJSON(w, out)
}

func toManifestEntryJSON(e datas.ManifestEntry) manifestEntryJSON {
	return manifestEntryJSON{Name: string(e.Name), Type: e.Type.String(), Hash: e.Hash.String()}
}

// handleBlob serves raw content addressed directly by its filenode hash.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	h, ok := parseHexNode(mux.Vars(r)["hash"])
	if !ok {
		badRequest(w, "invalid hash")
		return
	}
	content, found, err := s.Blobs.Get(r.Context(), contentKey(ids.FileNodeIdFromHash(h)))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, mverrors.NewNotFound("httpapi.handleBlob", "content", hexNode(h)))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(content)
}

// handleTree serves a manifest's entries as JSON, addressed by its
// ManifestId hash.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	h, ok := parseHexNode(mux.Vars(r)["hash"])
	if !ok {
		badRequest(w, "invalid hash")
		return
	}
	m, err := s.Changesets.LookupManifest(r.Context(), ids.ManifestIdFromHash(h))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]manifestEntryJSON, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, toManifestEntryJSON(e))
	}
	writeJSON(w, out)
}

type changesetJSON struct {
	ManifestRoot string   `json:"manifest_root"`
	Author       string   `json:"author"`
	Date         int64    `json:"date"`
	Message      string   `json:"message"`
	Parents      []string `json:"parents"`
}

// handleChangeset serves a changeset's metadata as JSON.
func (s *Server) handleChangeset(w http.ResponseWriter, r *http.Request) {
	h, ok := parseHexNode(mux.Vars(r)["hash"])
	if !ok {
		badRequest(w, "invalid hash")
		return
	}
	cs, err := s.Changesets.LookupChangeset(r.Context(), ids.ChangesetIdFromHash(h))
	if err != nil {
		writeError(w, err)
		return
	}
	out := changesetJSON{
		ManifestRoot: cs.ManifestRoot.String(),
		Author:       cs.Author,
		Date:         cs.Date,
		Message:      cs.Message,
	}
	for _, p := range cs.Parents {
		out.Parents = append(out.Parents, hexNode(p.AsHash()))
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// contentKey mirrors wireproto's fileContentKey convention ("content:<hash>");
// duplicated rather than imported because httpapi depends only on small
// locally-declared interfaces, the same isolation wireproto and bundle2
// already apply to their own storage dependencies.
func contentKey(fn ids.FileNodeId) string {
	return "content:" + fn.String()
}
