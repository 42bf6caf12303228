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

// Package httpapi implements the read-only HTTP surface: one endpoint
// per operation, routed with gorilla/mux, plus the LFS object-transfer
// endpoints getfiles' threshold-triggered pointers reference. Every
// route but /health_check is wrapped in request logging; /health_check
// deliberately carries no telemetry.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
)

// ChangesetStore is the subset of *store/datas.Store this package reads
// through, following the same locally-declared-interface idiom wireproto
// and bundle2 already use for test substitutability.
type ChangesetStore interface {
	LookupChangeset(ctx context.Context, id ids.ChangesetId) (datas.Changeset, error)
	LookupManifest(ctx context.Context, id ids.ManifestId) (datas.Manifest, error)
	FindFileInManifest(ctx context.Context, name []byte, id ids.ManifestId) (*datas.ManifestEntry, error)
	GetLinknode(ctx context.Context, path ids.RepoPath, fn ids.FileNodeId) (ids.ChangesetId, bool, error)
	GetParents(ctx context.Context, id ids.ChangesetId) ([]ids.ChangesetId, error)
}

// Reachability backs is_ancestor.
type Reachability interface {
	QueryReachability(ctx context.Context, src, dst ids.ChangesetId) (bool, error)
}

// BlobStore is the subset of *store/nbs.Store the HTTP surface reads raw
// content through, and the LFS pass-throughs read/write through.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Server holds the dependencies every handler reads through. One Server
// serves one repository, mirroring wireproto.Engine's per-repo scoping.
type Server struct {
	Repo       ids.RepoID
	Changesets ChangesetStore
	Reach      Reachability
	Blobs      BlobStore
	Log        *zap.Logger
}

// NewServer constructs a Server; log may be nil (substituted with
// zap.NewNop(), mirroring wireproto.NewEngine's tolerance of a nil
// logger).
func NewServer(repo ids.RepoID, changesets ChangesetStore, reach Reachability, blobs BlobStore, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Repo: repo, Changesets: changesets, Reach: reach, Blobs: blobs, Log: log}
}

// NewRouter builds the full route table over s.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health_check", healthCheck).Methods("GET")

	repo := r.PathPrefix("/{repo}").Subrouter()
	repo.Use(loggingMiddleware(s.Log))

	repo.HandleFunc("/raw/{changeset}/{path:.*}", s.handleRaw).Methods("GET")
	repo.HandleFunc("/gethgfile/{filenode}", s.handleGetHgFile).Methods("GET")
	repo.HandleFunc("/getfilehistory/{filenode}/{path:.*}", s.handleGetFileHistory).Methods("GET")
	repo.HandleFunc("/is_ancestor/{ancestor}/{descendant}", s.handleIsAncestor).Methods("GET")
	repo.HandleFunc("/list/{changeset}/{path:.*}", s.handleList).Methods("GET")
	repo.HandleFunc("/blob/{hash}", s.handleBlob).Methods("GET")
	repo.HandleFunc("/tree/{hash}", s.handleTree).Methods("GET")
	repo.HandleFunc("/changeset/{hash}", s.handleChangeset).Methods("GET")

	repo.HandleFunc("/objects/batch", s.handleLFSBatch).Methods("POST")
	repo.HandleFunc("/lfs/download/{oid}", s.handleLFSDownload).Methods("GET")
	repo.HandleFunc("/lfs/upload/{oid}", s.handleLFSUpload).Methods("PUT")

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("I_AM_ALIVE"))
}
