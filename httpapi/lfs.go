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
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mononoke-go/mononoke/mverrors"
)

// lfsBatchRequest is the minimal subset of the LFS batch API's JSON body
// this server needs: the object list, keyed by content oid/size. The
// actual object transfer handlers are thin pass-throughs to the blob
// store; there is no "upload"/"download"/"verify" action negotiation
// beyond a single fixed URL shape.
type lfsBatchRequest struct {
	Operation string         `json:"operation"`
	Objects   []lfsObjectRef `json:"objects"`
}

type lfsObjectRef struct {
	Oid  string `json:"oid"`
	Size int64  `json:"size"`
}

type lfsBatchResponse struct {
	Objects []lfsBatchObject `json:"objects"`
}

type lfsBatchObject struct {
	Oid     string             `json:"oid"`
	Size    int64              `json:"size"`
	Actions map[string]lfsLink `json:"actions"`
}

type lfsLink struct {
	Href string `json:"href"`
}

// handleLFSBatch answers an LFS batch request with direct download/upload
// links under this server's own /lfs/{download|upload}/{oid} routes.
func (s *Server) handleLFSBatch(w http.ResponseWriter, r *http.Request) {
	var req lfsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed LFS batch request")
		return
	}
	repo := mux.Vars(r)["repo"]

	resp := lfsBatchResponse{Objects: make([]lfsBatchObject, 0, len(req.Objects))}
	for _, obj := range req.Objects {
		action := "download"
		if req.Operation == "upload" {
			action = "upload"
		}
		resp.Objects = append(resp.Objects, lfsBatchObject{
			Oid:  obj.Oid,
			Size: obj.Size,
			Actions: map[string]lfsLink{
				action: {Href: "/" + repo + "/lfs/" + action + "/" + obj.Oid},
			},
		})
	}
	writeJSON(w, resp)
}

// handleLFSDownload streams an LFS object's content straight from the
// blob store, addressed by oid.
func (s *Server) handleLFSDownload(w http.ResponseWriter, r *http.Request) {
	oid := mux.Vars(r)["oid"]
	content, found, err := s.Blobs.Get(r.Context(), "lfs:"+oid)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, mverrors.NewNotFound("httpapi.handleLFSDownload", "LFS object", oid))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(content)
}

// handleLFSUpload stores an LFS object's content straight to the blob
// store, addressed by oid.
func (s *Server) handleLFSUpload(w http.ResponseWriter, r *http.Request) {
	oid := mux.Vars(r)["oid"]
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, "failed to read request body")
		return
	}
	if err := s.Blobs.Put(r.Context(), "lfs:"+oid, body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
