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

// Package refs implements bookmarks (named, CAS-updated pointers to
// changesets) and phases (Public/Draft, Public absorbing).
//
// Schema:
//
//	CREATE TABLE bookmark (
//	    repo_id INT NOT NULL,
//	    name    VARBINARY(512) NOT NULL,
//	    target  BINARY(20) NOT NULL,
//	    PRIMARY KEY (repo_id, name)
//	);
//
//	CREATE TABLE phase (
//	    repo_id       INT NOT NULL,
//	    changeset_id  BINARY(20) NOT NULL,
//	    phase         TINYINT NOT NULL, -- 0 = Draft, 1 = Public
//	    PRIMARY KEY (repo_id, changeset_id)
//	);
//
// Both tables are small relative to the blob store's data/chunk tables
// and are not sharded: one bookmark or phase row per (repo, name) /
// (repo, changeset) pair, read and written through a single connection
// pool rather than store/nbs's sharded ShardPool.
package refs
