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

package main

import (
	"fmt"
	"strings"
)

// ShardDSN is one shard's pair of connection strings. Replica and Master
// may be identical (a single MySQL instance with no read replica); they
// are two fields because store/nbs.ShardPool always keeps them separate.
type ShardDSN struct {
	Replica string
	Master  string
}

// Config is the programmatically-supplied topology every component is
// built from: a plain struct, no file format of its own. Loading it
// from a file, beyond the handful of flags wired in main.go, belongs to
// a real deployment's config loader, named only by contract the same
// way blobimport and hook-manager policy are.
type Config struct {
	RepoID       int32
	Driver       string
	Shards       []ShardDSN
	RefsDSN      string
	ChunkSize    int
	CacheBytes   int
	HTTPAddr     string
	LFSThreshold int64
}

// ParseShardDSNs splits a "-shards" flag value of the form
// "replica1=master1,replica2=master2" (or bare "dsn" when replica and
// master share a connection) into one ShardDSN per shard.
func ParseShardDSNs(raw string) ([]ShardDSN, error) {
	if raw == "" {
		return nil, fmt.Errorf("at least one shard DSN is required")
	}
	var out []ShardDSN
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.Index(part, "="); i >= 0 {
			out = append(out, ShardDSN{Replica: part[:i], Master: part[i+1:]})
		} else {
			out = append(out, ShardDSN{Replica: part, Master: part})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one shard DSN is required")
	}
	return out, nil
}
