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

	"go.uber.org/zap"

	"github.com/mononoke-go/mononoke/bundle2"
	"github.com/mononoke-go/mononoke/httpapi"
	"github.com/mononoke-go/mononoke/store/cache"
	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/nbs"
	"github.com/mononoke-go/mononoke/store/refs"
	"github.com/mononoke-go/mononoke/wireproto"
)

// Build constructs every component from cfg and wires them into a
// Server: the sharded blob store behind a generation cache, the
// changeset/manifest model and its reachability index, bookmarks and
// phases, the wire-protocol engine and the bundle-resolver push path,
// fronted by the read-only HTTP API.
func Build(cfg Config, log *zap.Logger) (*Server, error) {
	repo := ids.RepoID(cfg.RepoID)
	var closers []func() error

	shardPools := make([]*nbs.ShardPool, len(cfg.Shards))
	for i, dsn := range cfg.Shards {
		replicaConn, err := nbs.OpenShardDB(cfg.Driver, dsn.Replica)
		if err != nil {
			return nil, fmt.Errorf("opening shard %d replica: %w", i, err)
		}
		if err := replicaConn.Ping(); err != nil {
			return nil, fmt.Errorf("pinging shard %d replica: %w", i, err)
		}
		closers = append(closers, replicaConn.Close)

		masterConn := replicaConn
		if dsn.Master != dsn.Replica {
			masterConn, err = nbs.OpenShardDB(cfg.Driver, dsn.Master)
			if err != nil {
				return nil, fmt.Errorf("opening shard %d master: %w", i, err)
			}
			if err := masterConn.Ping(); err != nil {
				return nil, fmt.Errorf("pinging shard %d master: %w", i, err)
			}
			closers = append(closers, masterConn.Close)
		}
		shardPools[i] = nbs.NewSQLShardPool(replicaConn, masterConn)
	}

	blobs, err := nbs.New(repo, shardPools, cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("building blob store: %w", err)
	}

	refsDB, err := refs.OpenDB(cfg.Driver, cfg.RefsDSN)
	if err != nil {
		return nil, fmt.Errorf("opening refs connection: %w", err)
	}
	if err := refsDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging refs connection: %w", err)
	}
	closers = append(closers, refsDB.Close)

	gens := cache.NewReal(cfg.CacheBytes)
	changesets := datas.NewStore(blobs, gens)
	reach := datas.NewGenerationBFS(changesets)

	refsStore := refs.NewStore(repo, refs.NewSQLConn(refsDB), changesets)
	heads := wireproto.BookmarkHeadsProvider{Bookmarks: refsStore}

	engine := wireproto.NewEngine(repo, changesets, reach, refsStore, refsStore, blobs, heads, log)
	engine.LFSThreshold = cfg.LFSThreshold

	resolver := bundle2.NewResolver(blobs, changesets, refsStore, refsStore)

	httpSrv := httpapi.NewServer(repo, changesets, reach, blobs, log)
	router := httpapi.NewRouter(httpSrv)

	return &Server{
		Engine:   engine,
		Resolver: resolver,
		Router:   router,
		closers:  closers,
	}, nil
}
