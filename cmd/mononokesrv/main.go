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

// Command mononokesrv wires the storage, DAG and wire-protocol
// components into a runnable process exposing the read-only HTTP surface
// (httpapi). The Mercurial wire-protocol transport itself (SSH/Thrift
// framing of hello/between/getbundle/unbundle etc.) is an external
// collaborator named only by contract, the same way blobimport and
// hook-manager policy are, so this binary does not open a listener for
// it; wireproto.Engine and bundle2.Resolver are constructed and held
// ready for an external dispatcher to drive.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mononoke-go/mononoke/bundle2"
	"github.com/mononoke-go/mononoke/store/nbs"
	"github.com/mononoke-go/mononoke/wireproto"
)

var (
	repoID       = flag.Int("repo", 1, "repository id served by this process")
	driver       = flag.String("driver", "mysql", "database/sql driver name for shard and refs connections")
	shardDSNs    = flag.String("shards", "", "comma-separated shard DSNs, replica=master per shard (bare dsn if they share a connection)")
	refsDSN      = flag.String("refs-dsn", "", "DSN for the bookmark/phase connection pool")
	chunkSize    = flag.Int("chunk-size", nbs.DefaultChunkSize, "byte size of each chunk row")
	cacheBytes   = flag.Int("cache-bytes", 64<<20, "byte budget of the generation-number cache")
	httpAddr     = flag.String("http-addr", ":8080", "listen address for the read-only HTTP API")
	lfsThreshold = flag.Int64("lfs-threshold", 10<<20, "getfiles byte threshold above which content is served as an LFS pointer")
	devMode      = flag.Bool("dev", false, "use human-readable development logging instead of structured production logging")
)

func main() {
	flag.Parse()

	shards, err := ParseShardDSNs(*shardDSNs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mononokesrv:", err)
		os.Exit(2)
	}
	if *refsDSN == "" {
		fmt.Fprintln(os.Stderr, "mononokesrv: -refs-dsn is required")
		os.Exit(2)
	}
	cfg := Config{
		RepoID:       int32(*repoID),
		Driver:       *driver,
		Shards:       shards,
		RefsDSN:      *refsDSN,
		ChunkSize:    *chunkSize,
		CacheBytes:   *cacheBytes,
		HTTPAddr:     *httpAddr,
		LFSThreshold: *lfsThreshold,
	}

	log, err := newLogger(*devMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mononokesrv: building logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := Build(cfg, log)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Router}
	go func() {
		log.Info("serving HTTP API", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server exited", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Server is the fully wired process: the storage, DAG, wire-protocol
// and push-path components plus the httpapi router that exposes the
// read-only surface.
type Server struct {
	Engine   *wireproto.Engine
	Resolver *bundle2.Resolver
	Router   http.Handler
	closers  []func() error
}

// Close releases every SQL connection pool this Server opened.
func (s *Server) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
