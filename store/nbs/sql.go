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

package nbs

import (
	"context"

	"github.com/gocraft/dbr/v2"

	"github.com/mononoke-go/mononoke/store/ids"
)

type dataRow struct {
	Type  int32  `db:"type"`
	Value []byte `db:"value"`
}

// shardConn is the set of operations a Store needs against one of a
// shard's two pools (replica or master). The production implementation,
// dbrShardConn, runs one raw statement per call (insert data, insert
// chunk, select data, select presence, select chunk); a second,
// in-memory implementation (memShardConn, in test_utils.go) backs unit
// tests without a real database.
type shardConn interface {
	selectData(ctx context.Context, repo ids.RepoID, key string) (*dataRow, error)
	selectIsDataPresent(ctx context.Context, repo ids.RepoID, key string) (bool, error)
	selectChunk(ctx context.Context, repo ids.RepoID, key string, chunkID uint32) ([]byte, bool, error)
	insertData(ctx context.Context, repo ids.RepoID, key string, kind recordKind, value []byte) error
	insertChunk(ctx context.Context, repo ids.RepoID, key string, chunkID uint32, value []byte) error
}

// ShardPool holds the two connection pools for one shard: Replica, read
// first to spread load, and Master, the read-after-write-consistent
// fallback. Both point at the same two tables, `data` and `chunk`.
type ShardPool struct {
	Replica shardConn
	Master  shardConn
}

// NewSQLShardPool builds a ShardPool backed by real dbr connections,
// one per role, both pointed at the `data`/`chunk` tables.
func NewSQLShardPool(replica, master *dbr.Connection) *ShardPool {
	return &ShardPool{Replica: &dbrShardConn{replica}, Master: &dbrShardConn{master}}
}

// dbrShardConn is the dbr/v2-backed shardConn. Each call opens a
// lightweight dbr.Session (cheap: it does not itself open a connection,
// it borrows one from the pool lazily) and runs one raw SQL statement.
type dbrShardConn struct {
	conn *dbr.Connection
}

func (c *dbrShardConn) session() *dbr.Session { return c.conn.NewSession(nil) }

func (c *dbrShardConn) selectData(ctx context.Context, repo ids.RepoID, key string) (*dataRow, error) {
	var rows []dataRow
	_, err := c.session().SelectBySql(
		"SELECT type, value FROM data WHERE repo_id = ? AND id = ?", int32(repo), key,
	).LoadContext(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *dbrShardConn) selectIsDataPresent(ctx context.Context, repo ids.RepoID, key string) (bool, error) {
	var rows []int32
	_, err := c.session().SelectBySql(
		"SELECT 1 FROM data WHERE repo_id = ? AND id = ?", int32(repo), key,
	).LoadContext(ctx, &rows)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (c *dbrShardConn) selectChunk(ctx context.Context, repo ids.RepoID, key string, chunkID uint32) ([]byte, bool, error) {
	var rows [][]byte
	_, err := c.session().SelectBySql(
		"SELECT value FROM chunk WHERE repo_id = ? AND id = ? AND chunk_id = ?", int32(repo), key, chunkID,
	).LoadContext(ctx, &rows)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (c *dbrShardConn) insertData(ctx context.Context, repo ids.RepoID, key string, kind recordKind, value []byte) error {
	_, err := c.session().InsertBySql(
		"INSERT IGNORE INTO data (repo_id, id, type, value) VALUES (?, ?, ?, ?)",
		int32(repo), key, int32(kind), value,
	).ExecContext(ctx)
	return err
}

func (c *dbrShardConn) insertChunk(ctx context.Context, repo ids.RepoID, key string, chunkID uint32, value []byte) error {
	_, err := c.session().InsertBySql(
		"INSERT IGNORE INTO chunk (repo_id, id, chunk_id, value) VALUES (?, ?, ?, ?)",
		int32(repo), key, chunkID, value,
	).ExecContext(ctx)
	return err
}
