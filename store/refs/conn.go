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

package refs

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

// refConn is the set of SQL operations Store needs, abstracted the same
// way store/nbs's shardConn is, so Store can be unit-tested against an
// in-memory fake (test_utils.go) instead of a real database.
type refConn interface {
	listBookmarks(ctx context.Context, repo ids.RepoID) (map[string]hash.Hash, error)
	getBookmark(ctx context.Context, repo ids.RepoID, name string) (hash.Hash, bool, error)
	// casBookmark sets name's target to newTarget iff its current target
	// equals oldTarget (oldTarget's zero value matches "does not exist").
	// Returns true on success.
	casBookmark(ctx context.Context, repo ids.RepoID, name string, oldTarget, newTarget hash.Hash) (bool, error)

	getPhase(ctx context.Context, repo ids.RepoID, cs ids.ChangesetId) (Phase, bool, error)
	setPhase(ctx context.Context, repo ids.RepoID, cs ids.ChangesetId, phase Phase) error
}

// OpenDB opens the bookmark/phase connection pool. Kept separate from
// nbs.OpenShardDB because refs rows are metadata, not sharded content,
// and live on a single unsharded pool.
func OpenDB(driver, dsn string) (*sqlx.DB, error) { return sqlx.Open(driver, dsn) }

// NewSQLConn builds a refConn backed by a real sqlx connection pool.
func NewSQLConn(db *sqlx.DB) refConn { return &sqlxRefConn{db} }

type sqlxRefConn struct {
	db *sqlx.DB
}

type bookmarkRow struct {
	Name   string `db:"name"`
	Target []byte `db:"target"`
}

func (c *sqlxRefConn) listBookmarks(ctx context.Context, repo ids.RepoID) (map[string]hash.Hash, error) {
	var rows []bookmarkRow
	err := c.db.SelectContext(ctx, &rows,
		"SELECT name, target FROM bookmark WHERE repo_id = ?", int32(repo),
	)
	if err != nil {
		return nil, err
	}
	out := make(map[string]hash.Hash, len(rows))
	for _, r := range rows {
		out[r.Name] = hash.New(r.Target)
	}
	return out, nil
}

func (c *sqlxRefConn) getBookmark(ctx context.Context, repo ids.RepoID, name string) (hash.Hash, bool, error) {
	var target []byte
	err := c.db.GetContext(ctx, &target,
		"SELECT target FROM bookmark WHERE repo_id = ? AND name = ?", int32(repo), name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return hash.Hash{}, false, nil
	}
	if err != nil {
		return hash.Hash{}, false, err
	}
	return hash.New(target), true, nil
}

func (c *sqlxRefConn) casBookmark(ctx context.Context, repo ids.RepoID, name string, oldTarget, newTarget hash.Hash) (bool, error) {
	if oldTarget.IsEmpty() {
		res, err := c.db.ExecContext(ctx,
			"INSERT IGNORE INTO bookmark (repo_id, name, target) VALUES (?, ?, ?)",
			int32(repo), name, newTarget.Bytes(),
		)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	}
	res, err := c.db.ExecContext(ctx,
		"UPDATE bookmark SET target = ? WHERE repo_id = ? AND name = ? AND target = ?",
		newTarget.Bytes(), int32(repo), name, oldTarget.Bytes(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c *sqlxRefConn) getPhase(ctx context.Context, repo ids.RepoID, cs ids.ChangesetId) (Phase, bool, error) {
	var phase int32
	err := c.db.GetContext(ctx, &phase,
		"SELECT phase FROM phase WHERE repo_id = ? AND changeset_id = ?", int32(repo), cs.AsHash().Bytes(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft, false, nil
	}
	if err != nil {
		return Draft, false, err
	}
	return Phase(phase), true, nil
}

func (c *sqlxRefConn) setPhase(ctx context.Context, repo ids.RepoID, cs ids.ChangesetId, phase Phase) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO phase (repo_id, changeset_id, phase) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE phase = VALUES(phase)",
		int32(repo), cs.AsHash().Bytes(), int32(phase),
	)
	return err
}
