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
	"sync"

	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

// memRefConn is an in-memory refConn, the same test-double idiom used by
// store/nbs's memShardConn and store/datas's memBlobStore.
type memRefConn struct {
	mu        sync.Mutex
	bookmarks map[string]hash.Hash
	phases    map[ids.ChangesetId]Phase
}

func newMemRefConn() *memRefConn {
	return &memRefConn{
		bookmarks: map[string]hash.Hash{},
		phases:    map[ids.ChangesetId]Phase{},
	}
}

func (m *memRefConn) listBookmarks(_ context.Context, _ ids.RepoID) (map[string]hash.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]hash.Hash, len(m.bookmarks))
	for k, v := range m.bookmarks {
		out[k] = v
	}
	return out, nil
}

func (m *memRefConn) getBookmark(_ context.Context, _ ids.RepoID, name string) (hash.Hash, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.bookmarks[name]
	return h, ok, nil
}

func (m *memRefConn) casBookmark(_ context.Context, _ ids.RepoID, name string, oldTarget, newTarget hash.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.bookmarks[name]
	if oldTarget.IsEmpty() {
		if exists {
			return false, nil
		}
		m.bookmarks[name] = newTarget
		return true, nil
	}
	if !exists || current != oldTarget {
		return false, nil
	}
	m.bookmarks[name] = newTarget
	return true, nil
}

func (m *memRefConn) getPhase(_ context.Context, _ ids.RepoID, cs ids.ChangesetId) (Phase, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.phases[cs]
	return p, ok, nil
}

func (m *memRefConn) setPhase(_ context.Context, _ ids.RepoID, cs ids.ChangesetId, phase Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases[cs] = phase
	return nil
}
