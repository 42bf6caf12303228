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

package wireproto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
	"github.com/mononoke-go/mononoke/store/refs"
)

func TestKnownEmptyInputReturnsEmptySlice(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	result, err := e.Known(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestKnownFiltersByPublicPhase(t *testing.T) {
	cs := newFakeChangesets()
	public := ids.ChangesetIdFromHash(hash.Of([]byte("public")))
	draft := ids.ChangesetIdFromHash(hash.Of([]byte("draft")))
	missing := ids.ChangesetIdFromHash(hash.Of([]byte("missing")))
	cs.put(public, datas.Changeset{Author: "a"}, 1)
	cs.put(draft, datas.Changeset{Author: "b"}, 1)

	ph := &fakePhases{phases: map[ids.ChangesetId]refs.Phase{public: refs.Public, draft: refs.Draft}}
	e := newTestEngine(cs, nil, ph)

	result, err := e.Known(context.Background(), []ids.ChangesetId{public, draft, missing})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, result)
}

func TestKnownNodesIgnoresPhase(t *testing.T) {
	cs := newFakeChangesets()
	draft := ids.ChangesetIdFromHash(hash.Of([]byte("draft")))
	missing := ids.ChangesetIdFromHash(hash.Of([]byte("missing")))
	cs.put(draft, datas.Changeset{Author: "b"}, 1)
	e := newTestEngine(cs, nil, nil)

	result, err := e.KnownNodes(context.Background(), []ids.ChangesetId{draft, missing})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, result)
}
