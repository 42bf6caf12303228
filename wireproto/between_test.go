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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/store/datas"
	"github.com/mononoke-go/mononoke/store/hash"
	"github.com/mononoke-go/mononoke/store/ids"
)

func commitID(n int) ids.ChangesetId {
	return ids.ChangesetIdFromHash(hash.Of([]byte(fmt.Sprintf("between-c%d", n))))
}

// linearChain builds c1..c20, each first-parented to the one before it,
// c1 being a root with no parents.
func linearChain(cs *fakeChangesets) {
	var parent ids.ChangesetId
	for i := 1; i <= 20; i++ {
		id := commitID(i)
		var parents []ids.ChangesetId
		if i > 1 {
			parents = []ids.ChangesetId{parent}
		}
		cs.put(id, datas.Changeset{Author: "a", Parents: parents}, int64(i))
		parent = id
	}
}

// TestBetweenTwentyCommitChain: between(c20, c0) over a 20-commit
// chain must yield [c20, c19, c17, c13, c5]: the doubling-counter
// sequence (chain indices 0, 1, 3, 7, 15), not a binary-search midpoint
// sequence.
func TestBetweenTwentyCommitChain(t *testing.T) {
	cs := newFakeChangesets()
	linearChain(cs)
	e := newTestEngine(cs, nil, nil)

	result, err := e.Between(context.Background(), []BetweenPair{
		{Top: commitID(20), Bottom: ids.ChangesetId{}},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)

	want := []ids.ChangesetId{commitID(20), commitID(19), commitID(17), commitID(13), commitID(5)}
	assert.Equal(t, want, result[0])
}

func TestPowersOfTwoWalk(t *testing.T) {
	assert.Equal(t, []int{0}, powersOfTwoWalk(1))
	assert.Equal(t, []int(nil), powersOfTwoWalk(0))
	assert.Equal(t, []int{0, 1, 3, 7, 15}, powersOfTwoWalk(20))
}

func TestBetweenStopsAtBottom(t *testing.T) {
	cs := newFakeChangesets()
	linearChain(cs)
	e := newTestEngine(cs, nil, nil)

	result, err := e.Between(context.Background(), []BetweenPair{
		{Top: commitID(5), Bottom: commitID(1)},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	// chain = [c5, c4, c3, c2, c1], length 5 -> indices [0, 1, 3]
	want := []ids.ChangesetId{commitID(5), commitID(4), commitID(2)}
	assert.Equal(t, want, result[0])
}
