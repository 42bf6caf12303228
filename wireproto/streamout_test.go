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
)

func seedChangelogFile(t *testing.T, e *Engine, name string, chunks ...[]byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Blobs.Put(ctx, name+":meta", []byte(fmt.Sprintf("%d", len(chunks)))))
	for i, c := range chunks {
		require.NoError(t, e.Blobs.Put(ctx, fmt.Sprintf("%s:chunk:%d", name, i), c))
	}
}

func TestStreamOutShallowFrames(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)
	seedChangelogFile(t, e, "00changelog.i", []byte("IDX1"), []byte("IDX2"))
	seedChangelogFile(t, e, "00changelog.d", []byte("DATA"))

	out, err := e.StreamOutShallow(context.Background())
	require.NoError(t, err)

	want := "0\n" +
		"2 12\n" +
		"00changelog.i\x008\n" + "IDX1IDX2" +
		"00changelog.d\x004\n" + "DATA"
	assert.Equal(t, want, string(out))
}

func TestStreamOutShallowEmptyChangelog(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	out, err := e.StreamOutShallow(context.Background())
	require.NoError(t, err)

	want := "0\n" +
		"2 0\n" +
		"00changelog.i\x000\n" +
		"00changelog.d\x000\n"
	assert.Equal(t, want, string(out))
}
