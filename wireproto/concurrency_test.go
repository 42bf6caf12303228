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
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutPreservesOrder(t *testing.T) {
	results, err := fanOut(context.Background(), 50, 8, func(_ context.Context, i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestFanOutNeverExceedsLimit(t *testing.T) {
	var inFlight, maxSeen int64
	_, err := fanOut(context.Background(), 40, 5, func(_ context.Context, i int) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			m := atomic.LoadInt64(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt64(&maxSeen, m, n) {
				break
			}
		}
		atomic.AddInt64(&inFlight, -1)
		return i, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxSeen), int64(5))
}

func TestFanOutPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	_, err := fanOut(context.Background(), 10, 2, func(_ context.Context, i int) (int, error) {
		if i == 3 {
			return 0, sentinel
		}
		return i, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}
