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

package cache

import (
	"context"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Real is the production Cache backend: a byte-size-bounded LRU pool.
// Eviction is plain least-recently-used with no guarantee that an evicted
// key's recomputation won't itself be evicted again.
type Real struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, entry]
	maxBytes int
	curBytes int

	group singleflight.Group
}

// NewReal builds a Real cache bounded by maxBytes of encoded value size.
// maxBytes <= 0 means unbounded.
func NewReal(maxBytes int) *Real {
	r := &Real{maxBytes: maxBytes}
	l, err := lru.NewWithEvict[string, entry](math.MaxInt-1, r.onEvict)
	if err != nil {
		panic(err)
	}
	r.lru = l
	return r
}

func (r *Real) onEvict(_ string, e entry) {
	r.curBytes -= e.size
}

func (r *Real) GetOrFill(ctx context.Context, key string, compute ComputeFunc) (Value, error) {
	r.mu.Lock()
	if e, ok := r.lru.Get(key); ok {
		r.mu.Unlock()
		return e.value, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		r.mu.Lock()
		if e, ok := r.lru.Get(key); ok {
			r.mu.Unlock()
			return e.value, nil
		}
		r.mu.Unlock()

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		size := len(value.Encode())
		r.mu.Lock()
		r.lru.Add(key, entry{value: value, size: size})
		r.curBytes += size
		if r.maxBytes > 0 {
			for r.curBytes > r.maxBytes {
				if _, _, ok := r.lru.RemoveOldest(); !ok {
					break
				}
			}
		}
		r.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Value), nil
}

// Len reports the number of entries currently cached, for tests and
// operational introspection.
func (r *Real) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// Bytes reports the current total encoded size of cached entries.
func (r *Real) Bytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.curBytes
}
