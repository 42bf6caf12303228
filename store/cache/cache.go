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

// Package cache implements a get-or-fill cache over derived values keyed
// by (repo_id, content_hash), with at-most-one-concurrent-compute-per-key
// coalescing.
package cache

import (
	"context"
)

// Value is a cached entry. Callers supply their own type implementing
// Encode, and a matching decode function where they read entries back:
// the value type owns its own serialization.
type Value interface {
	Encode() []byte
}

// ComputeFunc produces the value for key when it is absent from the cache.
type ComputeFunc func(ctx context.Context) (Value, error)

// Cache is the contract shared by the Real and Mock backends.
type Cache interface {
	// GetOrFill returns the cached value for key, computing and storing
	// it via compute if absent. Concurrent calls for the same key that
	// arrive while a fill is already in flight share its result instead
	// of recomputing; if compute fails, the error is returned to every
	// waiter and nothing is cached.
	GetOrFill(ctx context.Context, key string, compute ComputeFunc) (Value, error)
}

// entry is the byte-size-accounted unit stored in the Real backend's LRU.
type entry struct {
	value Value
	size  int
}
