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
	"sync"

	"golang.org/x/sync/singleflight"
)

// Mock is an unbounded Cache for tests, with a get-count probe so tests
// can assert how many fills a scenario performed.
type Mock struct {
	mu       sync.Mutex
	values   map[string]Value
	getCount int

	group singleflight.Group
}

func NewMock() *Mock {
	return &Mock{values: map[string]Value{}}
}

func (m *Mock) GetOrFill(ctx context.Context, key string, compute ComputeFunc) (Value, error) {
	m.mu.Lock()
	m.getCount++
	if v, ok := m.values[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		if v, ok := m.values[key]; ok {
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.values[key] = value
		m.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Value), nil
}

// GetCount returns the number of GetOrFill calls observed so far,
// including those served from cache.
func (m *Mock) GetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCount
}

// Len reports the number of distinct keys currently cached.
func (m *Mock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
