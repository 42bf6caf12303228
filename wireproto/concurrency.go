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

	"golang.org/x/sync/errgroup"
)

// BoundedFanOut is the fan-out bound every streaming command uses:
// getfiles, getpackv1 and stream_out_shallow each keep at most 100
// storage fetches in flight.
const BoundedFanOut = 100

// fanOut runs work(i) for i in [0, n) with at most limit concurrently in
// flight, collecting each result in order. When one call returns an
// error, the context handed to the remaining calls is cancelled (calls
// not yet started are still launched, with that cancelled context), and
// fanOut returns the first error.
func fanOut[T any](ctx context.Context, n, limit int, work func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if limit <= 0 {
		limit = BoundedFanOut
	}
	out := make([]T, n)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			v, err := work(egCtx, i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
