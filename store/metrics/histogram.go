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

// Package metrics provides lightweight, allocation-free sampling
// histograms used to report ambient operational numbers (blob sizes,
// command latencies, reachability BFS layer widths) without pulling in a
// full metrics stack; metrics export belongs to the surrounding service,
// not this core.
package metrics

import (
	"fmt"
	"math/bits"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const numBuckets = 64

// Histogram is a power-of-two bucketed sampling histogram: sample i falls
// into bucket floor(log2(i)), so Sum/Mean are exact while the bucket
// distribution is approximate. Zero value is ready to use.
type Histogram struct {
	buckets [numBuckets]uint64
	sum     uint64
	samples uint64
}

func (h *Histogram) bucketVal(bucket int) uint64 {
	return uint64(1) << uint(bucket)
}

func (h *Histogram) bucketIndex(v uint64) int {
	if v == 0 {
		return 0
	}
	return bits.Len64(v) - 1
}

// Sample records one observation. Safe for concurrent use; the three
// counters are updated independently, so a reader racing a Sample may see
// a sum without its sample count, which is acceptable for reporting.
func (h *Histogram) Sample(v uint64) {
	atomic.AddUint64(&h.buckets[h.bucketIndex(v)], 1)
	atomic.AddUint64(&h.sum, v)
	atomic.AddUint64(&h.samples, 1)
}

// Samples returns the number of observations recorded.
func (h *Histogram) Samples() uint64 { return h.samples }

// Sum returns the exact sum of all observations.
func (h *Histogram) Sum() uint64 { return h.sum }

// Mean returns Sum()/Samples(), or 0 if there are no samples.
func (h *Histogram) Mean() uint64 {
	if h.samples == 0 {
		return 0
	}
	return h.sum / h.samples
}

// Add merges o's observations into h.
func (h *Histogram) Add(o Histogram) {
	for i := range h.buckets {
		atomic.AddUint64(&h.buckets[i], o.buckets[i])
	}
	atomic.AddUint64(&h.sum, o.sum)
	atomic.AddUint64(&h.samples, o.samples)
}

func (h *Histogram) String() string {
	return fmt.Sprintf("Mean: %d, Sum: %d, Samples: %d", h.Mean(), h.Sum(), h.Samples())
}

// TimeHistogram is a Histogram whose values are interpreted as
// nanoseconds and rendered as durations.
type TimeHistogram struct {
	Histogram
}

func NewTimeHistogram() TimeHistogram { return TimeHistogram{} }

func (th TimeHistogram) String() string {
	return fmt.Sprintf("Mean: %s, Sum: %s, Samples: %d",
		time.Duration(th.Mean()), time.Duration(th.Sum()), th.Samples())
}

// ByteHistogram is a Histogram whose values are interpreted as byte
// counts and rendered with a decimal (KB/MB/GB) unit.
type ByteHistogram struct {
	Histogram
}

func NewByteHistogram() ByteHistogram { return ByteHistogram{} }

func (bh ByteHistogram) String() string {
	mean := bh.Mean()
	var meanStr string
	if mean < 1000 {
		meanStr = fmt.Sprintf("%d", mean)
	} else {
		meanStr = humanize.Bytes(mean)
	}
	return fmt.Sprintf("Mean: %s, Sum: %s, Samples: %d", meanStr, humanize.Bytes(bh.Sum()), bh.Samples())
}
