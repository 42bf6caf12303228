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
	"bytes"
	"context"
	"fmt"
)

// shallowFile is one of the two changelog files stream_out_shallow
// serves.
type shallowFile struct {
	name   string
	chunks [][]byte
}

// StreamOutShallow emits a changelog streaming-clone response: a header
// ("0\n", then "<file_count> <total_size>\n"), then each file framed as
// "<name>\0<size>\n" followed by its byte stream. Each file's chunks are
// fetched with up to BoundedFanOut concurrent chunk-fetches.
func (e *Engine) StreamOutShallow(ctx context.Context) ([]byte, error) {
	var out []byte
	err := e.withTimeout(ctx, "wireproto.StreamOutShallow", DefaultTimeout, func(ctx context.Context) error {
		indexKeys, err := e.changelogChunkKeys(ctx, "00changelog.i")
		if err != nil {
			return err
		}
		dataKeys, err := e.changelogChunkKeys(ctx, "00changelog.d")
		if err != nil {
			return err
		}

		indexChunks, err := e.fetchChunks(ctx, indexKeys)
		if err != nil {
			return err
		}
		dataChunks, err := e.fetchChunks(ctx, dataKeys)
		if err != nil {
			return err
		}

		files := []shallowFile{
			{name: "00changelog.i", chunks: indexChunks},
			{name: "00changelog.d", chunks: dataChunks},
		}

		var buf bytes.Buffer
		buf.WriteString("0\n")

		var totalSize int64
		for _, f := range files {
			for _, c := range f.chunks {
				totalSize += int64(len(c))
			}
		}
		fmt.Fprintf(&buf, "%d %d\n", len(files), totalSize)

		for _, f := range files {
			size := 0
			for _, c := range f.chunks {
				size += len(c)
			}
			fmt.Fprintf(&buf, "%s\x00%d\n", f.name, size)
			for _, c := range f.chunks {
				buf.Write(c)
			}
		}
		out = buf.Bytes()
		return nil
	})
	return out, err
}

// changelogChunkKeys looks up how many pre-chunked blob-store keys back a
// changelog file, keyed "<name>:chunk:<n>" with a sentinel ":meta" key
// holding the chunk count. Persisting changelog bytes pre-chunked,
// rather than as one oversized value, is what gives the fan-out here
// multiple fetches to run concurrently.
func (e *Engine) changelogChunkKeys(ctx context.Context, name string) ([]string, error) {
	meta, ok, err := e.Blobs.Get(ctx, name+":meta")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	n := decodeChunkCount(meta)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("%s:chunk:%d", name, i)
	}
	return keys, nil
}

func (e *Engine) fetchChunks(ctx context.Context, keys []string) ([][]byte, error) {
	return fanOut(ctx, len(keys), BoundedFanOut, func(ctx context.Context, i int) ([]byte, error) {
		v, _, err := e.Blobs.Get(ctx, keys[i])
		return v, err
	})
}

func decodeChunkCount(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
