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

	"github.com/mononoke-go/mononoke/store/ids"
)

// FileRequest is one (FileNodeId, path) pair getfiles/getpackv1 stream
// over.
type FileRequest struct {
	Node ids.FileNodeId
	Path ids.RepoPath
}

// FileBlob is one getfiles response entry: the filenode's ancestor
// history plus either the file's raw content, or, when content exceeds
// the LFS threshold, an LFS pointer in place of the bytes.
type FileBlob struct {
	Request      FileRequest
	History      []HistoryEntry
	Content      []byte // nil when IsLFSPointer
	IsLFSPointer bool
	LFSOid       string
	LFSSize      int64
}

// DefaultLFSThreshold is the byte size above which getfiles substitutes
// an LFS pointer for raw content, used when the Engine's LFSThreshold
// field is left at its zero value (zero means "unset", not "always
// pointer").
const DefaultLFSThreshold = 10 * 1024 * 1024

// GetFiles streams content and history for each requested (node, path)
// pair, keeping up to BoundedFanOut concurrent lookups in flight. The
// history is the node's ancestor chain in remotefilelog's encoding, the
// same records getpackv1 groups per path.
func (e *Engine) GetFiles(ctx context.Context, reqs []FileRequest) ([]FileBlob, error) {
	var out []FileBlob
	err := e.withTimeout(ctx, "wireproto.GetFiles", GetFilesTimeout, func(ctx context.Context) error {
		threshold := e.LFSThreshold
		if threshold <= 0 {
			threshold = DefaultLFSThreshold
		}

		results, err := fanOut(ctx, len(reqs), BoundedFanOut, func(ctx context.Context, i int) (FileBlob, error) {
			req := reqs[i]
			history, err := e.fileHistory(ctx, req.Path, req.Node)
			if err != nil {
				return FileBlob{}, err
			}
			content, _, err := e.Blobs.Get(ctx, fileContentKey(req.Node))
			if err != nil {
				return FileBlob{}, err
			}
			if int64(len(content)) > threshold {
				return FileBlob{
					Request:      req,
					History:      history,
					IsLFSPointer: true,
					LFSOid:       req.Node.String(),
					LFSSize:      int64(len(content)),
				}, nil
			}
			return FileBlob{Request: req, History: history, Content: content}, nil
		})
		if err != nil {
			return err
		}
		out = results
		return nil
	})
	return out, err
}

func fileContentKey(fn ids.FileNodeId) string {
	return fmt.Sprintf("content:%s", fn.String())
}
