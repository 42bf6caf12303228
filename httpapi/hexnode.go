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

package httpapi

import (
	"encoding/hex"

	"github.com/mononoke-go/mononoke/store/hash"
)

// parseHexNode decodes a 40-char hex node id from a URL path segment, the
// same convention wireproto.parseHexNode uses for the wire protocol's
// hex-encoded changeset/filenode ids (hash.Hash.String() is base32, used
// internally, never on a wire-facing surface).
func parseHexNode(s string) (hash.Hash, bool) {
	if len(s) != 40 {
		return hash.Hash{}, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return hash.Hash{}, false
	}
	var h hash.Hash
	copy(h[:], b)
	return h, true
}

func hexNode(h hash.Hash) string {
	return hex.EncodeToString(h.Bytes())
}
