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
	"encoding/hex"

	"github.com/mononoke-go/mononoke/store/hash"
)

// hexNode renders h as the 40-character lowercase hex string Mercurial's
// wire protocol uses for node ids. store/hash.Hash.String() uses a
// base32 text form for internal logging/keying; the wire protocol needs
// hex specifically, so wireproto keeps its own conversion rather than
// reusing Hash.String() for anything client-facing.
func hexNode(h hash.Hash) string {
	return hex.EncodeToString(h.Bytes())
}

// parseHexNode decodes a 40-character hex node id, as sent by a client in
// known/between/gettreepack parameters.
func parseHexNode(s string) (hash.Hash, bool) {
	if len(s) != hash.ByteLen*2 {
		return hash.Hash{}, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return hash.Hash{}, false
	}
	return hash.New(b), true
}
