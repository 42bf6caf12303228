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
	"net/url"
	"strings"
)

// bundle2SubCaps are the bundle2 sub-capabilities advertised in Hello's
// "bundle2" value. "listkeys" is deliberately absent: that forces
// clients to fetch bookmarks before discovery, avoiding a race where a
// bookmark moves forward between discovery and bundle generation and
// ends up pointing at a commit the client never requested.
var bundle2SubCaps = []string{
	"HG20",
	"changegroup=01,02",
	"b2x:infinitepush",
	"pushkey",
	"phases=heads",
}

// Hello returns the capability mapping a client receives on connection.
func (e *Engine) Hello(ctx context.Context) map[string]string {
	return map[string]string{
		"bundle2":      EncodeBundle2Caps(bundle2SubCaps),
		"lookup":       "",
		"known":        "",
		"getbundle":    "",
		"gettreepack":  "",
		"remotefilelog": "",
		"pushkey":      "",
		"treeonly":     "",
		"knownnodes":   "",
		"streamreqs":   "generaldelta,lz4revlog,revlogv1",
	}
}

// EncodeBundle2Caps builds the bundle2 capability string: each entry
// percent-encoded, joined with a literal newline, matching Mercurial's own
// bundle2caps() encoding so a real hg client can decode it byte-for-byte.
func EncodeBundle2Caps(caps []string) string {
	encoded := make([]string, len(caps))
	for i, c := range caps {
		encoded[i] = url.QueryEscape(c)
	}
	return strings.Join(encoded, "\n")
}

// DecodeBundle2Caps reverses EncodeBundle2Caps, for tests and for parsing
// a client's own bundlecaps argument.
func DecodeBundle2Caps(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "\n")
	out := make([]string, len(parts))
	for i, p := range parts {
		dec, err := url.QueryUnescape(p)
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}
