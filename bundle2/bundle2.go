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

// Package bundle2 implements Mercurial's bundle2 framing (reader and
// writer) and the push-path Bundle Resolver.
//
// A bundle2 stream is: a 4-byte magic/version header, then a stream-level
// params blob, then a sequence of parts, then a terminating zero-length
// part header. Each part is: a type-name length-prefixed string, a part
// id, a mandatory/advisory params blob, and a payload framed as a
// sequence of length-prefixed chunks terminated by a zero-length chunk.
// This package implements a compact, self-consistent subset of that
// framing sufficient for the commands this server speaks, not a
// byte-for-byte reproduction of every historical bundle2 quirk.
package bundle2

import "github.com/google/uuid"

// NewPushID allocates an opaque identifier for one push (one Unbundle
// call), used to correlate a push's log lines and its reply part across
// a client/server round trip, the same role google/uuid plays for
// opaque identifiers elsewhere in the stack.
func NewPushID() string {
	return uuid.New().String()
}

// Part is one part of a bundle2 stream: a changegroup, a bookmark
// listkeys reply, a phase-heads listing, a treepack, or a push-path part
// (changegroup, b2x:treegroup2, pushkey, b2x:infinitepush, b2x:rebase,
// replycaps).
type Part struct {
	Type      string
	ID        uint32
	Params    map[string]string
	Mandatory bool
	Payload   []byte
}

// mandatoryParts are bundle2 part types this resolver understands and
// must process; any other mandatory part aborts the unbundle.
var mandatoryParts = map[string]bool{
	"changegroup":      true,
	"b2x:treegroup2":   true,
	"pushkey":          true,
	"b2x:infinitepush": true,
	"b2x:rebase":       true,
	"replycaps":        true,
}

// Known reports whether partType is a part this package knows how to
// drain, irrespective of whether a given stream carries it as mandatory
// or advisory.
func Known(partType string) bool {
	return mandatoryParts[partType]
}
