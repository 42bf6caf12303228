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

// Package hash provides the 20-byte content-addressing identifier shared by
// every object in the system: changesets, manifests, filenodes and blob
// store keys are all, at the lowest level, a Hash.
package hash

import (
	"bytes"
	"crypto/sha512"
	"encoding/base32"
)

// ByteLen is the width of a Hash: a SHA-1-class 20-byte digest.
const ByteLen = 20

// StringLen is the length of a Hash's textual (base32) form.
const StringLen = 32

var encoding = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

var emptyHash = Hash{}

// Hash is a content-addressing digest. The zero value is the "null hash"
// used by Mercurial to mean "no parent" / "no commit".
type Hash [ByteLen]byte

// Of computes the Hash of data. The digest is the leading ByteLen bytes
// of SHA-512, which benchmarks faster than SHA-1 on 64-bit hardware
// while staying in the standard library.
func Of(data []byte) Hash {
	sum := sha512.Sum512(data)
	var h Hash
	copy(h[:], sum[:ByteLen])
	return h
}

// New constructs a Hash directly from a 20-byte slice. Panics if
// len(b) != ByteLen.
func New(b []byte) Hash {
	if len(b) != ByteLen {
		panic("hash: wrong byte length")
	}
	var h Hash
	copy(h[:], b)
	return h
}

// Parse decodes a base32 string into a Hash, panicking on malformed input.
// Use MaybeParse at any boundary that receives untrusted input (wire
// protocol, SQL rows).
func Parse(s string) Hash {
	h, ok := MaybeParse(s)
	if !ok {
		panic("hash: invalid string " + s)
	}
	return h
}

// MaybeParse decodes a base32 string into a Hash, returning false rather
// than panicking when s is not a valid, correctly-sized digest.
func MaybeParse(s string) (Hash, bool) {
	if len(s) != StringLen {
		return emptyHash, false
	}
	b, err := encoding.DecodeString(s)
	if err != nil || len(b) != ByteLen {
		return emptyHash, false
	}
	var h Hash
	copy(h[:], b)
	return h, true
}

func (h Hash) String() string {
	return encoding.EncodeToString(h[:])
}

// Bytes returns the digest as a freshly allocated slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, ByteLen)
	copy(b, h[:])
	return b
}

// IsEmpty reports whether h is the null hash (Mercurial's "no parent").
func (h Hash) IsEmpty() bool {
	return h == emptyHash
}

// Less reports whether h sorts before other in byte order.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// Compare returns -1, 0 or 1, the conventional three-way comparison.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}
