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

package bundle2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WritePart(Part{Type: "changegroup", Mandatory: true, Params: map[string]string{"version": "02"}, Payload: []byte("hello")})
	w.WritePart(Part{Type: "pushkey", Mandatory: false, Payload: nil})
	data := w.Bytes()

	r := NewReader(data)
	require.NoError(t, r.ReadStreamHeader())

	p1, ok, err := r.ReadPart()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "changegroup", p1.Type)
	assert.True(t, p1.Mandatory)
	assert.Equal(t, "02", p1.Params["version"])
	assert.Equal(t, []byte("hello"), p1.Payload)

	p2, ok, err := r.ReadPart()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pushkey", p2.Type)
	assert.False(t, p2.Mandatory)
	assert.Empty(t, p2.Payload)

	_, ok, err = r.ReadPart()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, r.AtEnd())
}

func TestReaderRejectsBadMagic(t *testing.T) {
	r := NewReader([]byte("XXXX"))
	err := r.ReadStreamHeader()
	assert.Error(t, err)
}

func TestReaderRejectsTruncatedStream(t *testing.T) {
	w := NewWriter()
	w.WritePart(Part{Type: "changegroup", Mandatory: true})
	data := w.Bytes()

	r := NewReader(data[:len(data)-3])
	require.NoError(t, r.ReadStreamHeader())
	_, _, err := r.ReadPart()
	assert.Error(t, err)
}

func TestReplyBundleSuccessAndError(t *testing.T) {
	ok := ReplyBundle(nil, "")
	r := NewReader(ok)
	require.NoError(t, r.ReadStreamHeader())
	p, has, err := r.ReadPart()
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, "reply:changegroup", p.Type)

	failed := ReplyBundle(errBlobAlreadyProvided("abc"), "")
	r2 := NewReader(failed)
	require.NoError(t, r2.ReadStreamHeader())
	p2, has2, err := r2.ReadPart()
	require.NoError(t, err)
	require.True(t, has2)
	assert.Equal(t, "error:abort", p2.Type)
	assert.Contains(t, p2.Params["message"], "abc")
}
