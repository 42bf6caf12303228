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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mononoke-go/mononoke/bundle2"
	"github.com/mononoke-go/mononoke/mverrors"
)

type fakeReadOnly bool

func (f fakeReadOnly) ReadOnly() bool { return bool(f) }

type fakePushUnitBuilder struct {
	seenParts []bundle2.Part
}

func (b *fakePushUnitBuilder) Build(_ context.Context, parts []bundle2.Part) (bundle2.PushUnit, error) {
	b.seenParts = parts
	return bundle2.PushUnit{}, nil
}

func emptyResolver() *bundle2.Resolver {
	return bundle2.NewResolver(newFakeBlobs(), nil, nil, nil)
}

func TestUnbundleFailsFastWhenReadOnly(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)
	e.ReadOnly = fakeReadOnly(true)

	stream := bundle2.NewWriter().Bytes()
	reply, err := e.Unbundle(context.Background(), stream, emptyResolver(), &fakePushUnitBuilder{})
	require.Error(t, err)
	assert.True(t, mverrors.Is(err, mverrors.ReadOnly))
	assert.NotEmpty(t, reply, "a reply bundle is produced even on failure")
}

func TestUnbundleAbortsOnUnknownMandatoryPart(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	w := bundle2.NewWriter()
	w.WritePart(bundle2.Part{Type: "frobnicate", Mandatory: true})
	builder := &fakePushUnitBuilder{}

	_, err := e.Unbundle(context.Background(), w.Bytes(), emptyResolver(), builder)
	require.Error(t, err)
	assert.True(t, mverrors.Is(err, mverrors.ProtocolViolation))
	assert.Nil(t, builder.seenParts, "builder is never invoked for an aborted stream")
}

func TestUnbundleSkipsUnknownAdvisoryPart(t *testing.T) {
	e := newTestEngine(newFakeChangesets(), nil, nil)

	w := bundle2.NewWriter()
	w.WritePart(bundle2.Part{Type: "frobnicate", Mandatory: false})
	w.WritePart(bundle2.Part{Type: "replycaps", Mandatory: true})
	builder := &fakePushUnitBuilder{}

	reply, err := e.Unbundle(context.Background(), w.Bytes(), emptyResolver(), builder)
	require.NoError(t, err)
	require.Len(t, builder.seenParts, 1, "the unknown advisory part is skipped, not fatal")
	assert.Equal(t, "replycaps", builder.seenParts[0].Type)

	r := bundle2.NewReader(reply)
	require.NoError(t, r.ReadStreamHeader())
	part, ok, err := r.ReadPart()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reply:changegroup", part.Type)
	assert.NotEmpty(t, part.Params["pushid"])
}
