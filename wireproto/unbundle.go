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

	"github.com/mononoke-go/mononoke/bundle2"
	"github.com/mononoke-go/mononoke/mverrors"
)

// PushUnitBuilder drains a raw bundle2 stream into a bundle2.PushUnit.
// Interpreting changegroup/b2x:treegroup2/pushkey/b2x:infinitepush/
// b2x:rebase/replycaps part payloads is named here only by contract,
// the same way blobimport and hook-manager policy are: the concrete
// wire encoding of those parts belongs to Mercurial's bundle2
// part-payload conventions, not to this core.
type PushUnitBuilder interface {
	Build(ctx context.Context, parts []bundle2.Part) (bundle2.PushUnit, error)
}

// Unbundle drives the push path: if the repo is read-only it fails fast;
// otherwise it parses the bundle2 stream, drains its parts into a
// PushUnit, and runs it through the Bundle Resolver, returning the
// reply-bundle bytes.
func (e *Engine) Unbundle(ctx context.Context, stream []byte, resolver *bundle2.Resolver, builder PushUnitBuilder) ([]byte, error) {
	const op = "wireproto.Unbundle"
	var reply []byte
	err := e.withTimeout(ctx, op, DefaultTimeout, func(ctx context.Context) error {
		if e.ReadOnly != nil && e.ReadOnly.ReadOnly() {
			return mverrors.Wrap(mverrors.ReadOnly, op, errReadOnlyRepo)
		}

		r := bundle2.NewReader(stream)
		if err := r.ReadStreamHeader(); err != nil {
			return err
		}

		var parts []bundle2.Part
		for {
			p, ok, err := r.ReadPart()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !bundle2.Known(p.Type) {
				if p.Mandatory {
					return mverrors.Wrap(mverrors.ProtocolViolation, op, errUnknownMandatoryPart(p.Type))
				}
				continue // unknown advisory parts are skipped
			}
			parts = append(parts, p)
		}

		unit, err := builder.Build(ctx, parts)
		if err != nil {
			reply = bundle2.ReplyBundle(err, "")
			return err
		}

		pushID, err := resolver.Unbundle(ctx, unit)
		if err != nil {
			reply = bundle2.ReplyBundle(err, pushID)
			return err
		}
		reply = bundle2.ReplyBundle(nil, pushID)
		return nil
	})
	if reply == nil {
		reply = bundle2.ReplyBundle(err, "")
	}
	return reply, err
}

type readOnlyErr struct{}

func (readOnlyErr) Error() string { return "repository is read-only" }

var errReadOnlyRepo = readOnlyErr{}

type unknownMandatoryPartErr struct{ partType string }

func (e unknownMandatoryPartErr) Error() string {
	return "unknown mandatory part: " + e.partType
}

func errUnknownMandatoryPart(partType string) error {
	return unknownMandatoryPartErr{partType: partType}
}
