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
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mononoke-go/mononoke/mverrors"
)

// DefaultTimeout is the wall-clock budget for every command except
// getfiles.
const DefaultTimeout = 15 * time.Minute

// GetFilesTimeout is getfiles's wall-clock budget, longer because it
// streams remotefilelog history and data for potentially large file sets.
const GetFilesTimeout = 90 * time.Minute

// withTimeout runs fn under a context bounded by d, translating context
// deadline exceeded into mverrors.Timeout. A command that times out
// leaves no partial state: every write the command could have made goes
// through the blob store's idempotent Put or a bookmark CAS, so a
// cancelled command simply abandons in-flight work rather than leaving a
// torn write.
func withTimeout(ctx context.Context, op string, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return mverrors.Wrap(mverrors.Timeout, op, ctx.Err())
	}
	return err
}

// withTimeout is Engine's bound version of the package-level helper: it
// additionally logs DataCorruption errors at Error level with their full
// {path, expected, actual} triple before they propagate. Corruption is
// always fatal; the triple must reach the log even when the client only
// sees a protocol error.
func (e *Engine) withTimeout(ctx context.Context, op string, d time.Duration, fn func(ctx context.Context) error) error {
	err := withTimeout(ctx, op, d, fn)
	if err == nil {
		return nil
	}
	var mvErr *mverrors.Error
	if errors.As(err, &mvErr) && mvErr.Kind == mverrors.DataCorruption && mvErr.Corruption != nil {
		log := e.Log
		if log == nil {
			log = zap.NewNop()
		}
		log.Error("data corruption",
			zap.String("op", op),
			zap.String("path", mvErr.Corruption.Path),
			zap.String("expected", mvErr.Corruption.Expected),
			zap.String("actual", mvErr.Corruption.Actual),
			zap.Error(err),
		)
	}
	return err
}
