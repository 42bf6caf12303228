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

// Package mverrors defines the typed error kinds that cross the
// wire-protocol boundary. Every fallible operation in the system returns
// (or wraps) one of these kinds so that the wire-protocol engine can
// translate it into a protocol-appropriate reply without string-sniffing
// error messages.
package mverrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for the purpose of wire-protocol translation.
type Kind int

const (
	// InvalidInput means the caller supplied a malformed argument.
	InvalidInput Kind = iota
	// NotFound means the requested object does not exist.
	NotFound
	// DataCorruption means stored data violates an invariant: a
	// corrupt InChunk header, a missing chunk, an out-of-range chunk
	// count. Always fatal.
	DataCorruption
	// Conflict means a compare-and-swap (bookmark update) lost a race.
	Conflict
	// ReadOnly means a write was attempted against a read-only repo.
	ReadOnly
	// Timeout means a command exceeded its wall-clock budget.
	Timeout
	// InternalIO means a retryable I/O error (SQL, network) occurred.
	InternalIO
	// ProtocolViolation means the client sent a malformed or
	// out-of-sequence wire-protocol message.
	ProtocolViolation
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case DataCorruption:
		return "DataCorruption"
	case Conflict:
		return "Conflict"
	case ReadOnly:
		return "ReadOnly"
	case Timeout:
		return "Timeout"
	case InternalIO:
		return "InternalIO"
	case ProtocolViolation:
		return "ProtocolViolation"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this system's packages. Op
// names the failing operation (e.g. "nbs.Get", "datas.QueryReachability")
// for logging; Err is the underlying cause, wrapped with
// github.com/pkg/errors so callers can still use errors.Cause/errors.Is.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	// NotFoundKind further classifies a NotFound error (e.g. "changeset",
	// "bookmark") for HTTP status mapping and logging.
	NotFoundKind string

	// Corruption carries the DataCorruption triple: the
	// storage path, what was expected, and what was found.
	Corruption *Corruption
}

// Corruption is the {path, expected, actual} triple attached to every
// DataCorruption error; it is logged in full before the error is
// serialized into a client-facing reply.
type Corruption struct {
	Path     string
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	if e.Corruption != nil {
		return fmt.Sprintf("%s: %s: path=%s expected=%s actual=%s: %v",
			e.Op, e.Kind, e.Corruption.Path, e.Corruption.Expected, e.Corruption.Actual, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error of the given kind, wrapping cause with
// pkg/errors so a stack trace is attached at the point of first failure.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(cause)}
}

// NewNotFound builds a NotFound error naming the kind of object missing
// (e.g. "changeset", "bookmark", "chunk").
func NewNotFound(op, objectKind, id string) error {
	return &Error{
		Kind:         NotFound,
		Op:           op,
		Err:          errors.Errorf("%s %q not found", objectKind, id),
		NotFoundKind: objectKind,
	}
}

// NewCorruption builds a DataCorruption error carrying the full
// {path, expected, actual} triple. The wire-protocol boundary logs the
// triple at Error level before the error is serialized into a reply.
func NewCorruption(op, path, expected, actual string) error {
	c := &Corruption{Path: path, Expected: expected, Actual: actual}
	return &Error{
		Kind:       DataCorruption,
		Op:         op,
		Err:        errors.Errorf("data corruption at %s", path),
		Corruption: c,
	}
}

// KindOf extracts the Kind of err, defaulting to InternalIO for errors
// that did not originate in this package (so unknown errors fail safe as
// retryable rather than being silently swallowed as NotFound).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalIO
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
