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
	"encoding/binary"
	"io"

	"github.com/mononoke-go/mononoke/mverrors"
)

// readerState names the parse state machine:
// Idle -> ReadStreamHeader -> [ReadPartHeader -> ReadPartPayload]* -> End.
type readerState int

const (
	stateIdle readerState = iota
	stateStreamHeader
	statePartHeader
	statePartPayload
	stateEnd
)

// Reader parses a bundle2 byte stream one part at a time.
type Reader struct {
	data  []byte
	pos   int
	state readerState
}

// NewReader constructs a Reader over a complete bundle2 byte stream.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, state: stateIdle}
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, mverrors.Wrap(mverrors.ProtocolViolation, "bundle2.Reader", io.ErrUnexpectedEOF)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) readU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) readU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) readKV() (map[string]string, error) {
	count, err := r.readU8()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	out := make(map[string]string, count)
	for i := 0; i < int(count); i++ {
		klen, err := r.readU8()
		if err != nil {
			return nil, err
		}
		vlen, err := r.readU8()
		if err != nil {
			return nil, err
		}
		kb, err := r.take(int(klen))
		if err != nil {
			return nil, err
		}
		vb, err := r.take(int(vlen))
		if err != nil {
			return nil, err
		}
		out[string(kb)] = string(vb)
	}
	return out, nil
}

// ReadStreamHeader consumes the stream's magic header and top-level
// params. Must be called exactly once, before the first ReadPart.
func (r *Reader) ReadStreamHeader() error {
	const op = "bundle2.ReadStreamHeader"
	if r.state != stateIdle {
		return mverrors.Wrap(mverrors.ProtocolViolation, op, errWrongState)
	}
	hdr, err := r.take(len(magic))
	if err != nil {
		return err
	}
	if string(hdr) != magic {
		return mverrors.NewCorruption(op, "stream.magic", magic, string(hdr))
	}
	if _, err := r.readKV(); err != nil { // mandatory stream params
		return err
	}
	if _, err := r.readKV(); err != nil { // advisory stream params
		return err
	}
	r.state = statePartHeader
	return nil
}

// ReadPart consumes the next part's header and full payload, or returns
// (Part{}, false, nil) at the terminating zero-length part header (the
// End state).
func (r *Reader) ReadPart() (Part, bool, error) {
	const op = "bundle2.ReadPart"
	if r.state != statePartHeader && r.state != statePartPayload {
		return Part{}, false, mverrors.Wrap(mverrors.ProtocolViolation, op, errWrongState)
	}
	r.state = statePartHeader

	typeLen, err := r.readU8()
	if err != nil {
		return Part{}, false, err
	}
	if typeLen == 0 {
		r.state = stateEnd
		return Part{}, false, nil
	}
	typeBytes, err := r.take(int(typeLen))
	if err != nil {
		return Part{}, false, err
	}
	id, err := r.readU32()
	if err != nil {
		return Part{}, false, err
	}
	mandatoryFlag, err := r.readU8()
	if err != nil {
		return Part{}, false, err
	}
	params, err := r.readKV()
	if err != nil {
		return Part{}, false, err
	}

	r.state = statePartPayload
	payload, err := r.readPayload()
	if err != nil {
		return Part{}, false, err
	}
	r.state = statePartHeader

	return Part{Type: string(typeBytes), ID: id, Params: params, Mandatory: mandatoryFlag != 0, Payload: payload}, true, nil
}

// readPayload consumes one or more length-prefixed chunks until the
// zero-length terminator, concatenating them into a single payload.
func (r *Reader) readPayload() ([]byte, error) {
	var out []byte
	for {
		n, err := r.readU32()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		chunk, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}

// AtEnd reports whether the reader has consumed the terminating part
// header.
func (r *Reader) AtEnd() bool { return r.state == stateEnd }

type wrongStateErr struct{}

func (wrongStateErr) Error() string { return "bundle2: ReadPart/ReadStreamHeader called out of order" }

var errWrongState = wrongStateErr{}
