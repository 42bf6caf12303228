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
	"bytes"
	"encoding/binary"
	"sort"
)

// magic is the bundle2 stream's fixed 4-byte header ("HG20" in the real
// protocol); kept as a named constant since it is part of the on-wire
// contract every client parses first.
const magic = "HG20"

// Writer builds a bundle2 byte stream. Compression is never applied
// (disabled due to an upstream client bug); a future compression
// negotiation point belongs in the capability exchange (Hello), not
// here.
type Writer struct {
	buf      bytes.Buffer
	nextPart uint32
	started  bool
}

// NewWriter constructs a Writer and immediately writes the stream header,
// mirroring the Idle -> ReadStreamHeader transition on the read side.
func NewWriter() *Writer {
	w := &Writer{}
	w.buf.WriteString(magic)
	writeParams(&w.buf, nil)
	w.started = true
	return w
}

// nextPartID allocates a part id unique within this bundle. Part ids are
// a framing detail of the stream itself (see NewPushID for the opaque,
// cross-request identifier a push is correlated by).
func (w *Writer) nextPartID() uint32 {
	w.nextPart++
	return w.nextPart
}

// WritePart appends one part (type, params, and payload chunked into a
// single chunk followed by the zero-length terminator) to the stream.
// The caller's Part.ID is ignored and replaced with a freshly allocated
// id, since ids are an implementation detail of the stream, not of the
// part's semantic content.
func (w *Writer) WritePart(p Part) {
	id := w.nextPartID()
	writeLenPrefixedString(&w.buf, p.Type)
	binary.Write(&w.buf, binary.BigEndian, id)
	if p.Mandatory {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
	writeKV(&w.buf, p.Params)

	if len(p.Payload) > 0 {
		writeChunk(&w.buf, p.Payload)
	}
	writeChunk(&w.buf, nil) // zero-length terminator
}

// Bytes finalizes the stream (writes the zero-length terminating part
// header) and returns the full encoded bundle.
func (w *Writer) Bytes() []byte {
	writeLenPrefixedString(&w.buf, "") // empty part type name: End
	return w.buf.Bytes()
}

// writeParams writes the stream-level mandatory/advisory param pair (this
// bundle2 subset never sets mandatory stream params, only part-level
// mandatory flags, so the mandatory half is always empty here).
func writeParams(buf *bytes.Buffer, params map[string]string) {
	writeKV(buf, nil)
	writeKV(buf, params)
}

func writeKV(buf *bytes.Buffer, kv map[string]string) {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic wire output, easier to test
	binary.Write(buf, binary.BigEndian, uint8(len(keys)))
	for _, k := range keys {
		v := kv[k]
		binary.Write(buf, binary.BigEndian, uint8(len(k)))
		binary.Write(buf, binary.BigEndian, uint8(len(v)))
		buf.WriteString(k)
		buf.WriteString(v)
	}
}

func writeLenPrefixedString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint8(len(s)))
	buf.WriteString(s)
}

func writeChunk(buf *bytes.Buffer, data []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
}
