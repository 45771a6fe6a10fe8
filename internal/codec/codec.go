// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package codec implements the optional compression layer between the
// storage adapter and the structured values the statistics pipeline
// produces. It never inspects payload structure beyond what is needed
// to detect corruption on read.
//
// Design note: the source the spec was distilled from represents the
// compressed/uncompressed choice as a boolean flag alongside an
// interface{} payload, which makes "flag says uncompressed but payload
// is a byte buffer" a representable-but-invalid state. Decode instead
// returns a Payload, a small closed interface whose only implementation
// is unexported, so a caller can never construct a mismatched pair
// outside this package; a structural mismatch just yields ErrCorrupt.
package codec

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// ErrCorrupt is returned by Decode when the stored bytes do not match
// the claimed representation (transparent JSON that doesn't parse, or
// a compressed buffer without a valid gzip header). The engine treats
// ErrCorrupt as a self-invalidation trigger: delete the entry, report
// a miss.
var ErrCorrupt = errors.New("codec: stored payload does not match its encoding")

// Payload is the decoded form of a cache entry's data. Callers only
// ever obtain one from Decode, and only ever read it through Raw.
type Payload interface {
	// Raw returns the decoded JSON document.
	Raw() json.RawMessage
	// isPayload is unexported so Payload cannot be implemented outside
	// this package — the sum type the design note asks for.
	isPayload()
}

type structuredPayload struct {
	raw json.RawMessage
}

func (p structuredPayload) Raw() json.RawMessage { return p.raw }
func (structuredPayload) isPayload()              {}

var _ Payload = structuredPayload{}

// Encode serializes v to its wire form. When compress is true the
// JSON document is gzipped with klauspost/compress (a drop-in,
// SIMD-accelerated replacement for compress/gzip already present in
// this module's dependency graph via BadgerDB) and the returned bytes
// are opaque; when false the returned bytes are the JSON document
// itself. ObjectSize is always the length of the uncompressed JSON,
// per spec — it is an observability figure, not a storage figure.
func Encode(v interface{}, compress bool) (data []byte, objectSize int64, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, 0, err
	}
	objectSize = int64(len(raw))

	if !compress {
		return raw, objectSize, nil
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return nil, 0, err
	}
	if err := gw.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), objectSize, nil
}

// Decode reverses Encode. The compressed flag selects the read path;
// any structural mismatch between the flag and the stored bytes
// yields ErrCorrupt rather than a panic or a silently wrong value.
func Decode(data []byte, compressed bool) (Payload, error) {
	if !compressed {
		if !json.Valid(data) {
			return nil, ErrCorrupt
		}
		return structuredPayload{raw: json.RawMessage(data)}, nil
	}

	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, ErrCorrupt
	}
	if !json.Valid(raw) {
		return nil, ErrCorrupt
	}
	return structuredPayload{raw: json.RawMessage(raw)}, nil
}

// Unmarshal decodes a Payload's raw JSON into v. Convenience wrapper
// so callers rarely need to reach for goccy/go-json directly.
func Unmarshal(p Payload, v interface{}) error {
	return json.Unmarshal(p.Raw(), v)
}
