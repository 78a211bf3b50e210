// Package json wraps github.com/goccy/go-json with pooled encode buffers.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/lae/pkg/pool"
)

var buffers = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// GetBuffer gets a buffer from the pool
func GetBuffer() *bytes.Buffer {
	return buffers.Get()
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	// oversized buffers are left to the GC
	if buf.Cap() > 1<<20 {
		return
	}
	buffers.Put(buf)
}

// Marshal is gojson.Marshal.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is gojson.Unmarshal.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Encode renders v as one JSON document terminated by a newline, indented by
// two spaces when indent is set. The returned slice is owned by the caller.
func Encode(v interface{}, indent bool) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := MarshalToWriter(buf, v, indent); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// MarshalToWriter encodes v directly to w.
func MarshalToWriter(w io.Writer, v interface{}, indent bool) error {
	enc := gojson.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// NewDecoder returns a decoder that rejects unknown object fields.
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec
}

// RawMessage is a raw encoded JSON value.
type RawMessage = gojson.RawMessage
