// Package codec implements the packed wire encoding used by the filesystem
// command protocol.
//
// All integers are fixed-width and little-endian; this is a contract across
// two independently built ends (the host toolchain and this server), so it
// is fixed here rather than left to host byte order. Strings are
// NUL-terminated; byte runs are counted externally by a preceding length
// field. There is no alignment and no padding.
//
// Decoding never reads past the end of the input: every read is
// bounds-checked up front and fails with ErrTruncated, so a malformed or
// hostile frame degrades into an error, never into undefined behavior.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ErrTruncated is returned when a decode would read past the end of the
// input. A missing string terminator counts as truncation: the terminator
// the decoder was promised is past the end of the frame.
var ErrTruncated = errRequired("truncated input")

type errRequired string

func (e errRequired) Error() string { return "codec: " + string(e) }

// Decoder reads typed values from a request payload.
//
// The cursor advances monotonically by exactly the width consumed and never
// rewinds. Decoded byte runs and strings are views into the original input;
// they stay valid only as long as the input does, and must not be retained
// past the handler invocation.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Offset returns the current cursor position.
func (d *Decoder) Offset() int { return d.off }

func (d *Decoder) need(n int) error {
	if d.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, d.Remaining())
	}
	return nil
}

// Uint8 decodes one byte.
func (d *Decoder) Uint8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

// Uint16 decodes a little-endian u16.
func (d *Decoder) Uint16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

// Uint32 decodes a little-endian u32.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

// Bytes decodes a counted run of n bytes and returns a view into the input.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("codec: negative byte count %d", n)
	}
	if err := d.need(n); err != nil {
		return nil, err
	}
	v := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return v, nil
}

// String decodes a NUL-terminated string, consuming the terminator. The
// returned string is a copy, so it is safe to retain.
func (d *Decoder) String() (string, error) {
	i := bytes.IndexByte(d.buf[d.off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string", ErrTruncated)
	}
	v := string(d.buf[d.off : d.off+i])
	d.off += i + 1
	return v, nil
}
