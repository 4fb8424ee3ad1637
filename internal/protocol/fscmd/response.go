package fscmd

import (
	"encoding/binary"
	"errors"

	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
)

// ErrResponseFull is returned by appends that would advance the write
// cursor past the response's fixed capacity. The append writes nothing: a
// partially written fixed-width field would corrupt every field after it,
// so the builder refuses rather than truncates.
var ErrResponseFull = errors.New("fscmd: response capacity exceeded")

// Response is a bounded outbound frame under construction: an opcode field
// plus a payload buffer of fixed capacity. The write cursor advances
// monotonically; Remaining can be queried at any time, and previously
// written fields can be reserved as placeholders and patched in place once
// their final value is known (error codes and result lengths precede the
// variable payload in the wire layout but are only known after the
// operation resolves).
type Response struct {
	opcode Opcode
	buf    []byte
}

// NewResponse returns an empty response with the given payload capacity.
// The buffer is allocated once; appends never reallocate, so patch handles
// remain valid for the life of the response.
func NewResponse(capacity int) *Response {
	if capacity < 0 {
		capacity = 0
	}
	return &Response{buf: make([]byte, 0, capacity)}
}

// SetOpcode sets the response opcode. Handlers do this first, even on
// failure, so every response is correlatable with its request.
func (r *Response) SetOpcode(op Opcode) { r.opcode = op }

// Opcode returns the response opcode.
func (r *Response) Opcode() Opcode { return r.opcode }

// Len returns the number of payload bytes written so far.
func (r *Response) Len() int { return len(r.buf) }

// Remaining returns the unwritten payload capacity.
func (r *Response) Remaining() int { return cap(r.buf) - len(r.buf) }

// Bytes returns the payload written so far. The slice aliases the internal
// buffer and stays valid until the response is discarded.
func (r *Response) Bytes() []byte { return r.buf }

func (r *Response) ensure(n int) error {
	if r.Remaining() < n {
		return ErrResponseFull
	}
	return nil
}

// AppendUint8 appends one byte.
func (r *Response) AppendUint8(v uint8) error {
	if err := r.ensure(1); err != nil {
		return err
	}
	r.buf = codec.AppendUint8(r.buf, v)
	return nil
}

// AppendUint16 appends a little-endian u16.
func (r *Response) AppendUint16(v uint16) error {
	if err := r.ensure(2); err != nil {
		return err
	}
	r.buf = codec.AppendUint16(r.buf, v)
	return nil
}

// AppendUint32 appends a little-endian u32.
func (r *Response) AppendUint32(v uint32) error {
	if err := r.ensure(4); err != nil {
		return err
	}
	r.buf = codec.AppendUint32(r.buf, v)
	return nil
}

// AppendBytes appends a counted byte run.
func (r *Response) AppendBytes(data []byte) error {
	if err := r.ensure(len(data)); err != nil {
		return err
	}
	r.buf = codec.AppendBytes(r.buf, data)
	return nil
}

// AppendString appends a NUL-terminated string.
func (r *Response) AppendString(s string) error {
	if err := r.ensure(codec.StringSize(s)); err != nil {
		return err
	}
	r.buf = codec.AppendString(r.buf, s)
	return nil
}

// ByteField is a patch handle for a reserved one-byte field. It addresses
// the response buffer by offset, never by raw pointer, so a patch can never
// write outside the bytes it reserved.
type ByteField struct {
	resp *Response
	off  int
}

// Set overwrites the reserved byte in place.
func (f ByteField) Set(v uint8) {
	f.resp.buf[f.off] = v
}

// Uint32Field is a patch handle for a reserved little-endian u32 field.
type Uint32Field struct {
	resp *Response
	off  int
}

// Set overwrites the reserved u32 in place.
func (f Uint32Field) Set(v uint32) {
	binary.LittleEndian.PutUint32(f.resp.buf[f.off:f.off+4], v)
}

// ReserveUint8 writes a zero placeholder byte, advances the cursor, and
// returns a handle for patching the final value later.
func (r *Response) ReserveUint8() (ByteField, error) {
	off := len(r.buf)
	if err := r.AppendUint8(0); err != nil {
		return ByteField{}, err
	}
	return ByteField{resp: r, off: off}, nil
}

// ReserveUint32 writes a four-byte zero placeholder, advances the cursor,
// and returns a handle for patching the final value later.
func (r *Response) ReserveUint32() (Uint32Field, error) {
	off := len(r.buf)
	if err := r.AppendUint32(0); err != nil {
		return Uint32Field{}, err
	}
	return Uint32Field{resp: r, off: off}, nil
}
