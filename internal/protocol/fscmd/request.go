package fscmd

import "github.com/mcufs/mcufs/internal/protocol/fscmd/codec"

// Request is a read-only view of one inbound frame: an opcode plus its
// payload bytes. The payload is never mutated; handlers read it through a
// codec.Decoder whose cursor advances monotonically.
type Request struct {
	opcode  Opcode
	payload []byte
}

// NewRequest wraps an inbound frame. The payload is retained by reference;
// the transport must not reuse the backing array until the handler returns.
func NewRequest(opcode Opcode, payload []byte) *Request {
	return &Request{opcode: opcode, payload: payload}
}

// Opcode returns the command identifier.
func (r *Request) Opcode() Opcode { return r.opcode }

// Payload returns the raw argument bytes.
func (r *Request) Payload() []byte { return r.payload }

// Decoder returns a fresh decoder positioned at the start of the payload.
func (r *Request) Decoder() *codec.Decoder {
	return codec.NewDecoder(r.payload)
}
