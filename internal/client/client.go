// Package client implements the host side of the command protocol. It
// drives the same frames a device firmware would, which makes it both
// the engine behind mcufsctl and the integration harness for the server.
package client

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
)

// DefaultMaxPacketSize mirrors the server default.
const DefaultMaxPacketSize = 512

const frameHeaderSize = 3

// Client is a synchronous protocol client. One request is in flight at
// a time, matching the strict request/response framing of the wire.
type Client struct {
	conn      net.Conn
	maxPacket int
	timeout   time.Duration
}

// Options configures a Client.
type Options struct {
	// MaxPacketSize caps frames in either direction. Zero selects
	// DefaultMaxPacketSize. It must match the server's setting.
	MaxPacketSize int

	// Timeout bounds each request/response exchange. Zero disables it.
	Timeout time.Duration
}

// Dial connects to a server.
func Dial(addr string, opts Options) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	maxPacket := opts.MaxPacketSize
	if maxPacket == 0 {
		maxPacket = DefaultMaxPacketSize
	}
	return &Client{conn: conn, maxPacket: maxPacket, timeout: opts.Timeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends one request frame and reads one response frame. The
// response opcode must echo the request's.
func (c *Client) roundTrip(op fscmd.Opcode, payload []byte) (*codec.Decoder, error) {
	if frameHeaderSize+len(payload) > c.maxPacket {
		return nil, fmt.Errorf("client: %s payload of %d bytes exceeds max packet size %d",
			op, len(payload), c.maxPacket)
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("client: set deadline: %w", err)
		}
	}

	frame := make([]byte, 0, frameHeaderSize+len(payload))
	frame = binary.LittleEndian.AppendUint16(frame, uint16(1+len(payload)))
	frame = append(frame, uint8(op))
	frame = append(frame, payload...)
	if _, err := c.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("client: write %s frame: %w", op, err)
	}

	var header [2]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, fmt.Errorf("client: read %s reply header: %w", op, err)
	}
	length := int(binary.LittleEndian.Uint16(header[:]))
	if length < 1 || length > c.maxPacket-2 {
		return nil, fmt.Errorf("client: %s reply length %d out of range", op, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("client: read %s reply body: %w", op, err)
	}

	if got := fscmd.Opcode(body[0]); got != op {
		return nil, fmt.Errorf("client: sent %s, got reply for %s", op, got)
	}
	return codec.NewDecoder(body[1:]), nil
}

// CommandError is a non-NONE result code reported by the server.
type CommandError struct {
	Op   fscmd.Opcode
	Code fscmd.ErrorCode
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Code)
}

// checkError consumes a leading error byte and converts failures into
// a CommandError.
func checkError(op fscmd.Opcode, d *codec.Decoder) error {
	code, err := d.Uint8()
	if err != nil {
		return fmt.Errorf("client: %s reply: %w", op, err)
	}
	if ec := fscmd.ErrorCode(code); ec != fscmd.ErrNone {
		return &CommandError{Op: op, Code: ec}
	}
	return nil
}
