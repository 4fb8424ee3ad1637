package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/internal/protocol/fscmd"
)

type conn struct {
	server *Server
	conn   net.Conn
}

func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()
	logger.Debug("New connection from %s", c.conn.RemoteAddr())

	c.server.metrics.ConnectionOpened()
	defer c.server.metrics.ConnectionClosed()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.handleFrame(); err != nil {
				if err != io.EOF {
					logger.Debug("Error handling frame from %s: %v", c.conn.RemoteAddr(), err)
				}
				return
			}
		}
	}
}

func (c *conn) handleFrame() error {
	req, err := c.readRequest()
	if err != nil {
		return err
	}

	resp := fscmd.NewResponse(c.server.maxPacket - FrameHeaderSize)
	for _, h := range c.server.handlers {
		if h.TryHandle(req, resp) {
			return c.writeResponse(resp)
		}
	}

	// Nothing claimed the opcode. Stay silent so an unrelated frame
	// cannot provoke a bogus reply.
	c.server.metrics.UnhandledFrame()
	logger.Debug("Unhandled opcode 0x%02x from %s", uint8(req.Opcode()), c.conn.RemoteAddr())
	return nil
}

func (c *conn) readRequest() (*fscmd.Request, error) {
	var header [2]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, err
	}

	length := int(binary.LittleEndian.Uint16(header[:]))
	if length < 1 {
		return nil, fmt.Errorf("frame length %d is smaller than the opcode byte", length)
	}
	if length > c.server.maxPacket-2 {
		return nil, fmt.Errorf("frame length %d exceeds max packet size %d", length, c.server.maxPacket)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	c.server.metrics.FrameRead(2 + length)

	return fscmd.NewRequest(fscmd.Opcode(body[0]), body[1:]), nil
}

func (c *conn) writeResponse(resp *fscmd.Response) error {
	payload := resp.Bytes()

	frame := make([]byte, 0, FrameHeaderSize+len(payload))
	frame = binary.LittleEndian.AppendUint16(frame, uint16(1+len(payload)))
	frame = append(frame, uint8(resp.Opcode()))
	frame = append(frame, payload...)

	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	c.server.metrics.FrameWritten(len(frame))
	return nil
}
