// Package server accepts device connections over TCP and moves command
// frames between the wire and the packet handler chain.
//
// Wire frame, both directions:
//
//	Offset  Size  Field
//	==============================
//	0       2     length (opcode + payload), little-endian
//	2       1     opcode
//	3       n     payload
//
// Response payloads are built into a fixed buffer of MaxPacketSize minus
// the three header bytes, so a reply always fits in one frame.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/pkg/metrics"
)

// FrameHeaderSize is the per-frame overhead: the length prefix plus the
// opcode byte.
const FrameHeaderSize = 3

// DefaultMaxPacketSize caps frames when the configuration does not.
const DefaultMaxPacketSize = 512

// Options configures a Server.
type Options struct {
	// Listen is the TCP address to accept connections on.
	Listen string

	// MaxPacketSize caps the size of a frame in either direction. Zero
	// selects DefaultMaxPacketSize.
	MaxPacketSize int

	// Handlers is the chain tried in order for each request. The first
	// handler claiming the opcode produces the reply.
	Handlers []fscmd.PacketHandler

	// Metrics records connection and frame counts. Nil disables them.
	Metrics metrics.ServerMetrics
}

// Server is the TCP front end for the command protocol.
type Server struct {
	listen    string
	maxPacket int
	handlers  []fscmd.PacketHandler
	metrics   metrics.ServerMetrics

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server. It panics when no handlers are given; a server
// that can answer nothing is a programming error.
func New(opts Options) *Server {
	if len(opts.Handlers) == 0 {
		panic("server: at least one packet handler is required")
	}
	maxPacket := opts.MaxPacketSize
	if maxPacket == 0 {
		maxPacket = DefaultMaxPacketSize
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoopServerMetrics()
	}
	return &Server{
		listen:    opts.Listen,
		maxPacket: maxPacket,
		handlers:  opts.Handlers,
		metrics:   m,
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve listens and handles connections until the context is cancelled
// or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.Info("Listening on %s (max packet %d bytes)", listener.Addr(), s.maxPacket)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		tcpConn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
				logger.Debug("Error accepting connection: %v", err)
				continue
			}
		}

		c := s.newConn(tcpConn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.serve(ctx)
		}()
	}
}

// Stop closes the listener. In-flight connections finish their current
// request.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) newConn(tcpConn net.Conn) *conn {
	return &conn{server: s, conn: tcpConn}
}
