package fscmd

import (
	"github.com/mcufs/mcufs/pkg/fs"
	"github.com/mcufs/mcufs/pkg/metrics"
)

// PacketHandler is one command family sharing the transport. The transport
// holds a fixed list of handlers and offers each inbound frame to them in
// order; the first to return true owns the exchange.
type PacketHandler interface {
	// TryHandle processes the request if its opcode belongs to this
	// family and returns true. For foreign opcodes it returns false
	// without touching the response. TryHandle never fails: all
	// command-level failure is encoded into the response payload.
	TryHandle(req *Request, resp *Response) bool
}

// Handler implements the filesystem command family (opcodes 0x40-0x4A)
// against a pkg/fs backend.
//
// Handlers are stateless across calls: the LIST cursor and the READ offset
// are caller-supplied and re-validated on every call, so a lossy or
// restart-prone transport needs no session recovery. The only state is the
// filesystem itself.
type Handler struct {
	fs      fs.Filesystem
	metrics metrics.CommandMetrics
}

// NewHandler creates the filesystem command handler.
//
// Panics if filesystem is nil (programmer error). A nil m disables
// command metrics.
func NewHandler(filesystem fs.Filesystem, m metrics.CommandMetrics) *Handler {
	if filesystem == nil {
		panic("fscmd: filesystem cannot be nil")
	}
	if m == nil {
		m = metrics.NewNoopCommandMetrics()
	}
	return &Handler{fs: filesystem, metrics: m}
}

// TryHandle dispatches by opcode. The mapping is fixed at startup; there is
// no runtime registration.
func (h *Handler) TryHandle(req *Request, resp *Response) bool {
	var result ErrorCode

	switch req.Opcode() {
	case OpFormat:
		result = h.handleFormat(req, resp)
	case OpInfo:
		result = h.handleInfo(req, resp)
	case OpList:
		result = h.handleList(req, resp)
	case OpMkdir:
		result = h.handleMkdir(req, resp)
	case OpRemove:
		result = h.handleRemove(req, resp)
	case OpRename:
		result = h.handleRename(req, resp)
	case OpCopy:
		result = h.handleCopy(req, resp)
	case OpRead:
		result = h.handleRead(req, resp)
	case OpWrite:
		result = h.handleWriteAppend(fs.ModeWrite, req, resp)
	case OpAppend:
		result = h.handleWriteAppend(fs.ModeAppend, req, resp)
	case OpRmdir:
		result = h.handleRmdir(req, resp)
	default:
		return false
	}

	h.metrics.ObserveCommand(req.Opcode().String(), result.String())
	return true
}
