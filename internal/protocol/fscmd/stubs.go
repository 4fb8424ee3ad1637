package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
)

// RENAME and COPY are declared opcodes without defined payloads yet. Their
// handlers claim the opcode so a composed handler chain does not misroute
// them, echo the opcode, and append nothing.

func (h *Handler) handleRename(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())
	logger.Debug("RENAME: unimplemented, echoing opcode")
	return ErrNone
}

func (h *Handler) handleCopy(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())
	logger.Debug("COPY: unimplemented, echoing opcode")
	return ErrNone
}
