package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
)

// handleFormat erases the filesystem.
//
// Request:  no payload
// Response: u8 error
func (h *Handler) handleFormat(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())

	result := ErrNone
	if err := h.fs.Format(); err != nil {
		logger.Warn("FORMAT failed: %v", err)
		result = ErrFormatFailed
	} else {
		logger.Info("FORMAT: filesystem erased")
	}

	if err := resp.AppendUint8(uint8(result)); err != nil {
		logger.Error("FORMAT: response frame too small for error byte: %v", err)
	}
	return result
}
