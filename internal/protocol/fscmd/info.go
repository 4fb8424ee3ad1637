package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
)

// infoResponseSize is the fixed response payload: u32 total + u32 used.
const infoResponseSize = 8

// handleInfo reports filesystem occupancy, snapshotted at call time.
//
// Request:  no payload
// Response: u32 totalBytes, u32 usedBytes
func (h *Handler) handleInfo(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())

	if resp.Remaining() < infoResponseSize {
		logger.Warn("INFO: response frame too small: need %d, have %d",
			infoResponseSize, resp.Remaining())
		return ErrNone
	}

	usage, err := h.fs.Stats()
	if err != nil {
		// INFO has no error field; a zeroed snapshot is the only
		// well-formed failure shape.
		logger.Warn("INFO failed: %v", err)
		usage.TotalBytes = 0
		usage.UsedBytes = 0
	}

	// Capacity was checked above; these cannot fail.
	_ = resp.AppendUint32(usage.TotalBytes)
	_ = resp.AppendUint32(usage.UsedBytes)

	logger.Debug("INFO: total=%d used=%d", usage.TotalBytes, usage.UsedBytes)
	return ErrNone
}
