package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/pkg/fs"
)

// handleWriteAppend serves both WRITE (truncate) and APPEND; the two
// commands differ only in open mode.
//
// Request:  str fileName, u32 length, bytes data[length]
// Response: u8 error
//
// The handler writes exactly length bytes and fails with WRITE_FAILED if
// the backend accepts fewer. No partial-write recovery is attempted; a
// short write is terminal for the call and the host decides whether to
// retry the whole command.
func (h *Handler) handleWriteAppend(mode fs.OpenMode, req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())

	finish := func(code ErrorCode) ErrorCode {
		if err := resp.AppendUint8(uint8(code)); err != nil {
			logger.Error("%s: response frame too small for error byte: %v", req.Opcode(), err)
		}
		return code
	}

	dec := req.Decoder()
	fileName, err := dec.String()
	if err != nil {
		logger.Warn("%s: bad request: %v", req.Opcode(), err)
		return finish(ErrWriteFailed)
	}
	length, err := dec.Uint32()
	if err != nil {
		logger.Warn("%s: bad request: %v", req.Opcode(), err)
		return finish(ErrWriteFailed)
	}
	data, err := dec.Bytes(int(length))
	if err != nil {
		logger.Warn("%s: bad request: declared %d data bytes, %v", req.Opcode(), length, err)
		return finish(ErrWriteFailed)
	}

	path, err := fs.CleanPath(fileName)
	if err != nil {
		logger.Warn("%s: rejected path %q: %v", req.Opcode(), fileName, err)
		return finish(ErrUnableToOpenFile)
	}

	file, err := h.fs.Open(path, mode)
	if err != nil {
		logger.Warn("%s failed: unable to open file=%q error=%v", req.Opcode(), path, err)
		return finish(ErrUnableToOpenFile)
	}

	n, err := file.Write(data)
	if err != nil || n != len(data) {
		logger.Warn("%s failed: file=%q wrote %d of %d bytes error=%v",
			req.Opcode(), path, n, len(data), err)
		file.Close()
		return finish(ErrWriteFailed)
	}

	// Buffered backends flush on Close; a close failure means the bytes
	// never became durable.
	if err := file.Close(); err != nil {
		logger.Warn("%s failed: close file=%q error=%v", req.Opcode(), path, err)
		return finish(ErrWriteFailed)
	}

	logger.Info("%s: file=%q bytes=%d", req.Opcode(), path, n)
	return finish(ErrNone)
}
