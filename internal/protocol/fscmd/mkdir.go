package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/pkg/fs"
)

// handleMkdir creates a directory.
//
// Request:  str dirName
// Response: u8 error
func (h *Handler) handleMkdir(req *Request, resp *Response) ErrorCode {
	return h.handlePathOp(req, resp, "MKDIR", ErrMkdirFailed, h.fs.Mkdir)
}

// handleRmdir removes an empty directory.
//
// Request:  str dirName
// Response: u8 error
func (h *Handler) handleRmdir(req *Request, resp *Response) ErrorCode {
	return h.handlePathOp(req, resp, "RMDIR", ErrRmdirFailed, h.fs.Rmdir)
}

// handleRemove removes a file.
//
// Request:  str fileName
// Response: u8 error
func (h *Handler) handleRemove(req *Request, resp *Response) ErrorCode {
	return h.handlePathOp(req, resp, "REMOVE", ErrRemoveFailed, h.fs.Remove)
}

// handlePathOp is the shared shape of the single-path commands: decode one
// string argument, run the operation, answer one error byte.
func (h *Handler) handlePathOp(req *Request, resp *Response, name string, failure ErrorCode, op func(string) error) ErrorCode {
	resp.SetOpcode(req.Opcode())

	finish := func(code ErrorCode) ErrorCode {
		if err := resp.AppendUint8(uint8(code)); err != nil {
			logger.Error("%s: response frame too small for error byte: %v", name, err)
		}
		return code
	}

	arg, err := req.Decoder().String()
	if err != nil {
		logger.Warn("%s: bad request: %v", name, err)
		return finish(failure)
	}

	path, err := fs.CleanPath(arg)
	if err != nil {
		logger.Warn("%s: rejected path %q: %v", name, arg, err)
		return finish(failure)
	}

	if err := op(path); err != nil {
		logger.Warn("%s failed: path=%q error=%v", name, path, err)
		return finish(failure)
	}

	logger.Info("%s: path=%q", name, path)
	return finish(ErrNone)
}
