package fscmd

import (
	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/pkg/fs"
)

// readHeaderSize is the fixed response prefix: u8 error, u32 offset,
// u32 actualLength.
const readHeaderSize = 1 + 4 + 4

// handleRead returns a window of a file selected by offset and length.
//
// Request:  str fileName, u32 offset, u32 length
// Response: u8 error, u32 offset, u32 actualLength, bytes data[actualLength]
//
// The error code and actual length precede the data on the wire but are
// only known after the read completes, so both are reserved as patchable
// placeholders and overwritten once the outcome is known. The offset is
// known up front and written directly.
//
// Failure policy, in order:
//  1. requested length exceeds remaining capacity: READ_FAILED, length 0,
//     and the file is never opened;
//  2. open fails: UNABLE_TO_OPEN_FILE;
//  3. seek fails: SEEK_FAILED;
//  4. otherwise read up to length bytes. A short read at end of file is
//     not an error: the patched length reflects the bytes actually read.
//
// Seeking at or past end of file is legal (pkg/fs contract), so a READ at
// EOF answers NONE with length 0. Every failure patches length to 0 and
// echoes the offset, keeping the frame well-formed.
func (h *Handler) handleRead(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())

	fail := func(code ErrorCode, offset uint32) ErrorCode {
		if resp.Remaining() < readHeaderSize {
			logger.Error("READ: response frame too small for header: have %d", resp.Remaining())
			return code
		}
		_ = resp.AppendUint8(uint8(code))
		_ = resp.AppendUint32(offset)
		_ = resp.AppendUint32(0)
		return code
	}

	dec := req.Decoder()
	fileName, err := dec.String()
	if err != nil {
		logger.Warn("READ: bad request: %v", err)
		return fail(ErrReadFailed, 0)
	}
	offset, err := dec.Uint32()
	if err != nil {
		logger.Warn("READ: bad request: %v", err)
		return fail(ErrReadFailed, 0)
	}
	length, err := dec.Uint32()
	if err != nil {
		logger.Warn("READ: bad request: %v", err)
		return fail(ErrReadFailed, offset)
	}

	path, err := fs.CleanPath(fileName)
	if err != nil {
		logger.Warn("READ: rejected path %q: %v", fileName, err)
		return fail(ErrUnableToOpenFile, offset)
	}

	if resp.Remaining() < readHeaderSize {
		logger.Error("READ: response frame too small for header: have %d", resp.Remaining())
		return ErrReadFailed
	}

	errField, _ := resp.ReserveUint8()
	_ = resp.AppendUint32(offset)
	lenField, _ := resp.ReserveUint32()

	// Capacity check comes before any filesystem work: a host that asks
	// for more than one frame can carry must be able to distinguish that
	// from a file-level failure, and no file may be opened for it.
	if int64(length) > int64(resp.Remaining()) {
		logger.Warn("READ failed: file=%q length=%d exceeds capacity %d",
			path, length, resp.Remaining())
		errField.Set(uint8(ErrReadFailed))
		return ErrReadFailed
	}

	file, err := h.fs.Open(path, fs.ModeRead)
	if err != nil {
		logger.Warn("READ failed: unable to open file=%q error=%v", path, err)
		errField.Set(uint8(ErrUnableToOpenFile))
		return ErrUnableToOpenFile
	}
	defer file.Close()

	if err := file.Seek(offset); err != nil {
		logger.Warn("READ failed: seek file=%q offset=%d error=%v", path, offset, err)
		errField.Set(uint8(ErrSeekFailed))
		return ErrSeekFailed
	}

	data := make([]byte, length)
	n, err := fs.ReadFull(file, data)
	if err != nil {
		logger.Warn("READ failed: file=%q offset=%d error=%v", path, offset, err)
		errField.Set(uint8(ErrReadFailed))
		return ErrReadFailed
	}

	// Cannot overflow: n <= length, and length fit the capacity check.
	_ = resp.AppendBytes(data[:n])
	lenField.Set(uint32(n))
	errField.Set(uint8(ErrNone))

	logger.Info("READ: file=%q offset=%d requested=%d returned=%d", path, offset, length, n)
	return ErrNone
}
