package fscmd

import (
	"errors"
	"io"

	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
	"github.com/mcufs/mcufs/pkg/fs"
)

// listEntryFixedSize is the per-entry overhead before the name: u16 index,
// u8 flags, u32 size, u32 timestamp.
const listEntryFixedSize = 2 + 1 + 4 + 4

// handleList enumerates a directory, paginated by a caller-supplied start
// index.
//
// Request:  u16 startIndex, str dirName
// Response: repeated { u16 index, u8 flags, u32 size, u32 timestamp, str name }
//
// The handler re-scans the directory from its beginning on every call,
// discarding entries below startIndex. That trades O(index) work per call
// for zero server-side session state, which is what lets the transport be
// lossy without session recovery. Enumeration stops before the first entry
// whose exact encoded size exceeds the remaining response capacity; the
// response carries no explicit more-data flag. A caller that does not see
// the directory end re-issues LIST with startIndex set to the next unseen
// index. If the directory is mutated between pages, entries may be skipped
// or duplicated; that is accepted degradation, not a failure.
func (h *Handler) handleList(req *Request, resp *Response) ErrorCode {
	resp.SetOpcode(req.Opcode())

	dec := req.Decoder()
	startIndex, err := dec.Uint16()
	if err != nil {
		logger.Warn("LIST: bad request: %v", err)
		return ErrNone
	}
	dirName, err := dec.String()
	if err != nil {
		logger.Warn("LIST: bad request: %v", err)
		return ErrNone
	}

	path, err := fs.CleanPath(dirName)
	if err != nil {
		logger.Warn("LIST: rejected path %q: %v", dirName, err)
		return ErrNone
	}

	dir, err := h.fs.OpenDir(path)
	if err != nil {
		// LIST has no error field; an empty listing is the only
		// well-formed failure shape.
		logger.Warn("LIST failed: dir=%q error=%v", path, err)
		return ErrNone
	}
	defer dir.Close()

	logger.Debug("LIST: dir=%q start=%d capacity=%d", path, startIndex, resp.Remaining())

	var index uint16
	appended := 0
	for {
		entry, err := dir.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("LIST: enumeration stopped: dir=%q index=%d error=%v", path, index, err)
			break
		}
		if index < startIndex {
			index++
			continue
		}

		// Exact encoded size, computed before writing anything: a
		// partially encoded entry would corrupt the frame.
		entrySize := listEntryFixedSize + codec.StringSize(entry.Name)
		if entrySize > resp.Remaining() {
			break
		}

		var flags uint8
		if entry.IsDir {
			flags |= FlagDirectory
		}

		// Capacity was checked above; these cannot fail.
		_ = resp.AppendUint16(index)
		_ = resp.AppendUint8(flags)
		_ = resp.AppendUint32(entry.Size)
		_ = resp.AppendUint32(uint32(entry.ModTime.Unix()))
		_ = resp.AppendString(entry.Name)

		index++
		appended++
	}

	logger.Info("LIST: dir=%q start=%d entries=%d bytes=%d", path, startIndex, appended, resp.Len())
	return ErrNone
}
