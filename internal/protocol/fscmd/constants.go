// Package fscmd implements the filesystem command family of the packet
// protocol: decoding command arguments from a bounded request frame,
// performing the operation against a pkg/fs backend, and encoding a
// bounded response frame.
//
// One request frame always produces at most one response frame. Commands
// whose natural result exceeds a frame (LIST, READ) are windowed by
// caller-supplied cursors instead of server-side session state.
package fscmd

// Opcode identifies a command. The filesystem command family occupies the
// fixed sub-range 0x40-0x4A; other families sharing the transport dispatch
// on disjoint ranges.
type Opcode uint8

const (
	// OpFormat erases the filesystem.
	OpFormat Opcode = 0x40

	// OpInfo reports total and used bytes.
	OpInfo Opcode = 0x41

	// OpList enumerates a directory, paginated by a start index.
	OpList Opcode = 0x42

	// OpMkdir creates a directory.
	OpMkdir Opcode = 0x43

	// OpRemove removes a file.
	OpRemove Opcode = 0x44

	// OpRename renames a file or directory. Unimplemented placeholder:
	// the handler only echoes the opcode.
	OpRename Opcode = 0x45

	// OpCopy copies a file. Unimplemented placeholder: the handler only
	// echoes the opcode.
	OpCopy Opcode = 0x46

	// OpRead reads a window of a file selected by offset and length.
	OpRead Opcode = 0x47

	// OpWrite writes a file, truncating any previous content.
	OpWrite Opcode = 0x48

	// OpAppend appends to a file.
	OpAppend Opcode = 0x49

	// OpRmdir removes an empty directory.
	OpRmdir Opcode = 0x4A
)

// String returns the symbolic command name, or "???" for opcodes outside
// the family.
func (op Opcode) String() string {
	switch op {
	case OpFormat:
		return "FORMAT"
	case OpInfo:
		return "INFO"
	case OpList:
		return "LIST"
	case OpMkdir:
		return "MKDIR"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpCopy:
		return "COPY"
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpAppend:
		return "APPEND"
	case OpRmdir:
		return "RMDIR"
	}
	return "???"
}

// ErrorCode is the operation-level result carried in response payloads.
// ErrNone is always zero so a zeroed field is success-shaped, but every
// handler sets it explicitly; no code path relies on background zeroing.
type ErrorCode uint8

const (
	// ErrNone indicates success.
	ErrNone ErrorCode = 0

	// ErrUnableToOpenFile indicates the named file could not be opened.
	ErrUnableToOpenFile ErrorCode = 1

	// ErrWriteFailed indicates a write wrote fewer bytes than requested.
	ErrWriteFailed ErrorCode = 2

	// ErrReadFailed indicates a read failed, including the case where the
	// requested length exceeds the response frame's remaining capacity.
	ErrReadFailed ErrorCode = 3

	// ErrSeekFailed indicates seeking to the requested offset failed.
	ErrSeekFailed ErrorCode = 4

	// ErrFormatFailed indicates the filesystem could not be formatted.
	ErrFormatFailed ErrorCode = 5

	// ErrMkdirFailed indicates the directory could not be created.
	ErrMkdirFailed ErrorCode = 6

	// ErrRmdirFailed indicates the directory could not be removed.
	ErrRmdirFailed ErrorCode = 7

	// ErrRemoveFailed indicates the file could not be removed.
	ErrRemoveFailed ErrorCode = 8
)

// String returns the symbolic error name.
func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "NONE"
	case ErrUnableToOpenFile:
		return "UNABLE_TO_OPEN_FILE"
	case ErrWriteFailed:
		return "WRITE_FAILED"
	case ErrReadFailed:
		return "READ_FAILED"
	case ErrSeekFailed:
		return "SEEK_FAILED"
	case ErrFormatFailed:
		return "FORMAT_FAILED"
	case ErrMkdirFailed:
		return "MKDIR_FAILED"
	case ErrRmdirFailed:
		return "RMDIR_FAILED"
	case ErrRemoveFailed:
		return "REMOVE_FAILED"
	}
	return "UNKNOWN"
}

// Directory entry flag bits.
const (
	// FlagDirectory marks a LIST entry as a directory.
	FlagDirectory uint8 = 0x01
)
