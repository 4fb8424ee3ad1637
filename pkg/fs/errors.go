package fs

import "errors"

// Sentinel errors shared by all backends. Handlers use errors.Is against
// these to map backend failures onto protocol error codes; backends wrap
// them with context.
var (
	// ErrNotExist indicates the named file or directory does not exist.
	ErrNotExist = errors.New("fs: no such file or directory")

	// ErrExist indicates the target already exists.
	ErrExist = errors.New("fs: already exists")

	// ErrNotDir indicates a file was named where a directory was required.
	ErrNotDir = errors.New("fs: not a directory")

	// ErrIsDir indicates a directory was named where a file was required.
	ErrIsDir = errors.New("fs: is a directory")

	// ErrNotEmpty indicates a directory could not be removed because it
	// still has entries.
	ErrNotEmpty = errors.New("fs: directory not empty")

	// ErrInvalidPath indicates a malformed or escaping path.
	ErrInvalidPath = errors.New("fs: invalid path")

	// ErrClosed indicates use of a handle after Close.
	ErrClosed = errors.New("fs: handle already closed")

	// ErrNoSpace indicates the backend is out of capacity.
	ErrNoSpace = errors.New("fs: no space left on filesystem")

	// ErrReadOnly indicates a write through a read-mode handle, or a read
	// through a write-mode handle.
	ErrReadOnly = errors.New("fs: operation not permitted by open mode")
)
