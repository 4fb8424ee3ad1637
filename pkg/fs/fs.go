// Package fs defines the filesystem capability surface consumed by the
// protocol handlers.
//
// The interfaces are deliberately narrow: they mirror what a small embedded
// filesystem (LittleFS and friends) can do, not what a POSIX filesystem can
// do. Backends live in subpackages (memory, local, badger, s3) and are
// selected through pkg/config factories. A shared conformance suite in
// pkg/fs/fstest verifies that every backend honors the same contract.
package fs

import (
	"io"
	"time"
)

// OpenMode selects how a file is opened.
type OpenMode int

const (
	// ModeRead opens an existing file for reading. The file must exist.
	ModeRead OpenMode = iota

	// ModeWrite opens a file for writing, creating it if missing and
	// truncating it if present.
	ModeWrite

	// ModeAppend opens a file for writing at the end, creating it if
	// missing.
	ModeAppend
)

// UsageInfo is a point-in-time snapshot of filesystem occupancy.
//
// The fields are 32-bit because the wire protocol transports them as u32;
// backends with larger capacities must clamp.
type UsageInfo struct {
	// TotalBytes is the total capacity of the backing filesystem.
	TotalBytes uint32

	// UsedBytes is the number of bytes currently in use.
	UsedBytes uint32
}

// Filesystem is the capability surface required by the command handlers.
//
// All paths are absolute, slash-separated, and cleaned by the caller (see
// CleanPath). Implementations are not required to synchronize concurrent
// mutation of the same path; the protocol layer serializes commands per
// connection and documents concurrent-mutation behavior as best effort.
type Filesystem interface {
	// Open opens a file in the given mode. A missing file in ModeRead, or
	// a path that names a directory, returns an error.
	Open(path string, mode OpenMode) (File, error)

	// OpenDir opens a directory for enumeration. Enumeration order is
	// implementation-defined but stable while the directory is unchanged.
	OpenDir(path string) (Dir, error)

	// Mkdir creates a directory. The parent must exist.
	Mkdir(path string) error

	// Rmdir removes an empty directory.
	Rmdir(path string) error

	// Remove removes a file.
	Remove(path string) error

	// Format erases the entire filesystem, leaving an empty root.
	Format() error

	// Stats returns the current usage snapshot.
	Stats() (UsageInfo, error)
}

// File is an open file handle.
type File interface {
	// Read reads up to len(p) bytes from the current position. It returns
	// io.EOF once the end of the file is reached, matching io.Reader.
	Read(p []byte) (int, error)

	// Write writes len(p) bytes at the current position. A short write
	// returns the number of bytes written and a non-nil error.
	Write(p []byte) (int, error)

	// Seek moves the read/write position to an absolute offset. Seeking at
	// or past the end of the file succeeds; a subsequent Read returns 0
	// bytes and io.EOF.
	Seek(offset uint32) error

	// Close releases the handle. For buffered backends Close flushes, so a
	// write is not durable until Close returns nil.
	Close() error

	// Size returns the current file size in bytes.
	Size() uint32

	// ModTime returns the last modification time.
	ModTime() time.Time
}

// Dir is an open directory enumeration.
type Dir interface {
	// Next returns the next entry, or io.EOF when the directory is
	// exhausted.
	Next() (Entry, error)

	// Close releases the enumeration.
	Close() error
}

// Entry describes one directory member at enumeration time.
type Entry struct {
	// Name is the entry's name within its directory, without any path.
	Name string

	// Size is the file size in bytes; zero for directories.
	Size uint32

	// ModTime is the last modification time.
	ModTime time.Time

	// IsDir reports whether the entry is a directory.
	IsDir bool
}

// ReadFull reads exactly len(p) bytes from f unless the file ends first.
// It returns the number of bytes read. Unlike io.ReadFull, reaching the end
// of the file early is not an error: callers that window larger resources
// (the READ command) treat short reads as the natural end of data.
func ReadFull(f File, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := f.Read(p[total:])
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
