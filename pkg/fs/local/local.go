// Package local implements fs.Filesystem over a subtree of the host
// filesystem. Every protocol path is resolved inside a fixed root
// directory; paths are cleaned before they reach this package, so the
// subtree cannot be escaped.
package local

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mcufs/mcufs/pkg/fs"
)

// DefaultCapacity is the reported total size when none is configured.
const DefaultCapacity uint32 = 64 << 20

// Filesystem exposes a host directory subtree.
type Filesystem struct {
	root     string
	capacity uint32
}

// New creates the backend rooted at root, creating the directory if
// needed. A zero capacity selects DefaultCapacity.
func New(root string, capacity uint32) (*Filesystem, error) {
	if root == "" {
		return nil, fmt.Errorf("local: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local: create root: %w", err)
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return &Filesystem{root: root, capacity: capacity}, nil
}

func (l *Filesystem) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// mapErr translates OS errors onto the fs sentinels handlers match on.
func mapErr(op, path string, err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		err = fs.ErrNotExist
	case errors.Is(err, iofs.ErrExist):
		err = fs.ErrExist
	case errors.Is(err, syscall.ENOTEMPTY), errors.Is(err, syscall.EEXIST):
		err = fs.ErrNotEmpty
	case errors.Is(err, syscall.ENOTDIR):
		err = fs.ErrNotDir
	case errors.Is(err, syscall.EISDIR):
		err = fs.ErrIsDir
	case errors.Is(err, syscall.ENOSPC):
		err = fs.ErrNoSpace
	}
	return fmt.Errorf("%s %q: %w", op, path, err)
}

// Open implements fs.Filesystem.
func (l *Filesystem) Open(path string, mode fs.OpenMode) (fs.File, error) {
	resolved := l.resolve(path)

	var flag int
	switch mode {
	case fs.ModeRead:
		flag = os.O_RDONLY
	case fs.ModeWrite:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case fs.ModeAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return nil, fmt.Errorf("open %q: unknown mode %d", path, mode)
	}

	// O_RDONLY happily opens a directory; reject that up front so READ
	// reports UNABLE_TO_OPEN_FILE instead of a confusing read error.
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return nil, fmt.Errorf("open %q: %w", path, fs.ErrIsDir)
	}

	f, err := os.OpenFile(resolved, flag, 0o644)
	if err != nil {
		return nil, mapErr("open", path, err)
	}
	return &file{f: f, path: path}, nil
}

// OpenDir implements fs.Filesystem. os.ReadDir returns entries sorted by
// name, which gives the stable enumeration order pagination depends on.
func (l *Filesystem) OpenDir(path string) (fs.Dir, error) {
	entries, err := os.ReadDir(l.resolve(path))
	if err != nil {
		return nil, mapErr("opendir", path, err)
	}
	return &dir{entries: entries}, nil
}

// Mkdir implements fs.Filesystem.
func (l *Filesystem) Mkdir(path string) error {
	if err := os.Mkdir(l.resolve(path), 0o755); err != nil {
		return mapErr("mkdir", path, err)
	}
	return nil
}

// Rmdir implements fs.Filesystem.
func (l *Filesystem) Rmdir(path string) error {
	resolved := l.resolve(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return mapErr("rmdir", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("rmdir %q: %w", path, fs.ErrNotDir)
	}
	if err := os.Remove(resolved); err != nil {
		return mapErr("rmdir", path, err)
	}
	return nil
}

// Remove implements fs.Filesystem.
func (l *Filesystem) Remove(path string) error {
	resolved := l.resolve(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return mapErr("remove", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("remove %q: %w", path, fs.ErrIsDir)
	}
	if err := os.Remove(resolved); err != nil {
		return mapErr("remove", path, err)
	}
	return nil
}

// Format implements fs.Filesystem: it empties the root directory but
// keeps the root itself.
func (l *Filesystem) Format() error {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(l.root, e.Name())); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	return nil
}

// Stats implements fs.Filesystem by walking the subtree and summing file
// sizes. Linear in the number of files, which is acceptable at the scale
// this protocol targets.
func (l *Filesystem) Stats() (fs.UsageInfo, error) {
	var used uint64
	err := filepath.WalkDir(l.root, func(_ string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		used += uint64(info.Size())
		return nil
	})
	if err != nil {
		return fs.UsageInfo{}, fmt.Errorf("stats: %w", err)
	}
	if used > uint64(l.capacity) {
		used = uint64(l.capacity)
	}
	return fs.UsageInfo{TotalBytes: l.capacity, UsedBytes: uint32(used)}, nil
}

type file struct {
	f    *os.File
	path string
}

func (f *file) Read(p []byte) (int, error)  { return f.f.Read(p) }
func (f *file) Write(p []byte) (int, error) { return f.f.Write(p) }

func (f *file) Seek(offset uint32) error {
	if _, err := f.f.Seek(int64(offset), io.SeekStart); err != nil {
		return mapErr("seek", f.path, err)
	}
	return nil
}

func (f *file) Close() error { return f.f.Close() }

func (f *file) Size() uint32 {
	info, err := f.f.Stat()
	if err != nil {
		return 0
	}
	return uint32(info.Size())
}

func (f *file) ModTime() time.Time {
	info, err := f.f.Stat()
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

type dir struct {
	entries []os.DirEntry
	next    int
}

func (d *dir) Next() (fs.Entry, error) {
	for d.next < len(d.entries) {
		e := d.entries[d.next]
		d.next++
		info, err := e.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info; enumeration
			// continues with the survivors.
			continue
		}
		var size uint32
		if !e.IsDir() {
			size = uint32(info.Size())
		}
		return fs.Entry{
			Name:    e.Name(),
			Size:    size,
			ModTime: info.ModTime(),
			IsDir:   e.IsDir(),
		}, nil
	}
	return fs.Entry{}, io.EOF
}

func (d *dir) Close() error { return nil }
