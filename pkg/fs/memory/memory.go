// Package memory implements an in-memory fs.Filesystem.
//
// It is the default backend for ad-hoc servers and the substrate for
// protocol tests: fully deterministic, no host filesystem involved, and
// cheap to throw away. Contents do not survive a restart.
package memory

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mcufs/mcufs/pkg/fs"
)

// DefaultCapacity is the reported total size when none is configured.
// Sized like the flash partition of a typical microcontroller target.
const DefaultCapacity uint32 = 1 << 20

// Filesystem is an in-memory tree of directories and files.
//
// A single mutex guards the whole tree. Commands are serialized per
// connection, so contention only occurs across connections, where
// coarse-grained locking is simple and correct.
type Filesystem struct {
	mu       sync.Mutex
	root     *node
	capacity uint32
}

type node struct {
	name     string
	isDir    bool
	children map[string]*node
	data     []byte
	mtime    time.Time
}

func newDirNode(name string) *node {
	return &node{
		name:     name,
		isDir:    true,
		children: make(map[string]*node),
		mtime:    time.Now(),
	}
}

// New creates an empty in-memory filesystem. A zero capacity selects
// DefaultCapacity.
func New(capacity uint32) *Filesystem {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return &Filesystem{
		root:     newDirNode("/"),
		capacity: capacity,
	}
}

// lookup walks a cleaned absolute path. Callers must hold the mutex.
func (m *Filesystem) lookup(path string) (*node, error) {
	if path == "/" {
		return m.root, nil
	}
	cur := m.root
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if !cur.isDir {
			return nil, fmt.Errorf("lookup %q: %w", path, fs.ErrNotDir)
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, fmt.Errorf("lookup %q: %w", path, fs.ErrNotExist)
		}
		cur = next
	}
	return cur, nil
}

// lookupParent returns the parent directory node and base name of path.
// Callers must hold the mutex.
func (m *Filesystem) lookupParent(path string) (*node, string, error) {
	dir, base := fs.SplitPath(path)
	if base == "" {
		return nil, "", fmt.Errorf("parent of %q: %w", path, fs.ErrInvalidPath)
	}
	parent, err := m.lookup(dir)
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir {
		return nil, "", fmt.Errorf("parent of %q: %w", path, fs.ErrNotDir)
	}
	return parent, base, nil
}

func (m *Filesystem) usedLocked() uint64 {
	var walk func(n *node) uint64
	walk = func(n *node) uint64 {
		if !n.isDir {
			return uint64(len(n.data))
		}
		var sum uint64
		for _, c := range n.children {
			sum += walk(c)
		}
		return sum
	}
	return walk(m.root)
}

// Open implements fs.Filesystem.
func (m *Filesystem) Open(path string, mode fs.OpenMode) (fs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mode {
	case fs.ModeRead:
		n, err := m.lookup(path)
		if err != nil {
			return nil, err
		}
		if n.isDir {
			return nil, fmt.Errorf("open %q: %w", path, fs.ErrIsDir)
		}
		return &file{fs: m, node: n, mode: mode}, nil

	case fs.ModeWrite, fs.ModeAppend:
		n, err := m.lookup(path)
		switch {
		case err == nil:
			if n.isDir {
				return nil, fmt.Errorf("open %q: %w", path, fs.ErrIsDir)
			}
		default:
			parent, base, perr := m.lookupParent(path)
			if perr != nil {
				return nil, perr
			}
			n = &node{name: base, mtime: time.Now()}
			parent.children[base] = n
		}
		if mode == fs.ModeWrite {
			n.data = nil
		}
		return &file{fs: m, node: n, mode: mode, pos: len(n.data)}, nil
	}
	return nil, fmt.Errorf("open %q: unknown mode %d", path, mode)
}

// OpenDir implements fs.Filesystem. The listing is snapshotted in name
// order at open time, so one enumeration is stable even if the tree is
// mutated while it runs.
func (m *Filesystem) OpenDir(path string) (fs.Dir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, fmt.Errorf("opendir %q: %w", path, fs.ErrNotDir)
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]fs.Entry, 0, len(names))
	for _, name := range names {
		c := n.children[name]
		entries = append(entries, fs.Entry{
			Name:    c.name,
			Size:    uint32(len(c.data)),
			ModTime: c.mtime,
			IsDir:   c.isDir,
		})
	}
	return &dir{entries: entries}, nil
}

// Mkdir implements fs.Filesystem.
func (m *Filesystem) Mkdir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, base, err := m.lookupParent(path)
	if err != nil {
		return err
	}
	if _, ok := parent.children[base]; ok {
		return fmt.Errorf("mkdir %q: %w", path, fs.ErrExist)
	}
	parent.children[base] = newDirNode(base)
	return nil
}

// Rmdir implements fs.Filesystem.
func (m *Filesystem) Rmdir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookup(path)
	if err != nil {
		return err
	}
	if !n.isDir {
		return fmt.Errorf("rmdir %q: %w", path, fs.ErrNotDir)
	}
	if n == m.root {
		return fmt.Errorf("rmdir %q: %w", path, fs.ErrInvalidPath)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("rmdir %q: %w", path, fs.ErrNotEmpty)
	}
	parent, base, err := m.lookupParent(path)
	if err != nil {
		return err
	}
	delete(parent.children, base)
	return nil
}

// Remove implements fs.Filesystem.
func (m *Filesystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookup(path)
	if err != nil {
		return err
	}
	if n.isDir {
		return fmt.Errorf("remove %q: %w", path, fs.ErrIsDir)
	}
	parent, base, err := m.lookupParent(path)
	if err != nil {
		return err
	}
	delete(parent.children, base)
	return nil
}

// Format implements fs.Filesystem.
func (m *Filesystem) Format() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = newDirNode("/")
	return nil
}

// Stats implements fs.Filesystem.
func (m *Filesystem) Stats() (fs.UsageInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.usedLocked()
	if used > uint64(m.capacity) {
		used = uint64(m.capacity)
	}
	return fs.UsageInfo{TotalBytes: m.capacity, UsedBytes: uint32(used)}, nil
}

type file struct {
	fs     *Filesystem
	node   *node
	mode   fs.OpenMode
	pos    int
	closed bool
}

func (f *file) Read(p []byte) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode != fs.ModeRead {
		return 0, fs.ErrReadOnly
	}
	if f.pos >= len(f.node.data) {
		return 0, io.EOF
	}
	n := copy(p, f.node.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode == fs.ModeRead {
		return 0, fs.ErrReadOnly
	}

	grow := int64(f.pos) + int64(len(p)) - int64(len(f.node.data))
	if grow > 0 && f.fs.usedLocked()+uint64(grow) > uint64(f.fs.capacity) {
		return 0, fs.ErrNoSpace
	}

	// Extend with zeros if a seek left the cursor past the end.
	if f.pos > len(f.node.data) {
		f.node.data = append(f.node.data, make([]byte, f.pos-len(f.node.data))...)
	}
	n := copy(f.node.data[f.pos:], p)
	if n < len(p) {
		f.node.data = append(f.node.data, p[n:]...)
	}
	f.pos += len(p)
	f.node.mtime = time.Now()
	return len(p), nil
}

func (f *file) Seek(offset uint32) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.closed {
		return fs.ErrClosed
	}
	f.pos = int(offset)
	return nil
}

func (f *file) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

func (f *file) Size() uint32 {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	return uint32(len(f.node.data))
}

func (f *file) ModTime() time.Time {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	return f.node.mtime
}

type dir struct {
	entries []fs.Entry
	next    int
}

func (d *dir) Next() (fs.Entry, error) {
	if d.next >= len(d.entries) {
		return fs.Entry{}, io.EOF
	}
	e := d.entries[d.next]
	d.next++
	return e, nil
}

func (d *dir) Close() error { return nil }
