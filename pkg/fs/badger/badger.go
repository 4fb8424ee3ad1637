// Package badger implements a persistent fs.Filesystem on BadgerDB.
//
// Suited to daemons that must keep device data across restarts without
// depending on host directory layout: the whole tree lives in one embedded
// key-value store with WAL-backed crash recovery.
//
// Key namespace:
//
//	Data Type   Prefix  Key Format      Value
//	=================================================
//	Metadata    "m:"    m:<path>        entryMeta (JSON)
//	Content     "c:"    c:<path>        raw file bytes
//
// Paths are cleaned absolute paths, so the children of a directory are
// exactly the metadata keys one slash-segment below it. Badger iterates
// keys in lexicographic order, which doubles as the stable enumeration
// order pagination depends on.
package badger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/mcufs/mcufs/pkg/fs"
)

// DefaultCapacity is the reported total size when none is configured.
const DefaultCapacity uint32 = 64 << 20

const (
	metaPrefix    = "m:"
	contentPrefix = "c:"
)

// Config configures the backend.
type Config struct {
	// Path is the directory holding the Badger database. Ignored when
	// InMemory is set.
	Path string

	// InMemory keeps the database in RAM; used by tests.
	InMemory bool

	// Capacity is the reported total size; zero selects DefaultCapacity.
	Capacity uint32
}

// Filesystem is a Badger-backed filesystem.
type Filesystem struct {
	db       *badger.DB
	capacity uint32
}

type entryMeta struct {
	IsDir bool   `json:"dir"`
	Size  uint32 `json:"size"`
	MTime int64  `json:"mtime"`
}

// New opens (or creates) the database and ensures the root directory
// exists. Callers own the returned filesystem and must Close it.
func New(cfg Config) (*Filesystem, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: database path is required")
	}
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open database: %w", err)
	}

	f := &Filesystem{db: db, capacity: capacity}
	if err := f.ensureRoot(); err != nil {
		db.Close()
		return nil, err
	}
	return f, nil
}

// Close releases the database. The daemon calls this during shutdown.
func (b *Filesystem) Close() error {
	return b.db.Close()
}

func (b *Filesystem) ensureRoot() error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey("/")); err == nil {
			return nil
		}
		return putMeta(txn, "/", entryMeta{IsDir: true, MTime: time.Now().Unix()})
	})
}

func metaKey(path string) []byte    { return []byte(metaPrefix + path) }
func contentKey(path string) []byte { return []byte(contentPrefix + path) }

func putMeta(txn *badger.Txn, path string, meta entryMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("badger: marshal meta %q: %w", path, err)
	}
	return txn.Set(metaKey(path), raw)
}

func getMeta(txn *badger.Txn, path string) (entryMeta, error) {
	item, err := txn.Get(metaKey(path))
	if err == badger.ErrKeyNotFound {
		return entryMeta{}, fmt.Errorf("badger: %q: %w", path, fs.ErrNotExist)
	}
	if err != nil {
		return entryMeta{}, fmt.Errorf("badger: get meta %q: %w", path, err)
	}
	var meta entryMeta
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &meta)
	}); err != nil {
		return entryMeta{}, fmt.Errorf("badger: decode meta %q: %w", path, err)
	}
	return meta, nil
}

// childScanPrefix returns the metadata key prefix under which all direct
// and transitive children of dir live.
func childScanPrefix(dir string) []byte {
	if dir == "/" {
		return []byte(metaPrefix + "/")
	}
	return []byte(metaPrefix + dir + "/")
}

// Open implements fs.Filesystem. File handles buffer the full content in
// memory; writes become durable in one transaction at Close. The files
// this protocol moves are bounded by frame-sized windows, so buffering
// whole contents is cheap.
func (b *Filesystem) Open(path string, mode fs.OpenMode) (fs.File, error) {
	var data []byte
	var meta entryMeta

	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		meta, err = getMeta(txn, path)
		if err != nil {
			return err
		}
		if meta.IsDir {
			return fmt.Errorf("badger: %q: %w", path, fs.ErrIsDir)
		}
		item, err := txn.Get(contentKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger: get content %q: %w", path, err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	switch mode {
	case fs.ModeRead:
		if err != nil {
			return nil, err
		}
		return &file{fs: b, path: path, mode: mode, data: data, mtime: time.Unix(meta.MTime, 0)}, nil

	case fs.ModeWrite, fs.ModeAppend:
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			// Creating a new file: the parent must exist and be a
			// directory.
			if perr := b.checkParent(path); perr != nil {
				return nil, perr
			}
			data = nil
		}
		if mode == fs.ModeWrite {
			data = nil
		}
		return &file{
			fs:    b,
			path:  path,
			mode:  mode,
			data:  data,
			pos:   len(data),
			mtime: time.Now(),
		}, nil
	}
	return nil, fmt.Errorf("badger: open %q: unknown mode %d", path, mode)
}

func (b *Filesystem) checkParent(path string) error {
	dir, _ := fs.SplitPath(path)
	return b.db.View(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, dir)
		if err != nil {
			return err
		}
		if !meta.IsDir {
			return fmt.Errorf("badger: %q: %w", dir, fs.ErrNotDir)
		}
		return nil
	})
}

// OpenDir implements fs.Filesystem. Direct children are the metadata keys
// exactly one segment below dir; deeper keys are skipped.
func (b *Filesystem) OpenDir(path string) (fs.Dir, error) {
	var entries []fs.Entry

	err := b.db.View(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, path)
		if err != nil {
			return err
		}
		if !meta.IsDir {
			return fmt.Errorf("badger: %q: %w", path, fs.ErrNotDir)
		}

		prefix := childScanPrefix(path)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rest := string(item.Key()[len(prefix):])
			if strings.Contains(rest, "/") {
				continue
			}
			var childMeta entryMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &childMeta)
			}); err != nil {
				return fmt.Errorf("badger: decode meta %q: %w", rest, err)
			}
			entries = append(entries, fs.Entry{
				Name:    rest,
				Size:    childMeta.Size,
				ModTime: time.Unix(childMeta.MTime, 0),
				IsDir:   childMeta.IsDir,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dir{entries: entries}, nil
}

// Mkdir implements fs.Filesystem.
func (b *Filesystem) Mkdir(path string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(path)); err == nil {
			return fmt.Errorf("badger: mkdir %q: %w", path, fs.ErrExist)
		}
		parent, _ := fs.SplitPath(path)
		meta, err := getMeta(txn, parent)
		if err != nil {
			return err
		}
		if !meta.IsDir {
			return fmt.Errorf("badger: %q: %w", parent, fs.ErrNotDir)
		}
		return putMeta(txn, path, entryMeta{IsDir: true, MTime: time.Now().Unix()})
	})
}

// Rmdir implements fs.Filesystem.
func (b *Filesystem) Rmdir(path string) error {
	if path == "/" {
		return fmt.Errorf("badger: rmdir %q: %w", path, fs.ErrInvalidPath)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, path)
		if err != nil {
			return err
		}
		if !meta.IsDir {
			return fmt.Errorf("badger: rmdir %q: %w", path, fs.ErrNotDir)
		}

		prefix := childScanPrefix(path)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		if it.Valid() {
			return fmt.Errorf("badger: rmdir %q: %w", path, fs.ErrNotEmpty)
		}

		return txn.Delete(metaKey(path))
	})
}

// Remove implements fs.Filesystem.
func (b *Filesystem) Remove(path string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, path)
		if err != nil {
			return err
		}
		if meta.IsDir {
			return fmt.Errorf("badger: remove %q: %w", path, fs.ErrIsDir)
		}
		if err := txn.Delete(metaKey(path)); err != nil {
			return err
		}
		return txn.Delete(contentKey(path))
	})
}

// Format implements fs.Filesystem: drops everything and recreates the
// root.
func (b *Filesystem) Format() error {
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("badger: format: %w", err)
	}
	return b.ensureRoot()
}

// Stats implements fs.Filesystem by scanning metadata and summing file
// sizes.
func (b *Filesystem) Stats() (fs.UsageInfo, error) {
	var used uint64
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var meta entryMeta
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			used += uint64(meta.Size)
		}
		return nil
	})
	if err != nil {
		return fs.UsageInfo{}, fmt.Errorf("badger: stats: %w", err)
	}
	if used > uint64(b.capacity) {
		used = uint64(b.capacity)
	}
	return fs.UsageInfo{TotalBytes: b.capacity, UsedBytes: uint32(used)}, nil
}

type file struct {
	fs     *Filesystem
	path   string
	mode   fs.OpenMode
	data   []byte
	pos    int
	mtime  time.Time
	closed bool
	dirty  bool
}

func (f *file) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode != fs.ModeRead {
		return 0, fs.ErrReadOnly
	}
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode == fs.ModeRead {
		return 0, fs.ErrReadOnly
	}
	if f.pos > len(f.data) {
		f.data = append(f.data, make([]byte, f.pos-len(f.data))...)
	}
	n := copy(f.data[f.pos:], p)
	if n < len(p) {
		f.data = append(f.data, p[n:]...)
	}
	f.pos += len(p)
	f.dirty = true
	f.mtime = time.Now()
	return len(p), nil
}

func (f *file) Seek(offset uint32) error {
	if f.closed {
		return fs.ErrClosed
	}
	f.pos = int(offset)
	return nil
}

// Close flushes buffered writes in one transaction.
func (f *file) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true

	if f.mode == fs.ModeRead {
		return nil
	}
	// Append handles that never wrote leave the file untouched; write
	// mode always commits, so a zero-byte write truncates.
	if f.mode == fs.ModeAppend && !f.dirty {
		return nil
	}

	return f.fs.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(contentKey(f.path), bytes.Clone(f.data)); err != nil {
			return err
		}
		return putMeta(txn, f.path, entryMeta{
			Size:  uint32(len(f.data)),
			MTime: f.mtime.Unix(),
		})
	})
}

func (f *file) Size() uint32 { return uint32(len(f.data)) }

func (f *file) ModTime() time.Time { return f.mtime }

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
