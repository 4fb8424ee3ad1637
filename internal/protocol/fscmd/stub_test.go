package fscmd_test

import (
	"io"
	"time"

	"github.com/mcufs/mcufs/pkg/fs"
)

// stubFS is a fault-injecting fs.Filesystem for handler tests. Every
// operation succeeds with neutral results unless an error is planted.
type stubFS struct {
	stats    fs.UsageInfo
	statsErr error

	formatErr error

	openErr  error
	openFile *stubFile
	opened   []string

	openDirErr error
	entries    []fs.Entry
}

func newStubFS() *stubFS {
	return &stubFS{}
}

func (s *stubFS) Open(path string, mode fs.OpenMode) (fs.File, error) {
	s.opened = append(s.opened, path)
	if s.openErr != nil {
		return nil, s.openErr
	}
	if s.openFile != nil {
		return s.openFile, nil
	}
	return &stubFile{}, nil
}

func (s *stubFS) OpenDir(path string) (fs.Dir, error) {
	if s.openDirErr != nil {
		return nil, s.openDirErr
	}
	return &stubDir{entries: s.entries}, nil
}

func (s *stubFS) Mkdir(path string) error  { return nil }
func (s *stubFS) Rmdir(path string) error  { return nil }
func (s *stubFS) Remove(path string) error { return nil }
func (s *stubFS) Format() error            { return s.formatErr }

func (s *stubFS) Stats() (fs.UsageInfo, error) {
	if s.statsErr != nil {
		return fs.UsageInfo{}, s.statsErr
	}
	return s.stats, nil
}

// stubFile is a fault-injecting fs.File. Reads drain the data slice;
// writes report shortWrite bytes when planted.
type stubFile struct {
	data []byte
	pos  int

	seekErr    error
	writeErr   error
	closeErr   error
	shortWrite int

	seeks  []uint32
	writes [][]byte
	closed bool
}

func (f *stubFile) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *stubFile) Write(p []byte) (int, error) {
	f.writes = append(f.writes, append([]byte(nil), p...))
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.shortWrite > 0 && f.shortWrite < len(p) {
		return f.shortWrite, nil
	}
	return len(p), nil
}

func (f *stubFile) Seek(offset uint32) error {
	f.seeks = append(f.seeks, offset)
	if f.seekErr != nil {
		return f.seekErr
	}
	f.pos = int(offset)
	return nil
}

func (f *stubFile) Close() error {
	f.closed = true
	return f.closeErr
}

func (f *stubFile) Size() uint32       { return uint32(len(f.data)) }
func (f *stubFile) ModTime() time.Time { return time.Unix(0, 0) }

type stubDir struct {
	entries []fs.Entry
	next    int
}

func (d *stubDir) Next() (fs.Entry, error) {
	if d.next >= len(d.entries) {
		return fs.Entry{}, io.EOF
	}
	e := d.entries[d.next]
	d.next++
	return e, nil
}

func (d *stubDir) Close() error { return nil }
