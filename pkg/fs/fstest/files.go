package fstest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/pkg/fs"
)

// RunFileTests executes the file operation tests.
func (suite *Suite) RunFileTests(t *testing.T) {
	t.Run("WriteAndReadBack", suite.testWriteAndReadBack)
	t.Run("WriteTruncatesExisting", suite.testWriteTruncatesExisting)
	t.Run("AppendExtends", suite.testAppendExtends)
	t.Run("AppendCreatesMissing", suite.testAppendCreatesMissing)
	t.Run("ReadMissingFails", suite.testReadMissingFails)
	t.Run("SeekWindowedRead", suite.testSeekWindowedRead)
	t.Run("SeekPastEndReadsNothing", suite.testSeekPastEndReadsNothing)
	t.Run("RemoveFile", suite.testRemoveFile)
	t.Run("RemoveMissingFails", suite.testRemoveMissingFails)
}

func writeFile(t *testing.T, fsys fs.Filesystem, path string, data []byte) {
	t.Helper()
	f, err := fsys.Open(path, fs.ModeWrite)
	require.NoError(t, err)
	n, err := f.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, fsys fs.Filesystem, path string) []byte {
	t.Helper()
	f, err := fsys.Open(path, fs.ModeRead)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	buf := make([]byte, int(f.Size())+1)
	n, err := fs.ReadFull(f, buf)
	require.NoError(t, err)
	return buf[:n]
}

func (suite *Suite) testWriteAndReadBack(t *testing.T) {
	fsys := suite.newFS(t)

	data := []byte("hello, device")
	writeFile(t, fsys, "/hello.txt", data)

	assert.Equal(t, data, readFile(t, fsys, "/hello.txt"))
}

func (suite *Suite) testWriteTruncatesExisting(t *testing.T) {
	fsys := suite.newFS(t)

	writeFile(t, fsys, "/f.bin", []byte("a much longer original body"))
	writeFile(t, fsys, "/f.bin", []byte("short"))

	assert.Equal(t, []byte("short"), readFile(t, fsys, "/f.bin"))
}

func (suite *Suite) testAppendExtends(t *testing.T) {
	fsys := suite.newFS(t)

	writeFile(t, fsys, "/log", []byte("first"))

	f, err := fsys.Open("/log", fs.ModeAppend)
	require.NoError(t, err)
	_, err = f.Write([]byte("+second"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []byte("first+second"), readFile(t, fsys, "/log"))
}

func (suite *Suite) testAppendCreatesMissing(t *testing.T) {
	fsys := suite.newFS(t)

	f, err := fsys.Open("/new.log", fs.ModeAppend)
	require.NoError(t, err)
	_, err = f.Write([]byte("line"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []byte("line"), readFile(t, fsys, "/new.log"))
}

func (suite *Suite) testReadMissingFails(t *testing.T) {
	fsys := suite.newFS(t)

	_, err := fsys.Open("/nope", fs.ModeRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func (suite *Suite) testSeekWindowedRead(t *testing.T) {
	fsys := suite.newFS(t)

	writeFile(t, fsys, "/data", []byte("0123456789"))

	f, err := fsys.Open("/data", fs.ModeRead)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, f.Seek(4))
	buf := make([]byte, 3)
	n, err := fs.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("456"), buf)
}

func (suite *Suite) testSeekPastEndReadsNothing(t *testing.T) {
	fsys := suite.newFS(t)

	writeFile(t, fsys, "/small", []byte("ab"))

	f, err := fsys.Open("/small", fs.ModeRead)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, f.Seek(100))
	buf := make([]byte, 8)
	n, err := fs.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func (suite *Suite) testRemoveFile(t *testing.T) {
	fsys := suite.newFS(t)

	writeFile(t, fsys, "/gone", []byte("x"))
	require.NoError(t, fsys.Remove("/gone"))

	_, err := fsys.Open("/gone", fs.ModeRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func (suite *Suite) testRemoveMissingFails(t *testing.T) {
	fsys := suite.newFS(t)

	err := fsys.Remove("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
