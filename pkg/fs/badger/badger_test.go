package badger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/pkg/fs"
	"github.com/mcufs/mcufs/pkg/fs/badger"
	"github.com/mcufs/mcufs/pkg/fs/fstest"
)

func newTestFS(t *testing.T) *badger.Filesystem {
	t.Helper()
	fsys, err := badger.New(badger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fsys.Close() })
	return fsys
}

func TestBadgerFilesystem(t *testing.T) {
	suite := &fstest.Suite{
		New: func(t *testing.T) fs.Filesystem {
			return newTestFS(t)
		},
	}
	suite.Run(t)
}

func TestBadgerPersistence(t *testing.T) {
	dir := t.TempDir()

	fsys, err := badger.New(badger.Config{Path: dir})
	require.NoError(t, err)

	f, err := fsys.Open("/keep", fs.ModeWrite)
	require.NoError(t, err)
	_, err = f.Write([]byte("survives"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, fsys.Close())

	fsys, err = badger.New(badger.Config{Path: dir})
	require.NoError(t, err)
	defer func() { _ = fsys.Close() }()

	f, err = fsys.Open("/keep", fs.ModeRead)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	buf := make([]byte, 16)
	n, err := fs.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("survives"), buf[:n])
}

func TestBadgerMkdirRequiresParent(t *testing.T) {
	fsys := newTestFS(t)

	err := fsys.Mkdir("/no/such/parent")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
