package fstest

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/pkg/fs"
)

// RunDirTests executes the directory operation tests.
func (suite *Suite) RunDirTests(t *testing.T) {
	t.Run("MkdirAndList", suite.testMkdirAndList)
	t.Run("MkdirExistingFails", suite.testMkdirExistingFails)
	t.Run("ListingOrderIsStable", suite.testListingOrderIsStable)
	t.Run("ListMissingFails", suite.testListMissingFails)
	t.Run("RmdirEmpty", suite.testRmdirEmpty)
	t.Run("RmdirNonEmptyFails", suite.testRmdirNonEmptyFails)
	t.Run("RmdirMissingFails", suite.testRmdirMissingFails)
}

func listDir(t *testing.T, fsys fs.Filesystem, path string) []fs.Entry {
	t.Helper()
	d, err := fsys.OpenDir(path)
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	var entries []fs.Entry
	for {
		e, err := d.Next()
		if err == io.EOF {
			return entries
		}
		require.NoError(t, err)
		entries = append(entries, e)
	}
}

func (suite *Suite) testMkdirAndList(t *testing.T) {
	fsys := suite.newFS(t)

	require.NoError(t, fsys.Mkdir("/docs"))
	writeFile(t, fsys, "/docs/readme", []byte("hi"))

	entries := listDir(t, fsys, "/")
	require.Len(t, entries, 1)
	assert.Equal(t, "docs", entries[0].Name)
	assert.True(t, entries[0].IsDir)

	entries = listDir(t, fsys, "/docs")
	require.Len(t, entries, 1)
	assert.Equal(t, "readme", entries[0].Name)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, uint32(2), entries[0].Size)
}

func (suite *Suite) testMkdirExistingFails(t *testing.T) {
	fsys := suite.newFS(t)

	require.NoError(t, fsys.Mkdir("/dup"))
	err := fsys.Mkdir("/dup")
	assert.ErrorIs(t, err, fs.ErrExist)
}

func (suite *Suite) testListingOrderIsStable(t *testing.T) {
	fsys := suite.newFS(t)

	names := []string{"/charlie", "/alpha", "/bravo", "/delta"}
	for _, name := range names {
		writeFile(t, fsys, name, []byte("x"))
	}

	first := listDir(t, fsys, "/")
	second := listDir(t, fsys, "/")
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func (suite *Suite) testListMissingFails(t *testing.T) {
	fsys := suite.newFS(t)

	_, err := fsys.OpenDir("/ghost")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func (suite *Suite) testRmdirEmpty(t *testing.T) {
	fsys := suite.newFS(t)

	require.NoError(t, fsys.Mkdir("/tmp"))
	require.NoError(t, fsys.Rmdir("/tmp"))

	_, err := fsys.OpenDir("/tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func (suite *Suite) testRmdirNonEmptyFails(t *testing.T) {
	fsys := suite.newFS(t)

	require.NoError(t, fsys.Mkdir("/full"))
	writeFile(t, fsys, "/full/keep", []byte("x"))

	err := fsys.Rmdir("/full")
	assert.ErrorIs(t, err, fs.ErrNotEmpty)
}

func (suite *Suite) testRmdirMissingFails(t *testing.T) {
	fsys := suite.newFS(t)

	err := fsys.Rmdir("/absent")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
