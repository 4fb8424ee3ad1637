package fstest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/pkg/fs"
)

// RunMaintenanceTests executes the Format and Stats tests.
func (suite *Suite) RunMaintenanceTests(t *testing.T) {
	t.Run("FormatClearsEverything", suite.testFormatClearsEverything)
	t.Run("StatsReportUsage", suite.testStatsReportUsage)
}

func (suite *Suite) testFormatClearsEverything(t *testing.T) {
	fsys := suite.newFS(t)

	require.NoError(t, fsys.Mkdir("/a"))
	writeFile(t, fsys, "/a/f", []byte("data"))
	writeFile(t, fsys, "/top", []byte("data"))

	require.NoError(t, fsys.Format())

	assert.Empty(t, listDir(t, fsys, "/"))
	_, err := fsys.Open("/top", fs.ModeRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func (suite *Suite) testStatsReportUsage(t *testing.T) {
	fsys := suite.newFS(t)

	before, err := fsys.Stats()
	require.NoError(t, err)
	assert.NotZero(t, before.TotalBytes)

	writeFile(t, fsys, "/blob", make([]byte, 4096))

	after, err := fsys.Stats()
	require.NoError(t, err)
	assert.Equal(t, before.TotalBytes, after.TotalBytes)
	assert.GreaterOrEqual(t, after.UsedBytes, before.UsedBytes+4096)
	assert.LessOrEqual(t, after.UsedBytes, after.TotalBytes)
}
