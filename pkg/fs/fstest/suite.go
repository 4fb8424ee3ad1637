// Package fstest provides a reusable conformance suite for fs.Filesystem
// implementations. It tests the interface contract, not implementation
// details, so every backend (memory, local, badger, s3) runs the same
// checks.
//
// Usage:
//
//	func TestMemoryFilesystem(t *testing.T) {
//	    suite := &fstest.Suite{
//	        New: func(t *testing.T) fs.Filesystem {
//	            return memory.New(memory.DefaultCapacity)
//	        },
//	    }
//	    suite.Run(t)
//	}
package fstest

import (
	"testing"

	"github.com/mcufs/mcufs/pkg/fs"
)

// Suite runs the filesystem conformance tests.
type Suite struct {
	// New creates a fresh, empty filesystem for each test. Required.
	New func(t *testing.T) fs.Filesystem
}

// Run executes all tests in the suite.
func (suite *Suite) Run(t *testing.T) {
	t.Run("Files", suite.RunFileTests)
	t.Run("Directories", suite.RunDirTests)
	t.Run("Maintenance", suite.RunMaintenanceTests)
}

func (suite *Suite) newFS(t *testing.T) fs.Filesystem {
	t.Helper()
	if suite.New == nil {
		t.Fatal("Suite.New is required")
	}
	return suite.New(t)
}
