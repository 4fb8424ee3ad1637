package fscmd_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
	"github.com/mcufs/mcufs/pkg/fs"
	"github.com/mcufs/mcufs/pkg/fs/memory"
)

// responseCapacity matches a 512-byte packet minus the frame header.
const responseCapacity = 509

func newMemHandler(t *testing.T) (*fscmd.Handler, *memory.Filesystem) {
	t.Helper()
	fsys := memory.New(memory.DefaultCapacity)
	return fscmd.NewHandler(fsys, nil), fsys
}

func handle(t *testing.T, h *fscmd.Handler, op fscmd.Opcode, payload []byte) *fscmd.Response {
	t.Helper()
	resp := fscmd.NewResponse(responseCapacity)
	require.True(t, h.TryHandle(fscmd.NewRequest(op, payload), resp))
	assert.Equal(t, op, resp.Opcode())
	return resp
}

func writeTestFile(t *testing.T, fsys fs.Filesystem, path string, data []byte) {
	t.Helper()
	f, err := fsys.Open(path, fs.ModeWrite)
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestTryHandleIgnoresForeignOpcodes(t *testing.T) {
	h, _ := newMemHandler(t)

	for _, op := range []fscmd.Opcode{0x00, 0x3F, 0x4B, 0xFF} {
		resp := fscmd.NewResponse(responseCapacity)
		assert.False(t, h.TryHandle(fscmd.NewRequest(op, nil), resp))
		assert.Zero(t, resp.Len(), "foreign opcode 0x%02x must not touch the response", op)
	}
}

func TestNewHandlerPanicsOnNilFilesystem(t *testing.T) {
	assert.Panics(t, func() { fscmd.NewHandler(nil, nil) })
}

func TestInfo(t *testing.T) {
	t.Run("ExactWireBytes", func(t *testing.T) {
		fsys := newStubFS()
		fsys.stats = fs.UsageInfo{TotalBytes: 1_000_000, UsedBytes: 250_000}
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpInfo, nil)

		assert.Equal(t, []byte{
			0x40, 0x42, 0x0F, 0x00, // 1000000 LE
			0x90, 0xD0, 0x03, 0x00, // 250000 LE
		}, resp.Bytes())
	})

	t.Run("StatsFailureAnswersZeroes", func(t *testing.T) {
		fsys := newStubFS()
		fsys.statsErr = errors.New("backend down")
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpInfo, nil)

		assert.Equal(t, make([]byte, 8), resp.Bytes())
	})
}

func TestFormat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		writeTestFile(t, fsys, "/f", []byte("x"))

		resp := handle(t, h, fscmd.OpFormat, nil)

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		_, err := fsys.Open("/f", fs.ModeRead)
		assert.Error(t, err)
	})

	t.Run("Failure", func(t *testing.T) {
		fsys := newStubFS()
		fsys.formatErr = errors.New("flash locked")
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpFormat, nil)

		assert.Equal(t, []byte{byte(fscmd.ErrFormatFailed)}, resp.Bytes())
	})
}

func TestPathOps(t *testing.T) {
	t.Run("MkdirThenRmdir", func(t *testing.T) {
		h, _ := newMemHandler(t)

		resp := handle(t, h, fscmd.OpMkdir, codec.AppendString(nil, "/logs"))
		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())

		resp = handle(t, h, fscmd.OpRmdir, codec.AppendString(nil, "/logs"))
		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
	})

	t.Run("MkdirMissingParentFails", func(t *testing.T) {
		h, _ := newMemHandler(t)

		resp := handle(t, h, fscmd.OpMkdir, codec.AppendString(nil, "/a/b/c"))
		assert.Equal(t, []byte{byte(fscmd.ErrMkdirFailed)}, resp.Bytes())
	})

	t.Run("RmdirNonEmptyFails", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		require.NoError(t, fsys.Mkdir("/full"))
		writeTestFile(t, fsys, "/full/f", []byte("x"))

		resp := handle(t, h, fscmd.OpRmdir, codec.AppendString(nil, "/full"))
		assert.Equal(t, []byte{byte(fscmd.ErrRmdirFailed)}, resp.Bytes())
	})

	t.Run("RemoveFile", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		writeTestFile(t, fsys, "/gone", []byte("x"))

		resp := handle(t, h, fscmd.OpRemove, codec.AppendString(nil, "/gone"))
		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
	})

	t.Run("RemoveMissingFails", func(t *testing.T) {
		h, _ := newMemHandler(t)

		resp := handle(t, h, fscmd.OpRemove, codec.AppendString(nil, "/missing"))
		assert.Equal(t, []byte{byte(fscmd.ErrRemoveFailed)}, resp.Bytes())
	})

	t.Run("TraversalRejected", func(t *testing.T) {
		h, _ := newMemHandler(t)

		resp := handle(t, h, fscmd.OpMkdir, codec.AppendString(nil, "/../../etc"))
		assert.Equal(t, []byte{byte(fscmd.ErrMkdirFailed)}, resp.Bytes())
	})

	t.Run("TruncatedRequestFails", func(t *testing.T) {
		h, _ := newMemHandler(t)

		// No NUL terminator.
		resp := handle(t, h, fscmd.OpMkdir, []byte{'x'})
		assert.Equal(t, []byte{byte(fscmd.ErrMkdirFailed)}, resp.Bytes())
	})
}

func TestRenameAndCopyEchoOnly(t *testing.T) {
	h, _ := newMemHandler(t)

	for _, op := range []fscmd.Opcode{fscmd.OpRename, fscmd.OpCopy} {
		resp := handle(t, h, op, []byte{1, 2, 3})
		assert.Zero(t, resp.Len())
	}
}
