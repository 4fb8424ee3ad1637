package fscmd_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
	"github.com/mcufs/mcufs/pkg/fs"
)

func writeRequest(name string, data []byte) []byte {
	payload := codec.AppendString(nil, name)
	payload = codec.AppendUint32(payload, uint32(len(data)))
	payload = codec.AppendBytes(payload, data)
	return payload
}

func readAll(t *testing.T, fsys fs.Filesystem, path string) []byte {
	t.Helper()
	f, err := fsys.Open(path, fs.ModeRead)
	require.NoError(t, err)
	defer f.Close()
	buf := make([]byte, int(f.Size()))
	n, err := fs.ReadFull(f, buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestWrite(t *testing.T) {
	t.Run("CreatesFile", func(t *testing.T) {
		h, fsys := newMemHandler(t)

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/new", []byte("payload")))

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		assert.Equal(t, []byte("payload"), readAll(t, fsys, "/new"))
	})

	t.Run("TruncatesExisting", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		writeTestFile(t, fsys, "/f", []byte("a long original body"))

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/f", []byte("new")))

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		assert.Equal(t, []byte("new"), readAll(t, fsys, "/f"))
	})

	t.Run("ZeroLengthTruncates", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		writeTestFile(t, fsys, "/f", []byte("stale"))

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/f", nil))

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		assert.Empty(t, readAll(t, fsys, "/f"))
	})

	t.Run("ShortWriteFails", func(t *testing.T) {
		fsys := newStubFS()
		fsys.openFile = &stubFile{shortWrite: 2}
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/f", []byte("payload")))

		assert.Equal(t, []byte{byte(fscmd.ErrWriteFailed)}, resp.Bytes())
		assert.True(t, fsys.openFile.closed)
	})

	t.Run("CloseFailureFails", func(t *testing.T) {
		fsys := newStubFS()
		fsys.openFile = &stubFile{closeErr: errors.New("flush failed")}
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/f", []byte("x")))

		assert.Equal(t, []byte{byte(fscmd.ErrWriteFailed)}, resp.Bytes())
	})

	t.Run("OpenFailure", func(t *testing.T) {
		fsys := newStubFS()
		fsys.openErr = errors.New("read-only media")
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpWrite, writeRequest("/f", []byte("x")))

		assert.Equal(t, []byte{byte(fscmd.ErrUnableToOpenFile)}, resp.Bytes())
	})

	t.Run("DeclaredLengthBeyondPayloadFails", func(t *testing.T) {
		h, _ := newMemHandler(t)

		payload := codec.AppendString(nil, "/f")
		payload = codec.AppendUint32(payload, 100)
		payload = codec.AppendBytes(payload, []byte("only-nine"))

		resp := handle(t, h, fscmd.OpWrite, payload)

		assert.Equal(t, []byte{byte(fscmd.ErrWriteFailed)}, resp.Bytes())
	})
}

func TestAppend(t *testing.T) {
	t.Run("ExtendsExisting", func(t *testing.T) {
		h, fsys := newMemHandler(t)
		writeTestFile(t, fsys, "/log", []byte("first"))

		resp := handle(t, h, fscmd.OpAppend, writeRequest("/log", []byte("+second")))

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		assert.Equal(t, []byte("first+second"), readAll(t, fsys, "/log"))
	})

	t.Run("CreatesMissing", func(t *testing.T) {
		h, fsys := newMemHandler(t)

		resp := handle(t, h, fscmd.OpAppend, writeRequest("/fresh", []byte("line")))

		assert.Equal(t, []byte{byte(fscmd.ErrNone)}, resp.Bytes())
		assert.Equal(t, []byte("line"), readAll(t, fsys, "/fresh"))
	})
}
