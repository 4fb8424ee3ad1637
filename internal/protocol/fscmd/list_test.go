package fscmd_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
	"github.com/mcufs/mcufs/pkg/fs"
)

func listRequest(dir string, start uint16) []byte {
	payload := codec.AppendUint16(nil, start)
	payload = codec.AppendString(payload, dir)
	return payload
}

type listEntry struct {
	Index uint16
	Flags uint8
	Size  uint32
	MTime uint32
	Name  string
}

func decodeListResponse(t *testing.T, resp *fscmd.Response) []listEntry {
	t.Helper()
	d := codec.NewDecoder(resp.Bytes())

	var entries []listEntry
	for d.Remaining() > 0 {
		var e listEntry
		var err error
		e.Index, err = d.Uint16()
		require.NoError(t, err)
		e.Flags, err = d.Uint8()
		require.NoError(t, err)
		e.Size, err = d.Uint32()
		require.NoError(t, err)
		e.MTime, err = d.Uint32()
		require.NoError(t, err)
		e.Name, err = d.String()
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func listHandler(t *testing.T, entries []fs.Entry) *fscmd.Handler {
	t.Helper()
	fsys := newStubFS()
	fsys.entries = entries
	return fscmd.NewHandler(fsys, nil)
}

func handleWithCapacity(t *testing.T, h *fscmd.Handler, capacity int, payload []byte) *fscmd.Response {
	t.Helper()
	resp := fscmd.NewResponse(capacity)
	require.True(t, h.TryHandle(fscmd.NewRequest(fscmd.OpList, payload), resp))
	return resp
}

func TestList(t *testing.T) {
	mtime := time.Unix(1700000000, 0)

	t.Run("EntriesAndFlags", func(t *testing.T) {
		h := listHandler(t, []fs.Entry{
			{Name: "boot.cfg", Size: 128, ModTime: mtime},
			{Name: "logs", IsDir: true, ModTime: mtime},
		})

		entries := decodeListResponse(t, handle(t, h, fscmd.OpList, listRequest("/", 0)))

		require.Len(t, entries, 2)
		assert.Equal(t, listEntry{0, 0, 128, 1700000000, "boot.cfg"}, entries[0])
		assert.Equal(t, listEntry{1, fscmd.FlagDirectory, 0, 1700000000, "logs"}, entries[1])
	})

	t.Run("StartIndexSkips", func(t *testing.T) {
		h := listHandler(t, []fs.Entry{
			{Name: "a", ModTime: mtime},
			{Name: "b", ModTime: mtime},
			{Name: "c", ModTime: mtime},
		})

		entries := decodeListResponse(t, handle(t, h, fscmd.OpList, listRequest("/", 2)))

		require.Len(t, entries, 1)
		assert.Equal(t, uint16(2), entries[0].Index)
		assert.Equal(t, "c", entries[0].Name)
	})

	t.Run("StartBeyondEndIsEmpty", func(t *testing.T) {
		h := listHandler(t, []fs.Entry{{Name: "a", ModTime: mtime}})

		resp := handle(t, h, fscmd.OpList, listRequest("/", 9))
		assert.Zero(t, resp.Len())
	})

	t.Run("OpenDirFailureIsEmpty", func(t *testing.T) {
		fsys := newStubFS()
		fsys.openDirErr = errors.New("not a directory")
		h := fscmd.NewHandler(fsys, nil)

		resp := handle(t, h, fscmd.OpList, listRequest("/f", 0))
		assert.Zero(t, resp.Len())
	})

	t.Run("TruncatedRequestIsEmpty", func(t *testing.T) {
		h := listHandler(t, []fs.Entry{{Name: "a", ModTime: mtime}})

		resp := handle(t, h, fscmd.OpList, []byte{0x00})
		assert.Zero(t, resp.Len())
	})

	t.Run("StopsBeforeOverflowingEntry", func(t *testing.T) {
		h := listHandler(t, []fs.Entry{
			{Name: "aaaa", ModTime: mtime},
			{Name: "bbbb", ModTime: mtime},
		})

		// One entry needs 11 + 5 = 16 bytes; give room for exactly one.
		entries := decodeListResponse(t, handleWithCapacity(t, h, 20, listRequest("/", 0)))

		require.Len(t, entries, 1)
		assert.Equal(t, "aaaa", entries[0].Name)
	})
}

// TestListPaginationReassembles drives the cursor protocol the way a
// device does: re-issue LIST with the next unseen index until a page
// comes back empty, and require the union to reproduce the directory in
// order, with no duplicates.
func TestListPaginationReassembles(t *testing.T) {
	var all []fs.Entry
	for i := 0; i < 23; i++ {
		all = append(all, fs.Entry{
			Name:    fmt.Sprintf("file-%02d.bin", i),
			Size:    uint32(i),
			ModTime: time.Unix(1700000000, 0),
		})
	}
	h := listHandler(t, all)

	// Capacity fits a handful of 27-byte entries per page, forcing
	// several pages.
	const capacity = 100

	var got []listEntry
	pages := 0
	start := uint16(0)
	for {
		page := decodeListResponse(t, handleWithCapacity(t, h, capacity, listRequest("/", start)))
		if len(page) == 0 {
			break
		}
		pages++
		require.Less(t, pages, 50, "pagination must terminate")
		got = append(got, page...)
		start = page[len(page)-1].Index + 1
	}

	require.Greater(t, pages, 1, "test must exercise more than one page")
	require.Len(t, got, len(all))
	for i, e := range got {
		assert.Equal(t, uint16(i), e.Index)
		assert.Equal(t, all[i].Name, e.Name)
		assert.Equal(t, all[i].Size, e.Size)
	}
}
