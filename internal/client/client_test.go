package client_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcufs/mcufs/internal/client"
	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/pkg/fs/memory"
	"github.com/mcufs/mcufs/pkg/server"
)

// startServer runs a server on an ephemeral port with a fresh in-memory
// filesystem and returns a connected client.
func startServer(t *testing.T, maxPacket int) *client.Client {
	t.Helper()

	fsys := memory.New(memory.DefaultCapacity)
	srv := server.New(server.Options{
		Listen:        "127.0.0.1:0",
		MaxPacketSize: maxPacket,
		Handlers:      []fscmd.PacketHandler{fscmd.NewHandler(fsys, nil)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for the listener to bind.
	var addr string
	require.Eventually(t, func() bool {
		a := srv.Addr()
		if a == nil {
			return false
		}
		addr = a.String()
		return true
	}, 2*time.Second, 5*time.Millisecond)

	c, err := client.Dial(addr, client.Options{
		MaxPacketSize: maxPacket,
		Timeout:       5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientServerRoundTrip(t *testing.T) {
	c := startServer(t, 512)

	t.Run("InfoReportsCapacity", func(t *testing.T) {
		usage, err := c.Info()
		require.NoError(t, err)
		assert.Equal(t, uint32(memory.DefaultCapacity), usage.TotalBytes)
	})

	t.Run("WriteReadBack", func(t *testing.T) {
		data := []byte("telemetry sample 42")
		require.NoError(t, c.WriteFile("/sample.dat", data))

		got, err := c.ReadFile("/sample.dat")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("WriteLargerThanOneFrame", func(t *testing.T) {
		data := bytes.Repeat([]byte{0xA5}, 3000)
		require.NoError(t, c.WriteFile("/big.bin", data))

		got, err := c.ReadFile("/big.bin")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("AppendExtends", func(t *testing.T) {
		require.NoError(t, c.WriteFile("/log", []byte("one")))
		require.NoError(t, c.AppendFile("/log", []byte("+two")))

		got, err := c.ReadFile("/log")
		require.NoError(t, err)
		assert.Equal(t, []byte("one+two"), got)
	})

	t.Run("MkdirListRemove", func(t *testing.T) {
		require.NoError(t, c.Mkdir("/cfg"))
		require.NoError(t, c.WriteFile("/cfg/net", []byte("dhcp")))

		entries, err := c.List("/cfg")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "net", entries[0].Name)
		assert.False(t, entries[0].IsDir)
		assert.Equal(t, uint32(4), entries[0].Size)

		require.NoError(t, c.Remove("/cfg/net"))
		require.NoError(t, c.Rmdir("/cfg"))
	})

	t.Run("ReadMissingFileFails", func(t *testing.T) {
		_, err := c.ReadFile("/absent")
		var cmdErr *client.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, fscmd.ErrUnableToOpenFile, cmdErr.Code)
	})

	t.Run("RmdirNonEmptyFails", func(t *testing.T) {
		require.NoError(t, c.Mkdir("/busy"))
		require.NoError(t, c.WriteFile("/busy/f", []byte("x")))

		err := c.Rmdir("/busy")
		var cmdErr *client.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, fscmd.ErrRmdirFailed, cmdErr.Code)
	})

	t.Run("FormatClears", func(t *testing.T) {
		require.NoError(t, c.WriteFile("/stale", []byte("x")))
		require.NoError(t, c.Format())

		entries, err := c.List("/")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// TestListPagination forces multi-page listings through a small packet
// size and checks that following the cursor reproduces the directory.
func TestListPagination(t *testing.T) {
	c := startServer(t, 64)

	var want []string
	for _, name := range []string{"/aa", "/bb", "/cc", "/dd", "/ee", "/ff", "/gg", "/hh"} {
		require.NoError(t, c.WriteFile(name, []byte("x")))
		want = append(want, name[1:])
	}

	entries, err := c.List("/")
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	assert.Equal(t, want, got)
}

// TestReadWindowing fetches a file that cannot fit one frame and checks
// the windows concatenate to the original.
func TestReadWindowing(t *testing.T) {
	c := startServer(t, 128)

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, c.WriteFile("/window.bin", data))

	got, err := c.ReadFile("/window.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

// TestOversizedReadRejected asks for more than a frame can carry in one
// READ and expects READ_FAILED rather than truncation.
func TestOversizedReadRejected(t *testing.T) {
	c := startServer(t, 128)

	require.NoError(t, c.WriteFile("/f", []byte("data")))

	_, err := c.ReadAt("/f", 0, 4096)
	var cmdErr *client.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, fscmd.ErrReadFailed, cmdErr.Code)
}
