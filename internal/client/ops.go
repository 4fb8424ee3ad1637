package client

import (
	"fmt"
	"time"

	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/internal/protocol/fscmd/codec"
)

// listEntryFixedSize mirrors the per-entry overhead before the name.
const listEntryFixedSize = 2 + 1 + 4 + 4

// readResponseHeaderSize mirrors the fixed READ response prefix.
const readResponseHeaderSize = 1 + 4 + 4

// Usage is the INFO response.
type Usage struct {
	TotalBytes uint32
	UsedBytes  uint32
}

// Entry is one LIST response entry.
type Entry struct {
	Index   uint16
	Name    string
	Size    uint32
	ModTime time.Time
	IsDir   bool
}

// Info reports filesystem occupancy.
func (c *Client) Info() (Usage, error) {
	d, err := c.roundTrip(fscmd.OpInfo, nil)
	if err != nil {
		return Usage{}, err
	}
	total, err := d.Uint32()
	if err != nil {
		return Usage{}, fmt.Errorf("client: INFO reply: %w", err)
	}
	used, err := d.Uint32()
	if err != nil {
		return Usage{}, fmt.Errorf("client: INFO reply: %w", err)
	}
	return Usage{TotalBytes: total, UsedBytes: used}, nil
}

// List enumerates a directory, following the pagination cursor until the
// server answers an empty page.
func (c *Client) List(dir string) ([]Entry, error) {
	var entries []Entry
	var start uint16

	for {
		page, err := c.listPage(dir, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return entries, nil
		}
		entries = append(entries, page...)
		next := int(page[len(page)-1].Index) + 1
		if next > 0xFFFF {
			return entries, nil
		}
		start = uint16(next)
	}
}

// listPage issues one LIST command.
func (c *Client) listPage(dir string, start uint16) ([]Entry, error) {
	payload := codec.AppendUint16(nil, start)
	payload = codec.AppendString(payload, dir)

	d, err := c.roundTrip(fscmd.OpList, payload)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for d.Remaining() > 0 {
		index, err := d.Uint16()
		if err != nil {
			return nil, fmt.Errorf("client: LIST reply: %w", err)
		}
		flags, err := d.Uint8()
		if err != nil {
			return nil, fmt.Errorf("client: LIST reply: %w", err)
		}
		size, err := d.Uint32()
		if err != nil {
			return nil, fmt.Errorf("client: LIST reply: %w", err)
		}
		mtime, err := d.Uint32()
		if err != nil {
			return nil, fmt.Errorf("client: LIST reply: %w", err)
		}
		name, err := d.String()
		if err != nil {
			return nil, fmt.Errorf("client: LIST reply: %w", err)
		}
		entries = append(entries, Entry{
			Index:   index,
			Name:    name,
			Size:    size,
			ModTime: time.Unix(int64(mtime), 0),
			IsDir:   flags&fscmd.FlagDirectory != 0,
		})
	}
	return entries, nil
}

// readWindow returns the largest window a READ reply can carry.
func (c *Client) readWindow() uint32 {
	return uint32(c.maxPacket - frameHeaderSize - readResponseHeaderSize)
}

// ReadFile fetches a whole file by issuing windowed READ commands until a
// short window marks the end.
func (c *Client) ReadFile(name string) ([]byte, error) {
	window := c.readWindow()
	var data []byte
	var offset uint32

	for {
		chunk, err := c.ReadAt(name, offset, window)
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		if uint32(len(chunk)) < window {
			return data, nil
		}
		offset += window
	}
}

// ReadAt issues one READ command for length bytes at offset. The returned
// slice may be shorter than length when the window reaches end of file.
func (c *Client) ReadAt(name string, offset, length uint32) ([]byte, error) {
	payload := codec.AppendString(nil, name)
	payload = codec.AppendUint32(payload, offset)
	payload = codec.AppendUint32(payload, length)

	d, err := c.roundTrip(fscmd.OpRead, payload)
	if err != nil {
		return nil, err
	}
	if err := checkError(fscmd.OpRead, d); err != nil {
		return nil, err
	}
	echoedOffset, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("client: READ reply: %w", err)
	}
	if echoedOffset != offset {
		return nil, fmt.Errorf("client: READ reply echoes offset %d, requested %d", echoedOffset, offset)
	}
	actual, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("client: READ reply: %w", err)
	}
	data, err := d.Bytes(int(actual))
	if err != nil {
		return nil, fmt.Errorf("client: READ reply declares %d data bytes: %w", actual, err)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// writeChunkSize returns the largest data run one WRITE or APPEND frame
// can carry for the given file name.
func (c *Client) writeChunkSize(name string) (int, error) {
	max := c.maxPacket - frameHeaderSize - codec.StringSize(name) - 4
	if max <= 0 {
		return 0, fmt.Errorf("client: file name %q leaves no room for data in a %d byte packet",
			name, c.maxPacket)
	}
	return max, nil
}

// WriteFile stores data under name, truncating any previous content. Data
// larger than one frame is split into an initial WRITE followed by APPEND
// commands.
func (c *Client) WriteFile(name string, data []byte) error {
	chunkSize, err := c.writeChunkSize(name)
	if err != nil {
		return err
	}

	first := len(data)
	if first > chunkSize {
		first = chunkSize
	}
	if err := c.writeChunk(fscmd.OpWrite, name, data[:first]); err != nil {
		return err
	}

	for off := first; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.writeChunk(fscmd.OpAppend, name, data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// AppendFile appends data to name, creating it if missing.
func (c *Client) AppendFile(name string, data []byte) error {
	chunkSize, err := c.writeChunkSize(name)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return c.writeChunk(fscmd.OpAppend, name, nil)
	}
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.writeChunk(fscmd.OpAppend, name, data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) writeChunk(op fscmd.Opcode, name string, data []byte) error {
	payload := codec.AppendString(nil, name)
	payload = codec.AppendUint32(payload, uint32(len(data)))
	payload = codec.AppendBytes(payload, data)

	d, err := c.roundTrip(op, payload)
	if err != nil {
		return err
	}
	return checkError(op, d)
}

// Mkdir creates a directory.
func (c *Client) Mkdir(dir string) error {
	return c.pathOp(fscmd.OpMkdir, dir)
}

// Rmdir removes an empty directory.
func (c *Client) Rmdir(dir string) error {
	return c.pathOp(fscmd.OpRmdir, dir)
}

// Remove removes a file.
func (c *Client) Remove(name string) error {
	return c.pathOp(fscmd.OpRemove, name)
}

func (c *Client) pathOp(op fscmd.Opcode, arg string) error {
	d, err := c.roundTrip(op, codec.AppendString(nil, arg))
	if err != nil {
		return err
	}
	return checkError(op, d)
}

// Format erases the filesystem.
func (c *Client) Format() error {
	d, err := c.roundTrip(fscmd.OpFormat, nil)
	if err != nil {
		return err
	}
	return checkError(fscmd.OpFormat, d)
}
