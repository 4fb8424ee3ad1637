package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderReadsLittleEndian(t *testing.T) {
	buf := []byte{0x2A, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12}
	d := NewDecoder(buf)

	b, err := d.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2A), b)

	u16, err := d.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	assert.Equal(t, 0, d.Remaining())
}

func TestDecoderString(t *testing.T) {
	t.Run("StopsAtNUL", func(t *testing.T) {
		d := NewDecoder([]byte{'a', 'b', 'c', 0, 0xFF})

		s, err := d.String()
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
		assert.Equal(t, 1, d.Remaining())
	})

	t.Run("EmptyString", func(t *testing.T) {
		d := NewDecoder([]byte{0, 0x01})

		s, err := d.String()
		require.NoError(t, err)
		assert.Equal(t, "", s)
		assert.Equal(t, 1, d.Remaining())
	})

	t.Run("MissingTerminatorIsTruncation", func(t *testing.T) {
		d := NewDecoder([]byte{'a', 'b', 'c'})

		_, err := d.String()
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("CopiesOutOfBuffer", func(t *testing.T) {
		buf := []byte{'h', 'i', 0}
		d := NewDecoder(buf)

		s, err := d.String()
		require.NoError(t, err)
		buf[0] = 'X'
		assert.Equal(t, "hi", s)
	})
}

func TestDecoderTruncation(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		read func(d *Decoder) error
	}{
		{"Uint8OnEmpty", nil, func(d *Decoder) error { _, err := d.Uint8(); return err }},
		{"Uint16OnOneByte", []byte{1}, func(d *Decoder) error { _, err := d.Uint16(); return err }},
		{"Uint32OnThreeBytes", []byte{1, 2, 3}, func(d *Decoder) error { _, err := d.Uint32(); return err }},
		{"BytesBeyondEnd", []byte{1, 2}, func(d *Decoder) error { _, err := d.Bytes(3); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.buf)
			assert.ErrorIs(t, tt.read(d), ErrTruncated)
		})
	}
}

func TestDecoderOffsetUnchangedAfterTruncation(t *testing.T) {
	d := NewDecoder([]byte{0xAB})

	_, err := d.Uint32()
	require.ErrorIs(t, err, ErrTruncated)

	// The failed read must not consume anything.
	b, err := d.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), b)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendUint8(buf, 0x40)
	buf = AppendUint16(buf, 513)
	buf = AppendUint32(buf, 70000)
	buf = AppendString(buf, "boot.cfg")
	buf = AppendBytes(buf, []byte{0xDE, 0xAD})

	d := NewDecoder(buf)

	u8, err := d.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x40), u8)

	u16, err := d.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(513), u16)

	u32, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(70000), u32)

	s, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "boot.cfg", s)

	raw, err := d.Bytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, raw)

	assert.Equal(t, 0, d.Remaining())
}

func TestStringSize(t *testing.T) {
	assert.Equal(t, 1, StringSize(""))
	assert.Equal(t, 9, StringSize("boot.cfg"))
}
