package codec

import "encoding/binary"

// Appenders for the packed little-endian wire format. They grow b the way
// the standard binary.Append helpers do; bounded-capacity enforcement is
// the response builder's job, which checks remaining space before calling
// these.

// AppendUint8 appends one byte.
func AppendUint8(b []byte, v uint8) []byte {
	return append(b, v)
}

// AppendUint16 appends a little-endian u16.
func AppendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

// AppendUint32 appends a little-endian u32.
func AppendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// AppendBytes appends a counted byte run. The count itself travels in a
// separate length field written by the caller.
func AppendBytes(b, data []byte) []byte {
	return append(b, data...)
}

// AppendString appends s followed by its NUL terminator.
func AppendString(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

// StringSize returns the encoded size of s: its bytes plus the terminator.
func StringSize(s string) int {
	return len(s) + 1
}
