package woff2

import (
	"encoding/binary"
	"fmt"
)

// DefaultMaxMemory is the maximum memory that can be allocated by a decoded font when no other limit is given.
const DefaultMaxMemory uint32 = 30 * 1024 * 1024

// ErrMalformedDirectory is returned if a table directory or container header is malformed.
var ErrMalformedDirectory = fmt.Errorf("malformed table directory")

// ErrTransformReversal is returned if a transformed table cannot be reconstructed.
var ErrTransformReversal = fmt.Errorf("bad transformed table")

// ErrDecompression is returned if a Brotli stream is truncated, corrupt, or larger than allowed.
var ErrDecompression = fmt.Errorf("decompression failed")

// ErrUnsupportedVersion is returned for unknown signatures or font flavors, including font collections.
var ErrUnsupportedVersion = fmt.Errorf("unsupported version")

// ErrSizeMismatch is returned if a reconstructed font does not have the size recorded in the header.
var ErrSizeMismatch = fmt.Errorf("size mismatch")

// ErrInvalidParameter is returned for invalid conversion parameters.
var ErrInvalidParameter = fmt.Errorf("invalid parameter")

// ErrExceedsMemory is returned together with another error if a font would exceed the memory limit.
var ErrExceedsMemory = fmt.Errorf("memory limit exceeded")

// calcChecksum sums big-endian uint32 words, zero-padding a trailing partial word.
func calcChecksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	if n < len(b) {
		var tail [4]byte
		copy(tail[:], b[n:])
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}

func pad4(n uint64) uint64 {
	return (n + 3) &^ 3
}

func uint32ToString(v uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return string(b)
}

// bitmaps in transformed tables store one bit per glyph, most significant bit first
func bitmapSize(numGlyphs uint16) uint32 {
	return ((uint32(numGlyphs) + 31) >> 5) << 2
}

func bitmapGet(b []byte, i int) bool {
	return b[i>>3]&(0x80>>(i&7)) != 0
}

func bitmapSet(b []byte, i int) {
	b[i>>3] |= 0x80 >> (i & 7)
}
