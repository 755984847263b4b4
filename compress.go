package woff2

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// compress writes a single Brotli stream of the concatenated chunks to w.
func compress(w io.Writer, quality int, chunks ...[]byte) error {
	wBrotli := brotli.NewWriterOptions(w, brotli.WriterOptions{
		Quality: quality,
	})
	for _, chunk := range chunks {
		if _, err := wBrotli.Write(chunk); err != nil {
			return err
		}
	}
	return wBrotli.Close()
}

// decompress decompresses a Brotli stream that must decode to exactly size bytes. The size is checked against maxMemory before allocating, and no more than size bytes are ever decoded.
func decompress(b []byte, size, maxMemory uint32) ([]byte, error) {
	if maxMemory < size {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes: %w", ErrDecompression, size, maxMemory, ErrExceedsMemory)
	}

	rBrotli := brotli.NewReader(bytes.NewReader(b))
	data := make([]byte, size)
	var n int
	var err error
	for n < len(data) && err == nil {
		var m int
		m, err = rBrotli.Read(data[n:])
		n += m
	}
	if err == io.EOF && n < len(data) {
		// the stream is complete but shorter than the table lengths
		return nil, fmt.Errorf("%w: stream decodes to %d bytes instead of %d: %w", ErrDecompression, n, size, ErrMalformedDirectory)
	} else if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}

	// the stream must end here and all input must be consumed
	if n, err := io.Copy(io.Discard, io.LimitReader(rBrotli, 1)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	} else if n != 0 {
		return nil, fmt.Errorf("%w: decompressed data exceeds %d bytes", ErrDecompression, size)
	}
	return data, nil
}
