package woff2

// MaxCompressedSize returns an upper bound on the size of the WOFF2 file that Encode produces for an SFNT font of the given length and metadata. Encode never returns a larger file.
func MaxCompressedSize(length, metadataLength int) int {
	// table directory, Brotli overhead, and padding
	return length + 1024 + metadataLength
}

// FinalSize returns the size of the SFNT font that a WOFF2 file decodes to, as recorded in its header.
func FinalSize(b []byte) (uint32, error) {
	h, err := readHeader(b)
	if err != nil {
		return 0, err
	}
	return h.TotalSfntSize, nil
}
