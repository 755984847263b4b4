package woff2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
)

// EncodeOptions are the options for converting an SFNT font to WOFF2.
type EncodeOptions struct {
	Quality   int    // Brotli compression quality, between 0 and 11 inclusive
	Transform bool   // allow the glyf, loca, and hmtx table transforms
	Metadata  []byte // extended metadata, stored Brotli compressed
}

// DefaultEncodeOptions are the options that produce the smallest files.
var DefaultEncodeOptions = EncodeOptions{
	Quality:   brotli.BestCompression,
	Transform: true,
}

// DecodeOptions are the options for converting a WOFF2 font to SFNT.
type DecodeOptions struct {
	MaxMemory uint32 // maximum size of the decoded font and its decompressed data, zero means DefaultMaxMemory
}

func (opts DecodeOptions) maxMemory() uint32 {
	if opts.MaxMemory == 0 {
		return DefaultMaxMemory
	}
	return opts.MaxMemory
}

// ConvertTTFToWOFF2 converts an SFNT font (TTF or OTF) to the WOFF2 format. The metadata may be nil.
func ConvertTTFToWOFF2(ttf, metadata []byte, quality int, allowTransforms bool) ([]byte, error) {
	return Encode(ttf, EncodeOptions{
		Quality:   quality,
		Transform: allowTransforms,
		Metadata:  metadata,
	})
}

// ConvertWOFF2ToTTF converts a WOFF2 font to its SFNT font (TTF or OTF), limiting memory to DefaultMaxMemory.
func ConvertWOFF2ToTTF(b []byte) ([]byte, error) {
	return Decode(b, DecodeOptions{})
}

// Encode converts an SFNT font (TTF or OTF) to the WOFF2 format. Tables are written in ascending tag order and the DSIG table is dropped. With transforms allowed, the glyf and loca tables are normalized and transformed, and the hmtx table is transformed if its left side bearings match the glyph bounding boxes. See https://www.w3.org/TR/WOFF2/
func Encode(b []byte, opts EncodeOptions) ([]byte, error) {
	if opts.Quality < brotli.BestSpeed || brotli.BestCompression < opts.Quality {
		return nil, fmt.Errorf("quality %d must be between %d and %d: %w", opts.Quality, brotli.BestSpeed, brotli.BestCompression, ErrInvalidParameter)
	}

	font, err := parseSFNT(b)
	if err != nil {
		return nil, err
	}

	maxSize := MaxCompressedSize(len(b), len(opts.Metadata))
	w, err := encode(font, opts.Quality, opts.Transform, opts.Metadata, maxSize)
	if err == nil && maxSize < len(w) && opts.Transform {
		// transformed tables may be larger than the originals
		w, err = encode(font, opts.Quality, false, opts.Metadata, maxSize)
	}
	if err != nil {
		return nil, err
	} else if maxSize < len(w) {
		return nil, fmt.Errorf("output of %d bytes exceeds maximum of %d bytes: %w", len(w), maxSize, ErrSizeMismatch)
	}
	return w, nil
}

func encode(font *sfnt, quality int, allowTransforms bool, metadata []byte, maxSize int) ([]byte, error) {
	tags := make([]string, 0, len(font.Tables))
	for _, tag := range font.Tags() {
		if tag != "DSIG" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("font has no tables besides DSIG: %w", ErrMalformedDirectory)
	}

	_, hasGlyf := font.Tables["glyf"]
	_, hasLoca := font.Tables["loca"]
	if hasGlyf != hasLoca {
		return nil, fmt.Errorf("glyf and loca tables must be both present: %w", ErrMalformedDirectory)
	}

	var glyf *transformedGlyf
	var hmtx []byte
	if allowTransforms && hasGlyf {
		numGlyphs, okMaxp := font.numGlyphs()
		indexFormat, okHead := font.indexToLocFormat()
		if okMaxp && okHead {
			// fall back to untransformed tables on error
			glyf, _ = transformGlyf(font.Tables["glyf"], font.Tables["loca"], numGlyphs, indexFormat)
		}
		if numHMetrics, ok := font.numHMetrics(); glyf != nil && ok && font.Tables["hmtx"] != nil {
			hmtx = transformHmtx(font.Tables["hmtx"], numHMetrics, glyf.XMins)
		}
	}

	// collect table entries and the font data to compress, in directory order
	var totalSfntSize uint64 = 12 + 16*uint64(len(tags))
	entries := make([]TableEntry, 0, len(tags))
	chunks := make([][]byte, 0, len(tags))
	for _, tag := range tags {
		data := font.Tables[tag]
		entry := TableEntry{
			Tag: tag,
		}
		switch tag {
		case "head":
			if glyf != nil && 18 <= len(data) {
				// set bit 11 in flags, glyf and loca have been losslessly modified
				head := make([]byte, len(data))
				copy(head, data)
				flags := binary.BigEndian.Uint16(head[16:])
				binary.BigEndian.PutUint16(head[16:], flags|0x0800)
				data = head
			}
		case "glyf":
			if glyf == nil {
				entry.TransformVersion = 3
			} else {
				entry.OrigLength = uint32(len(glyf.Glyf))
				entry.TransformLength = uint32(len(glyf.Data))
				data = glyf.Data
			}
		case "loca":
			if glyf == nil {
				entry.TransformVersion = 3
			} else {
				entry.OrigLength = uint32(len(glyf.Loca))
				data = nil // reconstructed from glyf
			}
		case "hmtx":
			if hmtx != nil {
				entry.TransformVersion = 1
				entry.OrigLength = uint32(len(data))
				entry.TransformLength = uint32(len(hmtx))
				data = hmtx
			}
		}
		if !entry.Transformed() {
			entry.OrigLength = uint32(len(data))
		}
		totalSfntSize += pad4(uint64(entry.OrigLength))
		entries = append(entries, entry)
		chunks = append(chunks, data)
	}
	if math.MaxUint32 < totalSfntSize {
		return nil, fmt.Errorf("font too large: %w", ErrSizeMismatch)
	}

	w := parse.NewBinaryWriter(make([]byte, 0, maxSize))
	writeHeader(w, Header{
		Flavor:        font.Flavor,
		NumTables:     uint16(len(entries)),
		TotalSfntSize: uint32(totalSfntSize),
		MajorVersion:  1,
		MinorVersion:  0,
	})
	writeDirectory(w, entries)

	dataOffset := w.Len()
	if err := compress(w, quality, chunks...); err != nil {
		return nil, err
	}
	totalCompressedSize := w.Len() - dataOffset // excludes padding

	var metaOffset, metaLength int64
	if 0 < len(metadata) {
		// pad font data to 4-byte boundary, required by at least Firefox
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
		metaOffset = w.Len()
		if err := compress(w, quality, metadata); err != nil {
			return nil, err
		}
		metaLength = w.Len() - metaOffset
	} else {
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}

	b := w.Bytes()
	if math.MaxUint32 < uint64(len(b)) {
		return nil, fmt.Errorf("output too large: %w", ErrSizeMismatch)
	}
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))               // length
	binary.BigEndian.PutUint32(b[20:], uint32(totalCompressedSize)) // totalCompressedSize
	if 0 < len(metadata) {
		binary.BigEndian.PutUint32(b[28:], uint32(metaOffset))    // metaOffset
		binary.BigEndian.PutUint32(b[32:], uint32(metaLength))    // metaLength
		binary.BigEndian.PutUint32(b[36:], uint32(len(metadata))) // metaOrigLength
	}
	return b, nil
}

// Decode converts a WOFF2 font to its SFNT font (TTF or OTF). The decoded font has its tables in ascending tag order with recomputed checksums. See https://www.w3.org/TR/WOFF2/
func Decode(b []byte, opts DecodeOptions) ([]byte, error) {
	maxMemory := opts.maxMemory()
	dir, err := ReadDirectory(b)
	if err != nil {
		return nil, err
	} else if maxMemory < dir.TotalSfntSize {
		return nil, fmt.Errorf("%w: totalSfntSize of %d bytes exceeds limit of %d bytes: %w", ErrDecompression, dir.TotalSfntSize, maxMemory, ErrExceedsMemory)
	} else if dir.Index("DSIG") != -1 {
		return nil, fmt.Errorf("DSIG: must be removed: %w", ErrMalformedDirectory)
	}

	// decompress font data using Brotli
	data, err := decompress(b[dir.DataOffset:dir.DataOffset+dir.TotalCompressedSize], dir.UncompressedSize(), maxMemory)
	if err != nil {
		return nil, err
	}

	// split font data, lengths sum to the decompressed size
	var offset uint32
	tables := make(map[string][]byte, len(dir.Tables))
	for _, table := range dir.Tables {
		n := table.Length()
		tables[table.Tag] = data[offset : offset+n : offset+n]
		offset += n
	}

	// detransform font data tables
	ctx := &transformContext{
		maxSize: maxMemory,
	}
	if iGlyf := dir.Index("glyf"); iGlyf != -1 && dir.Tables[iGlyf].Transformed() {
		ctx.locaLength = dir.Tables[dir.Index("loca")].OrigLength
		if tables["glyf"], tables["loca"], err = reconstructGlyfLoca(tables["glyf"], ctx); err != nil {
			return nil, err
		}
	}
	if iHmtx := dir.Index("hmtx"); iHmtx != -1 && dir.Tables[iHmtx].Transformed() {
		font := &sfnt{Tables: tables}
		numHMetrics, ok := font.numHMetrics()
		if !ok {
			return nil, fmt.Errorf("hmtx: hhea table must be defined in order to rebuild hmtx table: %w", ErrTransformReversal)
		}
		if tables["hmtx"], err = reconstructHmtx(tables["hmtx"], numHMetrics, ctx); err != nil {
			return nil, err
		} else if uint32(len(tables["hmtx"])) != dir.Tables[iHmtx].OrigLength {
			return nil, fmt.Errorf("hmtx: origLength must match reconstructed table: %w", ErrTransformReversal)
		}
	}

	font := &sfnt{
		Flavor: dir.Flavor,
		Tables: tables,
	}
	if length := font.Length(); length != uint64(dir.TotalSfntSize) {
		return nil, fmt.Errorf("reconstructed font of %d bytes must match totalSfntSize of %d bytes: %w", length, dir.TotalSfntSize, ErrSizeMismatch)
	}
	return font.Write(), nil
}

// Metadata returns the decompressed extended metadata block of a WOFF2 font, or nil if it has none.
func Metadata(b []byte, opts DecodeOptions) ([]byte, error) {
	dir, err := ReadDirectory(b)
	if err != nil {
		return nil, err
	} else if dir.MetaLength == 0 {
		return nil, nil
	}
	return decompress(b[dir.MetaOffset:dir.MetaOffset+dir.MetaLength], dir.MetaOrigLength, opts.maxMemory())
}
