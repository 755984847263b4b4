package woff2

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// Other implementations:
// https://github.com/google/woff2/tree/master/src
// https://github.com/fonttools/fonttools/blob/master/Lib/fontTools/ttLib/woff2.py

const headerSize = 48

// knownTags is indexed by the lower six bits of a directory entry's flags, index 63 means an explicit tag follows.
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

func knownTagIndex(tag string) byte {
	for i, knownTag := range knownTags {
		if knownTag == tag {
			return byte(i)
		}
	}
	return 63
}

// Header is the fixed-size header of a WOFF2 file.
type Header struct {
	Flavor              uint32
	Length              uint32
	NumTables           uint16
	TotalSfntSize       uint32
	TotalCompressedSize uint32
	MajorVersion        uint16
	MinorVersion        uint16
	MetaOffset          uint32
	MetaLength          uint32
	MetaOrigLength      uint32
	PrivOffset          uint32
	PrivLength          uint32
}

// TableEntry is an entry of the WOFF2 table directory. TransformVersion is the two-bit transform version of the flags field: for glyf and loca 0 means transformed and 3 means untransformed, for hmtx 1 means transformed, all other tables only support 0.
type TableEntry struct {
	Tag              string
	TransformVersion int
	OrigLength       uint32
	TransformLength  uint32
}

// Transformed returns true if the table is stored in its transformed representation.
func (e TableEntry) Transformed() bool {
	switch e.Tag {
	case "glyf", "loca":
		return e.TransformVersion == 0
	case "hmtx":
		return e.TransformVersion == 1
	}
	return false
}

// Length returns the number of bytes the table occupies in the decompressed font data.
func (e TableEntry) Length() uint32 {
	if e.Transformed() {
		return e.TransformLength
	}
	return e.OrigLength
}

// Directory is the header and table directory of a WOFF2 file.
type Directory struct {
	Header
	Tables     []TableEntry
	DataOffset uint32 // offset of the compressed font data
}

// Index returns the position of the table in the directory, or -1 if it doesn't exist.
func (dir *Directory) Index(tag string) int {
	for i, table := range dir.Tables {
		if table.Tag == tag {
			return i
		}
	}
	return -1
}

// UncompressedSize returns the size of the decompressed font data.
func (dir *Directory) UncompressedSize() uint32 {
	var n uint32
	for _, table := range dir.Tables {
		n += table.Length() // checked for overflow by ReadDirectory
	}
	return n
}

func readHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, fmt.Errorf("header: %w", ErrMalformedDirectory)
	}

	r := parse.NewBinaryReaderBytes(b)
	if signature := r.ReadString(4); signature != "wOF2" {
		return Header{}, fmt.Errorf("bad signature %q: %w", signature, ErrUnsupportedVersion)
	}

	h := Header{}
	h.Flavor = r.ReadUint32()
	h.Length = r.ReadUint32()
	h.NumTables = r.ReadUint16()
	reserved := r.ReadUint16()
	h.TotalSfntSize = r.ReadUint32()
	h.TotalCompressedSize = r.ReadUint32()
	h.MajorVersion = r.ReadUint16()
	h.MinorVersion = r.ReadUint16()
	h.MetaOffset = r.ReadUint32()
	h.MetaLength = r.ReadUint32()
	h.MetaOrigLength = r.ReadUint32()
	h.PrivOffset = r.ReadUint32()
	h.PrivLength = r.ReadUint32()
	if err := checkFlavor(h.Flavor); err != nil {
		return Header{}, err
	} else if reserved != 0 {
		return Header{}, fmt.Errorf("reserved in header must be zero: %w", ErrMalformedDirectory)
	}
	return h, nil
}

func writeHeader(w *parse.BinaryWriter, h Header) {
	w.WriteString("wOF2")
	w.WriteUint32(h.Flavor)
	w.WriteUint32(h.Length)
	w.WriteUint16(h.NumTables)
	w.WriteUint16(0) // reserved
	w.WriteUint32(h.TotalSfntSize)
	w.WriteUint32(h.TotalCompressedSize)
	w.WriteUint16(h.MajorVersion)
	w.WriteUint16(h.MinorVersion)
	w.WriteUint32(h.MetaOffset)
	w.WriteUint32(h.MetaLength)
	w.WriteUint32(h.MetaOrigLength)
	w.WriteUint32(h.PrivOffset)
	w.WriteUint32(h.PrivLength)
}

// ReadDirectory parses the header and table directory of a WOFF2 file. It validates that all offsets and lengths lie within the file, but does not decompress the font data.
func ReadDirectory(b []byte) (*Directory, error) {
	h, err := readHeader(b)
	if err != nil {
		return nil, err
	} else if uint(math.MaxUint32) < uint(len(b)) || h.Length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size: %w", ErrMalformedDirectory)
	} else if h.NumTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero: %w", ErrMalformedDirectory)
	}

	r := parse.NewBinaryReaderBytes(b)
	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("header: %w", ErrMalformedDirectory)
	}

	var size uint64
	tables := make([]TableEntry, 0, h.NumTables)
	tagTableIndex := make(map[string]int, h.NumTables)
	for i := 0; i < int(h.NumTables); i++ {
		table, err := readTableEntry(r)
		if err != nil {
			return nil, err
		} else if _, ok := tagTableIndex[table.Tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once: %w", table.Tag, ErrMalformedDirectory)
		} else if table.Tag == "loca" {
			if _, hasGlyf := tagTableIndex["glyf"]; !hasGlyf {
				return nil, fmt.Errorf("loca: must come after glyf table: %w", ErrMalformedDirectory)
			}
		}
		size += uint64(table.Length())
		tagTableIndex[table.Tag] = len(tables)
		tables = append(tables, table)
	}
	if math.MaxUint32 < size {
		return nil, fmt.Errorf("sum of table lengths overflows: %w", ErrMalformedDirectory)
	}

	iGlyf, hasGlyf := tagTableIndex["glyf"]
	iLoca, hasLoca := tagTableIndex["loca"]
	if hasGlyf != hasLoca || hasGlyf && tables[iGlyf].TransformVersion != tables[iLoca].TransformVersion {
		return nil, fmt.Errorf("glyf and loca tables must be both present and either be both transformed or untransformed: %w", ErrMalformedDirectory)
	} else if hasLoca && tables[iLoca].TransformLength != 0 {
		return nil, fmt.Errorf("loca: transformLength must be zero: %w", ErrMalformedDirectory)
	}
	if iHmtx, hasHmtx := tagTableIndex["hmtx"]; hasHmtx && tables[iHmtx].Transformed() && (!hasGlyf || !tables[iGlyf].Transformed()) {
		return nil, fmt.Errorf("hmtx: transform requires a transformed glyf table: %w", ErrMalformedDirectory)
	}

	dataOffset := uint32(r.Pos())
	if h.Length-dataOffset < h.TotalCompressedSize {
		return nil, fmt.Errorf("compressed font data exceeds file: %w", ErrMalformedDirectory)
	}
	dataEnd := dataOffset + h.TotalCompressedSize
	if err := checkBlock("metadata", h.MetaOffset, h.MetaLength, dataEnd, h.Length); err != nil {
		return nil, err
	} else if h.MetaLength == 0 && h.MetaOrigLength != 0 {
		return nil, fmt.Errorf("metadata: metaOrigLength must be zero: %w", ErrMalformedDirectory)
	} else if err := checkBlock("private data", h.PrivOffset, h.PrivLength, dataEnd, h.Length); err != nil {
		return nil, err
	}
	return &Directory{
		Header:     h,
		Tables:     tables,
		DataOffset: dataOffset,
	}, nil
}

// checkBlock checks that an optional block lies after the compressed font data and within the file.
func checkBlock(name string, offset, length, dataEnd, fileLength uint32) error {
	if length == 0 {
		if offset != 0 {
			return fmt.Errorf("%s: offset must be zero for an empty block: %w", name, ErrMalformedDirectory)
		}
		return nil
	} else if offset < dataEnd || fileLength < offset || fileLength-offset < length {
		return fmt.Errorf("%s: block exceeds file: %w", name, ErrMalformedDirectory)
	}
	return nil
}

func readTableEntry(r *parse.BinaryReader) (TableEntry, error) {
	if r.Len() < 1 {
		return TableEntry{}, fmt.Errorf("table directory exceeds file: %w", ErrMalformedDirectory)
	}
	flags := r.ReadUint8()
	tagIndex := int(flags & 0x3F)
	transformVersion := int(flags >> 6)

	var tag string
	if tagIndex == 63 {
		if r.Len() < 4 {
			return TableEntry{}, fmt.Errorf("table directory exceeds file: %w", ErrMalformedDirectory)
		}
		tag = r.ReadString(4)
	} else {
		tag = knownTags[tagIndex]
	}

	origLength, err := readUintBase128(r)
	if err != nil {
		return TableEntry{}, fmt.Errorf("%s: origLength: %w", tag, err)
	}
	table := TableEntry{
		Tag:              tag,
		TransformVersion: transformVersion,
		OrigLength:       origLength,
	}

	if table.Transformed() {
		table.TransformLength, err = readUintBase128(r)
		if err != nil {
			return TableEntry{}, fmt.Errorf("%s: transformLength: %w", tag, err)
		} else if tag != "loca" && table.TransformLength == 0 {
			return TableEntry{}, fmt.Errorf("%s: transformLength must be set: %w", tag, ErrMalformedDirectory)
		}
	} else if transformVersion != 0 && !(transformVersion == 3 && (tag == "glyf" || tag == "loca")) {
		return TableEntry{}, fmt.Errorf("%s: invalid transformation %d: %w", tag, transformVersion, ErrMalformedDirectory)
	}
	return table, nil
}

// writeDirectory writes the table directory with the entries in ascending tag order, regardless of the order given.
func writeDirectory(w *parse.BinaryWriter, tables []TableEntry) {
	sorted := make([]TableEntry, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tag < sorted[j].Tag
	})

	for _, table := range sorted {
		writeTableEntry(w, table)
	}
}

func writeTableEntry(w *parse.BinaryWriter, table TableEntry) {
	tagIndex := knownTagIndex(table.Tag)
	w.WriteUint8(byte(table.TransformVersion)<<6 | tagIndex) // flags
	if tagIndex == 63 {
		w.WriteString(table.Tag)
	}
	writeUintBase128(w, table.OrigLength)
	if table.Transformed() {
		writeUintBase128(w, table.TransformLength)
	}
}

func readUintBase128(r *parse.BinaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		if r.Len() < 1 {
			return 0, fmt.Errorf("UIntBase128 exceeds data: %w", ErrMalformedDirectory)
		}
		dataByte := r.ReadUint8()
		if i == 0 && dataByte == 0x80 {
			return 0, fmt.Errorf("UIntBase128 must not start with leading zeros: %w", ErrMalformedDirectory)
		} else if (accum & 0xFE000000) != 0 {
			return 0, fmt.Errorf("UIntBase128 overflows: %w", ErrMalformedDirectory)
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, fmt.Errorf("UIntBase128 exceeds 5 bytes: %w", ErrMalformedDirectory)
}

func writeUintBase128(w *parse.BinaryWriter, accum uint32) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if accum == 0 {
		w.WriteByte(0)
		return
	}
	written := false
	for i := 4; 0 <= i; i-- {
		if v := (accum >> (i * 7)) & 0x7F; written || v != 0 {
			if i != 0 {
				v |= 0x80
			}
			w.WriteByte(byte(v))
			written = true
		}
	}
}

// read255Uint16 reads a 255UInt16 and returns false if the data is too short.
func read255Uint16(r *parse.BinaryReader) (uint16, bool) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if r.Len() < 1 {
		return 0, false
	}
	switch code := r.ReadUint8(); code {
	case 253:
		if r.Len() < 2 {
			return 0, false
		}
		return r.ReadUint16(), true
	case 254:
		if r.Len() < 1 {
			return 0, false
		}
		return uint16(r.ReadUint8()) + 253*2, true
	case 255:
		if r.Len() < 1 {
			return 0, false
		}
		return uint16(r.ReadUint8()) + 253, true
	default:
		return uint16(code), true
	}
}

func write255Uint16(w *parse.BinaryWriter, val uint16) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if val < 253 {
		w.WriteByte(byte(val))
	} else if val < 256+253 {
		w.WriteByte(255)
		w.WriteByte(byte(val - 253))
	} else if val < 256+253*2 {
		w.WriteByte(254)
		w.WriteByte(byte(val - 253*2))
	} else {
		w.WriteByte(253)
		w.WriteUint16(val)
	}
}
