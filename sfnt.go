package woff2

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// SFNT versions (flavors) of the font data.
const (
	FlavorTrueType   uint32 = 0x00010000
	FlavorCFF        uint32 = 0x4F54544F // OTTO
	FlavorApple      uint32 = 0x74727565 // true
	FlavorPostScript uint32 = 0x74797031 // typ1
	FlavorCollection uint32 = 0x74746366 // ttcf
)

func checkFlavor(flavor uint32) error {
	switch flavor {
	case FlavorTrueType, FlavorCFF, FlavorApple, FlavorPostScript:
		return nil
	case FlavorCollection:
		return fmt.Errorf("collections are unsupported: %w", ErrUnsupportedVersion)
	}
	return fmt.Errorf("bad SFNT version %q: %w", uint32ToString(flavor), ErrUnsupportedVersion)
}

// sfnt is an SFNT font file as a set of tables keyed by tag.
type sfnt struct {
	Flavor uint32
	Tables map[string][]byte
}

func parseSFNT(b []byte) (*sfnt, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return nil, fmt.Errorf("offset table: %w", ErrMalformedDirectory)
	}

	r := parse.NewBinaryReaderBytes(b)
	flavor := r.ReadUint32()
	if err := checkFlavor(flavor); err != nil {
		return nil, err
	}
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if numTables == 0 {
		return nil, fmt.Errorf("numTables must not be zero: %w", ErrMalformedDirectory)
	} else if r.Len() < 16*int64(numTables) {
		return nil, fmt.Errorf("table records exceed file: %w", ErrMalformedDirectory)
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		if uint32(len(b)) < offset || uint32(len(b))-offset < length {
			return nil, fmt.Errorf("%s: table exceeds file: %w", tag, ErrMalformedDirectory)
		} else if _, ok := tables[tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once: %w", tag, ErrMalformedDirectory)
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}
	return &sfnt{
		Flavor: flavor,
		Tables: tables,
	}, nil
}

// Tags returns the table tags in ascending order.
func (s *sfnt) Tags() []string {
	tags := make([]string, 0, len(s.Tables))
	for tag := range s.Tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Length returns the size of the file written by Write.
func (s *sfnt) Length() uint64 {
	n := 12 + 16*uint64(len(s.Tables))
	for _, table := range s.Tables {
		n += pad4(uint64(len(table)))
	}
	return n
}

func (s *sfnt) numGlyphs() (uint16, bool) {
	maxp := s.Tables["maxp"]
	if len(maxp) < 6 {
		return 0, false
	}
	return binary.BigEndian.Uint16(maxp[4:]), true
}

func (s *sfnt) indexToLocFormat() (int16, bool) {
	head := s.Tables["head"]
	if len(head) < 54 {
		return 0, false
	}
	return int16(binary.BigEndian.Uint16(head[50:])), true
}

func (s *sfnt) numHMetrics() (uint16, bool) {
	hhea := s.Tables["hhea"]
	if len(hhea) < 36 {
		return 0, false
	}
	return binary.BigEndian.Uint16(hhea[34:]), true
}

// Write writes out the SFNT file with tables in ascending tag order, each padded to four bytes. Table checksums and the head table's checkSumAdjustment are recomputed.
func (s *sfnt) Write() []byte {
	tags := s.Tags()

	// find values for offset table
	numTables := len(tags)
	searchRange, entrySelector := 1, 0
	for searchRange*2 <= numTables {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16

	w := parse.NewBinaryWriter(make([]byte, 0, s.Length()))
	w.WriteUint32(s.Flavor)
	w.WriteUint16(uint16(numTables))
	w.WriteUint16(uint16(searchRange))
	w.WriteUint16(uint16(entrySelector))
	w.WriteUint16(uint16(numTables*16 - searchRange))

	// table records are filled in after the tables are written
	w.WriteBytes(make([]byte, 16*numTables))

	checkSumAdjustment := -1
	offsets := make([]int, numTables)
	for i, tag := range tags {
		offsets[i] = int(w.Len())
		table := s.Tables[tag]
		w.WriteBytes(table)
		if tag == "head" && 12 <= len(table) {
			checkSumAdjustment = offsets[i] + 8
		}
		for j := len(table); j%4 != 0; j++ {
			w.WriteByte(0)
		}
	}

	b := w.Bytes()
	if checkSumAdjustment != -1 {
		binary.BigEndian.PutUint32(b[checkSumAdjustment:], 0)
	}
	for i, tag := range tags {
		length := len(s.Tables[tag])
		record := b[12+16*i:]
		copy(record, tag)
		binary.BigEndian.PutUint32(record[4:], calcChecksum(b[offsets[i]:offsets[i]+int(pad4(uint64(length)))]))
		binary.BigEndian.PutUint32(record[8:], uint32(offsets[i]))
		binary.BigEndian.PutUint32(record[12:], uint32(length))
	}
	if checkSumAdjustment != -1 {
		binary.BigEndian.PutUint32(b[checkSumAdjustment:], 0xB1B0AFBA-calcChecksum(b))
	}
	return b
}
