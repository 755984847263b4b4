package woff2

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NameID is the identifier of a string in the name table.
type NameID uint16

// see https://learn.microsoft.com/en-us/typography/opentype/spec/name#name-ids
const (
	NameCopyrightNotice NameID = iota
	NameFontFamily
	NameFontSubfamily
	NameUniqueIdentifier
	NameFull
	NameVersion
	NamePostScript
	NameTrademark
	NameManufacturer
	NameDesigner
	NameDescription
	NameVendorURL
	NameDesignerURL
	NameLicense
	NameLicenseURL
	_
	NamePreferredFamily
	NamePreferredSubfamily
)

// PlatformID is the platform of a name record.
type PlatformID uint16

const (
	PlatformUnicode   PlatformID = 0
	PlatformMacintosh PlatformID = 1
	PlatformWindows   PlatformID = 3
)

const encodingMacintoshRoman = 0

type nameRecord struct {
	Platform PlatformID
	Encoding uint16
	Name     NameID
	Value    []byte
}

func (record nameRecord) decoder() *encoding.Decoder {
	if record.Platform == PlatformUnicode || record.Platform == PlatformWindows {
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	} else if record.Platform == PlatformMacintosh && record.Encoding == encodingMacintoshRoman {
		return charmap.Macintosh.NewDecoder()
	}
	return nil
}

func parseNameRecords(b []byte) ([]nameRecord, error) {
	if len(b) < 6 {
		return nil, fmt.Errorf("name: bad table")
	}

	r := parse.NewBinaryReaderBytes(b)
	version := r.ReadUint16()
	if version != 0 && version != 1 {
		return nil, fmt.Errorf("name: bad version")
	}
	count := r.ReadUint16()
	storageOffset := uint32(r.ReadUint16())
	if uint32(len(b)) < 6+12*uint32(count) || uint32(len(b)) < storageOffset {
		return nil, fmt.Errorf("name: bad table")
	}

	records := make([]nameRecord, count)
	for i := range records {
		records[i].Platform = PlatformID(r.ReadUint16())
		records[i].Encoding = r.ReadUint16()
		_ = r.ReadUint16() // language
		records[i].Name = NameID(r.ReadUint16())

		length := uint32(r.ReadUint16())
		offset := uint32(r.ReadUint16())
		if uint32(len(b))-storageOffset < offset || uint32(len(b))-storageOffset-offset < length {
			return nil, fmt.Errorf("name: bad record")
		}
		records[i].Value = b[storageOffset+offset : storageOffset+offset+length]
	}
	return records, nil
}

// Name returns a string from the name table of an SFNT font. Windows and Unicode platform strings are preferred over Macintosh ones. It returns an empty string if the name does not exist.
func Name(b []byte, id NameID) (string, error) {
	font, err := parseSFNT(b)
	if err != nil {
		return "", err
	}
	table, ok := font.Tables["name"]
	if !ok {
		return "", fmt.Errorf("name: missing table")
	}
	records, err := parseNameRecords(table)
	if err != nil {
		return "", err
	}

	var fallback *nameRecord
	for i, record := range records {
		if record.Name != id {
			continue
		}
		if record.Platform == PlatformWindows || record.Platform == PlatformUnicode {
			fallback = &records[i]
			break
		} else if fallback == nil && record.decoder() != nil {
			fallback = &records[i]
		}
	}
	if fallback == nil {
		return "", nil
	}
	s, _, err := transform.String(fallback.decoder(), string(fallback.Value))
	if err != nil {
		return "", fmt.Errorf("name: %v", err)
	}
	return s, nil
}
