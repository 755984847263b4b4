package woff2

import (
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func TestGlyphWrite(t *testing.T) {
	for i, g := range testGlyphs() {
		w := parse.NewBinaryWriter([]byte{})
		g.write(w)
		test.T(t, w.Len()%4, int64(0), i)

		g2, err := parseGlyph(w.Bytes())
		test.Error(t, err, i)
		w2 := parse.NewBinaryWriter([]byte{})
		g2.write(w2)
		test.Bytes(t, w2.Bytes(), w.Bytes(), i)
	}
}

func TestGlyphRepeatFlags(t *testing.T) {
	g := testGlyphs()[3] // 600 points
	w := parse.NewBinaryWriter([]byte{})
	g.write(w)

	// header, endPtsOfContours, instructionLength, flags, xCoordinates
	test.T(t, w.Len(), int64(10+2+2+7+599))
	test.Bytes(t, w.Bytes()[14:21], []byte{0x31, 0x3B, 0xFF, 0x3B, 0xFF, 0x3B, 0x56})

	g2, err := parseGlyph(w.Bytes())
	test.Error(t, err)
	test.T(t, g2.XCoordinates, g.XCoordinates)
	test.T(t, g2.YCoordinates, g.YCoordinates)
	test.T(t, g2.OnCurve, g.OnCurve)
}

func TestParseGlyph(t *testing.T) {
	g, err := parseGlyph(nil)
	test.Error(t, err)
	test.That(t, g.IsEmpty())

	// zero contours with a bounding box
	g, err = parseGlyph([]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01})
	test.Error(t, err)
	test.That(t, g.IsEmpty())
	test.T(t, g.XMin, int16(0))

	// composite glyphs are normalized to -1 contours
	g, err = parseGlyph([]byte{0xFF, 0xFE, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x0A, 0x00, 0x02, 0x00, 0x01, 0x01, 0x02})
	test.Error(t, err)
	test.That(t, g.IsComposite())
	test.T(t, g.NumberOfContours, int16(-1))
	test.Bytes(t, g.Components, []byte{0x00, 0x02, 0x00, 0x01, 0x01, 0x02})
	test.That(t, !g.HasInstructions)

	// composite glyph with instructions
	g, err = parseGlyph([]byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x0A, 0x01, 0x02, 0x00, 0x01, 0x01, 0x02, 0x00, 0x02, 0xB0, 0x00})
	test.Error(t, err)
	test.That(t, g.HasInstructions)
	test.Bytes(t, g.Instructions, []byte{0xB0, 0x00})
}

func TestParseGlyphErrors(t *testing.T) {
	var tests = []struct {
		name string
		b    []byte
	}{
		{"header", []byte{0x00, 0x01, 0x00}},
		{"endPtsOfContours", []byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{"decreasing endPtsOfContours", []byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00, 0x00}},
		{"instructions", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0x00}},
		{"flags", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x31}},
		{"repeat", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x39, 0x05}},
		{"coordinates", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}},
		{"composite", []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x23, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{"composite instructions", []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x00, 0x01, 0x01, 0x02, 0x00, 0x05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseGlyph(tt.b)
			test.That(t, err != nil)
		})
	}
}

func TestReadLoca(t *testing.T) {
	offsets, err := readLoca([]byte{0x00, 0x00, 0x00, 0x02, 0x00, 0x04}, 2, 0, 8)
	test.Error(t, err)
	test.T(t, offsets, []uint32{0, 4, 8})

	offsets, err = readLoca([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x06}, 1, 1, 8)
	test.Error(t, err)
	test.T(t, offsets, []uint32{0, 6})

	_, err = readLoca([]byte{0x00, 0x00, 0x00, 0x04, 0x00, 0x02}, 2, 0, 8)
	test.That(t, err != nil, "decreasing offsets")
	_, err = readLoca([]byte{0x00, 0x00, 0x00, 0x08}, 1, 0, 8)
	test.That(t, err != nil, "offset beyond glyf")
	_, err = readLoca([]byte{0x00, 0x00}, 1, 0, 8)
	test.That(t, err != nil, "loca too short")
}
