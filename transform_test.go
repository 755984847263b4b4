package woff2

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func TestTriplet(t *testing.T) {
	values := []int32{0, 1, -1, 63, -63, 64, -64, 65, -65, 255, -255, 768, -768, 769, -769, 1279, -1279, 1280, -1280, 4095, -4095, 4096, -4096, 32767, -32768, 65535, -65535}
	for _, dx := range values {
		for _, dy := range values {
			for _, onCurve := range []bool{true, false} {
				flagStream := parse.NewBinaryWriter([]byte{})
				glyphStream := parse.NewBinaryWriter([]byte{})
				writeTriplet(flagStream, glyphStream, onCurve, dx, dy)
				test.T(t, flagStream.Len(), int64(1))

				flag := flagStream.Bytes()[0]
				r := parse.NewBinaryReaderBytes(glyphStream.Bytes())
				dx2, dy2, ok := readTriplet(r, flag&0x7F)
				msg := fmt.Sprintf("dx=%d dy=%d", dx, dy)
				test.That(t, ok, msg)
				test.T(t, dx2, dx, msg)
				test.T(t, dy2, dy, msg)
				test.T(t, flag&0x80 == 0, onCurve, msg)
				test.T(t, r.Len(), int64(0), msg)
			}
		}
	}

	// truncated glyph stream
	for _, flag := range []byte{0, 84, 120, 124} {
		_, _, ok := readTriplet(parse.NewBinaryReaderBytes([]byte{}), flag)
		test.That(t, !ok, flag)
	}
}

func TestTransformGlyf(t *testing.T) {
	glyphs := testGlyphs()
	for _, indexFormat := range []uint16{0, 1} {
		t.Run(fmt.Sprint("indexFormat=", indexFormat), func(t *testing.T) {
			glyf, loca := buildGlyfLoca(glyphs, indexFormat)
			tr, err := transformGlyf(glyf, loca, uint16(len(glyphs)), int16(indexFormat))
			test.Error(t, err)
			test.Bytes(t, tr.Glyf, glyf)
			test.Bytes(t, tr.Loca, loca)

			ctx := &transformContext{
				locaLength: uint32(len(loca)),
				maxSize:    DefaultMaxMemory,
			}
			glyf2, loca2, err := reconstructGlyfLoca(tr.Data, ctx)
			test.Error(t, err)
			test.Bytes(t, glyf2, glyf)
			test.Bytes(t, loca2, loca)
			test.T(t, ctx.numGlyphs, uint16(len(glyphs)))
			test.T(t, ctx.xMins, tr.XMins)
			for i, g := range glyphs {
				test.T(t, tr.XMins[i], g.XMin, i)
			}
		})
	}
}

func TestTransformGlyfOverlap(t *testing.T) {
	glyphs := testGlyphs()[:3]
	glyf, loca := buildGlyfLoca(glyphs, 0)
	tr, err := transformGlyf(glyf, loca, uint16(len(glyphs)), 0)
	test.Error(t, err)
	test.T(t, tr.Data[3]&0x01, byte(0x01), "overlapSimpleBitmap present")
	test.T(t, tr.Data[len(tr.Data)-4], byte(0x20), "overlap bit of glyph 2")

	glyphs[2].OverlapSimple = false
	glyf, loca = buildGlyfLoca(glyphs, 0)
	tr, err = transformGlyf(glyf, loca, uint16(len(glyphs)), 0)
	test.Error(t, err)
	test.T(t, tr.Data[3]&0x01, byte(0x00), "overlapSimpleBitmap absent")
}

func TestTransformGlyfCanonical(t *testing.T) {
	// triangle with long coordinates and no repeated flags
	glyph := []byte{
		0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x64,
		0x00, 0x02,
		0x00, 0x00,
		0x01, 0x01, 0x01,
		0x00, 0x00, 0x00, 0x64, 0xFF, 0xCE,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x00,
	}
	loca := []byte{0x00, 0x00, 0x00, 0x10}
	tr, err := transformGlyf(glyph, loca, 1, 0)
	test.Error(t, err)
	test.Bytes(t, tr.Glyf, []byte{
		0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x64,
		0x00, 0x02,
		0x00, 0x00,
		0x31, 0x33, 0x27,
		0x64, 0x32,
		0x64,
	})
	test.Bytes(t, tr.Loca, []byte{0x00, 0x00, 0x00, 0x0A})

	g, err := parseGlyph(glyph)
	test.Error(t, err)
	g2, err := parseGlyph(tr.Glyf)
	test.Error(t, err)
	test.T(t, g2, g)

	glyf, loca2, err := reconstructGlyfLoca(tr.Data, &transformContext{locaLength: 4, maxSize: DefaultMaxMemory})
	test.Error(t, err)
	test.Bytes(t, glyf, tr.Glyf)
	test.Bytes(t, loca2, tr.Loca)
}

func TestTransformGlyfErrors(t *testing.T) {
	glyphs := testGlyphs()[:3]
	glyf, loca := buildGlyfLoca(glyphs, 0)

	_, err := transformGlyf(glyf, loca, uint16(len(glyphs)), 2)
	test.That(t, err != nil, "bad indexFormat")
	_, err = transformGlyf(glyf, loca, uint16(len(glyphs)+1), 0)
	test.That(t, err != nil, "loca too short")
	_, err = transformGlyf(glyf[:len(glyf)-8], loca, uint16(len(glyphs)), 0)
	test.That(t, err != nil, "loca exceeds glyf")
	_, err = transformGlyf([]byte{0x00, 0x01, 0x00, 0x00}, []byte{0x00, 0x00, 0x00, 0x02}, 1, 0)
	test.That(t, err != nil, "bad glyph header")
}

func TestReconstructGlyfLocaErrors(t *testing.T) {
	glyphs := testGlyphs()
	glyf, loca := buildGlyfLoca(glyphs, 1)
	tr, err := transformGlyf(glyf, loca, uint16(len(glyphs)), 1)
	test.Error(t, err)

	badIndexFormat := append([]byte{}, tr.Data...)
	badIndexFormat[7] = 2
	badNContour := append([]byte{}, tr.Data...)
	badNContour[11]++

	var tests = []struct {
		name       string
		b          []byte
		locaLength uint32
		maxSize    uint32
		err        error
	}{
		{"header", tr.Data[:35], uint32(len(loca)), DefaultMaxMemory, ErrTransformReversal},
		{"truncated", tr.Data[:len(tr.Data)-1], uint32(len(loca)), DefaultMaxMemory, ErrTransformReversal},
		{"indexFormat", badIndexFormat, uint32(len(loca)), DefaultMaxMemory, ErrTransformReversal},
		{"nContourStreamSize", badNContour, uint32(len(loca)), DefaultMaxMemory, ErrTransformReversal},
		{"locaLength", tr.Data, uint32(len(loca)) - 4, DefaultMaxMemory, ErrTransformReversal},
		{"maxSize", tr.Data, uint32(len(loca)), 1024, ErrExceedsMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			glyf, loca, err := reconstructGlyfLoca(tt.b, &transformContext{locaLength: tt.locaLength, maxSize: tt.maxSize})
			test.That(t, errors.Is(err, tt.err), err)
			test.T(t, glyf, []byte(nil))
			test.T(t, loca, []byte(nil))
		})
	}
}

func TestReconstructGlyphErrors(t *testing.T) {
	empty := &glyfStreamReaders{
		nContour:    parse.NewBinaryReaderBytes([]byte{0x00, 0x00}),
		nPoints:     parse.NewBinaryReaderBytes(nil),
		flag:        parse.NewBinaryReaderBytes(nil),
		glyph:       parse.NewBinaryReaderBytes(nil),
		composite:   parse.NewBinaryReaderBytes(nil),
		bbox:        parse.NewBinaryReaderBytes(nil),
		instruction: parse.NewBinaryReaderBytes(nil),
		bboxBitmap:  []byte{0x80, 0x00, 0x00, 0x00},
	}
	_, err := empty.readGlyph(0)
	test.That(t, err != nil, "empty glyph with bbox")

	composite := &glyfStreamReaders{
		nContour:    parse.NewBinaryReaderBytes([]byte{0xFF, 0xFF}),
		nPoints:     parse.NewBinaryReaderBytes(nil),
		flag:        parse.NewBinaryReaderBytes(nil),
		glyph:       parse.NewBinaryReaderBytes(nil),
		composite:   parse.NewBinaryReaderBytes([]byte{0x00, 0x02, 0x00, 0x01, 0x01, 0x02}),
		bbox:        parse.NewBinaryReaderBytes(nil),
		instruction: parse.NewBinaryReaderBytes(nil),
		bboxBitmap:  []byte{0x00, 0x00, 0x00, 0x00},
	}
	_, err = composite.readGlyph(0)
	test.That(t, err != nil, "composite glyph without bbox")

	overflow := &glyfStreamReaders{
		nContour:    parse.NewBinaryReaderBytes([]byte{0x00, 0x01}),
		nPoints:     parse.NewBinaryReaderBytes([]byte{0x02}),
		flag:        parse.NewBinaryReaderBytes([]byte{124 + 3, 124 + 3}),
		glyph:       parse.NewBinaryReaderBytes([]byte{0x7F, 0xFF, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}),
		composite:   parse.NewBinaryReaderBytes(nil),
		bbox:        parse.NewBinaryReaderBytes(nil),
		instruction: parse.NewBinaryReaderBytes(nil),
		bboxBitmap:  []byte{0x00, 0x00, 0x00, 0x00},
	}
	_, err = overflow.readGlyph(0)
	test.That(t, err != nil, "coordinate overflow")

	noPoints := &glyfStreamReaders{
		nContour:    parse.NewBinaryReaderBytes([]byte{0x00, 0x01}),
		nPoints:     parse.NewBinaryReaderBytes([]byte{0x00}),
		flag:        parse.NewBinaryReaderBytes(nil),
		glyph:       parse.NewBinaryReaderBytes(nil),
		composite:   parse.NewBinaryReaderBytes(nil),
		bbox:        parse.NewBinaryReaderBytes(nil),
		instruction: parse.NewBinaryReaderBytes(nil),
		bboxBitmap:  []byte{0x00, 0x00, 0x00, 0x00},
	}
	_, err = noPoints.readGlyph(0)
	test.That(t, err != nil, "contour without points")
}

func TestTransformHmtx(t *testing.T) {
	xMins := []int16{0, 10, -20, 30, 40}
	var tests = []struct {
		name  string
		lsbs  []int16
		flags byte
		size  int
	}{
		{"all", []int16{0, 10, -20, 30, 40}, 0x03, 1 + 2*3},
		{"proportional", []int16{0, 11, -20, 30, 40}, 0x02, 1 + 4*3},
		{"monospaced", []int16{0, 10, -20, 30, 41}, 0x01, 1 + 2*3 + 2*2},
		{"none", []int16{1, 10, -20, 30, 41}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := parse.NewBinaryWriter([]byte{})
			for i, lsb := range tt.lsbs {
				if i < 3 {
					w.WriteUint16(uint16(600 + i))
				}
				w.WriteInt16(lsb)
			}
			hmtx := w.Bytes()

			tr := transformHmtx(hmtx, 3, xMins)
			if tt.size == 0 {
				test.T(t, tr, []byte(nil))
				return
			}
			test.T(t, len(tr), tt.size)
			test.T(t, tr[0], tt.flags)

			ctx := &transformContext{numGlyphs: uint16(len(xMins)), xMins: xMins}
			hmtx2, err := reconstructHmtx(tr, 3, ctx)
			test.Error(t, err)
			test.Bytes(t, hmtx2, hmtx)
		})
	}

	// not applicable
	test.T(t, transformHmtx(make([]byte, 10), 3, xMins), []byte(nil))
	test.T(t, transformHmtx(make([]byte, 14), 0, xMins), []byte(nil))
	test.T(t, transformHmtx(make([]byte, 24), 6, xMins), []byte(nil))
}

func TestReconstructHmtxErrors(t *testing.T) {
	ctx := &transformContext{numGlyphs: 3, xMins: []int16{0, 0, 0}}
	var tests = []struct {
		name        string
		b           []byte
		numHMetrics uint16
		ctx         *transformContext
	}{
		{"no glyf", []byte{0x03, 0x00, 0x01}, 1, &transformContext{}},
		{"numHMetrics zero", []byte{0x03}, 0, ctx},
		{"numHMetrics", []byte{0x03, 0, 1, 0, 1, 0, 1, 0, 1}, 4, ctx},
		{"empty", []byte{}, 1, ctx},
		{"reserved flags", []byte{0x07, 0x00, 0x01}, 1, ctx},
		{"no flags", []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, 1, ctx},
		{"length", []byte{0x03, 0x00, 0x01, 0x00}, 1, ctx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconstructHmtx(tt.b, tt.numHMetrics, tt.ctx)
			test.That(t, errors.Is(err, ErrTransformReversal), err)
		})
	}
}
