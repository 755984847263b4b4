package woff2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tdewolff/parse/v2"
)

// glyph is a single glyph of the glyf table. Simple glyphs have contours with absolute point coordinates, composite glyphs keep their component records unparsed. Empty glyphs have zero contours.
type glyph struct {
	NumberOfContours       int16
	XMin, YMin, XMax, YMax int16
	EndPoints              []uint16
	Instructions           []byte
	OnCurve                []bool
	OverlapSimple          bool // OVERLAP_SIMPLE flag of the first point
	XCoordinates           []int16
	YCoordinates           []int16

	Components      []byte // composite only
	HasInstructions bool   // composite only
}

func (g *glyph) IsEmpty() bool {
	return g.NumberOfContours == 0
}

func (g *glyph) IsComposite() bool {
	return g.NumberOfContours < 0
}

// bounds returns the bounding box of the points of a simple glyph.
func (g *glyph) bounds() (int16, int16, int16, int16) {
	xMin, xMax := g.XCoordinates[0], g.XCoordinates[0]
	yMin, yMax := g.YCoordinates[0], g.YCoordinates[0]
	for i := 1; i < len(g.XCoordinates); i++ {
		x, y := g.XCoordinates[i], g.YCoordinates[i]
		if x < xMin {
			xMin = x
		} else if xMax < x {
			xMax = x
		}
		if y < yMin {
			yMin = y
		} else if yMax < y {
			yMax = y
		}
	}
	return xMin, yMin, xMax, yMax
}

func glyfCompositeLength(flags uint16) (length uint32, more bool) {
	length = 4 + 2
	if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
		length += 2
	}
	if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
		length += 2
	} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
		length += 4
	} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
		length += 8
	}
	more = flags&0x0020 != 0 // MORE_COMPONENTS
	return
}

// parseGlyph parses the glyph data as found in the glyf table, trailing padding is ignored. Glyphs with zero contours are returned as empty glyphs and composite glyphs always get -1 contours.
func parseGlyph(b []byte) (*glyph, error) {
	g := &glyph{}
	if len(b) == 0 {
		return g, nil
	}

	r := parse.NewBinaryReaderBytes(b)
	if r.Len() < 10 {
		return nil, fmt.Errorf("bad glyph header")
	}
	numberOfContours := r.ReadInt16()
	g.XMin = r.ReadInt16()
	g.YMin = r.ReadInt16()
	g.XMax = r.ReadInt16()
	g.YMax = r.ReadInt16()
	if numberOfContours == 0 {
		return &glyph{}, nil
	} else if numberOfContours < 0 {
		g.NumberOfContours = -1
		if err := g.parseComposite(r); err != nil {
			return nil, err
		}
		return g, nil
	}
	g.NumberOfContours = numberOfContours

	if r.Len() < 2*int64(numberOfContours)+2 {
		return nil, fmt.Errorf("bad endPtsOfContours")
	}
	g.EndPoints = make([]uint16, numberOfContours)
	for i := range g.EndPoints {
		g.EndPoints[i] = r.ReadUint16()
		if 0 < i && g.EndPoints[i] < g.EndPoints[i-1] {
			return nil, fmt.Errorf("endPtsOfContours must be increasing")
		}
	}

	instructionLength := r.ReadUint16()
	if r.Len() < int64(instructionLength) {
		return nil, fmt.Errorf("bad instructions")
	}
	g.Instructions = r.ReadBytes(int64(instructionLength))

	numPoints := int(g.EndPoints[numberOfContours-1]) + 1
	flags := make([]byte, numPoints)
	for i := 0; i < numPoints; i++ {
		if r.Len() < 1 {
			return nil, fmt.Errorf("bad flags")
		}
		flags[i] = r.ReadUint8()
		if flags[i]&0x08 != 0 { // REPEAT_FLAG
			if r.Len() < 1 {
				return nil, fmt.Errorf("bad flags")
			}
			repeats := int(r.ReadUint8())
			if numPoints-i-1 < repeats {
				return nil, fmt.Errorf("flags repeat beyond last point")
			}
			for j := 1; j <= repeats; j++ {
				flags[i+j] = flags[i]
			}
			i += repeats
		}
	}
	g.OnCurve = make([]bool, numPoints)
	for i, flag := range flags {
		g.OnCurve[i] = flag&0x01 != 0 // ON_CURVE_POINT
	}
	g.OverlapSimple = flags[0]&0x40 != 0

	var err error
	if g.XCoordinates, err = readGlyphCoordinates(r, flags, 0x02, 0x10); err != nil {
		return nil, fmt.Errorf("bad xCoordinates")
	} else if g.YCoordinates, err = readGlyphCoordinates(r, flags, 0x04, 0x20); err != nil {
		return nil, fmt.Errorf("bad yCoordinates")
	}
	return g, nil
}

func readGlyphCoordinates(r *parse.BinaryReader, flags []byte, shortVector, isSameOrPositive byte) ([]int16, error) {
	var v int16
	coordinates := make([]int16, len(flags))
	for i, flag := range flags {
		if flag&shortVector != 0 {
			if r.Len() < 1 {
				return nil, fmt.Errorf("coordinates exceed glyph")
			}
			if flag&isSameOrPositive != 0 {
				v += int16(r.ReadUint8())
			} else {
				v -= int16(r.ReadUint8())
			}
		} else if flag&isSameOrPositive == 0 {
			if r.Len() < 2 {
				return nil, fmt.Errorf("coordinates exceed glyph")
			}
			v += r.ReadInt16()
		}
		coordinates[i] = v
	}
	return coordinates, nil
}

func (g *glyph) parseComposite(r *parse.BinaryReader) error {
	for {
		if r.Len() < 2 {
			return fmt.Errorf("bad composite glyph")
		}
		flagBytes := r.ReadBytes(2)
		flags := binary.BigEndian.Uint16(flagBytes)
		length, more := glyfCompositeLength(flags)
		if r.Len() < int64(length)-2 {
			return fmt.Errorf("bad composite glyph")
		}
		g.Components = append(g.Components, flagBytes...)
		g.Components = append(g.Components, r.ReadBytes(int64(length)-2)...)
		if flags&0x0100 != 0 { // WE_HAVE_INSTRUCTIONS
			g.HasInstructions = true
		}
		if !more {
			break
		}
	}

	if g.HasInstructions {
		if r.Len() < 2 {
			return fmt.Errorf("bad instructions")
		}
		instructionLength := r.ReadUint16()
		if r.Len() < int64(instructionLength) {
			return fmt.Errorf("bad instructions")
		}
		g.Instructions = r.ReadBytes(int64(instructionLength))
	}
	return nil
}

// write writes the glyph in its canonical form and pads it to four bytes. Point flags are compacted with repeats and coordinates use short vectors where possible, so that writing a parsed canonical glyph reproduces it exactly.
func (g *glyph) write(w *parse.BinaryWriter) {
	if g.IsEmpty() {
		return
	}

	w.WriteInt16(g.NumberOfContours)
	w.WriteInt16(g.XMin)
	w.WriteInt16(g.YMin)
	w.WriteInt16(g.XMax)
	w.WriteInt16(g.YMax)
	if g.IsComposite() {
		w.WriteBytes(g.Components)
		if g.HasInstructions {
			w.WriteUint16(uint16(len(g.Instructions)))
			w.WriteBytes(g.Instructions)
		}
	} else {
		for _, endPoint := range g.EndPoints {
			w.WriteUint16(endPoint)
		}
		w.WriteUint16(uint16(len(g.Instructions)))
		w.WriteBytes(g.Instructions)
		g.writePoints(w)
	}

	// offsets for loca table should be 4-byte aligned
	for w.Len()%4 != 0 {
		w.WriteByte(0)
	}
}

func (g *glyph) writePoints(w *parse.BinaryWriter) {
	n := len(g.XCoordinates)
	flags := make([]byte, 0, n)
	xs := parse.NewBinaryWriter(make([]byte, 0, 2*n))
	ys := parse.NewBinaryWriter(make([]byte, 0, 2*n))

	lastFlag, repeats := -1, 0
	var lastX, lastY int16
	for i := 0; i < n; i++ {
		var flag byte
		if g.OnCurve[i] {
			flag |= 0x01 // ON_CURVE_POINT
		}
		if i == 0 && g.OverlapSimple {
			flag |= 0x40 // OVERLAP_SIMPLE
		}
		flag |= writeGlyphCoordinate(xs, int32(g.XCoordinates[i])-int32(lastX), 0x02, 0x10)
		flag |= writeGlyphCoordinate(ys, int32(g.YCoordinates[i])-int32(lastY), 0x04, 0x20)

		if int(flag) == lastFlag && repeats != math.MaxUint8 {
			flags[len(flags)-1] |= 0x08 // REPEAT_FLAG
			repeats++
		} else {
			if repeats != 0 {
				flags = append(flags, byte(repeats))
			}
			flags = append(flags, flag)
			repeats = 0
		}
		lastFlag = int(flag)
		lastX, lastY = g.XCoordinates[i], g.YCoordinates[i]
	}
	if repeats != 0 {
		flags = append(flags, byte(repeats))
	}

	w.WriteBytes(flags)
	w.WriteBytes(xs.Bytes())
	w.WriteBytes(ys.Bytes())
}

// writeGlyphCoordinate writes a coordinate delta and returns its point flags.
func writeGlyphCoordinate(w *parse.BinaryWriter, d int32, shortVector, isSameOrPositive byte) byte {
	if d == 0 {
		return isSameOrPositive
	} else if 0 < d && d < 256 {
		w.WriteByte(byte(d))
		return shortVector | isSameOrPositive
	} else if -256 < d && d < 0 {
		w.WriteByte(byte(-d))
		return shortVector
	}
	w.WriteInt16(int16(d)) // wraps around like the reader
	return 0
}

func writeLocaOffset(w *parse.BinaryWriter, indexFormat uint16, offset uint32) {
	if indexFormat == 0 {
		w.WriteUint16(uint16(offset >> 1))
	} else {
		w.WriteUint32(offset)
	}
}

// readLoca returns the numGlyphs+1 glyph offsets of the loca table, checking that they are increasing and within the glyf table.
func readLoca(loca []byte, numGlyphs uint16, indexFormat uint16, glyfLength uint32) ([]uint32, error) {
	entrySize := 2 << indexFormat
	if len(loca) < (int(numGlyphs)+1)*entrySize {
		return nil, fmt.Errorf("loca: table too short for %d glyphs", numGlyphs)
	}

	offsets := make([]uint32, int(numGlyphs)+1)
	for i := range offsets {
		if indexFormat == 0 {
			offsets[i] = uint32(binary.BigEndian.Uint16(loca[2*i:])) << 1
		} else {
			offsets[i] = binary.BigEndian.Uint32(loca[4*i:])
		}
		if 0 < i && offsets[i] < offsets[i-1] || glyfLength < offsets[i] {
			return nil, fmt.Errorf("loca: bad offset for glyph %d", i)
		}
	}
	return offsets, nil
}
