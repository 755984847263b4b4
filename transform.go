package woff2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tdewolff/parse/v2"
)

// transformContext carries the values that reconstructing transformed tables needs from the table directory, and that hmtx reconstruction needs from glyf reconstruction.
type transformContext struct {
	locaLength uint32 // origLength of loca in the table directory
	maxSize    uint32 // maximum size of reconstructed tables

	// set by reconstructGlyfLoca
	numGlyphs uint16
	xMins     []int16
}

// transformedGlyf is the transformed glyf table together with the glyf and loca tables it reconstructs to. Those are the canonical forms of the input tables and may differ from them byte-wise.
type transformedGlyf struct {
	Data  []byte
	Glyf  []byte
	Loca  []byte
	XMins []int16
}

// glyfStreams are the streams of the transformed glyf table, see https://www.w3.org/TR/WOFF2/#glyf_table_format
type glyfStreams struct {
	nContour    *parse.BinaryWriter
	nPoints     *parse.BinaryWriter
	flag        *parse.BinaryWriter
	glyph       *parse.BinaryWriter
	composite   *parse.BinaryWriter
	bbox        *parse.BinaryWriter
	instruction *parse.BinaryWriter
	bboxBitmap  []byte
	overlap     []byte
	optionFlags uint16
}

// transformGlyf applies the glyf and loca transform. It returns an error if the tables cannot be parsed, in which case the tables must be stored untransformed.
func transformGlyf(glyf, loca []byte, numGlyphs uint16, indexFormat int16) (*transformedGlyf, error) {
	if indexFormat != 0 && indexFormat != 1 {
		return nil, fmt.Errorf("head: bad indexToLocFormat %d", indexFormat)
	}
	offsets, err := readLoca(loca, numGlyphs, uint16(indexFormat), uint32(len(glyf)))
	if err != nil {
		return nil, err
	}

	s := &glyfStreams{
		nContour:    parse.NewBinaryWriter(make([]byte, 0, 2*int(numGlyphs))),
		nPoints:     parse.NewBinaryWriter([]byte{}),
		flag:        parse.NewBinaryWriter([]byte{}),
		glyph:       parse.NewBinaryWriter([]byte{}),
		composite:   parse.NewBinaryWriter([]byte{}),
		bbox:        parse.NewBinaryWriter([]byte{}),
		instruction: parse.NewBinaryWriter([]byte{}),
		bboxBitmap:  make([]byte, bitmapSize(numGlyphs)),
		overlap:     make([]byte, bitmapSize(numGlyphs)),
	}
	wGlyf := parse.NewBinaryWriter(make([]byte, 0, len(glyf)))
	wLoca := parse.NewBinaryWriter(make([]byte, 0, (int(numGlyphs)+1)<<(1+indexFormat)))
	xMins := make([]int16, numGlyphs)
	for glyphID := 0; glyphID < int(numGlyphs); glyphID++ {
		g, err := parseGlyph(glyf[offsets[glyphID]:offsets[glyphID+1]])
		if err != nil {
			return nil, fmt.Errorf("glyf: glyph %d: %v", glyphID, err)
		} else if err := s.writeGlyph(glyphID, g); err != nil {
			return nil, fmt.Errorf("glyf: glyph %d: %v", glyphID, err)
		}
		if !g.IsEmpty() {
			xMins[glyphID] = g.XMin
		}

		writeLocaOffset(wLoca, uint16(indexFormat), uint32(wGlyf.Len()))
		g.write(wGlyf)
	}
	writeLocaOffset(wLoca, uint16(indexFormat), uint32(wGlyf.Len()))
	if indexFormat == 0 && 0x1FFFE < wGlyf.Len() {
		return nil, fmt.Errorf("glyf: table too large for short loca offsets")
	} else if math.MaxUint32 < wGlyf.Len() {
		return nil, fmt.Errorf("glyf: table too large")
	}
	return &transformedGlyf{
		Data:  s.Bytes(numGlyphs, uint16(indexFormat)),
		Glyf:  wGlyf.Bytes(),
		Loca:  wLoca.Bytes(),
		XMins: xMins,
	}, nil
}

func (s *glyfStreams) writeGlyph(glyphID int, g *glyph) error {
	if g.IsEmpty() {
		s.nContour.WriteInt16(0)
		return nil
	} else if g.IsComposite() {
		s.nContour.WriteInt16(-1)
		s.composite.WriteBytes(g.Components)
		if g.HasInstructions {
			write255Uint16(s.glyph, uint16(len(g.Instructions)))
			s.instruction.WriteBytes(g.Instructions)
		}

		// bounding box of composite glyphs is always explicit
		bitmapSet(s.bboxBitmap, glyphID)
		s.writeBbox(g)
		return nil
	}

	s.nContour.WriteInt16(g.NumberOfContours)
	prevEndPoint := -1
	for _, endPoint := range g.EndPoints {
		nPoint := int(endPoint) - prevEndPoint
		if math.MaxUint16 < nPoint {
			return fmt.Errorf("too many points in contour")
		}
		write255Uint16(s.nPoints, uint16(nPoint))
		prevEndPoint = int(endPoint)
	}

	var x, y int32
	for i := range g.XCoordinates {
		dx, dy := int32(g.XCoordinates[i])-x, int32(g.YCoordinates[i])-y
		writeTriplet(s.flag, s.glyph, g.OnCurve[i], dx, dy)
		x, y = int32(g.XCoordinates[i]), int32(g.YCoordinates[i])
	}
	write255Uint16(s.glyph, uint16(len(g.Instructions)))
	s.instruction.WriteBytes(g.Instructions)

	if g.OverlapSimple {
		bitmapSet(s.overlap, glyphID)
		s.optionFlags |= 0x0001 // overlapSimpleBitmap present
	}
	if xMin, yMin, xMax, yMax := g.bounds(); xMin != g.XMin || yMin != g.YMin || xMax != g.XMax || yMax != g.YMax {
		bitmapSet(s.bboxBitmap, glyphID)
		s.writeBbox(g)
	}
	return nil
}

func (s *glyfStreams) writeBbox(g *glyph) {
	s.bbox.WriteInt16(g.XMin)
	s.bbox.WriteInt16(g.YMin)
	s.bbox.WriteInt16(g.XMax)
	s.bbox.WriteInt16(g.YMax)
}

// Bytes returns the transformed glyf table.
func (s *glyfStreams) Bytes(numGlyphs, indexFormat uint16) []byte {
	bboxStreamSize := int64(len(s.bboxBitmap)) + s.bbox.Len()
	n := 36 + s.nContour.Len() + s.nPoints.Len() + s.flag.Len() + s.glyph.Len() + s.composite.Len() + bboxStreamSize + s.instruction.Len()
	if s.optionFlags&0x0001 != 0 {
		n += int64(len(s.overlap))
	}

	w := parse.NewBinaryWriter(make([]byte, 0, n))
	w.WriteUint16(0) // reserved
	w.WriteUint16(s.optionFlags)
	w.WriteUint16(numGlyphs)
	w.WriteUint16(indexFormat)
	w.WriteUint32(uint32(s.nContour.Len()))
	w.WriteUint32(uint32(s.nPoints.Len()))
	w.WriteUint32(uint32(s.flag.Len()))
	w.WriteUint32(uint32(s.glyph.Len()))
	w.WriteUint32(uint32(s.composite.Len()))
	w.WriteUint32(uint32(bboxStreamSize))
	w.WriteUint32(uint32(s.instruction.Len()))
	w.WriteBytes(s.nContour.Bytes())
	w.WriteBytes(s.nPoints.Bytes())
	w.WriteBytes(s.flag.Bytes())
	w.WriteBytes(s.glyph.Bytes())
	w.WriteBytes(s.composite.Bytes())
	w.WriteBytes(s.bboxBitmap)
	w.WriteBytes(s.bbox.Bytes())
	w.WriteBytes(s.instruction.Bytes())
	if s.optionFlags&0x0001 != 0 {
		w.WriteBytes(s.overlap)
	}
	return w.Bytes()
}

// writeTriplet encodes a point delta as a flag byte and one to four bytes in the glyph stream.
func writeTriplet(flagStream, glyphStream *parse.BinaryWriter, onCurve bool, dx, dy int32) {
	// used for reference: https://github.com/google/woff2/blob/master/src/transform.cc
	absX, absY := dx, dy
	var xSign, ySign byte = 1, 1 // positive if set
	if dx < 0 {
		absX, xSign = -dx, 0
	}
	if dy < 0 {
		absY, ySign = -dy, 0
	}
	xySign := xSign + 2*ySign

	var flag byte
	if !onCurve {
		flag = 0x80
	}
	if dx == 0 && absY < 1280 {
		flagStream.WriteByte(flag + byte((absY&0xF00)>>7) + ySign)
		glyphStream.WriteByte(byte(absY))
	} else if dy == 0 && absX < 1280 {
		flagStream.WriteByte(flag + 10 + byte((absX&0xF00)>>7) + xSign)
		glyphStream.WriteByte(byte(absX))
	} else if absX < 65 && absY < 65 {
		flagStream.WriteByte(flag + 20 + byte((absX-1)&0x30) + byte(((absY-1)&0x30)>>2) + xySign)
		glyphStream.WriteByte(byte((absX-1)&0x0F)<<4 | byte((absY-1)&0x0F))
	} else if absX < 769 && absY < 769 {
		flagStream.WriteByte(flag + 84 + 12*byte(((absX-1)&0x300)>>8) + byte(((absY-1)&0x300)>>6) + xySign)
		glyphStream.WriteByte(byte(absX - 1))
		glyphStream.WriteByte(byte(absY - 1))
	} else if absX < 4096 && absY < 4096 {
		flagStream.WriteByte(flag + 120 + xySign)
		glyphStream.WriteByte(byte(absX >> 4))
		glyphStream.WriteByte(byte(absX&0x0F)<<4 | byte(absY>>8))
		glyphStream.WriteByte(byte(absY))
	} else {
		flagStream.WriteByte(flag + 124 + xySign)
		glyphStream.WriteUint16(uint16(absX))
		glyphStream.WriteUint16(uint16(absY))
	}
}

func withSign(flag byte, v int32) int32 {
	if flag&0x01 != 0 {
		return v // positive if bit is set
	}
	return -v
}

// readTriplet decodes a point delta of a flag byte with its on-curve bit cleared.
func readTriplet(r *parse.BinaryReader, flag byte) (int32, int32, bool) {
	// used for reference: https://github.com/fonttools/fonttools/blob/master/Lib/fontTools/ttLib/woff2.py
	// as well as: https://github.com/google/woff2/blob/master/src/woff2_dec.cc
	n := int64(4)
	if flag < 84 {
		n = 1
	} else if flag < 120 {
		n = 2
	} else if flag < 124 {
		n = 3
	}
	if r.Len() < n {
		return 0, 0, false
	}
	in := r.ReadBytes(n)

	var dx, dy int32
	if flag < 10 {
		dy = withSign(flag, int32(flag&0x0E)<<7+int32(in[0]))
	} else if flag < 20 {
		dx = withSign(flag, int32((flag-10)&0x0E)<<7+int32(in[0]))
	} else if flag < 84 {
		b0 := int32(flag - 20)
		dx = withSign(flag, 1+(b0&0x30)+int32(in[0]>>4))
		dy = withSign(flag>>1, 1+(b0&0x0C)<<2+int32(in[0]&0x0F))
	} else if flag < 120 {
		b0 := int32(flag - 84)
		dx = withSign(flag, 1+(b0/12)<<8+int32(in[0]))
		dy = withSign(flag>>1, 1+((b0%12)>>2)<<8+int32(in[1]))
	} else if flag < 124 {
		dx = withSign(flag, int32(in[0])<<4+int32(in[1]>>4))
		dy = withSign(flag>>1, int32(in[1]&0x0F)<<8+int32(in[2]))
	} else {
		dx = withSign(flag, int32(in[0])<<8+int32(in[1]))
		dy = withSign(flag>>1, int32(in[2])<<8+int32(in[3]))
	}
	return dx, dy, true
}

// glyfStreamReaders are the streams of a transformed glyf table being reconstructed.
type glyfStreamReaders struct {
	nContour    *parse.BinaryReader
	nPoints     *parse.BinaryReader
	flag        *parse.BinaryReader
	glyph       *parse.BinaryReader
	composite   *parse.BinaryReader
	bbox        *parse.BinaryReader
	instruction *parse.BinaryReader
	bboxBitmap  []byte
	overlap     []byte // nil if absent
}

// reconstructGlyfLoca reverses the glyf and loca transform. It sets the number of glyphs and their xMin values in the context.
func reconstructGlyfLoca(b []byte, ctx *transformContext) ([]byte, []byte, error) {
	r := parse.NewBinaryReaderBytes(b)
	if r.Len() < 36 {
		return nil, nil, fmt.Errorf("glyf: bad header: %w", ErrTransformReversal)
	}
	_ = r.ReadUint16() // reserved
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadUint16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()

	nBitmap := bitmapSize(numGlyphs)
	n := uint64(nContourStreamSize) + uint64(nPointsStreamSize) + uint64(flagStreamSize) + uint64(glyphStreamSize) + uint64(compositeStreamSize) + uint64(bboxStreamSize) + uint64(instructionStreamSize)
	if optionFlags&0x0001 != 0 {
		n += uint64(nBitmap)
	}
	if indexFormat != 0 && indexFormat != 1 {
		return nil, nil, fmt.Errorf("glyf: bad indexFormat %d: %w", indexFormat, ErrTransformReversal)
	} else if nContourStreamSize != 2*uint32(numGlyphs) || bboxStreamSize < nBitmap || uint64(r.Len()) < n {
		return nil, nil, fmt.Errorf("glyf: bad stream sizes: %w", ErrTransformReversal)
	}

	locaLength := (uint32(numGlyphs) + 1) << (1 + indexFormat)
	if locaLength != ctx.locaLength {
		return nil, nil, fmt.Errorf("loca: origLength must match numGlyphs+1 entries: %w", ErrTransformReversal)
	}

	s := &glyfStreamReaders{}
	s.nContour = parse.NewBinaryReaderBytes(r.ReadBytes(int64(nContourStreamSize)))
	s.nPoints = parse.NewBinaryReaderBytes(r.ReadBytes(int64(nPointsStreamSize)))
	s.flag = parse.NewBinaryReaderBytes(r.ReadBytes(int64(flagStreamSize)))
	s.glyph = parse.NewBinaryReaderBytes(r.ReadBytes(int64(glyphStreamSize)))
	s.composite = parse.NewBinaryReaderBytes(r.ReadBytes(int64(compositeStreamSize)))
	s.bboxBitmap = r.ReadBytes(int64(nBitmap))
	s.bbox = parse.NewBinaryReaderBytes(r.ReadBytes(int64(bboxStreamSize - nBitmap)))
	s.instruction = parse.NewBinaryReaderBytes(r.ReadBytes(int64(instructionStreamSize)))
	if optionFlags&0x0001 != 0 {
		s.overlap = r.ReadBytes(int64(nBitmap))
	}

	wGlyf := parse.NewBinaryWriter([]byte{})
	wLoca := parse.NewBinaryWriter(make([]byte, 0, locaLength))
	xMins := make([]int16, numGlyphs)
	for glyphID := 0; glyphID < int(numGlyphs); glyphID++ {
		g, err := s.readGlyph(glyphID)
		if err != nil {
			return nil, nil, fmt.Errorf("glyf: glyph %d: %v: %w", glyphID, err, ErrTransformReversal)
		}
		if !g.IsEmpty() {
			xMins[glyphID] = g.XMin
		}

		writeLocaOffset(wLoca, indexFormat, uint32(wGlyf.Len()))
		g.write(wGlyf)
		if int64(ctx.maxSize) < wGlyf.Len() {
			return nil, nil, fmt.Errorf("glyf: %w: %w", ErrSizeMismatch, ErrExceedsMemory)
		}
	}
	if indexFormat == 0 && 0x1FFFE < wGlyf.Len() {
		return nil, nil, fmt.Errorf("glyf: table too large for short loca offsets: %w", ErrTransformReversal)
	}
	writeLocaOffset(wLoca, indexFormat, uint32(wGlyf.Len()))

	ctx.numGlyphs = numGlyphs
	ctx.xMins = xMins
	return wGlyf.Bytes(), wLoca.Bytes(), nil
}

func (s *glyfStreamReaders) readGlyph(glyphID int) (*glyph, error) {
	explicitBbox := bitmapGet(s.bboxBitmap, glyphID)
	g := &glyph{}
	g.NumberOfContours = s.nContour.ReadInt16() // stream size checked
	if g.IsEmpty() {
		if explicitBbox {
			return nil, fmt.Errorf("empty glyph cannot have bbox definition")
		}
		return g, nil
	} else if g.IsComposite() {
		if !explicitBbox {
			return nil, fmt.Errorf("composite glyph must have bbox definition")
		}
		if err := s.readComposite(g); err != nil {
			return nil, err
		} else if err := s.readBbox(g); err != nil {
			return nil, err
		}
		return g, nil
	}

	var nPoints int
	g.EndPoints = make([]uint16, g.NumberOfContours)
	for i := range g.EndPoints {
		nPoint, ok := read255Uint16(s.nPoints)
		if !ok {
			return nil, fmt.Errorf("nPoints stream exceeded")
		}
		nPoints += int(nPoint)
		if nPoints == 0 || math.MaxUint16+1 < nPoints {
			return nil, fmt.Errorf("bad number of points")
		}
		g.EndPoints[i] = uint16(nPoints - 1)
	}

	if s.flag.Len() < int64(nPoints) {
		return nil, fmt.Errorf("flag stream exceeded")
	}
	var x, y int32
	g.OnCurve = make([]bool, nPoints)
	g.XCoordinates = make([]int16, nPoints)
	g.YCoordinates = make([]int16, nPoints)
	for i := 0; i < nPoints; i++ {
		flag := s.flag.ReadUint8()
		dx, dy, ok := readTriplet(s.glyph, flag&0x7F)
		if !ok {
			return nil, fmt.Errorf("glyph stream exceeded")
		}
		x += dx
		y += dy
		if x < math.MinInt16 || math.MaxInt16 < x || y < math.MinInt16 || math.MaxInt16 < y {
			return nil, fmt.Errorf("coordinate overflow")
		}
		g.OnCurve[i] = flag&0x80 == 0
		g.XCoordinates[i] = int16(x)
		g.YCoordinates[i] = int16(y)
	}

	instructionLength, ok := read255Uint16(s.glyph)
	if !ok {
		return nil, fmt.Errorf("glyph stream exceeded")
	} else if s.instruction.Len() < int64(instructionLength) {
		return nil, fmt.Errorf("instruction stream exceeded")
	}
	g.Instructions = s.instruction.ReadBytes(int64(instructionLength))
	g.OverlapSimple = s.overlap != nil && bitmapGet(s.overlap, glyphID)

	if explicitBbox {
		if err := s.readBbox(g); err != nil {
			return nil, err
		}
	} else {
		g.XMin, g.YMin, g.XMax, g.YMax = g.bounds()
	}
	return g, nil
}

func (s *glyfStreamReaders) readComposite(g *glyph) error {
	for {
		if s.composite.Len() < 2 {
			return fmt.Errorf("composite stream exceeded")
		}
		flagBytes := s.composite.ReadBytes(2)
		flags := binary.BigEndian.Uint16(flagBytes)
		length, more := glyfCompositeLength(flags)
		if s.composite.Len() < int64(length)-2 {
			return fmt.Errorf("composite stream exceeded")
		}
		g.Components = append(g.Components, flagBytes...)
		g.Components = append(g.Components, s.composite.ReadBytes(int64(length)-2)...)
		if flags&0x0100 != 0 { // WE_HAVE_INSTRUCTIONS
			g.HasInstructions = true
		}
		if !more {
			break
		}
	}

	if g.HasInstructions {
		instructionLength, ok := read255Uint16(s.glyph)
		if !ok {
			return fmt.Errorf("glyph stream exceeded")
		} else if s.instruction.Len() < int64(instructionLength) {
			return fmt.Errorf("instruction stream exceeded")
		}
		g.Instructions = s.instruction.ReadBytes(int64(instructionLength))
	}
	return nil
}

func (s *glyfStreamReaders) readBbox(g *glyph) error {
	if s.bbox.Len() < 8 {
		return fmt.Errorf("bbox stream exceeded")
	}
	g.XMin = s.bbox.ReadInt16()
	g.YMin = s.bbox.ReadInt16()
	g.XMax = s.bbox.ReadInt16()
	g.YMax = s.bbox.ReadInt16()
	return nil
}

// transformHmtx applies the hmtx transform, omitting left side bearings that equal the glyph's xMin. It returns nil if neither the proportional nor the monospaced left side bearings can be omitted.
func transformHmtx(hmtx []byte, numHMetrics uint16, xMins []int16) []byte {
	numGlyphs := len(xMins)
	if numHMetrics == 0 || numGlyphs < int(numHMetrics) || len(hmtx) != 4*int(numHMetrics)+2*(numGlyphs-int(numHMetrics)) {
		return nil
	}

	r := parse.NewBinaryReaderBytes(hmtx)
	advanceWidths := make([]uint16, numHMetrics)
	lsbs := make([]int16, numGlyphs)
	for i := 0; i < int(numHMetrics); i++ {
		advanceWidths[i] = r.ReadUint16()
		lsbs[i] = r.ReadInt16()
	}
	for i := int(numHMetrics); i < numGlyphs; i++ {
		lsbs[i] = r.ReadInt16()
	}

	hasProportionalLsbs, hasMonospacedLsbs := false, false
	for i, lsb := range lsbs {
		if lsb != xMins[i] {
			if i < int(numHMetrics) {
				hasProportionalLsbs = true
			} else {
				hasMonospacedLsbs = true
			}
		}
	}
	if hasProportionalLsbs && hasMonospacedLsbs {
		return nil
	}

	var flags byte
	n := 1 + 2*int(numHMetrics)
	if hasProportionalLsbs {
		n += 2 * int(numHMetrics)
	} else {
		flags |= 0x01
	}
	if hasMonospacedLsbs {
		n += 2 * (numGlyphs - int(numHMetrics))
	} else {
		flags |= 0x02
	}

	w := parse.NewBinaryWriter(make([]byte, 0, n))
	w.WriteUint8(flags)
	for _, advanceWidth := range advanceWidths {
		w.WriteUint16(advanceWidth)
	}
	if hasProportionalLsbs {
		for _, lsb := range lsbs[:numHMetrics] {
			w.WriteInt16(lsb)
		}
	}
	if hasMonospacedLsbs {
		for _, lsb := range lsbs[numHMetrics:] {
			w.WriteInt16(lsb)
		}
	}
	return w.Bytes()
}

// reconstructHmtx reverses the hmtx transform using the glyph xMin values from the context.
func reconstructHmtx(b []byte, numHMetrics uint16, ctx *transformContext) ([]byte, error) {
	numGlyphs := int(ctx.numGlyphs)
	if ctx.xMins == nil {
		return nil, fmt.Errorf("hmtx: glyf table must be transformed: %w", ErrTransformReversal)
	} else if numHMetrics < 1 {
		return nil, fmt.Errorf("hmtx: must have at least one entry: %w", ErrTransformReversal)
	} else if numGlyphs < int(numHMetrics) {
		return nil, fmt.Errorf("hmtx: more entries than glyphs in glyf: %w", ErrTransformReversal)
	}

	r := parse.NewBinaryReaderBytes(b)
	if r.Len() < 1 {
		return nil, fmt.Errorf("hmtx: %w", ErrTransformReversal)
	}
	flags := r.ReadUint8()
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0
	if flags&0xFC != 0 {
		return nil, fmt.Errorf("hmtx: reserved bits in flags must not be set: %w", ErrTransformReversal)
	} else if !reconstructProportional && !reconstructMonospaced {
		return nil, fmt.Errorf("hmtx: must reconstruct at least one left side bearing array: %w", ErrTransformReversal)
	}

	n := 1 + 2*int(numHMetrics)
	if !reconstructProportional {
		n += 2 * int(numHMetrics)
	}
	if !reconstructMonospaced {
		n += 2 * (numGlyphs - int(numHMetrics))
	}
	if n != len(b) {
		return nil, fmt.Errorf("hmtx: bad table length: %w", ErrTransformReversal)
	}

	advanceWidths := make([]uint16, numHMetrics)
	for i := range advanceWidths {
		advanceWidths[i] = r.ReadUint16()
	}
	lsbs := make([]int16, numGlyphs)
	copy(lsbs, ctx.xMins)
	if !reconstructProportional {
		for i := 0; i < int(numHMetrics); i++ {
			lsbs[i] = r.ReadInt16()
		}
	}
	if !reconstructMonospaced {
		for i := int(numHMetrics); i < numGlyphs; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}

	w := parse.NewBinaryWriter(make([]byte, 0, 2*numGlyphs+2*int(numHMetrics)))
	for i, advanceWidth := range advanceWidths {
		w.WriteUint16(advanceWidth)
		w.WriteInt16(lsbs[i])
	}
	for _, lsb := range lsbs[numHMetrics:] {
		w.WriteInt16(lsb)
	}
	return w.Bytes(), nil
}
