package woff2

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/tdewolff/test"
)

func TestCompress(t *testing.T) {
	data := make([]byte, 20000)
	rand.New(rand.NewSource(4)).Read(data[:10000])
	for quality := 0; quality <= 11; quality++ {
		var buf bytes.Buffer
		test.Error(t, compress(&buf, quality, data[:5000], data[5000:15000], nil, data[15000:]), quality)

		data2, err := decompress(buf.Bytes(), uint32(len(data)), DefaultMaxMemory)
		test.Error(t, err, quality)
		test.Bytes(t, data2, data, quality)
	}

	var buf bytes.Buffer
	test.Error(t, compress(&buf, 5))
	data2, err := decompress(buf.Bytes(), 0, DefaultMaxMemory)
	test.Error(t, err)
	test.T(t, len(data2), 0)
}

func TestDecompressErrors(t *testing.T) {
	data := make([]byte, 10000)
	rand.New(rand.NewSource(5)).Read(data)
	var buf bytes.Buffer
	test.Error(t, compress(&buf, 11, data))
	b := buf.Bytes()

	var tests = []struct {
		name      string
		b         []byte
		size      uint32
		maxMemory uint32
	}{
		{"empty", []byte{}, 0, DefaultMaxMemory},
		{"short", b, uint32(len(data)) - 1, DefaultMaxMemory},
		{"long", b, uint32(len(data)) + 1, DefaultMaxMemory},
		{"truncated", b[:len(b)/2], uint32(len(data)), DefaultMaxMemory},
		{"trailing input", append(append([]byte{}, b...), 0x00, 0x00), uint32(len(data)), DefaultMaxMemory},
		{"memory", b, uint32(len(data)), uint32(len(data)) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data2, err := decompress(tt.b, tt.size, tt.maxMemory)
			test.That(t, errors.Is(err, ErrDecompression), err)
			test.T(t, data2, []byte(nil))
		})
	}

	// a complete stream that is too short means the table lengths are wrong
	_, err := decompress(b, uint32(len(data))+1, DefaultMaxMemory)
	test.That(t, errors.Is(err, ErrMalformedDirectory), err)
	_, err = decompress(b[:len(b)/2], uint32(len(data)), DefaultMaxMemory)
	test.That(t, !errors.Is(err, ErrMalformedDirectory), err)
}

func TestDecompressBomb(t *testing.T) {
	// highly compressible stream claiming a small size
	var buf bytes.Buffer
	test.Error(t, compress(&buf, 5, make([]byte, 4*1024*1024)))
	test.That(t, buf.Len() < 64*1024, fmt.Sprint(buf.Len()))

	_, err := decompress(buf.Bytes(), 1000, DefaultMaxMemory)
	test.That(t, errors.Is(err, ErrDecompression), err)

	// claimed size beyond the memory limit is rejected before allocating
	_, err = decompress(buf.Bytes(), 0xFFFFFFFF, DefaultMaxMemory)
	test.That(t, errors.Is(err, ErrDecompression), err)
	test.That(t, errors.Is(err, ErrExceedsMemory), err)

	data, err := decompress(buf.Bytes(), 4*1024*1024, DefaultMaxMemory)
	test.Error(t, err)
	test.T(t, len(data), 4*1024*1024)
}
