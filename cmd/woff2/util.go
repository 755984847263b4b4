package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tdewolff/prompt"
	"github.com/tdewolff/woff2"
	"golang.org/x/term"
)

func mediaType(b []byte) string {
	if len(b) < 4 {
		return ""
	}
	switch binary.BigEndian.Uint32(b) {
	case 0x774F4632: // wOF2
		return "font/woff2"
	case woff2.FlavorTrueType, woff2.FlavorApple:
		return "font/truetype"
	case woff2.FlavorCFF:
		return "font/opentype"
	}
	return ""
}

func replaceExt(filename, ext string) string {
	return filename[:len(filename)-len(filepath.Ext(filename))] + ext
}

// numDigits returns the width of n in decimal.
func numDigits(n uint32) int {
	return len(strconv.FormatUint(uint64(n), 10))
}

func ratio(n, m int) float64 {
	if m == 0 {
		return 1.0
	}
	return float64(n) / float64(m)
}

func formatBytes(size uint64) string {
	if size < 10 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}
	scale := int(math.Floor((math.Log10(float64(size)) + math.Log10(2.0)) / 3.0))
	value := float64(size) / math.Pow10(scale*3.0)
	format := "%.0f %s"
	if value < 10.0 {
		format = "%.1f %s"
	}
	return fmt.Sprintf(format, value, units[scale])
}

func readFile(filename string) ([]byte, error) {
	var err error
	var r *os.File
	if filename == "-" {
		r = os.Stdin
	} else if r, err = os.Open(filename); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return nil, err
	} else if err := r.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

func writeFile(filename string, force bool, b []byte) error {
	var err error
	var w io.WriteCloser
	if filename == "-" {
		if !force && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write binary data to a terminal")
		}
		w = os.Stdout
	} else {
		if _, err := os.Stat(filename); err == nil {
			if !force && !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", filename), false) {
				return fmt.Errorf("file already exists")
			}
		}
		if w, err = os.Create(filename); err != nil {
			return err
		}
	}

	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	} else if err := w.Close(); err != nil {
		return err
	}
	return nil
}
