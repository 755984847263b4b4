package main

import (
	"fmt"

	"github.com/tdewolff/woff2"
)

type Info struct {
	MaxMemory uint32 `name:"max-memory" desc:"Maximum size in bytes of the decoded font."`
	Input     string `index:"0" desc:"Input WOFF2 file."`
}

func (cmd *Info) Run() error {
	b, err := readFile(cmd.Input)
	if err != nil {
		return err
	}
	dir, err := woff2.ReadDirectory(b)
	if err != nil {
		return fmt.Errorf("%v: %v", cmd.Input, err)
	}

	version := "TrueType"
	if dir.Flavor == woff2.FlavorCFF {
		version = "CFF"
	}
	fmt.Printf("File: %s\n\n", cmd.Input)
	fmt.Printf("flavor: 0x%08X (%s)\n", dir.Flavor, version)
	fmt.Printf("version: %d.%d\n", dir.MajorVersion, dir.MinorVersion)
	fmt.Printf("length: %v\n", formatBytes(uint64(dir.Length)))
	fmt.Printf("totalSfntSize: %v\n", formatBytes(uint64(dir.TotalSfntSize)))
	fmt.Printf("totalCompressedSize: %v (%.1f%%)\n", formatBytes(uint64(dir.TotalCompressedSize)), ratio(int(dir.TotalCompressedSize), int(dir.UncompressedSize()))*100.0)
	if dir.MetaLength != 0 {
		fmt.Printf("metadata: offset=%d  length=%d  origLength=%d\n", dir.MetaOffset, dir.MetaLength, dir.MetaOrigLength)
	}
	if dir.PrivLength != 0 {
		fmt.Printf("private: offset=%d  length=%d\n", dir.PrivOffset, dir.PrivLength)
	}
	fmt.Printf("\nTable directory:\n")

	maxLength := dir.TotalSfntSize
	for _, table := range dir.Tables {
		maxLength = max(maxLength, table.OrigLength, table.Length())
	}
	nLen := numDigits(maxLength)
	for i, table := range dir.Tables {
		transformed := ""
		if table.Transformed() {
			transformed = "  transformed"
		}
		fmt.Printf("  %2d  %s  origLength=%*d  length=%*d%s\n", i, table.Tag, nLen, table.OrigLength, nLen, table.Length(), transformed)
	}

	ttf, err := woff2.Decode(b, woff2.DecodeOptions{MaxMemory: cmd.MaxMemory})
	if err != nil {
		return fmt.Errorf("%v: %v", cmd.Input, err)
	}
	fmt.Printf("\nNames:\n")
	for _, id := range []woff2.NameID{woff2.NameFontFamily, woff2.NameFontSubfamily, woff2.NameVersion, woff2.NameCopyrightNotice, woff2.NameLicense} {
		if name, err := woff2.Name(ttf, id); err != nil {
			Warning.Printf("%v: %v\n", cmd.Input, err)
			break
		} else if name != "" {
			fmt.Printf("  %2d  %s\n", id, name)
		}
	}
	return nil
}
