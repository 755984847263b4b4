package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/tdewolff/woff2"
)

type Decompress struct {
	Quiet     bool   `short:"q" desc:"Suppress output except for errors."`
	Force     bool   `short:"f" desc:"Force overwriting existing files."`
	MaxMemory uint32 `name:"max-memory" desc:"Maximum size in bytes of the decoded font."`
	Metadata  string `short:"m" desc:"Output file for the extended metadata XML."`
	Output    string `short:"o" desc:"Output TTF or OTF file, defaults to the input filename with the extension of its flavor."`
	Input     string `index:"0" desc:"Input WOFF2 file."`
}

func (cmd *Decompress) Run() error {
	if cmd.Quiet {
		Warning = log.New(io.Discard, "", 0)
	}

	b, err := readFile(cmd.Input)
	if err != nil {
		return err
	} else if mediaType(b) != "font/woff2" {
		return fmt.Errorf("%v: not a WOFF2 file", cmd.Input)
	}

	dir, err := woff2.ReadDirectory(b)
	if err != nil {
		return fmt.Errorf("%v: %v", cmd.Input, err)
	}
	if cmd.Output == "" {
		if cmd.Input == "-" {
			cmd.Output = "-"
		} else if dir.Flavor == woff2.FlavorCFF {
			cmd.Output = replaceExt(cmd.Input, ".otf")
		} else {
			cmd.Output = replaceExt(cmd.Input, ".ttf")
		}
	}
	if dir.PrivLength != 0 {
		Warning.Printf("%v: private data block of %v dropped\n", cmd.Input, formatBytes(uint64(dir.PrivLength)))
	}

	opts := woff2.DecodeOptions{
		MaxMemory: cmd.MaxMemory,
	}
	ttf, err := woff2.Decode(b, opts)
	if err != nil {
		return fmt.Errorf("%v: %v", cmd.Input, err)
	}

	if cmd.Metadata != "" {
		metadata, err := woff2.Metadata(b, opts)
		if err != nil {
			return fmt.Errorf("%v: %v", cmd.Input, err)
		} else if metadata == nil {
			Warning.Printf("%v: no extended metadata\n", cmd.Input)
		} else if err := writeFile(cmd.Metadata, cmd.Force, metadata); err != nil {
			return err
		}
	} else if dir.MetaLength != 0 {
		Warning.Printf("%v: extended metadata dropped\n", cmd.Input)
	}

	if err := writeFile(cmd.Output, cmd.Force, ttf); err != nil {
		return err
	}
	if !cmd.Quiet && cmd.Output != "-" {
		fmt.Printf("%v:  %v => %v (%.1f%%)\n", filepath.Base(cmd.Output), formatBytes(uint64(len(b))), formatBytes(uint64(len(ttf))), ratio(len(ttf), len(b))*100.0)
	}
	return nil
}
