package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/tdewolff/woff2"
)

type Compress struct {
	Quiet       bool   `short:"q" desc:"Suppress output except for errors."`
	Force       bool   `short:"f" desc:"Force overwriting existing files."`
	Quality     int    `short:"l" name:"quality" desc:"Brotli compression quality, between 0 and 11."`
	NoTransform bool   `short:"n" name:"no-transform" desc:"Disable the glyf, loca, and hmtx table transforms."`
	Metadata    string `short:"m" desc:"Extended metadata XML file to include."`
	Output      string `short:"o" desc:"Output WOFF2 file, defaults to the input filename with the .woff2 extension."`
	Input       string `index:"0" desc:"Input TTF or OTF file."`
}

func (cmd *Compress) Run() error {
	if cmd.Quiet {
		Warning = log.New(io.Discard, "", 0)
	}
	if cmd.Output == "" {
		if cmd.Input == "-" {
			cmd.Output = "-"
		} else {
			cmd.Output = replaceExt(cmd.Input, ".woff2")
		}
	}

	b, err := readFile(cmd.Input)
	if err != nil {
		return err
	}
	if mimetype := mediaType(b); mimetype == "font/woff2" {
		return fmt.Errorf("%v: already a WOFF2 file", cmd.Input)
	} else if mimetype != "font/truetype" && mimetype != "font/opentype" {
		Warning.Printf("%v: unrecognized SFNT version\n", cmd.Input)
	}

	opts := woff2.EncodeOptions{
		Quality:   cmd.Quality,
		Transform: !cmd.NoTransform,
	}
	if cmd.Metadata != "" {
		if opts.Metadata, err = readFile(cmd.Metadata); err != nil {
			return err
		}
	}

	w, err := woff2.Encode(b, opts)
	if err != nil {
		if cmd.Input == "-" {
			return err
		}
		return fmt.Errorf("%v: %v", cmd.Input, err)
	}
	if opts.Transform {
		if dir, err := woff2.ReadDirectory(w); err == nil {
			if i := dir.Index("glyf"); i != -1 && !dir.Tables[i].Transformed() {
				Warning.Printf("%v: glyf table could not be transformed\n", cmd.Input)
			}
		}
	}

	if err := writeFile(cmd.Output, cmd.Force, w); err != nil {
		return err
	}
	if !cmd.Quiet && cmd.Output != "-" {
		fmt.Printf("%v:  %v => %v (%.1f%%)\n", filepath.Base(cmd.Output), formatBytes(uint64(len(b))), formatBytes(uint64(len(w))), ratio(len(w), len(b))*100.0)
	}
	return nil
}
