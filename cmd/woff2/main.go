package main

import (
	"log"
	"os"

	"github.com/tdewolff/argp"
	"github.com/tdewolff/woff2"
)

var Warning *log.Logger

func main() {
	Warning = log.New(os.Stderr, "WARNING: ", 0)

	cmd := argp.New("Command line converter between TTF/OTF and WOFF2 files - Taco de Wolff")
	cmd.AddCmd(&Compress{Quality: woff2.DefaultEncodeOptions.Quality}, "compress", "Convert TTF or OTF to WOFF2")
	cmd.AddCmd(&Decompress{MaxMemory: woff2.DefaultMaxMemory}, "decompress", "Convert WOFF2 to TTF or OTF")
	cmd.AddCmd(&Info{}, "info", "Get WOFF2 file info")
	cmd.Parse()
}
