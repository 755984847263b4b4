//go:build gofuzz
// +build gofuzz

package fuzz

import "github.com/tdewolff/woff2"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	b, err := woff2.Encode(data, woff2.EncodeOptions{Quality: 1, Transform: true})
	if err != nil {
		return 0
	}
	if _, err := woff2.Decode(b, woff2.DecodeOptions{}); err != nil {
		panic(err)
	}
	return 1
}
