//go:build gofuzz
// +build gofuzz

package fuzz

import "github.com/tdewolff/woff2"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	if _, err := woff2.Decode(data, woff2.DecodeOptions{MaxMemory: 1024 * 1024}); err != nil {
		return 0
	}
	return 1
}
