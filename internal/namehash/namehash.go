// Package namehash computes the 32-bit name hash used to correlate display
// names with file identifiers.
//
// The hashed byte sequence for "body.g1m" is
//
//	R_G1M EF BC BB "body" EF BC BD
//
// where the marker triples are the UTF-8 encodings of U+FF3B and U+FF3D.
// Every later byte is folded into the accumulator as a signed 8-bit value
// with wrapping 32-bit arithmetic.
package namehash

import (
	"encoding/hex"
	"path/filepath"
	"strings"
)

// key is the multiplier of the hash recurrence.
const key uint32 = 0x1F

// Marker triples wrapped around names in companion files and hash input.
var (
	Prefix = [3]byte{0xEF, 0xBC, 0xBB}
	Suffix = [3]byte{0xEF, 0xBC, 0xBD}
)

// Input returns the byte sequence hashed for a full file name.
// Any directory part of name is ignored.
func Input(name string) []byte {
	base := filepath.Base(name)
	if name == "" {
		base = ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	tag := "R_" + strings.ToUpper(strings.TrimPrefix(ext, "."))

	buf := make([]byte, 0, len(tag)+len(stem)+2*len(Prefix))
	buf = append(buf, tag...)
	buf = append(buf, Prefix[:]...)
	buf = append(buf, stem...)
	buf = append(buf, Suffix[:]...)
	return buf
}

// Sum hashes a full file name, extension included.
func Sum(name string) uint32 {
	return sumBytes(Input(name))
}

func sumBytes(b []byte) uint32 {
	iv := uint32(b[0]) * key
	k := key
	for _, ch := range b[1:] {
		state := k
		k *= key
		iv += key * state * uint32(int32(int8(ch))) //nolint:gosec // sign extension is part of the hash
	}
	return iv
}

// String returns the hash of name as 8 lowercase hex digits.
func String(name string) string {
	return Format(Sum(name))
}

// Format renders a hash value as 8 lowercase hex digits, most significant byte first.
func Format(h uint32) string {
	b := [4]byte{byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h)}
	return hex.EncodeToString(b[:])
}

// StripMarkers returns the text between the first prefix marker and the
// first suffix marker of s. s is returned unchanged when either marker is
// missing or they are out of order.
func StripMarkers(s string) string {
	prefix := string(Prefix[:])
	suffix := string(Suffix[:])

	start := strings.Index(s, prefix)
	end := strings.Index(s, suffix)
	if start == -1 || end == -1 {
		return s
	}
	start += len(prefix)
	if end < start {
		return s
	}
	return s[start:end]
}
