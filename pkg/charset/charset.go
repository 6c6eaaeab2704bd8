// Package charset resolves the text encoding of commit headers and
// messages. Every function here is total: a decode that cannot be
// validated falls through to the next candidate, never to an error.
package charset

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// Fallback is the last-resort 8-bit encoding. Every byte sequence decodes under it.
var Fallback encoding.Encoding = charmap.ISO8859_1

// Lookup resolves an encoding name as found in an "encoding" header.
// Underscores are read as hyphens so names like "euc_JP" resolve.
func Lookup(name string) (encoding.Encoding, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for _, candidate := range []string{name, strings.ReplaceAll(name, "_", "-")} {
		if enc, err := ianaindex.IANA.Encoding(candidate); err == nil && enc != nil {
			return enc, true
		}
		if enc, err := htmlindex.Get(candidate); err == nil && enc != nil {
			return enc, true
		}
	}
	return nil, false
}

// TryDecode decodes raw under enc and reports whether the result is
// trustworthy: the decoder must not fail, must not introduce U+FFFD that
// was not already spelled out in raw, and re-encoding must reproduce raw.
func TryDecode(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.ContainsRune(raw, utf8.RuneError) {
		return "", false
	}
	back, err := enc.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, raw) {
		return "", false
	}
	return string(out), true
}

// Decode applies the resolution chain to raw: valid UTF-8 is taken as is,
// even under another declared encoding; otherwise the declared encoding is
// used if it decodes strictly; otherwise raw is read as Fallback. Invalid
// bytes declared as UTF-8 go straight to Fallback.
func Decode(raw []byte, declared string) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if IsUTF8Name(declared) {
		return decodeFallback(raw)
	}
	if enc, ok := Lookup(declared); ok {
		if s, ok := TryDecode(enc, raw); ok {
			return s
		}
	}
	return decodeFallback(raw)
}

func decodeFallback(raw []byte) string {
	out, err := Fallback.NewDecoder().Bytes(raw)
	if err != nil {
		// ISO-8859-1 maps every byte; this only guards a replaced Fallback.
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}

// IsUTF8Name reports whether name denotes UTF-8 under any spelling.
func IsUTF8Name(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
	return n == "utf-8" || n == "utf8"
}
