package charset

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// "山田 太郎" in EUC-JP.
var eucJPName = []byte{0xbb, 0xb3, 0xc5, 0xc4, 0x20, 0xc2, 0xc0, 0xcf, 0xba}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"UTF-8", true},
		{"utf-8", true},
		{"ISO-8859-1", true},
		{"EUC-JP", true},
		{"euc_JP", true},
		{"", false},
		{"no-such-charset", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, ok := Lookup(tt.name)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && enc == nil {
				t.Fatalf("Lookup(%q) returned nil encoding", tt.name)
			}
		})
	}
}

func TestTryDecodeEUCJP(t *testing.T) {
	got, ok := TryDecode(japanese.EUCJP, eucJPName)
	if !ok {
		t.Fatal("TryDecode(EUC-JP) failed on genuine EUC-JP bytes")
	}
	if got != "山田 太郎" {
		t.Fatalf("TryDecode = %q, want %q", got, "山田 太郎")
	}
}

func TestTryDecodeRejectsMismatch(t *testing.T) {
	// A lone lead byte cannot form an EUC-JP character.
	if _, ok := TryDecode(japanese.EUCJP, []byte{'a', 0xbb}); ok {
		t.Fatal("TryDecode accepted truncated EUC-JP")
	}
	if _, ok := TryDecode(nil, []byte("x")); ok {
		t.Fatal("TryDecode accepted nil encoding")
	}
}

func TestTryDecodeLatin1IsTotal(t *testing.T) {
	raw := []byte{0x41, 0xe9, 0xff}
	got, ok := TryDecode(charmap.ISO8859_1, raw)
	if !ok || got != "Aéÿ" {
		t.Fatalf("TryDecode(ISO-8859-1) = %q, %v", got, ok)
	}
}

func TestDecodeChain(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		declared string
		want     string
	}{
		{"utf8 no header", []byte("För fattaren"), "", "För fattaren"},
		{"utf8 mislabeled latin1", []byte("För fattaren"), "ISO-8859-1", "För fattaren"},
		{"utf8 mislabeled eucjp", []byte("山田 太郎"), "EUC-JP", "山田 太郎"},
		{"eucjp declared", eucJPName, "EUC-JP", "山田 太郎"},
		{"eucjp underscore", eucJPName, "euc_JP", "山田 太郎"},
		{"latin1 no header", []byte{'F', 0xf6, 'r'}, "", "För"},
		{"latin1 declared", []byte{'F', 0xf6, 'r'}, "ISO-8859-1", "För"},
		{"latin1 mislabeled eucjp", []byte{'F', 0xf6, 'r'}, "EUC-JP", "För"},
		{"unknown declared", []byte{'F', 0xf6, 'r'}, "x-bogus", "För"},
		{"utf8 bytes declared latin1", []byte{0xc3, 0xa9}, "ISO-8859-1", "é"},
		{"latin1 declared utf8", []byte{'F', 0xf6, 'r'}, "UTF-8", "För"},
		{"latin1 declared utf_8", []byte{'F', 0xf6, 'r'}, "utf_8", "För"},
		{"empty", nil, "EUC-JP", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.raw, tt.declared); got != tt.want {
				t.Errorf("Decode(%q, %q) = %q, want %q", tt.raw, tt.declared, got, tt.want)
			}
		})
	}
}

func TestIsUTF8Name(t *testing.T) {
	for _, n := range []string{"UTF-8", "utf8", "utf_8", " UTF-8 "} {
		if !IsUTF8Name(n) {
			t.Errorf("IsUTF8Name(%q) = false", n)
		}
	}
	if IsUTF8Name("EUC-JP") {
		t.Error("IsUTF8Name(EUC-JP) = true")
	}
}
