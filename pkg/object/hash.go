package object

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
)

// IDSize is the length in bytes of an object id.
const IDSize = 20

// ObjectID is a SHA-1 content hash. The zero value is the null id.
type ObjectID [IDSize]byte

// ZeroID is the all-zero id, used for "no object" (e.g. an absent tree).
var ZeroID ObjectID

// FromHex parses a 40-digit hex id.
func FromHex(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 2*IDSize {
		return id, fmt.Errorf("invalid object id %q: want %d hex digits", s, 2*IDSize)
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return id, nil
}

// MustFromHex is FromHex that panics on malformed input. Meant for tests and constants.
func MustFromHex(s string) ObjectID {
	id, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsHex reports whether s looks like a full hex object id.
func IsHex(s string) bool {
	if len(s) != 2*IDSize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func (id ObjectID) String() string { return hex.EncodeToString(id[:]) }

// Short returns the first n hex digits.
func (id ObjectID) Short(n int) string {
	s := id.String()
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}

func (id ObjectID) IsZero() bool { return id == ZeroID }

// Compare orders ids bytewise, returning -1, 0 or +1.
func (id ObjectID) Compare(other ObjectID) int {
	return bytes.Compare(id[:], other[:])
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// the same id git assigns to the object.
func HashObject(objType ObjectType, data []byte) ObjectID {
	h := sha1.New()
	h.Write([]byte(objType))
	h.Write([]byte{' '})
	h.Write([]byte(strconv.Itoa(len(data))))
	h.Write([]byte{0})
	h.Write(data)
	var id ObjectID
	copy(id[:], h.Sum(nil))
	return id
}
