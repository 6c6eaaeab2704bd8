package object

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// PersonIdent is the author, committer or tagger line of an object.
type PersonIdent struct {
	Name  string
	Email string
	// When is seconds since the Unix epoch.
	When int64
	// TZOffset is the zone offset in minutes east of UTC.
	TZOffset int
}

// Time returns When in the ident's own zone.
func (p PersonIdent) Time() time.Time {
	loc := time.FixedZone("", p.TZOffset*60)
	return time.Unix(p.When, 0).In(loc)
}

// Zone renders TZOffset as git's ±hhmm form.
func (p PersonIdent) Zone() string {
	sign := '+'
	off := p.TZOffset
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%c%02d%02d", sign, off/60, off%60)
}

// String renders the ident in canonical form: "Name <email> when ±hhmm".
func (p PersonIdent) String() string {
	return fmt.Sprintf("%s <%s> %d %s", p.Name, p.Email, p.When, p.Zone())
}

// IdentFields is the raw byte layout of an ident line. Name and Email
// are left undecoded so callers can apply their own charset rules.
type IdentFields struct {
	Name     []byte
	Email    []byte
	When     int64
	TZOffset int
}

// ParseIdentBytes splits a raw ident value (the text after "author ").
// Name is the trimmed text before '<'; Email is the text between '<' and '>'.
// A malformed timestamp or zone yields zero for that field rather than an error,
// since real histories contain such idents.
func ParseIdentBytes(raw []byte) (IdentFields, error) {
	lt := bytes.IndexByte(raw, '<')
	if lt < 0 {
		return IdentFields{}, fmt.Errorf("ident %q: missing '<'", raw)
	}
	gt := bytes.IndexByte(raw[lt+1:], '>')
	if gt < 0 {
		return IdentFields{}, fmt.Errorf("ident %q: missing '>'", raw)
	}
	gt += lt + 1

	f := IdentFields{
		Name:  bytes.TrimSpace(raw[:lt]),
		Email: raw[lt+1 : gt],
	}
	rest := bytes.Fields(raw[gt+1:])
	if len(rest) > 0 {
		if v, err := strconv.ParseInt(string(rest[0]), 10, 64); err == nil {
			f.When = v
		}
	}
	if len(rest) > 1 {
		f.TZOffset = parseZone(rest[1])
	}
	return f, nil
}

// ParseIdent is ParseIdentBytes with Name and Email taken as UTF-8.
func ParseIdent(raw []byte) (PersonIdent, error) {
	f, err := ParseIdentBytes(raw)
	if err != nil {
		return PersonIdent{}, err
	}
	return PersonIdent{Name: string(f.Name), Email: string(f.Email), When: f.When, TZOffset: f.TZOffset}, nil
}

func parseZone(z []byte) int {
	if len(z) != 5 || (z[0] != '+' && z[0] != '-') {
		return 0
	}
	hh, err1 := strconv.Atoi(string(z[1:3]))
	mm, err2 := strconv.Atoi(string(z[3:5]))
	if err1 != nil || err2 != nil {
		return 0
	}
	off := hh*60 + mm
	if z[0] == '-' {
		off = -off
	}
	return off
}
