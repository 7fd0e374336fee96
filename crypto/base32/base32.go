// Package base32 implements Crockford's base32 encoding of non-negative
// integers, hyphen grouping and the Luhn mod N check character used by
// credentials and security codes.
package base32

import (
	"fmt"
	"strings"

	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/types"
)

const (
	// Alphabet is Crockford's base32 alphabet. I, L, O and U are excluded.
	Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	// Digits is the alphabet of numeric security codes.
	Digits = "0123456789"
)

var (
	// ErrInvalidSymbol is returned for strings with symbols outside the
	// alphabet or with misplaced hyphens.
	ErrInvalidSymbol = fmt.Errorf("%w: invalid base32 string", types.ErrFormat)
	// ErrGroupLength is returned for negative group lengths.
	ErrGroupLength = fmt.Errorf("%w: negative group length", types.ErrRange)
)

var decodeMap [256]int8

func init() {
	for i := range decodeMap {
		decodeMap[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		decodeMap[Alphabet[i]] = int8(i)
	}
}

// validSymbol reports whether c is accepted before normalization: digits and
// letters in either case except U.
func validSymbol(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return c != 'U'
	case c >= 'a' && c <= 'z':
		return c != 'u'
	}
	return false
}

// Validate checks that s is a non-empty encoded string. Hyphens are allowed
// only between two symbols.
func Validate(s string) error {
	if s == "" {
		return ErrInvalidSymbol
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			if i == 0 || i == len(s)-1 || s[i-1] == '-' {
				return ErrInvalidSymbol
			}
			continue
		}
		if !validSymbol(s[i]) {
			return ErrInvalidSymbol
		}
	}
	return nil
}

// Normalize converts s to upper case, folds the ambiguous letters O, I and
// L into 0, 1 and 1 and strips every hyphen. Hyphen placement is not
// checked; user input goes through Validate first.
func Normalize(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			continue
		}
		if !validSymbol(c) {
			return "", ErrInvalidSymbol
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		switch c {
		case 'O':
			c = '0'
		case 'I', 'L':
			c = '1'
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// Encode returns the base32 representation of n, left padded with zeros to
// length symbols. Zero encodes as "0".
func Encode(n *bigint.Int, length int) string {
	var out []byte
	if n.IsZero() {
		out = []byte{'0'}
	} else {
		// five bits per symbol, least significant first
		raw := n.Bits()
		var acc uint
		var bits uint
		for i := len(raw) - 1; i >= 0; i-- {
			acc |= uint(raw[i]) << bits
			bits += 8
			for bits >= 5 {
				out = append(out, Alphabet[acc&31])
				acc >>= 5
				bits -= 5
			}
		}
		if bits > 0 && acc != 0 {
			out = append(out, Alphabet[acc&31])
		}
		for len(out) > 1 && out[len(out)-1] == '0' {
			out = out[:len(out)-1]
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if pad := length - len(out); pad > 0 {
		out = append([]byte(strings.Repeat("0", pad)), out...)
	}
	return string(out)
}

// EncodeGrouped is Encode followed by Hyphenate.
func EncodeGrouped(n *bigint.Int, length, groupLength int) (string, error) {
	return Hyphenate(Encode(n, length), groupLength)
}

// EncodeBits encodes the big-endian integer b.
func EncodeBits(b []byte, length int) string {
	return Encode(bigint.FromBits(b), length)
}

// Decode normalizes s and returns the integer it represents.
func Decode(s string) (*bigint.Int, error) {
	s, err := Normalize(s)
	if err != nil {
		return nil, err
	}
	n := bigint.Zero()
	for i := 0; i < len(s); i++ {
		d := decodeMap[s[i]]
		if d < 0 {
			return nil, ErrInvalidSymbol
		}
		n = n.Lsh(5).Add(bigint.New(uint64(d)))
	}
	return n, nil
}

// DecodeBits returns the minimal big-endian representation of s.
func DecodeBits(s string) ([]byte, error) {
	n, err := Decode(s)
	if err != nil {
		return nil, err
	}
	return n.Bits(), nil
}

// Hyphenate removes existing hyphens from s and, if groupLength is greater
// than zero, splits it into groups of groupLength symbols joined by hyphens.
// The last group may be shorter.
func Hyphenate(s string, groupLength int) (string, error) {
	if groupLength < 0 {
		return "", ErrGroupLength
	}
	s = Dehyphenate(s)
	if groupLength == 0 || len(s) <= groupLength {
		return s, nil
	}
	groups := make([]string, 0, (len(s)+groupLength-1)/groupLength)
	for len(s) > groupLength {
		groups = append(groups, s[:groupLength])
		s = s[groupLength:]
	}
	groups = append(groups, s)
	return strings.Join(groups, "-"), nil
}

// Dehyphenate removes every hyphen from s.
func Dehyphenate(s string) string {
	return strings.ReplaceAll(s, "-", "")
}
