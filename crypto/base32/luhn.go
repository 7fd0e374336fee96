package base32

import (
	"fmt"
	"strings"

	"github.com/vocdoni/demos-tally/types"
)

// ErrCheckCharacter is returned when a check character does not match.
var ErrCheckCharacter = fmt.Errorf("%w: invalid check character", types.ErrFormat)

// fold sums the digits of v expressed in base n, for v < 2n.
func fold(v, n int) int {
	return v/n + v%n
}

// CheckCharacter computes the Luhn mod N check character of s, where N is the
// size of alphabet. Walking from the rightmost character leftwards, every
// other character starting with the rightmost one is doubled.
func CheckCharacter(s, alphabet string) (byte, error) {
	n := len(alphabet)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty alphabet", types.ErrFormat)
	}
	sum := 0
	double := true
	for i := len(s) - 1; i >= 0; i-- {
		cp := strings.IndexByte(alphabet, s[i])
		if cp < 0 {
			return 0, ErrInvalidSymbol
		}
		if double {
			sum += fold(2*cp, n)
		} else {
			sum += cp
		}
		double = !double
	}
	return alphabet[(n-sum%n)%n], nil
}

// AppendCheckCharacter returns s followed by its check character.
func AppendCheckCharacter(s, alphabet string) (string, error) {
	c, err := CheckCharacter(s, alphabet)
	if err != nil {
		return "", err
	}
	return s + string(c), nil
}

// ValidateCheckCharacter reports whether the last character of s is the
// check character of the preceding ones. Strings with symbols outside the
// alphabet are never valid.
func ValidateCheckCharacter(s, alphabet string) bool {
	n := len(alphabet)
	if n == 0 || s == "" {
		return false
	}
	factor := 1
	sum := 0
	for i := len(s) - 1; i >= 0; i-- {
		cp := strings.IndexByte(alphabet, s[i])
		if cp < 0 {
			return false
		}
		sum += fold(factor*cp, n)
		if factor == 2 {
			factor = 1
		} else {
			factor = 2
		}
	}
	return sum%n == 0
}
