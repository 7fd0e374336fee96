// Package bigint provides an immutable, non-negative arbitrary precision
// integer. Every operation returns a new value except the M-suffixed
// methods, which update the receiver in place and are meant for hot loops.
package bigint

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vocdoni/demos-tally/types"
)

var (
	// ErrUnderflow is returned when a subtraction would be negative.
	ErrUnderflow = fmt.Errorf("%w: subtraction underflow", types.ErrArithmetic)
	// ErrDivisionByZero is returned by division and modular operations.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", types.ErrArithmetic)
	// ErrNegative is returned when building an Int from a negative value.
	ErrNegative = fmt.Errorf("%w: negative value", types.ErrRange)
	// ErrInvalidString is returned when a decimal or hex string cannot be parsed.
	ErrInvalidString = fmt.Errorf("%w: invalid integer string", types.ErrFormat)
)

// Int is a non-negative integer. The zero value is 0.
type Int struct {
	v big.Int
}

// New returns an Int with the given value.
func New(x uint64) *Int {
	i := &Int{}
	i.v.SetUint64(x)
	return i
}

// Zero returns 0.
func Zero() *Int {
	return &Int{}
}

// One returns 1.
func One() *Int {
	return New(1)
}

// FromBits interprets b as a big-endian unsigned integer.
func FromBits(b []byte) *Int {
	i := &Int{}
	i.v.SetBytes(b)
	return i
}

// FromString parses s in base 10 or 16. For base 16 an optional 0x prefix
// is accepted.
func FromString(s string, base int) (*Int, error) {
	if base != 10 && base != 16 {
		return nil, fmt.Errorf("%w: unsupported base %d", ErrInvalidString, base)
	}
	if base == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, ErrInvalidString
	}
	i := &Int{}
	if _, ok := i.v.SetString(s, base); !ok {
		return nil, ErrInvalidString
	}
	return i, nil
}

// MustFromString is like FromString but panics on error. It is meant for
// package level constants.
func MustFromString(s string, base int) *Int {
	i, err := FromString(s, base)
	if err != nil {
		panic(err)
	}
	return i
}

// FromBig returns a copy of x. Negative values are rejected.
func FromBig(x *big.Int) (*Int, error) {
	if x.Sign() < 0 {
		return nil, ErrNegative
	}
	i := &Int{}
	i.v.Set(x)
	return i, nil
}

// Big returns a copy of the value as a *big.Int.
func (i *Int) Big() *big.Int {
	return new(big.Int).Set(&i.v)
}

// Copy returns an independent copy of i.
func (i *Int) Copy() *Int {
	c := &Int{}
	c.v.Set(&i.v)
	return c
}

// Add returns i + x.
func (i *Int) Add(x *Int) *Int {
	r := &Int{}
	r.v.Add(&i.v, &x.v)
	return r
}

// Sub returns i - x, or ErrUnderflow if x > i.
func (i *Int) Sub(x *Int) (*Int, error) {
	if i.v.Cmp(&x.v) < 0 {
		return nil, ErrUnderflow
	}
	r := &Int{}
	r.v.Sub(&i.v, &x.v)
	return r, nil
}

// Mul returns i * x.
func (i *Int) Mul(x *Int) *Int {
	r := &Int{}
	r.v.Mul(&i.v, &x.v)
	return r
}

// DivMod returns the quotient and remainder of i / d.
func (i *Int) DivMod(d *Int) (*Int, *Int, error) {
	if d.v.Sign() == 0 {
		return nil, nil, ErrDivisionByZero
	}
	q, r := &Int{}, &Int{}
	q.v.QuoRem(&i.v, &d.v, &r.v)
	return q, r, nil
}

// DivModUint divides by a machine word divisor.
func (i *Int) DivModUint(d uint64) (*Int, uint64, error) {
	q, r, err := i.DivMod(New(d))
	if err != nil {
		return nil, 0, err
	}
	return q, r.v.Uint64(), nil
}

// Mod returns i mod m.
func (i *Int) Mod(m *Int) (*Int, error) {
	_, r, err := i.DivMod(m)
	return r, err
}

// MulMod returns (i * x) mod m.
func (i *Int) MulMod(x, m *Int) (*Int, error) {
	if m.v.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	r := &Int{}
	r.v.Mul(&i.v, &x.v)
	r.v.Mod(&r.v, &m.v)
	return r, nil
}

// Lsh returns i << n.
func (i *Int) Lsh(n uint) *Int {
	r := &Int{}
	r.v.Lsh(&i.v, n)
	return r
}

// Rsh returns i >> n.
func (i *Int) Rsh(n uint) *Int {
	r := &Int{}
	r.v.Rsh(&i.v, n)
	return r
}

// LowBits returns the n least significant bits of i.
func (i *Int) LowBits(n uint) *Int {
	mask := new(big.Int).Lsh(big.NewInt(1), n)
	mask.Sub(mask, big.NewInt(1))
	r := &Int{}
	r.v.And(&i.v, mask)
	return r
}

// DoubleM doubles i in place and returns it.
func (i *Int) DoubleM() *Int {
	i.v.Lsh(&i.v, 1)
	return i
}

// HalveM halves i in place, rounding down, and returns it.
func (i *Int) HalveM() *Int {
	i.v.Rsh(&i.v, 1)
	return i
}

// AddM adds x to i in place and returns it.
func (i *Int) AddM(x *Int) *Int {
	i.v.Add(&i.v, &x.v)
	return i
}

// Cmp compares i and x and returns -1, 0 or +1.
func (i *Int) Cmp(x *Int) int {
	return i.v.Cmp(&x.v)
}

// Equal reports whether i == x.
func (i *Int) Equal(x *Int) bool {
	return i.v.Cmp(&x.v) == 0
}

// GreaterOrEqual reports whether i >= x.
func (i *Int) GreaterOrEqual(x *Int) bool {
	return i.v.Cmp(&x.v) >= 0
}

// IsZero reports whether i == 0.
func (i *Int) IsZero() bool {
	return i.v.Sign() == 0
}

// BitLength returns the number of bits needed to represent i. It is 0 for 0.
func (i *Int) BitLength() int {
	return i.v.BitLen()
}

// Bits returns the minimal big-endian representation. Zero has no bytes.
func (i *Int) Bits() []byte {
	return i.v.Bytes()
}

// FillBits returns the big-endian representation left padded to n bytes.
func (i *Int) FillBits(n int) []byte {
	return i.v.FillBytes(make([]byte, n))
}

// IsUint64 reports whether i fits in an uint64.
func (i *Int) IsUint64() bool {
	return i.v.IsUint64()
}

// Uint64 returns the low 64 bits of i.
func (i *Int) Uint64() uint64 {
	return i.v.Uint64()
}

// String returns the decimal representation.
func (i *Int) String() string {
	return i.v.String()
}

// Text returns the representation in the given base.
func (i *Int) Text(base int) string {
	return i.v.Text(base)
}
