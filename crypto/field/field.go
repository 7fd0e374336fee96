// Package field implements arithmetic modulo the order of the P-256 group
// on fixed size 256-bit words. It is used by the tally hot loop, where every
// ballot needs dozens of modular multiplications.
package field

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/types"
)

// Size is the byte length of a field element.
const Size = 32

// Order is the order of the prime256v1 (secp256r1) group.
var Order = uint256.MustFromHex("0xffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551")

// ErrTooLong is returned when decoding more than Size bytes.
var ErrTooLong = fmt.Errorf("%w: field element longer than %d bytes", types.ErrFormat, Size)

// Element is an integer reduced modulo Order. The zero value is 0.
type Element struct {
	v uint256.Int
}

// New returns the element x mod Order.
func New(x uint64) *Element {
	e := &Element{}
	e.v.SetUint64(x)
	e.v.Mod(&e.v, Order)
	return e
}

// FromBytes reduces a big-endian value of at most Size bytes. HMAC-SHA256
// digests are decoded with it.
func FromBytes(b []byte) (*Element, error) {
	if len(b) > Size {
		return nil, ErrTooLong
	}
	e := &Element{}
	e.v.SetBytes(b)
	e.v.Mod(&e.v, Order)
	return e, nil
}

// FromBigInt reduces an arbitrary precision integer.
func FromBigInt(x *bigint.Int) *Element {
	r, err := x.Mod(bigint.FromBits(Order.Bytes()))
	if err != nil {
		panic(err) // order is not zero
	}
	e := &Element{}
	e.v.SetBytes(r.Bits())
	return e
}

// FromWire reduces a wire big integer.
func FromWire(x *types.BigInt) (*Element, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: missing field element", types.ErrFormat)
	}
	v, err := bigint.FromBig(x.MathBigInt())
	if err != nil {
		return nil, err
	}
	return FromBigInt(v), nil
}

// Add returns e + x.
func (e *Element) Add(x *Element) *Element {
	r := &Element{}
	r.v.AddMod(&e.v, &x.v, Order)
	return r
}

// Mul returns e * x.
func (e *Element) Mul(x *Element) *Element {
	r := &Element{}
	r.v.MulMod(&e.v, &x.v, Order)
	return r
}

// MulAdd returns e * x + y.
func (e *Element) MulAdd(x, y *Element) *Element {
	r := &Element{}
	r.v.MulMod(&e.v, &x.v, Order)
	r.v.AddMod(&r.v, &y.v, Order)
	return r
}

// AddM adds x to e in place and returns e.
func (e *Element) AddM(x *Element) *Element {
	e.v.AddMod(&e.v, &x.v, Order)
	return e
}

// Equal reports whether both elements are equal.
func (e *Element) Equal(x *Element) bool {
	return e.v.Eq(&x.v)
}

// IsZero reports whether e is 0.
func (e *Element) IsZero() bool {
	return e.v.IsZero()
}

// Bytes returns the minimal big-endian representation.
func (e *Element) Bytes() []byte {
	return e.v.Bytes()
}

// BigInt returns e as an arbitrary precision integer.
func (e *Element) BigInt() *bigint.Int {
	return bigint.FromBits(e.v.Bytes())
}

// Wire returns e as a wire big integer.
func (e *Element) Wire() *types.BigInt {
	return types.NewBigInt(e.v.ToBig())
}

// String returns the decimal representation.
func (e *Element) String() string {
	return e.v.Dec()
}
