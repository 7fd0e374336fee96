package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals to JSON as the base64 encoding
// of its big-endian bytes, the format used for every group element exchanged
// with the data service. Zero encodes as the empty string.
type BigInt big.Int

// NewBigInt returns a BigInt holding a copy of the given value.
func NewBigInt(v *big.Int) *BigInt {
	return (*BigInt)(new(big.Int).Set(v))
}

// BigIntFromBytes returns a BigInt from its big-endian byte representation.
func BigIntFromBytes(b []byte) *BigInt {
	return (*BigInt)(new(big.Int).SetBytes(b))
}

// MathBigInt returns the underlying *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// Bytes returns the minimal big-endian representation.
func (i *BigInt) Bytes() []byte {
	return i.MathBigInt().Bytes()
}

// String returns the decimal representation.
func (i *BigInt) String() string {
	return i.MathBigInt().String()
}

// Base64 returns the wire representation.
func (i *BigInt) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Bytes())
}

// Equal reports whether both values are the same number.
func (i *BigInt) Equal(j *BigInt) bool {
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}

// SetBase64 decodes a wire value. Both padded and unpadded standard base64
// are accepted.
func (i *BigInt) SetBase64(s string) error {
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if b, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return fmt.Errorf("%w: invalid base64 integer", ErrFormat)
		}
	}
	i.MathBigInt().SetBytes(b)
	return nil
}

func (i *BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Base64())
}

func (i *BigInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: big integer must be a base64 string", ErrFormat)
	}
	return i.SetBase64(s)
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.Bytes())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	i.MathBigInt().SetBytes(b)
	return nil
}
