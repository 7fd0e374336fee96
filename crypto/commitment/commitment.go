// Package commitment implements the homomorphic commitments published for
// every ballot option over the P-256 group: C1 = r*G and C2 = m*G + r*H,
// where H is the election public key, r the decommitment and m the
// committed value. Commitments and decommitments can be summed, and the
// sum of the committed values recovered by brute force.
package commitment

import (
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/types"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/mod"
	"go.dedis.ch/kyber/v3/group/nist"
)

var (
	// ErrInvalidPoint is returned when a point cannot be decoded.
	ErrInvalidPoint = fmt.Errorf("%w: invalid curve point", types.ErrFormat)
	// ErrInvalidDecommitment is returned when C1 does not match r*G.
	ErrInvalidDecommitment = fmt.Errorf("%w: invalid decommitment", types.ErrConsistency)
	// ErrPlaintextLimit is returned when no value up to the limit matches.
	ErrPlaintextLimit = fmt.Errorf("%w: maximum plaintext reached", types.ErrRange)
	// ErrLengthMismatch is returned when vectors of different length are combined.
	ErrLengthMismatch = fmt.Errorf("%w: vector length mismatch", types.ErrConsistency)
)

var (
	suite = nist.NewBlakeSHA256P256()
	curve = elliptic.P256()
)

// Scalar converts a field element into a group scalar.
func Scalar(e *field.Element) kyber.Scalar {
	return mod.NewInt(new(big.Int).SetBytes(e.Bytes()), curve.Params().N)
}

// negScalar returns -e as a group scalar.
func negScalar(e *field.Element) kyber.Scalar {
	v := new(big.Int).SetBytes(e.Bytes())
	v.Sub(curve.Params().N, v)
	return mod.NewInt(v, curve.Params().N)
}

// Base returns the group generator.
func Base() kyber.Point {
	return suite.Point().Base()
}

// Null returns the point at infinity.
func Null() kyber.Point {
	return suite.Point().Null()
}

// Mul returns s*P, or s*G if p is nil.
func Mul(e *field.Element, p kyber.Point) kyber.Point {
	return suite.Point().Mul(Scalar(e), p)
}

// EncodePoint returns the compressed SEC1 encoding of p. The point at
// infinity encodes as a single zero byte.
func EncodePoint(p kyber.Point) ([]byte, error) {
	if p.Equal(Null()) {
		return []byte{0}, nil
	}
	raw, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	x, y := elliptic.Unmarshal(curve, raw)
	if x == nil {
		return nil, ErrInvalidPoint
	}
	return elliptic.MarshalCompressed(curve, x, y), nil
}

// DecodePoint accepts compressed or uncompressed SEC1 points and the single
// zero byte encoding of the point at infinity.
func DecodePoint(b []byte) (kyber.Point, error) {
	if len(b) == 1 && b[0] == 0 {
		return Null(), nil
	}
	raw := b
	if len(b) == 1+(curve.Params().BitSize+7)/8 {
		x, y := elliptic.UnmarshalCompressed(curve, b)
		if x == nil {
			return nil, ErrInvalidPoint
		}
		raw = elliptic.Marshal(curve, x, y)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(raw); err != nil {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

// DecodePointBase64 decodes a base64 wire point.
func DecodePointBase64(s string) (kyber.Point, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return DecodePoint(b)
}

// Commitment is a pair of points.
type Commitment struct {
	C1 kyber.Point
	C2 kyber.Point
}

// Commit returns the commitment of m with randomness r under public key h.
func Commit(h kyber.Point, m uint64, r *field.Element) *Commitment {
	c2 := Mul(r, h)
	c2 = suite.Point().Add(c2, Mul(field.New(m), nil))
	return &Commitment{C1: Mul(r, nil), C2: c2}
}

type wireCommitment struct {
	C1 string `json:"C1"`
	C2 string `json:"C2"`
}

func (c *Commitment) MarshalJSON() ([]byte, error) {
	c1, err := EncodePoint(c.C1)
	if err != nil {
		return nil, err
	}
	c2, err := EncodePoint(c.C2)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireCommitment{
		C1: base64.StdEncoding.EncodeToString(c1),
		C2: base64.StdEncoding.EncodeToString(c2),
	})
}

func (c *Commitment) UnmarshalJSON(data []byte) error {
	var w wireCommitment
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFormat, err)
	}
	var err error
	if c.C1, err = DecodePointBase64(w.C1); err != nil {
		return err
	}
	if c.C2, err = DecodePointBase64(w.C2); err != nil {
		return err
	}
	return nil
}

// AddCommitments sums commitment vectors element-wise. Empty vectors are
// skipped; the first non-empty vector sets the length of the result.
func AddCommitments(vectors [][]*Commitment) ([]*Commitment, error) {
	var sum []*Commitment
	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]*Commitment, len(v))
			for i := range sum {
				sum[i] = &Commitment{C1: Null(), C2: Null()}
			}
		}
		if len(v) != len(sum) {
			return nil, ErrLengthMismatch
		}
		for i, c := range v {
			sum[i].C1 = suite.Point().Add(sum[i].C1, c.C1)
			sum[i].C2 = suite.Point().Add(sum[i].C2, c.C2)
		}
	}
	return sum, nil
}

// AddDecommitments sums decommitment vectors element-wise modulo the group
// order, with the same empty vector rule as AddCommitments.
func AddDecommitments(vectors [][]*field.Element) ([]*field.Element, error) {
	var sum []*field.Element
	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]*field.Element, len(v))
			for i := range sum {
				sum[i] = field.New(0)
			}
		}
		if len(v) != len(sum) {
			return nil, ErrLengthMismatch
		}
		for i, d := range v {
			sum[i].AddM(d)
		}
	}
	return sum, nil
}

// Extract opens every commitment with its decommitment and recovers the
// committed values, trying every value from 0 to maxPlaintext.
func Extract(h kyber.Point, commitments []*Commitment, decommitments []*field.Element, maxPlaintext uint64) ([]uint64, error) {
	if len(commitments) != len(decommitments) {
		return nil, ErrLengthMismatch
	}
	out := make([]uint64, 0, len(commitments))
	for i, c := range commitments {
		r := decommitments[i]
		if !c.C1.Equal(Mul(r, nil)) {
			return nil, fmt.Errorf("%w: position %d", ErrInvalidDecommitment, i)
		}
		// C2 - r*H
		target := suite.Point().Add(c.C2, suite.Point().Mul(negScalar(r), h))
		acc := Null()
		g := Base()
		found := false
		for m := uint64(0); m <= maxPlaintext; m++ {
			if target.Equal(acc) {
				out = append(out, m)
				found = true
				break
			}
			acc = suite.Point().Add(acc, g)
		}
		if !found {
			return nil, fmt.Errorf("%w: position %d", ErrPlaintextLimit, i)
		}
	}
	return out, nil
}
