package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigMarshalUnmarshalJSON(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	jsonBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := json.Marshal(jsonBigInt)
	c.Assert(err, qt.IsNil)
	c.Assert(string(bBigInt), qt.Equals, `{"bi":"SZYC0g=="}`)

	var unmarshaled map[string]*BigInt
	c.Assert(json.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].Equal(bi), qt.IsTrue)
}

func TestBigMarshalUnmarshalCBOR(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	cborBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := cbor.Marshal(cborBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(cbor.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].Equal(bi), qt.IsTrue)
}

func TestBigZeroAndMalformed(t *testing.T) {
	c := qt.New(t)

	zero := (*BigInt)(big.NewInt(0))
	data, err := json.Marshal(zero)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `""`)

	var bi BigInt
	c.Assert(json.Unmarshal([]byte(`"AA=="`), &bi), qt.IsNil)
	c.Assert(bi.MathBigInt().Sign(), qt.Equals, 0)

	c.Assert(json.Unmarshal([]byte(`"SZYC0g"`), &bi), qt.IsNil)
	c.Assert(bi.String(), qt.Equals, "1234567890")

	err = json.Unmarshal([]byte(`"not base64!"`), &bi)
	c.Assert(err, qt.ErrorIs, ErrFormat)
	err = json.Unmarshal([]byte(`12`), &bi)
	c.Assert(err, qt.ErrorIs, ErrFormat)
}
