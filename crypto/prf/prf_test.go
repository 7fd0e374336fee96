package prf

import (
	"encoding/base64"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/demos-tally/crypto/base32"
)

const (
	testCredential = "7K3M-9QPZ-X4TR-2VWN"
	testTrusteeKey = "c2VjcmV0LXRydXN0ZWUta2V5LWZvci10ZXN0cw=="
)

func trusteePRF(c *qt.C) *PRF {
	key, err := base64.StdEncoding.DecodeString(testTrusteeKey)
	c.Assert(err, qt.IsNil)
	return New(key)
}

func TestMessage(t *testing.T) {
	c := qt.New(t)
	c.Assert(Message(1024, "A", 0, TagRand, 3, 1), qt.Equals, "1024,A,0,rand,3,1")
	c.Assert(Message(7, "B", 2, TagPermutation), qt.Equals, "7,B,2,permutation")
	c.Assert(Message(uint64(9)), qt.Equals, "9")
}

func TestLongVoteCode(t *testing.T) {
	c := qt.New(t)
	key, err := CredentialKey(testCredential)
	c.Assert(err, qt.IsNil)

	code := LongVoteCode(key, 1024, "A", 0, 3, 16)
	c.Assert(code, qt.Equals, "TD2Y5S1HND3WASGX")
	// deterministic
	c.Assert(LongVoteCode(key, 1024, "A", 0, 3, 16), qt.Equals, code)
	// lower case and unhyphenated credentials produce the same key
	key2, err := CredentialKey("7k3m9qpzx4tr2vwn")
	c.Assert(err, qt.IsNil)
	c.Assert(LongVoteCode(key2, 1024, "A", 0, 3, 16), qt.Equals, code)
	// other option
	c.Assert(LongVoteCode(key, 1024, "A", 0, 4, 16), qt.Not(qt.Equals), code)

	_, err = CredentialKey("U000")
	c.Assert(err, qt.ErrorIs, base32.ErrInvalidSymbol)
}

func TestRandShare(t *testing.T) {
	c := qt.New(t)
	p := trusteePRF(c)
	raw := p.Decommitment(1024, "A", 0, 3, 1)
	c.Assert(base64.StdEncoding.EncodeToString(raw), qt.Equals, "AyWJXIvmVoLaB3/dXK5juf+bg3O38NZOa/i1O+9UStg=")
	share := p.RandShare(1024, "A", 0, 3, 1)
	c.Assert(share.String(), qt.Equals, "1423259921444367142428807084084841931717247486011170381151019316982586821336")
	// the instance can be reused
	c.Assert(p.RandShare(1024, "A", 0, 3, 1).Equal(share), qt.IsTrue)
}

func TestPermutationRank(t *testing.T) {
	c := qt.New(t)
	key, err := CredentialKey(testCredential)
	c.Assert(err, qt.IsNil)
	r := PermutationRank(key, 1024, "B", 2, "123456789", 5)
	c.Assert(r.Uint64(), qt.Equals, uint64(63))
	r = PermutationRank(key, 1024, "B", 2, "", 5)
	c.Assert(r.Cmp(PermutationRank(key, 1024, "B", 2, "", 5)), qt.Equals, 0)
	c.Assert(r.Uint64() < 120, qt.IsTrue)
}

func TestDeltasAreDistinct(t *testing.T) {
	c := qt.New(t)
	p := trusteePRF(c)
	seen := map[string]bool{}
	for slot := 0; slot < 6; slot++ {
		seen[p.ZKDelta(1, "A", 0, 0, 0, slot).String()] = true
	}
	for slot := 6; slot < 12; slot++ {
		seen[p.ZKRowDelta(1, "A", 0, 0, slot).String()] = true
	}
	for slot := 12; slot < 14; slot++ {
		seen[p.ZKColDelta(1, "A", 0, 0, slot).String()] = true
	}
	c.Assert(seen, qt.HasLen, 14)
}
