// Package prf derives every per-ballot secret with HMAC-SHA256 over comma
// separated messages made of the ballot serial number, the part tag, the
// question index, a purpose tag and positional indices.
package prf

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"strconv"
	"strings"

	"github.com/vocdoni/demos-tally/crypto/base32"
	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/crypto/permutation"
)

// Purpose tags.
const (
	TagVoteCode    = "vote_code"
	TagPermutation = "permutation"
	TagRand        = "rand"
	TagZK          = "zk"
	TagZKRow       = "zk_row"
	TagZKCol       = "zk_col"
)

// Message joins the given parts with commas. Integers are written in
// decimal, strings verbatim.
func Message(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case string:
			s[i] = v
		case int:
			s[i] = strconv.Itoa(v)
		case uint64:
			s[i] = strconv.FormatUint(v, 10)
		default:
			panic("unsupported message part")
		}
	}
	return strings.Join(s, ",")
}

// PRF is a keyed HMAC-SHA256 instance. It is not safe for concurrent use;
// every worker owns its own instance.
type PRF struct {
	mac hash.Hash
}

// New returns a PRF keyed with key.
func New(key []byte) *PRF {
	return &PRF{mac: hmac.New(sha256.New, key)}
}

// Sum returns HMAC(key, msg).
func (p *PRF) Sum(msg string) []byte {
	p.mac.Reset()
	p.mac.Write([]byte(msg))
	return p.mac.Sum(nil)
}

func (p *PRF) element(msg string) *field.Element {
	e, err := field.FromBytes(p.Sum(msg))
	if err != nil {
		panic(err) // digests are always field.Size bytes
	}
	return e
}

// Decommitment returns the raw randomness share of a candidate slot of an
// option, as disclosed for not cast parts.
func (p *PRF) Decommitment(serial int, tag string, question, option, candidate int) []byte {
	return p.Sum(Message(serial, tag, question, TagRand, option, candidate))
}

// RandShare returns the randomness share of a candidate slot of an option
// reduced into the field.
func (p *PRF) RandShare(serial int, tag string, question, option, candidate int) *field.Element {
	return p.element(Message(serial, tag, question, TagRand, option, candidate))
}

// ZKDelta returns the blinding value of proof slot (0 to 5) for a candidate
// slot of an option.
func (p *PRF) ZKDelta(serial int, tag string, question, option, candidate, slot int) *field.Element {
	return p.element(Message(serial, tag, question, TagZK, option, candidate, slot))
}

// ZKRowDelta returns the blinding value of row proof slot (6 to 11) of an
// option.
func (p *PRF) ZKRowDelta(serial int, tag string, question, option, slot int) *field.Element {
	return p.element(Message(serial, tag, question, TagZKRow, option, slot))
}

// ZKColDelta returns the blinding value of column proof slot (12 or 13) of
// a candidate slot.
func (p *PRF) ZKColDelta(serial int, tag string, question, candidate, slot int) *field.Element {
	return p.element(Message(serial, tag, question, TagZKCol, candidate, slot))
}

// CredentialKey returns the HMAC key derived from a credential: the
// big-endian bytes of its base32 value.
func CredentialKey(credential string) ([]byte, error) {
	return base32.DecodeBits(credential)
}

// LongVoteCode derives the long vote code of an option: the last length
// base32 symbols of HMAC(credential, "serial,tag,question,vote_code,option").
func LongVoteCode(key []byte, serial int, tag string, question, option, length int) string {
	digest := New(key).Sum(Message(serial, tag, question, TagVoteCode, option))
	s := base32.EncodeBits(digest, length)
	return s[len(s)-length:]
}

// PermutationRank derives the permutation rank of a group of n options from
// the credential key. The security code is appended to the message when the
// election uses security codes.
func PermutationRank(key []byte, serial int, tag string, group int, securityCode string, n int) *bigint.Int {
	parts := []any{serial, tag, group, TagPermutation}
	if securityCode != "" {
		parts = append(parts, securityCode)
	}
	digest := New(key).Sum(Message(parts...))
	return permutation.ReduceRank(bigint.FromBits(digest), n)
}
