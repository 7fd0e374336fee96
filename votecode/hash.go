package votecode

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/vocdoni/demos-tally/types"
	"golang.org/x/crypto/pbkdf2"
)

// ErrHash is returned for malformed or unsupported password hashes.
var ErrHash = fmt.Errorf("%w: invalid hash", types.ErrFormat)

// VerifyHash checks secret against a hash encoded as
// "algorithm$iterations$salt$base64digest", with algorithm pbkdf2_sha256 or
// pbkdf2_sha512. Long vote code hashes are published in this format.
func VerifyHash(secret, encoded string) (bool, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 4 {
		return false, ErrHash
	}
	var h func() hash.Hash
	switch fields[0] {
	case "pbkdf2_sha256":
		h = sha256.New
	case "pbkdf2_sha512":
		h = sha512.New
	default:
		return false, fmt.Errorf("%w: unsupported algorithm %q", ErrHash, fields[0])
	}
	iterations, err := strconv.Atoi(fields[1])
	if err != nil || iterations < 1 {
		return false, ErrHash
	}
	digest, err := base64.StdEncoding.DecodeString(fields[3])
	if err != nil || len(digest) == 0 {
		return false, ErrHash
	}
	key := pbkdf2.Key([]byte(secret), []byte(fields[2]), iterations, len(digest), h)
	return hmac.Equal(key, digest), nil
}

// VerifyVoteCodeHash derives the vote code of an option and checks it
// against its published hash.
func (b *Ballot) VerifyVoteCodeHash(question, option int, encoded string) (bool, error) {
	code, err := b.VoteCode(question, option)
	if err != nil {
		return false, err
	}
	return VerifyHash(code, encoded)
}
