// Package votecode reconciles credentials, security codes and vote codes on
// the voter side. It derives the per-question option permutations of a
// ballot part, from which short vote codes are looked up, and the long vote
// codes of every option. It also generates credentials, security codes and
// short vote code lists the way the election authority does.
package votecode

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/vocdoni/demos-tally/crypto/base32"
	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/crypto/permutation"
	"github.com/vocdoni/demos-tally/types"
)

// ElectionType selects how questions are grouped for permutations.
type ElectionType string

const (
	// QuestionOption elections permute the options of every question.
	QuestionOption ElectionType = "question-option"
	// PartyCandidate elections have a party question followed by a
	// candidate question split into one group per party.
	PartyCandidate ElectionType = "party-candidate"
)

// Type is the kind of vote code printed on the ballot.
type Type string

const (
	Short Type = "short"
	Long  Type = "long"
)

// CredentialGroupLength is the hyphen grouping used to display credentials
// and long vote codes.
const CredentialGroupLength = 4

var (
	// ErrElection is returned for inconsistent election shapes.
	ErrElection = fmt.Errorf("%w: invalid election", types.ErrConsistency)
	// ErrCredential is returned for malformed credentials.
	ErrCredential = fmt.Errorf("%w: invalid credential", types.ErrFormat)
	// ErrSecurityCode is returned for malformed security codes.
	ErrSecurityCode = fmt.Errorf("%w: invalid security code", types.ErrFormat)
	// ErrSecurityCodeRange is returned when a security code encodes a
	// permutation rank outside [0, n!).
	ErrSecurityCodeRange = fmt.Errorf("%w: security code encodes an invalid permutation", types.ErrRange)
	// ErrVoteCode is returned for malformed or unknown vote codes.
	ErrVoteCode = fmt.Errorf("%w: invalid vote code", types.ErrFormat)
	// ErrOptionIndex is returned for question or option indices out of bounds.
	ErrOptionIndex = fmt.Errorf("%w: option index out of range", types.ErrRange)
)

// Election is the shape of an election as seen by the voting booth.
type Election struct {
	Type         ElectionType
	OptionCounts []int
	VoteCodeType Type
	// VoteCodeLength is the number of symbols of long vote codes.
	VoteCodeLength int
	// SecurityCodeLength includes the check digit. Zero means the election
	// does not use security codes.
	SecurityCodeLength int
	// CredentialLength is the number of base32 symbols, without hyphens.
	CredentialLength int
}

// Validate checks the election shape.
func (e *Election) Validate() error {
	if len(e.OptionCounts) == 0 {
		return fmt.Errorf("%w: no questions", ErrElection)
	}
	for q, n := range e.OptionCounts {
		if n < 1 {
			return fmt.Errorf("%w: question %d has no options", ErrElection, q)
		}
	}
	switch e.Type {
	case QuestionOption:
	case PartyCandidate:
		if len(e.OptionCounts) != 2 {
			return fmt.Errorf("%w: party-candidate elections have two questions", ErrElection)
		}
		if e.OptionCounts[1]%e.OptionCounts[0] != 0 {
			return fmt.Errorf("%w: candidates are not evenly split among parties", ErrElection)
		}
	default:
		return fmt.Errorf("%w: unknown election type %q", ErrElection, e.Type)
	}
	switch e.VoteCodeType {
	case Short:
	case Long:
		if e.VoteCodeLength < 1 {
			return fmt.Errorf("%w: missing vote code length", ErrElection)
		}
	default:
		return fmt.Errorf("%w: unknown vote code type %q", ErrElection, e.VoteCodeType)
	}
	if e.SecurityCodeLength == 1 || e.SecurityCodeLength < 0 {
		return fmt.Errorf("%w: invalid security code length", ErrElection)
	}
	if e.CredentialLength < 1 {
		return fmt.Errorf("%w: missing credential length", ErrElection)
	}
	return nil
}

// Groups returns the size of every permutation group. Question-option
// elections have one group per question. Party-candidate elections have
// the party group followed by one candidate group per party.
func (e *Election) Groups() []int {
	if e.Type != PartyCandidate {
		return append([]int(nil), e.OptionCounts...)
	}
	parties := e.OptionCounts[0]
	groups := make([]int, 0, parties+1)
	groups = append(groups, parties)
	for i := 0; i < parties; i++ {
		groups = append(groups, e.OptionCounts[1]/parties)
	}
	return groups
}

// maxPackedRanks returns the largest integer a security code body must hold
// to carry every group rank: each group's maximum rank shifted past the
// bits used by the previous groups.
func (e *Election) maxPackedRanks() *bigint.Int {
	sMax := bigint.Zero()
	for _, n := range e.Groups() {
		sMax = sMax.Add(permutation.MaxRank(n).Lsh(uint(sMax.BitLength())))
	}
	return sMax
}

// IdealSecurityCodeLength is the length, check digit included, of a
// security code that encodes every group rank directly.
func (e *Election) IdealSecurityCodeLength() int {
	return len(e.maxPackedRanks().String()) + 1
}

// FixedLengthSecurityCode reports whether security codes carry the group
// ranks themselves instead of seeding their derivation.
func (e *Election) FixedLengthSecurityCode() bool {
	return e.SecurityCodeLength > 0 && e.SecurityCodeLength == e.IdealSecurityCodeLength()
}

// NormalizeCredential validates a user entered credential and returns it
// upper case, with ambiguous symbols folded and grouped by hyphens.
func (e *Election) NormalizeCredential(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := base32.Validate(s); err != nil {
		return "", ErrCredential
	}
	s, err := base32.Normalize(s)
	if err != nil {
		return "", ErrCredential
	}
	if len(s) != e.CredentialLength {
		return "", ErrCredential
	}
	return base32.Hyphenate(s, CredentialGroupLength)
}

// NormalizeSecurityCode validates a user entered security code: decimal
// digits only, of the election length, ending with a valid check digit.
func (e *Election) NormalizeSecurityCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if e.SecurityCodeLength == 0 || len(s) != e.SecurityCodeLength {
		return "", ErrSecurityCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", ErrSecurityCode
		}
	}
	if !base32.ValidateCheckCharacter(s, base32.Digits) {
		return "", ErrSecurityCode
	}
	return s, nil
}

// SecurityCodeRanks decodes the group ranks of a fixed length security
// code. The body, check digit excluded, is read as a decimal integer whose
// low bits hold the rank of group 0, followed by group 1 and so on. Every
// rank must be lower than the factorial of its group size.
func (e *Election) SecurityCodeRanks(code string) ([]*bigint.Int, error) {
	if !e.FixedLengthSecurityCode() {
		return nil, fmt.Errorf("%w: security code does not encode permutations", ErrSecurityCode)
	}
	code, err := e.NormalizeSecurityCode(code)
	if err != nil {
		return nil, err
	}
	s, err := bigint.FromString(code[:len(code)-1], 10)
	if err != nil {
		return nil, ErrSecurityCode
	}
	groups := e.Groups()
	ranks := make([]*bigint.Int, len(groups))
	for g, n := range groups {
		bits := uint(permutation.MaxRank(n).BitLength())
		ranks[g] = s.LowBits(bits)
		if ranks[g].GreaterOrEqual(permutation.Factorial(n)) {
			return nil, fmt.Errorf("%w: group %d", ErrSecurityCodeRange, g)
		}
		s = s.Rsh(bits)
	}
	return ranks, nil
}

// randomBelow returns a uniform integer in [0, max).
func randomBelow(r io.Reader, max *bigint.Int) (*bigint.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	v, err := rand.Int(r, max.Big())
	if err != nil {
		return nil, err
	}
	return bigint.FromBig(v)
}

// GenerateSecurityCode returns a random security code with its check digit.
// When the election length is the ideal one, a random rank is packed for
// every group and the remaining high bits are filled at random. Otherwise
// the whole body is random. A nil reader means crypto/rand.
func (e *Election) GenerateSecurityCode(r io.Reader) (string, error) {
	if e.SecurityCodeLength == 0 {
		return "", fmt.Errorf("%w: election without security codes", ErrElection)
	}
	bodyLength := e.SecurityCodeLength - 1
	limit := bigint.One()
	for i := 0; i < bodyLength; i++ {
		limit = limit.Mul(bigint.New(10))
	}
	var s *bigint.Int
	if e.FixedLengthSecurityCode() {
		s = bigint.Zero()
		sMax := bigint.Zero()
		for _, n := range e.Groups() {
			p, err := randomBelow(r, permutation.Factorial(n))
			if err != nil {
				return "", err
			}
			shift := uint(sMax.BitLength())
			s = s.Add(p.Lsh(shift))
			sMax = sMax.Add(permutation.MaxRank(n).Lsh(shift))
		}
		top, err := limit.Sub(bigint.One())
		if err != nil {
			return "", err
		}
		if rest, err := top.Sub(sMax); err == nil {
			shift := uint(sMax.BitLength())
			if rMax := rest.Rsh(shift); !rMax.IsZero() {
				f, err := randomBelow(r, rMax.Add(bigint.One()))
				if err != nil {
					return "", err
				}
				s = s.Add(f.Lsh(shift))
			}
		}
	} else {
		var err error
		if s, err = randomBelow(r, limit); err != nil {
			return "", err
		}
	}
	body := s.String()
	if pad := bodyLength - len(body); pad > 0 {
		body = strings.Repeat("0", pad) + body
	}
	return base32.AppendCheckCharacter(body, base32.Digits)
}

// GenerateCredential returns a random credential of the election length,
// grouped by hyphens. A nil reader means crypto/rand.
func (e *Election) GenerateCredential(r io.Reader) (string, error) {
	c, err := randomBelow(r, bigint.One().Lsh(uint(5*e.CredentialLength)))
	if err != nil {
		return "", err
	}
	return base32.EncodeGrouped(c, e.CredentialLength, CredentialGroupLength)
}

// GenerateShortVoteCodes returns the codes "1" to "n" in random order, as
// printed next to the options of a question. A nil reader means crypto/rand.
func GenerateShortVoteCodes(r io.Reader, n int) ([]string, error) {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprint(i + 1)
	}
	rank, err := randomBelow(r, permutation.Factorial(n))
	if err != nil {
		return nil, err
	}
	return permutation.Permute(codes, rank)
}
