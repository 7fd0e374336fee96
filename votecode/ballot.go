package votecode

import (
	"fmt"
	"strconv"

	"github.com/vocdoni/demos-tally/crypto/base32"
	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/crypto/permutation"
	"github.com/vocdoni/demos-tally/crypto/prf"
)

// BallotConfig holds the secrets and public data of one ballot part.
type BallotConfig struct {
	SerialNumber int
	Tag          string
	Credential   string
	SecurityCode string
	// ShortVoteCodes lists, per question, the short vote codes in display
	// order. Only used by short vote code elections.
	ShortVoteCodes [][]string
}

// Ballot is a ballot part whose secrets have been validated. Permutations
// are derived once, when the ballot is built.
type Ballot struct {
	election       *Election
	serial         int
	tag            string
	credential     string
	key            []byte
	securityCode   string
	shortVoteCodes [][]string
	permutations   [][]int
}

// NewBallot validates and normalizes the ballot secrets. For short vote
// code elections the permutations of every question are derived right away,
// so an invalid security code is reported here.
func NewBallot(e *Election, conf *BallotConfig) (*Ballot, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	b := &Ballot{
		election:       e,
		serial:         conf.SerialNumber,
		tag:            conf.Tag,
		shortVoteCodes: conf.ShortVoteCodes,
	}
	if conf.Credential != "" {
		cred, err := e.NormalizeCredential(conf.Credential)
		if err != nil {
			return nil, err
		}
		if b.key, err = prf.CredentialKey(cred); err != nil {
			return nil, ErrCredential
		}
		b.credential = cred
	}
	if e.SecurityCodeLength > 0 && (conf.SecurityCode != "" || e.VoteCodeType == Short) {
		code, err := e.NormalizeSecurityCode(conf.SecurityCode)
		if err != nil {
			return nil, err
		}
		b.securityCode = code
	}
	switch e.VoteCodeType {
	case Long:
		if b.key == nil {
			return nil, fmt.Errorf("%w: required for long vote codes", ErrCredential)
		}
	case Short:
		if len(b.shortVoteCodes) != len(e.OptionCounts) {
			return nil, fmt.Errorf("%w: expected short vote codes for %d questions", ErrElection, len(e.OptionCounts))
		}
		for q, codes := range b.shortVoteCodes {
			if len(codes) != e.OptionCounts[q] {
				return nil, fmt.Errorf("%w: question %d has %d short vote codes", ErrElection, q, len(codes))
			}
		}
		var err error
		if b.permutations, err = b.derivePermutations(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Credential returns the normalized credential, grouped by hyphens.
func (b *Ballot) Credential() string {
	return b.credential
}

// groupRanks returns the permutation rank of every group, either decoded
// from a fixed length security code or derived with the credential key.
func (b *Ballot) groupRanks() ([]*bigint.Int, error) {
	e := b.election
	if e.FixedLengthSecurityCode() {
		return e.SecurityCodeRanks(b.securityCode)
	}
	if b.key == nil {
		return nil, fmt.Errorf("%w: required to derive permutations", ErrCredential)
	}
	groups := e.Groups()
	ranks := make([]*bigint.Int, len(groups))
	for g, n := range groups {
		ranks[g] = prf.PermutationRank(b.key, b.serial, b.tag, g, b.securityCode, n)
	}
	return ranks, nil
}

func (b *Ballot) derivePermutations() ([][]int, error) {
	ranks, err := b.groupRanks()
	if err != nil {
		return nil, err
	}
	e := b.election
	if e.Type != PartyCandidate {
		perms := make([][]int, len(e.OptionCounts))
		for q, n := range e.OptionCounts {
			if perms[q], err = permutation.Permute(permutation.Identity(n), ranks[q]); err != nil {
				return nil, fmt.Errorf("%w: question %d", ErrSecurityCodeRange, q)
			}
		}
		return perms, nil
	}
	parties := e.OptionCounts[0]
	perCandidateGroup := e.OptionCounts[1] / parties
	party, err := permutation.Permute(permutation.Identity(parties), ranks[0])
	if err != nil {
		return nil, fmt.Errorf("%w: party question", ErrSecurityCodeRange)
	}
	// every candidate group is shuffled on its own, then the groups are
	// laid out in the order of the party permutation
	groups := make([][]int, parties)
	for k := range groups {
		lo := k * perCandidateGroup
		if groups[k], err = permutation.Permute(permutation.Range(lo, lo+perCandidateGroup), ranks[k+1]); err != nil {
			return nil, fmt.Errorf("%w: candidate group %d", ErrSecurityCodeRange, k)
		}
	}
	candidates := make([]int, 0, e.OptionCounts[1])
	for _, p := range party {
		candidates = append(candidates, groups[p]...)
	}
	return [][]int{party, candidates}, nil
}

func (b *Ballot) checkIndex(question, option int) error {
	if question < 0 || question >= len(b.election.OptionCounts) {
		return fmt.Errorf("%w: question %d", ErrOptionIndex, question)
	}
	if option < 0 || option >= b.election.OptionCounts[question] {
		return fmt.Errorf("%w: question %d option %d", ErrOptionIndex, question, option)
	}
	return nil
}

// Permutation returns the display permutation of a question: position i
// of the printed ballot shows option Permutation(q)[i]. Only short vote
// code elections have permutations.
func (b *Ballot) Permutation(question int) ([]int, error) {
	if b.permutations == nil {
		return nil, fmt.Errorf("%w: permutations exist only for short vote codes", ErrElection)
	}
	if question < 0 || question >= len(b.permutations) {
		return nil, fmt.Errorf("%w: question %d", ErrOptionIndex, question)
	}
	return append([]int(nil), b.permutations[question]...), nil
}

// VoteCode returns the vote code of an option.
func (b *Ballot) VoteCode(question, option int) (string, error) {
	if err := b.checkIndex(question, option); err != nil {
		return "", err
	}
	if b.election.VoteCodeType == Long {
		return prf.LongVoteCode(b.key, b.serial, b.tag, question, option, b.election.VoteCodeLength), nil
	}
	pos := permutation.IndexOf(b.permutations[question], option)
	if pos < 0 {
		return "", fmt.Errorf("%w: question %d option %d", ErrOptionIndex, question, option)
	}
	return b.shortVoteCodes[question][pos], nil
}

// NormalizeVoteCode validates a user entered vote code of a question.
// Short codes are positive decimal numbers up to the option count. Long
// codes are base32 strings of the election length, returned without hyphens.
func (b *Ballot) NormalizeVoteCode(question int, code string) (string, error) {
	if err := b.checkIndex(question, 0); err != nil {
		return "", err
	}
	e := b.election
	if e.VoteCodeType == Long {
		if err := base32.Validate(code); err != nil {
			return "", ErrVoteCode
		}
		s, err := base32.Normalize(code)
		if err != nil || len(s) != e.VoteCodeLength {
			return "", ErrVoteCode
		}
		return s, nil
	}
	if code == "" || code[0] == '0' {
		return "", ErrVoteCode
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 1 || n > e.OptionCounts[question] {
		return "", ErrVoteCode
	}
	return code, nil
}

// OptionForVoteCode returns the option a vote code stands for.
func (b *Ballot) OptionForVoteCode(question int, code string) (int, error) {
	code, err := b.NormalizeVoteCode(question, code)
	if err != nil {
		return 0, err
	}
	if b.election.VoteCodeType == Long {
		for option := 0; option < b.election.OptionCounts[question]; option++ {
			if c, _ := b.VoteCode(question, option); c == code {
				return option, nil
			}
		}
		return 0, ErrVoteCode
	}
	for pos, c := range b.shortVoteCodes[question] {
		if c == code {
			return b.permutations[question][pos], nil
		}
	}
	return 0, ErrVoteCode
}

// CandidateRange returns the candidate option indices [lo, hi) that belong
// to a party of a party-candidate election.
func (b *Ballot) CandidateRange(party int) (int, int, error) {
	e := b.election
	if e.Type != PartyCandidate {
		return 0, 0, fmt.Errorf("%w: not a party-candidate election", ErrElection)
	}
	if party < 0 || party >= e.OptionCounts[0] {
		return 0, 0, fmt.Errorf("%w: party %d", ErrOptionIndex, party)
	}
	n := e.OptionCounts[1] / e.OptionCounts[0]
	return party * n, (party + 1) * n, nil
}
