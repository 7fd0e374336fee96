package votecode

import (
	"fmt"
	"sort"

	"github.com/vocdoni/demos-tally/types"
)

// State is a step of the voting booth.
type State int

const (
	StateSelectInterface State = iota
	StateVote
	StateConfirmVoteCodes
	StateVerifyReceipts
)

func (s State) String() string {
	switch s {
	case StateSelectInterface:
		return "select-interface"
	case StateVote:
		return "vote"
	case StateConfirmVoteCodes:
		return "confirm-vote-codes"
	case StateVerifyReceipts:
		return "verify-receipts"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrState is returned for operations not allowed in the current state.
var ErrState = fmt.Errorf("%w: operation not allowed in the current booth state", types.ErrConsistency)

type optionKey struct {
	question, option int
}

// Booth drives a ballot part through the voting steps. It only moves
// forward, except for going back from the confirmation to the vote step,
// which keeps every vote code derived so far.
type Booth struct {
	ballot     *Ballot
	state      State
	selections [][]int
	codes      map[optionKey]string
	confirmed  [][]string
	receipts   map[int]map[string]string
}

// NewBooth returns a booth in the select interface state.
func NewBooth(b *Ballot) *Booth {
	return &Booth{
		ballot:     b,
		selections: make([][]int, len(b.election.OptionCounts)),
		codes:      make(map[optionKey]string),
	}
}

// State returns the current step.
func (b *Booth) State() State {
	return b.state
}

func (b *Booth) expect(s State) error {
	if b.state != s {
		return fmt.Errorf("%w: in %s, expected %s", ErrState, b.state, s)
	}
	return nil
}

// Start leaves the interface selection and enters the vote step.
func (b *Booth) Start() error {
	if err := b.expect(StateSelectInterface); err != nil {
		return err
	}
	b.state = StateVote
	return nil
}

// Select replaces the selected options of a question.
func (b *Booth) Select(question int, options ...int) error {
	if err := b.expect(StateVote); err != nil {
		return err
	}
	seen := make(map[int]bool, len(options))
	for _, o := range options {
		if err := b.ballot.checkIndex(question, o); err != nil {
			return err
		}
		if seen[o] {
			return fmt.Errorf("%w: option %d selected twice", ErrOptionIndex, o)
		}
		seen[o] = true
	}
	if b.ballot.election.Type == PartyCandidate && question == 0 && len(options) > 1 {
		return fmt.Errorf("%w: only one party can be selected", ErrOptionIndex)
	}
	sel := append([]int(nil), options...)
	sort.Ints(sel)
	b.selections[question] = sel
	return nil
}

// selectedParty returns the selected party, or the blank party (the last
// one) if none is.
func (b *Booth) selectedParty() int {
	if sel := b.selections[0]; len(sel) > 0 {
		return sel[0]
	}
	return b.ballot.election.OptionCounts[0] - 1
}

// voteCode returns the cached vote code of an option, deriving it once.
func (b *Booth) voteCode(question, option int) (string, error) {
	k := optionKey{question, option}
	if c, ok := b.codes[k]; ok {
		return c, nil
	}
	c, err := b.ballot.VoteCode(question, option)
	if err != nil {
		return "", err
	}
	b.codes[k] = c
	return c, nil
}

// Next moves from the vote step to the confirmation step and returns the
// vote codes of the selected options, per question.
func (b *Booth) Next() ([][]string, error) {
	if err := b.expect(StateVote); err != nil {
		return nil, err
	}
	selections := make([][]int, len(b.selections))
	copy(selections, b.selections)
	if b.ballot.election.Type == PartyCandidate {
		party := b.selectedParty()
		lo, hi, err := b.ballot.CandidateRange(party)
		if err != nil {
			return nil, err
		}
		for _, c := range selections[1] {
			if c < lo || c >= hi {
				return nil, fmt.Errorf("%w: candidate %d does not belong to party %d", ErrOptionIndex, c, party)
			}
		}
		selections[0] = []int{party}
	}
	out := make([][]string, len(selections))
	for q, sel := range selections {
		out[q] = make([]string, 0, len(sel))
		for _, o := range sel {
			c, err := b.voteCode(q, o)
			if err != nil {
				return nil, err
			}
			out[q] = append(out[q], c)
		}
	}
	b.confirmed = out
	b.state = StateConfirmVoteCodes
	return out, nil
}

// Back returns from the confirmation step to the vote step.
func (b *Booth) Back() error {
	if err := b.expect(StateConfirmVoteCodes); err != nil {
		return err
	}
	b.confirmed = nil
	b.state = StateVote
	return nil
}

// Submit records the receipts returned for the confirmed vote codes, keyed
// by question and vote code, and enters the receipt verification step.
// Every confirmed vote code must have a receipt.
func (b *Booth) Submit(receipts map[int]map[string]string) error {
	if err := b.expect(StateConfirmVoteCodes); err != nil {
		return err
	}
	for q, codes := range b.confirmed {
		for _, c := range codes {
			if _, ok := receipts[q][c]; !ok {
				return fmt.Errorf("%w: missing receipt for question %d", types.ErrConsistency, q)
			}
		}
	}
	b.receipts = receipts
	b.state = StateVerifyReceipts
	return nil
}

// Receipts returns, per question, the receipts of the confirmed vote codes
// in confirmation order.
func (b *Booth) Receipts() ([][]string, error) {
	if err := b.expect(StateVerifyReceipts); err != nil {
		return nil, err
	}
	out := make([][]string, len(b.confirmed))
	for q, codes := range b.confirmed {
		for _, c := range codes {
			out[q] = append(out[q], b.receipts[q][c])
		}
	}
	return out, nil
}
