package votecode

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBoothFlow(t *testing.T) {
	c := qt.New(t)
	b, err := shortBallot(c, "1404")
	c.Assert(err, qt.IsNil)
	booth := NewBooth(b)
	c.Assert(booth.State(), qt.Equals, StateSelectInterface)

	// cannot vote before choosing the interface
	c.Assert(booth.Select(0, 1), qt.ErrorIs, ErrState)
	_, err = booth.Next()
	c.Assert(err, qt.ErrorIs, ErrState)

	c.Assert(booth.Start(), qt.IsNil)
	c.Assert(booth.Start(), qt.ErrorIs, ErrState)
	c.Assert(booth.Select(0, 0), qt.IsNil)
	c.Assert(booth.Select(1, 3, 2), qt.IsNil)
	c.Assert(booth.Select(1, 4), qt.ErrorIs, ErrOptionIndex)
	c.Assert(booth.Select(1, 2, 2), qt.ErrorIs, ErrOptionIndex)

	codes, err := booth.Next()
	c.Assert(err, qt.IsNil)
	c.Assert(booth.State(), qt.Equals, StateConfirmVoteCodes)
	// options are sorted: 2 is at position 0 and 3 at position 1
	c.Assert(codes, qt.DeepEquals, [][]string{{"3"}, {"4", "1"}})

	// going back keeps the derived codes
	c.Assert(booth.Back(), qt.IsNil)
	c.Assert(booth.State(), qt.Equals, StateVote)
	c.Assert(booth.codes, qt.HasLen, 3)
	codes2, err := booth.Next()
	c.Assert(err, qt.IsNil)
	c.Assert(codes2, qt.DeepEquals, codes)

	c.Assert(booth.Submit(map[int]map[string]string{0: {"3": "R0"}}), qt.Not(qt.IsNil))
	c.Assert(booth.Submit(map[int]map[string]string{
		0: {"3": "R0"},
		1: {"4": "R1", "1": "R2"},
	}), qt.IsNil)
	c.Assert(booth.State(), qt.Equals, StateVerifyReceipts)
	receipts, err := booth.Receipts()
	c.Assert(err, qt.IsNil)
	c.Assert(receipts, qt.DeepEquals, [][]string{{"R0"}, {"R1", "R2"}})

	// no way back after submitting
	c.Assert(booth.Back(), qt.ErrorIs, ErrState)
	c.Assert(booth.Select(0, 1), qt.ErrorIs, ErrState)
}

func TestBoothPartyCandidate(t *testing.T) {
	c := qt.New(t)
	e := &Election{
		Type:             PartyCandidate,
		OptionCounts:     []int{3, 6},
		VoteCodeType:     Long,
		VoteCodeLength:   8,
		CredentialLength: 16,
	}
	b, err := NewBallot(e, &BallotConfig{SerialNumber: 3, Tag: "B", Credential: testCredential})
	c.Assert(err, qt.IsNil)

	booth := NewBooth(b)
	c.Assert(booth.Start(), qt.IsNil)
	c.Assert(booth.Select(0, 0, 1), qt.ErrorIs, ErrOptionIndex)

	// candidate 4 belongs to the blank party (the last one)
	c.Assert(booth.Select(1, 4), qt.IsNil)
	codes, err := booth.Next()
	c.Assert(err, qt.IsNil)
	party, err := b.VoteCode(0, 2)
	c.Assert(err, qt.IsNil)
	cand, err := b.VoteCode(1, 4)
	c.Assert(err, qt.IsNil)
	c.Assert(codes, qt.DeepEquals, [][]string{{party}, {cand}})

	c.Assert(booth.Back(), qt.IsNil)
	c.Assert(booth.Select(0, 0), qt.IsNil)
	_, err = booth.Next()
	c.Assert(err, qt.ErrorIs, ErrOptionIndex)
}
