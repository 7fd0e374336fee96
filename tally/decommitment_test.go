package tally

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/crypto/prf"
	"github.com/vocdoni/demos-tally/types"
)

func partial(election *types.Election, serial int) *Decommitment {
	p := prf.New(testKey)
	d := NewDecommitment(election)
	for j := 0; j < 2; j++ {
		d.Add(0, j, p.RandShare(serial, "A", 0, 1, j))
	}
	return d
}

func TestMergeOrderIndependent(t *testing.T) {
	c := qt.New(t)
	election := testElection()
	parts := []*Decommitment{partial(election, 1), NewDecommitment(election), partial(election, 2), partial(election, 3)}

	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	var first *Decommitment
	for _, order := range orders {
		merged := NewDecommitment(election)
		for _, i := range order {
			c.Assert(merged.Merge(parts[i]), qt.IsNil)
		}
		if first == nil {
			first = merged
			continue
		}
		c.Assert(merged.Equal(first), qt.IsTrue, qt.Commentf("order %v", order))
	}
	c.Assert(first.Initialized(0), qt.IsTrue)
	c.Assert(first.Initialized(1), qt.IsFalse)

	// merging into an initialized accumulator gives the same result
	merged := partial(election, 1)
	for _, i := range []int{3, 1, 2} {
		c.Assert(merged.Merge(parts[i]), qt.IsNil)
	}
	c.Assert(merged.Equal(first), qt.IsTrue)
}

func TestUninitializedIsZero(t *testing.T) {
	c := qt.New(t)
	election := testElection()

	zeros := NewDecommitment(election)
	zeros.Add(1, 0, field.New(0))
	c.Assert(zeros.Initialized(1), qt.IsTrue)
	c.Assert(zeros.Equal(NewDecommitment(election)), qt.IsTrue)

	res := NewDecommitment(election).Result()
	c.Assert(res.Questions, qt.HasLen, 2)
	c.Assert(res.Questions[0].TallyDecommitment, qt.HasLen, 0)
	c.Assert(res.Questions[0].TallyDecommitment, qt.Not(qt.IsNil))
}

func TestMergeShapeMismatch(t *testing.T) {
	c := qt.New(t)
	election := testElection()
	other := testElection()
	other.Questions[0].BlankOptionCount = 0

	err := NewDecommitment(election).Merge(partial(other, 1))
	c.Assert(err, qt.ErrorIs, types.ErrConsistency)

	other.Questions = other.Questions[:1]
	err = NewDecommitment(election).Merge(NewDecommitment(other))
	c.Assert(err, qt.ErrorIs, types.ErrConsistency)
}

func TestDecommitmentFromResult(t *testing.T) {
	c := qt.New(t)
	election := testElection()

	d := partial(election, 7)
	parsed, err := DecommitmentFromResult(election, d.Result())
	c.Assert(err, qt.IsNil)
	c.Assert(parsed.Equal(d), qt.IsTrue)
	c.Assert(parsed.Initialized(1), qt.IsFalse)

	bad := &types.ElectionResult{Questions: []*types.QuestionTally{
		{TallyDecommitment: []*types.BigInt{types.NewBigInt(big.NewInt(1))}},
		{},
	}}
	_, err = DecommitmentFromResult(election, bad)
	c.Assert(err, qt.ErrorIs, types.ErrConsistency)
}
