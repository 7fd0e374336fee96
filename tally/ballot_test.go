package tally

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/crypto/prf"
	"github.com/vocdoni/demos-tally/types"
)

func testContext(c *qt.C) *Context {
	tctx, err := NewContext(testKey, testElection())
	c.Assert(err, qt.IsNil)
	return tctx
}

func TestProcessBallotShape(t *testing.T) {
	c := qt.New(t)
	tctx := testContext(c)

	res, err := tctx.ProcessBallot(testBallot(5, 1))
	c.Assert(err, qt.IsNil)
	c.Assert(res.Parts, qt.HasLen, 2)

	cast := res.Parts[0]
	c.Assert(cast.IsCast(), qt.IsTrue)
	c.Assert(cast.Cast, qt.HasLen, 2)
	// question 0: 3 options, 2 candidate slots
	c.Assert(cast.Cast[0].Options, qt.HasLen, 3)
	c.Assert(cast.Cast[0].Options[0].ZK2, qt.HasLen, 3*2)
	c.Assert(cast.Cast[0].ZK2, qt.HasLen, 3*3+2)
	// question 1: 2 options, 2 candidate slots
	c.Assert(cast.Cast[1].Options[1].ZK2, qt.HasLen, 3*2)
	c.Assert(cast.Cast[1].ZK2, qt.HasLen, 3*2+2)

	notCast := res.Parts[1]
	c.Assert(notCast.IsCast(), qt.IsFalse)
	c.Assert(notCast.NotCast, qt.HasLen, 2)
	c.Assert(notCast.NotCast[0].Options, qt.HasLen, 3)
	c.Assert(notCast.NotCast[0].Options[2].Decommitment, qt.HasLen, 2)

	p := prf.New(testKey)
	raw := p.Decommitment(5, "B", 0, 2, 1)
	c.Assert(notCast.NotCast[0].Options[2].Decommitment[1].Equal(types.BigIntFromBytes(raw)), qt.IsTrue)
}

func TestZK2Terms(t *testing.T) {
	c := qt.New(t)
	tctx := testContext(c)
	election := testElection()
	e, err := Challenge(election.Coins)
	c.Assert(err, qt.IsNil)

	res, err := tctx.ProcessBallot(testBallot(9, 0))
	c.Assert(err, qt.IsNil)
	q := res.Parts[0].Cast[0]
	p := prf.New(testKey)

	// option 2, candidate slot 1, second term uses proof slots 2 and 3
	a := p.ZKDelta(9, "A", 0, 2, 1, 2)
	b := p.ZKDelta(9, "A", 0, 2, 1, 3)
	c.Assert(q.Options[2].ZK2[3+1].Equal(a.MulAdd(e, b).Wire()), qt.IsTrue)

	// row term of option 1 uses slots 10 and 11
	a = p.ZKRowDelta(9, "A", 0, 1, 10)
	b = p.ZKRowDelta(9, "A", 0, 1, 11)
	c.Assert(q.ZK2[3*1+2].Equal(a.MulAdd(e, b).Wire()), qt.IsTrue)

	// column term of candidate slot 1 follows the row terms
	a = p.ZKColDelta(9, "A", 0, 1, 12)
	b = p.ZKColDelta(9, "A", 0, 1, 13)
	c.Assert(q.ZK2[3*3+1].Equal(a.MulAdd(e, b).Wire()), qt.IsTrue)
}

func TestAccumulate(t *testing.T) {
	c := qt.New(t)
	tctx := testContext(c)
	p := prf.New(testKey)

	for serial, voted := range map[int]int{1: 1, 2: 1, 3: 0} {
		_, err := tctx.ProcessBallot(testBallot(serial, voted))
		c.Assert(err, qt.IsNil)
	}
	d := tctx.Decommitment()
	c.Assert(d.Initialized(0), qt.IsTrue)
	c.Assert(d.Initialized(1), qt.IsFalse)
	for j := 0; j < 2; j++ {
		want := field.New(0)
		want.AddM(p.RandShare(1, "A", 0, 1, j))
		want.AddM(p.RandShare(2, "A", 0, 1, j))
		want.AddM(p.RandShare(3, "A", 0, 0, j))
		c.Assert(d.at(0, j).Equal(want), qt.IsTrue)
	}
}

func TestAccumulateIsAdditive(t *testing.T) {
	c := qt.New(t)
	election := testElection()

	single := testContext(c)
	left, right := testContext(c), testContext(c)
	for serial := 1; serial <= 6; serial++ {
		b := testBallot(serial, serial%3)
		_, err := single.ProcessBallot(b)
		c.Assert(err, qt.IsNil)
		half := left
		if serial > 2 {
			half = right
		}
		_, err = half.ProcessBallot(b)
		c.Assert(err, qt.IsNil)
	}
	merged := NewDecommitment(election)
	c.Assert(merged.Merge(right.Decommitment()), qt.IsNil)
	c.Assert(merged.Merge(left.Decommitment()), qt.IsNil)
	c.Assert(merged.Equal(single.Decommitment()), qt.IsTrue)
}

func TestProcessBallotRejectsShape(t *testing.T) {
	c := qt.New(t)
	tctx := testContext(c)

	b := testBallot(1, 0)
	b.Parts[0].Questions[0].Options = b.Parts[0].Questions[0].Options[:2]
	_, err := tctx.ProcessBallot(b)
	c.Assert(err, qt.ErrorIs, ErrConsistency)

	b = testBallot(1, 0)
	b.Parts[1].Questions[1].Index = 2
	_, err = tctx.ProcessBallot(b)
	c.Assert(err, qt.ErrorIs, types.ErrConsistency)
}
