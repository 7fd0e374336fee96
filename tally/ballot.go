package tally

import (
	"fmt"

	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/types"
)

// ZK2 proof slot layout.
const (
	zkSlots    = 6
	zkRowFirst = 6
	zkRowLast  = 12
	zkColFirst = 12
)

// question returns the election question a ballot question refers to,
// checking that the ballot lists every option.
func (c *Context) question(bq *types.BallotQuestion) (*types.Question, error) {
	if bq.Index < 0 || bq.Index >= len(c.election.Questions) {
		return nil, fmt.Errorf("%w: question index %d out of range", ErrConsistency, bq.Index)
	}
	q := c.election.Questions[bq.Index]
	if len(bq.Options) != q.OptionCount {
		return nil, fmt.Errorf("%w: question %d lists %d options, expected %d",
			ErrConsistency, bq.Index, len(bq.Options), q.OptionCount)
	}
	for i, o := range bq.Options {
		if o == nil {
			return nil, fmt.Errorf("%w: question %d option %d is null", ErrConsistency, bq.Index, i)
		}
	}
	return q, nil
}

// ProcessBallot processes every part of a ballot. Cast parts are added to
// the accumulator and get their zk2 proof terms. Not cast parts get their
// decommitments disclosed.
func (c *Context) ProcessBallot(ballot *types.Ballot) (*types.BallotResult, error) {
	res := &types.BallotResult{Parts: make([]*types.PartResult, 0, len(ballot.Parts))}
	for _, part := range ballot.Parts {
		if part == nil {
			return nil, fmt.Errorf("%w: ballot %d has a null part", ErrConsistency, ballot.SerialNumber)
		}
		pr := &types.PartResult{}
		if part.IsCast {
			pr.Cast = make([]*types.CastQuestionResult, 0, len(part.Questions))
		} else {
			pr.NotCast = make([]*types.NotCastQuestionResult, 0, len(part.Questions))
		}
		for _, bq := range part.Questions {
			q, err := c.question(bq)
			if err != nil {
				return nil, err
			}
			if part.IsCast {
				c.accumulate(ballot.SerialNumber, part.Tag, bq, q)
				pr.Cast = append(pr.Cast, c.ZK2(ballot.SerialNumber, part.Tag, bq, q))
			} else {
				pr.NotCast = append(pr.NotCast, c.decommitments(ballot.SerialNumber, part.Tag, bq, q))
			}
		}
		res.Parts = append(res.Parts, pr)
	}
	return res, nil
}

// accumulate adds the randomness shares of every voted option to the
// tally decommitment of the question.
func (c *Context) accumulate(serial int, tag string, bq *types.BallotQuestion, q *types.Question) {
	slots := q.RealOptionCount()
	for _, o := range bq.Options {
		if !o.IsVoted {
			continue
		}
		for j := 0; j < slots; j++ {
			c.decommitment.Add(bq.Index, j, c.prf.RandShare(serial, tag, bq.Index, o.Index, j))
		}
	}
}

// phi returns a*e + b.
func (c *Context) phi(a, b *field.Element) *types.BigInt {
	return a.MulAdd(c.e, b).Wire()
}

// ZK2 returns the proof terms of a cast question: three terms per option
// and candidate slot, three row terms per option and one column term per
// candidate slot.
func (c *Context) ZK2(serial int, tag string, bq *types.BallotQuestion, q *types.Question) *types.CastQuestionResult {
	slots := q.RealOptionCount()
	res := &types.CastQuestionResult{
		ZK2:     make([]*types.BigInt, 0, 3*len(bq.Options)+slots),
		Options: make([]*types.CastOptionResult, 0, len(bq.Options)),
	}
	var delta [zkSlots]*field.Element
	for _, o := range bq.Options {
		or := &types.CastOptionResult{ZK2: make([]*types.BigInt, 0, 3*slots)}
		for j := 0; j < slots; j++ {
			for l := 0; l < zkSlots; l++ {
				delta[l] = c.prf.ZKDelta(serial, tag, bq.Index, o.Index, j, l)
			}
			for a := 0; a < 3; a++ {
				or.ZK2 = append(or.ZK2, c.phi(delta[2*a], delta[2*a+1]))
			}
		}
		res.Options = append(res.Options, or)

		for l := zkRowFirst; l < zkRowLast; l++ {
			delta[l-zkRowFirst] = c.prf.ZKRowDelta(serial, tag, bq.Index, o.Index, l)
		}
		for a := 0; a < 3; a++ {
			res.ZK2 = append(res.ZK2, c.phi(delta[2*a], delta[2*a+1]))
		}
	}
	for j := 0; j < slots; j++ {
		a := c.prf.ZKColDelta(serial, tag, bq.Index, j, zkColFirst)
		b := c.prf.ZKColDelta(serial, tag, bq.Index, j, zkColFirst+1)
		res.ZK2 = append(res.ZK2, c.phi(a, b))
	}
	return res
}

// decommitments discloses the raw randomness of every option and candidate
// slot of a not cast question.
func (c *Context) decommitments(serial int, tag string, bq *types.BallotQuestion, q *types.Question) *types.NotCastQuestionResult {
	slots := q.RealOptionCount()
	res := &types.NotCastQuestionResult{Options: make([]*types.NotCastOptionResult, 0, len(bq.Options))}
	for _, o := range bq.Options {
		or := &types.NotCastOptionResult{Decommitment: make([]*types.BigInt, 0, slots)}
		for j := 0; j < slots; j++ {
			or.Decommitment = append(or.Decommitment, types.BigIntFromBytes(c.prf.Decommitment(serial, tag, bq.Index, o.Index, j)))
		}
		res.Options = append(res.Options, or)
	}
	return res
}
