package tally

import (
	"fmt"

	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/types"
)

// Decommitment accumulates, per question and candidate slot, the sum of
// the randomness shares of every voted option of the cast ballots. The
// vector of a question stays uninitialized until a ballot votes in it.
type Decommitment struct {
	lengths   []int
	questions [][]*field.Element
}

// NewDecommitment returns an empty accumulator shaped after the election.
func NewDecommitment(election *types.Election) *Decommitment {
	d := &Decommitment{
		lengths:   make([]int, len(election.Questions)),
		questions: make([][]*field.Element, len(election.Questions)),
	}
	for q, question := range election.Questions {
		d.lengths[q] = question.RealOptionCount()
	}
	return d
}

// vector returns the vector of question q, initializing it to zeros.
func (d *Decommitment) vector(q int) []*field.Element {
	if d.questions[q] == nil {
		v := make([]*field.Element, d.lengths[q])
		for j := range v {
			v[j] = field.New(0)
		}
		d.questions[q] = v
	}
	return d.questions[q]
}

// Add adds x to candidate slot j of question q.
func (d *Decommitment) Add(q, j int, x *field.Element) {
	d.vector(q)[j].AddM(x)
}

// Initialized reports whether a ballot voted in question q.
func (d *Decommitment) Initialized(q int) bool {
	return d.questions[q] != nil
}

// Merge adds other into d. An uninitialized vector on either side counts as
// zeros of the same length, so the result does not depend on the order in
// which partial results are merged.
func (d *Decommitment) Merge(other *Decommitment) error {
	if len(other.lengths) != len(d.lengths) {
		return fmt.Errorf("%w: merging %d questions into %d", ErrConsistency, len(other.lengths), len(d.lengths))
	}
	for q, v := range other.questions {
		if other.lengths[q] != d.lengths[q] {
			return fmt.Errorf("%w: question %d has %d candidate slots, expected %d",
				ErrConsistency, q, other.lengths[q], d.lengths[q])
		}
		if v == nil {
			continue
		}
		acc := d.vector(q)
		for j, x := range v {
			acc[j].AddM(x)
		}
	}
	return nil
}

// Equal reports whether both accumulators hold the same values, treating
// uninitialized vectors as zeros.
func (d *Decommitment) Equal(other *Decommitment) bool {
	if len(d.lengths) != len(other.lengths) {
		return false
	}
	for q := range d.questions {
		if d.lengths[q] != other.lengths[q] {
			return false
		}
		for j := 0; j < d.lengths[q]; j++ {
			if !d.at(q, j).Equal(other.at(q, j)) {
				return false
			}
		}
	}
	return true
}

func (d *Decommitment) at(q, j int) *field.Element {
	if d.questions[q] == nil {
		return field.New(0)
	}
	return d.questions[q][j]
}

// Result returns the wire form of the accumulator. Uninitialized questions
// have an empty tally decommitment.
func (d *Decommitment) Result() *types.ElectionResult {
	res := &types.ElectionResult{Questions: make([]*types.QuestionTally, len(d.questions))}
	for q, v := range d.questions {
		td := make([]*types.BigInt, 0, len(v))
		for _, x := range v {
			td = append(td, x.Wire())
		}
		res.Questions[q] = &types.QuestionTally{TallyDecommitment: td}
	}
	return res
}

// DecommitmentFromResult parses a wire election result, for instance one
// stored by the data service.
func DecommitmentFromResult(election *types.Election, res *types.ElectionResult) (*Decommitment, error) {
	d := NewDecommitment(election)
	if len(res.Questions) != len(d.questions) {
		return nil, fmt.Errorf("%w: result has %d questions, expected %d", ErrConsistency, len(res.Questions), len(d.questions))
	}
	for q, tq := range res.Questions {
		if len(tq.TallyDecommitment) == 0 {
			continue
		}
		if len(tq.TallyDecommitment) != d.lengths[q] {
			return nil, fmt.Errorf("%w: question %d has %d candidate slots, expected %d",
				ErrConsistency, q, len(tq.TallyDecommitment), d.lengths[q])
		}
		for j, x := range tq.TallyDecommitment {
			e, err := field.FromWire(x)
			if err != nil {
				return nil, err
			}
			d.Add(q, j, e)
		}
	}
	return d, nil
}
