package tally

import (
	"fmt"

	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/crypto/prf"
	"github.com/vocdoni/demos-tally/types"
)

// ErrConsistency is returned when the data service sends data that does
// not match the election shape.
var ErrConsistency = fmt.Errorf("%w: unexpected data service response", types.ErrConsistency)

// Challenge returns the proof challenge e encoded in the election coins,
// reduced modulo the group order.
func Challenge(coins *types.BigInt) (*field.Element, error) {
	if coins == nil {
		return nil, fmt.Errorf("%w: missing coins", ErrConsistency)
	}
	return field.FromWire(coins)
}

// Context is the state owned by a single worker: the keyed PRF, the
// challenge, the election shape and the local accumulator. It is not safe
// for concurrent use.
type Context struct {
	prf          *prf.PRF
	e            *field.Element
	election     *types.Election
	decommitment *Decommitment
}

// NewContext builds a worker context for the trustee key.
func NewContext(key []byte, election *types.Election) (*Context, error) {
	if err := election.Validate(); err != nil {
		return nil, err
	}
	e, err := Challenge(election.Coins)
	if err != nil {
		return nil, err
	}
	return &Context{
		prf:          prf.New(key),
		e:            e,
		election:     election,
		decommitment: NewDecommitment(election),
	}, nil
}

// Decommitment returns the accumulator of the context.
func (c *Context) Decommitment() *Decommitment {
	return c.decommitment
}
