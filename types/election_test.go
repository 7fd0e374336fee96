package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPartResultJSON(t *testing.T) {
	c := qt.New(t)

	cast := &PartResult{Cast: []*CastQuestionResult{{
		ZK2:     []*BigInt{NewBigInt(big.NewInt(1))},
		Options: []*CastOptionResult{{ZK2: []*BigInt{NewBigInt(big.NewInt(256))}}},
	}}}
	data, err := json.Marshal(cast)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"questions":[{"zk2":["AQ=="],"options":[{"zk2":["AQA="]}]}]}`)

	decoded := &PartResult{}
	c.Assert(json.Unmarshal(data, decoded), qt.IsNil)
	c.Assert(decoded.IsCast(), qt.IsTrue)
	c.Assert(decoded.Cast[0].Options[0].ZK2[0].Equal(NewBigInt(big.NewInt(256))), qt.IsTrue)

	notCast := &PartResult{NotCast: []*NotCastQuestionResult{{
		Options: []*NotCastOptionResult{{Decommitment: []*BigInt{NewBigInt(big.NewInt(0))}}},
	}}}
	data, err = json.Marshal(notCast)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"questions":[{"options":[{"decommitment":[""]}]}]}`)
	decoded = &PartResult{}
	c.Assert(json.Unmarshal(data, decoded), qt.IsNil)
	c.Assert(decoded.IsCast(), qt.IsFalse)
	c.Assert(decoded.NotCast, qt.HasLen, 1)

	data, err = json.Marshal(&PartResult{})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"questions":[]}`)

	_, err = json.Marshal(&PartResult{Cast: cast.Cast, NotCast: notCast.NotCast})
	c.Assert(err, qt.ErrorIs, ErrConsistency)

	mixed := `{"questions":[{"zk2":[],"options":[]},{"options":[]}]}`
	c.Assert(json.Unmarshal([]byte(mixed), &PartResult{}), qt.ErrorIs, ErrConsistency)
}

func TestElectionValidate(t *testing.T) {
	c := qt.New(t)
	e := &Election{
		BallotsURL:    "http://bb/elections/e/ballots",
		Coins:         NewBigInt(big.NewInt(1)),
		QuestionCount: 1,
		Questions:     []*Question{{OptionCount: 4, BlankOptionCount: 1}},
	}
	c.Assert(e.Validate(), qt.IsNil)
	c.Assert(e.Questions[0].RealOptionCount(), qt.Equals, 3)

	e.Questions[0].BlankOptionCount = 5
	c.Assert(e.Validate(), qt.ErrorIs, ErrConsistency)
	e.Questions[0].BlankOptionCount = 0
	e.QuestionCount = 2
	c.Assert(e.Validate(), qt.ErrorIs, ErrConsistency)
	e.QuestionCount = 1
	e.Coins = nil
	c.Assert(e.Validate(), qt.ErrorIs, ErrConsistency)
}
