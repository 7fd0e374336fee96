package types

import (
	"encoding/json"
	"fmt"
)

// Election is the subset of election fields consumed by the tally.
type Election struct {
	Slug          string      `json:"slug,omitempty" cbor:"0,keyasint,omitempty"`
	URL           string      `json:"url,omitempty" cbor:"1,keyasint,omitempty"`
	BallotsURL    string      `json:"ballots_url" cbor:"2,keyasint,omitempty"`
	Coins         *BigInt     `json:"coins" cbor:"3,keyasint,omitempty"`
	QuestionCount int         `json:"question_count" cbor:"4,keyasint,omitempty"`
	Questions     []*Question `json:"questions" cbor:"5,keyasint,omitempty"`
}

// Question describes the shape of one election question.
type Question struct {
	OptionCount      int `json:"option_count" cbor:"0,keyasint,omitempty"`
	BlankOptionCount int `json:"blank_option_count" cbor:"1,keyasint,omitempty"`
}

// RealOptionCount is the number of non-blank options, which is also the
// number of candidate slots of the tally decommitment.
func (q *Question) RealOptionCount() int {
	return q.OptionCount - q.BlankOptionCount
}

// Validate checks the election shape returned by the data service.
func (e *Election) Validate() error {
	if e.BallotsURL == "" {
		return fmt.Errorf("%w: election without ballots_url", ErrConsistency)
	}
	if e.Coins == nil {
		return fmt.Errorf("%w: election without coins", ErrConsistency)
	}
	if len(e.Questions) != e.QuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrConsistency, e.QuestionCount, len(e.Questions))
	}
	for i, q := range e.Questions {
		if q == nil || q.OptionCount <= 0 || q.BlankOptionCount < 0 || q.BlankOptionCount > q.OptionCount {
			return fmt.Errorf("%w: invalid option counts for question %d", ErrConsistency, i)
		}
	}
	return nil
}

// Ballot is a ballot as listed by the data service.
type Ballot struct {
	URL          string        `json:"url" cbor:"0,keyasint,omitempty"`
	SerialNumber int           `json:"serial_number" cbor:"1,keyasint,omitempty"`
	Parts        []*BallotPart `json:"parts" cbor:"2,keyasint,omitempty"`
}

// BallotPart is one of the two parts of a ballot.
type BallotPart struct {
	Tag       string            `json:"tag" cbor:"0,keyasint,omitempty"`
	IsCast    bool              `json:"is_cast" cbor:"1,keyasint,omitempty"`
	Questions []*BallotQuestion `json:"questions" cbor:"2,keyasint,omitempty"`
}

// BallotQuestion lists the options of a question in a ballot part.
type BallotQuestion struct {
	Index   int             `json:"index" cbor:"0,keyasint,omitempty"`
	Options []*BallotOption `json:"options" cbor:"1,keyasint,omitempty"`
}

// BallotOption is a single option of a ballot question.
type BallotOption struct {
	Index   int  `json:"index" cbor:"0,keyasint,omitempty"`
	IsVoted bool `json:"is_voted" cbor:"1,keyasint,omitempty"`
}

// CastPart returns the cast part of the ballot, or nil.
func (b *Ballot) CastPart() *BallotPart {
	for _, p := range b.Parts {
		if p.IsCast {
			return p
		}
	}
	return nil
}

// BallotsPage is a page of the ballot listing.
type BallotsPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []*Ballot `json:"results"`
}

// BallotResult is the body sent to a ballot URL once it has been processed.
type BallotResult struct {
	Parts []*PartResult `json:"parts" cbor:"0,keyasint"`
}

// PartResult holds the result of a ballot part. Exactly one of Cast or
// NotCast is set, depending on how the part was used.
type PartResult struct {
	Cast    []*CastQuestionResult    `cbor:"0,keyasint,omitempty"`
	NotCast []*NotCastQuestionResult `cbor:"1,keyasint,omitempty"`
}

// CastQuestionResult carries the zk2 proof terms of a cast question. ZK2
// holds the row terms of every option followed by the column terms.
type CastQuestionResult struct {
	ZK2     []*BigInt           `json:"zk2" cbor:"0,keyasint"`
	Options []*CastOptionResult `json:"options" cbor:"1,keyasint"`
}

// CastOptionResult holds three terms per candidate slot.
type CastOptionResult struct {
	ZK2 []*BigInt `json:"zk2" cbor:"0,keyasint"`
}

// NotCastQuestionResult discloses the decommitments of a not cast question.
type NotCastQuestionResult struct {
	Options []*NotCastOptionResult `json:"options" cbor:"0,keyasint"`
}

// NotCastOptionResult holds one decommitment per candidate slot.
type NotCastOptionResult struct {
	Decommitment []*BigInt `json:"decommitment" cbor:"0,keyasint"`
}

// IsCast reports whether the result was produced for a cast part.
func (p *PartResult) IsCast() bool {
	return p.Cast != nil
}

func (p *PartResult) MarshalJSON() ([]byte, error) {
	if p.Cast != nil && p.NotCast != nil {
		return nil, fmt.Errorf("%w: part result is both cast and not cast", ErrConsistency)
	}
	if p.Cast != nil {
		return json.Marshal(struct {
			Questions []*CastQuestionResult `json:"questions"`
		}{p.Cast})
	}
	notCast := p.NotCast
	if notCast == nil {
		notCast = []*NotCastQuestionResult{}
	}
	return json.Marshal(struct {
		Questions []*NotCastQuestionResult `json:"questions"`
	}{notCast})
}

func (p *PartResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	p.Cast, p.NotCast = nil, nil
	for i, q := range raw.Questions {
		var shape struct {
			ZK2 json.RawMessage `json:"zk2"`
		}
		if err := json.Unmarshal(q, &shape); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrFormat, i, err)
		}
		if shape.ZK2 != nil {
			if p.NotCast != nil {
				return fmt.Errorf("%w: mixed cast and not cast questions", ErrConsistency)
			}
			cq := &CastQuestionResult{}
			if err := json.Unmarshal(q, cq); err != nil {
				return fmt.Errorf("%w: question %d: %v", ErrFormat, i, err)
			}
			p.Cast = append(p.Cast, cq)
			continue
		}
		if p.Cast != nil {
			return fmt.Errorf("%w: mixed cast and not cast questions", ErrConsistency)
		}
		nq := &NotCastQuestionResult{}
		if err := json.Unmarshal(q, nq); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrFormat, i, err)
		}
		p.NotCast = append(p.NotCast, nq)
	}
	return nil
}

// ElectionResult is the body sent once to the election URL.
type ElectionResult struct {
	Questions []*QuestionTally `json:"questions" cbor:"0,keyasint"`
}

// QuestionTally holds the accumulated decommitment of one question. It is
// empty when no cast ballot voted in the question.
type QuestionTally struct {
	TallyDecommitment []*BigInt `json:"tally_decommitment" cbor:"0,keyasint"`
}
