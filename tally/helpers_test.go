package tally

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/vocdoni/demos-tally/types"
)

const (
	testElectionURL = "http://bb.test/elections/e1"
	testBallotsURL  = testElectionURL + "/ballots"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testSecretKey() string {
	return base64.StdEncoding.EncodeToString(testKey)
}

// testElection has a question with two candidate slots and a blank option,
// and a yes/no question.
func testElection() *types.Election {
	return &types.Election{
		BallotsURL:    testBallotsURL,
		Coins:         types.NewBigInt(big.NewInt(0x1d2c3b4a)),
		QuestionCount: 2,
		Questions: []*types.Question{
			{OptionCount: 3, BlankOptionCount: 1},
			{OptionCount: 2},
		},
	}
}

// testBallot returns a ballot whose part A is cast, voting option voted of
// question 0 and nothing in question 1. Part B is not cast.
func testBallot(serial, voted int) *types.Ballot {
	question := func(index, options, voted int) *types.BallotQuestion {
		q := &types.BallotQuestion{Index: index}
		for i := 0; i < options; i++ {
			q.Options = append(q.Options, &types.BallotOption{Index: i, IsVoted: i == voted})
		}
		return q
	}
	return &types.Ballot{
		URL:          testBallotsURL + "/" + strconv.Itoa(serial),
		SerialNumber: serial,
		Parts: []*types.BallotPart{
			{Tag: "A", IsCast: true, Questions: []*types.BallotQuestion{question(0, 3, voted), question(1, 2, -1)}},
			{Tag: "B", Questions: []*types.BallotQuestion{question(0, 3, -1), question(1, 2, -1)}},
		},
	}
}

// fakeService is an in-memory DataService serving one election.
type fakeService struct {
	election *types.Election
	ballots  []*types.Ballot
	failURL  string

	mu      sync.Mutex
	patches map[string][]byte
}

func newFakeService(election *types.Election, ballots []*types.Ballot) *fakeService {
	return &fakeService{election: election, ballots: ballots, patches: map[string][]byte{}}
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeService) Get(_ context.Context, url string, params []string, out any) error {
	switch url {
	case testElectionURL:
		return roundTrip(f.election, out)
	case testBallotsURL:
		q := map[string]string{}
		for i := 0; i+1 < len(params); i += 2 {
			q[params[i]] = params[i+1]
		}
		limit, _ := strconv.Atoi(q["limit"])
		offset, _ := strconv.Atoi(q["offset"])
		page := &types.BallotsPage{Count: len(f.ballots), Results: []*types.Ballot{}}
		for i := offset; i < len(f.ballots) && i < offset+limit; i++ {
			page.Results = append(page.Results, f.ballots[i])
		}
		return roundTrip(page, out)
	}
	return fmt.Errorf("%w: unknown url %s", types.ErrTransport, url)
}

func (f *fakeService) Patch(_ context.Context, url string, body any) error {
	if url == f.failURL {
		return fmt.Errorf("%w: injected failure", types.ErrTransport)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patches[url]; ok {
		return fmt.Errorf("%w: %s patched twice", types.ErrTransport, url)
	}
	f.patches[url] = data
	return nil
}

func (f *fakeService) patched(url string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.patches[url]
	return data, ok
}
