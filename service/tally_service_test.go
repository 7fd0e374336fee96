package service

import (
	"context"
	"encoding/base64"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/demos-tally/api"
	"github.com/vocdoni/demos-tally/api/client"
	"github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/tally"
	"github.com/vocdoni/demos-tally/types"
)

var testSecretKey = base64.StdEncoding.EncodeToString([]byte("service-test-trustee-key"))

func seedElection(c *qt.C, stg *storage.Storage, ballots int) {
	c.Assert(stg.SetElection(&types.Election{
		Slug:          "e1",
		Coins:         types.NewBigInt(big.NewInt(42)),
		QuestionCount: 1,
		Questions:     []*types.Question{{OptionCount: 2}},
	}), qt.IsNil)
	for serial := 1; serial <= ballots; serial++ {
		c.Assert(stg.SetBallot("e1", &types.Ballot{
			SerialNumber: serial,
			Parts: []*types.BallotPart{
				{Tag: "A", IsCast: true, Questions: []*types.BallotQuestion{{
					Options: []*types.BallotOption{{Index: 0, IsVoted: true}, {Index: 1}},
				}}},
				{Tag: "B", Questions: []*types.BallotQuestion{{
					Options: []*types.BallotOption{{Index: 0}, {Index: 1}},
				}}},
			},
		}), qt.IsNil)
	}
}

func TestTallyService(t *testing.T) {
	c := qt.New(t)

	stg := storage.New(memdb.New())
	seedElection(c, stg, 5)
	a, err := api.New(&api.APIConfig{Storage: stg, DisableServer: true})
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(a.Router())
	defer srv.Close()
	cli, err := client.New(srv.URL)
	c.Assert(err, qt.IsNil)

	ts := NewTally(&tally.Config{
		ElectionURL: srv.URL + "/elections/e1",
		SecretKey:   testSecretKey,
		Workers:     2,
	}, cli, time.Millisecond)

	_, err = ts.Wait()
	c.Assert(err, qt.ErrorMatches, "service not started")

	c.Assert(ts.Start(context.Background()), qt.IsNil)
	res, err := ts.Wait()
	c.Assert(err, qt.IsNil)
	c.Assert(res.Questions[0].TallyDecommitment, qt.HasLen, 2)
	c.Assert(ts.Processed(), qt.Equals, 5)

	stored, err := stg.ElectionResult("e1")
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Questions[0].TallyDecommitment[0].Equal(res.Questions[0].TallyDecommitment[0]), qt.IsTrue)

	// a finished run can be started again without Stop; the bulletin board
	// refuses a second election result
	c.Assert(ts.Start(context.Background()), qt.IsNil)
	_, err = ts.Wait()
	c.Assert(err, qt.ErrorIs, types.ErrTransport)
	ts.Stop()
}

// blockingService never answers until the request context is cancelled.
type blockingService struct{}

func (blockingService) Get(ctx context.Context, _ string, _ []string, _ any) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingService) Patch(ctx context.Context, _ string, _ any) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTallyServiceStop(t *testing.T) {
	c := qt.New(t)

	ts := NewTally(&tally.Config{ElectionURL: "http://bb.test/elections/e1", SecretKey: testSecretKey}, blockingService{}, 0)
	c.Assert(ts.Start(context.Background()), qt.IsNil)
	c.Assert(ts.Start(context.Background()), qt.ErrorMatches, "service already running")
	ts.Stop()
	_, err := ts.Wait()
	c.Assert(err, qt.ErrorIs, context.Canceled)

	// the service can run again once stopped
	c.Assert(ts.Start(context.Background()), qt.IsNil)
	ts.Stop()
}
