package tally

import (
	"context"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/demos-tally/api"
	"github.com/vocdoni/demos-tally/api/client"
	"github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/types"
)

// TestTallyThroughAPI runs a tally against the bulletin board data service:
// two workers process three cast ballots each, every one voting the same
// option, so the tally of each candidate slot is the sum of six shares.
func TestTallyThroughAPI(t *testing.T) {
	c := qt.New(t)

	stg := storage.New(memdb.New())
	a, err := api.New(&api.APIConfig{Storage: stg, DisableServer: true})
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	election := testElection()
	election.Slug = "e1"
	election.BallotsURL = ""
	c.Assert(stg.SetElection(election), qt.IsNil)
	ballots := []*types.Ballot{}
	for serial := 10; serial < 16; serial++ {
		b := testBallot(serial, 2)
		ballots = append(ballots, b)
		c.Assert(stg.SetBallot("e1", b), qt.IsNil)
	}
	// a ballot nobody voted with is not part of the tally
	unused := testBallot(99, 0)
	unused.Parts[0].IsCast = false
	c.Assert(stg.SetBallot("e1", unused), qt.IsNil)

	cli, err := client.New(srv.URL)
	c.Assert(err, qt.IsNil)
	res, err := NewDispatcher(&Config{
		ElectionURL: srv.URL + "/elections/e1",
		SecretKey:   testSecretKey(),
		Workers:     2,
		PageSize:    2,
	}, cli).Run(context.Background())
	c.Assert(err, qt.IsNil)

	want := expectedTally(ballots, 2)
	stored, err := stg.ElectionResult("e1")
	c.Assert(err, qt.IsNil)
	for j := range want {
		c.Assert(res.Questions[0].TallyDecommitment[j].Equal(want[j]), qt.IsTrue)
		c.Assert(stored.Questions[0].TallyDecommitment[j].Equal(want[j]), qt.IsTrue)
	}
	c.Assert(stored.Questions[1].TallyDecommitment, qt.HasLen, 0)

	for _, b := range ballots {
		r, err := stg.BallotResult("e1", b.SerialNumber)
		c.Assert(err, qt.IsNil)
		c.Assert(r.Parts[0].IsCast(), qt.IsTrue)
		c.Assert(r.Parts[1].IsCast(), qt.IsFalse)
	}
	_, err = stg.BallotResult("e1", 99)
	c.Assert(err, qt.ErrorIs, storage.ErrNotFound)

	// a second run is rejected by the data service when submitting
	_, err = NewDispatcher(&Config{
		ElectionURL: srv.URL + "/elections/e1",
		SecretKey:   testSecretKey(),
	}, cli).Run(context.Background())
	c.Assert(err, qt.ErrorIs, types.ErrTransport)
}
