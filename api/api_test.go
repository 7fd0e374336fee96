package api_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/demos-tally/api"
	"github.com/vocdoni/demos-tally/api/client"
	"github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/types"
)

func testServer(c *qt.C) (*httptest.Server, *client.HTTPclient) {
	a, err := api.New(&api.APIConfig{Storage: storage.New(memdb.New()), DisableServer: true})
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(a.Router())
	c.Cleanup(srv.Close)
	cli, err := client.New(srv.URL)
	c.Assert(err, qt.IsNil)
	return srv, cli
}

func ballot(serial int, cast bool) *types.Ballot {
	options := func(voted bool) []*types.BallotOption {
		return []*types.BallotOption{{Index: 0}, {Index: 1, IsVoted: voted}}
	}
	return &types.Ballot{
		SerialNumber: serial,
		Parts: []*types.BallotPart{
			{Tag: "A", IsCast: cast, Questions: []*types.BallotQuestion{{Index: 0, Options: options(cast)}}},
			{Tag: "B", Questions: []*types.BallotQuestion{{Index: 0, Options: options(false)}}},
		},
	}
}

func TestElectionEndpoints(t *testing.T) {
	c := qt.New(t)
	srv, cli := testServer(c)
	ctx := context.Background()

	election := &types.Election{
		Coins:     types.NewBigInt(big.NewInt(65537)),
		Questions: []*types.Question{{OptionCount: 2}},
	}
	_, status, err := cli.Request(client.HTTPPOST, election, nil, "elections", "e1")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// elections without coins are rejected
	_, status, err = cli.Request(client.HTTPPOST, &types.Election{Questions: election.Questions}, nil, "elections", "e2")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	got := &types.Election{}
	c.Assert(cli.Get(ctx, srv.URL+"/elections/e1", nil, got), qt.IsNil)
	c.Assert(got.URL, qt.Equals, srv.URL+"/elections/e1")
	c.Assert(got.BallotsURL, qt.Equals, srv.URL+"/elections/e1/ballots")
	c.Assert(got.QuestionCount, qt.Equals, 1)
	c.Assert(got.Coins.Equal(election.Coins), qt.IsTrue)

	raw := map[string]any{}
	c.Assert(cli.Get(ctx, srv.URL+"/elections/e1", []string{"fields", "coins,questions(option_count)"}, &raw), qt.IsNil)
	c.Assert(raw, qt.DeepEquals, map[string]any{
		"coins":     "AQAB",
		"questions": []any{map[string]any{"option_count": float64(2)}},
	})

	err = cli.Get(ctx, srv.URL+"/elections/missing", nil, got)
	c.Assert(err, qt.ErrorIs, types.ErrTransport)
	c.Assert(err, qt.ErrorMatches, ".*404.*")

	list := &api.ElectionList{}
	c.Assert(cli.Get(ctx, srv.URL+"/elections", nil, list), qt.IsNil)
	c.Assert(list.Elections, qt.DeepEquals, []string{"e1"})

	result := &types.ElectionResult{Questions: []*types.QuestionTally{
		{TallyDecommitment: []*types.BigInt{types.NewBigInt(big.NewInt(5)), types.NewBigInt(big.NewInt(6))}},
	}}
	c.Assert(cli.Patch(ctx, srv.URL+"/elections/e1", result), qt.IsNil)
	// results are submitted once
	err = cli.Patch(ctx, srv.URL+"/elections/e1", result)
	c.Assert(err, qt.ErrorIs, types.ErrTransport)
	c.Assert(err, qt.ErrorMatches, ".*409.*")

	stored := &types.ElectionResult{}
	c.Assert(cli.Get(ctx, srv.URL+"/elections/e1/result", nil, stored), qt.IsNil)
	c.Assert(stored.Questions[0].TallyDecommitment[1].Equal(types.NewBigInt(big.NewInt(6))), qt.IsTrue)
}

func TestBallotEndpoints(t *testing.T) {
	c := qt.New(t)
	srv, cli := testServer(c)
	ctx := context.Background()

	election := &types.Election{
		Coins:     types.NewBigInt(big.NewInt(3)),
		Questions: []*types.Question{{OptionCount: 2}},
	}
	_, status, err := cli.Request(client.HTTPPOST, election, nil, "elections", "e1")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)

	ballots := []*types.Ballot{}
	for serial := 1; serial <= 7; serial++ {
		ballots = append(ballots, ballot(serial, serial%3 != 0))
	}
	data, status, err := cli.Request(client.HTTPPOST, ballots, nil, "elections", "e1", "ballots")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	stored := &api.NewBallotsResponse{}
	c.Assert(json.Unmarshal(data, stored), qt.IsNil)
	c.Assert(stored.Stored, qt.Equals, 7)

	// options must match the question shape
	bad := ballot(8, true)
	bad.Parts[0].Questions[0].Options = bad.Parts[0].Questions[0].Options[:1]
	_, status, err = cli.Request(client.HTTPPOST, []*types.Ballot{bad}, nil, "elections", "e1", "ballots")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	ballotsURL := srv.URL + "/elections/e1/ballots"
	page := &types.BallotsPage{}
	c.Assert(cli.Get(ctx, ballotsURL, []string{"is_cast", "true", "limit", "2", "offset", "1"}, page), qt.IsNil)
	c.Assert(page.Count, qt.Equals, 5)
	c.Assert(page.Results, qt.HasLen, 2)
	c.Assert(page.Results[0].SerialNumber, qt.Equals, 2)
	c.Assert(page.Results[1].SerialNumber, qt.Equals, 4)
	c.Assert(page.Results[0].URL, qt.Equals, ballotsURL+"/2")
	c.Assert(page.Next, qt.Not(qt.IsNil))
	c.Assert(strings.Contains(*page.Next, "offset=3"), qt.IsTrue)
	c.Assert(page.Previous, qt.Not(qt.IsNil))
	c.Assert(strings.Contains(*page.Previous, "offset=0"), qt.IsTrue)

	// following next until the end
	next := &types.BallotsPage{}
	c.Assert(cli.Get(ctx, *page.Next, nil, next), qt.IsNil)
	c.Assert(next.Results, qt.HasLen, 2)
	c.Assert(next.Results[0].SerialNumber, qt.Equals, 5)
	c.Assert(next.Next, qt.IsNil)

	raw := struct {
		Results []map[string]any `json:"results"`
	}{}
	c.Assert(cli.Get(ctx, ballotsURL, []string{"is_cast", "false", "fields", "serial_number"}, &raw), qt.IsNil)
	c.Assert(raw.Results, qt.DeepEquals, []map[string]any{
		{"serial_number": float64(3)},
		{"serial_number": float64(6)},
	})

	err = cli.Get(ctx, ballotsURL, []string{"limit", "-1"}, page)
	c.Assert(err, qt.ErrorMatches, ".*400.*")
	err = cli.Get(ctx, ballotsURL, []string{"fields", "parts("}, page)
	c.Assert(err, qt.ErrorMatches, ".*400.*")

	result := &types.BallotResult{Parts: []*types.PartResult{
		{Cast: []*types.CastQuestionResult{{
			ZK2:     []*types.BigInt{types.NewBigInt(big.NewInt(1))},
			Options: []*types.CastOptionResult{{ZK2: []*types.BigInt{types.NewBigInt(big.NewInt(2))}}},
		}}},
		{NotCast: []*types.NotCastQuestionResult{{
			Options: []*types.NotCastOptionResult{{Decommitment: []*types.BigInt{types.NewBigInt(big.NewInt(3))}}},
		}}},
	}}
	c.Assert(cli.Patch(ctx, ballotsURL+"/1", result), qt.IsNil)
	err = cli.Patch(ctx, ballotsURL+"/100", result)
	c.Assert(err, qt.ErrorMatches, ".*404.*")
	// ballot 3 has no cast part
	err = cli.Patch(ctx, ballotsURL+"/3", result)
	c.Assert(err, qt.ErrorMatches, ".*409.*")

	got := &types.BallotResult{}
	c.Assert(cli.Get(ctx, ballotsURL+"/1/result", nil, got), qt.IsNil)
	c.Assert(got.Parts[0].IsCast(), qt.IsTrue)
	c.Assert(got.Parts[1].NotCast[0].Options[0].Decommitment[0].Equal(types.NewBigInt(big.NewInt(3))), qt.IsTrue)

	one := &types.Ballot{}
	c.Assert(cli.Get(ctx, ballotsURL+"/7", nil, one), qt.IsNil)
	c.Assert(one.SerialNumber, qt.Equals, 7)
	c.Assert(one.CastPart().Tag, qt.Equals, "A")
}

func TestMetricsEndpoint(t *testing.T) {
	c := qt.New(t)
	_, cli := testServer(c)

	data, status, err := cli.Request(client.HTTPGET, nil, nil, api.MetricsEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	// the ping of client.New is already counted
	c.Assert(string(data), qt.Contains, `demos_api_requests_total{method="GET",route="/ping"}`)
}
