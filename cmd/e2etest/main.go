// e2etest runs a complete election in memory: it starts a bulletin board,
// lets random voters cast ballot parts through the voting booth, runs the
// tally and opens the sum of the commitments of the cast options with the
// submitted tally decommitment.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/demos-tally/api/client"
	"github.com/vocdoni/demos-tally/crypto/commitment"
	"github.com/vocdoni/demos-tally/crypto/field"
	"github.com/vocdoni/demos-tally/crypto/prf"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/service"
	"github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/tally"
	"github.com/vocdoni/demos-tally/types"
	"github.com/vocdoni/demos-tally/util"
	"github.com/vocdoni/demos-tally/votecode"
	"go.dedis.ch/kyber/v3"
)

var partTags = []string{"A", "B"}

func main() {
	ballots := flag.Int("ballots", 20, "number of ballots")
	options := flag.Int("options", 3, "number of options, the blank option excluded")
	workers := flag.IntP("workers", "w", 2, "number of tally workers")
	logLevel := flag.String("log-level", log.LogLevelInfo, "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	if err := run(*ballots, *options, *workers); err != nil {
		log.Errorw(err, "e2e test failed")
		os.Exit(1)
	}
	log.Info("e2e test passed")
}

func run(nBallots, nOptions, workers int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// bulletin board in memory
	stg := storage.New(memdb.New())
	defer stg.Close()
	port := util.RandomInt(30000, 60000)
	bb := service.NewAPI(stg, "127.0.0.1", port)
	if err := bb.Start(ctx); err != nil {
		return err
	}
	defer bb.Stop()
	host := fmt.Sprintf("http://127.0.0.1:%d", port)
	time.Sleep(500 * time.Millisecond)
	cli, err := client.New(host)
	if err != nil {
		return err
	}

	// election authority setup
	trusteeKey := util.RandomBytes(32)
	trustee := prf.New(trusteeKey)
	hSecret, err := field.FromBytes(util.RandomBytes(field.Size))
	if err != nil {
		return err
	}
	h := commitment.Mul(hSecret, nil)
	slug := "e2e-" + util.RandomHex(4)
	boothElection := &votecode.Election{
		Type:             votecode.QuestionOption,
		OptionCounts:     []int{nOptions + 1},
		VoteCodeType:     votecode.Short,
		CredentialLength: 16,
	}
	boothElection.SecurityCodeLength = boothElection.IdealSecurityCodeLength()

	coins := types.BigIntFromBytes(util.RandomBytes(16))
	election := &types.Election{
		Coins:     coins,
		Questions: []*types.Question{{OptionCount: nOptions + 1, BlankOptionCount: 1}},
	}
	if _, status, err := cli.Request(client.HTTPPOST, election, nil, "elections", slug); err != nil || status != http.StatusOK {
		return fmt.Errorf("create election: status %d: %v", status, err)
	}

	// voting
	expected := make([]uint64, nOptions)
	cast := [][]*commitment.Commitment{}
	ballots := make([]*types.Ballot, 0, nBallots)
	for serial := 1; serial <= nBallots; serial++ {
		castPart := util.RandomInt(0, len(partTags))
		choice := util.RandomInt(0, nOptions+1)
		b := &types.Ballot{SerialNumber: serial}
		for p, tag := range partTags {
			isCast := p == castPart
			voted := -1
			if isCast {
				if voted, err = vote(boothElection, serial, tag, choice); err != nil {
					return err
				}
				if voted < nOptions {
					expected[voted]++
				}
				cast = append(cast, commit(trustee, h, serial, tag, voted, nOptions))
			}
			part := &types.BallotPart{Tag: tag, IsCast: isCast}
			q := &types.BallotQuestion{Index: 0}
			for o := 0; o <= nOptions; o++ {
				q.Options = append(q.Options, &types.BallotOption{Index: o, IsVoted: o == voted})
			}
			part.Questions = []*types.BallotQuestion{q}
			b.Parts = append(b.Parts, part)
		}
		ballots = append(ballots, b)
	}
	if _, status, err := cli.Request(client.HTTPPOST, ballots, nil, "elections", slug, "ballots"); err != nil || status != http.StatusOK {
		return fmt.Errorf("upload ballots: status %d: %v", status, err)
	}
	log.Infow("ballots cast", "election", slug, "ballots", nBallots, "expected", expected)

	// tally
	electionURL := host + "/elections/" + slug
	ts := service.NewTally(&tally.Config{
		ElectionURL: electionURL,
		SecretKey:   base64.StdEncoding.EncodeToString(trusteeKey),
		Workers:     workers,
	}, cli, time.Second)
	if err := ts.Start(ctx); err != nil {
		return err
	}
	if _, err := ts.Wait(); err != nil {
		return err
	}
	ts.Stop()

	// verification
	res := &types.ElectionResult{}
	if err := cli.Get(ctx, electionURL+"/result", nil, res); err != nil {
		return err
	}
	decommitments := make([]*field.Element, 0, nOptions)
	for _, d := range res.Questions[0].TallyDecommitment {
		e, err := field.FromWire(d)
		if err != nil {
			return err
		}
		decommitments = append(decommitments, e)
	}
	sum, err := commitment.AddCommitments(cast)
	if err != nil {
		return err
	}
	counts, err := commitment.Extract(h, sum, decommitments, uint64(nBallots))
	if err != nil {
		return err
	}
	log.Infow("tally opened", "counts", counts)
	for i := range expected {
		if counts[i] != expected[i] {
			return fmt.Errorf("option %d: counted %d votes, expected %d", i, counts[i], expected[i])
		}
	}
	return nil
}

// vote casts choice through the voting booth of a ballot part, as the
// voter would, and returns the option the bulletin board records for the
// vote code.
func vote(e *votecode.Election, serial int, tag string, choice int) (int, error) {
	code, err := e.GenerateSecurityCode(nil)
	if err != nil {
		return 0, err
	}
	credential, err := e.GenerateCredential(nil)
	if err != nil {
		return 0, err
	}
	short, err := votecode.GenerateShortVoteCodes(nil, e.OptionCounts[0])
	if err != nil {
		return 0, err
	}
	ballot, err := votecode.NewBallot(e, &votecode.BallotConfig{
		SerialNumber:   serial,
		Tag:            tag,
		Credential:     credential,
		SecurityCode:   code,
		ShortVoteCodes: [][]string{short},
	})
	if err != nil {
		return 0, err
	}
	booth := votecode.NewBooth(ballot)
	if err := booth.Start(); err != nil {
		return 0, err
	}
	if err := booth.Select(0, choice); err != nil {
		return 0, err
	}
	codes, err := booth.Next()
	if err != nil {
		return 0, err
	}
	option, err := ballot.OptionForVoteCode(0, codes[0][0])
	if err != nil {
		return 0, err
	}
	receipt := util.RandomHex(8)
	if err := booth.Submit(map[int]map[string]string{0: {codes[0][0]: receipt}}); err != nil {
		return 0, err
	}
	shown, err := booth.Receipts()
	if err != nil {
		return 0, err
	}
	if shown[0][0] != receipt {
		return 0, fmt.Errorf("ballot %d%s: booth shows receipt %s, issued %s", serial, tag, shown[0][0], receipt)
	}
	log.Debugw("vote cast", "serial", serial, "tag", tag, "voteCode", codes[0][0], "receipt", receipt)
	return option, nil
}

// commit returns the commitments of a voted option: one per candidate
// slot, committing to 1 in the slot of the option and 0 elsewhere. Blank
// options commit to zeros.
func commit(trustee *prf.PRF, h kyber.Point, serial int, tag string, option, slots int) []*commitment.Commitment {
	out := make([]*commitment.Commitment, slots)
	for j := range out {
		var m uint64
		if j == option {
			m = 1
		}
		out[j] = commitment.Commit(h, m, trustee.RandShare(serial, tag, 0, option, j))
	}
	return out
}
