package tally

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/metrics"
	"github.com/vocdoni/demos-tally/types"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs a whole tally: it splits the cast ballots among workers,
// merges their partial accumulators and submits the election result once.
type Dispatcher struct {
	conf *Config
	svc  DataService
}

// NewDispatcher returns a dispatcher using svc to reach the data service.
func NewDispatcher(conf *Config, svc DataService) *Dispatcher {
	return &Dispatcher{conf: conf, svc: svc}
}

// FetchElection returns the election shape needed by the tally.
func (d *Dispatcher) FetchElection(ctx context.Context) (*types.Election, error) {
	election := &types.Election{}
	if err := d.svc.Get(ctx, d.conf.ElectionURL, []string{"fields", electionFields}, election); err != nil {
		return nil, fmt.Errorf("fetch election: %w", err)
	}
	if err := election.Validate(); err != nil {
		return nil, err
	}
	return election, nil
}

// CastBallotCount returns the number of cast ballots of the election.
func (d *Dispatcher) CastBallotCount(ctx context.Context, election *types.Election) (int, error) {
	page := &types.BallotsPage{}
	if err := d.svc.Get(ctx, election.BallotsURL, []string{
		"fields", "serial_number",
		"is_cast", "true",
		"limit", "1",
		"offset", "0",
	}, page); err != nil {
		return 0, fmt.Errorf("count ballots: %w", err)
	}
	if page.Count < 0 {
		return 0, fmt.Errorf("%w: negative ballot count", ErrConsistency)
	}
	return page.Count, nil
}

// Run executes the tally. If any worker fails, the others are cancelled
// and nothing is submitted to the election.
func (d *Dispatcher) Run(ctx context.Context) (*types.ElectionResult, error) {
	runID := uuid.New()
	start := time.Now()
	res, err := d.run(ctx, runID)
	if err != nil {
		metrics.TallyRuns.WithLabelValues(metrics.OutcomeFailure).Inc()
		log.Warnw("tally failed", "run", runID.String(), "error", err.Error())
		return nil, err
	}
	log.Infow("tally finished", "run", runID.String(), "elapsed", time.Since(start).String())
	return res, nil
}

func (d *Dispatcher) run(ctx context.Context, runID uuid.UUID) (*types.ElectionResult, error) {
	key, err := d.conf.key()
	if err != nil {
		return nil, err
	}
	election, err := d.FetchElection(ctx)
	if err != nil {
		return nil, err
	}
	total, err := d.CastBallotCount(ctx, election)
	if err != nil {
		return nil, err
	}
	log.Infow("tally started", "run", runID.String(), "castBallots", total, "workers", d.conf.workers())

	merged := NewDecommitment(election)
	if total == 0 {
		res := merged.Result()
		if err := d.svc.Patch(ctx, d.conf.ElectionURL, res); err != nil {
			return nil, fmt.Errorf("submit election result: %w", err)
		}
		metrics.TallyRuns.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return res, nil
	}

	ranges := Partition(total, d.conf.workers())
	partials := make([]*Decommitment, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		tctx, err := NewContext(key, election)
		if err != nil {
			return nil, err
		}
		w := NewWorker(i, tctx, d.svc, d.conf.pageSize(), d.conf.Progress)
		g.Go(func() error {
			p, err := w.Run(gctx, r)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			partials[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range partials {
		if err := merged.Merge(p); err != nil {
			return nil, err
		}
	}
	res := merged.Result()
	if err := d.svc.Patch(ctx, d.conf.ElectionURL, res); err != nil {
		return nil, fmt.Errorf("submit election result: %w", err)
	}
	metrics.TallyRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return res, nil
}
