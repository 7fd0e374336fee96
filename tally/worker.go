package tally

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/metrics"
	"github.com/vocdoni/demos-tally/types"
)

// Worker processes a range of cast ballots with its own context.
type Worker struct {
	id       int
	ctx      *Context
	svc      DataService
	pageSize int
	progress func(int)
}

// NewWorker returns a worker over the given context.
func NewWorker(id int, tctx *Context, svc DataService, pageSize int, progress func(int)) *Worker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Worker{id: id, ctx: tctx, svc: svc, pageSize: pageSize, progress: progress}
}

// Run fetches the cast ballots of r page by page, submits the result of
// every ballot to its own URL and returns the partial accumulator. The
// first error aborts the run.
func (w *Worker) Run(ctx context.Context, r Range) (*Decommitment, error) {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()
	log.Debugw("tally worker started", "worker", w.id, "start", r.Start, "stop", r.Stop)

	offset := r.Start
	for offset < r.Stop {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		limit := min(w.pageSize, r.Stop-offset)
		page := &types.BallotsPage{}
		if err := w.svc.Get(ctx, w.ctx.election.BallotsURL, []string{
			"fields", ballotFields,
			"is_cast", "true",
			"limit", strconv.Itoa(limit),
			"offset", strconv.Itoa(offset),
		}, page); err != nil {
			return nil, fmt.Errorf("fetch ballots at offset %d: %w", offset, err)
		}
		if len(page.Results) == 0 {
			return nil, fmt.Errorf("%w: no ballots at offset %d, expected %d more", ErrConsistency, offset, r.Stop-offset)
		}
		if len(page.Results) > limit {
			return nil, fmt.Errorf("%w: got %d ballots, requested %d", ErrConsistency, len(page.Results), limit)
		}
		for _, ballot := range page.Results {
			if ballot == nil || ballot.URL == "" {
				return nil, fmt.Errorf("%w: ballot without url at offset %d", ErrConsistency, offset)
			}
			res, err := w.ctx.ProcessBallot(ballot)
			if err != nil {
				return nil, fmt.Errorf("ballot %d: %w", ballot.SerialNumber, err)
			}
			if err := w.svc.Patch(ctx, ballot.URL, res); err != nil {
				return nil, fmt.Errorf("submit ballot %d: %w", ballot.SerialNumber, err)
			}
			metrics.BallotsProcessed.Inc()
			if w.progress != nil {
				w.progress(1)
			}
		}
		offset += len(page.Results)
	}
	log.Debugw("tally worker finished", "worker", w.id, "ballots", r.Len())
	return w.ctx.Decommitment(), nil
}
