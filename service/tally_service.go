package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/tally"
	"github.com/vocdoni/demos-tally/types"
)

// DefaultProgressInterval is the period of the tally progress log.
const DefaultProgressInterval = 10 * time.Second

// TallyService runs a tally in the background and periodically logs its
// progress.
type TallyService struct {
	conf     tally.Config
	svc      tally.DataService
	interval time.Duration

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	processed atomic.Int64
	result    *types.ElectionResult
	err       error
}

// NewTally creates a new TallyService. The configuration is copied. If
// interval is zero DefaultProgressInterval is used.
func NewTally(conf *tally.Config, svc tally.DataService, interval time.Duration) *TallyService {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ts := &TallyService{
		conf:     *conf,
		svc:      svc,
		interval: interval,
	}
	progress := conf.Progress
	ts.conf.Progress = func(n int) {
		ts.processed.Add(int64(n))
		if progress != nil {
			progress(n)
		}
	}
	return ts
}

// Start launches the tally. It returns an error if the service is already
// running.
func (ts *TallyService) Start(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.cancel != nil {
		return fmt.Errorf("service already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	ts.cancel = cancel
	ts.done = make(chan struct{})
	ts.processed.Store(0)
	ts.result, ts.err = nil, nil

	go ts.run(ctx, ts.done)
	return nil
}

func (ts *TallyService) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	go ts.reportProgress(reportCtx)

	res, err := tally.NewDispatcher(&ts.conf, ts.svc).Run(ctx)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.result, ts.err = res, err
	// a finished run no longer holds the service, unless Stop or a new
	// Start already took over
	if ts.done == done && ts.cancel != nil {
		ts.cancel()
		ts.cancel = nil
	}
}

func (ts *TallyService) reportProgress(ctx context.Context) {
	ticker := time.NewTicker(ts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Infow("tally progress", "ballots", ts.processed.Load())
		}
	}
}

// Wait blocks until the tally finishes and returns its result. It returns
// an error if the service was never started.
func (ts *TallyService) Wait() (*types.ElectionResult, error) {
	ts.mu.Lock()
	done := ts.done
	ts.mu.Unlock()
	if done == nil {
		return nil, fmt.Errorf("service not started")
	}
	<-done
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.result, ts.err
}

// Processed returns the number of ballots processed by the current run.
func (ts *TallyService) Processed() int {
	return int(ts.processed.Load())
}

// Stop cancels a running tally and waits for the workers to return.
func (ts *TallyService) Stop() {
	ts.mu.Lock()
	cancel, done := ts.cancel, ts.done
	ts.cancel = nil
	ts.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
