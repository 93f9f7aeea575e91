package lifecycle

import (
	"context"
	"log"
	"time"

	"betascope/internal/domain"
	"betascope/internal/observability"
)

// UniverseSource supplies one poll's worth of feed tokens.
type UniverseSource interface {
	LiveUniverse(ctx context.Context) ([]domain.Token, error)
}

// Runner drives the manager on a fixed interval and optionally folds a
// live launch stream into the history between polls.
type Runner struct {
	manager  *Manager
	source   UniverseSource
	launches <-chan domain.Token
	interval time.Duration
	onBoard  func(Board)
	logger   *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Manager  *Manager
	Source   UniverseSource
	Launches <-chan domain.Token // optional bonding-curve launch stream
	Interval time.Duration       // default: the manager's PollInterval
	OnBoard  func(Board)         // invoked after every successful poll
	Logger   *log.Logger
}

// NewRunner creates a new polling runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = opts.Manager.cfg.PollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		manager:  opts.Manager,
		source:   opts.Source,
		launches: opts.Launches,
		interval: interval,
		onBoard:  opts.OnBoard,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. A failed poll logs and waits
// for the next tick; overlapping polls are not prevented and the board
// is last-write-wins by design of the manager.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("lifecycle runner started, poll interval: %v", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.poll(ctx) // first cycle immediately, not after one interval

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("lifecycle runner stopping...")
			return ctx.Err()

		case tok, ok := <-r.launches:
			if !ok {
				r.launches = nil // stream closed, keep polling
				continue
			}
			// Seed history as soon as a launch lands so firstSeen is
			// the launch moment, not the next poll tick.
			observability.RecordLaunch()
			if _, err := r.manager.Ingest(ctx, time.Now(), []domain.Token{tok}); err != nil {
				r.logger.Printf("launch ingest failed for %s: %v", tok.Address, err)
			}

		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	tokens, err := r.source.LiveUniverse(ctx)
	if err != nil {
		observability.RecordPoll(false)
		r.logger.Printf("universe poll failed: %v", err)
		return
	}

	board, err := r.manager.Ingest(ctx, time.Now(), tokens)
	if err != nil {
		observability.RecordPoll(false)
		r.logger.Printf("ingest failed: %v", err)
		return
	}

	observability.RecordPoll(true)
	r.logger.Printf("poll complete: %d live, %d cooling, %d dumped",
		len(board.Live), len(board.Cooling), len(board.Dumped))
	if r.onBoard != nil {
		r.onBoard(board)
	}
}
