package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 5 * time.Minute

// LinkSweeper periodically deletes links whose TTL has elapsed.
type LinkSweeper struct {
	logger   *zap.Logger
	links    LinkService
	recorder Recorder
	interval time.Duration
	stopChan chan struct{}
	stopped  chan struct{}
}

// NewLinkSweeper creates a new expired link sweeper.
func NewLinkSweeper(logger *zap.Logger, links LinkService, recorder Recorder, interval time.Duration) *LinkSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &LinkSweeper{
		logger:   logger,
		links:    links,
		recorder: recorder,
		interval: interval,
		stopChan: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *LinkSweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep and waits for the loop to exit.
func (s *LinkSweeper) Stop() {
	close(s.stopChan)
	<-s.stopped
}

func (s *LinkSweeper) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopChan:
			s.logger.Info("link sweeper stopped")
			return
		}
	}
}

// Sweep runs one pass and returns the number of deleted links.
func (s *LinkSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	deleted, err := s.links.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("failed to sweep expired links", zap.Error(err))
		return 0
	}

	if deleted > 0 {
		s.recorder.LinksSwept(deleted)
		s.logger.Info("deleted expired links", zap.Int64("count", deleted))
	}
	return deleted
}
