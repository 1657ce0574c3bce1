package session

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type AutosaveWorker struct {
	controller *Controller
	interval   time.Duration
	logger     *slog.Logger
}

type NewAutosaveWorkerOptions struct {
	Controller *Controller
	Interval   time.Duration
	Logger     *slog.Logger
}

// NewAutosaveWorker creates a worker that periodically saves the session
// while it is playing and has pending actions.
func NewAutosaveWorker(opts NewAutosaveWorkerOptions) *AutosaveWorker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &AutosaveWorker{
		controller: opts.Controller,
		interval:   interval,
		logger:     logger,
	}
}

// Start blocks until ctx is done or the session reaches a terminal state.
func (w *AutosaveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.tick(ctx) {
				return
			}
		}
	}
}

// tick reports whether the worker should keep running.
func (w *AutosaveWorker) tick(ctx context.Context) bool {
	state := w.controller.State()
	if state.Terminal() {
		w.logger.Info("autosave stopped", "state", state)
		return false
	}
	if state != StatePlaying || len(w.controller.PendingActions()) == 0 {
		return true
	}
	if err := w.controller.Save(ctx); err != nil {
		w.logger.Error("autosave failed", "err", err)
		return !w.controller.State().Terminal()
	}
	return true
}
