package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

type Options struct {
	Now   func() time.Time
	NewID func() string
	// MinSaveDuration keeps the autosaving state visible for at least this
	// long. Zero disables the delay.
	MinSaveDuration time.Duration
	// AnonymousReadOnly loads identity-less sessions into readonly instead of
	// playing.
	AnonymousReadOnly bool
	Logger            *slog.Logger
	Metrics           ports.SessionMetrics
}

// Result describes the outcome of a Dispatch that was not rejected.
type Result struct {
	Queued   bool
	Logged   farm.LoggedAction
	Snapshot farm.Snapshot
}

type TransitionFunc func(Transition)

type RejectionFunc func(a farm.Action, rej *farm.Rejection)

// DropFunc receives an action that was accepted or queued but discarded
// before confirmation. cause wraps ErrActionDropped.
type DropFunc func(a farm.Action, cause error)

type observer[F any] struct {
	id int
	fn F
}

// Controller owns one session's snapshot and action log and drives the
// session state machine. All context mutation happens under mu; the lock is
// released across every gateway call.
type Controller struct {
	mu       sync.Mutex
	identity ports.Identity
	gateway  ports.SessionGateway
	opts     Options
	logger   *slog.Logger

	state    State
	inFlight bool
	snapshot farm.Snapshot
	log      *Log
	queue    []farm.Action
	lastErr  error

	nextObserver int
	onTransition []observer[TransitionFunc]
	onRejection  []observer[RejectionFunc]
	onDrop       []observer[DropFunc]
	outbox       []func()
}

func New(identity ports.Identity, gateway ports.SessionGateway, opts Options) (*Controller, error) {
	if !identity.Anonymous() {
		if identity.FarmID <= 0 {
			return nil, fmt.Errorf("%w: farm id is required", ErrInvalidIdentity)
		}
		if gateway == nil {
			return nil, fmt.Errorf("%w: gateway is required", ErrInvalidIdentity)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		identity: identity,
		gateway:  gateway,
		opts:     opts,
		logger:   logger.With("farm_id", identity.FarmID),
		state:    StateLoading,
		log:      newLog(opts.Now, opts.NewID),
	}, nil
}

func (c *Controller) Identity() ports.Identity { return c.identity }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() farm.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.Clone()
}

func (c *Controller) PendingActions() []farm.LoggedAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Entries()
}

// Err returns the failure that moved the session into the error state.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// OnTransition registers fn for every state change. Callbacks run after the
// controller lock is released, in registration order. The returned func
// unregisters fn.
func (c *Controller) OnTransition(fn TransitionFunc) func() {
	return register(c, &c.onTransition, fn)
}

// OnRejection registers fn for rejections of actions that were queued while
// autosaving and applied afterwards.
func (c *Controller) OnRejection(fn RejectionFunc) func() {
	return register(c, &c.onRejection, fn)
}

// OnDrop registers fn for actions discarded without confirmation: actions
// queued during a save that failed, and unconfirmed log entries at Restart.
func (c *Controller) OnDrop(fn DropFunc) func() {
	return register(c, &c.onDrop, fn)
}

func register[F any](c *Controller, list *[]observer[F], fn F) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	*list = append(*list, observer[F]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range *list {
			if o.id == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

// Load fetches the remote snapshot, or starts from the default farm for an
// anonymous identity.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading || c.inFlight {
		err := fmt.Errorf("%w: load from %s", ErrInvalidTransition, c.state)
		c.mu.Unlock()
		return err
	}
	c.inFlight = true
	id := c.identity
	c.mu.Unlock()

	var (
		snapshot farm.Snapshot
		err      error
	)
	if id.Anonymous() {
		snapshot = farm.InitialFarm()
	} else {
		snapshot, err = c.gateway.LoadSession(context.WithoutCancel(ctx), id)
		if err != nil {
			err = fmt.Errorf("load session: %w", err)
		}
	}

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.failLocked(EventLoad, err)
		c.unlockAndNotify()
		return err
	}
	c.snapshot = snapshot
	target := StatePlaying
	if id.Anonymous() && c.opts.AnonymousReadOnly {
		target = StateReadonly
	}
	c.transitionLocked(target, EventLoaded, nil)
	c.unlockAndNotify()
	return nil
}

// Dispatch applies a in the playing state. A precondition failure is
// returned as a *farm.Rejection and leaves the session untouched. While
// autosaving, a is queued and applied once the save completes; queued
// rejections are reported through OnRejection. Any other state returns
// ErrNotPlaying.
func (c *Controller) Dispatch(a farm.Action) (Result, error) {
	c.mu.Lock()
	switch c.state {
	case StatePlaying:
		res, err := c.applyLocked(a)
		c.unlockAndNotify()
		return res, err
	case StateAutosaving:
		c.queue = append(c.queue, a)
		res := Result{Queued: true, Snapshot: c.snapshot.Clone()}
		c.mu.Unlock()
		return res, nil
	default:
		err := fmt.Errorf("%w: state %s", ErrNotPlaying, c.state)
		c.mu.Unlock()
		return Result{}, err
	}
}

// Save flushes pending actions and returns to playing. On failure the
// session moves to error with its snapshot and log untouched.
func (c *Controller) Save(ctx context.Context) error {
	pending, startedAt, err := c.begin(StateAutosaving, EventSave)
	if err != nil {
		return err
	}

	flushErr := c.flush(ctx, pending)
	c.holdMinimum(ctx, startedAt)

	c.mu.Lock()
	c.inFlight = false
	if flushErr != nil {
		if dropped := len(c.queue); dropped > 0 {
			c.logger.Warn("dropping actions queued during failed save", "count", dropped)
		}
		cause := fmt.Errorf("%w: save failed: %w", ErrActionDropped, flushErr)
		for _, a := range c.queue {
			c.queueDropLocked(a, cause)
		}
		c.queue = nil
		c.failLocked(EventSave, flushErr)
		c.unlockAndNotify()
		return flushErr
	}
	c.log.Prune(startedAt)
	c.transitionLocked(StatePlaying, EventDone, nil)
	queued := c.queue
	c.queue = nil
	for _, a := range queued {
		if _, err := c.applyLocked(a); err != nil {
			var rej *farm.Rejection
			if errors.As(err, &rej) {
				c.queueRejectionLocked(a, rej)
			}
		}
	}
	c.unlockAndNotify()
	return nil
}

// Mint flushes pending actions and then asks the gateway to mint item.
func (c *Controller) Mint(ctx context.Context, item farm.ItemName) error {
	if item == "" {
		return fmt.Errorf("%w: mint item is required", ErrInvalidRequest)
	}
	return c.runTerminal(ctx, StateMinting, EventMint, true, func(ctx context.Context, id ports.Identity) error {
		if err := c.gateway.Mint(ctx, id, ports.MintRequest{Item: item}); err != nil {
			return fmt.Errorf("mint %s: %w", item, err)
		}
		return nil
	})
}

// Sync flushes pending actions and then asks the gateway to restock. By
// convention the caller restarts the session afterwards to reload.
func (c *Controller) Sync(ctx context.Context) error {
	return c.runTerminal(ctx, StateSyncing, EventSync, true, func(ctx context.Context, id ports.Identity) error {
		if err := c.gateway.Sync(ctx, id); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		return nil
	})
}

// Withdraw moves value out of the session. Unlike Mint and Sync it does not
// flush pending actions first.
func (c *Controller) Withdraw(ctx context.Context, req ports.WithdrawRequest) error {
	if len(req.IDs) != len(req.Amounts) || req.Balance.IsNegative() {
		return fmt.Errorf("%w: withdraw ids and amounts must pair up", ErrInvalidRequest)
	}
	return c.runTerminal(ctx, StateWithdrawing, EventWithdraw, false, func(ctx context.Context, id ports.Identity) error {
		if err := c.gateway.Withdraw(ctx, id, req); err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}
		return nil
	})
}

// Restart leaves a terminal state, discards the session context and loads
// again. Log entries that were never confirmed are reported to OnDrop
// observers before they are discarded.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Terminal() {
		err := fmt.Errorf("%w: restart from %s", ErrInvalidTransition, c.state)
		c.mu.Unlock()
		return err
	}
	if entries := c.log.Entries(); len(entries) > 0 {
		c.logger.Warn("discarding unconfirmed actions on restart", "count", len(entries))
		cause := fmt.Errorf("%w: unconfirmed at restart", ErrActionDropped)
		for _, entry := range entries {
			c.queueDropLocked(entry.Action, cause)
		}
	}
	c.snapshot = farm.Snapshot{}
	c.log = newLog(c.opts.Now, c.opts.NewID)
	c.queue = nil
	c.lastErr = nil
	c.transitionLocked(StateLoading, EventRestart, nil)
	c.unlockAndNotify()
	return c.Load(ctx)
}

func (c *Controller) runTerminal(ctx context.Context, target State, event Event, preFlush bool, call func(context.Context, ports.Identity) error) error {
	pending, startedAt, err := c.begin(target, event)
	if err != nil {
		return err
	}
	callCtx := context.WithoutCancel(ctx)

	flushed := false
	if preFlush {
		err = c.flush(ctx, pending)
		flushed = err == nil
	}
	if err == nil && c.gateway == nil {
		err = fmt.Errorf("%s: %w", event, ErrNoGateway)
	}
	if err == nil {
		err = call(callCtx, c.identity)
	}

	c.mu.Lock()
	c.inFlight = false
	if flushed {
		c.log.Prune(startedAt)
	}
	if err != nil {
		c.failLocked(event, err)
		c.unlockAndNotify()
		return err
	}
	c.transitionLocked(StateSuccess, EventDone, nil)
	c.unlockAndNotify()
	return nil
}

// begin moves playing into an async state and captures the flush boundary.
func (c *Controller) begin(target State, event Event) ([]farm.LoggedAction, time.Time, error) {
	c.mu.Lock()
	if c.state != StatePlaying || c.inFlight {
		err := fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, c.state)
		c.mu.Unlock()
		return nil, time.Time{}, err
	}
	c.inFlight = true
	c.transitionLocked(target, event, nil)
	pending := c.log.Entries()
	startedAt := c.opts.Now()
	c.unlockAndNotify()
	return pending, startedAt, nil
}

func (c *Controller) flush(ctx context.Context, pending []farm.LoggedAction) error {
	if len(pending) == 0 {
		return nil
	}
	if c.gateway == nil {
		return fmt.Errorf("autosave: %w", ErrNoGateway)
	}
	receipt, err := c.gateway.Autosave(context.WithoutCancel(ctx), c.identity, pending)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordFlush(len(pending), err != nil)
	}
	if err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	c.logger.Info("flushed actions", "count", len(pending), "applied", receipt.Applied, "skipped", receipt.Skipped, "confirmed_at", receipt.ConfirmedAt)
	return nil
}

func (c *Controller) holdMinimum(ctx context.Context, startedAt time.Time) {
	if c.opts.MinSaveDuration <= 0 {
		return
	}
	remaining := c.opts.MinSaveDuration - c.opts.Now().Sub(startedAt)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Controller) applyLocked(a farm.Action) (Result, error) {
	at := c.opts.Now()
	a = farm.StampAt(a, at)
	next, err := farm.Apply(c.snapshot, a)
	if err != nil {
		var rej *farm.Rejection
		if errors.As(err, &rej) {
			if c.opts.Metrics != nil {
				c.opts.Metrics.RecordRejection(rej.Reason)
			}
			c.logger.Debug("action rejected", "type", rej.Action, "reason", rej.Reason, "detail", rej.Detail)
		}
		return Result{Snapshot: c.snapshot.Clone()}, err
	}
	c.snapshot = next
	logged := c.log.appendAt(a, at)
	return Result{Logged: logged, Snapshot: next.Clone()}, nil
}

func (c *Controller) transitionLocked(to State, event Event, err error) {
	t := Transition{From: c.state, To: to, Event: event, Err: err, At: c.opts.Now()}
	c.state = to
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordTransition(string(t.From), string(t.To))
	}
	if err != nil {
		c.logger.Error("session transition", "from", t.From, "to", t.To, "event", event, "err", err)
	} else {
		c.logger.Info("session transition", "from", t.From, "to", t.To, "event", event)
	}
	for _, o := range c.onTransition {
		fn := o.fn
		c.outbox = append(c.outbox, func() { fn(t) })
	}
}

func (c *Controller) failLocked(event Event, err error) {
	c.lastErr = err
	c.transitionLocked(StateError, EventFailed, fmt.Errorf("%s: %w", event, err))
}

func (c *Controller) queueRejectionLocked(a farm.Action, rej *farm.Rejection) {
	for _, o := range c.onRejection {
		fn := o.fn
		c.outbox = append(c.outbox, func() { fn(a, rej) })
	}
}

func (c *Controller) queueDropLocked(a farm.Action, cause error) {
	for _, o := range c.onDrop {
		fn := o.fn
		c.outbox = append(c.outbox, func() { fn(a, cause) })
	}
}

func (c *Controller) unlockAndNotify() {
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}
