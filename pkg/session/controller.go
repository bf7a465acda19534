// Package session owns the prediction lifecycle of a single user session:
// Idle -> Pending -> Resolved | Failed, with at most one request in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"churn-predictor-api/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Predictor computes a churn probability for a snapshot.
type Predictor interface {
	Predict(ctx context.Context, in models.FormInput) (float64, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, in models.FormInput) (float64, error)

func (f PredictorFunc) Predict(ctx context.Context, in models.FormInput) (float64, error) {
	return f(ctx, in)
}

// Snapshotter is implemented by *form.Form.
type Snapshotter interface {
	TrySnapshot() (models.FormInput, error)
}

// Listener observes state transitions. Listeners run synchronously in
// transition order and must not call Submit, Wait, Cancel or Close.
type Listener func(State)

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each prediction. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator replaces the request ID source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// Controller is the Prediction Session Controller.
type Controller struct {
	predictor Predictor
	logger    *zap.Logger
	timeout   time.Duration
	newID     func() string
	now       func() time.Time

	// transitionMu serializes transitions together with their delivery so
	// listeners observe them in order. mu guards the fields below it.
	transitionMu sync.Mutex

	mu           sync.Mutex
	state        State
	generation   uint64
	cancel       context.CancelFunc
	done         chan struct{}
	closed       bool
	listeners    map[uint64]Listener
	nextListener uint64

	wg sync.WaitGroup
}

// NewController returns an Idle controller.
func NewController(p Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: p,
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
		now:       time.Now,
		state:     State{Status: StatusIdle},
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every subsequent transition.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SubmitForm snapshots s and submits it. A validation error leaves the
// state untouched and no prediction is started.
func (c *Controller) SubmitForm(ctx context.Context, s Snapshotter) (models.PredictionRequest, error) {
	in, err := s.TrySnapshot()
	if err != nil {
		return models.PredictionRequest{}, err
	}
	return c.Submit(ctx, in)
}

// Submit moves the controller to Pending and starts the prediction in the
// background. Any previous result is discarded. While Pending it returns
// ErrSubmissionInFlight and starts nothing.
//
// The request keeps ctx's values but not its cancellation: it outlives the
// caller (for example an HTTP handler) and is aborted only by Cancel, Close
// or the configured timeout.
func (c *Controller) Submit(ctx context.Context, in models.FormInput) (models.PredictionRequest, error) {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.PredictionRequest{}, ErrControllerClosed
	}
	if c.state.Status == StatusPending {
		pending := c.state.RequestID
		c.mu.Unlock()
		c.logger.Debug("submission ignored while pending", zap.String("request_id", pending))
		return models.PredictionRequest{}, ErrSubmissionInFlight
	}

	req := models.PredictionRequest{
		ID:          c.newID(),
		Input:       in,
		SubmittedAt: c.now(),
	}

	base := context.WithoutCancel(ctx)
	var reqCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(base, c.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(base)
	}

	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = State{Status: StatusPending, RequestID: req.ID}
	next, listeners := c.state, c.listenersLocked()
	c.mu.Unlock()

	c.logger.Info("prediction submitted", zap.String("request_id", req.ID))

	c.wg.Add(1)
	go c.run(reqCtx, cancel, gen, req)

	deliver(listeners, next)
	return req, nil
}

// Wait blocks until the controller is no longer Pending or ctx is done.
// When it returns nil, listeners have already observed the settled state.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}

	// A transition holds transitionMu until its listeners have run.
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()
	return c.State(), nil
}

// Cancel aborts the pending request, if any, and returns to Idle.
// A late answer from the aborted request is discarded.
func (c *Controller) Cancel() bool {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	c.mu.Lock()
	if c.state.Status != StatusPending {
		c.mu.Unlock()
		return false
	}
	aborted := c.state.RequestID
	c.generation++
	done := c.settleLocked(State{Status: StatusIdle})
	next, listeners := c.state, c.listenersLocked()
	c.mu.Unlock()

	c.logger.Info("prediction cancelled", zap.String("request_id", aborted))
	deliver(listeners, next)
	close(done)
	return true
}

// Close cancels any pending request, rejects further submissions and waits
// for background work to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Cancel()
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, req models.PredictionRequest) {
	defer c.wg.Done()
	defer cancel()

	start := time.Now()
	p, err := c.predict(ctx, req.Input)

	var next State
	if err == nil {
		var result models.PredictionResult
		result, err = models.NewPredictionResult(p)
		if err == nil {
			next = State{Status: StatusResolved, RequestID: req.ID, Result: &result}
		}
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		next = State{Status: StatusFailed, RequestID: req.ID, Err: &PredictionError{RequestID: req.ID, Err: err}}
	}

	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("stale prediction discarded", zap.String("request_id", req.ID))
		return
	}
	done := c.settleLocked(next)
	listeners := c.listenersLocked()
	c.mu.Unlock()

	if next.Status == StatusFailed {
		c.logger.Warn("prediction failed",
			zap.String("request_id", req.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(next.Err),
		)
	} else {
		c.logger.Info("prediction resolved",
			zap.String("request_id", req.ID),
			zap.Float64("probability", next.Result.Probability),
			zap.Bool("high_risk", next.Result.IsHighRisk),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	deliver(listeners, next)
	close(done)
}

// predict shields the session from a panicking predictor.
func (c *Controller) predict(ctx context.Context, in models.FormInput) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return c.predictor.Predict(ctx, in)
}

// settleLocked leaves Pending and returns the done channel, which the caller
// closes once listeners have run. Caller holds mu.
func (c *Controller) settleLocked(next State) chan struct{} {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	done := c.done
	c.done = nil
	c.state = next
	return done
}

func (c *Controller) listenersLocked() []Listener {
	ids := make([]uint64, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.listeners[id])
	}
	return out
}

func deliver(listeners []Listener, st State) {
	for _, l := range listeners {
		l(st)
	}
}
