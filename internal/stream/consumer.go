package stream

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"judgeview/internal/api"
	appErr "judgeview/pkg/errors"
	"judgeview/pkg/utils/logger"

	"go.uber.org/zap"
)

// Dialer opens the raw event stream for a submission.
type Dialer interface {
	SubmissionEvents(ctx context.Context, submissionID, lastEventID string) (io.ReadCloser, error)
}

// Snapshotter re-fetches the submission snapshot to re-synchronize after a
// disconnection. Satisfied by *api.Client.
type Snapshotter interface {
	GetSubmission(ctx context.Context, submissionID string) (*api.Submission, error)
}

// Config tunes the reconnect policy.
type Config struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Jitter        float64
	MaxReconnects int
}

func (cfg *Config) applyDefaults() {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBackoffBase
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultBackoffMax
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = defaultBackoffJitter
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
}

// active tracks open subscriptions per submission id. Opening a second
// consumer for the same id is a programming error and fails fast.
var active sync.Map

type dedupeKey struct {
	kind EventKind
	key  string
}

// Consumer owns one logical live subscription for one submission id. It
// reconnects with capped exponential backoff, re-synchronizes through a
// snapshot fetch after every disconnection, and guarantees at-most-once
// delivery per (testCaseId, eventKind) pair. The event sequence is finite:
// it ends at a terminal event or when the consumer is closed.
type Consumer struct {
	submissionID string
	dial         Dialer
	snapshots    Snapshotter
	cfg          Config

	ctx    context.Context
	cancel context.CancelFunc

	events chan LifecycleEvent
	done   chan struct{}

	closeOnce sync.Once

	// Touched only by the run goroutine.
	lastSeq     uint64
	lastEventID string
	delivered   map[dedupeKey]struct{}

	mu     sync.Mutex
	opened bool
	err    error
}

// NewConsumer creates an unopened consumer for one submission id.
func NewConsumer(submissionID string, dial Dialer, snapshots Snapshotter, cfg Config) *Consumer {
	cfg.applyDefaults()
	return &Consumer{
		submissionID: submissionID,
		dial:         dial,
		snapshots:    snapshots,
		cfg:          cfg,
		events:       make(chan LifecycleEvent),
		done:         make(chan struct{}),
		delivered:    make(map[dedupeKey]struct{}),
	}
}

// Open starts the subscription and returns the event channel. The channel is
// closed when the sequence ends; check Err afterwards to distinguish natural
// termination from reconnect exhaustion.
func (c *Consumer) Open(ctx context.Context) (<-chan LifecycleEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil, appErr.New(appErr.StreamAlreadyOpen).WithDetail("submission_id", c.submissionID)
	}
	if _, loaded := active.LoadOrStore(c.submissionID, struct{}{}); loaded {
		return nil, appErr.New(appErr.StreamAlreadyOpen).WithDetail("submission_id", c.submissionID)
	}
	c.opened = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	go c.run()
	return c.events, nil
}

// Close tears the subscription down. No event is delivered after Close
// returns; the underlying transport and any pending backoff timer are
// released on every exit path. Safe to call more than once.
func (c *Consumer) Close() error {
	c.mu.Lock()
	opened := c.opened
	c.mu.Unlock()
	if !opened {
		return nil
	}
	c.closeOnce.Do(func() {
		c.cancel()
	})
	<-c.done
	return nil
}

// Err reports why the event sequence ended. Valid after the event channel is
// closed; nil means a terminal event arrived or the consumer was closed.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Consumer) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *Consumer) run() {
	defer func() {
		close(c.events)
		active.Delete(c.submissionID)
		close(c.done)
	}()

	retries := 0
	reconnecting := false

	for {
		if c.ctx.Err() != nil {
			return
		}

		if reconnecting {
			// Mandatory re-synchronization: a terminal event may have been
			// missed while disconnected, and silently stalling on it would
			// leave the subscriber spinning forever.
			if finished := c.resync(); finished {
				return
			}
		}

		body, err := c.dial.SubmissionEvents(c.ctx, c.submissionID, c.lastEventID)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			retries++
			if retries > c.cfg.MaxReconnects {
				c.setErr(appErr.Wrap(err, appErr.StreamExhausted).
					WithDetail("submission_id", c.submissionID).
					WithDetail("attempts", retries))
				return
			}
			logger.Warn(c.ctx, "event stream connect failed, backing off",
				zap.String("submission_id", c.submissionID),
				zap.Int("attempt", retries),
				zap.Error(err))
			if !c.sleep(ComputeBackoff(retries-1, c.cfg.BaseDelay, c.cfg.MaxDelay, c.cfg.Jitter)) {
				return
			}
			continue
		}

		retries = 0
		terminal, consumeErr := c.consume(body)
		if terminal || c.ctx.Err() != nil {
			return
		}

		// Transport dropped before a terminal event.
		reconnecting = true
		retries++
		if retries > c.cfg.MaxReconnects {
			c.setErr(appErr.Wrap(consumeErr, appErr.StreamExhausted).
				WithDetail("submission_id", c.submissionID))
			return
		}
		logger.Warn(c.ctx, "event stream disconnected, backing off",
			zap.String("submission_id", c.submissionID),
			zap.Int("attempt", retries),
			zap.Error(consumeErr))
		if !c.sleep(ComputeBackoff(retries-1, c.cfg.BaseDelay, c.cfg.MaxDelay, c.cfg.Jitter)) {
			return
		}
	}
}

// consume reads frames until terminal delivery, close, or disconnection.
// The transport is always released before returning.
func (c *Consumer) consume(body io.ReadCloser) (terminal bool, err error) {
	defer func() { _ = body.Close() }()

	reader := newSSEReader(body)
	for {
		frame, err := reader.Next()
		if err != nil {
			if c.ctx.Err() != nil {
				return false, nil
			}
			return false, appErr.Wrap(err, appErr.ConnectionClosed)
		}
		// Id-only frames still advance the resume position.
		if frame.ID != "" {
			c.lastEventID = frame.ID
		}
		if len(frame.Data) == 0 {
			continue
		}

		ev, decErr := decodeEvent(frame.Data)
		if decErr != nil {
			// Malformed events are discarded, never fatal: liveness of the
			// subscriber wins over strict handling of every delta.
			logger.Warn(c.ctx, "discarding malformed lifecycle event",
				zap.String("submission_id", c.submissionID),
				zap.Error(decErr))
			continue
		}

		if frame.ID == "" && ev.Seq > 0 {
			c.lastEventID = strconv.FormatUint(ev.Seq, 10)
		}
		if ev.Seq == 0 {
			// Transport guarantees ordering within one connection; assign
			// arrival order so the subscriber's stale check stays uniform.
			ev.Seq = c.lastSeq + 1
		}
		if ev.Seq > c.lastSeq {
			c.lastSeq = ev.Seq
		}

		if !c.markDelivered(ev) {
			logger.Debug(c.ctx, "suppressing duplicate lifecycle event",
				zap.String("submission_id", c.submissionID),
				zap.Uint64("seq", ev.Seq),
				zap.String("kind", string(ev.Kind)))
			continue
		}
		if !c.dispatch(ev) {
			return false, nil
		}
		if ev.Kind == EventTerminal {
			return true, nil
		}
	}
}

// markDelivered enforces at-most-once per (testCaseId, eventKind). Status
// events dedupe on the status value, terminal on the kind alone.
func (c *Consumer) markDelivered(ev LifecycleEvent) bool {
	key := dedupeKey{kind: ev.Kind}
	switch ev.Kind {
	case EventTestOutcome:
		key.key = ev.Outcome.TestCaseID
	case EventStatus:
		key.key = string(ev.Status)
	}
	if _, seen := c.delivered[key]; seen {
		return false
	}
	c.delivered[key] = struct{}{}
	return true
}

func (c *Consumer) dispatch(ev LifecycleEvent) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// resync fetches the submission snapshot after a disconnection. When the
// snapshot is already terminal it synthesizes the missed terminal event and
// reports the sequence as finished.
func (c *Consumer) resync() bool {
	sub, err := c.snapshots.GetSubmission(c.ctx, c.submissionID)
	if err != nil {
		if c.ctx.Err() != nil {
			return true
		}
		logger.Warn(c.ctx, "snapshot resync failed",
			zap.String("submission_id", c.submissionID),
			zap.Error(err))
		return false
	}
	if !sub.Status.Terminal() {
		return false
	}

	// Replay outcomes the disconnection may have swallowed; the dedupe set
	// keeps anything already delivered at-most-once.
	if sub.Result != nil {
		for i := range sub.Result.TestDetails {
			outcome := sub.Result.TestDetails[i]
			oev := LifecycleEvent{
				Seq:     c.lastSeq + 1,
				Kind:    EventTestOutcome,
				Outcome: &outcome,
			}
			if !c.markDelivered(oev) {
				continue
			}
			c.lastSeq = oev.Seq
			if !c.dispatch(oev) {
				return true
			}
		}
	}

	ev := LifecycleEvent{
		Seq:    c.lastSeq + 1,
		Kind:   EventTerminal,
		Status: sub.Status,
	}
	if sub.Result != nil {
		ev.TotalTests = sub.Result.TotalTests
	}
	c.lastSeq = ev.Seq
	if c.markDelivered(ev) {
		c.dispatch(ev)
	}
	return true
}

// sleep waits for the backoff delay, aborting immediately when closed.
func (c *Consumer) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}
