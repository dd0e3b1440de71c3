package submission

import (
	"context"
	"sync"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/stream"
	appErr "judgeview/pkg/errors"
	"judgeview/pkg/utils/logger"

	"go.uber.org/zap"
)

// State is the client-side lifecycle state of a tracked submission.
type State string

const (
	StatePending   State = "pending"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateCanceled  State = "canceled"
	// StateErrored is a local client failure (stream exhaustion, watchdog),
	// never a judge verdict.
	StateErrored State = "errored"
)

// Terminal reports whether the machine accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateErrored
}

func (s State) rank() int {
	switch s {
	case StatePending:
		return 0
	case StateStreaming:
		return 1
	default:
		return 2
	}
}

const defaultWatchdog = 2 * time.Minute

// CancelRequester issues the cancellation call to the judge collaborator.
// Satisfied by *api.Client; kept narrow so the cancel transport can change
// without touching the state machine.
type CancelRequester interface {
	CancelSubmission(ctx context.Context, submissionID string) error
}

// EventSource is the live feed the tracker drains. Satisfied by
// *stream.Consumer.
type EventSource interface {
	Open(ctx context.Context) (<-chan stream.LifecycleEvent, error)
	Close() error
	Err() error
}

// Snapshot is the immutable read-model handed to the UI. The UI never writes
// back; the tracker is the sole mutator of its submission.
type Snapshot struct {
	Submission api.Submission
	State      State
	Verdict    api.Verdict
	// Partial carries the progressive aggregate while streaming; it becomes
	// the submission result only on completion.
	Partial *api.SubmissionResult
	LastSeq uint64
	// Failure explains StateErrored.
	Failure error
}

// Tracker holds the authoritative local state for one submission. Deltas are
// applied in arrival order; correctness does not depend on that order because
// stale sequence indicators are rejected and status transitions only move
// forward through pending -> streaming -> {completed, canceled, errored}.
type Tracker struct {
	mu sync.Mutex

	sub      api.Submission
	state    State
	lastSeq  uint64
	outcomes []api.TestOutcome
	index    map[string]int
	expected int
	override api.Verdict
	partial  *api.SubmissionResult
	failure  error

	canceler CancelRequester
	source   EventSource
	watchdog time.Duration
	timer    *time.Timer

	hooks []func(problemID string)

	done     chan struct{}
	finish   sync.Once
	attached bool
}

// Option tunes a Tracker.
type Option func(*Tracker)

// WithWatchdog bounds how long the tracker waits for a terminal event after
// attaching before giving up locally.
func WithWatchdog(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.watchdog = d
		}
	}
}

// NewTracker seeds a tracker from the pending record returned by the create
// call.
func NewTracker(sub *api.Submission, canceler CancelRequester, opts ...Option) *Tracker {
	t := &Tracker{
		sub:      *sub,
		state:    StatePending,
		index:    make(map[string]int),
		canceler: canceler,
		watchdog: defaultWatchdog,
		done:     make(chan struct{}),
	}
	if sub.Status.Terminal() {
		// Seeding from an already-finished snapshot (history view).
		if sub.Status == api.StatusCanceled {
			t.state = StateCanceled
		} else {
			t.state = StateCompleted
			if sub.Result != nil {
				result := *sub.Result
				t.partial = &result
			}
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach opens the event source and starts draining it. It may be called at
// most once; the tracker owns the source from here and closes it on every
// terminal path.
func (t *Tracker) Attach(ctx context.Context, source EventSource) error {
	t.mu.Lock()
	if t.attached {
		t.mu.Unlock()
		return appErr.New(appErr.StreamAlreadyOpen).WithDetail("submission_id", t.sub.ID)
	}
	if t.state.Terminal() {
		t.mu.Unlock()
		return appErr.New(appErr.InvalidParams).WithMessage("submission already finished")
	}
	t.attached = true
	t.source = source
	t.mu.Unlock()

	events, err := source.Open(ctx)
	if err != nil {
		t.mu.Lock()
		t.attached = false
		t.source = nil
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	if t.state == StatePending {
		t.state = StateStreaming
	}
	// The submission record itself only moves on status deltas; attaching
	// says nothing about what the judge is doing.
	t.timer = time.AfterFunc(t.watchdog, t.onWatchdog)
	t.mu.Unlock()

	go t.drain(events)
	return nil
}

func (t *Tracker) drain(events <-chan stream.LifecycleEvent) {
	for ev := range events {
		t.Apply(ev)
	}

	t.mu.Lock()
	terminal := t.state.Terminal()
	src := t.source
	t.mu.Unlock()
	if terminal {
		return
	}

	var cause error
	if src != nil {
		cause = src.Err()
	}
	if cause == nil {
		cause = appErr.New(appErr.StreamClosed)
	}
	t.toErrored(cause)
}

// Apply folds one lifecycle delta into the machine. Stale or backward deltas
// are discarded and logged as anomalies, never raised: the UI's liveness
// wins over strict handling of every event.
func (t *Tracker) Apply(ev stream.LifecycleEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return
	}
	if ev.Seq <= t.lastSeq {
		t.anomaly("stale or duplicate event discarded", ev)
		return
	}

	applied := false
	switch ev.Kind {
	case stream.EventStatus:
		applied = t.applyStatusLocked(ev)
	case stream.EventTestOutcome:
		applied = t.applyOutcomeLocked(ev)
	case stream.EventTerminal:
		applied = t.applyTerminalLocked(ev)
	default:
		t.anomaly("unknown event kind discarded", ev)
	}
	if applied {
		t.lastSeq = ev.Seq
	}
}

func (t *Tracker) applyStatusLocked(ev stream.LifecycleEvent) bool {
	var target State
	switch ev.Status {
	case api.StatusQueued:
		target = StatePending
	case api.StatusRunning:
		target = StateStreaming
	default:
		// Terminal statuses arrive as terminal events.
		t.anomaly("terminal status on non-terminal event discarded", ev)
		return false
	}

	if target.rank() < t.state.rank() {
		t.anomaly("backward status transition discarded", ev)
		return false
	}
	t.state = target
	t.sub.Status = ev.Status
	return true
}

func (t *Tracker) applyOutcomeLocked(ev stream.LifecycleEvent) bool {
	if ev.Outcome == nil {
		t.anomaly("testOutcome event without outcome discarded", ev)
		return false
	}
	outcome := *ev.Outcome
	if pos, seen := t.index[outcome.TestCaseID]; seen {
		// Retried delta: last write wins.
		t.outcomes[pos] = outcome
	} else {
		t.index[outcome.TestCaseID] = len(t.outcomes)
		t.outcomes = append(t.outcomes, outcome)
	}

	// Progressive aggregate for the UI; status is untouched.
	partial := Aggregate(t.outcomes, t.expected)
	t.partial = &partial
	return true
}

func (t *Tracker) applyTerminalLocked(ev stream.LifecycleEvent) bool {
	if ev.TotalTests > 0 {
		t.expected = ev.TotalTests
	}
	if ev.Verdict != "" {
		t.override = ev.Verdict
	}

	now := time.Now().UTC()
	t.sub.CompletedAt = &now
	t.sub.UpdatedAt = now

	if ev.Status == api.StatusCanceled {
		t.state = StateCanceled
		t.sub.Status = api.StatusCanceled
		t.sub.Canceled = true
		t.sub.Result = nil
	} else {
		result := Aggregate(t.outcomes, t.expected)
		t.state = StateCompleted
		t.sub.Status = api.StatusCompleted
		t.sub.Result = &result
		t.partial = &result
	}

	t.finishLocked()
	return true
}

// Cancel asks the judge to cancel. Local state is deliberately not changed
// here: reporting "canceled" before the judge confirms would show a false
// terminal state if the request itself fails. The terminal event on the
// stream is the only thing that flips the machine.
func (t *Tracker) Cancel(ctx context.Context) error {
	t.mu.Lock()
	if t.state.Terminal() {
		t.mu.Unlock()
		return appErr.New(appErr.SubmissionNotCancelable).WithDetail("state", string(t.state))
	}
	id := t.sub.ID
	t.mu.Unlock()

	if t.canceler == nil {
		return appErr.New(appErr.InternalError).WithMessage("no cancel collaborator configured")
	}
	return t.canceler.CancelSubmission(ctx, id)
}

// Snapshot returns a copy of the current read-model.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Submission: t.sub,
		State:      t.state,
		LastSeq:    t.lastSeq,
		Failure:    t.failure,
	}
	if t.partial != nil {
		partial := *t.partial
		partial.TestDetails = append([]api.TestOutcome(nil), t.partial.TestDetails...)
		snap.Partial = &partial
		snap.Verdict = OverallVerdict(partial, t.override)
	}
	if snap.Submission.Result != nil {
		result := *snap.Submission.Result
		result.TestDetails = append([]api.TestOutcome(nil), result.TestDetails...)
		snap.Submission.Result = &result
	}
	return snap
}

// OnTerminal registers a hook fired once when the machine reaches any
// terminal state. Used to invalidate history pages for the problem.
func (t *Tracker) OnTerminal(hook func(problemID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// Done is closed when the machine reaches a terminal state.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// anomaly records a discarded delta for diagnostics. Observable, never a
// failure. Caller holds the lock.
func (t *Tracker) anomaly(msg string, ev stream.LifecycleEvent) {
	logger.Warn(context.Background(), msg,
		zap.String("submission_id", t.sub.ID),
		zap.Uint64("seq", ev.Seq),
		zap.Uint64("last_seq", t.lastSeq),
		zap.String("kind", string(ev.Kind)),
		zap.String("status", string(ev.Status)))
}

func (t *Tracker) onWatchdog() {
	t.toErrored(appErr.New(appErr.WatchdogExpired).WithDetail("submission_id", t.sub.ID))
}

func (t *Tracker) toErrored(cause error) {
	t.mu.Lock()
	if t.state.Terminal() {
		t.mu.Unlock()
		return
	}
	t.state = StateErrored
	t.failure = cause
	t.finishLocked()
	t.mu.Unlock()

	logger.Warn(context.Background(), "submission tracking failed locally",
		zap.String("submission_id", t.sub.ID),
		zap.Error(cause))
}

// finishLocked stops the watchdog, closes the event source and fires the
// terminal hooks exactly once. Caller holds the lock.
func (t *Tracker) finishLocked() {
	t.finish.Do(func() {
		if t.timer != nil {
			t.timer.Stop()
		}
		src := t.source
		problemID := t.sub.ProblemID
		hooks := append(([]func(string))(nil), t.hooks...)
		close(t.done)

		// The source drains on its own goroutine; close it without the lock.
		go func() {
			if src != nil {
				_ = src.Close()
			}
			for _, hook := range hooks {
				hook(problemID)
			}
		}()
	})
}
