package stream

import (
	"encoding/json"

	"judgeview/internal/api"

	appErr "judgeview/pkg/errors"
)

// EventKind discriminates the lifecycle deltas on the wire.
type EventKind string

const (
	// EventStatus is a status transition (queued -> running).
	EventStatus EventKind = "status"
	// EventTestOutcome is one incremental test case result.
	EventTestOutcome EventKind = "testOutcome"
	// EventTerminal finalizes the submission; nothing follows it.
	EventTerminal EventKind = "terminal"
)

// LifecycleEvent is a discrete delta received from the live feed. Seq is a
// monotonically non-decreasing sequence indicator used by the subscriber to
// reject stale duplicates; when the platform omits it the consumer assigns
// arrival order.
type LifecycleEvent struct {
	Seq     uint64           `json:"seq"`
	Kind    EventKind        `json:"kind"`
	Status  api.Status       `json:"status,omitempty"`
	Outcome *api.TestOutcome `json:"outcome,omitempty"`

	// Terminal-only fields.
	TotalTests int         `json:"totalTests,omitempty"`
	Verdict    api.Verdict `json:"verdict,omitempty"`
}

// decodeEvent parses one SSE data payload into a typed event.
func decodeEvent(data []byte) (LifecycleEvent, error) {
	var ev LifecycleEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, appErr.Wrapf(err, appErr.DecodeFailed, "decode lifecycle event failed")
	}
	if ev.Kind == "" {
		// Legacy platform events carry only {"status": ...}; classify them.
		if ev.Status.Terminal() {
			ev.Kind = EventTerminal
		} else {
			ev.Kind = EventStatus
		}
	}
	if ev.Kind == EventTestOutcome && ev.Outcome == nil {
		return ev, appErr.New(appErr.DecodeFailed).WithMessage("testOutcome event without outcome")
	}
	return ev, nil
}
