package command

import (
	"context"
	"fmt"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/stream"
	"judgeview/internal/submission"
)

// watchRefresh is how often the progress line is redrawn while streaming.
const watchRefresh = 500 * time.Millisecond

// runSubmitWatch follows a submission live: it attaches a tracker to the
// event stream and renders progress until the submission reaches a terminal
// state or the watch deadline expires.
func runSubmitWatch(ctx context.Context, env *Env, params Params) error {
	id := params.Get("id")
	sub, err := env.Client.GetSubmission(ctx, id)
	if err != nil {
		return err
	}

	tracker := submission.NewTracker(sub, env.Client, submission.WithWatchdog(env.WatchTimeout))
	tracker.OnTerminal(func(problemID string) {
		env.Pager.Invalidate(problemID)
	})

	if sub.Status.Terminal() {
		env.Printf("submission %s already finished", id)
		renderFinal(env, tracker.Snapshot())
		return nil
	}

	consumer := stream.NewConsumer(id, env.Client, env.Client, stream.Config{})
	if err := tracker.Attach(ctx, consumer); err != nil {
		return err
	}

	ticker := time.NewTicker(watchRefresh)
	defer ticker.Stop()

	lastLine := ""
	for {
		select {
		case <-ctx.Done():
			_ = consumer.Close()
			<-tracker.Done()
			return ctx.Err()
		case <-tracker.Done():
			renderFinalWatch(env, tracker)
			return nil
		case <-ticker.C:
			if line := progressLine(tracker.Snapshot()); line != lastLine {
				env.Printf("%s", line)
				lastLine = line
			}
		}
	}
}

func progressLine(snap submission.Snapshot) string {
	ran, passed, total := 0, 0, 0
	if snap.Partial != nil {
		passed = snap.Partial.PassedTests
		total = snap.Partial.TotalTests
		ran = len(snap.Partial.TestDetails)
	}
	return fmt.Sprintf("[%s] tests %d/%d run, %d passed", snap.State, ran, total, passed)
}

func renderFinalWatch(env *Env, tracker *submission.Tracker) {
	snap := tracker.Snapshot()
	if snap.Failure != nil {
		env.Printf("watch ended without a verdict: %v", snap.Failure)
		return
	}
	renderFinal(env, snap)
}

func renderFinal(env *Env, snap submission.Snapshot) {
	sub := snap.Submission
	switch snap.State {
	case submission.StateCanceled:
		env.Printf("submission %s canceled", sub.ID)
		return
	case submission.StateCompleted:
		env.Printf("submission %s completed: verdict=%s", sub.ID, snap.Verdict)
	default:
		env.Printf("submission %s is %s", sub.ID, snap.State)
	}
	if sub.Result == nil {
		return
	}
	env.Printf("tests: %d/%d passed, max runtime %dms, max memory %d bytes",
		sub.Result.PassedTests, sub.Result.TotalTests,
		sub.Result.MaxRuntimeMs, sub.Result.MaxMemoryBytes)
	for _, outcome := range sub.Result.TestDetails {
		env.Printf("  %-12s %-8s %4dms  %d bytes%s",
			outcome.TestCaseID, outcome.Verdict, outcome.RuntimeMs, outcome.MemoryBytes,
			errorSuffix(outcome))
	}
}

func errorSuffix(outcome api.TestOutcome) string {
	if outcome.ErrorMessage == "" {
		return ""
	}
	return "  (" + outcome.ErrorMessage + ")"
}
