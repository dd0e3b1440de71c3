package submission

import (
	"testing"

	"judgeview/internal/api"
)

func TestAggregatePartialRun(t *testing.T) {
	// Three tests expected, only two outcomes arrived, one failing.
	outcomes := []api.TestOutcome{
		{TestCaseID: "t1", Verdict: api.VerdictPass, RuntimeMs: 40, MemoryBytes: 1024},
		{TestCaseID: "t2", Verdict: api.VerdictFail, RuntimeMs: 90, MemoryBytes: 4096},
	}
	result := Aggregate(outcomes, 3)

	if result.TotalTests != 3 {
		t.Errorf("totalTests: got %d, want 3", result.TotalTests)
	}
	if result.PassedTests != 1 {
		t.Errorf("passedTests: got %d, want 1", result.PassedTests)
	}
	if result.MaxRuntimeMs != 90 {
		t.Errorf("maxRuntimeMs: got %d, want 90", result.MaxRuntimeMs)
	}
	if result.MaxMemoryBytes != 4096 {
		t.Errorf("maxMemoryBytes: got %d, want 4096", result.MaxMemoryBytes)
	}
	if len(result.TestDetails) != 2 {
		t.Errorf("testDetails: got %d entries, want 2", len(result.TestDetails))
	}
}

func TestAggregateDuplicateLastWriteWins(t *testing.T) {
	outcomes := []api.TestOutcome{
		{TestCaseID: "t1", Verdict: api.VerdictFail, RuntimeMs: 50},
		{TestCaseID: "t2", Verdict: api.VerdictPass, RuntimeMs: 30},
		{TestCaseID: "t1", Verdict: api.VerdictPass, RuntimeMs: 45},
	}
	result := Aggregate(outcomes, 2)

	if len(result.TestDetails) != 2 {
		t.Fatalf("testDetails: got %d entries, want 2", len(result.TestDetails))
	}
	// First-arrival order is preserved, the retried payload replaces in place.
	if result.TestDetails[0].TestCaseID != "t1" || result.TestDetails[0].Verdict != api.VerdictPass {
		t.Errorf("t1 slot: got %+v", result.TestDetails[0])
	}
	if result.PassedTests != 2 {
		t.Errorf("passedTests: got %d, want 2", result.PassedTests)
	}
}

func TestAggregateObservedCountBeatsLowExpected(t *testing.T) {
	outcomes := []api.TestOutcome{
		{TestCaseID: "t1", Verdict: api.VerdictPass},
		{TestCaseID: "t2", Verdict: api.VerdictPass},
		{TestCaseID: "t3", Verdict: api.VerdictPass},
	}
	result := Aggregate(outcomes, 1)
	if result.TotalTests != 3 {
		t.Errorf("totalTests: got %d, want 3 (observed count wins)", result.TotalTests)
	}
	if result.PassedTests > result.TotalTests {
		t.Errorf("passed %d must never exceed total %d", result.PassedTests, result.TotalTests)
	}
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(nil, 0)
	if result.TotalTests != 0 || result.PassedTests != 0 || len(result.TestDetails) != 0 {
		t.Errorf("empty aggregate: got %+v", result)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	outcomes := []api.TestOutcome{
		{TestCaseID: "t1", Verdict: api.VerdictFail},
		{TestCaseID: "t1", Verdict: api.VerdictPass},
	}
	_ = Aggregate(outcomes, 2)
	if outcomes[0].Verdict != api.VerdictFail {
		t.Error("input slice was mutated")
	}
}

func TestOverallVerdictWorstWins(t *testing.T) {
	result := api.SubmissionResult{TestDetails: []api.TestOutcome{
		{TestCaseID: "t1", Verdict: api.VerdictPass},
		{TestCaseID: "t2", Verdict: api.VerdictTimeout},
		{TestCaseID: "t3", Verdict: api.VerdictFail},
	}}
	if got := OverallVerdict(result, ""); got != api.VerdictTimeout {
		t.Errorf("got %q, want %q", got, api.VerdictTimeout)
	}
}

func TestOverallVerdictOverride(t *testing.T) {
	// A compile error carries a platform-level verdict with zero outcomes.
	result := api.SubmissionResult{}
	if got := OverallVerdict(result, api.VerdictError); got != api.VerdictError {
		t.Errorf("got %q, want %q", got, api.VerdictError)
	}
	if got := OverallVerdict(result, ""); got != api.VerdictPass {
		t.Errorf("no outcomes, no override: got %q, want %q", got, api.VerdictPass)
	}
}
