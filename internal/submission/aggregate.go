package submission

import (
	"judgeview/internal/api"
)

// Aggregate folds per-test outcomes into a summary result. Duplicate test
// case ids are deduplicated last-received-wins while the first-arrival order
// of distinct ids is preserved. expectedTotal comes from the terminal event;
// when it is lower than the number of distinct outcomes observed, the
// observed count wins so passed <= total always holds. The input is never
// mutated.
func Aggregate(outcomes []api.TestOutcome, expectedTotal int) api.SubmissionResult {
	details := make([]api.TestOutcome, 0, len(outcomes))
	index := make(map[string]int, len(outcomes))

	for _, outcome := range outcomes {
		if pos, seen := index[outcome.TestCaseID]; seen {
			details[pos] = outcome
			continue
		}
		index[outcome.TestCaseID] = len(details)
		details = append(details, outcome)
	}

	result := api.SubmissionResult{
		TotalTests:  expectedTotal,
		TestDetails: details,
	}
	if result.TotalTests < len(details) {
		result.TotalTests = len(details)
	}

	for _, detail := range details {
		if detail.Verdict == api.VerdictPass {
			result.PassedTests++
		}
		if detail.RuntimeMs > result.MaxRuntimeMs {
			result.MaxRuntimeMs = detail.RuntimeMs
		}
		if detail.MemoryBytes > result.MaxMemoryBytes {
			result.MaxMemoryBytes = detail.MemoryBytes
		}
	}
	return result
}

// OverallVerdict derives the submission-level verdict: the worst-ranked
// verdict among the outcomes, unless the terminal signal carries an explicit
// platform-level override (a compile error short-circuits with zero
// outcomes).
func OverallVerdict(result api.SubmissionResult, override api.Verdict) api.Verdict {
	if override != "" {
		return override
	}
	verdict := api.VerdictPass
	for _, detail := range result.TestDetails {
		if detail.Verdict.Rank() > verdict.Rank() {
			verdict = detail.Verdict
		}
	}
	return verdict
}
