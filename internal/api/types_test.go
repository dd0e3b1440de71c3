package api

import (
	"encoding/json"
	"testing"
)

func TestParseStatusNormalizesLegacySpellings(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusQueued},
		{"queued", StatusQueued},
		{"running", StatusRunning},
		{"success", StatusCompleted},
		{"failed", StatusCompleted},
		{"completed", StatusCompleted},
		{"canceled", StatusCanceled},
		{"cancelled", StatusCanceled},
		{" Running ", StatusRunning},
	}
	for _, tc := range cases {
		if got := ParseStatus(tc.raw); got != tc.want {
			t.Errorf("ParseStatus(%q): got %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusQueued, StatusRunning} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCanceled} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
}

func TestSubmissionunmarshalNormalizesWire(t *testing.T) {
	raw := []byte(`{
		"id": "sub-1",
		"problemId": "p1",
		"language": "python",
		"status": "success",
		"result": {
			"totalTests": 2,
			"passedTests": 1,
			"max_runtime_ms": 120,
			"max_memory_bytes": 2048,
			"testDetails": [
				{"testCaseId": "t1", "verdict": "OK", "runtime_ms": 90, "memory_bytes": 1024},
				{"testCaseId": "t2", "verdict": "WrongAnswer", "runtime_ms": 120, "memory_bytes": 2048}
			]
		}
	}`)
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if sub.Status != StatusCompleted {
		t.Errorf("status: got %q, want %q", sub.Status, StatusCompleted)
	}
	if sub.Result == nil || len(sub.Result.TestDetails) != 2 {
		t.Fatalf("result not decoded: %+v", sub.Result)
	}
	if sub.Result.TestDetails[0].Verdict != VerdictPass {
		t.Errorf("verdict t1: got %q, want %q", sub.Result.TestDetails[0].Verdict, VerdictPass)
	}
	if sub.Result.TestDetails[1].Verdict != VerdictFail {
		t.Errorf("verdict t2: got %q, want %q", sub.Result.TestDetails[1].Verdict, VerdictFail)
	}
}

func TestVerdictRankOrdering(t *testing.T) {
	ordered := []Verdict{VerdictPass, VerdictFail, VerdictTimeout, VerdictError}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("rank(%q)=%d should be below rank(%q)=%d",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
	// Unknown sandbox spellings classify as errors, the worst bucket.
	if ParseVerdict("RuntimeError").Rank() != VerdictError.Rank() {
		t.Error("unknown verdicts should rank as error")
	}
}
