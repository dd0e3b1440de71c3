package api

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle status of a submission as tracked by the client.
// The platform historically emitted "pending"/"success"/"failed" next to the
// newer names, so parsing normalizes every known spelling.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus normalizes a wire status tag.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued":
		return StatusQueued
	case "running":
		return StatusRunning
	case "success", "failed", "completed", "finished":
		return StatusCompleted
	case "canceled", "cancelled":
		return StatusCanceled
	default:
		return Status(raw)
	}
}

// Terminal reports whether no further status changes are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// UnmarshalJSON normalizes legacy spellings on ingestion.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// Verdict classifies the outcome of a single test case.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictTimeout Verdict = "timeout"
	VerdictError   Verdict = "error"
)

// ParseVerdict normalizes platform verdict tags, including the judge's
// sandbox spellings ("OK", "TimeLimitExceeded", ...).
func ParseVerdict(raw string) Verdict {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pass", "passed", "ok", "ac", "accepted":
		return VerdictPass
	case "fail", "failed", "wa", "wronganswer", "wrong_answer":
		return VerdictFail
	case "timeout", "tle", "timelimitexceeded", "time_limit_exceeded":
		return VerdictTimeout
	case "":
		return ""
	default:
		return VerdictError
	}
}

// Rank orders verdicts from best to worst: pass < fail < timeout < error.
func (v Verdict) Rank() int {
	switch v {
	case VerdictPass:
		return 0
	case VerdictFail:
		return 1
	case VerdictTimeout:
		return 2
	default:
		return 3
	}
}

// UnmarshalJSON normalizes legacy spellings on ingestion.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ParseVerdict(raw)
	return nil
}

// TestOutcome is one test case's result. Immutable once received; a given
// test case id appears at most once in an aggregated result.
type TestOutcome struct {
	TestCaseID   string  `json:"testCaseId"`
	Verdict      Verdict `json:"verdict"`
	Stdout       string  `json:"stdout"`
	RuntimeMs    int64   `json:"runtime_ms"`
	MemoryBytes  int64   `json:"memory_bytes"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// SubmissionResult is the aggregated outcome of a completed submission.
// Max runtime/memory are maxima over all outcomes, not sums.
type SubmissionResult struct {
	TotalTests     int           `json:"totalTests"`
	PassedTests    int           `json:"passedTests"`
	MaxRuntimeMs   int64         `json:"max_runtime_ms"`
	MaxMemoryBytes int64         `json:"max_memory_bytes"`
	TestDetails    []TestOutcome `json:"testDetails"`
}

// Submission is one user's code attempt against one problem.
// completedAt is set iff status is terminal; result is set iff completed.
type Submission struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	ProblemID   string            `json:"problemId"`
	Language    string            `json:"language"`
	SourceCode  string            `json:"sourceCode"`
	Stdin       string            `json:"stdin"`
	Status      Status            `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
	CompletedAt *time.Time        `json:"completedAt"`
	Result      *SubmissionResult `json:"result"`
	Canceled    bool              `json:"canceled"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SubmissionCreate is the enqueue payload.
type SubmissionCreate struct {
	ProblemID  string `json:"problemId"`
	Language   string `json:"language"`
	SourceCode string `json:"sourceCode"`
	Stdin      string `json:"stdin"`
}

// SubmissionPage is one page of submission history for a problem.
type SubmissionPage struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// ProblemSummary is the lightweight listing view of a problem.
type ProblemSummary struct {
	PID            int      `json:"pId"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Difficulty     string   `json:"difficulty"`
	Tags           []string `json:"tags"`
	AcceptanceRate *float64 `json:"acceptanceRate,omitempty"`
}

// ProblemList is one page of the problem catalog.
type ProblemList struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []ProblemSummary `json:"items"`
}

// ProblemDescription carries the rendered statement.
type ProblemDescription struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// ProblemConstraints carries execution limits and I/O formats.
type ProblemConstraints struct {
	TimeLimitMs   int      `json:"timeLimit_ms"`
	MemoryLimitMB int      `json:"memoryLimit_mb"`
	InputFormat   string   `json:"inputFormat"`
	OutputFormat  string   `json:"outputFormat"`
	PConstraints  []string `json:"pConstraints"`
}

// SampleTestCase is a visible example shown with the statement.
type SampleTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Explanation    string `json:"explanation"`
}

// ProblemStatistics counts historical submissions.
type ProblemStatistics struct {
	Submissions int `json:"submissions"`
	Accepted    int `json:"accepted"`
}

// ProblemDetail is the full view of a single problem.
type ProblemDetail struct {
	ProblemSummary
	Description     ProblemDescription `json:"description"`
	Constraints     ProblemConstraints `json:"constraints"`
	SampleTestCases []SampleTestCase   `json:"sampleTestCases"`
	Statistics      ProblemStatistics  `json:"statistics"`
	Assets          []string           `json:"assets"`
	Visibility      string             `json:"visibility"`
}

// TestCase is a stored test case record.
type TestCase struct {
	CaseID         string  `json:"caseId"`
	IsRemote       bool    `json:"isRemote"`
	IsHidden       bool    `json:"isHidden"`
	InputPath      *string `json:"inputPath,omitempty"`
	OutputPath     *string `json:"outputPath,omitempty"`
	Input          *string `json:"input,omitempty"`
	ExpectedOutput *string `json:"expectedOutput,omitempty"`
}

// Token is the bearer credential handed out by the auth endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the public account record.
type User struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserCreate is the registration payload.
type UserCreate struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// UserLogin is the login payload.
type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
