package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appErr "judgeview/pkg/errors"
)

// CreateSubmission enqueues a new submission and returns the pending record.
// The call is not idempotent-safe: a re-POST after an ambiguous failure could
// double-enqueue, so this method never retries and callers must not either.
func (c *Client) CreateSubmission(ctx context.Context, payload SubmissionCreate) (*Submission, error) {
	if strings.TrimSpace(payload.ProblemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}
	if strings.TrimSpace(payload.Language) == "" {
		return nil, appErr.ValidationError("language", "required")
	}
	if strings.TrimSpace(payload.SourceCode) == "" {
		return nil, appErr.ValidationError("sourceCode", "required")
	}

	var sub Submission
	if err := c.doJSON(ctx, http.MethodPost, "/submissions", nil, payload, &sub); err != nil {
		if appErr.Is(err, appErr.ServerError) || appErr.Is(err, appErr.InternalError) {
			return nil, appErr.Wrap(err, appErr.SubmissionCreateFailed)
		}
		return nil, err
	}
	return &sub, nil
}

// GetSubmission fetches the current snapshot of one submission. Safe to retry.
func (c *Client) GetSubmission(ctx context.Context, submissionID string) (*Submission, error) {
	if strings.TrimSpace(submissionID) == "" {
		return nil, appErr.ValidationError("submissionId", "required")
	}

	var sub Submission
	err := c.doJSON(ctx, http.MethodGet, "/submissions/"+url.PathEscape(submissionID), nil, nil, &sub)
	if err != nil {
		if appErr.Is(err, appErr.NotFound) {
			return nil, appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", submissionID)
		}
		return nil, err
	}
	return &sub, nil
}

// ListSubmissionsForProblem fetches one history page for a problem.
// Pagination bounds are checked before any network round trip.
func (c *Client) ListSubmissionsForProblem(ctx context.Context, problemID string, page, limit int) (*SubmissionPage, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}
	if page < 1 {
		return nil, appErr.ValidationError("page", "must be >= 1")
	}
	if limit < 1 {
		return nil, appErr.ValidationError("limit", "must be >= 1")
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result SubmissionPage
	err := c.doJSON(ctx, http.MethodGet, "/submissions/problems/"+url.PathEscape(problemID), query, nil, &result)
	if err != nil {
		if appErr.Is(err, appErr.NotFound) {
			return nil, appErr.Newf(appErr.ProblemNotFound, "problem %s not found", problemID)
		}
		return nil, err
	}
	return &result, nil
}

// CancelSubmission asks the judge to cancel a queued or running submission.
// Cancellation is confirmed only by the terminal event on the live stream;
// callers must not flip local state on a 2xx here.
func (c *Client) CancelSubmission(ctx context.Context, submissionID string) error {
	if strings.TrimSpace(submissionID) == "" {
		return appErr.ValidationError("submissionId", "required")
	}

	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/submissions/%s/cancel", url.PathEscape(submissionID)), nil, nil, nil)
	if err != nil {
		switch {
		case appErr.Is(err, appErr.NotFound):
			return appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", submissionID)
		case appErr.Is(err, appErr.ValidationFailed):
			return appErr.Wrap(err, appErr.SubmissionNotCancelable)
		}
		return err
	}
	return nil
}

// SubmissionEvents opens the live event stream for one submission and hands
// the raw stream to the consumer. lastEventID resumes after the given
// sequence indicator when the platform supports it.
func (c *Client) SubmissionEvents(ctx context.Context, submissionID, lastEventID string) (io.ReadCloser, error) {
	if strings.TrimSpace(submissionID) == "" {
		return nil, appErr.ValidationError("submissionId", "required")
	}
	return c.openStream(ctx, fmt.Sprintf("/submissions/%s/events", url.PathEscape(submissionID)), lastEventID)
}
