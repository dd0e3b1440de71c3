package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appErr "judgeview/pkg/errors"
)

// ProblemFilter narrows the problem catalog listing.
type ProblemFilter struct {
	Page       int
	PageSize   int
	Difficulty string
	Tags       []string
	Text       string
}

// ListProblems fetches one catalog page with optional filters.
func (c *Client) ListProblems(ctx context.Context, filter ProblemFilter) (*ProblemList, error) {
	if filter.Page < 0 || filter.PageSize < 0 {
		return nil, appErr.ValidationError("page", "must not be negative")
	}

	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	if filter.Difficulty != "" {
		query.Set("difficulty", filter.Difficulty)
	}
	for _, tag := range filter.Tags {
		query.Add("tags", tag)
	}
	if filter.Text != "" {
		query.Set("text", filter.Text)
	}

	var result ProblemList
	if err := c.doJSON(ctx, http.MethodGet, "/problems/", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProblem fetches the full detail view of a single problem.
func (c *Client) GetProblem(ctx context.Context, problemID string) (*ProblemDetail, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}

	var detail ProblemDetail
	err := c.doJSON(ctx, http.MethodGet, "/problems/"+url.PathEscape(problemID), nil, nil, &detail)
	if err != nil {
		if appErr.Is(err, appErr.NotFound) {
			return nil, appErr.Newf(appErr.ProblemNotFound, "problem %s not found", problemID)
		}
		return nil, err
	}
	return &detail, nil
}

type testCasesResponse struct {
	TestCases []TestCase `json:"testCases"`
}

// ListTestCases fetches stored test cases for a problem.
func (c *Client) ListTestCases(ctx context.Context, problemID string, includeHidden bool) ([]TestCase, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}

	query := url.Values{}
	if includeHidden {
		query.Set("includeHidden", "true")
	}

	var result testCasesResponse
	err := c.doJSON(ctx, http.MethodGet, "/problems/"+url.PathEscape(problemID)+"/test-cases", query, nil, &result)
	if err != nil {
		return nil, err
	}
	return result.TestCases, nil
}

// ListPublicTestCases fetches only the publicly visible test cases.
func (c *Client) ListPublicTestCases(ctx context.Context, problemID string) ([]TestCase, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, appErr.ValidationError("problemId", "required")
	}

	var result testCasesResponse
	err := c.doJSON(ctx, http.MethodGet, "/problems/"+url.PathEscape(problemID)+"/test-cases/public", nil, nil, &result)
	if err != nil {
		return nil, err
	}
	return result.TestCases, nil
}
