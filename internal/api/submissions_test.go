package api_test

import (
	"context"
	"testing"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/judgetest"
	"judgeview/internal/testutil"

	appErr "judgeview/pkg/errors"
)

func newTestClient(t *testing.T, token string) (*judgetest.Server, *api.Client) {
	t.Helper()
	server := judgetest.NewServer()
	t.Cleanup(server.Close)
	client := api.New(server.URL(), 5*time.Second, func() string { return token })
	return server, client
}

func TestCreateSubmissionAccepted(t *testing.T) {
	server, client := newTestClient(t, "")
	sub, err := client.CreateSubmission(context.Background(), api.SubmissionCreate{
		ProblemID:  "p1",
		Language:   "python",
		SourceCode: "print(1)",
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sub.ProblemID, "p1")
	testutil.AssertEqual(t, sub.Status, api.StatusQueued)
	testutil.AssertTrue(t, sub.ID != "", "server should assign an id")
	testutil.AssertEqual(t, server.CreateCalls(), 1)
}

func TestCreateSubmissionValidatesBeforeNetwork(t *testing.T) {
	server, client := newTestClient(t, "")
	_, err := client.CreateSubmission(context.Background(), api.SubmissionCreate{
		Language:   "python",
		SourceCode: "print(1)",
	})
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
	testutil.AssertEqual(t, server.CreateCalls(), 0)

	_, err = client.CreateSubmission(context.Background(), api.SubmissionCreate{
		ProblemID: "p1",
		Language:  "python",
	})
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
	testutil.AssertEqual(t, server.CreateCalls(), 0)
}

func TestCreateSubmissionUnsupportedLanguage(t *testing.T) {
	_, client := newTestClient(t, "")
	_, err := client.CreateSubmission(context.Background(), api.SubmissionCreate{
		ProblemID:  "p1",
		Language:   "cobol",
		SourceCode: "DISPLAY 1.",
	})
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
}

func TestGetSubmissionNotFound(t *testing.T) {
	_, client := newTestClient(t, "")
	_, err := client.GetSubmission(context.Background(), "missing")
	testutil.AssertErrCode(t, err, appErr.SubmissionNotFound)
}

func TestGetSubmissionRoundTrip(t *testing.T) {
	server, client := newTestClient(t, "")
	server.SeedSubmission(api.Submission{
		ID:        "sub-9",
		ProblemID: "p1",
		Language:  "go",
		Status:    api.StatusRunning,
	})
	sub, err := client.GetSubmission(context.Background(), "sub-9")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sub.ID, "sub-9")
	testutil.AssertEqual(t, sub.Status, api.StatusRunning)
}

func TestListSubmissionsPagination(t *testing.T) {
	server, client := newTestClient(t, "")
	history := make([]api.Submission, 0, 7)
	for i := 0; i < 7; i++ {
		history = append(history, api.Submission{
			ID:        string(rune('a' + i)),
			ProblemID: "p1",
			Status:    api.StatusCompleted,
		})
	}
	server.SetHistory("p1", history)

	page, err := client.ListSubmissionsForProblem(context.Background(), "p1", 2, 5)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, page.Total, 7)
	testutil.AssertEqual(t, page.Page, 2)
	testutil.AssertEqual(t, len(page.Submissions), 2)
}

func TestListSubmissionsValidatesBeforeNetwork(t *testing.T) {
	server, client := newTestClient(t, "")
	_, err := client.ListSubmissionsForProblem(context.Background(), "p1", 0, 5)
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
	_, err = client.ListSubmissionsForProblem(context.Background(), "p1", 1, 0)
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
	testutil.AssertEqual(t, server.ListCalls(), 0)
}

func TestCancelSubmission(t *testing.T) {
	server, client := newTestClient(t, "")
	server.SeedSubmission(api.Submission{ID: "sub-3", ProblemID: "p1", Status: api.StatusRunning})

	testutil.AssertNoError(t, client.CancelSubmission(context.Background(), "sub-3"))
	canceled := server.Canceled()
	testutil.AssertEqual(t, len(canceled), 1)
	testutil.AssertEqual(t, canceled[0], "sub-3")

	err := client.CancelSubmission(context.Background(), "missing")
	testutil.AssertErrCode(t, err, appErr.SubmissionNotFound)
}

func TestBearerTokenAttached(t *testing.T) {
	server, client := newTestClient(t, "secret-token")
	server.RequireToken("secret-token")
	server.SeedSubmission(api.Submission{ID: "sub-1", ProblemID: "p1", Status: api.StatusQueued})

	_, err := client.GetSubmission(context.Background(), "sub-1")
	testutil.AssertNoError(t, err)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	server, client := newTestClient(t, "")
	server.RequireToken("secret-token")
	server.SeedSubmission(api.Submission{ID: "sub-1", ProblemID: "p1", Status: api.StatusQueued})

	_, err := client.GetSubmission(context.Background(), "sub-1")
	testutil.AssertErrCode(t, err, appErr.Unauthorized)
}
