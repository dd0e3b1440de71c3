package api_test

import (
	"context"
	"testing"

	"judgeview/internal/api"
	"judgeview/internal/testutil"

	appErr "judgeview/pkg/errors"
)

func TestListProblems(t *testing.T) {
	_, client := newTestClient(t, "")
	list, err := client.ListProblems(context.Background(), api.ProblemFilter{Page: 1, PageSize: 10})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, list.Total, 1)
	testutil.AssertEqual(t, len(list.Items), 1)
	testutil.AssertEqual(t, list.Items[0].Slug, "two-sum")
}

func TestListProblemsRejectsNegativePage(t *testing.T) {
	_, client := newTestClient(t, "")
	_, err := client.ListProblems(context.Background(), api.ProblemFilter{Page: -1})
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
}

func TestGetProblem(t *testing.T) {
	_, client := newTestClient(t, "")
	detail, err := client.GetProblem(context.Background(), "p1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, detail.Title, "Two Sum")
	testutil.AssertEqual(t, detail.Constraints.TimeLimitMs, 2000)

	_, err = client.GetProblem(context.Background(), "missing")
	testutil.AssertErrCode(t, err, appErr.ProblemNotFound)
}

func TestListTestCasesHiddenFilter(t *testing.T) {
	_, client := newTestClient(t, "")

	visible, err := client.ListTestCases(context.Background(), "p1", false)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(visible), 1)
	testutil.AssertFalse(t, visible[0].IsHidden, "public listing should not include hidden cases")

	all, err := client.ListTestCases(context.Background(), "p1", true)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(all), 2)

	public, err := client.ListPublicTestCases(context.Background(), "p1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(public), 1)
}

func TestLogin(t *testing.T) {
	_, client := newTestClient(t, "")
	token, err := client.Login(context.Background(), "demo", "secret")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, token.AccessToken, "test-token")
	testutil.AssertEqual(t, token.TokenType, "bearer")

	_, err = client.Login(context.Background(), "demo", "wrong")
	testutil.AssertErrCode(t, err, appErr.InvalidCredentials)

	_, err = client.Login(context.Background(), "", "secret")
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
}

func TestRegister(t *testing.T) {
	_, client := newTestClient(t, "")
	user, err := client.Register(context.Background(), api.UserCreate{
		Username: "newbie",
		Email:    "newbie@example.com",
		Password: "hunter2",
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, user.Username, "newbie")

	_, err = client.Register(context.Background(), api.UserCreate{Username: "newbie"})
	testutil.AssertErrCode(t, err, appErr.ValidationFailed)
}
