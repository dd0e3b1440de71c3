package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/cli/state"
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "user",
			Action:       "register",
			Summary:      "create an account",
			RequiresAuth: false,
			Fields: []Field{
				{Name: "username", Prompt: "username", Type: FieldString, Required: true},
				{Name: "email", Prompt: "email", Type: FieldString, Required: true},
				{Name: "password", Prompt: "password", Type: FieldString, Required: true},
				{Name: "first_name", Prompt: "first_name", Type: FieldString, Required: false},
				{Name: "last_name", Prompt: "last_name", Type: FieldString, Required: false},
			},
			Run: runUserRegister,
		},
		{
			Service:      "user",
			Action:       "login",
			Summary:      "obtain an access token",
			RequiresAuth: false,
			Fields: []Field{
				{Name: "username", Prompt: "username", Type: FieldString, Required: true},
				{Name: "password", Prompt: "password", Type: FieldString, Required: true},
			},
			Run: runUserLogin,
		},
		{
			Service:      "user",
			Action:       "logout",
			Summary:      "discard the stored token",
			RequiresAuth: false,
			Run:          runUserLogout,
		},
		{
			Service: "problem",
			Action:  "list",
			Summary: "browse the problem catalog",
			Fields: []Field{
				{Name: "page", Prompt: "page", Type: FieldInt, Required: false},
				{Name: "page_size", Prompt: "page_size", Type: FieldInt, Required: false},
				{Name: "difficulty", Prompt: "difficulty", Type: FieldString, Required: false},
				{Name: "tags", Prompt: "tags (comma-separated)", Type: FieldString, Required: false},
				{Name: "text", Prompt: "text", Type: FieldString, Required: false},
			},
			Run: runProblemList,
		},
		{
			Service: "problem",
			Action:  "get",
			Summary: "fetch one problem",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldString, Required: true},
			},
			Run: runProblemGet,
		},
		{
			Service: "problem",
			Action:  "testcases",
			Summary: "list a problem's test cases",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldString, Required: true},
				{Name: "include_hidden", Prompt: "include_hidden", Type: FieldBool, Required: false},
			},
			Run: runProblemTestCases,
		},
		{
			Service:      "submit",
			Action:       "create",
			Summary:      "submit source code for judging",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "problem_id", Prompt: "problem_id", Type: FieldString, Required: true},
				{Name: "language", Prompt: "language", Type: FieldString, Required: true},
				{Name: "source_code", Prompt: "source_code", Type: FieldString, Required: true},
				{Name: "source_file", Prompt: "source_file", Type: FieldFile, Required: false},
				{Name: "stdin", Prompt: "stdin", Type: FieldString, Required: false},
			},
			Run: runSubmitCreate,
		},
		{
			Service:      "submit",
			Action:       "get",
			Summary:      "fetch one submission",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
			},
			Run: runSubmitGet,
		},
		{
			Service:      "submit",
			Action:       "list",
			Summary:      "page through submission history for a problem",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "problem_id", Prompt: "problem_id", Type: FieldString, Required: true},
				{Name: "page", Prompt: "page", Type: FieldInt, Required: false},
				{Name: "limit", Prompt: "limit", Type: FieldInt, Required: false},
			},
			Run: runSubmitList,
		},
		{
			Service:      "submit",
			Action:       "cancel",
			Summary:      "request cancellation of a submission",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
			},
			Run: runSubmitCancel,
		},
		{
			Service:      "submit",
			Action:       "watch",
			Summary:      "follow a submission live until it finishes",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Aliases: []string{"submission_id"}, Prompt: "submission_id", Type: FieldString, Required: true},
			},
			Run: runSubmitWatch,
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		key := fmt.Sprintf("%s %s", cmd.Service, cmd.Action)
		result[key] = cmd
	}
	return result
}

// PrintJSON renders a response value, indented when pretty output is on.
func (e *Env) PrintJSON(v interface{}) {
	var (
		data []byte
		err  error
	)
	if e.PrettyJSON {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		e.Printf("render response failed: %v", err)
		return
	}
	e.Printf("%s", data)
}

func runUserRegister(ctx context.Context, env *Env, params Params) error {
	user, err := env.Client.Register(ctx, api.UserCreate{
		Username:  params.Get("username"),
		Email:     params.Get("email"),
		Password:  params.Get("password"),
		FirstName: params.Get("first_name"),
		LastName:  params.Get("last_name"),
	})
	if err != nil {
		return err
	}
	env.PrintJSON(user)
	return nil
}

func runUserLogin(ctx context.Context, env *Env, params Params) error {
	token, err := env.Client.Login(ctx, params.Get("username"), params.Get("password"))
	if err != nil {
		return err
	}
	env.TokenState.AccessToken = token.AccessToken
	env.TokenState.Username = params.Get("username")
	env.TokenState.AccessExpiresAt = state.ExpiryOf(token.AccessToken)
	if err := state.Save(env.StatePath, *env.TokenState); err != nil {
		return err
	}
	env.Printf("logged in as %s", env.TokenState.Username)
	return nil
}

func runUserLogout(ctx context.Context, env *Env, params Params) error {
	*env.TokenState = state.TokenState{}
	if err := state.Clear(env.StatePath); err != nil {
		return err
	}
	env.Printf("logged out")
	return nil
}

func runProblemList(ctx context.Context, env *Env, params Params) error {
	filter := api.ProblemFilter{
		Difficulty: params.Get("difficulty"),
		Text:       params.Get("text"),
	}
	if params.Get("tags") != "" {
		filter.Tags = ParseStringList(params.Get("tags"))
	}
	var err error
	if params.Get("page") != "" {
		if filter.Page, err = ParseInt(params.Get("page")); err != nil {
			return fmt.Errorf("invalid page: %w", err)
		}
	}
	if params.Get("page_size") != "" {
		if filter.PageSize, err = ParseInt(params.Get("page_size")); err != nil {
			return fmt.Errorf("invalid page_size: %w", err)
		}
	}
	list, err := env.Client.ListProblems(ctx, filter)
	if err != nil {
		return err
	}
	env.PrintJSON(list)
	return nil
}

func runProblemGet(ctx context.Context, env *Env, params Params) error {
	detail, err := env.Client.GetProblem(ctx, params.Get("id"))
	if err != nil {
		return err
	}
	env.PrintJSON(detail)
	return nil
}

func runProblemTestCases(ctx context.Context, env *Env, params Params) error {
	cases, err := env.Client.ListTestCases(ctx, params.Get("id"), ParseBool(params.Get("include_hidden")))
	if err != nil {
		return err
	}
	env.PrintJSON(cases)
	return nil
}

func runSubmitCreate(ctx context.Context, env *Env, params Params) error {
	sourceCode := params.Get("source_code")
	if (sourceCode == "" || sourceCode == "_file_") && params.Get("source_file") != "" {
		var err error
		sourceCode, err = ReadFile(params.Get("source_file"))
		if err != nil {
			return err
		}
	}
	sub, err := env.Client.CreateSubmission(ctx, api.SubmissionCreate{
		ProblemID:  params.Get("problem_id"),
		Language:   params.Get("language"),
		SourceCode: sourceCode,
		Stdin:      params.Get("stdin"),
	})
	if err != nil {
		return err
	}
	env.Pager.Invalidate(sub.ProblemID)
	env.Printf("submission %s accepted (status=%s), watch it with: submit watch id=%s", sub.ID, sub.Status, sub.ID)
	return nil
}

func runSubmitGet(ctx context.Context, env *Env, params Params) error {
	sub, err := env.Client.GetSubmission(ctx, params.Get("id"))
	if err != nil {
		return err
	}
	env.PrintJSON(sub)
	return nil
}

func runSubmitList(ctx context.Context, env *Env, params Params) error {
	page, limit := 1, 5
	var err error
	if params.Get("page") != "" {
		if page, err = ParseInt(params.Get("page")); err != nil {
			return fmt.Errorf("invalid page: %w", err)
		}
	}
	if params.Get("limit") != "" {
		if limit, err = ParseInt(params.Get("limit")); err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
	}
	result, err := env.Pager.Page(ctx, params.Get("problem_id"), page, limit)
	if err != nil {
		return err
	}
	env.Printf("page %d/%d submissions (total %d)", result.Page, pageCount(result.Total, result.Limit), result.Total)
	for _, sub := range result.Submissions {
		env.Printf("  %s  %-9s  %s  %s", sub.ID, sub.Status, sub.Language, sub.SubmittedAt.Format(time.RFC3339))
	}
	return nil
}

func runSubmitCancel(ctx context.Context, env *Env, params Params) error {
	if err := env.Client.CancelSubmission(ctx, params.Get("id")); err != nil {
		return err
	}
	env.Printf("cancel requested for %s", params.Get("id"))
	return nil
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
