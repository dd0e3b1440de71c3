package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"judgeview/internal/cli/command"
	"judgeview/internal/cli/state"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	env      *command.Env
	commands map[string]command.Command
	rl       *readline.Instance
}

func New(env *command.Env, commands map[string]command.Command) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "judgeview> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline failed: %w", err)
	}
	return &Session{
		env:      env,
		commands: commands,
		rl:       rl,
	}, nil
}

// Run reads and executes commands until exit or EOF.
func (s *Session) Run(ctx context.Context) {
	defer s.rl.Close()
	for {
		line, err := s.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// io.EOF on ^D.
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if done := s.handleSystemCommand(line); done {
			return
		}
		if s.isSystemCommand(line) {
			continue
		}
		if err := s.handleCommand(ctx, line); err != nil {
			s.env.Printf("error: %v", err)
		}
	}
}

func (s *Session) isSystemCommand(line string) bool {
	switch {
	case line == "help", strings.HasPrefix(line, "set "), strings.HasPrefix(line, "show "):
		return true
	}
	return false
}

// handleSystemCommand runs help/set/show lines and reports whether the
// session should end.
func (s *Session) handleSystemCommand(line string) bool {
	switch line {
	case "exit", "quit":
		s.env.Printf("bye")
		return true
	case "help":
		s.printHelp()
		return false
	}
	if strings.HasPrefix(line, "set ") {
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
	}
	if strings.HasPrefix(line, "show ") {
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		s.env.Printf("usage: set base|timeout|token")
		return
	}
	switch parts[0] {
	case "base":
		if len(parts) < 2 {
			s.env.Printf("usage: set base http://127.0.0.1:8000")
			return
		}
		s.env.Client.SetBaseURL(parts[1])
		s.env.Printf("base set to %s", parts[1])
	case "timeout":
		if len(parts) < 2 {
			s.env.Printf("usage: set timeout 10s")
			return
		}
		dur, err := time.ParseDuration(parts[1])
		if err != nil {
			s.env.Printf("invalid duration: %v", err)
			return
		}
		s.env.Client.SetTimeout(dur)
		s.env.Printf("timeout set to %s", dur)
	case "token":
		if len(parts) < 2 {
			s.env.Printf("usage: set token <access_token>")
			return
		}
		s.env.TokenState.AccessToken = parts[1]
		s.env.TokenState.AccessExpiresAt = state.ExpiryOf(parts[1])
		if err := state.Save(s.env.StatePath, *s.env.TokenState); err != nil {
			s.env.Printf("save token failed: %v", err)
			return
		}
		s.env.Printf("token updated")
	default:
		s.env.Printf("unknown set command")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "token":
		if s.env.TokenState.AccessToken == "" {
			s.env.Printf("token: <empty>")
			return
		}
		token := s.env.TokenState.AccessToken
		if len(token) > 12 {
			token = token[:6] + "..." + token[len(token)-4:]
		}
		s.env.Printf("token: %s", token)
		if !s.env.TokenState.AccessExpiresAt.IsZero() {
			s.env.Printf("expires: %s", s.env.TokenState.AccessExpiresAt.Format(time.RFC3339))
		}
	case "config":
		s.env.Printf("tokenStatePath: %s", s.env.StatePath)
		s.env.Printf("watchTimeout: %s", s.env.WatchTimeout)
	default:
		s.env.Printf("usage: show token|config")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <service> <action> key=value ...")
	}
	key := fmt.Sprintf("%s %s", tokens[0], tokens[1])
	cmd, ok := s.commands[key]
	if !ok {
		return fmt.Errorf("unknown command: %s", key)
	}

	params := command.Params{}
	for _, token := range tokens[2:] {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", token)
		}
		params.Set(parts[0], parts[1])
	}
	params.Canonicalize(cmd.Fields)

	if cmd.RequiresAuth && s.env.TokenState.Expired(time.Now()) {
		return fmt.Errorf("not logged in or token expired, run: user login")
	}

	s.applyParamShortcuts(cmd, params)
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	return cmd.Run(ctx, s.env, params)
}

func (s *Session) applyParamShortcuts(cmd command.Command, params command.Params) {
	if cmd.Service == "submit" && cmd.Action == "create" {
		if params.Get("source_file") != "" && params.Get("source_code") == "" {
			params.Set("source_code", "_file_")
		}
	}
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required {
			continue
		}
		if params.Get(field.Name) != "" {
			continue
		}
		value, err := s.promptValue(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) promptValue(prompt string) (string, error) {
	s.rl.SetPrompt(prompt + ": ")
	defer s.rl.SetPrompt("judgeview> ")
	line, err := s.rl.Readline()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return "", fmt.Errorf("input aborted")
		}
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) printHelp() {
	s.env.Printf("usage: <service> <action> key=value ...")
	s.env.Printf("system: help | exit | set base|timeout|token | show token|config")
	keys := make([]string, 0, len(s.commands))
	for key := range s.commands {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		s.env.Printf("  %-18s %s", key, s.commands[key].Summary)
	}
	s.env.Printf("examples:")
	s.env.Printf("  user login username=demo password=secret")
	s.env.Printf("  submit create problem_id=p1 language=python source_file=./main.py")
	s.env.Printf("  submit watch id=sub-1")
}
