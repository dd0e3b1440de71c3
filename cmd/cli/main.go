package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"judgeview/internal/api"
	"judgeview/internal/cli/command"
	"judgeview/internal/cli/config"
	"judgeview/internal/cli/repl"
	"judgeview/internal/cli/state"
	"judgeview/internal/history"
	"judgeview/pkg/utils/logger"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	watchTimeout := flag.Duration("watch-timeout", 0, "Override watch deadline (e.g. 2m)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override token state path")
	logLevel := flag.String("log-level", "", "Override log level")
	pretty := flag.Bool("pretty", false, "Pretty print JSON responses")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing config file just means defaults.
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
			return
		}
		cfg = config.Default()
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *watchTimeout > 0 {
		cfg.WatchTimeout = *watchTimeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer logger.Sync()

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		return
	}
	if *token != "" {
		tokenState.AccessToken = *token
		tokenState.AccessExpiresAt = state.ExpiryOf(*token)
	}

	client := api.New(cfg.BaseURL, cfg.Timeout, func() string {
		return tokenState.AccessToken
	})

	env := &command.Env{
		Client:       client,
		Pager:        history.NewPager(client),
		TokenState:   &tokenState,
		StatePath:    cfg.TokenStatePath,
		PrettyJSON:   cfg.PrettyJSON != nil && *cfg.PrettyJSON,
		WatchTimeout: cfg.WatchTimeout,
		Out:          bufio.NewWriter(os.Stdout),
	}

	session, err := repl.New(env, command.Registry())
	if err != nil {
		fmt.Fprintf(os.Stderr, "start session failed: %v\n", err)
		return
	}
	session.Run(context.Background())
}
