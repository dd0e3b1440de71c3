package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/cli/state"
	"judgeview/internal/history"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldBool
	FieldFile
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
}

// Env is the shared state handlers run against.
type Env struct {
	Client       *api.Client
	Pager        *history.Pager
	TokenState   *state.TokenState
	StatePath    string
	PrettyJSON   bool
	WatchTimeout time.Duration
	Out          io.Writer
}

// Printf writes one formatted output line.
func (e *Env) Printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format+"\n", args...)
	if w, ok := e.Out.(*bufio.Writer); ok {
		_ = w.Flush()
	}
}

// Command defines a CLI command binding.
type Command struct {
	Service      string
	Action       string
	Summary      string
	RequiresAuth bool
	Fields       []Field
	Run          func(ctx context.Context, env *Env, params Params) error
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

func ParseInt(value string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	return int(n), err
}

func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func ParseStringList(value string) []string {
	raw := strings.Split(value, ",")
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}
