// Package dockertest provides a scripted docker.Runner for tests.
package dockertest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"coopins.dev/deployctl/pkg/docker"
)

// Call is a recorded invocation.
type Call struct {
	docker.Command
	// StdinData is what the command read from stdin.
	StdinData string
}

type rule struct {
	prefix string
	out    []byte
	err    error
}

// Runner records every command and answers from rules. Commands without a
// matching rule succeed with no output.
type Runner struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

var _ docker.Runner = (*Runner)(nil)

// On registers the result for commands whose command line starts with prefix,
// e.g. "docker push". Later rules take precedence.
func (r *Runner) On(prefix string, output string, err error) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, out: []byte(output), err: err})
	return r
}

// Fail registers a failing command with the given output.
func (r *Runner) Fail(prefix, output string) *Runner {
	return r.On(prefix, output, ErrExit)
}

// ErrExit stands in for a non-zero exit status.
var ErrExit = errors.New("exit status 1")

func (r *Runner) Run(ctx context.Context, cmd docker.Command) ([]byte, error) {
	call := Call{Command: cmd}
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		call.StdinData = string(data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := cmd.String()
	for i := len(r.rules) - 1; i >= 0; i-- {
		rl := r.rules[i]
		if !strings.HasPrefix(line, rl.prefix) {
			continue
		}
		if rl.err != nil {
			return rl.out, &docker.CommandError{Cmd: cmd, Output: rl.out, Err: rl.err}
		}
		return rl.out, nil
	}
	return nil, nil
}

// Calls returns the recorded invocations.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded command lines.
func (r *Runner) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Ran reports whether a command starting with prefix was run.
func (r *Runner) Ran(prefix string) bool {
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
