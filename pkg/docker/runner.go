package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// Command is a single external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Stdin, if non-nil, is fed to the process.
	Stdin io.Reader

	// Stream attaches the process output to the runner's writers instead of
	// capturing it. Use it for long-running steps like builds and pushes.
	Stream bool

	// Interactive attaches the process to the terminal, for prompts.
	Interactive bool
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs commands. Run returns the captured combined output; streamed
// commands return no output.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// CommandError is returned when a command exits unsuccessfully.
type CommandError struct {
	Cmd    Command
	Output []byte
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Cmd, out, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode reports the exit code of the failed process, or -1 if it did not
// exit normally.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin

	log.Debug().Str("dir", c.Dir).Msgf("running %s", c)

	var (
		out []byte
		err error
	)
	switch {
	case c.Interactive:
		if cmd.Stdin == nil {
			cmd.Stdin = os.Stdin
		}
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		err = cmd.Run()
	case c.Stream:
		cmd.Stdout, cmd.Stderr = r.stdout(), r.stderr()
		err = cmd.Run()
	default:
		var buf bytes.Buffer
		cmd.Stdout, cmd.Stderr = &buf, &buf
		err = cmd.Run()
		out = buf.Bytes()
	}

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return out, errors.WithHint(
				errors.Mark(errors.Newf("%s not found", c.Name), ErrNotInstalled),
				"is it installed and in your PATH?")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, errors.Wrapf(ctxErr, "%s", c)
		}
		return out, &CommandError{Cmd: c, Output: out, Err: err}
	}
	return out, nil
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
