// Package deploy implements the deployment procedures: building and pushing
// commit-tagged images, the force rebuild of the compose project, the Docker
// Hub upload and installing the post-commit hook.
//
// Every procedure is a linear sequence of blocking docker invocations that
// stops at the first failing step. Failures detected before any side effect
// are marked with ErrPrecondition.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"coopins.dev/deployctl/internal/config"
	"coopins.dev/deployctl/internal/optracker"
	"coopins.dev/deployctl/pkg/docker"
	"coopins.dev/deployctl/pkg/imageref"
	"coopins.dev/deployctl/pkg/registry"
	"coopins.dev/deployctl/pkg/vcs"
)

// ErrPrecondition marks failures detected before anything was changed.
var ErrPrecondition = errors.New("precondition failed")

// Docker is the subset of the docker CLI the procedures use.
type Docker interface {
	Ping(ctx context.Context) (string, error)
	Build(ctx context.Context, opts docker.BuildOptions) error
	Tag(ctx context.Context, src, dst string) error
	Push(ctx context.Context, ref string) error
	ImageExists(ctx context.Context, ref string) (bool, error)
	ListImages(ctx context.Context) ([]docker.Image, error)
	RemoveImages(ctx context.Context, refs ...string) error
	PruneBuilder(ctx context.Context) error
	Login(ctx context.Context, opts docker.LoginOptions) error
}

// Compose manages the project's compose services.
type Compose interface {
	Down(ctx context.Context, volumes bool) error
	Build(ctx context.Context, noCache bool) error
	Up(ctx context.Context) error
}

// Registry inspects remote registries.
type Registry interface {
	HasCredentials(img imageref.Image) (bool, error)
	Verify(ctx context.Context, img imageref.Image, tags ...string) ([]registry.Result, error)
}

// Deployer runs the deployment procedures for one project.
type Deployer struct {
	Root     string
	Config   *config.Config
	Docker   Docker
	Compose  Compose
	Registry Registry
	Tracker  *optracker.OpTracker

	// Out receives the final summary lines.
	Out io.Writer

	// Revision reports the short revision of HEAD in dir.
	Revision func(ctx context.Context, dir string) (string, error)
	// HooksDir reports the git hooks directory for dir.
	HooksDir func(ctx context.Context, dir string) (string, error)
	Now      func() time.Time
	Getenv   func(string) string

	newBackOff func() backoff.BackOff
}

// New returns a Deployer running docker through runner.
func New(root string, cfg *config.Config, runner docker.Runner, tracker *optracker.OpTracker, out io.Writer) *Deployer {
	return &Deployer{
		Root:   root,
		Config: cfg,
		Docker: &docker.Client{Runner: runner, Dir: root},
		Compose: &docker.Compose{
			Runner:  runner,
			Dir:     root,
			Command: cfg.Compose.Command,
			File:    cfg.Compose.File,
			Project: cfg.Compose.Project,
		},
		Registry: &registry.Checker{},
		Tracker:  tracker,
		Out:      out,
		Revision: vcs.ShortRevision,
		HooksDir: vcs.HooksDir,
		Now:      time.Now,
		Getenv:   os.Getenv,
	}
}

// step runs fn as a tracked operation.
func (d *Deployer) step(msg string, fn func() error) error {
	id := d.Tracker.Add(msg)
	if err := fn(); err != nil {
		if errors.Is(err, context.Canceled) {
			d.Tracker.Cancel(id)
		} else {
			d.Tracker.Fail(id, err)
		}
		return err
	}
	d.Tracker.Done(id)
	return nil
}

func (d *Deployer) printf(format string, args ...any) {
	if d.Out != nil {
		_, _ = fmt.Fprintf(d.Out, format, args...)
	}
}

func (d *Deployer) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deployer) getenv(key string) string {
	if d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

// push pushes ref, retrying with exponential backoff when push.retries is set.
func (d *Deployer) push(ctx context.Context, ref string) error {
	retries := d.Config.Push.Retries
	op := func() error { return d.Docker.Push(ctx, ref) }
	if retries <= 0 {
		return op()
	}

	var b backoff.BackOff
	if d.newBackOff != nil {
		b = d.newBackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("ref", ref).Dur("retry_in", wait).Msg("push failed, retrying")
	})
}

// precondition marks err as a precondition failure.
func precondition(err error) error {
	return errors.Mark(err, ErrPrecondition)
}

func (d *Deployer) hooksDir(ctx context.Context) string {
	if d.HooksDir != nil {
		dir, err := d.HooksDir(ctx, d.Root)
		if err == nil {
			return dir
		}
		log.Debug().Err(err).Msg("unable to ask git for the hooks directory")
	}
	return filepath.Join(d.Root, ".git", "hooks")
}
