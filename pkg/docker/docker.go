// Package docker drives the docker CLI. Every operation is a single blocking
// invocation of the docker binary through a Runner.
package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotInstalled      = errors.New("executable not installed")
	ErrDaemonUnreachable = errors.New("docker daemon is not reachable")
)

// Client runs docker commands in a project directory.
type Client struct {
	Runner Runner
	// Dir is the working directory commands run in.
	Dir string
	// Binary is the docker executable. It defaults to "docker".
	Binary string
}

// New returns a client running docker in dir.
func New(r Runner, dir string) *Client {
	return &Client{Runner: r, Dir: dir}
}

func (c *Client) cmd(args ...string) Command {
	bin := c.Binary
	if bin == "" {
		bin = "docker"
	}
	return Command{Name: bin, Args: args, Dir: c.Dir}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.Runner.Run(ctx, c.cmd(args...))
}

func (c *Client) stream(ctx context.Context, args ...string) error {
	cmd := c.cmd(args...)
	cmd.Stream = true
	_, err := c.Runner.Run(ctx, cmd)
	return err
}

// Ping checks that the docker daemon answers. It reports the server version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "info", "--format", "{{.ServerVersion}}")
	version := strings.TrimSpace(string(out))
	if err != nil || version == "" {
		if errors.Is(err, ErrNotInstalled) {
			return "", err
		}
		if err == nil {
			err = errors.New("empty server version")
		}
		return "", errors.WithHint(
			errors.Mark(errors.Wrap(err, "docker daemon is not reachable"), ErrDaemonUnreachable),
			"start Docker and try again")
	}
	return version, nil
}

// BuildOptions configures an image build.
type BuildOptions struct {
	// ContextDir is the build context, relative to the client directory.
	ContextDir string
	// Dockerfile is the path to the Dockerfile. Empty means the default.
	Dockerfile string
	// Tags are the full references to tag the result with.
	Tags     []string
	NoCache  bool
	Platform string
	Labels   map[string]string
}

// Build builds an image. The build output is streamed.
func (c *Client) Build(ctx context.Context, opts BuildOptions) error {
	if len(opts.Tags) == 0 {
		return errors.New("build: no tags given")
	}
	args := []string{"build"}
	for _, t := range opts.Tags {
		args = append(args, "-t", t)
	}
	if opts.Dockerfile != "" {
		args = append(args, "-f", opts.Dockerfile)
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	for _, k := range slices.Sorted(maps.Keys(opts.Labels)) {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}
	ctxDir := opts.ContextDir
	if ctxDir == "" {
		ctxDir = "."
	}
	args = append(args, ctxDir)
	return errors.Wrap(c.stream(ctx, args...), "docker build")
}

// Tag adds the reference dst to the local image src.
func (c *Client) Tag(ctx context.Context, src, dst string) error {
	_, err := c.run(ctx, "tag", src, dst)
	return errors.Wrapf(err, "tag %s as %s", src, dst)
}

// Push pushes ref to its registry. The push output is streamed.
func (c *Client) Push(ctx context.Context, ref string) error {
	return errors.Wrapf(c.stream(ctx, "push", ref), "push %s", ref)
}

// ImageExists reports whether ref exists in the local image store.
func (c *Client) ImageExists(ctx context.Context, ref string) (bool, error) {
	out, err := c.run(ctx, "image", "inspect", "--format", "{{.Id}}", ref)
	switch {
	case err == nil:
		return true, nil
	case bytes.Contains(bytes.ToLower(out), []byte("no such image")):
		return false, nil
	default:
		return false, errors.Wrapf(err, "inspect %s", ref)
	}
}

// Image is a local image entry.
type Image struct {
	Repository string
	Tag        string
	ID         string
}

// Ref returns "<repository>:<tag>", or the image ID for dangling images.
func (i Image) Ref() string {
	if i.Repository == "" || i.Repository == "<none>" {
		return i.ID
	}
	if i.Tag == "" || i.Tag == "<none>" {
		return i.Repository
	}
	return i.Repository + ":" + i.Tag
}

// ListImages lists the local images.
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	out, err := c.run(ctx, "image", "ls", "--format", "{{json .}}")
	if err != nil {
		return nil, errors.Wrap(err, "list images")
	}
	return parseImageList(out)
}

func parseImageList(out []byte) ([]Image, error) {
	var images []Image
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var img Image
		if err := json.Unmarshal(line, &img); err != nil {
			return nil, errors.Wrapf(err, "parse `docker image ls` line %q", line)
		}
		images = append(images, img)
	}
	return images, errors.WithStack(sc.Err())
}

// RemoveImages force-removes the given images.
func (c *Client) RemoveImages(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	_, err := c.run(ctx, append([]string{"rmi", "-f"}, refs...)...)
	return errors.Wrap(err, "remove images")
}

// PruneBuilder removes the build cache.
func (c *Client) PruneBuilder(ctx context.Context) error {
	return errors.Wrap(c.stream(ctx, "builder", "prune", "-f"), "prune build cache")
}

// LoginOptions configures a registry login.
type LoginOptions struct {
	// Registry is the registry host. Empty means Docker Hub.
	Registry string
	Username string
	// Password, if set, is passed on stdin. Otherwise docker prompts for it.
	Password string
}

// Login authenticates against a registry.
func (c *Client) Login(ctx context.Context, opts LoginOptions) error {
	args := []string{"login"}
	if opts.Username != "" {
		args = append(args, "-u", opts.Username)
	}
	cmd := c.cmd(args...)
	if opts.Password != "" {
		cmd.Args = append(cmd.Args, "--password-stdin")
		cmd.Stdin = strings.NewReader(opts.Password)
	} else {
		cmd.Interactive = true
	}
	if opts.Registry != "" {
		cmd.Args = append(cmd.Args, opts.Registry)
	}
	_, err := c.Runner.Run(ctx, cmd)
	return errors.Wrap(err, "docker login")
}
