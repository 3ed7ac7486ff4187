package docker

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// Compose runs docker compose commands for one project.
type Compose struct {
	Runner Runner
	Dir    string
	// Command is the compose executable and its leading arguments,
	// e.g. "docker-compose" or "docker compose".
	Command string
	// File is the compose file. Empty means the compose default.
	File string
	// Project overrides the compose project name.
	Project string
}

func (c *Compose) run(ctx context.Context, args ...string) error {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		fields = []string{"docker", "compose"}
	}
	var full []string
	full = append(full, fields[1:]...)
	if c.File != "" {
		full = append(full, "-f", c.File)
	}
	if c.Project != "" {
		full = append(full, "-p", c.Project)
	}
	full = append(full, args...)
	_, err := c.Runner.Run(ctx, Command{Name: fields[0], Args: full, Dir: c.Dir, Stream: true})
	return err
}

// Down stops and removes the project's containers and networks. With volumes
// set it also removes its volumes.
func (c *Compose) Down(ctx context.Context, volumes bool) error {
	args := []string{"down", "--remove-orphans"}
	if volumes {
		args = append(args, "--volumes")
	}
	return errors.Wrap(c.run(ctx, args...), "compose down")
}

// Build builds the project's images.
func (c *Compose) Build(ctx context.Context, noCache bool) error {
	args := []string{"build"}
	if noCache {
		args = append(args, "--no-cache")
	}
	return errors.Wrap(c.run(ctx, args...), "compose build")
}

// Up starts the project's containers in the background.
func (c *Compose) Up(ctx context.Context) error {
	return errors.Wrap(c.run(ctx, "up", "-d"), "compose up")
}
