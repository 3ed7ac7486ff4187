package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"coopins.dev/deployctl/pkg/docker"
)

const rebuildCompose = `name: coop
services:
  web:
    build: .
  db:
    image: postgres:16
`

const imageList = `{"ID":"111","Repository":"coop-web","Tag":"latest"}
{"ID":"222","Repository":"coopins","Tag":"latest"}
{"ID":"333","Repository":"coopins","Tag":"sha-1a2b3c4"}
{"ID":"444","Repository":"postgres","Tag":"16"}
{"ID":"555","Repository":"<none>","Tag":"<none>"}
`

func setupRebuild(c *qt.C) *env {
	e := setup(c, "")
	err := os.WriteFile(filepath.Join(e.d.Root, "docker-compose.yml"), []byte(rebuildCompose), 0644)
	c.Assert(err, qt.IsNil)
	e.r.On("docker image ls", imageList, nil)
	return e
}

func TestForceRebuild(t *testing.T) {
	c := qt.New(t)
	e := setupRebuild(c)

	err := e.d.ForceRebuild(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(e.r.Lines(), qt.DeepEquals, []string{
		"docker-compose down --remove-orphans --volumes",
		"docker image ls --format {{json .}}",
		"docker rmi -f coop-web:latest",
		"docker rmi -f coopins:latest",
		"docker rmi -f coopins:sha-1a2b3c4",
		"docker builder prune -f",
		"docker-compose build --no-cache",
		"docker-compose up -d",
	})
}

func TestForceRebuildComposeCommand(t *testing.T) {
	c := qt.New(t)
	e := setup(c, "[image]\nname = \"coopins\"\n[compose]\ncommand = \"docker compose\"\nproject = \"coop\"\n")

	c.Assert(e.d.ForceRebuild(context.Background()), qt.IsNil)
	lines := e.r.Lines()
	c.Assert(lines[0], qt.Equals, "docker compose -p coop down --remove-orphans --volumes")
	c.Assert(lines[len(lines)-1], qt.Equals, "docker compose -p coop up -d")
}

func TestForceRebuildIgnoresRemovalFailures(t *testing.T) {
	c := qt.New(t)
	e := setupRebuild(c)
	e.r.Fail("docker rmi", "Error response from daemon: conflict: unable to remove repository reference")

	err := e.d.ForceRebuild(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(e.r.Ran("docker builder prune -f"), qt.IsTrue)
	c.Assert(e.r.Ran("docker-compose up -d"), qt.IsTrue)

	e = setupRebuild(c)
	e.r.Fail("docker image ls", "permission denied")
	c.Assert(e.d.ForceRebuild(context.Background()), qt.IsNil)
	c.Assert(e.r.Ran("docker rmi"), qt.IsFalse)
	c.Assert(e.r.Ran("docker-compose up -d"), qt.IsTrue)
}

func TestForceRebuildAborts(t *testing.T) {
	tests := []struct {
		fail    string
		wantErr string
		ran     string
	}{
		{fail: "docker-compose down", wantErr: "compose down: .*", ran: "docker image ls"},
		{fail: "docker builder prune", wantErr: "prune build cache: .*", ran: "docker-compose build"},
		{fail: "docker-compose build", wantErr: "compose build: .*", ran: "docker-compose up"},
	}
	for _, test := range tests {
		t.Run(test.fail, func(t *testing.T) {
			c := qt.New(t)
			e := setupRebuild(c)
			e.r.Fail(test.fail, "boom")

			err := e.d.ForceRebuild(context.Background())
			c.Assert(err, qt.ErrorMatches, test.wantErr)
			var cmdErr *docker.CommandError
			c.Assert(errors.As(err, &cmdErr), qt.IsTrue)
			c.Assert(e.r.Ran(test.ran), qt.IsFalse)
		})
	}
}

func TestMatchImages(t *testing.T) {
	c := qt.New(t)
	images := []docker.Image{
		{Repository: "coop", Tag: "latest"},
		{Repository: "docker.io/library/coop", Tag: "sha-1234567"},
		{Repository: "coop_web", Tag: "latest"},
		{Repository: "coopx", Tag: "latest"},
		{Repository: "<none>", Tag: "<none>", ID: "9"},
		{Repository: "coop", Tag: "latest"},
	}
	c.Assert(matchImages(images, []string{"coop", "coop_web"}), qt.DeepEquals, []string{
		"coop:latest",
		"coop_web:latest",
		"docker.io/library/coop:sha-1234567",
	})
	c.Assert(matchImages(images, nil), qt.IsNil)
}
