package composefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
)

const testCompose = `
services:
  web:
    build: .
    ports:
      - "5000:5000"
    volumes:
      - data:/app/instance
  worker:
    build:
      context: ./worker
      dockerfile: Dockerfile.worker
  cache:
    image: redis:7-alpine
  proxy:
    image: registry.example.com:5000/coop/proxy@sha256:abcd
volumes:
  data: {}
`

func TestParse(t *testing.T) {
	c := qt.New(t)
	f, err := Parse([]byte(testCompose))
	c.Assert(err, qt.IsNil)

	c.Assert(f.Services, qt.HasLen, 4)
	c.Assert(f.Services["web"].Build, qt.DeepEquals, &Build{Context: "."})
	c.Assert(f.Services["worker"].Build, qt.DeepEquals, &Build{Context: "./worker", Dockerfile: "Dockerfile.worker"})
	c.Assert(f.Services["cache"].Image, qt.Equals, "redis:7-alpine")

	c.Assert(f.Images("coop"), qt.DeepEquals, []string{
		"coop-web",
		"coop-worker",
		"coop_web",
		"coop_worker",
		"redis",
		"registry.example.com:5000/coop/proxy",
	})
	c.Assert(f.BuiltImages("coop"), qt.DeepEquals, []string{
		"coop-web",
		"coop-worker",
		"coop_web",
		"coop_worker",
	})
}

func TestParseInvalid(t *testing.T) {
	c := qt.New(t)
	_, err := Parse([]byte("services: [this is: not: valid"))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestProjectName(t *testing.T) {
	c := qt.New(t)

	var nilFile *File
	c.Assert(nilFile.ProjectName("", "/home/dev/Coop Insurance"), qt.Equals, "coopinsurance")
	c.Assert((&File{Name: "Billing"}).ProjectName("", "/x/y"), qt.Equals, "billing")
	c.Assert((&File{Name: "Billing"}).ProjectName("override", "/x/y"), qt.Equals, "override")
	c.Assert(nilFile.Images("x"), qt.IsNil)
	c.Assert(nilFile.BuiltImages("x"), qt.IsNil)
}

func TestFindAndLoad(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	_, err := Find(dir, "")
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	path := filepath.Join(dir, "docker-compose.yml")
	c.Assert(os.WriteFile(path, []byte(testCompose), 0644), qt.IsNil)

	found, err := Find(dir, "")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.Equals, path)

	// compose.yaml takes precedence.
	preferred := filepath.Join(dir, "compose.yaml")
	c.Assert(os.WriteFile(preferred, []byte("services: {}\n"), 0644), qt.IsNil)
	found, err = Find(dir, "")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.Equals, preferred)

	found, err = Find(dir, "docker-compose.yml")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.Equals, path)

	f, err := Load(found)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Path, qt.Equals, path)
	c.Assert(f.Services, qt.HasLen, 4)
}
