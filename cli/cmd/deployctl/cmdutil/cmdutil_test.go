package cmdutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	qt "github.com/frankban/quicktest"
	"github.com/spf13/cobra"
)

func TestProjectRoot(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	got, err := ProjectRoot(context.Background(), dir)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, dir)

	file := filepath.Join(dir, "file")
	c.Assert(os.WriteFile(file, nil, 0644), qt.IsNil)
	_, err = ProjectRoot(context.Background(), file)
	c.Assert(err, qt.ErrorMatches, "project directory .* is not a directory")

	_, err = ProjectRoot(context.Background(), filepath.Join(dir, "missing"))
	c.Assert(err, qt.ErrorMatches, "project directory: .*no such file or directory")
}

func TestPrintError(t *testing.T) {
	c := qt.New(t)
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	err := errors.WithHint(errors.Wrap(errors.New("boom"), "docker login"), "set DOCKERHUB_TOKEN")
	PrintError(&buf, err)
	c.Assert(buf.String(), qt.Equals, "error: docker login: boom\nhint: set DOCKERHUB_TOKEN\n")

	buf.Reset()
	PrintError(&buf, errors.New("plain"))
	c.Assert(buf.String(), qt.Equals, "error: plain\n")
}

func TestOneof(t *testing.T) {
	c := qt.New(t)
	o := &Oneof{Value: "text", Allowed: []string{"text", "json"}}
	cmd := &cobra.Command{Use: "x"}
	o.AddFlag(cmd)

	c.Assert(cmd.Flags().Set("output", "json"), qt.IsNil)
	c.Assert(o.Value, qt.Equals, "json")
	c.Assert(cmd.Flags().Set("output", "yaml"), qt.ErrorMatches, `.*must be one of "text" or "json"`)
	c.Assert(o.Usage(), qt.Equals, `Output format. One of ("text" or "json").`)
	c.Assert(cmd.Flags().ShorthandLookup("o"), qt.Not(qt.IsNil))
}
