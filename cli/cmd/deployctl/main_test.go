package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/rogpeppe/go-internal/testscript"

	"coopins.dev/deployctl/cli/cmd/deployctl/root"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"deployctl": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			return nil
		},
	})
}

func TestCommandTree(t *testing.T) {
	c := qt.New(t)
	for _, path := range [][]string{
		{"hook", "install"},
		{"hook", "status"},
		{"hook", "uninstall"},
		{"hook", "post-commit"},
		{"build"},
		{"push"},
		{"release"},
		{"rebuild"},
		{"upload"},
		{"images"},
		{"verify"},
		{"config"},
		{"version"},
	} {
		cmd, _, err := root.Cmd.Find(path)
		c.Assert(err, qt.IsNil, qt.Commentf("%v", path))
		c.Assert(cmd.Name(), qt.Equals, path[len(path)-1])
	}

	cmd, _, err := root.Cmd.Find([]string{"force-rebuild"})
	c.Assert(err, qt.IsNil)
	c.Assert(cmd, qt.Equals, rebuildCmd)
}

func TestFlags(t *testing.T) {
	c := qt.New(t)
	c.Assert(uploadCmd.Args(uploadCmd, nil), qt.ErrorMatches, `accepts 1 arg\(s\), received 0`)
	c.Assert(uploadCmd.Args(uploadCmd, []string{"alice"}), qt.IsNil)
	for _, name := range []string{"skip-build", "version", "verify"} {
		c.Assert(uploadCmd.Flags().Lookup(name), qt.Not(qt.IsNil), qt.Commentf(name))
	}

	c.Assert(releaseCmd.Flags().Lookup("require-revision"), qt.Not(qt.IsNil))
	c.Assert(pushCmd.Flags().Lookup("no-cache"), qt.IsNil)
	c.Assert(hookUninstallCmd.Flags().Lookup("force"), qt.Not(qt.IsNil))

	for _, name := range []string{"verbose", "dir", "config"} {
		c.Assert(root.Cmd.PersistentFlags().Lookup(name), qt.Not(qt.IsNil), qt.Commentf(name))
	}
	c.Assert(root.Cmd.PersistentFlags().ShorthandLookup("C").Name, qt.Equals, "dir")
}
