package xos

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWriteFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "hook")

	c.Assert(WriteFile(path, []byte("#!/bin/sh\n"), 0755), qt.IsNil)
	fi, err := os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(fi.Mode().Perm(), qt.Equals, os.FileMode(0755))
	c.Assert(IsExecutable(fi.Mode()), qt.IsTrue)

	// Overwriting replaces both content and mode.
	c.Assert(WriteFile(path, []byte("data"), 0644), qt.IsNil)
	fi, err = os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(fi.Mode().Perm(), qt.Equals, os.FileMode(0644))
	c.Assert(IsExecutable(fi.Mode()), qt.IsFalse)

	same, err := SameContents(path, []byte("data"))
	c.Assert(err, qt.IsNil)
	c.Assert(same, qt.IsTrue)
}

func TestSameContentsMissing(t *testing.T) {
	c := qt.New(t)
	same, err := SameContents(filepath.Join(c.TempDir(), "missing"), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(same, qt.IsFalse)
}

func TestIsDir(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	ok, err := IsDir(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	ok, err = IsDir(filepath.Join(dir, "nope"))
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	file := filepath.Join(dir, "file")
	c.Assert(os.WriteFile(file, nil, 0644), qt.IsNil)
	ok, err = IsDir(file)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}
