// Package hookinstall copies a project's git hook scripts into the
// repository's hooks directory.
package hookinstall

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/syntax"

	"coopins.dev/deployctl/pkg/xos"
)

var (
	ErrHooksDirMissing = errors.New("git hooks directory does not exist")
	ErrSourceMissing   = errors.New("hook source script does not exist")
	ErrInvalidScript   = errors.New("hook script is not valid")
	ErrModified        = errors.New("installed hook differs from its source")
)

// DefaultName is the hook installed when none is configured.
const DefaultName = "post-commit"

const hookPerm fs.FileMode = 0755

// Installer installs a single hook script.
type Installer struct {
	// HooksDir is the git hooks directory. It must already exist.
	HooksDir string
	// Source is the path to the hook script to install.
	Source string
	// Name is the hook name, e.g. "post-commit".
	Name string
}

// Result describes a completed install.
type Result struct {
	Path    string
	Changed bool // false when the hook was already up to date
}

// Status describes the installed hook.
type Status struct {
	Path       string
	Installed  bool
	Executable bool
	UpToDate   bool // the installed hook matches the source
}

func (i *Installer) name() string {
	if i.Name == "" {
		return DefaultName
	}
	return i.Name
}

// Path is where the hook is installed.
func (i *Installer) Path() string {
	return filepath.Join(i.HooksDir, i.name())
}

// Install copies the source script into the hooks directory and marks it
// executable. It writes nothing unless both the hooks directory and the source
// exist and the source is a valid script. Running it repeatedly yields the
// same file.
func (i *Installer) Install() (Result, error) {
	data, err := i.checkPreconditions()
	if err != nil {
		return Result{}, err
	}

	dst := i.Path()
	same, err := xos.SameContents(dst, data)
	if err != nil {
		return Result{}, err
	}
	if same {
		fi, err := os.Stat(dst)
		if err != nil {
			return Result{}, errors.WithStack(err)
		}
		if fi.Mode().Perm() == hookPerm {
			log.Debug().Str("path", dst).Msg("hook already up to date")
			return Result{Path: dst}, nil
		}
	}

	if err := xos.WriteFile(dst, data, hookPerm); err != nil {
		return Result{}, errors.Wrap(err, "write hook")
	}
	log.Debug().Str("path", dst).Str("source", i.Source).Msg("installed hook")
	return Result{Path: dst, Changed: true}, nil
}

// Status reports the state of the installed hook relative to its source.
func (i *Installer) Status() (Status, error) {
	st := Status{Path: i.Path()}
	fi, err := os.Stat(st.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	} else if err != nil {
		return st, errors.WithStack(err)
	}
	st.Installed = true
	st.Executable = xos.IsExecutable(fi.Mode())

	src, err := os.ReadFile(i.Source)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	} else if err != nil {
		return st, errors.WithStack(err)
	}
	st.UpToDate, err = xos.SameContents(st.Path, src)
	return st, err
}

// Uninstall removes the installed hook. Unless force is set it refuses to
// remove a hook that no longer matches its source, so local edits survive.
// It reports whether a file was removed.
func (i *Installer) Uninstall(force bool) (bool, error) {
	st, err := i.Status()
	if err != nil {
		return false, err
	}
	if !st.Installed {
		return false, nil
	}
	if !st.UpToDate && !force {
		return false, errors.WithHint(
			errors.Mark(errors.Newf("%s was modified", st.Path), ErrModified),
			"pass --force to remove it anyway")
	}
	if err := os.Remove(st.Path); err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (i *Installer) checkPreconditions() ([]byte, error) {
	ok, err := xos.IsDir(i.HooksDir)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("%s: not found", i.HooksDir), ErrHooksDirMissing),
			"run this from inside a git checkout")
	}

	data, err := os.ReadFile(i.Source)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Mark(errors.Newf("%s: not found", i.Source), ErrSourceMissing)
	} else if err != nil {
		return nil, errors.Wrap(err, "read hook source")
	}

	if err := Validate(i.Source, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks that data is a script git can execute. Scripts with a
// POSIX sh or bash interpreter line are also parsed.
func Validate(name string, data []byte) error {
	if !bytes.HasPrefix(data, []byte("#!")) {
		return errors.Mark(errors.Newf("%s: missing #! interpreter line", name), ErrInvalidScript)
	}

	lang, ok := shellLang(data)
	if !ok {
		return nil
	}
	parser := syntax.NewParser(syntax.Variant(lang))
	if _, err := parser.Parse(bytes.NewReader(data), name); err != nil {
		return errors.Mark(errors.Wrap(err, "parse hook"), ErrInvalidScript)
	}
	return nil
}

// shellLang picks the shell dialect from the interpreter line.
func shellLang(data []byte) (syntax.LangVariant, bool) {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	fields := strings.Fields(strings.TrimPrefix(string(line), "#!"))
	if len(fields) == 0 {
		return 0, false
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	switch interp {
	case "sh", "dash", "ash":
		return syntax.LangPOSIX, true
	case "bash":
		return syntax.LangBash, true
	case "mksh":
		return syntax.LangMirBSDKorn, true
	}
	return 0, false
}
