package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/jwalton/go-supportscolor"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"coopins.dev/deployctl/internal/config"
	"coopins.dev/deployctl/internal/deploy"
	"coopins.dev/deployctl/internal/optracker"
	"coopins.dev/deployctl/pkg/docker"
	"coopins.dev/deployctl/pkg/vcs"
)

// ProjectRoot determines the project directory. An explicit dir wins;
// otherwise it is the git work tree containing the working directory, or the
// working directory itself outside of git.
func ProjectRoot(ctx context.Context, dir string) (string, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", errors.WithStack(err)
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return "", errors.Wrap(err, "project directory")
		} else if !fi.IsDir() {
			return "", errors.Newf("project directory %s is not a directory", abs)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.WithStack(err)
	}
	top, err := vcs.TopLevel(ctx, wd)
	if err != nil {
		log.Debug().Err(err).Msg("not inside a git work tree, using the working directory")
		return wd, nil
	}
	return top, nil
}

// Deployer loads the configuration of the project in dir and returns a
// deployer running the real docker CLI.
func Deployer(ctx context.Context, dir, configFile string) (*deploy.Deployer, error) {
	root, err := ProjectRoot(ctx, dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root, configFile)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("root", root).Str("image", cfg.ImageRepository()).Msg("loaded configuration")

	tracker := optracker.New(os.Stderr, ColorEnabled())
	return deploy.New(root, cfg, &docker.ExecRunner{}, tracker, os.Stdout), nil
}

// WarnUncommitted logs a warning when the work tree has uncommitted changes.
func WarnUncommitted(ctx context.Context, root string) {
	if st := vcs.GetRevision(ctx, root); st.Uncommitted && st.Revision != "" {
		log.Warn().Str("revision", st.Short).Msg("the work tree has uncommitted changes")
	}
}

// ColorEnabled reports whether colored output should be written to stderr.
func ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd())) && supportscolor.Stderr().SupportsColor
}

// PrintError writes err and any hints attached to it.
func PrintError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	_, _ = red.Fprint(w, "error: ")
	_, _ = red.Fprintln(w, err.Error())
	if hint := errors.FlattenHints(err); hint != "" {
		for _, line := range strings.Split(hint, "\n") {
			if line = strings.TrimSpace(line); line != "" && line != "--" {
				_, _ = fmt.Fprintln(w, "hint:", line)
			}
		}
	}
}

func Fatal(args ...any) {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			PrintError(os.Stderr, err)
			os.Exit(1)
		}
	}

	red := color.New(color.FgRed)
	_, _ = red.Fprint(os.Stderr, "error: ")
	_, _ = red.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func Fatalf(format string, args ...any) {
	Fatal(fmt.Sprintf(format, args...))
}
