// Package vcs reads revision information from the git repository a
// project is checked out in.
package vcs

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoRepository is reported when the directory is not inside a git work tree,
// or git itself is not available.
var ErrNoRepository = errors.New("not a git repository")

// Status is the current state of a local repository.
type Status struct {
	Revision    string    // Optional.
	Short       string    // Optional.
	CommitTime  time.Time // Optional.
	Uncommitted bool      // Required.
}

var shortRevRe = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// ShortRevision reports the abbreviated hash of HEAD, exactly as
// `git rev-parse --short HEAD` prints it.
func ShortRevision(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse --short HEAD")
	if err != nil {
		return "", err
	}
	rev := string(bytes.TrimSpace(out))
	if !shortRevRe.MatchString(rev) {
		return "", errors.Newf("unrecognized revision %q", rev)
	}
	return rev, nil
}

// HooksDir reports the absolute path of the hooks directory git uses for the
// repository containing dir. It honours core.hooksPath.
//
// The directory is not guaranteed to exist.
func HooksDir(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse --git-path hooks")
	if err != nil {
		return "", err
	}
	path := string(bytes.TrimSpace(out))
	if path == "" {
		return "", errors.New("git reported an empty hooks path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path), nil
}

// TopLevel reports the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse --show-toplevel")
	if err != nil {
		return "", err
	}
	return filepath.Clean(string(bytes.TrimSpace(out))), nil
}

func gitStatus(ctx context.Context, rootDir string) (Status, error) {
	out, err := runGit(ctx, rootDir, "status --porcelain")
	if err != nil {
		return Status{}, err
	}
	uncommitted := len(out) > 0

	// "git status" works for empty repositories, but "git show" does not.
	// Assume there are no commits in the repo when "git show" fails with
	// uncommitted files and skip tagging revision / committime.
	var rev string
	var commitTime time.Time
	out, err = runGit(ctx, rootDir, "-c log.showsignature=false show -s --format=%H:%ct")
	if err != nil && !uncommitted {
		return Status{}, err
	} else if err == nil {
		rev, commitTime, err = parseRevTime(out)
		if err != nil {
			return Status{}, err
		}
	}

	var short string
	if rev != "" {
		short, err = ShortRevision(ctx, rootDir)
		if err != nil {
			return Status{}, err
		}
	}

	return Status{
		Revision:    rev,
		Short:       short,
		CommitTime:  commitTime,
		Uncommitted: uncommitted,
	}, nil
}

// parseRevTime parses commit details in "revision:seconds" format.
func parseRevTime(out []byte) (string, time.Time, error) {
	buf := string(bytes.TrimSpace(out))

	i := strings.IndexByte(buf, ':')
	if i < 1 {
		return "", time.Time{}, errors.New("unrecognized VCS tool output")
	}
	rev := buf[:i]

	secs, err := strconv.ParseInt(buf[i+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, errors.Newf("unrecognized VCS tool output: %v", err)
	}

	return rev, time.Unix(secs, 0), nil
}

func runGit(ctx context.Context, dir string, cmdline string) ([]byte, error) {
	args := strings.Fields(cmdline)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Trace().Str("dir", dir).Strs("args", args).Msg("running git")
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, errors.Mark(errors.Wrap(err, "git not found"), ErrNoRepository)
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return nil, errors.Mark(errors.Newf("%s: %s", dir, msg), ErrNoRepository)
		}
		return nil, errors.Wrapf(err, "git %s: %s", cmdline, msg)
	}
	return out, nil
}
