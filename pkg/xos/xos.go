// Package xos provides file system helpers shared by the deployment commands.
package xos

import (
	"bytes"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
)

// WriteFile writes the given file with the given data and permissions.
//
// Where possible (i.e. not on windows) it will use an atomic write process
// which removes the possibility of a partial file being written during a crash
// or error. The permissions are applied even when the file already exists.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := renameio.WriteFile(filename, data, perm); err != nil {
		return errors.WithStack(err)
	}
	// renameio keeps the mode of a file it replaces.
	return errors.WithStack(os.Chmod(filename, perm))
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, errors.WithStack(err)
	}
	return fi.IsDir(), nil
}

// IsExecutable reports whether any execute bit is set on the file mode.
func IsExecutable(mode fs.FileMode) bool {
	return mode.Perm()&0111 != 0
}

// SameContents reports whether the file at path holds exactly data.
// A missing file is reported as false without an error.
func SameContents(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, errors.WithStack(err)
	}
	return bytes.Equal(existing, data), nil
}
