package vcs

import (
	"context"

	"github.com/rs/zerolog/log"
)

// GetRevision returns the revision information for the project rooted at root.
//
// If there is an error getting the revision information, no revision information is returned and the
// project is flagged as having uncommitted files. This will most likely happen because root is not
// inside a git repository.
func GetRevision(ctx context.Context, root string) Status {
	status, err := gitStatus(ctx, root)
	if err != nil {
		log.Debug().Err(err).Str("root", root).Msg("unable to get VCS status")
		return Status{Uncommitted: true}
	}
	return status
}
