package deploy

import (
	"context"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"coopins.dev/deployctl/pkg/composefile"
	"coopins.dev/deployctl/pkg/docker"
)

// ForceRebuild tears the compose project down, removes its volumes, images
// and the build cache, then rebuilds it without cache and starts it again.
//
// Removing the images is best-effort: failures are reported and the
// procedure continues. Every other step aborts on failure.
func (d *Deployer) ForceRebuild(ctx context.Context) error {
	err := d.step("Stopping containers and removing volumes", func() error {
		return d.Compose.Down(ctx, true)
	})
	if err != nil {
		return err
	}

	d.removeProjectImages(ctx)

	err = d.step("Pruning the build cache", func() error {
		return d.Docker.PruneBuilder(ctx)
	})
	if err != nil {
		return err
	}

	err = d.step("Rebuilding images without cache", func() error {
		return d.Compose.Build(ctx, true)
	})
	if err != nil {
		return err
	}

	return d.step("Starting containers", func() error {
		return d.Compose.Up(ctx)
	})
}

func (d *Deployer) removeProjectImages(ctx context.Context) {
	id := d.Tracker.Add("Removing project images")
	refs, err := d.ProjectImages(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("unable to list project images")
		d.Tracker.Skip(id, "unable to list images")
		return
	}
	if len(refs) == 0 {
		d.Tracker.Skip(id, "no images found")
		return
	}

	var errs *multierror.Error
	for _, ref := range refs {
		if err := d.Docker.RemoveImages(ctx, ref); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		for _, e := range errs.Errors {
			log.Warn().Err(e).Msg("unable to remove image")
		}
		d.Tracker.Skip(id, "some images could not be removed")
		return
	}
	d.Tracker.Done(id)
}

// ImageNames returns the repositories belonging to the project: the
// configured image and every image the compose file builds.
func (d *Deployer) ImageNames() []string {
	names := []string{d.Config.Image.Name, d.Config.ImageRepository()}

	path, err := composefile.Find(d.Root, d.Config.Compose.File)
	if err != nil {
		log.Debug().Err(err).Msg("no compose file")
	} else if f, err := composefile.Load(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("unable to read compose file")
	} else {
		names = append(names, f.BuiltImages(f.ProjectName(d.Config.Compose.Project, d.Root))...)
	}

	slices.Sort(names)
	return slices.Compact(names)
}

// ProjectImages lists the local image references that belong to the project.
func (d *Deployer) ProjectImages(ctx context.Context) ([]string, error) {
	images, err := d.Docker.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	return matchImages(images, d.ImageNames()), nil
}

// matchImages returns the references of images whose repository is one of
// names, ignoring any registry prefix of the listed repository.
func matchImages(images []docker.Image, names []string) []string {
	var refs []string
	for _, img := range images {
		if img.Repository == "" || img.Repository == "<none>" {
			continue
		}
		repo := strings.TrimPrefix(img.Repository, "docker.io/")
		repo = strings.TrimPrefix(repo, "library/")
		if slices.Contains(names, repo) || slices.Contains(names, img.Repository) {
			refs = append(refs, img.Ref())
		}
	}
	slices.Sort(refs)
	return slices.Compact(refs)
}
