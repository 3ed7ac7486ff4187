package deploy

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"coopins.dev/deployctl/pkg/docker"
	"coopins.dev/deployctl/pkg/imageref"
	"coopins.dev/deployctl/pkg/registry"
)

// ReleaseOptions configures Build, Push and Release.
type ReleaseOptions struct {
	// RequireRevision fails instead of tagging "sha-manual" when the
	// revision of HEAD cannot be determined.
	RequireRevision bool
	NoCache         bool
	// Verify checks the pushed tags in the registry afterwards.
	Verify bool
}

// Tags are the two references a commit is published under.
type Tags struct {
	Image    imageref.Image
	Revision string // short revision, empty when unknown
	SHA      string // e.g. "sha-1a2b3c4"
	Latest   string // "<image>:latest"
	Commit   string // "<image>:sha-1a2b3c4"
}

// Refs returns the references in push order.
func (t Tags) Refs() []string { return []string{t.Latest, t.Commit} }

// ResolveTags computes the tags for the current commit. Without a revision it
// falls back to "sha-manual" unless that is required.
func (d *Deployer) ResolveTags(ctx context.Context, opts ReleaseOptions) (Tags, error) {
	img, err := imageref.Parse(d.Config.ImageRepository())
	if err != nil {
		return Tags{}, precondition(err)
	}

	short, err := d.Revision(ctx, d.Root)
	if err != nil {
		if opts.RequireRevision || d.Config.Tags.RequireRevision {
			err = errors.Wrap(err, "determine git revision")
			return Tags{}, precondition(errors.WithHint(err, "commit your changes inside a git checkout, or drop --require-revision"))
		}
		log.Warn().Err(err).Msg("unable to determine git revision, tagging the image as " + imageref.SHATag(""))
		short = ""
	}

	sha := imageref.SHATag(short)
	return Tags{
		Image:    img,
		Revision: short,
		SHA:      sha,
		Latest:   img.Latest(),
		Commit:   img.Ref(sha),
	}, nil
}

func (d *Deployer) buildOptions(tags []string, revision string, noCache bool) docker.BuildOptions {
	ctxDir := d.Config.Image.Context
	if !filepath.IsAbs(ctxDir) {
		ctxDir = filepath.Join(d.Root, ctxDir)
	}
	var dockerfile string
	if f := d.Config.Image.Dockerfile; f != "" {
		dockerfile = f
		if !filepath.IsAbs(f) {
			dockerfile = filepath.Join(d.Root, f)
		}
	}

	labels := map[string]string{
		"org.opencontainers.image.created": d.now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	if revision != "" {
		labels["org.opencontainers.image.revision"] = revision
	}
	return docker.BuildOptions{
		ContextDir: ctxDir,
		Dockerfile: dockerfile,
		Tags:       tags,
		NoCache:    noCache,
		Platform:   d.Config.Image.Platform,
		Labels:     labels,
	}
}

func (d *Deployer) build(ctx context.Context, tags Tags, noCache bool) error {
	return d.step("Building "+tags.Commit, func() error {
		return d.Docker.Build(ctx, d.buildOptions(tags.Refs(), tags.Revision, noCache))
	})
}

func (d *Deployer) pushAll(ctx context.Context, refs []string) error {
	for _, ref := range refs {
		err := d.step("Pushing "+ref, func() error {
			return d.push(ctx, ref)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Build builds the image tagged with both the latest and the commit tag.
func (d *Deployer) Build(ctx context.Context, opts ReleaseOptions) (Tags, error) {
	tags, err := d.ResolveTags(ctx, opts)
	if err != nil {
		return Tags{}, err
	}
	return tags, d.build(ctx, tags, opts.NoCache)
}

// Push pushes the latest tag and then the commit tag. The images must
// already have been built.
func (d *Deployer) Push(ctx context.Context, opts ReleaseOptions) (Tags, error) {
	tags, err := d.ResolveTags(ctx, opts)
	if err != nil {
		return Tags{}, err
	}
	if err := d.pushAll(ctx, tags.Refs()); err != nil {
		return tags, err
	}
	return tags, d.verify(ctx, opts.Verify, tags.Image, imageref.LatestTag, tags.SHA)
}

// Release builds and pushes the image for the current commit. It is what the
// post-commit hook runs.
func (d *Deployer) Release(ctx context.Context, opts ReleaseOptions) (Tags, error) {
	tags, err := d.ResolveTags(ctx, opts)
	if err != nil {
		return Tags{}, err
	}
	if err := d.build(ctx, tags, opts.NoCache); err != nil {
		return tags, err
	}
	if err := d.pushAll(ctx, tags.Refs()); err != nil {
		return tags, err
	}
	if err := d.verify(ctx, opts.Verify, tags.Image, imageref.LatestTag, tags.SHA); err != nil {
		return tags, err
	}
	d.printf("Build and push completed at %s\n", d.now().Format("2006-01-02 15:04:05"))
	return tags, nil
}

func (d *Deployer) verify(ctx context.Context, requested bool, img imageref.Image, tags ...string) error {
	if !requested && !d.Config.Push.Verify {
		return nil
	}
	return d.step("Verifying "+img.String()+" in the registry", func() error {
		_, err := d.Registry.Verify(ctx, img, tags...)
		return err
	})
}

// Verify checks that tags of the configured image exist in its registry.
// Without tags it checks "latest" and the tag of the current commit.
func (d *Deployer) Verify(ctx context.Context, tags ...string) ([]registry.Result, error) {
	img, err := imageref.Parse(d.Config.ImageRepository())
	if err != nil {
		return nil, precondition(err)
	}
	if len(tags) == 0 {
		t, err := d.ResolveTags(ctx, ReleaseOptions{})
		if err != nil {
			return nil, err
		}
		tags = []string{imageref.LatestTag, t.SHA}
	}
	for _, tag := range tags {
		if err := imageref.ValidateTag(tag); err != nil {
			return nil, precondition(err)
		}
	}
	return d.Registry.Verify(ctx, img, tags...)
}
