package deploy

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"

	"coopins.dev/deployctl/pkg/docker"
	"coopins.dev/deployctl/pkg/imageref"
)

// TokenEnv holds a Docker Hub access token used for non-interactive logins.
const TokenEnv = "DOCKERHUB_TOKEN"

// ErrNoLocalImage is reported when uploading without building and none of
// the configured local images exist.
var ErrNoLocalImage = errors.New("no local image to upload")

// UploadOptions configures Upload.
type UploadOptions struct {
	Username string
	// SkipBuild uploads an existing local image instead of building one.
	SkipBuild bool
	// Version is the version tag. Defaults to a timestamp.
	Version string
	Verify  bool
}

// UploadResult describes a completed upload.
type UploadResult struct {
	Source  string   // the local image that was uploaded
	Image   imageref.Image
	Version string
	Refs    []string // pushed references, version first
}

// Upload publishes the application image to Docker Hub under
// "<username>/<repository>" with a version tag and "latest".
func (d *Deployer) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.Username == "" {
		return nil, precondition(errors.WithHint(errors.New("missing Docker Hub username"),
			"usage: deployctl upload <dockerhub-username>"))
	}
	target, err := imageref.DockerHub(opts.Username, d.Config.Upload.Repository)
	if err != nil {
		return nil, precondition(err)
	}
	version, err := d.version(opts.Version)
	if err != nil {
		return nil, precondition(err)
	}

	err = d.step("Checking the Docker daemon", func() error {
		v, err := d.Docker.Ping(ctx)
		if err == nil {
			log.Debug().Str("version", v).Msg("docker daemon is running")
		}
		return err
	})
	if err != nil {
		return nil, precondition(err)
	}

	var source string
	if opts.SkipBuild {
		if source, err = d.findLocalImage(ctx); err != nil {
			return nil, err
		}
	}

	if err := d.login(ctx, opts.Username, target); err != nil {
		return nil, err
	}

	if !opts.SkipBuild {
		local, err := imageref.Parse(d.Config.Image.Name)
		if err != nil {
			return nil, precondition(err)
		}
		source = local.Latest()
		err = d.step("Building "+source, func() error {
			return d.Docker.Build(ctx, d.buildOptions([]string{source}, "", false))
		})
		if err != nil {
			return nil, err
		}
	}

	res := &UploadResult{
		Source:  source,
		Image:   target,
		Version: version,
		Refs:    []string{target.Ref(version), target.Latest()},
	}
	for _, ref := range res.Refs {
		err := d.step("Tagging "+ref, func() error {
			return d.Docker.Tag(ctx, source, ref)
		})
		if err != nil {
			return nil, err
		}
	}
	if err := d.pushAll(ctx, res.Refs); err != nil {
		return nil, err
	}
	if err := d.verify(ctx, opts.Verify, target, version, imageref.LatestTag); err != nil {
		return nil, err
	}

	d.printf("Uploaded %s as:\n", source)
	for _, ref := range res.Refs {
		d.printf("  %s\n", ref)
	}
	return res, nil
}

// version validates v or derives a timestamp version.
func (d *Deployer) version(v string) (string, error) {
	if v == "" {
		return imageref.VersionTag(d.now(), d.Config.Upload.VersionFormat), nil
	}
	if strings.HasPrefix(v, "v") && len(v) > 1 && v[1] >= '0' && v[1] <= '9' && !semver.IsValid(v) {
		return "", errors.Newf("version %q is not a valid semantic version", v)
	}
	if err := imageref.ValidateTag(v); err != nil {
		return "", err
	}
	return v, nil
}

// findLocalImage returns the first configured local image that exists.
func (d *Deployer) findLocalImage(ctx context.Context) (string, error) {
	var found string
	err := d.step("Looking for a local image", func() error {
		for _, ref := range d.Config.Upload.LocalImages {
			ok, err := d.Docker.ImageExists(ctx, ref)
			if err != nil {
				return err
			}
			if ok {
				found = ref
				return nil
			}
		}
		err := errors.Newf("no local image to upload: tried %s", strings.Join(d.Config.Upload.LocalImages, ", "))
		err = errors.Mark(err, ErrNoLocalImage)
		return errors.WithHint(err, "build the image first or run without --skip-build")
	})
	if err != nil {
		if errors.Is(err, ErrNoLocalImage) {
			return "", precondition(err)
		}
		return "", err
	}
	log.Debug().Str("image", found).Msg("using existing local image")
	return found, nil
}

// login authenticates with Docker Hub. A token in the environment is used
// non-interactively; otherwise existing credentials are reused, and failing
// that docker prompts for a password.
func (d *Deployer) login(ctx context.Context, username string, target imageref.Image) error {
	id := d.Tracker.Add("Logging in to Docker Hub as " + username)

	var err error
	if token := d.getenv(TokenEnv); token != "" {
		err = d.Docker.Login(ctx, docker.LoginOptions{Username: username, Password: token})
	} else if ok, cerr := d.Registry.HasCredentials(target); cerr == nil && ok {
		d.Tracker.Skip(id, "already logged in")
		return nil
	} else {
		if cerr != nil {
			log.Debug().Err(cerr).Msg("unable to read stored credentials")
		}
		err = d.Docker.Login(ctx, docker.LoginOptions{Username: username})
	}

	if err != nil {
		d.Tracker.Fail(id, err)
		return errors.WithHint(err,
			"set "+TokenEnv+" to an access token or run 'docker login' yourself")
	}
	d.Tracker.Done(id)
	return nil
}
