// Package imageref implements the image naming convention shared by all
// deployment commands: a repository plus the "latest", "sha-<short>" and
// timestamp version tags.
package imageref

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-containerregistry/pkg/name"
)

const (
	// LatestTag is applied to every build.
	LatestTag = "latest"

	// ManualRevision stands in for the short revision when none is available.
	ManualRevision = "manual"

	// DefaultVersionFormat is the time layout used for upload version tags.
	DefaultVersionFormat = "20060102-150405"

	shaPrefix = "sha-"
)

// Image is a validated image repository, such as "coop-insurance" or
// "registry.example.com/team/coop-insurance".
type Image struct {
	repo name.Repository
	raw  string
}

// Parse validates repo as an image repository. The string is kept as given
// so the docker CLI sees the same name the user configured.
func Parse(repo string) (Image, error) {
	if repo == "" {
		return Image{}, errors.New("empty image name")
	}
	r, err := name.NewRepository(repo)
	if err != nil {
		return Image{}, errors.Wrapf(err, "invalid image name %q", repo)
	}
	return Image{repo: r, raw: repo}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(repo string) Image {
	img, err := Parse(repo)
	if err != nil {
		panic(err)
	}
	return img
}

// Join prefixes name with registry (which may include a namespace).
func Join(registry, name string) string {
	registry = strings.TrimSuffix(registry, "/")
	if registry == "" {
		return name
	}
	return registry + "/" + name
}

// DockerHub returns the image repo in the Docker Hub namespace of username.
func DockerHub(username, repo string) (Image, error) {
	if username == "" {
		return Image{}, errors.New("empty Docker Hub username")
	}
	if strings.Contains(username, "/") {
		return Image{}, errors.Newf("invalid Docker Hub username %q", username)
	}
	return Parse(username + "/" + repo)
}

// String returns the repository as configured.
func (i Image) String() string { return i.raw }

// Registry is the registry host the image lives in, e.g. "index.docker.io".
func (i Image) Registry() string { return i.repo.RegistryStr() }

// Repository is the underlying go-containerregistry repository.
func (i Image) Repository() name.Repository { return i.repo }

// Ref returns the "<repo>:<tag>" reference.
func (i Image) Ref(tag string) string { return i.raw + ":" + tag }

// Latest returns the "<repo>:latest" reference.
func (i Image) Latest() string { return i.Ref(LatestTag) }

// Tag parses the "<repo>:<tag>" reference for registry operations.
func (i Image) Tag(tag string) (name.Tag, error) {
	t, err := name.NewTag(i.Ref(tag))
	if err != nil {
		return name.Tag{}, errors.Wrapf(err, "invalid tag %q", tag)
	}
	return t, nil
}

// SHATag returns the tag identifying a commit, "sha-<short>". An empty
// revision yields "sha-manual".
func SHATag(short string) string {
	if short == "" {
		short = ManualRevision
	}
	return shaPrefix + short
}

// IsManual reports whether tag is the placeholder used without a revision.
func IsManual(tag string) bool {
	return tag == shaPrefix+ManualRevision
}

// VersionTag formats t as a version tag using layout, which defaults to
// DefaultVersionFormat.
func VersionTag(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultVersionFormat
	}
	return t.Format(layout)
}

var tagRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)

// ValidateTag reports whether tag is usable as a docker tag.
func ValidateTag(tag string) error {
	if !tagRe.MatchString(tag) {
		return errors.Newf("invalid tag %q", tag)
	}
	return nil
}

var invalidNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Sanitize turns s (typically a directory name) into a valid repository
// name component.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = invalidNameChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-._")
	if s == "" {
		return "app"
	}
	return s
}
