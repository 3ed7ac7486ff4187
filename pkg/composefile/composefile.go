// Package composefile reads the parts of a Docker Compose file needed to
// find the images a project produces.
package composefile

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"
)

// DefaultFiles are the file names compose looks for, in order.
var DefaultFiles = []string{"compose.yaml", "compose.yml", "docker-compose.yaml", "docker-compose.yml"}

var ErrNotFound = errors.New("no compose file found")

type File struct {
	Path     string             `json:"-"`
	Name     string             `json:"name,omitempty"`
	Services map[string]Service `json:"services"`
}

type Service struct {
	Image         string `json:"image,omitempty"`
	Build         *Build `json:"build,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

// Build is the build section, given either as a context path or a mapping.
type Build struct {
	Context    string `json:"context,omitempty"`
	Dockerfile string `json:"dockerfile,omitempty"`
}

func (b *Build) UnmarshalJSON(data []byte) error {
	var ctx string
	if err := json.Unmarshal(data, &ctx); err == nil {
		b.Context = ctx
		return nil
	}
	type plain Build
	return json.Unmarshal(data, (*plain)(b))
}

// Find locates the compose file in dir. If name is non-empty only that file
// is considered.
func Find(dir, name string) (string, error) {
	candidates := DefaultFiles
	if name != "" {
		candidates = []string{name}
	}
	for _, c := range candidates {
		path := c
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, c)
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.WithStack(err)
		}
	}
	return "", errors.Mark(errors.Newf("%s: no compose file (tried %s)", dir, strings.Join(candidates, ", ")), ErrNotFound)
}

// Load reads and parses the compose file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read compose file")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	f.Path = path
	return f, nil
}

// Parse parses compose file contents.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WithStack(err)
	}
	return &f, nil
}

// ProjectName returns the effective project name: override if set, then the
// file's top-level name, then the normalized directory name.
func (f *File) ProjectName(override, dir string) string {
	switch {
	case override != "":
		return NormalizeProjectName(override)
	case f != nil && f.Name != "":
		return NormalizeProjectName(f.Name)
	default:
		return NormalizeProjectName(filepath.Base(dir))
	}
}

// Images lists the image repositories the project uses, sorted. Services
// with an explicit image contribute it (without tag). Services that are only
// built contribute the names compose v1 and v2 give their images.
func (f *File) Images(project string) []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]bool)
	for name, svc := range f.Services {
		if svc.Image != "" {
			seen[stripTag(svc.Image)] = true
			continue
		}
		if svc.Build != nil {
			seen[project+"-"+name] = true
			seen[project+"_"+name] = true
		}
	}
	images := make([]string, 0, len(seen))
	for img := range seen {
		images = append(images, img)
	}
	slices.Sort(images)
	return images
}

// BuiltImages lists the repositories of the images the project builds
// itself, sorted. Pulled images such as databases are not included.
func (f *File) BuiltImages(project string) []string {
	if f == nil {
		return nil
	}
	built := &File{Services: make(map[string]Service)}
	for name, svc := range f.Services {
		if svc.Build != nil {
			built.Services[name] = svc
		}
	}
	return built.Images(project)
}

var invalidProjectChars = regexp.MustCompile(`[^a-z0-9_-]`)

// NormalizeProjectName applies compose's project name rules.
func NormalizeProjectName(s string) string {
	s = strings.ToLower(s)
	return invalidProjectChars.ReplaceAllString(s, "")
}

func stripTag(image string) string {
	if i := strings.IndexByte(image, '@'); i >= 0 {
		image = image[:i]
	}
	slash := strings.LastIndexByte(image, '/')
	if i := strings.LastIndexByte(image, ':'); i > slash {
		image = image[:i]
	}
	return image
}
