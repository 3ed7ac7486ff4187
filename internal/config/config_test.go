package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

func projectDir(c *qt.C, name string) string {
	root := filepath.Join(c.TempDir(), name)
	c.Assert(os.MkdirAll(root, 0755), qt.IsNil)
	return root
}

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)
	root := projectDir(c, "Coop Insurance")

	cfg, err := Load(root, "")
	c.Assert(err, qt.IsNil)

	want := &Config{
		Image:   Image{Name: "coop-insurance", Context: "."},
		Hook:    Hook{Source: "scripts/git-hooks/post-commit", Name: "post-commit"},
		Compose: Compose{Command: "docker-compose"},
		Upload: Upload{
			Repository:    "coop-insurance",
			LocalImages:   []string{"coop-insurance:latest", "coop-insurance_web:latest"},
			VersionFormat: "20060102-150405",
		},
	}
	c.Assert(cfg, qt.CmpEquals(), want)
	c.Assert(cfg.ImageRepository(), qt.Equals, "coop-insurance")
	c.Assert(cfg.HookSource(root), qt.Equals, filepath.Join(root, "scripts", "git-hooks", "post-commit"))
}

func TestLoadFile(t *testing.T) {
	c := qt.New(t)
	root := projectDir(c, "app")
	err := os.WriteFile(filepath.Join(root, FileName), []byte(`
[image]
name = "coop-insurance"
registry = "registry.example.com/coop"
dockerfile = "deploy/Dockerfile"

[compose]
command = "docker compose"

[upload]
local_images = ["coop-insurance:latest"]

[push]
retries = 2
verify = true
`), 0644)
	c.Assert(err, qt.IsNil)

	cfg, err := Load(root, "")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.ImageRepository(), qt.Equals, "registry.example.com/coop/coop-insurance")
	c.Assert(cfg.Image.Dockerfile, qt.Equals, "deploy/Dockerfile")
	c.Assert(cfg.Compose.Command, qt.Equals, "docker compose")
	c.Assert(cfg.Upload.LocalImages, qt.DeepEquals, []string{"coop-insurance:latest"})
	c.Assert(cfg.Upload.Repository, qt.Equals, "coop-insurance")
	c.Assert(cfg.Push, qt.Equals, Push{Retries: 2, Verify: true})
	// Unset keys keep their defaults.
	c.Assert(cfg.Hook.Name, qt.Equals, "post-commit")
}

func TestLoadEnv(t *testing.T) {
	c := qt.New(t)
	root := projectDir(c, "app")
	c.Setenv("DEPLOYCTL_IMAGE__NAME", "from-env")
	c.Setenv("DEPLOYCTL_PUSH__RETRIES", "3")
	c.Setenv("DEPLOYCTL_TAGS__REQUIRE_REVISION", "true")
	c.Setenv("DEPLOYCTL_UPLOAD__LOCAL_IMAGES", "a:latest, b:latest")

	cfg, err := Load(root, "")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Image.Name, qt.Equals, "from-env")
	c.Assert(cfg.Push.Retries, qt.Equals, 3)
	c.Assert(cfg.Tags.RequireRevision, qt.IsTrue)
	c.Assert(cfg.Upload.LocalImages, qt.DeepEquals, []string{"a:latest", "b:latest"})
}

func TestLoadExplicitPath(t *testing.T) {
	c := qt.New(t)
	root := projectDir(c, "app")

	_, err := Load(root, filepath.Join(root, "missing.toml"))
	c.Assert(err, qt.ErrorMatches, "unable to parse config file .*missing.toml: .*")

	path := filepath.Join(c.TempDir(), "other.toml")
	c.Assert(os.WriteFile(path, []byte("[image]\nname = \"other\"\n"), 0644), qt.IsNil)
	cfg, err := Load(root, path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Image.Name, qt.Equals, "other")
}

func TestLoadInvalid(t *testing.T) {
	c := qt.New(t)
	tests := map[string]string{
		"syntax":         "[image\nname=",
		"image name":     "[image]\nname = \"Not/Valid:Name\"\n",
		"retries":        "[push]\nretries = -1\n",
		"version format": "[upload]\nversion_format = \"2006 01 02\"\n",
		"hook name":      "[hook]\nname = \"a/b\"\n",
	}
	for name, data := range tests {
		c.Run(name, func(c *qt.C) {
			root := projectDir(c, "app")
			c.Assert(os.WriteFile(filepath.Join(root, FileName), []byte(data), 0644), qt.IsNil)
			_, err := Load(root, "")
			c.Assert(err, qt.Not(qt.IsNil))
		})
	}
}

func TestTOML(t *testing.T) {
	c := qt.New(t)
	cfg, err := Load(projectDir(c, "app"), "")
	c.Assert(err, qt.IsNil)

	data, err := cfg.TOML()
	c.Assert(err, qt.IsNil)
	out := string(data)
	for _, want := range []string{"[image]", "name = 'app'", "[upload]", "retries = 0"} {
		c.Assert(strings.Contains(out, want), qt.IsTrue, qt.Commentf("missing %q in\n%s", want, out))
	}

	// The rendered configuration loads back to the same values.
	root := projectDir(c, "app")
	c.Assert(os.WriteFile(filepath.Join(root, FileName), data, 0644), qt.IsNil)
	again, err := Load(root, "")
	c.Assert(err, qt.IsNil)
	c.Assert(cmp.Diff(cfg, again), qt.Equals, "")
}

func TestExampleFile(t *testing.T) {
	c := qt.New(t)
	root := projectDir(c, "app")

	cfg, err := Load(root, filepath.Join("..", "..", "deployctl.example.toml"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Image.Name, qt.Equals, "coop-insurance")
	c.Assert(cfg.Upload.LocalImages, qt.DeepEquals, []string{"coop-insurance:latest", "coop-insurance_web:latest"})
	c.Assert(cfg.Push.Retries, qt.Equals, 2)
}
