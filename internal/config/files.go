// Package config loads the project's deployctl.toml, layered over built-in
// defaults and DEPLOYCTL_* environment variables.
package config

import (
	_ "embed"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"coopins.dev/deployctl/pkg/imageref"
)

const (
	// FileName is the configuration file looked up in the project root.
	FileName = "deployctl.toml"

	// EnvPrefix prefixes environment overrides. Sections and keys are
	// separated by a double underscore: DEPLOYCTL_IMAGE__NAME sets image.name.
	EnvPrefix = "DEPLOYCTL_"
)

//go:embed defaults.toml
var defaults []byte

var tomlParser = toml.Parser()

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"upload.local_images": true,
}

// Load reads the configuration for the project rooted at root. If path is
// empty, root/deployctl.toml is used when it exists; an explicit path must
// exist.
func Load(root, path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaults), tomlParser); err != nil {
		return nil, errors.Wrap(err, "unable to parse default config")
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	if err := k.Load(file.Provider(path), tomlParser); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "unable to parse config file %s", path)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "unable to read environment")
	}

	cfg := &Config{}
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"})
	if err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal config")
	}

	cfg.resolve(root)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return key, items
	}
	return key, value
}

// resolve fills in the values derived from the project directory.
func (c *Config) resolve(root string) {
	if c.Image.Name == "" {
		c.Image.Name = imageref.Sanitize(filepath.Base(root))
	}
	if c.Image.Context == "" {
		c.Image.Context = "."
	}
	if c.Hook.Name == "" {
		c.Hook.Name = "post-commit"
	}
	if c.Compose.Command == "" {
		c.Compose.Command = "docker-compose"
	}
	if c.Upload.Repository == "" {
		c.Upload.Repository = path.Base(c.Image.Name)
	}
	if len(c.Upload.LocalImages) == 0 {
		c.Upload.LocalImages = []string{
			c.Image.Name + ":" + imageref.LatestTag,
			c.Image.Name + "_web:" + imageref.LatestTag,
		}
	}
	if c.Upload.VersionFormat == "" {
		c.Upload.VersionFormat = imageref.DefaultVersionFormat
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := imageref.Parse(c.ImageRepository()); err != nil {
		return errors.Wrap(err, "image.name/image.registry")
	}
	if c.Hook.Source == "" {
		return errors.New("hook.source must be set")
	}
	if strings.ContainsRune(c.Hook.Name, filepath.Separator) {
		return errors.Newf("hook.name %q must be a file name", c.Hook.Name)
	}
	if c.Push.Retries < 0 {
		return errors.Newf("push.retries must not be negative, got %d", c.Push.Retries)
	}
	sample := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	if err := imageref.ValidateTag(imageref.VersionTag(sample, c.Upload.VersionFormat)); err != nil {
		return errors.Wrapf(err, "upload.version_format %q", c.Upload.VersionFormat)
	}
	return nil
}

// ImageRepository is the repository images are built and pushed as.
func (c *Config) ImageRepository() string {
	return imageref.Join(c.Image.Registry, c.Image.Name)
}

// HookSource is the absolute path of the hook script.
func (c *Config) HookSource(root string) string {
	if filepath.IsAbs(c.Hook.Source) {
		return c.Hook.Source
	}
	return filepath.Join(root, filepath.FromSlash(c.Hook.Source))
}

// TOML renders the configuration.
func (c *Config) TOML() ([]byte, error) {
	data, err := gotoml.Marshal(c)
	return data, errors.Wrap(err, "marshal config")
}
