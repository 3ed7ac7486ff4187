package config

// Config describes the configuration structure we support.
type Config struct {
	Image   Image   `koanf:"image" toml:"image"`
	Hook    Hook    `koanf:"hook" toml:"hook"`
	Compose Compose `koanf:"compose" toml:"compose"`
	Upload  Upload  `koanf:"upload" toml:"upload"`
	Push    Push    `koanf:"push" toml:"push"`
	Tags    Tags    `koanf:"tags" toml:"tags"`
}

type Image struct {
	// Name is the local image repository. Defaults to the project directory name.
	Name string `koanf:"name" toml:"name"`

	// Registry, if set, is prefixed to Name for pushes,
	// e.g. "registry.example.com/coop".
	Registry string `koanf:"registry" toml:"registry"`

	Dockerfile string `koanf:"dockerfile" toml:"dockerfile"`
	Context    string `koanf:"context" toml:"context"`
	Platform   string `koanf:"platform" toml:"platform"`
}

type Hook struct {
	// Source is the hook script to install, relative to the project root.
	Source string `koanf:"source" toml:"source"`
	Name   string `koanf:"name" toml:"name"`
}

type Compose struct {
	// Command is the compose executable, "docker-compose" or "docker compose".
	Command string `koanf:"command" toml:"command"`
	File    string `koanf:"file" toml:"file"`
	Project string `koanf:"project" toml:"project"`
}

type Upload struct {
	// Repository is the Docker Hub repository name. Defaults to the image name.
	Repository string `koanf:"repository" toml:"repository"`

	// LocalImages are the local references tried, in order, when uploading
	// without building.
	LocalImages []string `koanf:"local_images" toml:"local_images"`

	// VersionFormat is the time layout of the version tag.
	VersionFormat string `koanf:"version_format" toml:"version_format"`
}

type Push struct {
	// Retries is how many times a failed push is retried.
	Retries int  `koanf:"retries" toml:"retries"`
	Verify  bool `koanf:"verify" toml:"verify"`
}

type Tags struct {
	// RequireRevision makes a missing git revision an error instead of
	// falling back to the "sha-manual" tag.
	RequireRevision bool `koanf:"require_revision" toml:"require_revision"`
}
