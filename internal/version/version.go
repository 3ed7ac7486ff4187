package version

import (
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the version of the deployctl binary.
// It is set using `go build -ldflags "-X coopins.dev/deployctl/internal/version.Version=v1.2.3"`.
var Version string

// Channel tells us which ReleaseChannel this build of deployctl is under
var Channel ReleaseChannel

type ReleaseChannel string

const (
	GA       ReleaseChannel = "ga"    // A tagged release in Semver: v1.10.0
	DevBuild ReleaseChannel = "devel" // devel-<commit>, with -modified for a dirty tree
	unknown  ReleaseChannel = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string
	Channel   ReleaseChannel
	GoVersion string
	Revision  string // empty unless built from a git checkout
	Modified  bool
}

var build Build

func init() {
	info, _ := debug.ReadBuildInfo()
	build = fromBuildInfo(Version, info)
	Version, Channel = build.Version, build.Channel
}

// Current describes the running binary.
func Current() Build { return build }

func fromBuildInfo(linked string, info *debug.BuildInfo) Build {
	b := Build{Version: linked}
	if info != nil {
		b.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Revision = s.Value
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}

	if b.Version == "" {
		b.Version = "devel"
		if b.Revision != "" {
			b.Version += "-" + b.Revision
			if b.Modified {
				b.Version += "-modified"
			}
		}
	}
	b.Channel = channelFor(b.Version)
	return b
}

func channelFor(version string) ReleaseChannel {
	switch {
	case semver.IsValid(version):
		return GA
	case version == "devel" || strings.HasPrefix(version, "devel-"):
		return DevBuild
	default:
		return unknown
	}
}
