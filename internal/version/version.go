package version

import (
	"runtime/debug"
	"strings"
)

// Set through -ldflags "-X" by release builds.
var (
	Version = "0.1.0"
	Commit  = ""
)

// Resolve returns the version string. Builds without a stamped Commit get
// the VCS revision the toolchain embedded, shortened to 12 characters and
// suffixed with "-dirty" for modified trees.
func Resolve() string {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(Version, Commit, info)
}

func resolveVersion(base, commit string, info *debug.BuildInfo) string {
	if strings.TrimSpace(base) == "" {
		base = "0.0.0"
	}
	base = strings.TrimPrefix(base, "v")

	suffix := strings.TrimSpace(commit)
	if suffix == "" {
		suffix = vcsSuffix(info)
	}
	if suffix == "" {
		return base
	}
	return base + "+" + suffix
}

func vcsSuffix(info *debug.BuildInfo) string {
	if info == nil {
		return ""
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		revision += "-dirty"
	}
	return revision
}
