// Package version provides build metadata for the ytfeed binary.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue = "unknown"
	devVersion   = "dev"
)

// These variables can be set at build time using -ldflags
var (
	Version   = devVersion
	GitCommit = unknownValue
	BuildDate = unknownValue
)

// Info is the build metadata served on /version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Get returns build metadata, falling back to the embedded VCS stamp for
// binaries built without -ldflags.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if info.Version == devVersion {
		if bi, ok := debug.ReadBuildInfo(); ok {
			fromBuildInfo(&info, bi)
		}
	}
	info.Version = strings.TrimPrefix(info.Version, "v")
	return info
}

func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if v := bi.Main.Version; v != "" && v != "(devel)" && info.Version == devVersion {
		info.Version = v
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == unknownValue {
				info.GitCommit = shortCommit(setting.Value)
			}
		case "vcs.time":
			if info.BuildDate == unknownValue {
				info.BuildDate = setting.Value
			}
		}
	}
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// GetVersion returns just the version string
func GetVersion() string {
	return Get().Version
}

// GetFullVersion returns the version with the short commit appended when known.
func GetFullVersion() string {
	info := Get()
	if info.GitCommit != unknownValue {
		return info.Version + "-" + info.GitCommit
	}
	return info.Version
}
