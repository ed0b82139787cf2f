// Package version provides build information for the goinvaders emulator
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Machine names the emulated hardware
const Machine = "Taito/Midway Space Invaders (Intel 8080 @ 2 MHz)"

// runtimeModules are the third-party modules whose versions matter when
// reporting a display or sound problem
var runtimeModules = []string{
	"github.com/hajimehoshi/ebiten/v2",
	"github.com/ebitengine/oto/v3",
	"github.com/go-audio/wav",
	"github.com/hajimehoshi/go-mp3",
}

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string            `json:"version"`
	GitCommit string            `json:"git_commit"`
	BuildTime string            `json:"build_time"`
	GoVersion string            `json:"go_version"`
	Platform  string            `json:"platform"`
	Arch      string            `json:"arch"`
	Modified  bool              `json:"modified"`
	Modules   map[string]string `json:"modules"`
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() BuildInfo {
	buildInfo := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					buildInfo.GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					buildInfo.BuildTime = setting.Value
				}
			case "vcs.modified":
				buildInfo.Modified = setting.Value == "true"
			}
		}
		buildInfo.Modules = moduleVersions(info.Deps)
	}

	return buildInfo
}

// moduleVersions picks the runtime modules out of the dependency list,
// following replacements
func moduleVersions(deps []*debug.Module) map[string]string {
	versions := make(map[string]string)
	for _, dep := range deps {
		for _, path := range runtimeModules {
			if dep.Path != path {
				continue
			}
			if dep.Replace != nil {
				versions[path] = dep.Replace.Version + " (replaced)"
			} else {
				versions[path] = dep.Version
			}
		}
	}
	return versions
}

// shortCommit trims a revision to seven characters
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		buildInfo := GetBuildInfo()
		if buildInfo.GitCommit != "unknown" {
			return "dev-" + shortCommit(buildInfo.GitCommit)
		}
	}
	return Version
}

// GetDetailedVersion returns a one-line version string
func GetDetailedVersion() string {
	buildInfo := GetBuildInfo()

	versionStr := fmt.Sprintf("goinvaders version %s", buildInfo.Version)

	if buildInfo.GitCommit != "unknown" {
		versionStr += fmt.Sprintf(" (commit %s", shortCommit(buildInfo.GitCommit))
		if buildInfo.Modified {
			versionStr += ", modified"
		}
		versionStr += ")"
	}

	if buildInfo.BuildTime != "unknown" {
		if parsedTime, err := time.Parse(time.RFC3339, buildInfo.BuildTime); err == nil {
			versionStr += fmt.Sprintf(" built on %s", parsedTime.Format("2006-01-02 15:04:05"))
		} else {
			versionStr += fmt.Sprintf(" built on %s", buildInfo.BuildTime)
		}
	}

	return versionStr + fmt.Sprintf(" with %s for %s/%s", buildInfo.GoVersion, buildInfo.Platform, buildInfo.Arch)
}

// PrintBuildInfo writes formatted build information to w
func PrintBuildInfo(w io.Writer) {
	buildInfo := GetBuildInfo()

	fmt.Fprintf(w, "goinvaders - %s\n", Machine)
	fmt.Fprintf(w, "Version:     %s\n", buildInfo.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", buildInfo.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", buildInfo.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", buildInfo.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", buildInfo.Platform, buildInfo.Arch)

	if len(buildInfo.Modules) == 0 {
		return
	}
	paths := make([]string, 0, len(buildInfo.Modules))
	for path := range buildInfo.Modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	fmt.Fprintf(w, "Modules:\n")
	for _, path := range paths {
		fmt.Fprintf(w, "  %-34s %s\n", strings.TrimPrefix(path, "github.com/"), buildInfo.Modules[path])
	}
}
