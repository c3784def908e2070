package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Module is the import path reported by the version command.
const Module = "github.com/dendrascience/dataminer"

// Set with -ldflags "-X github.com/dendrascience/dataminer/version.Version=...".
// Unset values fall back to the VCS stamp the go tool embeds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is what a dataminer binary knows about how it was built.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	// Dirty is set when the binary was built from a tree with local changes.
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Package   string `json:"package"`
}

// buildSettings returns the -buildvcs stamp, empty outside a VCS checkout.
func buildSettings() (mainVersion string, settings map[string]string) {
	settings = make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", settings
	}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return info.Main.Version, settings
}

func linked(v, unset string) bool {
	return v != "" && v != unset
}

// GetVersion is the release tag from -ldflags, else the module version of
// an installed binary, else "development".
func GetVersion() string {
	if linked(Version, "dev") {
		return Version
	}
	if v, _ := buildSettings(); v != "" && v != "(devel)" {
		return v
	}
	return "development"
}

// GetInfo collects everything PrintVersion and version --json report.
func GetInfo() Info {
	_, settings := buildSettings()
	info := Info{
		Version:   GetVersion(),
		Commit:    Commit,
		Date:      Date,
		Dirty:     settings["vcs.modified"] == "true",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Package:   Module,
	}
	if !linked(Commit, "unknown") {
		info.Commit = "unknown"
		if rev, ok := settings["vcs.revision"]; ok {
			info.Commit = rev
		}
	}
	if !linked(Date, "unknown") {
		info.Date = "unknown"
		if t, ok := settings["vcs.time"]; ok {
			info.Date = t
		}
	}
	return info
}

// GetFullVersion is the one-line form used in --version and the watch banner,
// e.g. "v1.0.0 (0123456, built 2026-01-02T03:04:05Z)".
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit == "unknown" || len(info.Commit) <= 7 {
		return info.Version
	}
	commit := info.Commit[:7]
	if info.Dirty {
		commit += "+dirty"
	}
	if info.Date == "unknown" {
		return fmt.Sprintf("%s (%s)", info.Version, commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", info.Version, commit, info.Date)
}

// PrintVersion writes the version command's text output.
func PrintVersion(w io.Writer, appName string) {
	info := GetInfo()
	fmt.Fprintf(w, "%s version %s\n", appName, GetFullVersion())
	fmt.Fprintf(w, "Package: %s\n", info.Package)
	fmt.Fprintf(w, "Commit: %s\n", info.Commit)
	fmt.Fprintf(w, "Build Date: %s\n", info.Date)
	fmt.Fprintf(w, "Go: %s %s\n", info.GoVersion, info.Platform)
}
