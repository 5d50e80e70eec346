// Package version holds build metadata for the pyimports binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/sieverett/Python-Import-Analyzer/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

const (
	develVersion = "(devel)"
	shortHashLen = 12
)

// InitBinaryVersion fills unset fields from the module build info embedded by
// go install, so binaries built without ldflags still report something useful.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "unknown" {
				Commit = setting.Value
				if len(Commit) > shortHashLen {
					Commit = Commit[:shortHashLen]
				}
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String formats the version line printed by the version command.
func String() string {
	return fmt.Sprintf("pyimports %s (commit: %s, built: %s)", Version, Commit, Date)
}
