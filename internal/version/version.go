package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/opengolfcoach/nova-bridge/internal/version.Version=v0.3.0 \
//	                   -X github.com/opengolfcoach/nova-bridge/internal/version.Commit=abc1234"
//
// Missing values are filled from the embedded VCS stamp, then from "dev".
var (
	// Version is the release of the bridge
	Version = ""
	// Commit is the short git revision
	Commit = ""
	// BuildDate is the commit time, when known
	BuildDate = ""
)

func init() {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	Version, Commit, BuildDate = resolve(Version, Commit, BuildDate, settings)
}

// resolve fills empty version fields from build settings
func resolve(version, commit, date string, settings []debug.BuildSetting) (string, string, string) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if commit == "" {
		if rev := vcs["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if vcs["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			commit = rev
		}
	}

	var stamped time.Time
	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		stamped = t.UTC()
	}
	if date == "" && !stamped.IsZero() {
		date = stamped.Format(time.RFC3339)
	}
	if version == "" {
		if !stamped.IsZero() {
			version = "dev-" + stamped.Format("20060102")
		} else {
			version = "dev"
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	return version, commit, date
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Fields returns label/value pairs for the version command and startup banner
func Fields() [][2]string {
	fields := [][2]string{
		{"Version", Version},
		{"Commit", Commit},
	}
	if BuildDate != "" {
		fields = append(fields, [2]string{"Built", BuildDate})
	}
	return append(fields,
		[2]string{"Go", runtime.Version()},
		[2]string{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
	)
}
