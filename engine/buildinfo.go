package engine

import (
	"runtime/debug"
	"sync"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version    string
	CommitHash string
	BuildTime  string
	Modified   bool
}

// ReadBuildInfo returns the version control stamps embedded by the Go
// toolchain. Fields are empty for binaries built without them.
var ReadBuildInfo = sync.OnceValue(func() BuildInfo {
	info := BuildInfo{Version: "(devel)"}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if bi.Main.Version != "" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.CommitHash = s.Value
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
})
