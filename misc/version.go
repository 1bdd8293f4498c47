// Package misc provides program identity taken from build information.
package misc

import (
	"runtime/debug"
	"strings"
	"sync"
)

const appName = "cssrebase"

var buildInfo = sync.OnceValue(func() *debug.BuildInfo {
	bi, _ := debug.ReadBuildInfo()
	return bi
})

// GetAppName returns program name.
func GetAppName() string {
	return appName
}

// GetVersion returns module version the program was built from.
func GetVersion() string {
	if bi := buildInfo(); bi != nil && bi.Main.Version != "" {
		return strings.TrimPrefix(bi.Main.Version, "v")
	}
	return "devel"
}

// GetGitHash returns VCS revision the program was built from, if known.
func GetGitHash() string {
	bi := buildInfo()
	if bi == nil {
		return "unknown"
	}
	hash, dirty := "unknown", false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			hash = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	if dirty {
		hash += "-dirty"
	}
	return hash
}
