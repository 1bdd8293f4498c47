package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cssrebase/uri"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// SlashBase converts a location given on command line into a base usable
// with path algebra. URLs are kept, filesystem paths are made absolute and
// slash separated. Base gets a trailing slash when dir is set, location ends
// with separator or names existing directory.
func SlashBase(location string, dir bool) (string, error) {
	if len(location) == 0 {
		return "", nil
	}
	if _, _, ok := uri.Protocol(location); ok {
		return uri.NormalizeSlashes(location), nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("unable to resolve base location (%s): %w", location, err)
	}
	if !dir {
		fi, err := os.Stat(abs)
		dir = strings.HasSuffix(location, "/") || strings.HasSuffix(location, string(filepath.Separator)) ||
			(err == nil && fi.IsDir())
	}
	base := filepath.ToSlash(abs)
	if dir && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return uri.NormalizeSlashes(base), nil
}

// TargetBase returns base rewritten stylesheet should be relative to: explicit
// base from command line, configured site root or location of the produced
// stylesheet itself, in this order.
func (e *LocalEnv) TargetBase(output string) (string, error) {
	if len(e.ToBase) > 0 {
		return e.ToBase, nil
	}
	if e.Cfg != nil {
		root, err := e.Cfg.Rewrite.SiteRootBase()
		if err != nil {
			return "", err
		}
		if len(root) > 0 {
			return root, nil
		}
	}
	return output, nil
}

// SourceBase returns base references of the stylesheet are relative to.
func (e *LocalEnv) SourceBase(input string) string {
	if len(e.FromBase) > 0 {
		return e.FromBase
	}
	return input
}
