// Package uri implements lexical path algebra used to move relative
// references between base locations. Nothing here touches the filesystem,
// all operations work on slash separated strings and never fail.
package uri

import (
	"regexp"
	"strings"
)

var (
	// collapses runs of slashes unless they follow a colon (scheme://)
	slashesPattern = regexp.MustCompile(`([^:])/+`)
	// scheme://host, unanchored, host token runs up to the next slash
	protocolPattern = regexp.MustCompile(`([^:/]*)://([^/]*)`)
)

// NormalizeSlashes collapses every run of '/' not immediately preceded by
// ':' into a single '/'. "http://a//b///c" becomes "http://a/b/c".
func NormalizeSlashes(path string) string {
	if !strings.Contains(path, "//") {
		return path
	}
	return slashesPattern.ReplaceAllString(path, "${1}/")
}

// IsAbsolute reports whether path must never be rewritten: it starts with
// '/' (this includes protocol relative "//host"), carries a "data:" scheme
// or contains a scheme://host token.
func IsAbsolute(path string) bool {
	return strings.HasPrefix(path, "/") ||
		strings.HasPrefix(path, "data:") ||
		protocolPattern.MatchString(path)
}

// Protocol extracts scheme and host from the first scheme://host token of
// path. ok is false when path has none.
func Protocol(path string) (scheme, host string, ok bool) {
	m := protocolPattern.FindStringSubmatch(path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// sameProtocol compares scheme and host tokens exactly. Host token includes
// port if one is present.
func sameProtocol(from, to string) bool {
	fs, fh, _ := Protocol(from)
	ts, th, ok := Protocol(to)
	return ok && fs == ts && fh == th
}

// Absolute resolves path against directory base. The last segment of base is
// always discarded, so "/a/b.css" and "/a/" denote the same directory.
//
// ".." segments that have nothing left to remove are dropped silently. The
// leading empty segment of an absolute base counts as a segment, so
// backtracking far enough produces a relative result instead of an error.
func Absolute(path, base string) string {
	path = strings.TrimPrefix(path, "./")
	if IsAbsolute(path) {
		return path
	}

	parts := strings.Split(base, "/")
	parts = parts[:len(parts)-1]

	for seg := range strings.SplitSeq(path, "/") {
		if seg == ".." {
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "/")
}

// Relative computes the shortest path leading from directory base to
// absPath. Both must share the same root for the result to be meaningful,
// differences in protocol are not detected here (see Rebase).
//
// A trailing slash on absPath is kept ("img/" stays "img/"), a result made
// only of "../" steps loses its last slash.
func Relative(absPath, base string) string {
	dir := base[:strings.LastIndex(base, "/")+1]
	if dir == "" && strings.HasPrefix(absPath, "/") {
		dir = "/"
	}

	common := 0
	for common < len(dir) && common < len(absPath) && dir[common] == absPath[common] {
		common++
	}
	// never split inside a segment
	cut := strings.LastIndex(dir[:common], "/") + 1

	ups := strings.Count(dir[cut:], "/")
	rest := absPath[cut:]

	var sb strings.Builder
	sb.Grow(ups*3 + len(rest))
	for range ups {
		sb.WriteString("../")
	}
	if rest == "" {
		return strings.TrimSuffix(sb.String(), "/")
	}
	sb.WriteString(rest)
	return sb.String()
}

// Rebase converts relative reference ref so that it points at the same
// target when resolved against toBase as it did against fromBase. Absolute
// references are returned as is.
//
// When fromBase carries a scheme://host and toBase either does not or
// carries a different one, a relative result would be ambiguous and ref is
// resolved against fromBase instead.
func Rebase(ref, fromBase, toBase string) string {
	if IsAbsolute(ref) {
		return ref
	}
	ref = NormalizeSlashes(ref)

	if protocolPattern.MatchString(fromBase) && !sameProtocol(fromBase, toBase) {
		return Absolute(ref, fromBase)
	}
	return Relative(Absolute(ref, fromBase), toBase)
}
