// Package archive walks and repacks zip archives holding stylesheets.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk, file is the entry which satisfies match condition. If an error is
// returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks all files in the archive located under pattern, calling walkFn
// for each item. Pattern is either an entry name or a directory inside
// archive, empty pattern selects everything. Archives with entries which
// could escape extraction directory (Zip Slip) are rejected.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && Under(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Under reports whether entry name is pattern itself or is located in
// directory pattern.
func Under(name, pattern string) bool {
	if len(pattern) == 0 || name == pattern {
		return true
	}
	return strings.HasPrefix(name, strings.TrimSuffix(pattern, "/")+"/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
