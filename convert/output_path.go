package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"cssrebase/config"
	"cssrebase/state"
)

// buildOutputPath returns output file path for stylesheet. "src" is path of
// the stylesheet relative to processed directory or archive (just base name
// when single file was requested), "dst" is destination directory. Source
// directory structure is kept unless NoDirs is requested and file name comes
// from user-defined template when one is configured. Every path segment is
// cleaned and if requested transliterated, extension is always kept.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	src = filepath.FromSlash(src)
	ext := filepath.Ext(src)
	base := strings.TrimSuffix(filepath.Base(src), ext)
	outDir := determineOutputDir(src, dst, env)

	if field := env.Cfg.Rewrite.OutputNameTemplate; len(field) > 0 {
		values := Values{Name: base, Ext: ext}
		if dir := filepath.Dir(src); dir != "." {
			values.Dir = filepath.ToSlash(dir)
		}
		name, err := expandTemplate(config.OutputNameTemplateFieldName, field, values)
		if err != nil {
			env.Log.Warn("Unable to prepare output file name", zap.Error(err))
		} else if segments := splitPath(name); len(segments) > 0 {
			parts := []string{outDir}
			for _, seg := range segments[:len(segments)-1] {
				parts = append(parts, cleanPathSegment(seg, env))
			}
			parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+ext)
			return filepath.Join(parts...)
		}
	}
	return filepath.Join(outDir, cleanPathSegment(base, env)+ext)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	parts := []string{dst}
	for _, seg := range splitPath(filepath.Dir(src)) {
		parts = append(parts, cleanPathSegment(seg, env))
	}
	return filepath.Join(parts...)
}

// splitPath breaks path into segments dropping empty and "." ones.
func splitPath(path string) []string {
	var segments []string
	for seg := range strings.SplitSeq(filepath.ToSlash(path), "/") {
		if seg == "" || seg == "." {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Rewrite.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
