//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in file names. Leading dots
// are removed too so result is never hidden.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym == 0 || sym == os.PathSeparator || sym == os.PathListSeparator {
			return -1
		}
		return sym
	}, in)
	if out = strings.TrimLeft(out, "."); len(out) == 0 {
		return badFileName
	}
	return out
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
