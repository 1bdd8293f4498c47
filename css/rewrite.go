package css

import (
	"iter"
	"regexp"
	"strings"

	"cssrebase/uri"
)

// referencePattern matches the reference grammar. Capture groups in order:
// @import "...", @import '...', url("..."), url('...'), url(...).
// An unquoted literal may contain quotes anywhere but in its first position.
var referencePattern = regexp.MustCompile(
	`(?i)@import\s*(?:"([^"]*)"|'([^']*)')` +
		`|url\s*\(\s*(?:"([^"]*)"|'([^']*)'|((?:[^)"'\s][^)]*?)?))\s*\)`)

// groups describes capture groups of referencePattern in order.
var groups = [...]struct {
	kind  Kind
	quote Quote
}{
	{KindImport, QuoteDouble},
	{KindImport, QuoteSingle},
	{KindURL, QuoteDouble},
	{KindURL, QuoteSingle},
	{KindURL, QuoteNone},
}

// Scan returns a sequence of references found in text, left to right and
// never overlapping.
func Scan(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for cursor := 0; cursor < len(text); {
			loc := referencePattern.FindStringSubmatchIndex(text[cursor:])
			if loc == nil {
				return
			}
			if !yield(newMatch(text, cursor, loc)) {
				return
			}
			cursor += loc[1]
		}
	}
}

// newMatch builds Match from submatch locations relative to offset.
func newMatch(text string, offset int, loc []int) Match {
	m := Match{Start: offset + loc[0], End: offset + loc[1]}
	for i, g := range groups {
		from, to := loc[2*(i+1)], loc[2*(i+1)+1]
		if from < 0 {
			continue
		}
		m.Kind, m.Quote = g.kind, g.quote
		m.LitStart, m.LitEnd = offset+from, offset+to
		m.Literal = text[m.LitStart:m.LitEnd]
		break
	}
	return m
}

// Replace calls fn for every reference in text and substitutes the literal
// with the returned value. Everything outside of literals is copied as is.
// When nothing changes text itself is returned.
func Replace(text string, fn func(Match) string) string {
	var (
		sb     strings.Builder
		cursor int
	)
	for m := range Scan(text) {
		repl := fn(m)
		if repl == m.Literal {
			continue
		}
		if sb.Cap() == 0 {
			sb.Grow(len(text) + len(text)/8)
		}
		sb.WriteString(text[cursor:m.LitStart])
		sb.WriteString(repl)
		cursor = m.LitEnd
	}
	if sb.Cap() == 0 {
		return text
	}
	sb.WriteString(text[cursor:])
	return sb.String()
}

// Rebaser returns replacement function for Replace which moves relative
// references from fromBase to toBase. Blank literals are kept.
func Rebaser(fromBase, toBase string) func(Match) string {
	fromBase, toBase = uri.NormalizeSlashes(fromBase), uri.NormalizeSlashes(toBase)
	return func(m Match) string {
		if strings.TrimSpace(m.Literal) == "" {
			return m.Literal
		}
		return uri.Rebase(m.Literal, fromBase, toBase)
	}
}

// Rewrite rewrites every relative reference in text so that it resolves to
// the same target against toBase as it did against fromBase.
func Rewrite(text, fromBase, toBase string) string {
	return Replace(text, Rebaser(fromBase, toBase))
}
