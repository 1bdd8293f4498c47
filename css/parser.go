package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser tokenizes stylesheets and reports references they contain.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// References returns every @import target and url() argument of the
// stylesheet in document order. The optional source parameter identifies
// what's being parsed (for debug logging).
func (p *Parser) References(data []byte, source ...string) []Reference {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var (
		refs    []Reference
		atRules []string // enclosing block @-rules
	)
	add := func(url, context string) {
		if strings.TrimSpace(url) == "" {
			return
		}
		refs = append(refs, Reference{URL: url, Context: context})
	}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return refs

		case css.AtRuleGrammar:
			atRule := strings.ToLower(string(data))
			if atRule == "@import" {
				add(extractImportURL(parser.Values()), ContextImport)
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.BeginAtRuleGrammar:
			atRules = append(atRules, strings.ToLower(string(data)))

		case css.EndAtRuleGrammar:
			if len(atRules) > 0 {
				atRules = atRules[:len(atRules)-1]
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			context := strings.ToLower(string(data))
			if len(atRules) > 0 && atRules[len(atRules)-1] == "@font-face" {
				context = ContextFontFace
			}
			for _, url := range extractURLs(parser.Values()) {
				add(url, context)
			}
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	if urls := extractURLs(tokens); len(urls) > 0 {
		return urls[0]
	}
	for _, t := range tokens {
		if t.TokenType == css.StringToken {
			return unquote(string(t.Data))
		}
	}
	return ""
}

// extractURLs returns arguments of all url() functions found in tokens.
func extractURLs(tokens []css.Token) []string {
	var urls []string
	for i, t := range tokens {
		switch t.TokenType {
		case css.URLToken:
			// token data is the full url(...) text
			s := string(t.Data)
			s = s[strings.IndexByte(s, '(')+1:]
			s = strings.TrimSuffix(s, ")")
			urls = append(urls, unquote(s))
		case css.FunctionToken:
			if !strings.EqualFold(string(t.Data), "url(") {
				continue
			}
			for _, n := range tokens[i+1:] {
				if n.TokenType == css.WhitespaceToken {
					continue
				}
				if n.TokenType == css.StringToken {
					urls = append(urls, unquote(string(n.Data)))
				}
				break
			}
		}
	}
	return urls
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
