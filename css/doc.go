// Package css locates and rewrites resource references embedded in
// stylesheets.
//
// Two independent views of a stylesheet are provided.
//
// # Reference grammar
//
// [Scan], [Replace] and [Rewrite] work directly on stylesheet text using a
// small reference grammar and never look at anything else:
//
//	@import "path"
//	@import 'path'
//	url(path)
//	url('path')
//	url("path")
//
// Keywords are case insensitive and whitespace is allowed between the keyword,
// the parenthesis and the argument. "@import url(...)" is picked up by the url
// form. Anything that does not fit the grammar, an unterminated "url(" for
// example, is not a match and is copied to the output untouched. Only the
// literal path is ever replaced: keywords, quotes, parentheses and whitespace
// stay byte for byte identical.
//
// # Reference inventory
//
// [Parser] tokenizes stylesheets with github.com/tdewolff/parse/v2/css and
// reports every @import target and url() argument together with the context
// it was found in. It is used to inspect stylesheets and plays no part in
// rewriting.
package css
