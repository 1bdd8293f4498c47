package css

// Kind identifies the construct a reference was found in.
type Kind int

const (
	KindURL    Kind = iota // url(...)
	KindImport             // @import "..." or @import '...'
)

// String returns the keyword of the construct.
func (k Kind) String() string {
	switch k {
	case KindImport:
		return "@import"
	default:
		return "url"
	}
}

// Quote is the quoting style of a reference literal.
type Quote int

const (
	QuoteNone   Quote = iota // unquoted url() argument
	QuoteSingle              // '...'
	QuoteDouble              // "..."
)

// String returns the quote character or an empty string.
func (q Quote) String() string {
	switch q {
	case QuoteSingle:
		return "'"
	case QuoteDouble:
		return `"`
	default:
		return ""
	}
}

// Match is a single reference located in stylesheet text. Offsets are byte
// offsets into the text passed to Scan.
type Match struct {
	Kind     Kind
	Quote    Quote
	Literal  string // path text without quotes
	Start    int    // start of the whole construct
	End      int    // end of the whole construct (exclusive)
	LitStart int    // start of Literal
	LitEnd   int    // end of Literal (exclusive)
}

// Context values reported by Parser for references which are not found in a
// regular declaration. For declarations the lowercased property name is used.
const (
	ContextImport   = "import"
	ContextFontFace = "font-face"
)

// Reference is a reference reported by Parser.
type Reference struct {
	URL     string `yaml:"url"`
	Context string `yaml:"context"`
}
