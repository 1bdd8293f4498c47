package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "UTF-8 (BOM)"
	case encUTF16BigEndian:
		return "UTF-16BE (BOM)"
	case encUTF16LittleEndian:
		return "UTF-16LE (BOM)"
	case encUTF32BigEndian:
		return "UTF-32BE (BOM)"
	case encUTF32LittleEndian:
		return "UTF-32LE (BOM)"
	default:
		return "unknown"
	}
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF looks for byte order mark. UTF-32 must be checked before UTF-16
// since UTF-32LE BOM starts with UTF-16LE one.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// bomEncoding returns encoding which consumes BOM on decoding and produces it
// on encoding.
func bomEncoding(enc srcEncoding) encoding.Encoding {
	switch enc {
	case encUTF8:
		return unicode.UTF8BOM
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	}
	return nil
}

// isArchiveFile checks if file has zip extension and zip signature.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs at most 262 bytes to recognize type
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// charsetRule matches @charset rule which is only honored at the very
// beginning of stylesheet.
var charsetRule = regexp.MustCompile(`^@charset\s+["']([^"']+)["']\s*;[ \t]*(?:\r?\n)?`)

// codec remembers how stylesheet was encoded so results could be written
// back the same way.
type codec struct {
	bom     srcEncoding
	enc     encoding.Encoding // nil for plain UTF-8
	charset string
}

func (c codec) String() string {
	if c.bom != encUnknown {
		return c.bom.String()
	}
	if len(c.charset) > 0 {
		return c.charset
	}
	return "utf-8"
}

// decodeStylesheet converts stylesheet to text. When honor is set BOM and
// leading @charset rule select the encoding, otherwise content is taken as
// is.
func decodeStylesheet(data []byte, honor bool) (string, codec, error) {
	if !honor {
		return string(data), codec{}, nil
	}

	if bom := detectUTF(data); bom != encUnknown {
		c := codec{bom: bom, enc: bomEncoding(bom)}
		text, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", c, fmt.Errorf("unable to decode stylesheet as %s: %w", c, err)
		}
		return string(text), c, nil
	}

	m := charsetRule.FindSubmatch(data)
	if m == nil {
		return string(data), codec{}, nil
	}
	enc, name := charset.Lookup(string(m[1]))
	if enc == nil {
		return "", codec{}, fmt.Errorf("unknown stylesheet charset %q", m[1])
	}
	if name == "utf-8" {
		return string(data), codec{charset: name}, nil
	}
	c := codec{enc: enc, charset: name}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", c, fmt.Errorf("unable to decode stylesheet as %s: %w", name, err)
	}
	return string(text), c, nil
}

// encode converts text back to the original stylesheet encoding.
func (c codec) encode(text string) ([]byte, error) {
	if c.enc == nil {
		return []byte(text), nil
	}
	data, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unable to encode stylesheet as %s: %w", c, err)
	}
	return data, nil
}

// stripCharset removes leading @charset rule and UTF-8 BOM from decoded
// stylesheet.
func stripCharset(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	if loc := charsetRule.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	return text
}
