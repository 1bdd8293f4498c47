package convert

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.css")
		if err := os.WriteFile(filePath, []byte("a{}"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	t.Run("valid zip file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "site.ZIP")
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		f, err := w.Create("css/a.css")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		f.Write([]byte("a{background:url(x.png)}"))
		w.Close()
		if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Errorf("isArchiveFile() = %v, want true", got)
		}
	})
}

// TestIsArchiveFile_NonExistent tests with non-existent file
func TestIsArchiveFile_NonExistent(t *testing.T) {
	_, err := isArchiveFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{"empty", nil, encUnknown},
		{"plain", []byte("a{}"), encUnknown},
		{"utf8", []byte{0xEF, 0xBB, 0xBF, 'a'}, encUTF8},
		{"utf16be", []byte{0xFE, 0xFF, 0, 'a'}, encUTF16BigEndian},
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0}, encUTF16LittleEndian},
		{"utf32be", []byte{0, 0, 0xFE, 0xFF}, encUTF32BigEndian},
		{"utf32le", []byte{0xFF, 0xFE, 0, 0}, encUTF32LittleEndian},
		{"short utf8", []byte{0xEF, 0xBB}, encUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeStylesheet_RoundTrip(t *testing.T) {
	const text = "a{background:url(\"ü/x.png\")}"

	encode := func(enc encoding.Encoding) []byte {
		t.Helper()
		data, err := enc.NewEncoder().Bytes([]byte(text))
		if err != nil {
			t.Fatalf("encode sample: %v", err)
		}
		return data
	}

	tests := []struct {
		name string
		data []byte
		want srcEncoding
	}{
		{"plain", []byte(text), encUnknown},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...), encUTF8},
		{"utf16le", encode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), encUTF16LittleEndian},
		{"utf16be", encode(unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), encUTF16BigEndian},
		{"utf32le", encode(utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)), encUTF32LittleEndian},
		{"utf32be", encode(utf32.UTF32(utf32.BigEndian, utf32.UseBOM)), encUTF32BigEndian},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c, err := decodeStylesheet(tt.data, true)
			if err != nil {
				t.Fatalf("decodeStylesheet() error = %v", err)
			}
			if got != text {
				t.Errorf("decodeStylesheet() = %q, want %q", got, text)
			}
			if c.bom != tt.want {
				t.Errorf("decodeStylesheet() codec = %v, want %v", c.bom, tt.want)
			}
			back, err := c.encode(got)
			if err != nil {
				t.Fatalf("encode() error = %v", err)
			}
			if !bytes.Equal(back, tt.data) {
				t.Errorf("encode() = %x, want %x", back, tt.data)
			}
		})
	}
}

func TestDecodeStylesheet_Charset(t *testing.T) {
	data := []byte("@charset \"iso-8859-1\";\na{content:\"\xe9\"}")

	got, c, err := decodeStylesheet(data, true)
	if err != nil {
		t.Fatalf("decodeStylesheet() error = %v", err)
	}
	if want := "@charset \"iso-8859-1\";\na{content:\"é\"}"; got != want {
		t.Errorf("decodeStylesheet() = %q, want %q", got, want)
	}
	if c.String() != "windows-1252" {
		t.Errorf("codec = %s, want windows-1252", c)
	}
	back, err := c.encode(got)
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Errorf("encode() = %q, want %q", back, data)
	}

	// charset is ignored when not honored
	raw, c, err := decodeStylesheet(data, false)
	if err != nil || raw != string(data) || c.enc != nil {
		t.Errorf("decodeStylesheet(honor=false) = %q, %v, %v", raw, c, err)
	}
}

func TestDecodeStylesheet_Errors(t *testing.T) {
	if _, _, err := decodeStylesheet([]byte(`@charset "no-such-charset";`), true); err == nil {
		t.Error("expected error for unknown charset")
	}

	// utf-8 charset passes content through
	in := "@charset \"UTF-8\";\na{}"
	got, c, err := decodeStylesheet([]byte(in), true)
	if err != nil || got != in || c.enc != nil {
		t.Errorf("decodeStylesheet() = %q, %v, %v", got, c, err)
	}
}

func TestCodecEncode_Unmappable(t *testing.T) {
	c := codec{enc: charmap.ISO8859_1, charset: "iso-8859-1"}
	if _, err := c.encode("中"); err == nil {
		t.Error("expected error for character outside of charset")
	}
}

func TestStripCharset(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"@charset \"utf-8\";\na{}", "a{}"},
		{"@charset 'utf-8';\r\na{}", "a{}"},
		{"\uFEFF@charset \"utf-8\"; a{}", "a{}"},
		{"\uFEFFa{}", "a{}"},
		{"a{} @charset \"utf-8\";", "a{} @charset \"utf-8\";"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripCharset(tt.in); got != tt.want {
			t.Errorf("stripCharset(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
