package uri

import (
	"strings"
	"testing"
)

func TestNormalizeSlashes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no slashes", in: "a.png", want: "a.png"},
		{name: "single slashes untouched", in: "img/a.png", want: "img/a.png"},
		{name: "double slash collapsed", in: "img//a.png", want: "img/a.png"},
		{name: "long run collapsed", in: "a////b///c", want: "a/b/c"},
		{name: "scheme preserved", in: "http://www.example.com//my///url/here", want: "http://www.example.com/my/url/here"},
		{name: "leading run keeps two", in: "///a", want: "//a"},
		{name: "protocol relative untouched", in: "//cdn.example.com/x.css", want: "//cdn.example.com/x.css"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSlashes(tt.in); got != tt.want {
				t.Errorf("NormalizeSlashes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSlashes_Idempotent(t *testing.T) {
	inputs := []string{
		"", "/", "//", "///", "a//b", "a:////b", "http:///x", "http://a//b//",
		"../..//img///x.png", "x:/y//z", "://", ":///",
	}
	for _, in := range inputs {
		once := NormalizeSlashes(in)
		if twice := NormalizeSlashes(once); twice != once {
			t.Errorf("NormalizeSlashes not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIsAbsolute(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"/img/a.png", true},
		{"//cdn.example.com/x.css", true},
		{"data:image/png;base64,AAAA", true},
		{"http://example.com/a.png", true},
		{"https://example.com", true},
		{"custom-scheme://host/a", true},
		{"img/a.png", false},
		{"../img/a.png", false},
		{"./a.png", false},
		{"#fragment", false},
		{"", false},
		{"mailto:someone", false},
	}

	for _, tt := range tests {
		if got := IsAbsolute(tt.in); got != tt.want {
			t.Errorf("IsAbsolute(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProtocol(t *testing.T) {
	scheme, host, ok := Protocol("https://example.com:8080/css/a.css")
	if !ok {
		t.Fatal("expected protocol to be found")
	}
	if scheme != "https" || host != "example.com:8080" {
		t.Errorf("got scheme %q host %q", scheme, host)
	}

	if _, _, ok := Protocol("/site/css/a.css"); ok {
		t.Error("plain path must not have protocol")
	}
}

func TestAbsolute(t *testing.T) {
	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{name: "parent directory", path: "../img/x.png", base: "/site/css/a.less", want: "/site/img/x.png"},
		{name: "same directory", path: "x.png", base: "/site/css/a.less", want: "/site/css/x.png"},
		{name: "dot slash stripped", path: "./x.png", base: "/site/css/a.less", want: "/site/css/x.png"},
		{name: "directory base", path: "fonts/a.woff", base: "/a/b/", want: "/a/b/fonts/a.woff"},
		{name: "absolute untouched", path: "/img/x.png", base: "/site/css/a.less", want: "/img/x.png"},
		{name: "absolute after dot slash", path: ".//img/x.png", base: "/site/css/a.less", want: "/img/x.png"},
		{name: "url untouched", path: "http://h/x.png", base: "/site/css/a.less", want: "http://h/x.png"},
		{name: "protocol base", path: "../img/x.png", base: "http://h/css/a.css", want: "http://h/img/x.png"},
		{name: "trailing slash kept", path: "img/", base: "/a/b.css", want: "/a/img/"},
		{name: "relative base", path: "../x.png", base: "css/a/b.css", want: "css/x.png"},
		{name: "inner parent", path: "a/../b.png", base: "/s/c.css", want: "/s/b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Absolute(tt.path, tt.base); got != tt.want {
				t.Errorf("Absolute(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
			}
		})
	}
}

// Backtracking past the available segments is intentionally permissive:
// extra ".." segments are dropped and the root segment may be consumed.
func TestAbsolute_PermissiveBacktracking(t *testing.T) {
	tests := []struct {
		path string
		base string
		want string
	}{
		{path: "../../x.png", base: "/a/b.css", want: "x.png"},
		{path: "../../../../x.png", base: "/a/b.css", want: "x.png"},
		{path: "../../x.png", base: "a.css", want: "x.png"},
		{path: "..", base: "", want: ""},
	}

	for _, tt := range tests {
		if got := Absolute(tt.path, tt.base); got != tt.want {
			t.Errorf("Absolute(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
		}
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		name string
		abs  string
		base string
		want string
	}{
		{name: "sibling directory", abs: "/site/img/x.png", base: "/site/out/b.css", want: "../img/x.png"},
		{name: "same directory", abs: "/site/out/x.png", base: "/site/out/b.css", want: "x.png"},
		{name: "subdirectory", abs: "/site/out/img/x.png", base: "/site/out/b.css", want: "img/x.png"},
		{name: "deeper base", abs: "/a/x.png", base: "/a/b/c/d.css", want: "../../x.png"},
		{name: "directory base", abs: "/a/b/fonts/a.woff", base: "/a/c/", want: "../b/fonts/a.woff"},
		{name: "segment prefix not shared", abs: "/a/bc/x.png", base: "/a/b/y.css", want: "../bc/x.png"},
		{name: "target is base directory", abs: "/a/", base: "/a/b/x.css", want: ".."},
		{name: "target equals base directory", abs: "/a/", base: "/a/x.css", want: ""},
		{name: "different roots", abs: "/x/y.png", base: "/a/b/c.css", want: "../../x/y.png"},
		{name: "same protocol", abs: "http://h/img/x.png", base: "http://h/css/a.css", want: "../img/x.png"},
		{name: "trailing slash kept", abs: "/site/img/", base: "/site/css/a.css", want: "../img/"},
		{name: "relative target bare base", abs: "img/x.png", base: "a.css", want: "img/x.png"},
		{name: "relative target empty base", abs: "img/x.png", base: "", want: "img/x.png"},
		{name: "rooted target bare base", abs: "/img/x.png", base: "a.css", want: "img/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relative(tt.abs, tt.base); got != tt.want {
				t.Errorf("Relative(%q, %q) = %q, want %q", tt.abs, tt.base, got, tt.want)
			}
		})
	}
}

func TestRebase(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		from string
		to   string
		want string
	}{
		{name: "sibling directories", ref: "fonts/a.woff", from: "/a/b/", to: "/a/c/", want: "../b/fonts/a.woff"},
		{name: "protocol relative", ref: "//cdn.example.com/x.css", from: "/a/b/", to: "/c/", want: "//cdn.example.com/x.css"},
		{name: "data uri", ref: "data:image/gif;base64,R0lGOD", from: "/a/b/", to: "/c/", want: "data:image/gif;base64,R0lGOD"},
		{name: "absolute url", ref: "https://h/x.png", from: "/a/b/", to: "/c/", want: "https://h/x.png"},
		{name: "slashes normalized", ref: "img//x.png", from: "/a/b.css", to: "/a/b.css", want: "img/x.png"},
		{name: "to site root", ref: "../img/x.png", from: "/site/css/a.less", to: "/site/", want: "img/x.png"},
		{name: "from site root", ref: "img/x.png", from: "/site/", to: "/site/css/a.css", want: "../img/x.png"},
		{name: "protocol mismatch", ref: "../img/x.png", from: "http://h/css/a.css", to: "/site/", want: "http://h/img/x.png"},
		{name: "host mismatch", ref: "../img/x.png", from: "http://h/css/a.css", to: "http://other/site/", want: "http://h/img/x.png"},
		{name: "scheme mismatch", ref: "x.png", from: "http://h/css/a.css", to: "https://h/css/", want: "http://h/css/x.png"},
		{name: "same protocol", ref: "../img/x.png", from: "http://h/css/a.css", to: "http://h/out/b.css", want: "../img/x.png"},
		{name: "protocol case differs", ref: "x.png", from: "http://h/css/a.css", to: "HTTP://H/css/", want: "http://h/css/x.png"},
		{name: "port differs", ref: "x.png", from: "http://h:8080/css/a.css", to: "http://h/css/", want: "http://h:8080/css/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebase(tt.ref, tt.from, tt.to); got != tt.want {
				t.Errorf("Rebase(%q, %q, %q) = %q, want %q", tt.ref, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRebase_AbsolutePassthrough(t *testing.T) {
	refs := []string{"/x.png", "//h/x.png", "data:,x", "ftp://h/x", "a/b?u=http://h"}
	bases := []string{"/", "/a/b.css", "http://h/a/", "rel/dir/", ""}
	for _, ref := range refs {
		for _, from := range bases {
			for _, to := range bases {
				if got := Rebase(ref, from, to); got != ref {
					t.Errorf("Rebase(%q, %q, %q) = %q, want unchanged", ref, from, to, got)
				}
			}
		}
	}
}

func TestRebase_Identity(t *testing.T) {
	refs := []struct {
		ref  string
		want string
	}{
		{"x.png", "x.png"},
		{"img/x.png", "img/x.png"},
		{"img//x.png", "img/x.png"},
		{"./img/x.png", "img/x.png"},
		{"../img/x.png", "../img/x.png"},
		{"../../fonts/a.woff", "../../fonts/a.woff"},
	}
	bases := []string{"/site/css/deep/a.css", "/site/css/deep/", "http://h/site/css/deep/a.css"}
	for _, base := range bases {
		for _, r := range refs {
			if got := Rebase(r.ref, base, base); got != r.want {
				t.Errorf("Rebase(%q, %q, %q) = %q, want %q", r.ref, base, base, got, r.want)
			}
		}
	}

	// bases without a directory part have nothing to backtrack from
	for _, base := range []string{"a.css", "", "rel/a.css"} {
		for _, r := range refs {
			if strings.HasPrefix(r.ref, "..") {
				continue
			}
			if got := Rebase(r.ref, base, base); got != r.want {
				t.Errorf("Rebase(%q, %q, %q) = %q, want %q", r.ref, base, base, got, r.want)
			}
		}
	}
}

func TestRebase_RoundTrip(t *testing.T) {
	refs := []string{"x.png", "img/x.png", "../img/x.png", "../../a/b/c.woff", "./y.css"}
	pairs := [][2]string{
		{"/site/css/a.css", "/site/out/b.css"},
		{"/site/css/a.css", "/site/"},
		{"/site/css/deep/a.css", "/other/root/b.css"},
		{"/a/b/", "/a/c/"},
		{"http://h/css/a.css", "http://h/x/y/z.css"},
	}
	for _, p := range pairs {
		from, to := p[0], p[1]
		for _, ref := range refs {
			moved := Rebase(ref, from, to)
			back := Rebase(moved, to, from)
			want := Absolute(NormalizeSlashes(ref), from)
			if got := Absolute(moved, to); got != want {
				t.Errorf("Rebase(%q, %q, %q) = %q resolves to %q, want %q", ref, from, to, moved, got, want)
			}
			if got := Absolute(back, from); got != want {
				t.Errorf("round trip of %q via %q and %q gives %q resolving to %q, want %q", ref, from, to, back, got, want)
			}
		}
	}
}
