package helpers

import "testing"

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Example.com/news/../tech/latest", "https://example.com/tech/latest"},
		{"http://news.example.com:80/article?id=123&utm_source=rss#section", "http://news.example.com/article?id=123"},
		{"https://example.com/path/?b=2&a=1&fbclid=xyz", "https://example.com/path/?a=1&b=2"},
		{"//blog.example.com/post/42?utm_medium=email", "https://blog.example.com/post/42"},
	}
	for _, tt := range tests {
		got, err := CanonicalURL(tt.in)
		if err != nil {
			t.Fatalf("CanonicalURL(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLFingerprintStable(t *testing.T) {
	t.Parallel()
	a, err := URLFingerprint("https://example.com/a?utm_source=x")
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	b, _ := URLFingerprint("https://EXAMPLE.com/a")
	if a != b || len(a) != 64 {
		t.Fatalf("fingerprints differ: %s vs %s", a, b)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	if got := DisplayName("https://www.rulac.org/browse"); got != "rulac.org/browse" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := DisplayName("http://hrw.org"); got != "hrw.org" {
		t.Fatalf("DisplayName() = %q", got)
	}
}

func TestDenied(t *testing.T) {
	t.Parallel()
	deny := []string{"example.com", " www.blocked.org "}
	cases := map[string]bool{
		"https://example.com/x":       true,
		"https://news.example.com/x":  true,
		"https://www.blocked.org/a":   true,
		"https://notexample.com/x":    false,
		"https://www.aljazeera.com/x": false,
		"::bad":                       false,
	}
	for raw, want := range cases {
		if got := Denied(raw, deny); got != want {
			t.Fatalf("Denied(%q) = %v, want %v", raw, got, want)
		}
	}
}
