package client

import (
	"testing"
)

func TestURLs(t *testing.T) {
	u := NewURLs("localhost", 8043)

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"base", u.BaseURL(), "http://localhost:8043"},
		{"tarball", u.Tarball("widget", "widget-1.0.0.tgz"), "http://localhost:8043/__packages__/widget/widget-1.0.0.tgz"},
		{"scoped tarball", u.Tarball("@acme/gizmo", "acme-gizmo-0.2.0.tgz"), "http://localhost:8043/__packages__/@acme/gizmo/acme-gizmo-0.2.0.tgz"},
		{"packument", u.Packument("widget"), "http://localhost:8043/widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestURLsIPv6Host(t *testing.T) {
	u := NewURLs("::1", 9000)
	if u.BaseURL() != "http://[::1]:9000" {
		t.Errorf("BaseURL() = %q, want %q", u.BaseURL(), "http://[::1]:9000")
	}
}

func TestURLsFromBase(t *testing.T) {
	u := NewURLsFromBase("http://127.0.0.1:4873/")
	want := "http://127.0.0.1:4873/__packages__/widget/widget-1.0.0.tgz"
	if got := u.Tarball("widget", "widget-1.0.0.tgz"); got != want {
		t.Errorf("Tarball() = %q, want %q", got, want)
	}
}

func TestBaseURLs(t *testing.T) {
	b := &BaseURLs{
		TarballFn: func(name, filename string) string { return "x/" + name + "/" + filename },
	}

	if got := b.Tarball("a", "b.tgz"); got != "x/a/b.tgz" {
		t.Errorf("Tarball() = %q, want %q", got, "x/a/b.tgz")
	}
	if got := b.Packument("a"); got != "" {
		t.Errorf("Packument() = %q, want empty", got)
	}
}
