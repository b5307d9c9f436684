package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLocal(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		rel  string
		want string
	}{
		{"widget", filepath.Join(root, "widget")},
		{"@babel/core", filepath.Join(root, "@babel", "core")},
		{"widget/widget-1.0.0.tgz", filepath.Join(root, "widget", "widget-1.0.0.tgz")},
		{"widget/../other", filepath.Join(root, "other")},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := ResolveLocal(root, tt.rel)
			if err != nil {
				t.Fatalf("ResolveLocal(%q) failed: %v", tt.rel, err)
			}
			if got != tt.want {
				t.Errorf("ResolveLocal(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestResolveLocalRejectsEscapes(t *testing.T) {
	root := t.TempDir()

	for _, rel := range []string{
		"",
		".",
		"..",
		"../etc/passwd",
		"widget/../../etc/passwd",
		"/etc/passwd",
		"widget\\..\\..\\secret",
		"widget\x00",
	} {
		t.Run(rel, func(t *testing.T) {
			_, err := ResolveLocal(root, rel)
			if !errors.Is(err, ErrOutsideRoot) {
				t.Errorf("ResolveLocal(%q) = %v, want ErrOutsideRoot", rel, err)
			}
		})
	}
}

func TestResolveLocalSymlinkStaysInRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := ResolveLocal(root, "link/secret")
	if err != nil {
		t.Fatalf("ResolveLocal failed: %v", err)
	}
	if !strings.HasPrefix(got, root) {
		t.Errorf("ResolveLocal followed symlink out of root: %q", got)
	}
}
