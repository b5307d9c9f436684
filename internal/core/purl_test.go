package core

import (
	"strings"
	"testing"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		input     string
		wantScope string
		wantShort string
	}{
		{"lodash", "", "lodash"},
		{"@babel/core", "@babel", "core"},
		{"@types/node", "@types", "node"},
		{"@nobody", "", "@nobody"}, // no slash, not a scope
		{"left-pad", "", "left-pad"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			scope, short := SplitName(tt.input)
			if scope != tt.wantScope {
				t.Errorf("scope = %q, want %q", scope, tt.wantScope)
			}
			if short != tt.wantShort {
				t.Errorf("short = %q, want %q", short, tt.wantShort)
			}
		})
	}
}

func TestArchiveFilename(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"widget", "1.0.0", "widget-1.0.0.tgz"},
		{"@babel/core", "7.24.0", "babel-core-7.24.0.tgz"},
		{"left-pad", "1.3.0-beta.1", "left-pad-1.3.0-beta.1.tgz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArchiveFilename(tt.name, tt.version); got != tt.want {
				t.Errorf("ArchiveFilename(%q, %q) = %q, want %q", tt.name, tt.version, got, tt.want)
			}
		})
	}
}

func TestPURL(t *testing.T) {
	if got := PURL("widget", "1.0.0"); got != "pkg:npm/widget@1.0.0" {
		t.Errorf("PURL = %q, want %q", got, "pkg:npm/widget@1.0.0")
	}

	scoped := PURL("@babel/core", "7.24.0")
	if !strings.HasPrefix(scoped, "pkg:npm/") {
		t.Errorf("scoped PURL %q missing pkg:npm/ prefix", scoped)
	}
	if !strings.HasSuffix(scoped, "/core@7.24.0") {
		t.Errorf("scoped PURL %q missing name and version", scoped)
	}
	if !strings.Contains(scoped, "babel") {
		t.Errorf("scoped PURL %q missing namespace", scoped)
	}
}
