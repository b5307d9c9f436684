package core

import (
	"context"
	"testing"
)

type fakePackager struct{ name string }

func (f fakePackager) Name() string { return f.name }

func (f fakePackager) Pack(ctx context.Context, dir string) (*Archive, error) {
	return &Archive{Filename: "fake-1.0.0.tgz"}, nil
}

func TestRegisterPackager(t *testing.T) {
	RegisterPackager("fake-for-test", func() Packager { return fakePackager{name: "fake-for-test"} })

	p, err := NewPackager("fake-for-test")
	if err != nil {
		t.Fatalf("NewPackager failed: %v", err)
	}
	if p.Name() != "fake-for-test" {
		t.Errorf("Name() = %q, want %q", p.Name(), "fake-for-test")
	}

	found := false
	for _, name := range SupportedPackagers() {
		if name == "fake-for-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("SupportedPackagers() = %v, missing fake-for-test", SupportedPackagers())
	}
}

func TestNewPackagerUnknown(t *testing.T) {
	if _, err := NewPackager("does-not-exist"); err == nil {
		t.Error("expected error for unknown packager")
	}
}
