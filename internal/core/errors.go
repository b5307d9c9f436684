package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLocal is returned when a name does not map to a local package directory.
	ErrNotLocal = errors.New("not a local package")

	// ErrOutsideRoot is returned when a path would resolve outside the packages root.
	ErrOutsideRoot = errors.New("path escapes packages root")

	// ErrInvalidDescriptor is returned for unreadable or incomplete package.json files.
	ErrInvalidDescriptor = errors.New("invalid package descriptor")

	// ErrPackagingFailed is returned when a packager cannot produce an archive.
	ErrPackagingFailed = errors.New("packaging failed")
)

// NotLocalError wraps ErrNotLocal with the requested name.
type NotLocalError struct {
	Name   string
	Reason string
}

func (e *NotLocalError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: not a local package (%s)", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: not a local package", e.Name)
}

func (e *NotLocalError) Unwrap() error {
	return ErrNotLocal
}

// SynthesisError is returned when a local package directory exists but its
// metadata document could not be built.
type SynthesisError struct {
	Name  string
	Stage string // "descriptor", "pack", "digest", "encode"
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing %s: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
