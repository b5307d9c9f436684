// Package core provides shared types, errors, and the packager registry.
package core

// Descriptor is the subset of a local package.json needed to build a
// registry metadata document.
type Descriptor struct {
	Name        string
	Version     string
	Author      any // string or {name, email, url}
	Description any
	License     any // string, {type}, or a legacy array
	Homepage    any
	Bugs        any
	Repository  any
	Manifest    map[string]any // the full parsed manifest
}

// Archive is the result of packaging a local package directory.
type Archive struct {
	Filename string // relative to the package directory
}

// Dist describes where a version's tarball lives and how to verify it.
type Dist struct {
	Tarball   string `json:"tarball"`
	Shasum    string `json:"shasum,omitempty"`
	Integrity string `json:"integrity,omitempty"`
}

// Document is a registry metadata document (a packument) for a local package.
// Every field is always serialized; absent descriptor values become null.
type Document struct {
	DistTags       map[string]string         `json:"dist-tags"`
	Name           string                    `json:"name"`
	ReadmeFilename string                    `json:"readmeFilename"`
	Readme         string                    `json:"readme"`
	Author         any                       `json:"author"`
	ID             string                    `json:"_id"`
	Bugs           any                       `json:"bugs"`
	Description    any                       `json:"description"`
	Homepage       any                       `json:"homepage"`
	License        any                       `json:"license"`
	Repository     any                       `json:"repository"`
	Maintainers    []any                     `json:"maintainers"`
	Time           map[string]string         `json:"time"`
	Versions       map[string]map[string]any `json:"versions"`
}

// LocalPackage identifies a package found under the local packages root.
type LocalPackage struct {
	Name    string
	Version string
	Dir     string
}
