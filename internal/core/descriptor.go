package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DescriptorFile is the manifest every local package directory must carry.
const DescriptorFile = "package.json"

// LoadDescriptor reads and parses the package.json in dir.
func LoadDescriptor(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return ParseDescriptor(data)
}

// ParseDescriptor parses a package.json document. The name and version fields
// must be present non-empty strings.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidDescriptor)
	}

	name, _ := manifest["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidDescriptor)
	}
	version, _ := manifest["version"].(string)
	if version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidDescriptor)
	}

	return &Descriptor{
		Name:        name,
		Version:     version,
		Author:      manifest["author"],
		Description: manifest["description"],
		License:     manifest["license"],
		Homepage:    manifest["homepage"],
		Bugs:        manifest["bugs"],
		Repository:  manifest["repository"],
		Manifest:    manifest,
	}, nil
}
