// Package npmpack packages local directories by running `npm pack --json`.
package npmpack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/git-pkgs/fauxregistry/internal/core"
)

const (
	// DefaultCommand is the npm executable looked up on PATH.
	DefaultCommand = "npm"
	name           = "npm"
)

func init() {
	core.RegisterPackager(name, func() core.Packager {
		return New(DefaultCommand)
	})
}

// Packager shells out to npm in the package directory.
type Packager struct {
	command string
}

// New returns a packager that runs command (usually "npm").
func New(command string) *Packager {
	if command == "" {
		command = DefaultCommand
	}
	return &Packager{command: command}
}

func (p *Packager) Name() string {
	return name
}

type packResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Filename  string `json:"filename"`
	Shasum    string `json:"shasum"`
	Integrity string `json:"integrity"`
}

// Pack runs `npm pack --json` in dir. npm writes the tarball into dir and
// prints a JSON array describing it.
func (p *Packager) Pack(ctx context.Context, dir string) (*core.Archive, error) {
	cmd := exec.CommandContext(ctx, p.command, "pack", "--json")
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s pack in %s: %v", core.ErrPackagingFailed, p.command, dir, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s pack in %s: %v: %s", core.ErrPackagingFailed, p.command, dir, err, strings.TrimSpace(stderr.String()))
	}

	var results []packResult
	if err := json.Unmarshal(jsonPayload(stdout.Bytes()), &results); err != nil {
		return nil, fmt.Errorf("%w: parsing %s pack output: %v", core.ErrPackagingFailed, p.command, err)
	}
	if len(results) == 0 || results[0].Filename == "" {
		return nil, fmt.Errorf("%w: %s pack reported no archive", core.ErrPackagingFailed, p.command)
	}

	return &core.Archive{Filename: filepath.Base(results[0].Filename)}, nil
}

// jsonPayload drops anything lifecycle scripts (prepack, prepare) print
// before npm's JSON array.
func jsonPayload(out []byte) []byte {
	if bytes.HasPrefix(bytes.TrimSpace(out), []byte("[")) {
		return out
	}
	if i := bytes.Index(out, []byte("\n[")); i >= 0 {
		return out[i+1:]
	}
	return out
}
