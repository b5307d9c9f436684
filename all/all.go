// Package all imports every packager implementation.
//
// Import this package for its side effects to register all packagers:
//
//	import (
//		"github.com/git-pkgs/fauxregistry"
//		_ "github.com/git-pkgs/fauxregistry/all"
//	)
//
//	// Now all packagers are available
//	packagers := fauxregistry.SupportedPackagers()
//	// ["npm", "tarball"]
package all

import (
	_ "github.com/git-pkgs/fauxregistry/internal/npmpack"
	_ "github.com/git-pkgs/fauxregistry/internal/tarball"
)
