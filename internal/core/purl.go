package core

import (
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// SplitName splits an npm package name into its scope (with the leading @)
// and short name. Unscoped names return an empty scope.
func SplitName(name string) (scope, short string) {
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		return parts[0], parts[1]
	}
	return "", name
}

// ArchiveFilename returns the tarball filename npm pack would produce for a
// package: "@babel/core" at 7.24.0 becomes "babel-core-7.24.0.tgz".
func ArchiveFilename(name, version string) string {
	scope, short := SplitName(name)
	base := short
	if scope != "" {
		base = strings.TrimPrefix(scope, "@") + "-" + short
	}
	return base + "-" + version + ".tgz"
}

// PURL returns the Package URL identifying a local package version.
func PURL(name, version string) string {
	// packageurl-go keeps @ in the namespace, so "@babel" + "core" round-trips.
	scope, short := SplitName(name)
	p := packageurl.NewPackageURL(packageurl.TypeNPM, scope, short, version, nil, "")
	return p.ToString()
}
