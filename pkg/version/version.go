// Package version exposes the build version of footprint.
package version

import "github.com/Masterminds/semver/v3"

// version is set at build time with
// -ldflags "-X github.com/rshade/footprint/pkg/version.version=1.2.3".
var version = "0.1.0-dev" //nolint:gochecknoglobals // set by ldflags

// GetVersion returns the build version without a leading "v".
func GetVersion() string {
	if v, err := semver.NewVersion(version); err == nil {
		return v.String()
	}
	return version
}
