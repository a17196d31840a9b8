// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X github.com/partsportal/catalog-sync/internal/version.Version=0.3.0 \
//	                   -X github.com/partsportal/catalog-sync/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/partsportal/catalog-sync/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "version (commit) built time".
func String() string {
	return fmt.Sprintf("%s (%s) built %s", Version, Commit, BuildTime)
}

// UserAgent is sent with every catalog request.
func UserAgent() string {
	return "catalog-sync/" + Version
}
