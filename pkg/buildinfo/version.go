// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/usetrmnl/inkpipe/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/usetrmnl/inkpipe/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/usetrmnl/inkpipe/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/inkpipe
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v0.3.0").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("inkpipe %s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies inkpipe in outgoing data-source requests.
func UserAgent() string {
	return "inkpipe/" + Version
}
