// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/quantfocus/semsim/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/quantfocus/semsim/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/quantfocus/semsim/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ) \
//	    -X github.com/quantfocus/semsim/pkg/buildinfo.Engine=native"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"

	// Engine names the simulation engine linked into the binary. Builds
	// with the semengine tag set it to "native".
	Engine = "synthetic"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\nengine: %s", Version, Commit, Date, Engine)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\nengine: %s\n", Version, Commit, Date, Engine)
}
