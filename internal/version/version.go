// Package version carries build metadata injected with -ldflags -X.
package version

var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)
