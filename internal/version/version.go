// Package version carries build identification, stamped via -ldflags.
package version

var (
	// Version is the semantic version of the tracker build.
	Version = "0.1.0"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the git commit hash the binary was built from.
	GitCommit = "unknown"
)
