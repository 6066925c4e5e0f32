package version

import "fmt"

// Version is the release version embedded in the binary.
// It can be overridden at build time via:
// go build -ldflags "-X github.com/sppas/phoenix/internal/version.Version=4.22"
var Version = "4.22"

// Commit is the git commit hash embedded in the binary.
var Commit = "unknown"

// BuildDate is the RFC3339 build timestamp embedded in the binary.
var BuildDate = "unknown"

// Name is the application name shown in window titles and in the
// "software" metadata of written annotation files.
const Name = "SPPAS Phoenix"

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("phoenix %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}

// Software is the short form stored in annotation file headers.
func Software() string {
	return Name + " " + Version
}
