// Package buildinfo carries version metadata injected at build time via
// -ldflags "-X github.com/mkadlec/binsim/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("binsim %s (commit=%s, date=%s)", Version, Commit, Date)
}
