// Package version holds build-time identifying information for swtwind.
package version

import "fmt"

// Version and GitCommit are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/newtron-network/swtwin/pkg/twin/version.Version=v1.0.0 \
//	  -X github.com/newtron-network/swtwin/pkg/twin/version.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Info returns a one-line human-readable version string.
func Info() string {
	return fmt.Sprintf("swtwind %s (%s)", Version, GitCommit)
}
