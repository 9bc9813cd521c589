package app

import "fmt"

// Build metadata, stamped by the release build:
//
//	go build -ldflags "-X github.com/heartmarshall/regpulse-backend/internal/app.Version=v1.2.0 \
//	  -X github.com/heartmarshall/regpulse-backend/internal/app.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion is the one-line build description logged at startup.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
