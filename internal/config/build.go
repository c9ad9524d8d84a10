package config

// The release pipeline stamps these through -ldflags:
//
//	go build -ldflags "-X lodgebook/internal/config.buildVersion=1.2.3 \
//	    -X lodgebook/internal/config.buildCommit=$(git rev-parse --short HEAD) \
//	    -X lodgebook/internal/config.buildStamp=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// A plain `go build` leaves the placeholders, which is how local binaries
// identify themselves.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildStamp   = "unknown"
)

// NewBuildInfo snapshots the linker-stamped values into a BuildInfo. Called
// once while assembling Config.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   buildVersion,
		Commit:    buildCommit,
		BuildTime: buildStamp,
	}
}
