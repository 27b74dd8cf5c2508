package version

// Version is the release identifier, injected at build time:
// go build -ldflags "-X github.com/wadakatu/gitlyte/internal/version.Version=v1.2.0".
var Version = "unknown"

// Build metadata, injected the same way.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent returns the User-Agent string sent with outbound API requests.
func UserAgent() string {
	return "gitlyte/" + Version
}
