package version

import "fmt"

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X github.com/information-sharing-networks/webclient/internal/version.version=v1.2.0"
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}
}

// String formats the build info for `webclient --version`
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent is sent by the cli on api requests
func (i Info) UserAgent() string {
	return "webclient/" + i.Version
}
