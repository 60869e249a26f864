package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in user agents and the OTLP scope
const Name = "journal-forwarder"

// Version information set by ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info returns version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the version information
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats the version for the version command
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)",
		Name, i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}

// UserAgent is sent with every outgoing HTTP request
func UserAgent() string {
	return Name + "/" + Version
}
