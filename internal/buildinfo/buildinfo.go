// Package buildinfo provides build-time information for wabbit binaries.
// Build information is injected at compile time via ldflags, e.g.
//
//	-X github.com/sufield/wabbit/internal/buildinfo.Version=v1.2.0
package buildinfo

import "runtime"

// Build information variables - injected at compile time via ldflags
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
	BuildUser  = "unknown"
	BuildHost  = "unknown"
)

// Info is a structured representation of the build information
type Info struct {
	Version    string `json:"version" yaml:"version"`
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime  string `json:"build_time" yaml:"build_time"`
	BuildUser  string `json:"build_user" yaml:"build_user"`
	BuildHost  string `json:"build_host" yaml:"build_host"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	OS         string `json:"os" yaml:"os"`
	Arch       string `json:"arch" yaml:"arch"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		BuildUser:  BuildUser,
		BuildHost:  BuildHost,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// Short renders the version and commit on one line.
func (i Info) Short() string {
	return i.Version + " (" + i.CommitHash + ")"
}
