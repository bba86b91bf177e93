package contracts

import (
	"fmt"
	"runtime"
)

// Version is the loader release, also reported as the OTel service version
const Version = "1.0.0"

// DataFormatVersion identifies the fact table layout written to the warehouse.
// Bump it when a column is added, renamed or changes type.
const DataFormatVersion = "v1"

// Set with -ldflags "-X hpvload/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DataFormat string `json:"data_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DataFormat: DataFormatVersion,
	}
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("hpvload v%s", Version)
}

// GetFullVersionString returns the version with build details, as printed by -version
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (fact format %s, built: %s, commit: %s, go: %s, %s)",
		GetVersionString(), info.DataFormat, info.BuildTime, info.GitCommit, info.GoVersion, info.Platform)
}
