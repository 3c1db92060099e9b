package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version   = "0.1.0"
	commit    = "dev"
	buildDate = "unknown"
)

// VersionInfo contains version and build information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildDate    string `json:"build_date"`
	BuildCommit  string `json:"build_commit"`
	GoVersion    string `json:"go_version"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns complete version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      version,
		BuildDate:    buildDate,
		BuildCommit:  commit,
		GoVersion:    runtime.Version(),
		Architecture: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := GetVersionInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "strategy-lab v%s\n", info.Version)
			fmt.Fprintf(out, "Build: %s (%s)\n", info.BuildCommit, info.BuildDate)
			fmt.Fprintf(out, "Go: %s (%s)\n", info.GoVersion, info.Architecture)
			return nil
		},
	}
}
