package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata, set with
// -ldflags "-X main.version=... -X main.gitCommit=... -X main.buildDate=...".
var (
	version   = ""
	gitCommit = ""
	buildDate = ""
)

// getVersion prefers the ldflags value, then the module version.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit returns the short revision.
func getCommit() string {
	if gitCommit != "" {
		return gitCommit
	}
	rev := buildSetting("vcs.revision")
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev == "" {
		return "unknown"
	}
	return rev
}

func getDate() string {
	if buildDate != "" {
		return buildDate
	}
	if t := buildSetting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

// buildSetting looks up a key embedded by the go tool, or "".
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imgupload %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
		},
	}
}
