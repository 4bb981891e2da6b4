package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionFormat = formatText

// buildInfo describes the running binary.
type buildInfo struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Modified bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateFormat(versionFormat); err != nil {
			return err
		}
		info := currentBuild()
		if versionFormat != formatText {
			return printStructured(cmd, versionFormat, info)
		}

		cmd.Printf("marginalia version %s\n", info.Version)
		if info.Commit != "" {
			dirty := ""
			if info.Modified {
				dirty = " (modified)"
			}
			cmd.Printf("commit %s%s\n", info.Commit, dirty)
		}
		cmd.Printf("%s %s\n", info.Go, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(versionCmd)
}

func currentBuild() buildInfo {
	info := buildInfo{
		Version:  version,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
