package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	// Printing the version needs no config or logger.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("mindforge", version)

		req, _ := cmd.Flags().GetString("require")
		if req == "" {
			return nil
		}
		return checkVersion(version, req)
	},
}

// checkVersion reports an error when current is older than required.
// Development builds satisfy any requirement.
func checkVersion(current, required string) error {
	if !semver.IsValid(required) {
		return fmt.Errorf("invalid version requirement %q", required)
	}
	if !semver.IsValid(current) {
		return nil
	}
	if semver.Compare(current, required) < 0 {
		return fmt.Errorf("mindforge %s is older than required %s", current, semver.Canonical(required))
	}
	return nil
}

func init() {
	versionCmd.Flags().String("require", "", "Fail unless the version is at least this semver (e.g. v1.2)")
}
