package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"sessionchart/internal/version"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the sessionchart release, commit and Go toolchain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if versionShort {
			_, err := fmt.Fprintln(w, version.Version)
			return err
		}
		_, err := fmt.Fprintf(w, "sessionchart %s (commit %s, built %s, %s %s/%s)\n",
			version.Version, version.Commit, version.BuildDate,
			runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return err
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the release tag")
}
