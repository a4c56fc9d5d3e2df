package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set by the build via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bk25 version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bk25 %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
