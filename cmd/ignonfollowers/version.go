package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ignonfollowers %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", gitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildDate)
		fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
