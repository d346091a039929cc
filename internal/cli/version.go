package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	SnapjanitorVersion, SnapjanitorCommit, SnapjanitorDate string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version, commit hash, build date, and other build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SnapJanitor version: %s\n", SnapjanitorVersion)
		fmt.Printf("Commit: %s\n", SnapjanitorCommit)
		fmt.Printf("Built: %s\n", SnapjanitorDate)
	},
}

func init() {
	rootCommand.AddCommand(versionCommand)
}
