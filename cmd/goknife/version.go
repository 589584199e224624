package main

import (
	"fmt"

	"github.com/philipparndt/goknife/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the goknife version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goknife %s\n", version.GetFullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
