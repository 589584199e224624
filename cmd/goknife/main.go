package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/version"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "goknife",
	Short: "Cut polygon meshes along recorded knife trails",
	Long: `goknife applies knife cuts to STL meshes. Cuts are drawn in screen space
and replayed from YAML trail files, so the same cut can be reproduced,
watched and tested without a window.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			knife.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log knife activity to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
