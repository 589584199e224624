package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philipparndt/goknife/pkg/watcher"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [trail] [model...]",
	Short: "Re-run a cut whenever the trail or a model changes",
	Long: `Replay the trail once and again every time the trail file or one of the
models is saved. OpenSCAD models are re-rendered when any file they use or
include changes. Accepts the same flags as cut.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().AddFlagSet(cutCmd.Flags())
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Delay before reacting to a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		res, err := replay(cmd, args[0], args[1:])
		if err == nil {
			err = printCut(res)
		}
		if err == nil && cutOutput != "" {
			err = writeCut(res.objects, cutOutput)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	run()

	var log *slog.Logger
	if verbose {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	fw, err := watcher.NewFileWatcher(watchDebounce, log)
	if err != nil {
		return err
	}
	defer fw.Close()

	files, err := watchedFiles(args)
	if err != nil {
		return err
	}
	changes := make(chan string, 1)
	if err := fw.Watch(files, func(path string) {
		select {
		case changes <- path:
		default:
		}
	}); err != nil {
		return err
	}
	go fw.Start(ctx)

	fmt.Printf("\nWatching %d files, press Ctrl+C to stop\n", len(files))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			fmt.Printf("\n%s changed at %s\n\n", path, time.Now().Format(time.TimeOnly))
			run()
		}
	}
}
