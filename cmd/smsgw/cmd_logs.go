package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"smsgw/pkg/report"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail   int
	follow bool
}

// newLogsCmd creates the "smsgw logs" subcommand.
func newLogsCmd() *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the gateway activity log",
		Long:  "Displays the tail of the activity log.\nWith --follow, new events are printed as the gateway appends them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			reader := report.NewReader(nil, paths.LogPath)

			w := cmd.OutOrStdout()
			lines, err := reader.TailActivityLog(cfg.tail)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}

			if cfg.follow {
				return followActivityLog(cmd.Context(), w, paths.LogPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "print new events as they are written")

	return cmd
}

// followActivityLog watches the activity log and streams appended content
// until ctx is cancelled.
func followActivityLog(ctx context.Context, w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Start at the end; the tail was already printed.
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek activity log: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	buf := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			return fmt.Errorf("watch activity log: %w", err)
		case ev := <-watcher.Events:
			if !ev.Has(fsnotify.Write) {
				continue
			}
			for {
				n, rerr := f.ReadAt(buf, offset)
				if n > 0 {
					offset += int64(n)
					if _, werr := w.Write(buf[:n]); werr != nil {
						return werr
					}
				}
				if rerr != nil {
					break
				}
			}
		}
	}
}
