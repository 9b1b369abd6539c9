package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"smsgw/pkg/report"
	"smsgw/pkg/storage"
)

// newQueueCmd creates the "smsgw queue" subcommand.
func newQueueCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List queued commands",
		Long:  "Displays the command queue newest-first, one page at a time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeDB, err := openReader()
			if err != nil {
				return err
			}
			defer closeDB()

			listing, err := reader.ListQueue(cmd.Context(), page)
			if err != nil {
				return err
			}
			printQueuePage(cmd.OutOrStdout(), listing)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to display")

	return cmd
}

// newMessagesCmd creates the "smsgw messages" subcommand.
func newMessagesCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List message activity",
		Long:  "Displays outbound and inbound SMS newest-first with delivery codes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeDB, err := openReader()
			if err != nil {
				return err
			}
			defer closeDB()

			listing, err := reader.ListMessages(cmd.Context(), page)
			if err != nil {
				return err
			}
			printMessagePage(cmd.OutOrStdout(), listing)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to display")

	return cmd
}

// openReader opens the state database read-only so listing commands never
// contend with a running gateway.
func openReader() (*report.Reader, func(), error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve paths: %w", err)
	}

	db, err := storage.OpenReadOnly(paths.DBPath)
	if err != nil {
		return nil, nil, err
	}

	reader := report.NewReader(storage.New(db), paths.LogPath)
	return reader, func() { _ = db.Close() }, nil
}

func printQueuePage(w io.Writer, listing *report.QueuePage) {
	if len(listing.Rows) == 0 {
		fmt.Fprintln(w, "No commands.")
		return
	}
	fmt.Fprintf(w, "%-4s %-32s %-4s %-16s %-10s %-19s\n", "NR", "HASH", "TYPE", "ADDRESS", "STATUS", "TIME")
	for _, row := range listing.Rows {
		fmt.Fprintf(w, "%-4d %-32s %-4d %-16s %-10s %-19s\n",
			row.Nr, row.Hash, row.Type, row.Address, row.Status, row.Time)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d commands)\n", listing.Pager.Page, listing.Pager.PageCount, listing.Pager.Total)
}

func printMessagePage(w io.Writer, listing *report.MessagePage) {
	if len(listing.Rows) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	fmt.Fprintf(w, "%-4s %-16s %-10s %-4s %s\n", "NR", "ADDRESS", "STATUS", "CODE", "MESSAGE")
	for _, row := range listing.Rows {
		fmt.Fprintf(w, "%-4d %-16s %-10s %-4s %s\n",
			row.Nr, row.Address, row.Status, row.Code, row.Data)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d messages)\n", listing.Pager.Page, listing.Pager.PageCount, listing.Pager.Total)
}
