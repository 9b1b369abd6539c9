package main

import (
	"context"
	"os"
	"path/filepath"

	"smsgw/pkg/protocol"
	"smsgw/pkg/report"
	"smsgw/pkg/storage"
)

// snapshot is one refresh of everything the dashboard displays.
type snapshot struct {
	queue    []report.QueueRow
	total    int
	messages int
	activity []string
	err      error
}

// fetchSnapshot reads the gateway state from the read-only database and the
// activity log. Errors land in the snapshot so the UI can show them instead
// of dying.
func fetchSnapshot(ctx context.Context, page int) snapshot {
	dbPath, logPath := statePaths()

	db, err := storage.OpenReadOnly(dbPath)
	if err != nil {
		return snapshot{err: err}
	}
	defer func() { _ = db.Close() }()

	reader := report.NewReader(storage.New(db), logPath)

	var snap snapshot
	listing, err := reader.ListQueue(ctx, page)
	if err != nil {
		return snapshot{err: err}
	}
	snap.queue = listing.Rows
	snap.total = listing.Pager.Total

	messages, err := reader.ListMessages(ctx, 1)
	if err != nil {
		return snapshot{err: err}
	}
	snap.messages = messages.Pager.Total

	lines, err := reader.TailActivityLog(5)
	if err == nil {
		snap.activity = lines
	}
	return snap
}

// statePaths resolves the database and activity log locations the same way
// the smsgw CLI does.
func statePaths() (dbPath, logPath string) {
	home := os.Getenv("SMSGW_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err == nil {
			home = filepath.Join(userHome, protocol.GwDir)
		}
	}

	dbPath = os.Getenv("SMSGW_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(home, protocol.StateDBName)
	}
	logPath = os.Getenv("SMSGW_LOG_PATH")
	if logPath == "" {
		logPath = filepath.Join(home, protocol.ActivityLogName)
	}
	return dbPath, logPath
}
