// Package storage implements the gateway's persistence layer: command queue
// records and delivery log entries in SQLite, written with plain SQL over
// database/sql.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smsgw/pkg/protocol"
)

// TimeLayout is the timestamp format stored in SQLite, matching
// datetime('now').
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the stored timestamp format (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Store provides access to the gateway state database.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle. Call Init before first use on a fresh
// database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// CreateQueue persists a new Command Record. The record must carry a hash,
// type, address and time; ID is filled in on return. Processed stays NULL
// unless the record arrives already finished, as inbox records do.
func (s *Store) CreateQueue(ctx context.Context, q *protocol.Queue) error {
	var processed any
	if q.Processed != "" {
		processed = q.Processed
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO gw_queue (hash, imsi, type, address, data, status, time, processed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Hash, q.IMSI, q.Type, q.Address, q.Data, q.Status, q.Time, processed)
	if err != nil {
		return fmt.Errorf("create queue record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create queue record: %w", err)
	}
	q.ID = id
	return nil
}

// UpdateStatus advances a record's status. The transition is monotonic:
// a status never moves to a lower rank, and a record that already reached a
// terminal status never returns to queued. Processed is set exactly once,
// the first time a terminal status lands. Returns true if a row changed;
// false means the record is missing or the transition was a regression.
func (s *Store) UpdateStatus(ctx context.Context, hash string, status protocol.Status, processedAt string) (bool, error) {
	lower := lowerRanked(status)
	if len(lower) == 0 {
		return false, nil
	}

	args := []any{string(status)}
	if status.Terminal() {
		args = append(args, processedAt)
	} else {
		args = append(args, nil)
	}
	args = append(args, hash)
	for _, l := range lower {
		args = append(args, string(l))
	}

	query := fmt.Sprintf(
		`UPDATE gw_queue SET status=?, processed=COALESCE(processed, ?) WHERE hash=? AND status IN (%s)`,
		placeholders(len(lower)))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update status %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update status %s: %w", hash, err)
	}
	return n > 0, nil
}

// lowerRanked returns every status strictly below the rank of s.
func lowerRanked(s protocol.Status) []protocol.Status {
	all := []protocol.Status{
		protocol.StatusQueued,
		protocol.StatusSent,
		protocol.StatusUnknown,
		protocol.StatusFailed,
		protocol.StatusDelivered,
	}
	var out []protocol.Status
	for _, c := range all {
		if c.Rank() < s.Rank() {
			out = append(out, c)
		}
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// GetQueue fetches one record by hash. Returns nil without error when the
// hash is unknown.
func (s *Store) GetQueue(ctx context.Context, hash string) (*protocol.Queue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, hash, COALESCE(imsi, ''), type, address, COALESCE(data, ''), status, time, COALESCE(processed, '')
		 FROM gw_queue WHERE hash=?`, hash)

	var q protocol.Queue
	err := row.Scan(&q.ID, &q.Hash, &q.IMSI, &q.Type, &q.Address, &q.Data, &q.Status, &q.Time, &q.Processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue record %s: %w", hash, err)
	}
	return &q, nil
}

// CountQueue returns the total number of Command Records.
func (s *Store) CountQueue(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gw_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

// ListQueue returns Command Records newest-first.
func (s *Store) ListQueue(ctx context.Context, offset, limit int) ([]protocol.Queue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, COALESCE(imsi, ''), type, address, COALESCE(data, ''), status, time, COALESCE(processed, '')
		 FROM gw_queue ORDER BY time DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanQueue(rows)
}

// Recent is a recent-activity projection: a message record annotated with
// the delivery code reported by the network (empty when no report matched).
type Recent struct {
	protocol.Queue
	Code string `json:"code"`
}

// CountRecents returns the number of message-activity records (outbound SMS
// and inbox).
func (s *Store) CountRecents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gw_queue WHERE type IN (?, ?)`,
		protocol.ActivitySMS, protocol.ActivityInbox).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recents: %w", err)
	}
	return n, nil
}

// ListRecents returns message activity newest-first, each record annotated
// with its latest delivery code. The network may report a hash more than
// once; only the newest log entry joins, so every record lists exactly once
// and the listing stays in step with CountRecents.
func (s *Store) ListRecents(ctx context.Context, offset, limit int) ([]Recent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.hash, COALESCE(q.imsi, ''), q.type, q.address, COALESCE(q.data, ''), q.status, q.time,
		        COALESCE(q.processed, ''), COALESCE(l.code, '')
		 FROM gw_queue q
		 LEFT JOIN gw_log l ON l.id = (SELECT MAX(id) FROM gw_log WHERE hash = q.hash)
		 WHERE q.type IN (?, ?)
		 ORDER BY q.time DESC, q.id DESC LIMIT ? OFFSET ?`,
		protocol.ActivitySMS, protocol.ActivityInbox, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list recents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Recent
	for rows.Next() {
		var r Recent
		if err := rows.Scan(&r.ID, &r.Hash, &r.IMSI, &r.Type, &r.Address, &r.Data, &r.Status, &r.Time, &r.Processed, &r.Code); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recents: %w", err)
	}
	return out, nil
}

// FindMessages returns every SMS record (outbound or inbox) for an address,
// oldest-first, for the conversation view.
func (s *Store) FindMessages(ctx context.Context, address string) ([]protocol.Queue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, COALESCE(imsi, ''), type, address, COALESCE(data, ''), status, time, COALESCE(processed, '')
		 FROM gw_queue WHERE address=? AND type IN (?, ?) ORDER BY time ASC, id ASC`,
		address, protocol.ActivitySMS, protocol.ActivityInbox)
	if err != nil {
		return nil, fmt.Errorf("find messages for %s: %w", address, err)
	}
	defer func() { _ = rows.Close() }()
	return scanQueue(rows)
}

// FindLogEntries returns delivery log entries for an address and activity
// type.
func (s *Store) FindLogEntries(ctx context.Context, address string, typ int) ([]protocol.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, address, type, COALESCE(code, ''), time FROM gw_log WHERE address=? AND type=?`,
		address, typ)
	if err != nil {
		return nil, fmt.Errorf("find log entries for %s: %w", address, err)
	}
	defer func() { _ = rows.Close() }()

	var out []protocol.LogEntry
	for rows.Next() {
		var e protocol.LogEntry
		if err := rows.Scan(&e.ID, &e.Hash, &e.Address, &e.Type, &e.Code, &e.Time); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return out, nil
}

// InsertLog records a delivery/result code reported by the network.
func (s *Store) InsertLog(ctx context.Context, e *protocol.LogEntry) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO gw_log (hash, address, type, code, time) VALUES (?, ?, ?, ?, ?)`,
		e.Hash, e.Address, e.Type, e.Code, e.Time)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	e.ID = id
	return nil
}

// TermStat holds per-terminal command counts, computed on demand.
type TermStat struct {
	IMSI      string `json:"imsi"`
	Total     int    `json:"total"`
	Queued    int    `json:"queued"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Stat computes command counts for one terminal.
func (s *Store) Stat(ctx context.Context, imsi string) (*TermStat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN status='queued' THEN 1 END),
		        COUNT(CASE WHEN processed IS NOT NULL THEN 1 END),
		        COUNT(CASE WHEN status='failed' THEN 1 END)
		 FROM gw_queue WHERE imsi=?`, imsi)

	st := &TermStat{IMSI: imsi}
	if err := row.Scan(&st.Total, &st.Queued, &st.Processed, &st.Failed); err != nil {
		return nil, fmt.Errorf("stat %s: %w", imsi, err)
	}
	return st, nil
}

func scanQueue(rows *sql.Rows) ([]protocol.Queue, error) {
	var out []protocol.Queue
	for rows.Next() {
		var q protocol.Queue
		if err := rows.Scan(&q.ID, &q.Hash, &q.IMSI, &q.Type, &q.Address, &q.Data, &q.Status, &q.Time, &q.Processed); err != nil {
			return nil, fmt.Errorf("scan queue record: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue records: %w", err)
	}
	return out, nil
}
