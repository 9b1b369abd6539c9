// Package report is the gateway's read side: paginated queue and message
// listings, per-number conversation views and the activity log tail. It
// works against a read-only database handle so reporting never contends
// with dispatch writes.
package report

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"smsgw/pkg/protocol"
	"smsgw/pkg/storage"
)

// DayLayout renders a conversation day header.
const DayLayout = "02 Jan 2006"

// Reader serves listings from the state database and the activity log file.
type Reader struct {
	store    *storage.Store
	logPath  string
	operator func(imsi string) string

	nowFunc func() time.Time
}

// NewReader creates a reader. logPath may be empty when no activity log is
// configured; the log operations then return nothing.
func NewReader(store *storage.Store, logPath string) *Reader {
	return &Reader{store: store, logPath: logPath, nowFunc: time.Now}
}

// SetOperatorLookup installs the IMSI-to-operator resolver used to annotate
// conversation entries. Without one the operator field stays empty.
func (r *Reader) SetOperatorLookup(fn func(imsi string) string) {
	r.operator = fn
}

// QueueRow is one listed Command Record. Nr numbers rows from 1 and
// continues across pages.
type QueueRow struct {
	Nr int `json:"nr"`
	protocol.Queue
}

// QueuePage is one page of the full command queue, newest-first.
type QueuePage struct {
	Pager Pager      `json:"pager"`
	Rows  []QueueRow `json:"rows"`
}

// ListQueue returns page n of all Command Records.
func (r *Reader) ListQueue(ctx context.Context, page int) (*QueuePage, error) {
	total, err := r.store.CountQueue(ctx)
	if err != nil {
		return nil, err
	}
	pager := newPager(page, total)

	items, err := r.store.ListQueue(ctx, pager.Offset(), PageSize)
	if err != nil {
		return nil, err
	}

	rows := make([]QueueRow, len(items))
	for i, q := range items {
		rows[i] = QueueRow{Nr: pager.Offset() + i + 1, Queue: q}
	}
	return &QueuePage{Pager: pager, Rows: rows}, nil
}

// MessageRow is one listed message with its delivery code.
type MessageRow struct {
	Nr int `json:"nr"`
	storage.Recent
}

// MessagePage is one page of message activity (outbound SMS and inbox),
// newest-first.
type MessagePage struct {
	Pager Pager        `json:"pager"`
	Rows  []MessageRow `json:"rows"`
}

// ListMessages returns page n of message activity.
func (r *Reader) ListMessages(ctx context.Context, page int) (*MessagePage, error) {
	total, err := r.store.CountRecents(ctx)
	if err != nil {
		return nil, err
	}
	pager := newPager(page, total)

	items, err := r.store.ListRecents(ctx, pager.Offset(), PageSize)
	if err != nil {
		return nil, err
	}

	rows := make([]MessageRow, len(items))
	for i, m := range items {
		rows[i] = MessageRow{Nr: pager.Offset() + i + 1, Recent: m}
	}
	return &MessagePage{Pager: pager, Rows: rows}, nil
}

// ConversationMessage is one message in a conversation view.
type ConversationMessage struct {
	Nr        int             `json:"nr"`
	Hash      string          `json:"hash"`
	IMSI      string          `json:"imsi"`
	Operator  string          `json:"operator,omitempty"`
	Direction string          `json:"direction"` // "in" or "out"
	Data      string          `json:"data"`
	Status    protocol.Status `json:"status"`
	Processed string          `json:"processed,omitempty"`
	Time      string          `json:"time"` // clock time within the day
	Code      string          `json:"code,omitempty"`
}

// ConversationDay groups a day's messages under a shared date header.
type ConversationDay struct {
	Date     string                `json:"date"`
	Messages []ConversationMessage `json:"messages"`
}

// Conversation is the full message history with one subscriber number,
// oldest-first, grouped by day.
type Conversation struct {
	Address string            `json:"address"`
	Days    []ConversationDay `json:"days"`
}

// ReadConversation builds the conversation view for a subscriber number.
// Delivery codes are joined from the log by hash; log entries referencing
// no known message are skipped.
func (r *Reader) ReadConversation(ctx context.Context, address string) (*Conversation, error) {
	msgs, err := r.store.FindMessages(ctx, address)
	if err != nil {
		return nil, err
	}

	entries, err := r.store.FindLogEntries(ctx, address, protocol.ActivitySMS)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]string, len(entries))
	for _, e := range entries {
		codes[e.Hash] = e.Code
	}

	conv := &Conversation{Address: address}
	var day *ConversationDay
	for i, q := range msgs {
		date, clock := splitTimestamp(q.Time)
		if day == nil || day.Date != date {
			conv.Days = append(conv.Days, ConversationDay{Date: date})
			day = &conv.Days[len(conv.Days)-1]
		}

		m := ConversationMessage{
			Nr:        i + 1,
			Hash:      q.Hash,
			IMSI:      q.IMSI,
			Data:      q.Data,
			Status:    q.Status,
			Processed: q.Processed,
			Time:      clock,
			Code:      codes[q.Hash],
		}
		if r.operator != nil {
			m.Operator = r.operator(q.IMSI)
		}
		if q.Type == protocol.ActivityInbox {
			m.Direction = "in"
		} else {
			m.Direction = "out"
		}
		day.Messages = append(day.Messages, m)
	}
	return conv, nil
}

// splitTimestamp splits a stored timestamp into a day header and a clock
// time. Unparseable timestamps keep their raw form as the day header.
func splitTimestamp(ts string) (date, clock string) {
	t, err := time.Parse(storage.TimeLayout, ts)
	if err != nil {
		return ts, ""
	}
	return t.Format(DayLayout), t.Format("15:04")
}

// ActivityLogSnapshot is the full activity log content captured at one
// moment.
type ActivityLogSnapshot struct {
	Time string `json:"time"`
	Logs string `json:"logs"`
}

// ReadActivityLog returns the complete current activity log plus a capture
// timestamp. No tailing state is kept; every call rereads the file. A
// missing file yields an empty snapshot.
func (r *Reader) ReadActivityLog() (*ActivityLogSnapshot, error) {
	snap := &ActivityLogSnapshot{Time: storage.FormatTime(r.nowFunc())}
	if r.logPath == "" {
		return snap, nil
	}

	data, err := os.ReadFile(r.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	snap.Logs = string(data)
	return snap, nil
}

// TailActivityLog returns the last n lines of the activity log. A missing
// log file is not an error; the tail is simply empty.
func (r *Reader) TailActivityLog(n int) ([]string, error) {
	if r.logPath == "" || n <= 0 {
		return nil, nil
	}

	f, err := os.Open(r.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Ring of the last n lines; the log is small enough to scan forward.
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	return ring, nil
}
