package report_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"smsgw/pkg/protocol"
	"smsgw/pkg/report"
	"smsgw/pkg/storage"
)

func setupStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "gateway.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := storage.New(db)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return store
}

func mustCreate(t *testing.T, store *storage.Store, q *protocol.Queue) {
	t.Helper()
	if q.Status == "" {
		q.Status = protocol.StatusQueued
	}
	if err := store.CreateQueue(context.Background(), q); err != nil {
		t.Fatalf("create queue record: %v", err)
	}
}

func TestListQueuePagination(t *testing.T) {
	store := setupStore(t)
	for i := 0; i < 30; i++ {
		mustCreate(t, store, &protocol.Queue{
			Hash:    fmt.Sprintf("hash%02d", i),
			Type:    protocol.ActivitySMS,
			Address: "0811111111",
			Time:    fmt.Sprintf("2026-08-01 10:%02d:00", i),
		})
	}
	r := report.NewReader(store, "")

	p1, err := r.ListQueue(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListQueue page 1: %v", err)
	}
	if len(p1.Rows) != report.PageSize {
		t.Fatalf("page 1 rows = %d, want %d", len(p1.Rows), report.PageSize)
	}
	if p1.Pager.Total != 30 || p1.Pager.PageCount != 2 {
		t.Errorf("pager = %+v, want total 30 over 2 pages", p1.Pager)
	}
	if p1.Rows[0].Nr != 1 || p1.Rows[24].Nr != 25 {
		t.Errorf("page 1 numbering = %d..%d, want 1..25", p1.Rows[0].Nr, p1.Rows[24].Nr)
	}
	// Newest-first: the latest record opens the list.
	if p1.Rows[0].Hash != "hash29" {
		t.Errorf("first row = %s, want hash29", p1.Rows[0].Hash)
	}

	p2, err := r.ListQueue(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListQueue page 2: %v", err)
	}
	if len(p2.Rows) != 5 {
		t.Fatalf("page 2 rows = %d, want 5", len(p2.Rows))
	}
	// Numbering continues across the page boundary.
	if p2.Rows[0].Nr != 26 || p2.Rows[4].Nr != 30 {
		t.Errorf("page 2 numbering = %d..%d, want 26..30", p2.Rows[0].Nr, p2.Rows[4].Nr)
	}
	if !p2.Pager.HasPrev() || p2.Pager.HasNext() {
		t.Errorf("page 2 pager = %+v", p2.Pager)
	}
}

func TestListQueuePageClampAndOverrun(t *testing.T) {
	store := setupStore(t)
	mustCreate(t, store, &protocol.Queue{
		Hash: "h1", Type: protocol.ActivitySMS, Address: "0811", Time: "2026-08-01 10:00:00",
	})
	r := report.NewReader(store, "")

	clamped, err := r.ListQueue(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListQueue page 0: %v", err)
	}
	if clamped.Pager.Page != 1 || len(clamped.Rows) != 1 {
		t.Errorf("page 0 clamped to %+v with %d rows", clamped.Pager, len(clamped.Rows))
	}

	beyond, err := r.ListQueue(context.Background(), 9)
	if err != nil {
		t.Fatalf("ListQueue page 9: %v", err)
	}
	if len(beyond.Rows) != 0 {
		t.Errorf("overrun page has %d rows, want 0", len(beyond.Rows))
	}
	if beyond.Pager.Total != 1 {
		t.Errorf("overrun pager total = %d, want 1", beyond.Pager.Total)
	}
}

func TestListMessagesFiltersAndJoinsCodes(t *testing.T) {
	store := setupStore(t)
	mustCreate(t, store, &protocol.Queue{
		Hash: "sms1", Type: protocol.ActivitySMS, Address: "0811", Data: "hi",
		Time: "2026-08-01 10:00:00",
	})
	mustCreate(t, store, &protocol.Queue{
		Hash: "call1", Type: protocol.ActivityCall, Address: "0811",
		Time: "2026-08-01 10:01:00",
	})
	mustCreate(t, store, &protocol.Queue{
		Hash: "in1", Type: protocol.ActivityInbox, Address: "0812", Data: "yo",
		Time: "2026-08-01 10:02:00",
	})
	if err := store.InsertLog(context.Background(), &protocol.LogEntry{
		Hash: "sms1", Address: "0811", Type: protocol.ActivitySMS, Code: "0",
		Time: "2026-08-01 10:00:30",
	}); err != nil {
		t.Fatalf("insert log: %v", err)
	}

	r := report.NewReader(store, "")
	page, err := r.ListMessages(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}

	if len(page.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (call excluded)", len(page.Rows))
	}
	if page.Rows[0].Hash != "in1" || page.Rows[1].Hash != "sms1" {
		t.Errorf("order = %s, %s", page.Rows[0].Hash, page.Rows[1].Hash)
	}
	if page.Rows[1].Code != "0" {
		t.Errorf("sms1 code = %q, want \"0\"", page.Rows[1].Code)
	}
	if page.Rows[0].Code != "" {
		t.Errorf("in1 code = %q, want empty", page.Rows[0].Code)
	}
}

func TestReadConversationGroupsByDay(t *testing.T) {
	store := setupStore(t)
	mustCreate(t, store, &protocol.Queue{
		Hash: "m1", Type: protocol.ActivitySMS, IMSI: "510101234567890", Address: "0811111111",
		Data: "morning", Status: protocol.StatusDelivered,
		Time: "2026-08-01 09:15:00", Processed: "2026-08-01 09:16:00",
	})
	mustCreate(t, store, &protocol.Queue{
		Hash: "m2", Type: protocol.ActivityInbox, Address: "0811111111", Data: "reply",
		Status: protocol.StatusDelivered, Time: "2026-08-01 09:20:00",
	})
	mustCreate(t, store, &protocol.Queue{
		Hash: "m3", Type: protocol.ActivitySMS, Address: "0811111111", Data: "next day",
		Status: protocol.StatusSent, Time: "2026-08-02 08:00:00",
	})
	// Other numbers stay out of the conversation.
	mustCreate(t, store, &protocol.Queue{
		Hash: "other", Type: protocol.ActivitySMS, Address: "0899", Data: "x",
		Time: "2026-08-01 09:00:00",
	})

	if err := store.InsertLog(context.Background(), &protocol.LogEntry{
		Hash: "m1", Address: "0811111111", Type: protocol.ActivitySMS, Code: "0",
		Time: "2026-08-01 09:16:00",
	}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	// Orphaned report: references a message nobody stored.
	if err := store.InsertLog(context.Background(), &protocol.LogEntry{
		Hash: "ghost", Address: "0811111111", Type: protocol.ActivitySMS, Code: "1",
		Time: "2026-08-01 09:17:00",
	}); err != nil {
		t.Fatalf("insert orphan log: %v", err)
	}

	r := report.NewReader(store, "")
	r.SetOperatorLookup(func(imsi string) string {
		if imsi == "510101234567890" {
			return "TELKOMSEL"
		}
		return ""
	})
	conv, err := r.ReadConversation(context.Background(), "0811111111")
	if err != nil {
		t.Fatalf("ReadConversation: %v", err)
	}

	if len(conv.Days) != 2 {
		t.Fatalf("days = %d, want 2", len(conv.Days))
	}
	if conv.Days[0].Date != "01 Aug 2026" || conv.Days[1].Date != "02 Aug 2026" {
		t.Errorf("day headers = %q, %q", conv.Days[0].Date, conv.Days[1].Date)
	}

	day1 := conv.Days[0].Messages
	if len(day1) != 2 {
		t.Fatalf("day 1 messages = %d, want 2", len(day1))
	}
	if day1[0].Direction != "out" || day1[1].Direction != "in" {
		t.Errorf("directions = %s, %s", day1[0].Direction, day1[1].Direction)
	}
	if day1[0].Code != "0" {
		t.Errorf("m1 code = %q, want \"0\"", day1[0].Code)
	}
	if day1[0].Time != "09:15" {
		t.Errorf("m1 time = %q, want 09:15", day1[0].Time)
	}
	if day1[0].IMSI != "510101234567890" || day1[0].Operator != "TELKOMSEL" {
		t.Errorf("m1 terminal = %s/%s", day1[0].IMSI, day1[0].Operator)
	}
	if day1[0].Processed != "2026-08-01 09:16:00" {
		t.Errorf("m1 processed = %q", day1[0].Processed)
	}

	day2 := conv.Days[1].Messages
	if len(day2) != 1 || day2[0].Hash != "m3" {
		t.Fatalf("day 2 = %+v", day2)
	}
	// Numbering runs across day groups.
	if day1[0].Nr != 1 || day1[1].Nr != 2 || day2[0].Nr != 3 {
		t.Errorf("numbering = %d, %d, %d", day1[0].Nr, day1[1].Nr, day2[0].Nr)
	}
}

func TestReadConversationEmpty(t *testing.T) {
	store := setupStore(t)
	r := report.NewReader(store, "")

	conv, err := r.ReadConversation(context.Background(), "0800000000")
	if err != nil {
		t.Fatalf("ReadConversation: %v", err)
	}
	if len(conv.Days) != 0 {
		t.Errorf("days = %d, want 0", len(conv.Days))
	}
}

func TestReadActivityLog(t *testing.T) {
	store := setupStore(t)
	path := filepath.Join(t.TempDir(), "activity.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	r := report.NewReader(store, path)
	snap, err := r.ReadActivityLog()
	if err != nil {
		t.Fatalf("ReadActivityLog: %v", err)
	}
	if snap.Logs != "one\ntwo\n" {
		t.Errorf("logs = %q", snap.Logs)
	}
	if snap.Time == "" {
		t.Error("snapshot has no capture time")
	}
}

func TestReadActivityLogMissingFile(t *testing.T) {
	store := setupStore(t)
	r := report.NewReader(store, filepath.Join(t.TempDir(), "nope.log"))

	snap, err := r.ReadActivityLog()
	if err != nil {
		t.Fatalf("ReadActivityLog: %v", err)
	}
	if snap.Logs != "" {
		t.Errorf("logs = %q, want empty", snap.Logs)
	}
}

func TestTailActivityLog(t *testing.T) {
	store := setupStore(t)
	path := filepath.Join(t.TempDir(), "activity.log")

	var content string
	for i := 1; i <= 10; i++ {
		content += fmt.Sprintf("line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	r := report.NewReader(store, path)
	got, err := r.TailActivityLog(3)
	if err != nil {
		t.Fatalf("TailActivityLog: %v", err)
	}
	want := []string{"line 8", "line 9", "line 10"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("tail = %v, want %v", got, want)
	}
}

func TestTailActivityLogMissingFile(t *testing.T) {
	store := setupStore(t)
	r := report.NewReader(store, filepath.Join(t.TempDir(), "nope.log"))

	got, err := r.TailActivityLog(5)
	if err != nil {
		t.Fatalf("TailActivityLog: %v", err)
	}
	if got != nil {
		t.Errorf("tail = %v, want nil", got)
	}
}
