package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"smsgw/pkg/api"
	"smsgw/pkg/dispatch"
	"smsgw/pkg/hashgen"
	"smsgw/pkg/protocol"
	"smsgw/pkg/report"
	"smsgw/pkg/storage"
	"smsgw/pkg/terminal"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	sent []protocol.Message
}

func (c *fakeConn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) RemoteAddr() string     { return "@" + c.id }
func (c *fakeConn) ConnectedAt() time.Time { return time.Time{} }
func (c *fakeConn) Group() string          { return "" }

type fixture struct {
	store    *storage.Store
	registry *terminal.Registry
	pool     *terminal.Pool
	api      *api.API
	router   *gin.Engine
	logPath  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "gateway.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := storage.New(db)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	registry := terminal.NewRegistry(nil)
	pool := terminal.NewPool()
	disp := dispatch.New(store, registry, pool, hashgen.New(), nil)
	logPath := filepath.Join(dir, "activity.log")
	reader := report.NewReader(store, logPath)

	a := api.New(store, reader, disp, registry, pool, "test", nil)
	return &fixture{
		store:    store,
		registry: registry,
		pool:     pool,
		api:      a,
		router:   a.Router(),
		logPath:  logPath,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestGetAbout(t *testing.T) {
	f := setup(t)

	w := f.get(t, "/about")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["version"] != "test" || body["name"] != "smsgw" {
		t.Errorf("about = %v", body)
	}
}

func TestSendMessage(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	w := f.postForm(t, "/send-message", url.Values{
		"number":  {"0811111111"},
		"message": {"hi"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	notice, _ := body["notice"].(string)
	if !strings.HasPrefix(notice, "message queued as ") {
		t.Fatalf("notice = %q", notice)
	}
	hash := strings.TrimPrefix(notice, "message queued as ")

	stored, err := f.store.GetQueue(context.Background(), hash)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if stored == nil || stored.Status != protocol.StatusQueued {
		t.Errorf("stored = %+v, want queued record", stored)
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	w := f.postForm(t, "/send-message", url.Values{"number": {"0811111111"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	body := decode(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Error("error body has no message")
	}

	n, _ := f.store.CountQueue(context.Background())
	if n != 0 {
		t.Errorf("queue count = %d after rejected send, want 0", n)
	}
}

func TestSendMessageNoRoute(t *testing.T) {
	f := setup(t)

	w := f.postForm(t, "/send-message", url.Values{
		"number":  {"0811111111"},
		"message": {"hi"},
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestQueueListing(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	for i := 0; i < 3; i++ {
		w := f.postForm(t, "/send-message", url.Values{
			"number":  {"0811111111"},
			"message": {"hi"},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("send %d: %d", i, w.Code)
		}
	}

	w := f.get(t, "/queue")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	rows, _ := body["rows"].([]any)
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}

	if w := f.get(t, "/queue/oops"); w.Code != http.StatusBadRequest {
		t.Errorf("bad page status = %d, want 400", w.Code)
	}
}

func TestConversation(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	w := f.postForm(t, "/send-message", url.Values{
		"number":  {"0811111111"},
		"message": {"hi"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send: %d", w.Code)
	}

	w = f.get(t, "/read/0811111111")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["address"] != "0811111111" {
		t.Errorf("address = %v", body["address"])
	}
	days, _ := body["days"].([]any)
	if len(days) != 1 {
		t.Errorf("days = %d, want 1", len(days))
	}
}

func TestTerminalConfigAndApply(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	w := f.get(t, "/510100000000001/config")
	if w.Code != http.StatusOK {
		t.Fatalf("config status = %d", w.Code)
	}

	// Checkbox form: only deliveryReport checked, priority set.
	w = f.postForm(t, "/510100000000001/apply", url.Values{
		"priority":       {"7"},
		"deliveryReport": {"on"},
		"operators[]":    {"TELKOMSEL", "XL"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("apply status = %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["success"] != true {
		t.Errorf("apply success = %v, want true", body["success"])
	}

	opts := f.registry.Get("510100000000001").Options()
	if opts.Priority != 7 {
		t.Errorf("priority = %d, want 7", opts.Priority)
	}
	if !opts.DeliveryReport {
		t.Error("deliveryReport = false, want true")
	}
	// Unchecked boxes come back false even though they default true.
	if opts.SendMessage || opts.ReceiveMessage {
		t.Errorf("unchecked booleans survived: send=%t recv=%t", opts.SendMessage, opts.ReceiveMessage)
	}
	if len(opts.Operators) != 2 {
		t.Errorf("operators = %v", opts.Operators)
	}
}

func TestTerminalApplyBadPriority(t *testing.T) {
	f := setup(t)
	f.registry.Attach("510100000000001", &fakeConn{id: "c1"})

	w := f.postForm(t, "/510100000000001/apply", url.Values{"priority": {"high"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTerminalNotFound(t *testing.T) {
	f := setup(t)

	if w := f.get(t, "/510100000000009/stat"); w.Code != http.StatusNotFound {
		t.Errorf("stat status = %d, want 404", w.Code)
	}
	if w := f.postForm(t, "/510100000000009/dial", url.Values{"number": {"0811"}}); w.Code != http.StatusNotFound {
		t.Errorf("dial status = %d, want 404", w.Code)
	}
}

func TestTerminalDialAndUssd(t *testing.T) {
	f := setup(t)
	conn := &fakeConn{id: "c1"}
	f.registry.Attach("510100000000001", conn)

	w := f.postForm(t, "/510100000000001/dial", url.Values{"number": {"0811111111"}})
	if w.Code != http.StatusOK {
		t.Fatalf("dial status = %d: %s", w.Code, w.Body.String())
	}

	w = f.postForm(t, "/510100000000001/ussd", url.Values{"code": {"*888#"}})
	if w.Code != http.StatusOK {
		t.Fatalf("ussd status = %d: %s", w.Code, w.Body.String())
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.sent) != 2 {
		t.Fatalf("terminal received %d jobs, want 2", len(conn.sent))
	}
	if conn.sent[0].Job.Type != protocol.ActivityCall || conn.sent[1].Job.Type != protocol.ActivityUSSD {
		t.Errorf("job types = %d, %d", conn.sent[0].Job.Type, conn.sent[1].Job.Type)
	}
}

func TestTaskBroadcast(t *testing.T) {
	f := setup(t)

	w := f.postForm(t, "/task/readmsg", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["success"] != false {
		t.Errorf("success = %v with empty roster, want false", body["success"])
	}

	f.pool.Register(&fakeConn{id: "p1"}, "pool-a", nil)

	w = f.postForm(t, "/task/readmsg", nil)
	if body := decode(t, w); body["success"] != true {
		t.Errorf("success = %v with registered pool, want true", body["success"])
	}

	if w := f.postForm(t, "/task/explode", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown op status = %d, want 400", w.Code)
	}
}

func TestActivityLogSnapshot(t *testing.T) {
	f := setup(t)
	if err := os.WriteFile(f.logPath, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	w := f.get(t, "/activity-log")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	logs, _ := body["logs"].(string)
	if logs != "line one\nline two\n" {
		t.Errorf("logs = %q", logs)
	}
	if ts, _ := body["time"].(string); ts == "" {
		t.Error("snapshot has no capture time")
	}
}

func TestClients(t *testing.T) {
	f := setup(t)
	f.pool.Register(&fakeConn{id: "p1"}, "pool-a", nil)

	w := f.get(t, "/client")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	clients, _ := decode(t, w)["clients"].([]any)
	if len(clients) != 1 {
		t.Errorf("clients = %d, want 1", len(clients))
	}
}

func TestPluginRouting(t *testing.T) {
	f := setup(t)
	f.api.Plugins().Register("echo", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("path=" + r.URL.Path))
	}))
	router := f.api.Router()

	req := httptest.NewRequest(http.MethodGet, "/p/echo/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "path=/ping" {
		t.Errorf("body = %q, want path=/ping", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/p/ghost/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown plugin status = %d, want 404", w.Code)
	}
}
