package gateway

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ActivityLog is the append-only human-readable event trail the gateway
// writes next to its database. One line per event; the report reader tails
// this file.
type ActivityLog struct {
	nowFunc func() time.Time

	mu sync.Mutex
	f  *os.File
}

// OpenActivityLog opens (or creates) the activity log at path.
func OpenActivityLog(path string) (*ActivityLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	return &ActivityLog{nowFunc: time.Now, f: f}, nil
}

// Log appends one event line. A nil log discards silently, so callers never
// guard their logging.
func (a *ActivityLog) Log(event, format string, args ...any) {
	if a == nil {
		return
	}
	line := fmt.Sprintf("%s | %-8s | %s\n",
		a.nowFunc().UTC().Format("2006-01-02 15:04:05"), event, fmt.Sprintf(format, args...))

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f != nil {
		_, _ = a.f.WriteString(line)
	}
}

// Close flushes and closes the underlying file.
func (a *ActivityLog) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}
