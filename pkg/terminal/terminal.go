// Package terminal tracks the GSM terminals known to the gateway: their
// configuration, their live pool connections, and the pool roster used for
// broadcast signalling.
package terminal

import (
	"context"
	"sync"

	"smsgw/pkg/storage"
)

// Terminal is one GSM modem identified by its SIM's IMSI, live for as long
// as its pool connection. Configuration applies to the current registration
// only; a pool restart starts over from defaults.
type Terminal struct {
	IMSI string

	mu      sync.RWMutex
	options Options
	conn    Conn
}

// NewTerminal creates a terminal with default options and no connection.
func NewTerminal(imsi string) *Terminal {
	return &Terminal{IMSI: imsi, options: DefaultOptions()}
}

// Options returns a copy of the terminal's current configuration.
func (t *Terminal) Options() Options {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.options.clone()
}

// ReadOptions replaces the terminal's configuration wholesale.
func (t *Terminal) ReadOptions(o Options) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.options = o.clone()
}

// Conn returns the live connection serving this terminal, or nil when the
// owning pool process is offline.
func (t *Terminal) Conn() Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn
}

// Online reports whether a pool process currently serves this terminal.
func (t *Terminal) Online() bool {
	return t.Conn() != nil
}

func (t *Terminal) setConn(c Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn = c
}

// dropConn clears the connection only if it is still the given one, so a
// reconnect racing a stale disconnect never loses the fresh connection.
// Reports whether the connection was dropped.
func (t *Terminal) dropConn(connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil && t.conn.ID() == connID {
		t.conn = nil
		return true
	}
	return false
}

// Stat reports this terminal's command counts from the state database.
func (t *Terminal) Stat(ctx context.Context, store *storage.Store) (*storage.TermStat, error) {
	return store.Stat(ctx, t.IMSI)
}
