package terminal

import (
	"sort"
	"sync"
	"time"

	"smsgw/pkg/protocol"
)

// Entry is one pool process on the roster. An entry may outlive its
// connection: a pool that registered and then dropped stays on the roster
// until it is explicitly removed, with a nil conn in the meantime.
type Entry struct {
	ID        string
	Group     string
	Connected time.Time

	mu        sync.RWMutex
	conn      Conn
	seen      time.Time
	terminals []string
}

// Conn returns the entry's live connection, or nil.
func (e *Entry) Conn() Conn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conn
}

// Seen returns the time of the entry's last registration or heartbeat.
func (e *Entry) Seen() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seen
}

// Terminals returns the IMSIs the pool announced at registration.
func (e *Entry) Terminals() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.terminals...)
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.seen = now
	e.mu.Unlock()
}

// Pool is the roster of terminal-pool processes registered with the
// gateway, keyed by connection ID.
type Pool struct {
	nowFunc func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewPool creates an empty roster.
func NewPool() *Pool {
	return &Pool{
		nowFunc: time.Now,
		entries: make(map[string]*Entry),
	}
}

// Register adds a pool process to the roster, replacing any previous entry
// under the same connection ID.
func (p *Pool) Register(conn Conn, group string, terminals []string) *Entry {
	e := &Entry{
		ID:        conn.ID(),
		Group:     group,
		Connected: conn.ConnectedAt(),
		conn:      conn,
		seen:      p.nowFunc(),
		terminals: append([]string(nil), terminals...),
	}

	p.mu.Lock()
	p.entries[e.ID] = e
	p.mu.Unlock()
	return e
}

// Touch records a heartbeat for the given connection. Unknown connections
// are ignored.
func (p *Pool) Touch(connID string) {
	p.mu.RLock()
	e := p.entries[connID]
	p.mu.RUnlock()
	if e != nil {
		e.touch(p.nowFunc())
	}
}

// Drop clears the live connection of the roster entry for connID without
// removing the entry itself.
func (p *Pool) Drop(connID string) {
	p.mu.RLock()
	e := p.entries[connID]
	p.mu.RUnlock()
	if e == nil {
		return
	}
	e.mu.Lock()
	e.conn = nil
	e.mu.Unlock()
}

// Remove deletes the roster entry for connID.
func (p *Pool) Remove(connID string) {
	p.mu.Lock()
	delete(p.entries, connID)
	p.mu.Unlock()
}

// Entries returns the roster ordered by connection ID.
func (p *Pool) Entries() []*Entry {
	p.mu.RLock()
	out := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the roster size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Broadcast emits a signal to every pool process on the roster. Entries
// whose connection has dropped are skipped without error. The return value
// reports whether the roster was non-empty when the broadcast started, NOT
// whether any process actually received the signal; callers that need
// delivery confirmation must watch for the pool's asynchronous reply.
func (p *Pool) Broadcast(signal string, payload string) bool {
	entries := p.Entries()
	if len(entries) == 0 {
		return false
	}

	msg := protocol.Message{
		Type: protocol.MsgSignal,
		Signal: &protocol.SignalPayload{
			Name:    signal,
			Payload: payload,
		},
	}
	for _, e := range entries {
		conn := e.Conn()
		if conn == nil {
			continue
		}
		_ = conn.Send(msg)
	}
	return true
}

// Client is one row of the roster projection served to operators: a pool
// process with its address, connect time and group.
type Client struct {
	Nr      int    `json:"nr"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Time    string `json:"time"`
	Group   string `json:"group"`
}

// Clients lists the roster for display, numbering rows from 1. Time is the
// connect time, not the last heartbeat. Entries without a live connection
// report an empty address but keep the connect time of the connection they
// registered with.
func (p *Pool) Clients() []Client {
	entries := p.Entries()
	out := make([]Client, 0, len(entries))
	for i, e := range entries {
		c := Client{
			Nr:    i + 1,
			ID:    e.ID,
			Time:  e.Connected.Format("2006-01-02 15:04:05"),
			Group: e.Group,
		}
		if conn := e.Conn(); conn != nil {
			c.Address = conn.RemoteAddr()
		}
		out = append(out, c)
	}
	return out
}
