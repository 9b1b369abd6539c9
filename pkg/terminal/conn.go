package terminal

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"smsgw/pkg/protocol"
)

// Conn is the live connection to a terminal-owning pool process. Send is
// fire-and-forget from the caller's perspective: delivery is not
// acknowledged at this layer.
type Conn interface {
	Send(msg protocol.Message) error
	ID() string
	RemoteAddr() string
	ConnectedAt() time.Time
	Group() string
}

// JSONConn wraps a net.Conn with line-delimited JSON framing. Writes are
// serialized so concurrent senders never interleave frames.
type JSONConn struct {
	id        string
	group     string
	connected time.Time

	mu   sync.Mutex
	conn net.Conn
}

// NewJSONConn wraps conn. A fresh connection ID is assigned; group may be
// set later via SetGroup once the pool process registers.
func NewJSONConn(conn net.Conn) *JSONConn {
	return &JSONConn{
		id:        uuid.NewString(),
		connected: time.Now(),
		conn:      conn,
	}
}

// Send marshals msg and writes it as a single newline-terminated frame.
func (c *JSONConn) Send(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write to %s: %w", c.id, err)
	}
	return nil
}

// ID returns the connection's assigned identity.
func (c *JSONConn) ID() string { return c.id }

// RemoteAddr returns the peer address for reporting.
func (c *JSONConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// ConnectedAt returns the accept time.
func (c *JSONConn) ConnectedAt() time.Time { return c.connected }

// Group returns the pool group announced at registration, if any.
func (c *JSONConn) Group() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group
}

// SetGroup records the group announced by the pool process.
func (c *JSONConn) SetGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = group
}

// Close closes the underlying connection.
func (c *JSONConn) Close() error {
	return c.conn.Close()
}
