// Package dispatch accepts gateway commands, persists them as queue records
// and hands them to the terminals that execute them. Each accepted command
// gets a Completion that resolves exactly once with its final status.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"smsgw/pkg/hashgen"
	"smsgw/pkg/protocol"
	"smsgw/pkg/storage"
	"smsgw/pkg/terminal"
)

// Dispatcher owns the command queue. All collaborators are injected; the
// dispatcher holds no global state.
type Dispatcher struct {
	store    *storage.Store
	registry *terminal.Registry
	pool     *terminal.Pool
	gen      *hashgen.Generator
	logger   *log.Logger

	nowFunc func() time.Time

	mu      sync.Mutex
	pending map[string]*Completion
}

// New creates a dispatcher. logger may be nil to discard dispatch logging.
func New(store *storage.Store, registry *terminal.Registry, pool *terminal.Pool, gen *hashgen.Generator, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	return &Dispatcher{
		store:    store,
		registry: registry,
		pool:     pool,
		gen:      gen,
		logger:   logger,
		nowFunc:  time.Now,
		pending:  make(map[string]*Completion),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Add validates and enqueues a command. Nothing is persisted when validation
// fails; the typed error identifies the offending field. On success the
// record is stored as queued, delivery to the owning terminal is attempted,
// and the returned Completion resolves when a terminal status lands.
//
// imsi may be empty for outbound SMS; the dispatcher then routes by
// destination. Calls and USSD always need an explicit terminal.
func (d *Dispatcher) Add(ctx context.Context, imsi string, activity int, address, data string) (*protocol.Queue, *Completion, error) {
	if address == "" {
		return nil, nil, &protocol.ValidationError{Field: "address"}
	}

	switch activity {
	case protocol.ActivityCall:
	case protocol.ActivitySMS, protocol.ActivityUSSD:
		if data == "" {
			return nil, nil, &protocol.ValidationError{Field: "data"}
		}
	default:
		return nil, nil, &protocol.ValidationError{Field: "type"}
	}

	var term *terminal.Terminal
	if imsi != "" {
		term = d.registry.Get(imsi)
		if term == nil {
			return nil, nil, &protocol.TerminalNotFoundError{IMSI: imsi}
		}
	} else {
		if activity != protocol.ActivitySMS {
			return nil, nil, &protocol.ValidationError{Field: "imsi"}
		}
		term = d.registry.Route(address)
		if term == nil {
			return nil, nil, &protocol.NoRouteError{Address: address}
		}
	}

	q := &protocol.Queue{
		Hash:    d.gen.Next(),
		IMSI:    term.IMSI,
		Type:    activity,
		Address: address,
		Data:    data,
		Status:  protocol.StatusQueued,
		Time:    storage.FormatTime(d.nowFunc()),
	}
	if err := d.store.CreateQueue(ctx, q); err != nil {
		return nil, nil, fmt.Errorf("enqueue command: %w", err)
	}

	c := newCompletion()
	d.mu.Lock()
	d.pending[q.Hash] = c
	d.mu.Unlock()

	d.logger.Printf("queued %s type=%d address=%s terminal=%s", q.Hash, q.Type, q.Address, q.IMSI)

	if err := d.deliver(term, q); err != nil {
		d.logger.Printf("deliver %s failed: %v", q.Hash, err)
		if _, uerr := d.Resolve(ctx, q.Hash, protocol.StatusFailed, ""); uerr != nil {
			return q, c, fmt.Errorf("mark %s failed: %w", q.Hash, uerr)
		}
		q.Status = protocol.StatusFailed
	}
	return q, c, nil
}

func (d *Dispatcher) deliver(term *terminal.Terminal, q *protocol.Queue) error {
	conn := term.Conn()
	if conn == nil {
		return &protocol.TerminalUnreachableError{IMSI: term.IMSI, Hash: q.Hash, Reason: "offline"}
	}
	msg := protocol.Message{
		Type: protocol.MsgJob,
		Job: &protocol.JobPayload{
			Hash:    q.Hash,
			IMSI:    q.IMSI,
			Type:    q.Type,
			Address: q.Address,
			Data:    q.Data,
		},
	}
	if err := conn.Send(msg); err != nil {
		return &protocol.TerminalUnreachableError{IMSI: term.IMSI, Hash: q.Hash, Reason: err.Error()}
	}
	return nil
}

// AddCall enqueues an outbound voice call on the given terminal.
func (d *Dispatcher) AddCall(ctx context.Context, imsi, number string) (*protocol.Queue, *Completion, error) {
	return d.Add(ctx, imsi, protocol.ActivityCall, number, "")
}

// AddMessage enqueues an outbound SMS. imsi may be empty to route by
// destination.
func (d *Dispatcher) AddMessage(ctx context.Context, imsi, number, body string) (*protocol.Queue, *Completion, error) {
	return d.Add(ctx, imsi, protocol.ActivitySMS, number, body)
}

// AddUssd enqueues a USSD request on the given terminal.
func (d *Dispatcher) AddUssd(ctx context.Context, imsi, code string) (*protocol.Queue, *Completion, error) {
	return d.Add(ctx, imsi, protocol.ActivityUSSD, code, code)
}

// Resolve applies a status report for a queued command. The store enforces
// monotonic advancement; a regressive report changes nothing. When a
// terminal status lands, the command's pending Completion resolves at most
// once, no matter how many reports arrive. Returns true if the stored record
// advanced.
func (d *Dispatcher) Resolve(ctx context.Context, hash string, status protocol.Status, code string) (bool, error) {
	if !status.Valid() {
		return false, &protocol.ValidationError{Field: "status"}
	}

	updated, err := d.store.UpdateStatus(ctx, hash, status, storage.FormatTime(d.nowFunc()))
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", hash, err)
	}

	if status.Terminal() {
		d.mu.Lock()
		c := d.pending[hash]
		delete(d.pending, hash)
		d.mu.Unlock()

		if c != nil {
			c.resolve(Result{Hash: hash, Status: status, Code: code})
		}
	}

	if updated {
		d.logger.Printf("resolved %s status=%s code=%s", hash, status, code)
	}
	return updated, nil
}

// NextHash issues a fresh record hash from the dispatcher's generator, for
// records created outside the submission path (inbound SMS).
func (d *Dispatcher) NextHash() string {
	return d.gen.Next()
}

// Pending returns the number of commands awaiting resolution.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Task broadcasts a maintenance operation to every registered pool process.
// op is one of the task operation names; payload is passed through opaque.
// The returned flag mirrors Broadcast semantics: true means the roster was
// non-empty, not that any pool acted on the signal.
func (d *Dispatcher) Task(op, payload string) (bool, error) {
	signal := protocol.SignalForTask(op)
	if signal == "" {
		return false, &protocol.ValidationError{Field: "op"}
	}
	ok := d.pool.Broadcast(signal, payload)
	d.logger.Printf("task %s -> %s broadcast=%t", op, signal, ok)
	return ok, nil
}
