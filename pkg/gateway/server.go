// Package gateway runs the UDS server that terminal pool processes connect
// to. It owns the accept loop, the wire protocol handlers and the activity
// log, delegating command state to the dispatcher and storage layers.
package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"smsgw/pkg/dispatch"
	"smsgw/pkg/protocol"
	"smsgw/pkg/storage"
	"smsgw/pkg/terminal"
)

// Config holds the server's runtime settings.
type Config struct {
	SocketPath string

	// HeartbeatTimeout is how long a pool connection may stay silent before
	// it is closed. Zero disables the monitor.
	HeartbeatTimeout time.Duration

	// HeartbeatInterval is how often silent connections are checked.
	HeartbeatInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	return c
}

// Server accepts pool connections and routes their messages.
type Server struct {
	cfg      Config
	store    *storage.Store
	registry *terminal.Registry
	pool     *terminal.Pool
	disp     *dispatch.Dispatcher
	activity *ActivityLog
	logger   *log.Logger

	nowFunc func() time.Time

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]*terminal.JSONConn
}

// New assembles a server. activity may be nil to skip the event trail and
// logger may be nil to discard server logging.
func New(cfg Config, store *storage.Store, registry *terminal.Registry, pool *terminal.Pool, disp *dispatch.Dispatcher, activity *ActivityLog, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	return &Server{
		cfg:      cfg.withDefaults(),
		store:    store,
		registry: registry,
		pool:     pool,
		disp:     disp,
		activity: activity,
		logger:   logger,
		nowFunc:  time.Now,
		conns:    make(map[string]*terminal.JSONConn),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Run initializes the schema, binds the socket and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.store.Init(ctx); err != nil {
		return err
	}

	if err := cleanStaleSocket(s.cfg.SocketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.cfg.SocketPath) //nolint:noctx // UDS bind is instant
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", s.cfg.SocketPath, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Printf("gateway listening on %s", s.cfg.SocketPath)
	s.activity.Log("START", "gateway listening on %s", s.cfg.SocketPath)

	go s.acceptLoop(ctx, ln)
	if s.cfg.HeartbeatTimeout > 0 {
		go s.heartbeatLoop(ctx)
	}

	<-ctx.Done()

	_ = ln.Close()

	s.mu.Lock()
	for id, conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, id)
	}
	s.mu.Unlock()

	s.activity.Log("STOP", "gateway stopped")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// handleConn reads line-delimited JSON messages from one pool connection.
func (s *Server) handleConn(ctx context.Context, raw net.Conn) {
	conn := terminal.NewJSONConn(raw)

	s.mu.Lock()
	s.conns[conn.ID()] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn.ID())
		s.mu.Unlock()

		s.registry.Detach(conn.ID())
		s.pool.Drop(conn.ID())
		s.activity.Log("DISCONN", "pool %s disconnected", conn.ID())
	}()

	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		var msg protocol.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.logger.Printf("drop malformed frame from %s: %v", conn.ID(), err)
			continue
		}
		s.handleMessage(ctx, conn, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, conn *terminal.JSONConn, msg protocol.Message) {
	switch msg.Type {
	case protocol.MsgRegister:
		s.handleRegister(conn, msg.Register)
	case protocol.MsgHeartbeat:
		s.pool.Touch(conn.ID())
	case protocol.MsgStatus:
		s.handleStatus(ctx, conn, msg.Status)
	case protocol.MsgInbox:
		s.handleInbox(ctx, conn, msg.Inbox)
	case protocol.MsgReport:
		s.handleReport(ctx, conn, msg.Report)
	default:
		s.logger.Printf("drop unknown message type %q from %s", msg.Type, conn.ID())
	}
}

func (s *Server) handleRegister(conn *terminal.JSONConn, p *protocol.RegisterPayload) {
	if p == nil {
		return
	}
	conn.SetGroup(p.Group)
	s.pool.Register(conn, p.Group, p.Terminals)
	for _, imsi := range p.Terminals {
		if imsi == "" {
			continue
		}
		s.registry.Attach(imsi, conn)
	}
	s.logger.Printf("pool %s registered (%s): %d terminals", p.Pool, conn.ID(), len(p.Terminals))
	s.activity.Log("REGISTER", "pool %s group=%s terminals=%d", p.Pool, p.Group, len(p.Terminals))
}

func (s *Server) handleStatus(ctx context.Context, conn *terminal.JSONConn, p *protocol.StatusPayload) {
	if p == nil || p.Hash == "" {
		return
	}
	updated, err := s.disp.Resolve(ctx, p.Hash, p.Status, p.Code)
	if err != nil {
		s.logger.Printf("status %s from %s: %v", p.Hash, conn.ID(), err)
		return
	}
	if updated {
		s.activity.Log("STATUS", "%s -> %s code=%s", p.Hash, p.Status, p.Code)
	}
}

// handleInbox stores an inbound SMS as an already-delivered record so the
// conversation and message views pick it up.
func (s *Server) handleInbox(ctx context.Context, conn *terminal.JSONConn, p *protocol.InboxPayload) {
	if p == nil || p.Address == "" {
		return
	}
	now := storage.FormatTime(s.nowFunc())
	q := &protocol.Queue{
		Hash:      s.disp.NextHash(),
		IMSI:      p.IMSI,
		Type:      protocol.ActivityInbox,
		Address:   p.Address,
		Data:      p.Data,
		Status:    protocol.StatusDelivered,
		Time:      now,
		Processed: now,
	}
	if err := s.store.CreateQueue(ctx, q); err != nil {
		s.logger.Printf("store inbox from %s: %v", conn.ID(), err)
		return
	}
	s.activity.Log("INBOX", "%s from %s: %s", q.Hash, p.Address, p.Data)
}

// handleReport stores a delivery report and advances the referenced record.
// Code "0" means the network confirmed delivery; anything else leaves the
// record's outcome unknown.
func (s *Server) handleReport(ctx context.Context, conn *terminal.JSONConn, p *protocol.ReportPayload) {
	if p == nil || p.Hash == "" {
		return
	}
	entry := &protocol.LogEntry{
		Hash:    p.Hash,
		Address: p.Address,
		Type:    protocol.ActivitySMS,
		Code:    p.Code,
		Time:    storage.FormatTime(s.nowFunc()),
	}
	if err := s.store.InsertLog(ctx, entry); err != nil {
		s.logger.Printf("store report from %s: %v", conn.ID(), err)
		return
	}

	status := protocol.StatusUnknown
	if p.Code == "0" {
		status = protocol.StatusDelivered
	}
	if _, err := s.disp.Resolve(ctx, p.Hash, status, p.Code); err != nil {
		s.logger.Printf("report %s from %s: %v", p.Hash, conn.ID(), err)
		return
	}
	s.activity.Log("REPORT", "%s code=%s", p.Hash, p.Code)
}

// heartbeatLoop closes pool connections that stopped sending heartbeats.
func (s *Server) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkHeartbeats()
		}
	}
}

func (s *Server) checkHeartbeats() {
	cutoff := s.nowFunc().Add(-s.cfg.HeartbeatTimeout)
	for _, e := range s.pool.Entries() {
		if e.Seen().After(cutoff) {
			continue
		}
		conn := e.Conn()
		if conn == nil {
			continue
		}
		s.logger.Printf("pool %s heartbeat timeout, closing", e.ID)
		if c, ok := conn.(*terminal.JSONConn); ok {
			_ = c.Close()
		}
	}
}
