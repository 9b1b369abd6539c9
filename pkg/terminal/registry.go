package terminal

import (
	"sort"
	"sync"
)

// Registry is the set of terminals currently served by a pool connection,
// keyed by IMSI. A terminal enters on registration and leaves when its
// connection detaches; a reconnecting pool registers it anew with default
// options.
type Registry struct {
	operators *OperatorTable

	mu        sync.RWMutex
	terminals map[string]*Terminal
}

// NewRegistry creates an empty registry. operators may be nil when no
// operator table is configured; routing then ignores operator restrictions.
func NewRegistry(operators *OperatorTable) *Registry {
	return &Registry{
		operators: operators,
		terminals: make(map[string]*Terminal),
	}
}

// Get returns the terminal with the given IMSI, or nil.
func (r *Registry) Get(imsi string) *Terminal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.terminals[imsi]
}

// Attach binds a live connection to the terminal with the given IMSI,
// creating the terminal with default options on first sight. Returns the
// terminal.
func (r *Registry) Attach(imsi string, conn Conn) *Terminal {
	r.mu.Lock()
	t, ok := r.terminals[imsi]
	if !ok {
		t = NewTerminal(imsi)
		r.terminals[imsi] = t
	}
	r.mu.Unlock()

	t.setConn(conn)
	return t
}

// Detach removes every terminal served by the given connection. Terminals
// live exactly as long as their pool connection; a reconnecting pool
// re-registers them. A terminal already taken over by a newer connection is
// left alone.
func (r *Registry) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for imsi, t := range r.terminals {
		if t.dropConn(connID) {
			delete(r.terminals, imsi)
		}
	}
}

// List returns every registered terminal ordered by IMSI.
func (r *Registry) List() []*Terminal {
	r.mu.RLock()
	out := make([]*Terminal, 0, len(r.terminals))
	for _, t := range r.terminals {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].IMSI < out[j].IMSI })
	return out
}

// NetworkOperator resolves a terminal's home operator from its IMSI prefix.
func (r *Registry) NetworkOperator(imsi string) string {
	return r.operators.ByIMSI(imsi)
}

// Route picks the terminal to carry an outbound message to address: among
// online terminals with sending enabled, the highest-priority one whose
// operator restriction (if any) covers the destination's operator. Returns
// nil when no terminal qualifies.
func (r *Registry) Route(address string) *Terminal {
	destOp := r.operators.ByNumber(address)

	var best *Terminal
	bestPriority := 0
	for _, t := range r.List() {
		if !t.Online() {
			continue
		}
		opts := t.Options()
		if !opts.SendMessage {
			continue
		}
		if len(opts.Operators) > 0 && !contains(opts.Operators, destOp) {
			continue
		}
		if best == nil || opts.Priority > bestPriority {
			best = t
			bestPriority = opts.Priority
		}
	}
	return best
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
