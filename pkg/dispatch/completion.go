package dispatch

import (
	"context"
	"sync"

	"smsgw/pkg/protocol"
)

// Result is the final outcome of a dispatched command.
type Result struct {
	Hash   string
	Status protocol.Status
	Code   string
	Err    error
}

// Completion is a one-shot cell resolved exactly once with a command's final
// outcome. Later resolution attempts are ignored, so duplicate or late
// status reports can never fire a second completion.
type Completion struct {
	once sync.Once
	ch   chan Result
}

func newCompletion() *Completion {
	return &Completion{ch: make(chan Result, 1)}
}

// resolve stores the result if the cell is still unresolved. Returns true on
// the first call only.
func (c *Completion) resolve(r Result) bool {
	fired := false
	c.once.Do(func() {
		c.ch <- r
		fired = true
	})
	return fired
}

// Done returns a channel that yields the result once resolved.
func (c *Completion) Done() <-chan Result {
	return c.ch
}

// Wait blocks until the completion resolves or ctx is cancelled.
func (c *Completion) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-c.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
