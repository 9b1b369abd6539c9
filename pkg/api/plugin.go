package api

import (
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// PluginSet is the registry of HTTP extensions mounted under /p/:plugin.
// Each plugin owns everything below its prefix; the gateway core never
// inspects plugin traffic.
type PluginSet struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

// NewPluginSet creates an empty registry.
func NewPluginSet() *PluginSet {
	return &PluginSet{handlers: make(map[string]http.Handler)}
}

// Register mounts handler under /p/<name>/. Re-registering a name replaces
// the previous handler.
func (p *PluginSet) Register(name string, handler http.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[name] = handler
}

// Get returns the handler for name, or nil.
func (p *PluginSet) Get(name string) http.Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handlers[name]
}

// Names lists registered plugins in order.
func (p *PluginSet) Names() []string {
	p.mu.RLock()
	out := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		out = append(out, name)
	}
	p.mu.RUnlock()
	sort.Strings(out)
	return out
}

// handlePlugin forwards the request to the named plugin with the /p/<name>
// prefix stripped, so plugins see paths relative to their mount point.
func (a *API) handlePlugin(c *gin.Context) {
	name := c.Param("plugin")
	handler := a.plugins.Get(name)
	if handler == nil {
		RespondError(c, "unknown plugin "+name, http.StatusNotFound)
		return
	}

	req := c.Request.Clone(c.Request.Context())
	req.URL.Path = c.Param("path")
	if req.URL.Path == "" {
		req.URL.Path = "/"
	}
	handler.ServeHTTP(c.Writer, req)
}
