// Package api serves the gateway's HTTP administration surface: queue and
// message listings, conversation views, terminal configuration and command
// submission.
package api

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"smsgw/pkg/dispatch"
	"smsgw/pkg/report"
	"smsgw/pkg/storage"
	"smsgw/pkg/terminal"
)

// API bundles the collaborators behind the HTTP surface.
type API struct {
	store    *storage.Store
	reader   *report.Reader
	disp     *dispatch.Dispatcher
	registry *terminal.Registry
	pool     *terminal.Pool
	version  string
	logger   *log.Logger

	plugins *PluginSet
}

// New assembles the API. logger may be nil to discard request logging.
func New(store *storage.Store, reader *report.Reader, disp *dispatch.Dispatcher, registry *terminal.Registry, pool *terminal.Pool, version string, logger *log.Logger) *API {
	return &API{
		store:    store,
		reader:   reader,
		disp:     disp,
		registry: registry,
		pool:     pool,
		version:  version,
		logger:   logger,
		plugins:  NewPluginSet(),
	}
}

// Plugins exposes the plugin registry for mounting extensions before the
// router is built.
func (a *API) Plugins() *PluginSet {
	return a.plugins
}

// Router builds the gin engine with every route wired.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if a.logger != nil {
		r.Use(a.requestLogger())
	}

	r.GET("/about", a.getAbout)
	r.GET("/client", a.getClients)
	r.GET("/activity-log", a.getActivityLog)

	r.GET("/queue", a.getQueue)
	r.GET("/queue/:page", a.getQueue)
	r.GET("/message", a.getMessages)
	r.GET("/message/:page", a.getMessages)
	r.GET("/read/:number", a.getConversation)

	r.POST("/send-message", a.postSendMessage)
	r.POST("/task/:op", a.postTask)

	term := r.Group("/:imsi")
	term.GET("/stat", a.getTerminalStat)
	term.GET("/config", a.getTerminalConfig)
	term.POST("/apply", a.postTerminalApply)
	term.POST("/dial", a.postTerminalDial)
	term.POST("/message", a.postTerminalMessage)
	term.POST("/ussd", a.postTerminalUssd)

	r.Any("/p/:plugin/*path", a.handlePlugin)

	return r
}

// requestLogger logs method, path, status and latency.
func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Printf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
