package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smsgw/pkg/params"
	"smsgw/pkg/protocol"
	"smsgw/pkg/terminal"
)

// GET /about
func (a *API) getAbout(c *gin.Context) {
	RespondSuccess(c, gin.H{
		"name":    "smsgw",
		"version": a.version,
		"clients": a.pool.Len(),
		"plugins": a.plugins.Names(),
	})
}

// GET /client
func (a *API) getClients(c *gin.Context) {
	RespondSuccess(c, gin.H{"clients": a.pool.Clients()})
}

// GET /activity-log
//
// Returns the full log every time; callers diff against their previous
// snapshot using the capture timestamp.
func (a *API) getActivityLog(c *gin.Context) {
	snap, err := a.reader.ReadActivityLog()
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, snap)
}

func pageParam(c *gin.Context) (int, bool) {
	v := c.Param("page")
	if v == "" {
		return 1, true
	}
	page, err := strconv.Atoi(v)
	if err != nil {
		RespondError(c, "invalid page", http.StatusBadRequest)
		return 0, false
	}
	return page, true
}

// GET /queue and /queue/:page
func (a *API) getQueue(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	listing, err := a.reader.ListQueue(c.Request.Context(), page)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, listing)
}

// GET /message and /message/:page
func (a *API) getMessages(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	listing, err := a.reader.ListMessages(c.Request.Context(), page)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, listing)
}

// GET /read/:number
func (a *API) getConversation(c *gin.Context) {
	conv, err := a.reader.ReadConversation(c.Request.Context(), c.Param("number"))
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, conv)
}

// POST /send-message
//
// The terminal is optional; without one the dispatcher routes by
// destination.
func (a *API) postSendMessage(c *gin.Context) {
	number := c.PostForm("number")
	message := c.PostForm("message")
	imsi := c.PostForm("imsi")

	q, _, err := a.disp.AddMessage(c.Request.Context(), imsi, number, message)
	if err != nil {
		respondDispatchError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"notice": "message queued as " + q.Hash,
		"queue":  q,
	})
}

// POST /task/:op
func (a *API) postTask(c *gin.Context) {
	ok, err := a.disp.Task(c.Param("op"), c.PostForm("payload"))
	if err != nil {
		respondDispatchError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"success": ok})
}

func (a *API) terminalParam(c *gin.Context) (*terminal.Terminal, bool) {
	imsi := c.Param("imsi")
	term := a.registry.Get(imsi)
	if term == nil {
		RespondError(c, "terminal "+imsi+" not found", http.StatusNotFound)
		return nil, false
	}
	return term, true
}

// GET /:imsi/stat
func (a *API) getTerminalStat(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	stat, err := term.Stat(c.Request.Context(), a.store)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{
		"stat":     stat,
		"online":   term.Online(),
		"operator": a.registry.NetworkOperator(term.IMSI),
	})
}

// GET /:imsi/config
func (a *API) getTerminalConfig(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	RespondSuccess(c, gin.H{
		"imsi":     term.IMSI,
		"operator": a.registry.NetworkOperator(term.IMSI),
		"options":  term.Options(),
	})
}

// POST /:imsi/apply
//
// Accepts a form-encoded option set. Unchecked checkboxes never reach the
// request, so every boolean option key is coerced with a false default
// before the options replace the terminal's configuration wholesale.
func (a *API) postTerminalApply(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	raw := params.Flatten(c.Request.PostForm)
	normalized := params.Normalize(raw, terminal.BooleanOptionKeys())
	opts, err := terminal.OptionsFromMap(normalized)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	term.ReadOptions(opts)
	RespondSuccess(c, gin.H{"imsi": term.IMSI, "options": term.Options()})
}

// POST /:imsi/dial
func (a *API) postTerminalDial(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	q, _, err := a.disp.AddCall(c.Request.Context(), term.IMSI, c.PostForm("number"))
	if err != nil {
		respondDispatchError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"notice": "call queued as " + q.Hash, "queue": q})
}

// POST /:imsi/message
func (a *API) postTerminalMessage(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	q, _, err := a.disp.AddMessage(c.Request.Context(), term.IMSI, c.PostForm("number"), c.PostForm("message"))
	if err != nil {
		respondDispatchError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"notice": "message queued as " + q.Hash, "queue": q})
}

// POST /:imsi/ussd
func (a *API) postTerminalUssd(c *gin.Context) {
	term, ok := a.terminalParam(c)
	if !ok {
		return
	}
	code := c.PostForm("code")
	if code == "" {
		respondDispatchError(c, &protocol.ValidationError{Field: "code"})
		return
	}
	q, _, err := a.disp.AddUssd(c.Request.Context(), term.IMSI, code)
	if err != nil {
		respondDispatchError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"notice": "ussd queued as " + q.Hash, "queue": q})
}
