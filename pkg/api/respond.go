package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smsgw/pkg/protocol"
)

// RespondError writes an error body. Every failure carries success=false
// alongside the message.
func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}

// RespondSuccess writes payload with a 200. gin.H payloads gain
// success=true unless the handler set the field itself, as the task
// broadcast does with the roster outcome.
func RespondSuccess(c *gin.Context, payload any) {
	if h, ok := payload.(gin.H); ok {
		if _, set := h["success"]; !set {
			h["success"] = true
		}
	}
	c.JSON(http.StatusOK, payload)
}

// respondDispatchError maps the dispatcher's typed errors to HTTP statuses.
func respondDispatchError(c *gin.Context, err error) {
	var verr *protocol.ValidationError
	var nf *protocol.TerminalNotFoundError
	var nr *protocol.NoRouteError

	switch {
	case errors.As(err, &verr):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.As(err, &nf):
		RespondError(c, err.Error(), http.StatusNotFound)
	case errors.As(err, &nr):
		RespondError(c, err.Error(), http.StatusServiceUnavailable)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}
