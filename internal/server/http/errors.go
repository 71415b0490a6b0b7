package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

func abortJSON(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"status": code, "message": message})
}

// respondError is the only place where service and auth failures become
// status codes. Unexpected errors are logged and never echoed to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ae *auth.AuthError

	switch {
	case errors.As(err, &ae):
		metrics.AuthFailuresTotal.WithLabelValues(string(ae.Reason)).Inc()
		if ae.Reason == auth.ReasonMissingHeader {
			abortJSON(c, http.StatusBadRequest, "Authorization header is missing")
			return
		}
		abortJSON(c, http.StatusUnauthorized, "Unauthorized: "+string(ae.Reason))
	case errors.Is(err, common.ErrorAlreadyExists):
		abortJSON(c, http.StatusUnprocessableEntity, "Email is already registered.")
	case errors.Is(err, common.ErrorInvalidCredentials):
		abortJSON(c, http.StatusUnprocessableEntity, "Invalid email or password.")
	case errors.Is(err, common.ErrorNotFound):
		abortJSON(c, http.StatusNotFound, "User not found")
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		abortJSON(c, http.StatusInternalServerError, "Internal server error.")
	}
}
