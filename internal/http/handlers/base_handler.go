// README: Base handler utilities (TwiML/JSON writers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesafe/internal/modules/conversation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeTwiML(c *gin.Context, body string) {
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(body))
}

// writeEngineError maps failures that left the conversation untouched.
// Problems the caller can fix are replies and never get here.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrInvalidEvent):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrConflict), errors.Is(err, conversation.ErrLockTimeout):
		writeError(c, http.StatusConflict, "conversation busy, retry")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
