package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/backend/internal/chat"
	"rosterhub/backend/internal/upload"
)

// chatError maps chat-core errors onto HTTP statuses. Transient data-access
// failures get a 503 with Retry-After so clients retry with backoff instead
// of treating the chat as broken.
func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotAMember), errors.Is(err, chat.ErrPostingForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrBadReply),
		errors.Is(err, upload.ErrInvalidUpload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrMessageNotFound), errors.Is(err, chat.ErrChannelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrChannelArchived), errors.Is(err, chat.ErrReactionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrDirectoryUnavailable), errors.Is(err, chat.ErrHistoryUnavailable):
		c.Header("Retry-After", "2")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
