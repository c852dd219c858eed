package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rosterhub/backend/internal/chat"
	"rosterhub/backend/internal/config"
	"rosterhub/backend/internal/metrics"
)

// StreamEvents godoc
// @Summary      Stream a channel's live events
// @Description  Server-sent events: an initial history snapshot followed by each new message as it is inserted. The stream recovers missed messages itself after transport hiccups.
// @Tags         messages
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Failure      403 {object} ErrorResponse
// @Router       /channels/{id}/events [get]
func StreamEvents(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))

	if _, ok := requireRead(c, uint(channelID)); !ok {
		return
	}

	out := make(chan chat.MessageView, 64)
	sub, err := chat.OpenSubscription(c.Request.Context(), chat.BusSource{Hub: Bus}, history(), uint(channelID),
		chat.SubscriptionOptions{
			HistoryLimit: config.AppConfig.ChatHistoryPageSize,
			Logger:       Log,
			OnAppend: func(v chat.MessageView) {
				// A client that falls this far behind will reload
				// history on reconnect anyway.
				select {
				case out <- v:
				default:
				}
			},
		})
	if err != nil {
		chatError(c, err)
		return
	}
	defer sub.Close()

	metrics.LiveSubscriptions.Inc()
	defer metrics.LiveSubscriptions.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("history", sub.Timeline().Messages())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case v := <-out:
			c.SSEvent("message", v)
			return true
		}
	})
}
