package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rosterhub/backend/internal/config"
	"rosterhub/backend/internal/metrics"
	"rosterhub/backend/internal/presence"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// typingFrame is what the client sends: its draft activity.
type typingFrame struct {
	Event string `json:"event"` // "keystroke", "clear", "send"
	Draft string `json:"draft,omitempty"`
}

// typingUpdate is what the client receives: who else is typing.
type typingUpdate struct {
	Typing    []presence.State `json:"typing"`
	Indicator string           `json:"indicator"`
}

// Typing godoc
// @Summary      Typing-presence socket
// @Description  Websocket carrying ephemeral typing state for one channel. Keystroke frames in, "who is typing" updates out. Best-effort: a broken presence transport degrades to no indicator, never to an error.
// @Tags         messages
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Router       /channels/{id}/typing [get]
func Typing(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))

	_, user, err := currentIdentity(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if _, ok := requireRead(c, uint(channelID)); !ok {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := newWSConn(ws)
	defer conn.Close()

	metrics.TypingSessions.Inc()
	defer metrics.TypingSessions.Dec()

	topic := fmt.Sprintf("channel:%d:typing", channelID)
	session, err := Broker.Join(c.Request.Context(), topic, presence.State{
		UserID:      user.ID,
		DisplayName: user.Nickname,
	})
	if err != nil {
		// Presence is an enhancement. Keep the socket open but inert so
		// the client's chat keeps working with no typing indicator.
		Log.Debug().Err(err).Str("topic", topic).Msg("presence join failed")
		conn.readUntilClose()
		return
	}

	tracker := presence.NewTracker(session, user.ID, config.AppConfig.TypingTTL(), Log,
		func(users []presence.State, indicator string) {
			payload, err := json.Marshal(typingUpdate{Typing: users, Indicator: indicator})
			if err != nil {
				return
			}
			conn.Send(payload)
		})
	defer tracker.Close()

	for {
		var frame typingFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Event {
		case "keystroke":
			tracker.Keystroke(frame.Draft)
		case "clear", "send":
			tracker.Stop()
		}
	}
}

// wsConn wraps a websocket and coordinates outbound writes via a buffered
// channel so the tracker callback never blocks on a slow client.
type wsConn struct {
	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{
		ws:    ws,
		send:  make(chan []byte, 16),
		close: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Send enqueues payload for delivery, dropping it if the buffer is full.
func (c *wsConn) Send(payload []byte) {
	select {
	case <-c.close:
	case c.send <- payload:
	default:
	}
}

func (c *wsConn) Close() {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
		_ = c.ws.Close()
	})
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClose drains the socket without acting on frames.
func (c *wsConn) readUntilClose() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
