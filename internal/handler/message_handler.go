package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rosterhub/backend/internal/chat"
	"rosterhub/backend/internal/config"
	"rosterhub/backend/internal/database"
	"rosterhub/backend/internal/models"
)

// region --- DTOs ---

// SendMessageInput defines the structure for posting a message.
type SendMessageInput struct {
	Content   string  `json:"content" binding:"required"`
	Type      string  `json:"type" binding:"omitempty,oneof=text image gif"`
	ReplyToID *string `json:"reply_to_id"`
}

// ReactionInput defines the structure for toggling a reaction.
type ReactionInput struct {
	Emoji string `json:"emoji" binding:"required"`
}

// endregion

// history builds the History service with the configured page size.
func history() *chat.History {
	return chat.NewHistory(database.DB, config.AppConfig.ChatHistoryPageSize)
}

// sender builds the Sender with the configured directory policy.
func sender() *chat.Sender {
	return chat.NewSender(database.DB, Bus, Log, config.AppConfig.DirectoryLiveUpdate)
}

// requireRead aborts with 403 unless the caller may read the channel.
func requireRead(c *gin.Context, channelID uint) (chat.Identity, bool) {
	identity, _, err := currentIdentity(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return identity, false
	}

	ok, err := chat.CanRead(c.Request.Context(), database.DB, channelID, identity)
	if err != nil {
		chatError(c, err)
		return identity, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this channel"})
		return identity, false
	}
	return identity, true
}

// GetMessages godoc
// @Summary      Load message history
// @Description  Returns the most recent messages of a channel in ascending order, with sender and reply-to data joined.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Channel ID"
// @Param        limit query int false "Page size (defaults to server policy)"
// @Success      200 {array} chat.MessageView
// @Failure      403 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse "History temporarily unavailable"
// @Router       /channels/{id}/messages [get]
func GetMessages(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if _, ok := requireRead(c, uint(channelID)); !ok {
		return
	}

	views, err := history().LoadHistory(c.Request.Context(), uint(channelID), limit)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Validates and stores a message. The message reaches the sender through the same event stream as everyone else.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true "Channel ID"
// @Param        input body SendMessageInput true "Message"
// @Success      201 {object} map[string]string "{"id": "..."}"
// @Failure      400 {object} ErrorResponse "Validation failure"
// @Failure      403 {object} ErrorResponse "Posting not permitted"
// @Router       /channels/{id}/messages [post]
func SendMessage(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))
	userID := c.GetUint("userID")

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgType := models.MessageTypeText
	if input.Type != "" {
		msgType = models.MessageType(input.Type)
	}

	msg, err := sender().Send(c.Request.Context(), chat.SendInput{
		ChannelID: uint(channelID),
		SenderID:  userID,
		Content:   input.Content,
		Type:      msgType,
		ReplyToID: input.ReplyToID,
	})
	if err != nil {
		chatError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": msg.ID})
}

// DeleteMessage godoc
// @Summary      Delete a message
// @Description  Soft-deletes a message. Only the sender or a channel admin may delete; the row is kept.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Message ID"
// @Success      200 {object} map[string]string "{"message": "Deleted"}"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /messages/{id} [delete]
func DeleteMessage(c *gin.Context) {
	messageID := c.Param("id")
	userID := c.GetUint("userID")

	if err := sender().Delete(c.Request.Context(), messageID, userID); err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// ToggleReaction godoc
// @Summary      Toggle a reaction
// @Description  Adds the caller under the emoji if absent, removes them if present. Concurrent toggles are retried once.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string        true "Message ID"
// @Param        input body ReactionInput true "Reaction"
// @Success      200 {object} models.ReactionMap
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Conflicting concurrent update"
// @Router       /messages/{id}/reactions [post]
func ToggleReaction(c *gin.Context) {
	messageID := c.Param("id")
	userID := c.GetUint("userID")

	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reactions, err := chat.NewReactions(database.DB).
		Toggle(c.Request.Context(), messageID, userID, input.Emoji)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, reactions)
}

// MarkRead godoc
// @Summary      Mark a channel read
// @Description  Advances the caller's read cursor to now. The cursor never moves backward.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Success      200 {object} map[string]string "{"last_read_at": "..."}"
// @Failure      403 {object} ErrorResponse
// @Router       /channels/{id}/read [post]
func MarkRead(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))
	userID := c.GetUint("userID")

	at, err := chat.NewUnread(database.DB).MarkRead(c.Request.Context(), uint(channelID), userID)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_read_at": at})
}

// GetUnread godoc
// @Summary      Get a channel's unread count
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Success      200 {object} map[string]int64 "{"unread": 3}"
// @Failure      403 {object} ErrorResponse
// @Router       /channels/{id}/unread [get]
func GetUnread(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))
	userID := c.GetUint("userID")

	count, err := chat.NewUnread(database.DB).Count(c.Request.Context(), uint(channelID), userID)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// ListMedia godoc
// @Summary      List a channel's media messages
// @Description  Returns non-deleted image and gif messages, newest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Channel ID"
// @Param        limit query int false "Page size"
// @Success      200 {array} chat.MessageView
// @Failure      403 {object} ErrorResponse
// @Router       /channels/{id}/media [get]
func ListMedia(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if _, ok := requireRead(c, uint(channelID)); !ok {
		return
	}

	views, err := history().ListMedia(c.Request.Context(), uint(channelID), limit)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
