package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"rosterhub/backend/internal/models"
)

// History loads ordered message history for a channel. It is the load side
// of the message store adapter; Timeline is the in-memory side.
type History struct {
	db       *gorm.DB
	pageSize int
}

// NewHistory creates a History with the given default page size, used
// whenever a caller passes limit <= 0.
func NewHistory(db *gorm.DB, pageSize int) *History {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &History{db: db, pageSize: pageSize}
}

// LoadHistory returns the most recent limit non-deleted messages of the
// channel in ascending (created_at, id) order, each joined with sender
// display data and the replied-to snippet.
func (h *History) LoadHistory(ctx context.Context, channelID uint, limit int) ([]MessageView, error) {
	if limit <= 0 {
		limit = h.pageSize
	}

	var msgs []models.Message
	err := h.db.WithContext(ctx).
		Preload("Sender").
		Preload("ReplyTo").
		Preload("ReplyTo.Sender").
		Where("channel_id = ? AND is_deleted = ?", channelID, false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, newMessageView(msg))
	}
	// The query walks newest-first to apply the limit; flip back to the
	// channel's ascending order.
	sort.Slice(views, func(i, j int) bool { return views[i].Before(views[j]) })
	return views, nil
}

// GetMessage performs the full read of a single message, including joins.
// Used by subscribers after a message.created notification, whose payload
// carries the id only. Deleted messages are returned; callers that must not
// show them filter on the flag.
func (h *History) GetMessage(ctx context.Context, messageID string) (MessageView, error) {
	var msg models.Message
	err := h.db.WithContext(ctx).
		Preload("Sender").
		Preload("ReplyTo").
		Preload("ReplyTo.Sender").
		First(&msg, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MessageView{}, ErrMessageNotFound
	}
	if err != nil {
		return MessageView{}, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return newMessageView(msg), nil
}

// ListMedia returns the channel's non-deleted image and gif messages,
// newest first.
func (h *History) ListMedia(ctx context.Context, channelID uint, limit int) ([]MessageView, error) {
	if limit <= 0 {
		limit = h.pageSize
	}

	var msgs []models.Message
	err := h.db.WithContext(ctx).
		Preload("Sender").
		Where("channel_id = ? AND is_deleted = ? AND type IN ?",
			channelID, false, []models.MessageType{models.MessageTypeImage, models.MessageTypeGif}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, newMessageView(msg))
	}
	return views, nil
}
