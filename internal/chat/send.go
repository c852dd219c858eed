package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/metrics"
	"rosterhub/backend/internal/models"
)

// SendInput is a request to post one message.
type SendInput struct {
	ChannelID uint
	SenderID  uint
	Content   string
	Type      models.MessageType
	ReplyToID *string
}

// Sender is the send pipeline: it validates a message, rejects it locally
// when posting is not permitted, inserts it, touches the channel's recency,
// and publishes the insert event. The sender sees its own message through
// the same event path as everyone else; there is no separate local echo.
type Sender struct {
	db            *gorm.DB
	bus           *hub.Hub
	log           zerolog.Logger
	liveDirectory bool
}

// NewSender creates a Sender. When liveDirectory is true, every accepted
// send also publishes a channel.updated event on the directory topic.
func NewSender(db *gorm.DB, bus *hub.Hub, log zerolog.Logger, liveDirectory bool) *Sender {
	return &Sender{db: db, bus: bus, log: log, liveDirectory: liveDirectory}
}

// Send validates and stores a message. Permission and validation failures
// are returned before anything reaches the store.
func (s *Sender) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	member, err := membership(ctx, s.db, in.ChannelID, in.SenderID)
	if err != nil {
		if errors.Is(err, ErrNotAMember) {
			metrics.SendsRejected.WithLabelValues("permission").Inc()
		}
		return nil, err
	}
	if !member.CanPost {
		metrics.SendsRejected.WithLabelValues("permission").Inc()
		return nil, ErrPostingForbidden
	}

	if err := s.validate(ctx, &in); err != nil {
		metrics.SendsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	senderID := in.SenderID
	msg := &models.Message{
		ID:        ulid.Make().String(),
		ChannelID: in.ChannelID,
		SenderID:  &senderID,
		Type:      in.Type,
		Content:   in.Content,
		ReplyToID: in.ReplyToID,
		Reactions: models.ReactionMap{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}

	s.finish(ctx, msg)
	return msg, nil
}

// SendSystem stores a system message with no sender. It bypasses the
// membership check; callers are trusted internal code paths.
func (s *Sender) SendSystem(ctx context.Context, channelID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		ChannelID: channelID,
		Type:      models.MessageTypeSystem,
		Content:   content,
		Reactions: models.ReactionMap{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}

	s.finish(ctx, msg)
	return msg, nil
}

// Delete soft-deletes a message. Only the original sender or a channel
// admin may delete; the row is never physically removed.
func (s *Sender) Delete(ctx context.Context, messageID string, userID uint) error {
	var msg models.Message
	err := s.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if msg.IsDeleted {
		return nil
	}

	if msg.SenderID == nil || *msg.SenderID != userID {
		member, err := membership(ctx, s.db, msg.ChannelID, userID)
		if err != nil {
			return err
		}
		if member.Role != models.MemberRoleAdmin {
			return ErrPostingForbidden
		}
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&msg).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

func (s *Sender) validate(ctx context.Context, in *SendInput) error {
	switch in.Type {
	case models.MessageTypeText:
		in.Content = strings.TrimSpace(in.Content)
		if in.Content == "" {
			return ErrEmptyMessage
		}
	case models.MessageTypeImage, models.MessageTypeGif:
		if in.Content == "" {
			return ErrEmptyMessage
		}
	default:
		return ErrEmptyMessage
	}

	if in.ReplyToID != nil {
		var target models.Message
		err := s.db.WithContext(ctx).First(&target, "id = ?", *in.ReplyToID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBadReply
		}
		if err != nil {
			return err
		}
		if target.ChannelID != in.ChannelID {
			return ErrBadReply
		}
	}
	return nil
}

// finish runs the post-insert steps: touch channel recency and publish the
// insert event. The recency touch is an independent write; if it fails the
// message stands and the channel simply fails to re-rank.
func (s *Sender) finish(ctx context.Context, msg *models.Message) {
	err := s.db.WithContext(ctx).Model(&models.Channel{}).
		Where("id = ?", msg.ChannelID).
		Update("updated_at", msg.CreatedAt).Error
	if err != nil {
		s.log.Warn().Err(err).Uint("channel_id", msg.ChannelID).
			Msg("failed to touch channel recency")
	}

	s.bus.Publish(msg.ChannelID, hub.Event{
		Type:    hub.EventMessageCreated,
		Payload: hub.MessageRef{MessageID: msg.ID, ChannelID: msg.ChannelID},
	})
	if s.liveDirectory {
		s.bus.Publish(hub.DirectoryTopic, hub.Event{
			Type:    hub.EventChannelUpdated,
			Payload: hub.ChannelRef{ChannelID: msg.ChannelID},
		})
	}

	metrics.MessagesSent.WithLabelValues(string(msg.Type)).Inc()
}
