package chat

import (
	"time"
	"unicode/utf8"

	"rosterhub/backend/internal/models"
)

const replySnippetLimit = 120

// ReplySnippet is the compact rendering of a replied-to message that travels
// with the replying message.
type ReplySnippet struct {
	ID         string `json:"id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}

// MessageView is a message joined with its sender display data and, if
// present, the replied-to message snippet. It is the unit the timeline,
// the live feed, and the HTTP layer all trade in.
type MessageView struct {
	ID           string             `json:"id"`
	ChannelID    uint               `json:"channel_id"`
	SenderID     *uint              `json:"sender_id,omitempty"`
	SenderName   string             `json:"sender_name,omitempty"`
	SenderAvatar string             `json:"sender_avatar,omitempty"`
	Type         models.MessageType `json:"type"`
	Content      string             `json:"content"`
	Reactions    models.ReactionMap `json:"reactions"`
	ReplyTo      *ReplySnippet      `json:"reply_to,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Before reports whether m sorts before other in the channel's total order:
// created_at ascending, tie-broken by message id.
func (m MessageView) Before(other MessageView) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

func newMessageView(msg models.Message) MessageView {
	view := MessageView{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		SenderID:  msg.SenderID,
		Type:      msg.Type,
		Content:   msg.Content,
		Reactions: msg.Reactions,
		CreatedAt: msg.CreatedAt,
	}
	if view.Reactions == nil {
		view.Reactions = models.ReactionMap{}
	}
	if msg.Sender != nil {
		view.SenderName = msg.Sender.Nickname
		view.SenderAvatar = msg.Sender.AvatarURL
	}
	if msg.ReplyTo != nil {
		view.ReplyTo = newReplySnippet(*msg.ReplyTo)
	}
	return view
}

func newReplySnippet(msg models.Message) *ReplySnippet {
	snippet := &ReplySnippet{ID: msg.ID}
	if msg.Sender != nil {
		snippet.SenderName = msg.Sender.Nickname
	}
	if msg.IsDeleted {
		return snippet
	}
	snippet.Content = truncateRunes(msg.Content, replySnippetLimit)
	return snippet
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
