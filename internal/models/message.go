package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the kind of content a message carries.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeGif    MessageType = "gif"
	MessageTypeSystem MessageType = "system"
)

// ReactionMap maps an emoji to the set of user IDs that reacted with it.
// It is stored as a single JSON column; each user appears at most once per
// emoji, and emptied emoji keys are dropped entirely.
type ReactionMap map[string][]uint

// Value implements driver.Valuer.
func (r ReactionMap) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *ReactionMap) Scan(value interface{}) error {
	if value == nil {
		*r = ReactionMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported reaction column type %T", value)
	}
	if len(data) == 0 {
		*r = ReactionMap{}
		return nil
	}
	return json.Unmarshal(data, r)
}

// Has reports whether userID is present under emoji.
func (r ReactionMap) Has(emoji string, userID uint) bool {
	for _, id := range r[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}

// Toggle adds userID under emoji if absent, removes it if present, and
// reports whether the user is present afterwards.
func (r ReactionMap) Toggle(emoji string, userID uint) bool {
	ids := r[emoji]
	for i, id := range ids {
		if id == userID {
			ids = append(ids[:i], ids[i+1:]...)
			if len(ids) == 0 {
				delete(r, emoji)
			} else {
				r[emoji] = ids
			}
			return false
		}
	}
	r[emoji] = append(ids, userID)
	return true
}

// Message represents a chat message within a channel. Messages are immutable
// once written except for the reaction map and the soft-delete pair; rows are
// never physically removed. The ID is a ULID, so sorting by (CreatedAt, ID)
// is stable even for messages created in the same millisecond.
type Message struct {
	ID        string      `gorm:"primaryKey;size:26"`
	ChannelID uint        `gorm:"not null;index:idx_messages_channel_created"`
	SenderID  *uint       // nil for system messages
	Type      MessageType `gorm:"size:50;not null;default:'text'"`
	Content   string      `gorm:"not null"`
	ReplyToID *string     `gorm:"size:26"`

	Reactions    ReactionMap `gorm:"type:jsonb;not null;default:'{}'"`
	ReactionsRev int         `gorm:"not null;default:0"`

	IsDeleted bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	CreatedAt time.Time `gorm:"index:idx_messages_channel_created"`

	Sender  *User    `gorm:"foreignKey:SenderID"`
	ReplyTo *Message `gorm:"foreignKey:ReplyToID"`
}
