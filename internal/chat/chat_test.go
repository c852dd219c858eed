package chat

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rosterhub/backend/internal/database"
	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, nickname string, role models.UserRole) models.User {
	t.Helper()

	user := models.User{
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", nickname, err)
	}
	return user
}

func createChannel(t *testing.T, db *gorm.DB, typ models.ChannelType, teamID *uint) models.Channel {
	t.Helper()

	channel := models.Channel{
		SeasonID: 1,
		TeamID:   teamID,
		Type:     typ,
		Name:     "test channel",
	}
	if err := db.Create(&channel).Error; err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return channel
}

func addMember(t *testing.T, db *gorm.DB, channelID uint, user models.User, canPost bool) models.ChannelMember {
	t.Helper()

	member := models.ChannelMember{
		ChannelID:   channelID,
		UserID:      user.ID,
		DisplayName: user.Nickname,
		Role:        models.MemberRoleMember,
		CanPost:     canPost,
		LastReadAt:  time.Unix(0, 0),
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("add member: %v", err)
	}
	return member
}

// seedMessage inserts a message row directly, bypassing the send pipeline.
func seedMessage(t *testing.T, db *gorm.DB, channelID uint, senderID uint, content string, at time.Time) models.Message {
	t.Helper()

	sender := senderID
	msg := models.Message{
		ID:        ulid.Make().String(),
		ChannelID: channelID,
		SenderID:  &sender,
		Type:      models.MessageTypeText,
		Content:   content,
		Reactions: models.ReactionMap{},
		CreatedAt: at,
	}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg
}

func newTestSender(db *gorm.DB, bus *hub.Hub) *Sender {
	return NewSender(db, bus, zerolog.Nop(), false)
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
