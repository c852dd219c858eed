package chat

import (
	"errors"
	"testing"
	"time"

	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/models"
)

func TestUnreadScenario(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	bob := createUser(t, db, "bob", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelTeamChat, nil)
	addMember(t, db, channel.ID, alice, true)
	addMember(t, db, channel.ID, bob, true)

	sender := newTestSender(db, hub.NewHub())
	unread := NewUnread(db)

	count, err := unread.Count(ctx, channel.ID, bob.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("empty channel unread = %d, want 0", count)
	}

	if _, err := sender.Send(ctx, SendInput{
		ChannelID: channel.ID, SenderID: alice.ID,
		Content: "hello", Type: models.MessageTypeText,
	}); err != nil {
		t.Fatalf("send hello: %v", err)
	}

	if count, _ = unread.Count(ctx, channel.ID, bob.ID); count != 1 {
		t.Fatalf("after hello unread = %d, want 1", count)
	}

	time.Sleep(2 * time.Millisecond)
	if _, err := unread.MarkRead(ctx, channel.ID, bob.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if count, _ = unread.Count(ctx, channel.ID, bob.ID); count != 0 {
		t.Fatalf("after mark read unread = %d, want 0", count)
	}

	time.Sleep(2 * time.Millisecond)
	if _, err := sender.Send(ctx, SendInput{
		ChannelID: channel.ID, SenderID: alice.ID,
		Content: "world", Type: models.MessageTypeText,
	}); err != nil {
		t.Fatalf("send world: %v", err)
	}
	if count, _ = unread.Count(ctx, channel.ID, bob.ID); count != 1 {
		t.Fatalf("after world unread = %d, want 1", count)
	}
}

func TestReadCursorMonotonic(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelTeamChat, nil)
	addMember(t, db, channel.ID, alice, true)

	unread := NewUnread(db)

	now, err := unread.MarkRead(ctx, channel.ID, alice.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// An update earlier than the current cursor is a no-op that reports
	// the standing cursor.
	earlier := now.Add(-time.Hour)
	got, err := unread.markReadAt(ctx, channel.ID, alice.ID, earlier)
	if err != nil {
		t.Fatalf("backward mark read: %v", err)
	}
	if got.Before(now.Add(-time.Second)) {
		t.Errorf("cursor after backward update = %v, want the standing cursor %v", got, now)
	}

	var member models.ChannelMember
	if err := db.Where("channel_id = ? AND user_id = ?", channel.ID, alice.ID).First(&member).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if member.LastReadAt.Before(now.Add(-time.Second)) {
		t.Errorf("stored cursor moved backward: %v", member.LastReadAt)
	}
}

func TestUnreadExcludesDeleted(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	bob := createUser(t, db, "bob", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelTeamChat, nil)
	addMember(t, db, channel.ID, alice, true)
	addMember(t, db, channel.ID, bob, true)

	sender := newTestSender(db, hub.NewHub())
	msg, err := sender.Send(ctx, SendInput{
		ChannelID: channel.ID, SenderID: alice.ID,
		Content: "oops", Type: models.MessageTypeText,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	unread := NewUnread(db)
	if count, _ := unread.Count(ctx, channel.ID, bob.ID); count != 1 {
		t.Fatalf("unread before delete = %d, want 1", count)
	}

	if err := sender.Delete(ctx, msg.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count, _ := unread.Count(ctx, channel.ID, bob.ID); count != 0 {
		t.Errorf("unread after delete = %d, want 0", count)
	}
}

func TestUnreadRequiresMembership(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	outsider := createUser(t, db, "outsider", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelTeamChat, nil)

	_, err := NewUnread(db).Count(ctx, channel.ID, outsider.ID)
	if !errors.Is(err, ErrNotAMember) {
		t.Errorf("err = %v, want ErrNotAMember", err)
	}
}
