package chat

import (
	"testing"
	"time"

	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/models"
)

func TestDirectoryVisibility(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	coach := createUser(t, db, "coach_k", models.RoleCoach)

	teamID := uint(7)
	otherTeam := uint(8)

	memberOnly := createChannel(t, db, models.ChannelGroupDM, nil)
	addMember(t, db, memberOnly.ID, alice, true)

	teamScoped := createChannel(t, db, models.ChannelTeamChat, &teamID)
	foreignTeam := createChannel(t, db, models.ChannelTeamChat, &otherTeam)

	archived := createChannel(t, db, models.ChannelGroupDM, nil)
	addMember(t, db, archived.ID, alice, true)
	db.Model(&models.Channel{}).Where("id = ?", archived.ID).Update("archived", true)

	dir := NewDirectory(db)

	t.Run("membership and team scope", func(t *testing.T) {
		entries, err := dir.List(ctx, Identity{
			UserID: alice.ID, Role: models.RolePlayer,
			SeasonID: 1, TeamIDs: []uint{teamID},
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		got := map[uint]bool{}
		for _, e := range entries {
			got[e.Channel.ID] = true
		}
		if !got[memberOnly.ID] {
			t.Error("member channel missing from directory")
		}
		if !got[teamScoped.ID] {
			t.Error("team-scoped channel missing from directory")
		}
		if got[foreignTeam.ID] {
			t.Error("other team's channel visible")
		}
		if got[archived.ID] {
			t.Error("archived channel visible")
		}
	})

	t.Run("coach sees player chat without membership row", func(t *testing.T) {
		playerChat := createChannel(t, db, models.ChannelPlayerChat, &teamID)
		entries, err := dir.List(ctx, Identity{
			UserID: coach.ID, Role: models.RoleCoach,
			SeasonID: 1, TeamIDs: []uint{teamID},
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var found *ChannelEntry
		for i := range entries {
			if entries[i].Channel.ID == playerChat.ID {
				found = &entries[i]
			}
		}
		if found == nil {
			t.Fatal("player chat not visible to coach on the team")
		}
		if found.IsMember {
			t.Error("coach should not be reported as a member")
		}
	})

	t.Run("no teams", func(t *testing.T) {
		entries, err := dir.List(ctx, Identity{
			UserID: alice.ID, Role: models.RolePlayer, SeasonID: 1,
		})
		if err != nil {
			t.Fatalf("list with no teams: %v", err)
		}
		for _, e := range entries {
			if e.Channel.ID == teamScoped.ID {
				t.Error("team-scoped channel visible without team membership")
			}
		}
	})
}

func TestDirectoryRecencyOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	older := createChannel(t, db, models.ChannelGroupDM, nil)
	newer := createChannel(t, db, models.ChannelGroupDM, nil)
	addMember(t, db, older.ID, alice, true)
	addMember(t, db, newer.ID, alice, true)

	now := time.Now().UTC()
	db.Model(&models.Channel{}).Where("id = ?", older.ID).Update("updated_at", now.Add(-time.Hour))
	db.Model(&models.Channel{}).Where("id = ?", newer.ID).Update("updated_at", now)

	entries, err := NewDirectory(db).List(ctx, Identity{UserID: alice.ID, Role: models.RolePlayer, SeasonID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Channel.ID != newer.ID {
		t.Errorf("most recently active channel should sort first, got %d", entries[0].Channel.ID)
	}

	// A send into the stale channel bumps it to the top.
	sender := newTestSender(db, hub.NewHub())
	if _, err := sender.Send(ctx, SendInput{
		ChannelID: older.ID, SenderID: alice.ID,
		Content: "bump", Type: models.MessageTypeText,
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries, err = NewDirectory(db).List(ctx, Identity{UserID: alice.ID, Role: models.RolePlayer, SeasonID: 1})
	if err != nil {
		t.Fatalf("relist: %v", err)
	}
	if entries[0].Channel.ID != older.ID {
		t.Errorf("bumped channel should sort first, got %d", entries[0].Channel.ID)
	}
}

func TestDirectoryUnreadCounts(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	alice := createUser(t, db, "alice", models.RolePlayer)
	bob := createUser(t, db, "bob", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelGroupDM, nil)
	addMember(t, db, channel.ID, alice, true)
	addMember(t, db, channel.ID, bob, true)

	sender := newTestSender(db, hub.NewHub())
	for _, text := range []string{"one", "two"} {
		if _, err := sender.Send(ctx, SendInput{
			ChannelID: channel.ID, SenderID: alice.ID,
			Content: text, Type: models.MessageTypeText,
		}); err != nil {
			t.Fatalf("send %s: %v", text, err)
		}
	}

	entries, err := NewDirectory(db).List(ctx, Identity{UserID: bob.ID, Role: models.RolePlayer, SeasonID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].UnreadCount != 2 {
		t.Errorf("unread = %d, want 2", entries[0].UnreadCount)
	}
	if !entries[0].IsMember || !entries[0].CanPost {
		t.Errorf("membership standing = %+v", entries[0])
	}
}
