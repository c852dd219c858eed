package chat

import (
	"errors"
	"testing"

	"rosterhub/backend/internal/models"
)

func TestEnsureTeamChannelIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	m := NewMemberships(db)

	first, err := m.EnsureTeamChannel(ctx, 1, 7, models.ChannelTeamChat, "Hawks chat")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := m.EnsureTeamChannel(ctx, 1, 7, models.ChannelTeamChat, "ignored on reuse")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second ensure created a new channel: %d vs %d", first.ID, second.ID)
	}

	// A different type for the same team is a distinct channel.
	player, err := m.EnsureTeamChannel(ctx, 1, 7, models.ChannelPlayerChat, "Hawks players")
	if err != nil {
		t.Fatalf("player ensure: %v", err)
	}
	if player.ID == first.ID {
		t.Error("player chat shares the team chat's channel")
	}

	if _, err := m.EnsureTeamChannel(ctx, 1, 7, models.ChannelDM, "nope"); err == nil {
		t.Error("dm accepted as a team-scoped type")
	}
}

func TestJoinPostingRights(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	m := NewMemberships(db)

	coach := createUser(t, db, "coach_k", models.RoleCoach)
	parent := createUser(t, db, "parent_p", models.RoleParent)
	player := createUser(t, db, "player_j", models.RolePlayer)

	teamID := uint(7)
	playerChat := createChannel(t, db, models.ChannelPlayerChat, &teamID)
	teamChat := createChannel(t, db, models.ChannelTeamChat, &teamID)

	tests := []struct {
		name        string
		channelID   uint
		user        models.User
		role        models.MemberRole
		wantCanPost bool
	}{
		{"coach on player chat", playerChat.ID, coach, models.MemberRoleMember, true},
		{"parent on player chat", playerChat.ID, parent, models.MemberRoleMember, false},
		{"player on player chat", playerChat.ID, player, models.MemberRoleMember, false},
		{"parent admin on player chat", playerChat.ID, parent, models.MemberRoleAdmin, false},
		{"parent on team chat", teamChat.ID, parent, models.MemberRoleMember, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db.Where("channel_id = ? AND user_id = ?", tt.channelID, tt.user.ID).
				Delete(&models.ChannelMember{})

			member, err := m.Join(ctx, tt.channelID, tt.user, tt.role)
			if err != nil {
				t.Fatalf("join: %v", err)
			}
			if member.CanPost != tt.wantCanPost {
				t.Errorf("can_post = %v, want %v", member.CanPost, tt.wantCanPost)
			}
			if member.DisplayName != tt.user.Nickname {
				t.Errorf("display name = %q, want %q", member.DisplayName, tt.user.Nickname)
			}

			// The flag must survive the insert as-is; a column default must
			// not overwrite an explicit false.
			var stored models.ChannelMember
			if err := db.Where("channel_id = ? AND user_id = ?", tt.channelID, tt.user.ID).
				First(&stored).Error; err != nil {
				t.Fatalf("reload member: %v", err)
			}
			if stored.CanPost != tt.wantCanPost {
				t.Errorf("stored can_post = %v, want %v", stored.CanPost, tt.wantCanPost)
			}
		})
	}
}

func TestJoinExistingMembershipUnchanged(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	m := NewMemberships(db)
	alice := createUser(t, db, "alice", models.RolePlayer)
	channel := createChannel(t, db, models.ChannelGroupDM, nil)

	first, err := m.Join(ctx, channel.ID, alice, models.MemberRoleAdmin)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	again, err := m.Join(ctx, channel.ID, alice, models.MemberRoleMember)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.Role != first.Role {
		t.Errorf("rejoin changed role: %s -> %s", first.Role, again.Role)
	}
}

func TestJoinRejectsArchivedAndMissing(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	m := NewMemberships(db)
	alice := createUser(t, db, "alice", models.RolePlayer)

	archived := createChannel(t, db, models.ChannelGroupDM, nil)
	db.Model(&models.Channel{}).Where("id = ?", archived.ID).Update("archived", true)

	if _, err := m.Join(ctx, archived.ID, alice, models.MemberRoleMember); !errors.Is(err, ErrChannelArchived) {
		t.Errorf("archived join err = %v, want ErrChannelArchived", err)
	}
	if _, err := m.Join(ctx, 99999, alice, models.MemberRoleMember); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("missing join err = %v, want ErrChannelNotFound", err)
	}
}

func TestCanReadCoachWithoutMembership(t *testing.T) {
	db := openTestDB(t)
	ctx := testCtx(t)

	coach := createUser(t, db, "coach_k", models.RoleCoach)
	teamID := uint(7)
	playerChat := createChannel(t, db, models.ChannelPlayerChat, &teamID)
	teamChat := createChannel(t, db, models.ChannelTeamChat, &teamID)

	onTeam := Identity{UserID: coach.ID, Role: models.RoleCoach, SeasonID: 1, TeamIDs: []uint{teamID}}
	offTeam := Identity{UserID: coach.ID, Role: models.RoleCoach, SeasonID: 1, TeamIDs: []uint{99}}

	if ok, err := CanRead(ctx, db, playerChat.ID, onTeam); err != nil || !ok {
		t.Errorf("coach on team: CanRead = %v, %v; want true", ok, err)
	}
	if ok, _ := CanRead(ctx, db, playerChat.ID, offTeam); ok {
		t.Error("coach off team can read another team's player chat")
	}

	// Coach read-along is specific to player chats.
	if ok, _ := CanRead(ctx, db, teamChat.ID, onTeam); ok {
		t.Error("coach reads team chat without membership")
	}
}
