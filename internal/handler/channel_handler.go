package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rosterhub/backend/internal/chat"
	"rosterhub/backend/internal/database"
	"rosterhub/backend/internal/models"
)

// region --- DTOs ---

// ChannelInput defines the structure for admin channel creation.
type ChannelInput struct {
	SeasonID uint   `json:"season_id" binding:"required"`
	TeamID   *uint  `json:"team_id"`
	Type     string `json:"type" binding:"required,oneof=team_chat player_chat dm group_dm"`
	Name     string `json:"name" binding:"required"`
}

// ChannelResponse defines one directory entry.
type ChannelResponse struct {
	ID          uint      `json:"id"`
	SeasonID    uint      `json:"season_id"`
	TeamID      *uint     `json:"team_id,omitempty"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsMember    bool      `json:"is_member"`
	Role        string    `json:"role,omitempty"`
	CanPost     bool      `json:"can_post"`
	UnreadCount int64     `json:"unread_count"`
}

func newChannelResponse(entry chat.ChannelEntry) ChannelResponse {
	return ChannelResponse{
		ID:          entry.Channel.ID,
		SeasonID:    entry.Channel.SeasonID,
		TeamID:      entry.Channel.TeamID,
		Type:        string(entry.Channel.Type),
		Name:        entry.Channel.Name,
		UpdatedAt:   entry.Channel.UpdatedAt,
		IsMember:    entry.IsMember,
		Role:        string(entry.Role),
		CanPost:     entry.CanPost,
		UnreadCount: entry.UnreadCount,
	}
}

// endregion

// ListChannels godoc
// @Summary      List visible channels
// @Description  Returns the channels the caller may see, most recently active first.
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ChannelResponse
// @Failure      503 {object} ErrorResponse "Directory temporarily unavailable"
// @Router       /channels [get]
func ListChannels(c *gin.Context) {
	identity, _, err := currentIdentity(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	entries, err := chat.NewDirectory(database.DB).List(c.Request.Context(), identity)
	if err != nil {
		chatError(c, err)
		return
	}

	response := make([]ChannelResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, newChannelResponse(entry))
	}
	c.JSON(http.StatusOK, response)
}

// JoinChannel godoc
// @Summary      Join a channel
// @Description  Creates the caller's membership on first use. Posting rights follow the channel type.
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Success      200 {object} map[string]string "{"message": "Joined channel"}"
// @Failure      404 {object} ErrorResponse "Channel not found"
// @Failure      409 {object} ErrorResponse "Channel is archived"
// @Router       /channels/{id}/join [post]
func JoinChannel(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))

	_, user, err := currentIdentity(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	_, err = chat.NewMemberships(database.DB).
		Join(c.Request.Context(), uint(channelID), *user, models.MemberRoleMember)
	if err != nil {
		chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined channel"})
}

// EnsureTeamChat godoc
// @Summary      Open a team's chat channel
// @Description  Returns the team channel of the given type, creating it lazily on first use, and joins the caller.
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int    true  "Team ID"
// @Param        type query string false "Channel type" Enums(team_chat, player_chat) default(team_chat)
// @Success      200 {object} map[string]uint "{"channel_id": 1}"
// @Failure      403 {object} ErrorResponse "Not on this team"
// @Failure      404 {object} ErrorResponse "Team not found"
// @Router       /teams/{id}/chat [post]
func EnsureTeamChat(c *gin.Context) {
	teamID, _ := strconv.Atoi(c.Param("id"))
	typ := models.ChannelType(c.DefaultQuery("type", string(models.ChannelTeamChat)))

	identity, user, err := currentIdentity(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var team models.Team
	if err := database.DB.First(&team, teamID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}
	if !identity.OnTeam(team.ID) && identity.Role != models.RoleCoach {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not on this team"})
		return
	}

	memberships := chat.NewMemberships(database.DB)
	channel, err := memberships.EnsureTeamChannel(c.Request.Context(), team.SeasonID, team.ID, typ, team.Name)
	if err != nil {
		chatError(c, err)
		return
	}
	if _, err := memberships.Join(c.Request.Context(), channel.ID, *user, models.MemberRoleMember); err != nil {
		chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel_id": channel.ID})
}

// CreateChannel godoc
// @Summary      Create a channel (Admin only)
// @Description  Creates a channel directly, e.g. a group DM or an out-of-band team channel.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ChannelInput true "Channel Info"
// @Success      201 {object} map[string]uint "{"channel_id": 1}"
// @Failure      400 {object} ErrorResponse
// @Router       /admin/channels [post]
func CreateChannel(c *gin.Context) {
	var input ChannelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := models.Channel{
		SeasonID: input.SeasonID,
		TeamID:   input.TeamID,
		Type:     models.ChannelType(input.Type),
		Name:     input.Name,
	}
	if err := database.DB.Create(&channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"channel_id": channel.ID})
}

// ArchiveChannel godoc
// @Summary      Archive a channel (Admin only)
// @Description  Archived channels disappear from the directory; their messages are kept.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Channel ID"
// @Success      200 {object} map[string]string "{"message": "Channel archived"}"
// @Failure      404 {object} ErrorResponse "Channel not found"
// @Router       /admin/channels/{id}/archive [post]
func ArchiveChannel(c *gin.Context) {
	channelID, _ := strconv.Atoi(c.Param("id"))

	var channel models.Channel
	if err := database.DB.First(&channel, channelID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}

	if err := database.DB.Model(&channel).Update("archived", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Channel archived"})
}
