package handler

import (
	"rosterhub/backend/internal/chat"
	"rosterhub/backend/internal/database"
	"rosterhub/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// currentIdentity resolves the authenticated caller into the chat core's
// identity: user id, active role, active season, and the teams the user
// belongs to in it.
func currentIdentity(c *gin.Context) (chat.Identity, *models.User, error) {
	userID := c.GetUint("userID")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return chat.Identity{}, nil, err
	}

	// A missing active season leaves season.ID zero, which simply yields
	// an empty team scope below.
	var season models.Season
	database.DB.Where("active = ?", true).Order("id DESC").First(&season)

	var teamIDs []uint
	database.DB.Model(&models.Team{}).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND teams.season_id = ?", userID, season.ID).
		Pluck("teams.id", &teamIDs)

	return chat.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		SeasonID: season.ID,
		TeamIDs:  teamIDs,
	}, &user, nil
}
