package chat

import "rosterhub/backend/internal/models"

// Identity carries everything the chat core needs to know about the caller.
// It is supplied by the authentication collaborator, not derived here.
type Identity struct {
	UserID   uint
	Role     models.UserRole
	SeasonID uint
	TeamIDs  []uint
}

// OnTeam reports whether the identity belongs to the given team in its
// active role.
func (id Identity) OnTeam(teamID uint) bool {
	for _, t := range id.TeamIDs {
		if t == teamID {
			return true
		}
	}
	return false
}
