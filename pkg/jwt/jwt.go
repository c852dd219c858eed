package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rosterhub/backend/internal/config"
)

// GenerateToken creates a new JWT for a given user. The role travels as a
// claim so clients can shape their UI without an extra profile fetch; the
// server never trusts it, authorization always re-reads the user row.
func GenerateToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}
