package utils

import (
	"fmt"
	"os"
	"time"

	"perchstats/api/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session claims for a logged-in dashboard organization.
type Claims struct {
	OrgID int    `json:"org_id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var sessionSecret = []byte(os.Getenv("SESSION_SECRET_KEY"))

// GenerateSessionJWT issues a signed session token for an organization.
func GenerateSessionJWT(org *models.Organization) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &Claims{
		OrgID: org.ID,
		Email: org.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "perchstats-api",
			Subject:   fmt.Sprintf("%d", org.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(sessionSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionJWT parses and validates a session token string.
func ValidateSessionJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sessionSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}
