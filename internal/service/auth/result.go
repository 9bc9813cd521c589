package auth

import (
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        domain.User
}
