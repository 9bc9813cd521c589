package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// userRepo defines the user repository interface needed by auth service.
type userRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	SetRole(ctx context.Context, username string, role domain.UserRole) (domain.User, error)
}

// passwordHasher defines the password hashing interface needed by auth service.
type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// tokenManager defines the access token interface needed by auth service.
type tokenManager interface {
	GenerateAccessToken(userID int64, role string) (string, time.Time, error)
	ValidateAccessToken(token string) (int64, error)
}

// Service implements the access gate: registration, login and token resolution.
type Service struct {
	log    *slog.Logger
	users  userRepo
	hasher passwordHasher
	tokens tokenManager
}

// NewService creates a new auth service instance.
func NewService(logger *slog.Logger, users userRepo, hasher passwordHasher, tokens tokenManager) *Service {
	return &Service{
		log:    logger.With("service", "auth"),
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}
