package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// Register creates a new account with role "user" and signs it in.
// Returns ErrAlreadyExists if the username or email is already taken.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.normalize()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register hash password: %w", err)
	}

	// Username and email uniqueness are enforced by DB constraints.
	user, err := s.users.Create(ctx, domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("auth.Register: %w", domain.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	result, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	s.log.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))

	return result, nil
}

// EnsureAdmin grants the admin role to an existing account, or creates a new
// admin account when the username is unknown. Used by the create-admin command.
func (s *Service) EnsureAdmin(ctx context.Context, input RegisterInput) (domain.User, error) {
	input.normalize()

	user, err := s.users.SetRole(ctx, input.Username, domain.UserRoleAdmin)
	if err == nil {
		s.log.InfoContext(ctx, "user promoted to admin", slog.Int64("user_id", user.ID))
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("auth.EnsureAdmin promote: %w", err)
	}

	if err := input.Validate(); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("auth.EnsureAdmin hash password: %w", err)
	}

	user, err = s.users.Create(ctx, domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.UserRoleAdmin,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("auth.EnsureAdmin create: %w", err)
	}

	s.log.InfoContext(ctx, "admin account created", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *Service) issueToken(user domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
