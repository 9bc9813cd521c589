package rest

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/service/auth"
)

func TestAuth_RegisterCreated(t *testing.T) {
	t.Parallel()

	var got auth.RegisterInput
	svc := &fakeAuth{
		RegisterFunc: func(_ context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
			got = in
			return &auth.AuthResult{
				AccessToken: "tok",
				ExpiresAt:   testTime.Add(12 * time.Hour),
				User:        domain.User{ID: 1, Username: in.Username, Email: in.Email, Role: domain.UserRoleUser},
			}, nil
		},
	}

	rec := serve(t, newTestRouter(testServices{auth: svc}), http.MethodPost, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret-pass"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"}, got)
	assert.JSONEq(t, `{
		"message":"User registered successfully",
		"access_token":"tok",
		"expires_at":"2025-03-02T00:00:00Z",
		"user":{"id":1,"username":"alice","email":"alice@example.com","role":"user"}
	}`, rec.Body.String())
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	svc := &fakeAuth{
		RegisterFunc: func(context.Context, auth.RegisterInput) (*auth.AuthResult, error) {
			return nil, fmt.Errorf("auth.Register: %w", domain.ErrAlreadyExists)
		},
	}

	rec := serve(t, newTestRouter(testServices{auth: svc}), http.MethodPost, "/api/auth/register", `{"username":"alice"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuth_LoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	svc := &fakeAuth{
		LoginFunc: func(context.Context, auth.LoginInput) (*auth.AuthResult, error) {
			return nil, domain.ErrUnauthorized
		},
	}

	rec := serve(t, newTestRouter(testServices{auth: svc}), http.MethodPost, "/api/auth/login", `{"username":"alice","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LoginEmptyBody(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(testServices{}), http.MethodPost, "/api/auth/login", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"request body is empty"}`, rec.Body.String())
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()

	svc := &fakeAuth{
		MeFunc: func(context.Context) (domain.User, error) {
			return domain.User{ID: 9, Username: "root", Email: "root@example.com", Role: domain.UserRoleAdmin}, nil
		},
	}

	rec := serve(t, newTestRouter(testServices{auth: svc}), http.MethodGet, "/api/auth/me", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"username":"root","email":"root@example.com","role":"admin"}`, rec.Body.String())
}
