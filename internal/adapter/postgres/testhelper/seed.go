package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a regular user. The password hash is a placeholder; tests
// that log in hash their own password.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	return seedUser(t, pool, domain.UserRoleUser)
}

// SeedAdmin creates a user with the admin role.
func SeedAdmin(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	return seedUser(t, pool, domain.UserRoleAdmin)
}

func seedUser(t *testing.T, pool *pgxpool.Pool, role domain.UserRole) domain.User {
	t.Helper()

	suffix := uniqueSuffix()
	u := domain.User{
		Username:     "user-" + suffix,
		Email:        "user-" + suffix + "@example.com",
		PasswordHash: "$2a$04$placeholder",
		Role:         role,
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Username, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		t.Fatalf("testhelper: seed user: %v", err)
	}

	return u
}

// SeedSubscription stores notification flags for a user.
func SeedSubscription(t *testing.T, pool *pgxpool.Pool, userID int64, documents, events, news bool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO subscriptions (user_id, notify_documents, notify_events, notify_news)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET notify_documents = EXCLUDED.notify_documents,
		     notify_events = EXCLUDED.notify_events,
		     notify_news = EXCLUDED.notify_news`,
		userID, documents, events, news,
	)
	if err != nil {
		t.Fatalf("testhelper: seed subscription: %v", err)
	}
}

// DeleteUser removes a user row.
func DeleteUser(t *testing.T, pool *pgxpool.Pool, userID int64) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID); err != nil {
		t.Fatalf("testhelper: delete user: %v", err)
	}
}

// TruncateContent empties the table of kind k.
func TruncateContent(t *testing.T, pool *pgxpool.Pool, k domain.Kind) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `TRUNCATE `+domain.MustSchema(k).Table+` RESTART IDENTITY`); err != nil {
		t.Fatalf("testhelper: truncate %s: %v", k, err)
	}
}
