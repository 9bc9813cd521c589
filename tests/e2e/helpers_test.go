//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/regpulse-backend/internal/app"
	"github.com/heartmarshall/regpulse-backend/internal/config"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/service/notify"
)

// testServer holds the running test server and its dependencies.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	Worker *notify.Worker
	Mail   *captureMailer
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// captureMailer records every message instead of sending it.
type captureMailer struct {
	mu   sync.Mutex
	sent []domain.Message
}

func (m *captureMailer) Send(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// To returns the messages delivered to addr.
func (m *captureMailer) To(addr string) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.sent {
		if msg.To == addr {
			out = append(out, msg)
		}
	}
	return out
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper). The notification worker is
// not started; tests drive it with Worker.ProcessBatch.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second, MaxBodyBytes: 1 << 20},
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret-at-least-32-chars-long!!",
			JWTIssuer:        "test-issuer",
			AccessTokenTTL:   15 * time.Minute,
			PasswordHashCost: 4,
		},
		CORS: config.CORSConfig{AllowedOrigins: "*"},
		Notify: config.NotifyConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			MaxAttempts:  3,
			Concurrency:  4,
			SendTimeout:  5 * time.Second,
		},
	}

	mail := &captureMailer{}
	wired := app.Wire(cfg, logger, app.Infra{Pool: pool, Mail: mail})

	srv := httptest.NewServer(wired.Handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		Worker: wired.Worker,
		Mail:   mail,
	}
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (ts *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type testUser struct {
	ID       int64
	Username string
	Email    string
	Token    string
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, ts *testServer) testUser {
	t.Helper()

	suffix := uuid.NewString()[:8]
	u := testUser{Username: "user-" + suffix, Email: "user-" + suffix + "@example.com"}

	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	status := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": u.Username,
		"email":    u.Email,
		"password": "correct-horse-battery",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)

	u.ID = resp.User.ID
	u.Token = resp.AccessToken
	return u
}

// registerAdmin registers a user and promotes it directly in the database.
// The existing token keeps working: the role is re-read on every request.
func registerAdmin(t *testing.T, ts *testServer) testUser {
	t.Helper()

	u := registerUser(t, ts)
	_, err := ts.Pool.Exec(context.Background(), "UPDATE users SET role = 'admin' WHERE id = $1", u.ID)
	require.NoError(t, err)
	return u
}
