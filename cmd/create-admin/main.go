// Command create-admin bootstraps an administrator. An existing user is
// promoted; otherwise a new admin account is created with the given password.
//
// Usage:
//
//	create-admin --username=admin --email=admin@example.com --password=...
//
// The password may also be passed through the ADMIN_PASSWORD environment
// variable. Requires DATABASE_DSN (see config).
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	userrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/regpulse-backend/internal/app"
	"github.com/heartmarshall/regpulse-backend/internal/auth"
	"github.com/heartmarshall/regpulse-backend/internal/config"
	authsvc "github.com/heartmarshall/regpulse-backend/internal/service/auth"
)

func main() {
	username := flag.String("username", "", "username of the admin")
	email := flag.String("email", "", "email, used only when the user does not exist yet")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password, used only when the user does not exist yet")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Usage: create-admin --username=admin [--email=admin@example.com --password=...]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := authsvc.NewService(logger, userrepo.New(pool),
		auth.NewHasher(cfg.Auth.PasswordHashCost),
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
	)

	user, err := svc.EnsureAdmin(ctx, authsvc.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		logger.Error("ensure admin", slog.String("username", *username), slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("User %q (id %d) is an admin.\n", user.Username, user.ID)
}
