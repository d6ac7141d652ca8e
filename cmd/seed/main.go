package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// seed creates a demo account through the account service and prints an
// access token for it, for trying PUT /api/users by hand.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	name := flag.String("name", "demoUser", "account name")
	email := flag.String("email", "demo@example.com", "account email")
	password := flag.String("password", "password123", "account password")
	flag.Parse()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{DSN: cfg.PostgresDSN(), MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	hasher, err := helpers.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	repo := pginfra.NewAccountRepository(pool)
	svc := application.NewAccountService(repo, hasher, nil, logger)

	err = svc.CreateAccount(ctx, application.CreateAccountInput{Name: *name, Email: *email, Password: *password})
	switch {
	case errors.Is(err, application.ErrDuplicateEmail):
		fmt.Printf("account %s already exists\n", *email)
	case err != nil:
		log.Fatalf("failed to seed account: %v", err)
	default:
		fmt.Printf("seeded account: email=%s name=%s password=%s\n", *email, *name, *password)
	}

	acc, err := repo.FindByEmail(ctx, application.NormalizeEmail(*email))
	if err != nil {
		log.Fatalf("failed to load seeded account: %v", err)
	}
	token, exp, err := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL).GenerateAccessToken(acc.ID)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Printf("account id=%s\naccess token (expires %s):\n%s\n", acc.ID, exp.Format("2006-01-02 15:04:05 MST"), token)
}
