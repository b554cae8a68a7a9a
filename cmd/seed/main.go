package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/cofre-digital/config"
	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
	pginfra "github.com/oksasatya/cofre-digital/internal/infrastructure/postgres"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// seed creates (or reuses) a demo account and fills in its default folders.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	dl := helpers.Deadline(cfg.StoreTimeout)
	users := pginfra.NewUserRepository(pool, dl)
	vault := application.NewVaultService(pginfra.NewVaultRepository(pool, dl), logger)

	email := helpers.NormalizeEmail(getenvDefault("SEED_EMAIL", "demo@cofre.digital"))
	password := getenvDefault("SEED_PASSWORD", "password123")

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, herr := helpers.HashPassword(password)
		if herr != nil {
			logger.Fatalf("failed to hash password: %v", herr)
		}
		u = &entity.User{Email: email, Password: hash}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatalf("failed to seed user: %v", err)
		}
		logger.WithField("email", email).Info("seeded demo user")
	case err != nil:
		logger.Fatalf("failed to look up seed user: %v", err)
	default:
		logger.WithField("email", email).Info("demo user already exists")
	}

	created, err := vault.SeedDefaultFolders(ctx, u.ID)
	if err != nil {
		logger.Fatalf("failed to seed folders: %v", err)
	}
	logger.WithField("uid", u.ID).WithField("created", len(created)).Info("default folders ensured")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
