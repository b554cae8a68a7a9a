package router

import (
	"context"
	"strings"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/internal/container"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
	"github.com/oksasatya/cofre-digital/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/cofre-digital/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/cofre-digital/internal/interface/http"
	"github.com/oksasatya/cofre-digital/internal/router/modules"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// Deps is everything the modules are built from. cmd/main also uses Auth
// for the page guard.
type Deps struct {
	Users   repository.UserRepository
	Vault   repository.VaultRepository
	Auth    *application.AuthService
	VaultSv *application.VaultService
	Upload  *application.UploadService
	Billing *application.BillingService
}

func buildRepositories() (repository.UserRepository, repository.VaultRepository) {
	cfg := container.GetConfig()
	if strings.EqualFold(cfg.StoreDriver, "memory") || container.GetPGPool() == nil {
		return memory.NewUserRepository(), memory.NewVaultRepository()
	}
	dl := helpers.Deadline(cfg.StoreTimeout)
	return pginfra.NewUserRepository(container.GetPGPool(), dl), pginfra.NewVaultRepository(container.GetPGPool(), dl)
}

// emailQueue keeps the interface nil when no broker is configured.
func emailQueue() application.EmailQueue {
	if q := container.EmailQueue(); q != nil {
		return q
	}
	return nil
}

func revocations() application.Revocations {
	rdb := container.GetRedis()
	if rdb == nil {
		return nil
	}
	cfg := container.GetConfig()
	return helpers.NewRevocationStore(rdb, cfg.SessionTTL, helpers.Deadline(cfg.StoreTimeout))
}

// BuildDeps constructs repositories and services from the container.
func BuildDeps() *Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	users, vault := buildRepositories()
	emails := emailQueue()

	return &Deps{
		Users:   users,
		Vault:   vault,
		Auth:    application.NewAuthService(users, container.GetJWT(), revocations(), emails, logger, cfg.TrialPeriod, cfg.AppName, cfg.AppURL),
		VaultSv: application.NewVaultService(vault, logger),
		Upload:  application.NewUploadService(container.GetObjectStore(), cfg.UploadMaxBytes, logger),
		Billing: application.NewBillingService(container.GetGateway(), users, emails, logger, cfg.AppURL, cfg.AppName, cfg.Currency),
	}
}

func healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, d *Deps) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	cookies := container.GetCookies()

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(d.Auth, logger, cookies), d.Auth, cookies))
	r.Add(modules.NewVaultModule(
		handlers.NewVaultHandler(d.VaultSv, logger),
		handlers.NewUploadHandler(d.Upload, logger),
		d.Auth, cookies,
	))
	r.Add(modules.NewBillingModule(handlers.NewBillingHandler(d.Billing, logger), d.Auth, cookies))
	r.AddRoot(modules.NewOpsModule(handlers.NewHealthHandler(healthChecks()), cfg.MetricsEnabled))
}
