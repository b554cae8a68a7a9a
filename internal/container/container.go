package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/config"
	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.
// Anything left unset is treated as "not configured" by the services.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	jwtManager *helpers.JWTManager
	cookies    *helpers.Manager

	objectStore application.ObjectStore
	gateway     application.PaymentGateway

	rabbitPub *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetPGPool(p *pgxpool.Pool)  { pgPool = p }
func GetPGPool() *pgxpool.Pool   { return pgPool }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }

func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }
func SetCookies(m *helpers.Manager) { cookies = m }
func GetCookies() *helpers.Manager  { return cookies }

func SetObjectStore(s application.ObjectStore) { objectStore = s }
func GetObjectStore() application.ObjectStore  { return objectStore }
func SetGateway(g application.PaymentGateway)  { gateway = g }
func GetGateway() application.PaymentGateway   { return gateway }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }

// EmailQueue returns a queue over the RabbitMQ publisher, or nil when no
// broker is configured.
func EmailQueue() *mailer.Queue {
	if rabbitPub == nil {
		return nil
	}
	return mailer.NewQueue(rabbitPub)
}
