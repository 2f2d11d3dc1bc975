// infrastructure/container.go
package infrastructure

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/config"
	"github.com/ledgerline/xeroreports/infrastructure/postgres"
	"github.com/ledgerline/xeroreports/infrastructure/redis"
	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/internal/report"
	"github.com/ledgerline/xeroreports/internal/tenant"
	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

// Container provides application dependencies
type Container struct {
	// Services
	AuthService   *auth.Service
	ReportService *report.Service

	// Handlers
	AuthHandler   *auth.Handler
	ReportHandler *report.Handler

	// Infrastructure
	RedisClient goredis.UniversalClient
	RedisHealth *redis.HealthChecker
	TokenStore  *auth.FallbackTokenStore
	Pool        *pgxpool.Pool
	XeroClient  *xeroclient.Client

	logger *zap.Logger
}

// NewContainer creates and initializes the dependency container
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	container := &Container{logger: logger}

	redisCfg := redis.DefaultConfig()
	redisCfg.Addresses = cfg.Redis.Addresses
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisClient := redis.NewUniversalClient(redisCfg)
	container.RedisClient = redisClient

	container.RedisHealth = redis.NewHealthChecker(ctx, redisClient, 30*time.Second)

	pool, err := postgres.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	container.Pool = pool

	container.TokenStore = auth.NewFallbackTokenStore(
		auth.NewRedisTokenStore(redisClient, cfg.Redis.KeyPrefix),
		container.RedisHealth.IsHealthy,
		logger,
	)
	stateStore := auth.NewRedisStateStore(redisClient, cfg.Redis.KeyPrefix)
	container.TokenStore.StartReplicationRoutine(ctx)

	container.XeroClient = xeroclient.NewClient(cfg.Xero.APIBaseURL, cfg.Xero.ConnectionsURL)

	tenantDirectory := tenant.NewPostgresDirectory(pool)
	reportStore := report.NewPostgresStore(pool)

	container.AuthService = auth.NewService(auth.OAuthConfig{
		ClientID:      cfg.Xero.ClientID,
		ClientSecret:  cfg.Xero.ClientSecret,
		RedirectURI:   cfg.Xero.RedirectURI,
		Scopes:        cfg.Xero.Scopes,
		AuthorizeURL:  cfg.Xero.AuthorizeURL,
		TokenURL:      cfg.Xero.TokenURL,
		RevocationURL: cfg.Xero.RevocationURL,
	}, container.TokenStore, stateStore, container.XeroClient, logger)

	engine := report.NewEngine(container.XeroClient, logger)
	container.ReportService = report.NewService(
		container.AuthService,
		tenantDirectory,
		engine,
		reportStore,
		logger,
	)

	container.AuthHandler = auth.NewHandler(container.AuthService, tenantDirectory, logger)
	container.ReportHandler = report.NewHandler(container.ReportService, logger)

	return container, nil
}

// Shutdown gracefully closes connections
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.logger.Error("error closing redis connection", zap.Error(err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
