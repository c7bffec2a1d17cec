package cli

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/repository"
	"github.com/noah-isme/sma-transcript-api/internal/service"
	"github.com/noah-isme/sma-transcript-api/pkg/cache"
	"github.com/noah-isme/sma-transcript-api/pkg/config"
	"github.com/noah-isme/sma-transcript-api/pkg/database"
	"github.com/noah-isme/sma-transcript-api/pkg/logger"
	"github.com/noah-isme/sma-transcript-api/pkg/mailer"
)

// app holds the long-lived dependencies shared by commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client

	metrics     *service.MetricsService
	tokens      *service.TokenService
	transcripts *service.TranscriptService
	notifier    *service.NotificationService
}

func loadBase() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

// bootstrap connects to PostgreSQL and, when caching is on, Redis. A Redis
// outage downgrades to uncached reads instead of failing startup.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, logr, err := loadBase()
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logr, db: db, metrics: service.NewMetricsService()}
	a.tokens = service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration)

	var cacheRepo service.CacheRepository
	if cfg.Transcript.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, transcript cache disabled", zap.Error(err))
		} else {
			a.redis = client
			cacheRepo = repository.NewCacheRepository(client, "sma-transcript")
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.metrics, cfg.Transcript.CacheTTL, logr, cacheRepo != nil)

	a.transcripts = service.NewTranscriptService(
		repository.NewGradingStructureRepository(db),
		repository.NewStudentTestResultRepository(db),
		repository.NewFinalTranscriptRepository(db),
		cacheSvc,
		a.metrics,
		validator.New(),
		logr,
		service.TranscriptServiceConfig{CacheTTL: cfg.Transcript.CacheTTL, BatchConcurrency: cfg.Transcript.BatchConcurrency},
	)

	notifier, err := newNotifier(cfg.Mail, logr)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.notifier = notifier
	return a, nil
}

func newNotifier(cfg config.MailConfig, logr *zap.Logger) (*service.NotificationService, error) {
	recipients, err := mailer.ParseAddresses(cfg.NotifyOnFail)
	if err != nil {
		return nil, fmt.Errorf("notification recipients: %w", err)
	}
	sender, err := mailer.New(mailer.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.SendGridAPIKey,
		FromName:    cfg.FromName,
		FromAddress: cfg.FromAddress,
	}, logr)
	if err != nil {
		return nil, err
	}
	return service.NewNotificationService(sender, recipients, logr), nil
}

// Close releases connections and flushes the logger.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}
