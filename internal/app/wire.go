package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/kizzybot/internal/blob/s3"
	"github.com/alanyoungcy/kizzybot/internal/cache/redis"
	"github.com/alanyoungcy/kizzybot/internal/config"
	"github.com/alanyoungcy/kizzybot/internal/domain"
	"github.com/alanyoungcy/kizzybot/internal/notify"
	"github.com/alanyoungcy/kizzybot/internal/server/ws"
	"github.com/alanyoungcy/kizzybot/internal/store/postgres"
)

// Dependencies bundles the optional infrastructure the modes operate with.
// Disabled subsystems leave their fields nil and the run degrades to
// in-memory behaviour.
type Dependencies struct {
	BetStore   domain.BetStore
	ClaimStore domain.ClaimStore
	Cache      domain.PositionCache
	Archiver   domain.ReportArchiver

	Hub      *ws.Hub
	Notifier *notify.Notifier
	Bridge   *notify.Bridge
}

// Events returns the combined event sink, or nil when neither the hub nor
// the notification bridge is configured.
func (d *Dependencies) Events() domain.EventSink {
	var sinks []domain.EventSink
	if d.Hub != nil {
		sinks = append(sinks, d.Hub)
	}
	if d.Bridge != nil {
		sinks = append(sinks, d.Bridge)
	}
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	default:
		return multiSink(sinks)
	}
}

// multiSink fans one event out to several sinks.
type multiSink []domain.EventSink

func (m multiSink) Publish(event domain.RunEvent) {
	for _, s := range m {
		s.Publish(event)
	}
}

// Wire constructs the enabled infrastructure from the configuration and
// returns it with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}

		pool := pgClient.Pool()
		deps.BetStore = postgres.NewBetStore(pool)
		deps.ClaimStore = postgres.NewClaimStore(pool)
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewPositionCache(redisClient)
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewReportArchiver(s3Client)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
		deps.Bridge = notify.NewBridge(deps.Notifier, logger)
		closers = append(closers, func() { _ = deps.Bridge.Close() })
	}

	if cfg.Server.Enabled {
		deps.Hub = ws.NewHub(logger)
	}

	return deps, cleanup, nil
}
