// Package config defines the top-level configuration for kizzybot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by KIZZY_* environment variables.
type Config struct {
	Kizzy    KizzyConfig    `toml:"kizzy"`
	Session  SessionConfig  `toml:"session"`
	Betting  BettingConfig  `toml:"betting"`
	Rewards  RewardsConfig  `toml:"rewards"`
	Runner   RunnerConfig   `toml:"runner"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// KizzyConfig holds the platform endpoints. AppHost serves the versioned
// /api/v2 surface, RestHost the bet/reward REST surface.
type KizzyConfig struct {
	AppHost     string   `toml:"app_host"`
	RestHost    string   `toml:"rest_host"`
	HTTPTimeout duration `toml:"http_timeout"`
}

// SessionConfig holds session-credential parameters. CredentialsDir is
// scanned for one encrypted artifact per account.
type SessionConfig struct {
	CredentialsDir string `toml:"credentials_dir"`
	VaultPassword  string `toml:"vault_password"`
	WarmOnStart    bool   `toml:"warm_on_start"`
}

// BettingConfig holds wager sizing and pacing parameters. The pacing delays
// are a hard requirement: they emulate human submission cadence and keep the
// bot under the platform's throttling thresholds.
type BettingConfig struct {
	PoolStake    int      `toml:"pool_stake"`
	BaseStake    int      `toml:"base_stake"`
	MaxStake     int      `toml:"max_stake"`
	SkipExisting bool     `toml:"skip_existing"`
	PoolDelay    duration `toml:"pool_delay"`
	SpreadDelay  duration `toml:"spread_delay"`
	BatchDelay   duration `toml:"batch_delay"`
}

// RewardsConfig holds reward-claim reconciliation parameters. Rounds is the
// unconditional number of claim passes per run.
type RewardsConfig struct {
	Rounds     int      `toml:"rounds"`
	PollDelay  duration `toml:"poll_delay"`
	ClaimDelay duration `toml:"claim_delay"`
}

// PlatformConfig names one platform to process and whether it offers
// spread markets.
type PlatformConfig struct {
	Name    string `toml:"name"`
	Spreads bool   `toml:"spreads"`
}

// RunnerConfig holds multi-account execution parameters.
type RunnerConfig struct {
	Platforms []PlatformConfig `toml:"platforms"`
	Parallel  bool             `toml:"parallel"`
	Stagger   duration         `toml:"stagger"`
}

// PostgresConfig holds connection parameters for the optional wager journal.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds connection parameters for the optional cross-run
// position cache.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds parameters for the optional run-report archive bucket.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds parameters for the optional status server.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	APIKey  string `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "2m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the values the bot was tuned
// against on the Kizzy testnet.
func Defaults() Config {
	return Config{
		Kizzy: KizzyConfig{
			AppHost:     "https://testnet.kizzy.io",
			RestHost:    "https://rest-api.kizzy.io",
			HTTPTimeout: duration{30 * time.Second},
		},
		Session: SessionConfig{
			CredentialsDir: "data/sessions",
			WarmOnStart:    true,
		},
		Betting: BettingConfig{
			PoolStake:    15,
			BaseStake:    15,
			MaxStake:     99,
			SkipExisting: true,
			PoolDelay:    duration{5 * time.Second},
			SpreadDelay:  duration{4 * time.Second},
			BatchDelay:   duration{5 * time.Second},
		},
		Rewards: RewardsConfig{
			Rounds:     5,
			PollDelay:  duration{2 * time.Second},
			ClaimDelay: duration{2 * time.Second},
		},
		Runner: RunnerConfig{
			Platforms: []PlatformConfig{
				{Name: "twitter", Spreads: true},
				{Name: "youtube", Spreads: true},
			},
			Parallel: false,
			Stagger:  duration{2 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "kizzybot",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			Bucket:         "kizzybot-reports",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8090,
		},
		Notify: NotifyConfig{
			Events: []string{domainEventBetFailed, domainEventRunDone, domainEventRunFailed},
		},
		LogLevel: "info",
	}
}

// Default notify events, duplicated here to keep config free of a domain
// import cycle.
const (
	domainEventBetFailed = "bet_failed"
	domainEventRunDone   = "run_done"
	domainEventRunFailed = "run_failed"
)

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Kizzy.AppHost == "" {
		errs = append(errs, "kizzy: app_host must not be empty")
	}
	if c.Kizzy.RestHost == "" {
		errs = append(errs, "kizzy: rest_host must not be empty")
	}

	if c.Session.CredentialsDir == "" {
		errs = append(errs, "session: credentials_dir must not be empty")
	}
	if c.Session.VaultPassword == "" {
		errs = append(errs, "session: vault_password must not be empty (set KIZZY_SESSION_VAULT_PASSWORD)")
	}

	if c.Betting.PoolStake <= 0 {
		errs = append(errs, "betting: pool_stake must be > 0")
	}
	if c.Betting.BaseStake <= 0 {
		errs = append(errs, "betting: base_stake must be > 0")
	}
	if c.Betting.MaxStake < c.Betting.BaseStake {
		errs = append(errs, "betting: max_stake must be >= base_stake")
	}
	if c.Betting.PoolDelay.Duration < 0 || c.Betting.SpreadDelay.Duration < 0 || c.Betting.BatchDelay.Duration < 0 {
		errs = append(errs, "betting: pacing delays must not be negative")
	}

	if c.Rewards.Rounds < 1 {
		errs = append(errs, "rewards: rounds must be >= 1")
	}

	if len(c.Runner.Platforms) == 0 {
		errs = append(errs, "runner: at least one platform must be configured")
	}
	for i, p := range c.Runner.Platforms {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Sprintf("runner: platforms[%d] has an empty name", i))
		}
	}
	if c.Runner.Stagger.Duration < 0 {
		errs = append(errs, "runner: stagger must not be negative")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
