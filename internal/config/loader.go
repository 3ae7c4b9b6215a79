package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies KIZZY_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known KIZZY_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Kizzy.AppHost, "KIZZY_APP_HOST")
	setStr(&cfg.Kizzy.RestHost, "KIZZY_REST_HOST")
	setDuration(&cfg.Kizzy.HTTPTimeout, "KIZZY_HTTP_TIMEOUT")

	setStr(&cfg.Session.CredentialsDir, "KIZZY_SESSION_CREDENTIALS_DIR")
	setStr(&cfg.Session.VaultPassword, "KIZZY_SESSION_VAULT_PASSWORD")
	setBool(&cfg.Session.WarmOnStart, "KIZZY_SESSION_WARM_ON_START")

	setInt(&cfg.Betting.PoolStake, "KIZZY_BETTING_POOL_STAKE")
	setInt(&cfg.Betting.BaseStake, "KIZZY_BETTING_BASE_STAKE")
	setInt(&cfg.Betting.MaxStake, "KIZZY_BETTING_MAX_STAKE")
	setBool(&cfg.Betting.SkipExisting, "KIZZY_BETTING_SKIP_EXISTING")
	setDuration(&cfg.Betting.PoolDelay, "KIZZY_BETTING_POOL_DELAY")
	setDuration(&cfg.Betting.SpreadDelay, "KIZZY_BETTING_SPREAD_DELAY")
	setDuration(&cfg.Betting.BatchDelay, "KIZZY_BETTING_BATCH_DELAY")

	setInt(&cfg.Rewards.Rounds, "KIZZY_REWARDS_ROUNDS")
	setDuration(&cfg.Rewards.PollDelay, "KIZZY_REWARDS_POLL_DELAY")
	setDuration(&cfg.Rewards.ClaimDelay, "KIZZY_REWARDS_CLAIM_DELAY")

	setBool(&cfg.Runner.Parallel, "KIZZY_RUNNER_PARALLEL")
	setDuration(&cfg.Runner.Stagger, "KIZZY_RUNNER_STAGGER")

	setBool(&cfg.Postgres.Enabled, "KIZZY_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "KIZZY_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "KIZZY_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "KIZZY_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "KIZZY_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "KIZZY_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "KIZZY_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "KIZZY_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "KIZZY_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "KIZZY_POSTGRES_POOL_MIN_CONNS")

	setBool(&cfg.Redis.Enabled, "KIZZY_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "KIZZY_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "KIZZY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "KIZZY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "KIZZY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "KIZZY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "KIZZY_REDIS_TLS_ENABLED")

	setBool(&cfg.S3.Enabled, "KIZZY_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "KIZZY_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "KIZZY_S3_REGION")
	setStr(&cfg.S3.Bucket, "KIZZY_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "KIZZY_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "KIZZY_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "KIZZY_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "KIZZY_S3_FORCE_PATH_STYLE")

	setBool(&cfg.Server.Enabled, "KIZZY_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "KIZZY_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "KIZZY_SERVER_API_KEY")

	setStr(&cfg.Notify.TelegramToken, "KIZZY_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "KIZZY_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "KIZZY_NOTIFY_DISCORD_WEBHOOK_URL")

	setStr(&cfg.LogLevel, "KIZZY_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
