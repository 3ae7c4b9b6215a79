package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Session.VaultPassword = "pw"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults().Validate() = %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Kizzy.AppHost = ""
	cfg.Betting.PoolStake = 0
	cfg.Rewards.Rounds = 0
	cfg.Runner.Platforms = nil
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{
		"app_host",
		"pool_stake",
		"rounds",
		"at least one platform",
		"log_level",
		"vault_password",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateDisabledSubsystemsSkipped(t *testing.T) {
	cfg := Defaults()
	cfg.Session.VaultPassword = "pw"
	// Invalid values in disabled subsystems must not fail validation.
	cfg.Postgres.Enabled = false
	cfg.Postgres.Host = ""
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	cfg.S3.Enabled = false
	cfg.S3.Bucket = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
log_level = "debug"

[kizzy]
app_host = "https://example.test"
http_timeout = "10s"

[betting]
pool_stake = 20
pool_delay = "1s"

[[runner.platforms]]
name = "twitter"
spreads = false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kizzy.AppHost != "https://example.test" {
		t.Errorf("AppHost = %q", cfg.Kizzy.AppHost)
	}
	if cfg.Kizzy.HTTPTimeout.Duration != 10*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.Kizzy.HTTPTimeout.Duration)
	}
	// Untouched fields keep their defaults.
	if cfg.Kizzy.RestHost != "https://rest-api.kizzy.io" {
		t.Errorf("RestHost = %q, want default", cfg.Kizzy.RestHost)
	}
	if cfg.Betting.PoolStake != 20 {
		t.Errorf("PoolStake = %d", cfg.Betting.PoolStake)
	}
	if cfg.Betting.SpreadDelay.Duration != 4*time.Second {
		t.Errorf("SpreadDelay = %v, want default 4s", cfg.Betting.SpreadDelay.Duration)
	}
	if len(cfg.Runner.Platforms) != 1 || cfg.Runner.Platforms[0].Name != "twitter" || cfg.Runner.Platforms[0].Spreads {
		t.Errorf("Platforms = %+v", cfg.Runner.Platforms)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("log_level = \"info\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KIZZY_SESSION_VAULT_PASSWORD", "from-env")
	t.Setenv("KIZZY_BETTING_POOL_STAKE", "33")
	t.Setenv("KIZZY_BETTING_POOL_DELAY", "250ms")
	t.Setenv("KIZZY_RUNNER_PARALLEL", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.VaultPassword != "from-env" {
		t.Errorf("VaultPassword = %q", cfg.Session.VaultPassword)
	}
	if cfg.Betting.PoolStake != 33 {
		t.Errorf("PoolStake = %d", cfg.Betting.PoolStake)
	}
	if cfg.Betting.PoolDelay.Duration != 250*time.Millisecond {
		t.Errorf("PoolDelay = %v", cfg.Betting.PoolDelay.Duration)
	}
	if !cfg.Runner.Parallel {
		t.Error("Parallel = false, want env override true")
	}
}
