package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/courtsidehq/courtside/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
app:
  name: courtside
  environment: test
  port: 8080
database:
  driver: sqlite
  filename: courtside.db
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Booking.HorizonDays != 30 {
		t.Fatalf("horizon = %d, want 30", cfg.Booking.HorizonDays)
	}
	if cfg.Booking.CancellationCutoffHours != 24 {
		t.Fatalf("cutoff = %d, want 24", cfg.Booking.CancellationCutoffHours)
	}
	if cfg.Booking.ModificationFeeCents != 500 {
		t.Fatalf("modification fee = %d, want 500", cfg.Booking.ModificationFeeCents)
	}
	if cfg.Booking.DefaultOpenTime != "06:00" || cfg.Booking.DefaultCloseTime != "22:00" {
		t.Fatalf("default hours = %s-%s", cfg.Booking.DefaultOpenTime, cfg.Booking.DefaultCloseTime)
	}
	if cfg.Booking.SlotGenerationCron == "" {
		t.Fatal("slot generation cron should default")
	}
	if cfg.Redis.TTLSeconds != 60 {
		t.Fatalf("redis ttl = %d, want 60", cfg.Redis.TTLSeconds)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
app:
  name: courtside
  environment: test
  port: 8080
database:
  driver: postgres
  filename: courtside.db
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadRequiresRedisAddressWhenEnabled(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
redis:
  enabled: true
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for enabled redis without address")
	}
}

func TestLoadReadsSecretsFromEnvironment(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "hunter2")
	path := writeConfig(t, minimalConfig+`
redis:
  enabled: true
  address: localhost:6379
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Fatalf("redis password = %q, want from environment", cfg.Redis.Password)
	}
}

func TestLoadRequiresNotificationFields(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
notifications:
  enabled: true
  region: us-east-1
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for notifications without sender and recipient")
	}
}
