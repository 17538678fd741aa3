// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"-"` // Loaded from environment
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// BookingConfig holds the business constants of the reservation core.
type BookingConfig struct {
	HorizonDays             int    `yaml:"horizon_days"`
	PlatformFeeCents        int64  `yaml:"platform_fee_cents"`
	TaxRateBasisPoints      int64  `yaml:"tax_rate_basis_points"`
	ModificationFeeCents    int64  `yaml:"modification_fee_cents"`
	CancellationCutoffHours int    `yaml:"cancellation_cutoff_hours"`
	DefaultOpenTime         string `yaml:"default_open_time"`
	DefaultCloseTime        string `yaml:"default_close_time"`
	SlotGenerationCron      string `yaml:"slot_generation_cron"`
}

type NotificationsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	Recipient       string `yaml:"recipient"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// Load loads both .env and yaml configuration.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Sensitive values come from the environment only.
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Notifications.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Notifications.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.HorizonDays == 0 {
		c.Booking.HorizonDays = 30
	}
	if c.Booking.CancellationCutoffHours == 0 {
		c.Booking.CancellationCutoffHours = 24
	}
	if c.Booking.ModificationFeeCents == 0 {
		c.Booking.ModificationFeeCents = 500
	}
	if c.Booking.DefaultOpenTime == "" {
		c.Booking.DefaultOpenTime = "06:00"
	}
	if c.Booking.DefaultCloseTime == "" {
		c.Booking.DefaultCloseTime = "22:00"
	}
	if c.Booking.SlotGenerationCron == "" {
		c.Booking.SlotGenerationCron = "30 3 * * *"
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 60
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.Notifications.Enabled {
		if c.Notifications.Region == "" || c.Notifications.Sender == "" || c.Notifications.Recipient == "" {
			return fmt.Errorf("notifications require region, sender and recipient")
		}
	}
	if c.Booking.HorizonDays < 1 {
		return fmt.Errorf("booking horizon must be at least 1 day")
	}
	return nil
}
