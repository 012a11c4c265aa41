package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Store     StoreConfig     `yaml:"store"`
	Audit     AuditConfig     `yaml:"audit"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
	Env  string `yaml:"env" env:"ENV"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr" env:"REDIS_URL"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	MaxRetries int    `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	KeyPrefix  string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX"`
}

// StoreConfig selects the host that holds account state.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER"`
}

type AuditConfig struct {
	DSN string `yaml:"dsn" env:"AUDIT_DSN"` // SQLite file path, or ":memory:"
}

type LedgerConfig struct {
	RewardThreshold  uint64 `yaml:"reward_threshold" env:"LEDGER_REWARD_THRESHOLD"`
	MaxRollsPerCall  uint32 `yaml:"max_rolls_per_call" env:"LEDGER_MAX_ROLLS"`
	MaxBatchSize     int    `yaml:"max_batch_size" env:"LEDGER_MAX_BATCH"`
	MaintenanceHours uint8  `yaml:"maintenance_hours" env:"LEDGER_MAINTENANCE_HOURS"`
}

type AuthConfig struct {
	TokenMaxAge time.Duration `yaml:"token_max_age" env:"AUTH_TOKEN_MAX_AGE"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text | json
}

// RateLimitConfig bounds requests per signer. Disabled turns limiting off;
// zero rates otherwise fall back to the defaults.
type RateLimitConfig struct {
	Disabled  bool    `yaml:"disabled" env:"RATE_LIMIT_DISABLED"`
	PerSecond float64 `yaml:"per_second" env:"RATE_LIMIT_PER_SECOND"`
	Burst     int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// Load reads the YAML file at path, then .env and the process environment,
// then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrapf(err, "read config %q", path)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %q", path)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Ledger.MaxBatchSize > 10 {
		return errors.Errorf("ledger.max_batch_size %d exceeds 10", c.Ledger.MaxBatchSize)
	}
	if c.RateLimit.PerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.MaxRetries <= 0 {
		cfg.Redis.MaxRetries = 16
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Audit.DSN == "" {
		cfg.Audit.DSN = "audit.db"
	}
	if cfg.Ledger.RewardThreshold == 0 {
		cfg.Ledger.RewardThreshold = 100_000_000
	}
	if cfg.Ledger.MaxRollsPerCall == 0 {
		cfg.Ledger.MaxRollsPerCall = 100
	}
	if cfg.Ledger.MaxBatchSize <= 0 {
		cfg.Ledger.MaxBatchSize = 10
	}
	if cfg.Ledger.MaintenanceHours == 0 {
		cfg.Ledger.MaintenanceHours = 4
	}
	if cfg.Auth.TokenMaxAge <= 0 {
		cfg.Auth.TokenMaxAge = 5 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.RateLimit.Disabled {
		cfg.RateLimit.PerSecond = 0
		cfg.RateLimit.Burst = 0
		return
	}
	if cfg.RateLimit.PerSecond == 0 {
		cfg.RateLimit.PerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
}
