package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Broker   BrokerConfig   `koanf:"broker"`
	Speed    SpeedConfig    `koanf:"speed"`
	DB       DBConfig       `koanf:"db"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	Telegram TelegramConfig `koanf:"telegram"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Port string `koanf:"port"`
}

// BrokerConfig carries the connection bootstrap budgets. The producer's
// attempt count is near-unbounded on purpose: the ingest service also
// serves unrelated traffic and must stay up. A dedicated consumer that
// cannot reach the broker after its bounded budget exits non-zero so a
// supervisor can restart or alert.
type BrokerConfig struct {
	URL              string        `koanf:"url"`
	RetryDelay       time.Duration `koanf:"retry_delay"`
	ProducerAttempts uint64        `koanf:"producer_attempts"`
	ConsumerAttempts uint64        `koanf:"consumer_attempts"`
}

type SpeedConfig struct {
	LimitKmh float64 `koanf:"limit_kmh"`
}

type DBConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	MaxConns int32  `koanf:"max_conns"`
}

// RedisConfig is optional. An empty Addr disables both the Redis-backed
// session store and the Redis device-key lookup.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuthConfig struct {
	APIURL string `koanf:"api_url"`
}

type TelegramConfig struct {
	APIKey      string        `koanf:"api_key"`
	PollTimeout time.Duration `koanf:"poll_timeout"`
}

type IngestConfig struct {
	APIKeys      []string      `koanf:"api_keys"`
	AuthCacheTTL time.Duration `koanf:"auth_cache_ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{Port: "8001"},
		Broker: BrokerConfig{
			URL:              "nats://localhost:4222",
			RetryDelay:       5 * time.Second,
			ProducerAttempts: 1000,
			ConsumerAttempts: 10,
		},
		Speed: SpeedConfig{LimitKmh: 90},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "tracker_user",
			Password: "tracker_password",
			Name:     "vehicle_accounting",
			MaxConns: 15,
		},
		Redis: RedisConfig{Addr: "", Password: "", DB: 0},
		Auth:  AuthConfig{APIURL: "http://localhost:8081/api/"},
		Telegram: TelegramConfig{
			APIKey:      "",
			PollTimeout: 30 * time.Second,
		},
		Ingest: IngestConfig{
			APIKeys:      nil,
			AuthCacheTTL: 5 * time.Minute,
		},
		Log: LogConfig{Level: "info", Pretty: false},
	}
}

// Load reads configuration from defaults overridden by environment
// variables. A .env file is honored when present. Env names map onto the
// config tree by splitting on the first underscore: BROKER_RETRY_DELAY
// becomes broker.retry_delay.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(s), "_", ".", 1)
}

// envValue maps one environment variable onto the config tree. Values for
// slice-typed keys are comma-split; everything else passes through as a
// string for the unmarshal step to convert.
func envValue(key, value string) (string, any) {
	k := envKey(key)
	if k == "ingest.api_keys" {
		return k, strings.Split(value, ",")
	}
	return k, value
}
