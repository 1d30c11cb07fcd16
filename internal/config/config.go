package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mbeoliero/xchange/pkg/constant"
)

// EnvPrefix prefixes every environment override, e.g. XCHANGE_API_BASE_URL
const EnvPrefix = "XCHANGE"

// Config holds all configuration
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
	Notification NotificationConfig `mapstructure:"notification"`
	Session      SessionConfig      `mapstructure:"session"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Exchange     ExchangeConfig     `mapstructure:"exchange"`
}

// APIConfig holds the backend HTTP API settings
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RealtimeConfig holds the realtime channel settings
type RealtimeConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	MaxMessageSize   int64         `mapstructure:"max_message_size"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
	WriteChannelSize int           `mapstructure:"write_channel_size"`
}

// NotificationConfig holds the pending request counter settings
type NotificationConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	TriggerEvents []string      `mapstructure:"trigger_events"`
}

// SessionConfig selects where the session token is persisted
type SessionConfig struct {
	Store    string `mapstructure:"store"`
	FilePath string `mapstructure:"file_path"`
	Profile  string `mapstructure:"profile"`
}

const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExchangeConfig holds the daily window in which booth meetings can be booked
type ExchangeConfig struct {
	OpenTime  string `mapstructure:"open_time"`
	CloseTime string `mapstructure:"close_time"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.dial_timeout", 10*time.Second)
	v.SetDefault("api.read_timeout", 30*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)

	v.SetDefault("realtime.url", "ws://localhost:5000/ws")
	v.SetDefault("realtime.handshake_timeout", 10*time.Second)
	v.SetDefault("realtime.max_message_size", 51200)
	v.SetDefault("realtime.write_wait", 10*time.Second)
	v.SetDefault("realtime.pong_wait", 60*time.Second)
	v.SetDefault("realtime.ping_period", 54*time.Second)
	v.SetDefault("realtime.write_channel_size", 256)

	v.SetDefault("notification.poll_interval", constant.DefaultPollTick)
	v.SetDefault("notification.trigger_events", []string{constant.EventConversationUpdated, constant.EventExchangeUpdated})

	v.SetDefault("session.store", SessionStoreFile)
	v.SetDefault("session.file_path", ".xchange/session")
	v.SetDefault("session.profile", "default")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "xchange:")

	v.SetDefault("exchange.open_time", "09:00")
	v.SetDefault("exchange.close_time", "20:00")
}

// Load loads configuration from an optional .env file, an optional YAML file and XCHANGE_* variables.
// An empty configPath runs on defaults and environment only.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Fix up values the file may have zeroed
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Realtime.PingPeriod <= 0 || cfg.Realtime.PingPeriod >= cfg.Realtime.PongWait {
		cfg.Realtime.PingPeriod = cfg.Realtime.PongWait * 9 / 10
	}
	if cfg.Realtime.WriteChannelSize <= 0 {
		cfg.Realtime.WriteChannelSize = 256
	}
	if cfg.Notification.PollInterval <= 0 {
		cfg.Notification.PollInterval = constant.DefaultPollTick
	}
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	switch cfg.Session.Store {
	case SessionStoreFile, SessionStoreRedis, SessionStoreMemory:
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
	if _, err := time.Parse(constant.ClockLayout, cfg.Exchange.OpenTime); err != nil {
		return nil, fmt.Errorf("invalid exchange.open_time %q: %w", cfg.Exchange.OpenTime, err)
	}
	if _, err := time.Parse(constant.ClockLayout, cfg.Exchange.CloseTime); err != nil {
		return nil, fmt.Errorf("invalid exchange.close_time %q: %w", cfg.Exchange.CloseTime, err)
	}
	if cfg.Exchange.CloseTime <= cfg.Exchange.OpenTime {
		return nil, fmt.Errorf("exchange.close_time %s must be after open_time %s", cfg.Exchange.CloseTime, cfg.Exchange.OpenTime)
	}

	return &cfg, nil
}
