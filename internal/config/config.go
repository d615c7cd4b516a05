package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Widget    WidgetConfig    `mapstructure:"widget"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	Profile   ProfileConfig   `mapstructure:"profile"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// BackendConfig points at the hostel REST service that owns all data.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WidgetConfig struct {
	GreetingDelay time.Duration `mapstructure:"greeting_delay"`
	GreetingTTL   time.Duration `mapstructure:"greeting_ttl"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
	FallbackReply string        `mapstructure:"fallback_reply"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type ProfileConfig struct {
	MaxPictureBytes int64 `mapstructure:"max_picture_bytes"`
}

// StorageConfig locates the local key/value record used by the chat CLI.
type StorageConfig struct {
	LocalFile  string `mapstructure:"local_file"`
	SessionKey string `mapstructure:"session_key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("backend.base_url", "http://localhost:5000/api")
	v.SetDefault("backend.timeout", 30*time.Second)

	v.SetDefault("widget.greeting_delay", 2*time.Second)
	v.SetDefault("widget.greeting_ttl", 10*time.Second)
	v.SetDefault("widget.send_timeout", 30*time.Second)
	v.SetDefault("widget.fallback_reply", "Sorry, I'm having trouble connecting right now. Please try again in a moment.")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{"Content-Length"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 43200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.cleanup_interval", time.Minute)

	v.SetDefault("profile.max_picture_bytes", 5<<20)

	v.SetDefault("storage.local_file", "./data/local_store.json")
	v.SetDefault("storage.session_key", "user")
}


// Load reads the YAML file at configPath (a missing file is not an error)
// and overlays HOSTEL_* environment variables, e.g. HOSTEL_BACKEND_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HOSTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Widget.GreetingDelay < 0 || c.Widget.GreetingTTL < 0 {
		return errors.New("widget greeting durations must not be negative")
	}
	if strings.TrimSpace(c.Widget.FallbackReply) == "" {
		return errors.New("widget.fallback_reply must not be empty")
	}
	return nil
}
