// Package config loads and validates configuration at startup.
// Fail-fast: if a required value is missing, the process exits with an error.
//
// Values come from environment variables, optionally layered over a config
// file named by CONFIG_FILE (any format viper understands).
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Mail transports.
const (
	MailRedis = "redis"
	MailSMTP  = "smtp"
	MailLog   = "log"
)

// Config holds all runtime configuration for the lifecycle service.
type Config struct {
	Env         string
	HTTPPort    string
	GRPCPort    string
	DatabaseURL string
	RedisURL    string
	DBMaxConns  int32

	MailTransport string
	MailFrom      string
	MailQueue     string
	SMTPAddr      string
	SMTPUsername  string
	SMTPPassword  string
	NotifyTimeout time.Duration

	DeadlineSweepSpec string

	// Requests per second allowed on mutating HTTP routes; 0 disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// SetDefaults registers the default for every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8083")
	v.SetDefault("GRPC_PORT", "9093")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MAIL_TRANSPORT", MailRedis)
	v.SetDefault("MAIL_FROM", "no-reply@jobboard.local")
	v.SetDefault("MAIL_QUEUE", "queue:mail")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("DEADLINE_SWEEP_SPEC", "@every 15m")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
}

// Load reads the environment (and CONFIG_FILE, if set) and returns a
// validated Config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper builds a Config from an already populated viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:               v.GetString("APP_ENV"),
		HTTPPort:          v.GetString("HTTP_PORT"),
		GRPCPort:          v.GetString("GRPC_PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisURL:          v.GetString("REDIS_URL"),
		DBMaxConns:        v.GetInt32("DB_MAX_CONNS"),
		MailTransport:     strings.ToLower(strings.TrimSpace(v.GetString("MAIL_TRANSPORT"))),
		MailFrom:          v.GetString("MAIL_FROM"),
		MailQueue:         v.GetString("MAIL_QUEUE"),
		SMTPAddr:          v.GetString("SMTP_ADDR"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		NotifyTimeout:     v.GetDuration("NOTIFY_TIMEOUT"),
		DeadlineSweepSpec: v.GetString("DEADLINE_SWEEP_SPEC"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	switch c.MailTransport {
	case MailRedis, MailLog:
	case MailSMTP:
		if c.SMTPAddr == "" {
			return errors.New("SMTP_ADDR is required when MAIL_TRANSPORT=smtp")
		}
	default:
		return errors.Newf("MAIL_TRANSPORT must be one of redis, smtp, log (got %q)", c.MailTransport)
	}
	if c.NotifyTimeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be positive")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.RateLimitRPS < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}
