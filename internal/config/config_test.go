package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/jobs")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, "9093", cfg.GRPCPort)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, MailRedis, cfg.MailTransport)
	assert.Equal(t, "queue:mail", cfg.MailQueue)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "@every 15m", cfg.DeadlineSweepSpec)
	assert.Equal(t, 50.0, cfg.RateLimitRPS)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("MAIL_TRANSPORT", " SMTP ")
	t.Setenv("SMTP_ADDR", "smtp.example.com:587")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("DEADLINE_SWEEP_SPEC", "*/5 * * * *")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, MailSMTP, cfg.MailTransport)
	assert.Equal(t, "smtp.example.com:587", cfg.SMTPAddr)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "*/5 * * * *", cfg.DeadlineSweepSpec)
	assert.Zero(t, cfg.RateLimitRPS)
}

func TestLoad_FailsFast(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": "", "REDIS_URL": "redis://x"}, "DATABASE_URL is required"},
		{"missing redis", map[string]string{"REDIS_URL": ""}, "REDIS_URL is required"},
		{"unknown transport", map[string]string{"MAIL_TRANSPORT": "pigeon"}, "MAIL_TRANSPORT must be one of"},
		{"smtp without addr", map[string]string{"MAIL_TRANSPORT": "smtp"}, "SMTP_ADDR is required"},
		{"zero timeout", map[string]string{"NOTIFY_TIMEOUT": "0s"}, "NOTIFY_TIMEOUT must be positive"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lifecycle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL: postgres://file/db\nREDIS_URL: redis://file:6379\nHTTP_PORT: \"7000\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
	assert.Equal(t, "7100", cfg.HTTPPort, "environment wins over the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
