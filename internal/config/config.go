package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	SessionSecret   string   `mapstructure:"SESSION_SECRET"`
	JWTSecretKey    string   `mapstructure:"JWT_SECRET_KEY"`
	TokenTTLMinutes int      `mapstructure:"TOKEN_TTL_MINUTES"`
	MailgunBaseURL  string   `mapstructure:"MAILGUN_BASE_URL"`
	MailgunDomain   string   `mapstructure:"MAILGUN_DOMAIN"`
	MailgunAPIKey   string   `mapstructure:"MAILGUN_API_KEY"`
	MailFrom        string   `mapstructure:"MAIL_FROM"`
	UploadDir       string   `mapstructure:"UPLOAD_DIR"`
	MaxUploadSize   string   `mapstructure:"MAX_UPLOAD_SIZE"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	AdminUsername   string   `mapstructure:"ADMIN_USERNAME"`
	AdminPassword   string   `mapstructure:"ADMIN_PASSWORD"`
	AdminEmail      string   `mapstructure:"ADMIN_EMAIL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL_MINUTES", 60)
	v.SetDefault("MAILGUN_BASE_URL", "https://api.mailgun.net")
	v.SetDefault("MAIL_FROM", "DermHub <no-reply@dermhub.app>")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", "8M")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"SESSION_SECRET", "JWT_SECRET_KEY", "TOKEN_TTL_MINUTES",
		"MAILGUN_BASE_URL", "MAILGUN_DOMAIN", "MAILGUN_API_KEY", "MAIL_FROM",
		"UPLOAD_DIR", "MAX_UPLOAD_SIZE", "CORS_ORIGINS",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_EMAIL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// MailConfigured reports whether an outbound email provider is set up.
// When false the server falls back to a no-op sender.
func (c *Config) MailConfigured() bool {
	return c.MailgunDomain != "" && c.MailgunAPIKey != ""
}
