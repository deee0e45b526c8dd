package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"school/api/internal/security"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	// SecretKey signs password-reset tokens. Rotating it invalidates
	// every outstanding reset link.
	SecretKey        string
	SessionTTL       time.Duration
	RememberTTL      time.Duration
	ResetTokenMaxAge time.Duration
	PasswordPolicy   string
	CookieName       string
	CookieSecure     bool
}

// BootstrapConfig describes the seeded Director account guaranteed to
// exist after startup.
type BootstrapConfig struct {
	Email    string
	Name     string
	Password string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Bootstrap        BootstrapConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SCHOOL")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if _, err := security.ParsePasswordPolicy(cfg.Security.PasswordPolicy); err != nil {
		return nil, fmt.Errorf("security.passwordpolicy: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.secretkey", "dev-secret-key-change-me")
	v.SetDefault("security.sessionttl", "12h")
	v.SetDefault("security.rememberttl", "168h") // 7 days
	v.SetDefault("security.resettokenmaxage", "1h")
	v.SetDefault("security.passwordpolicy", "pin6")
	v.SetDefault("security.cookiename", "school_session")
	v.SetDefault("security.cookiesecure", false)

	v.SetDefault("bootstrap.email", "diretoria@school.com")
	v.SetDefault("bootstrap.name", "Diretoria")
	v.SetDefault("bootstrap.password", "123456")
}
