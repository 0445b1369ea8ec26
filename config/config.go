package config

import (
	"os"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	YooMoney  YooMoneyConfig
	Reconcile ReconcileConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver string // "sqlite" or "mysql"
	DSN    string
}

type YooMoneyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Receiver     string // wallet number the quickpay form pays into
	SeedToken    string // optional pre-issued bearer token written to settings at boot
}

type ReconcileConfig struct {
	Interval      time.Duration
	PendingMaxAge time.Duration // 0 = pending records never expire
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "3000"),
			Env:          getenv("ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: getenv("DB_DRIVER", "sqlite"),
			DSN:    getenv("DB_DSN", "tipjar.db"),
		},
		YooMoney: YooMoneyConfig{
			ClientID:     os.Getenv("YOOMONEY_CLIENT_ID"),
			ClientSecret: os.Getenv("YOOMONEY_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("YOOMONEY_REDIRECT_URI"),
			Receiver:     os.Getenv("YOOMONEY_RECEIVER"),
			SeedToken:    os.Getenv("YOOMONEY_TOKEN"),
		},
		Reconcile: ReconcileConfig{
			Interval:      getdur("RECONCILE_INTERVAL", 10*time.Second),
			PendingMaxAge: getdur("PENDING_MAX_AGE", 0),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
