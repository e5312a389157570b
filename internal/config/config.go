package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything read from the environment at startup.
// Gateway secrets are mandatory: a portal that cannot verify callbacks
// must not start.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DBDSN string

	JWTSecret []byte
	JWTTTL    time.Duration

	SessionCookieName string
	SessionTTL        time.Duration
	SessionSecure     bool

	// Prix du droit d'acces, en FCFA par hectare.
	AccessRightUnitPrice int64

	CinetPay CinetPayConfig
	Wave     WaveConfig

	RedisAddr string

	KafkaBrokers []string
	KafkaTopic   string
}

type CinetPayConfig struct {
	BaseURL       string
	APIKey        string
	SiteID        string
	WebhookSecret string
}

type WaveConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

func Load() (Config, error) {
	cfg := Config{
		Env:               envOr("APP_ENV", "development"),
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		BaseURL:           envOr("BASE_URL", "http://localhost:8080"),
		DBDSN:             os.Getenv("DB_DSN"),
		SessionCookieName: envOr("SESSION_COOKIE", "agricapital_session"),
		SessionTTL:        durOr("SESSION_TTL", 24*time.Hour),
		JWTTTL:            durOr("JWT_TTL", 72*time.Hour),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		KafkaTopic:        envOr("KAFKA_TOPIC", "paiements.valides"),
	}
	cfg.SessionSecure = cfg.Env == "production"

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWTSecret = []byte(secret)

	price, err := strconv.ParseInt(envOr("ACCESS_RIGHT_UNIT_PRICE", "75000"), 10, 64)
	if err != nil || price <= 0 {
		return Config{}, fmt.Errorf("ACCESS_RIGHT_UNIT_PRICE invalid")
	}
	cfg.AccessRightUnitPrice = price

	cfg.CinetPay = CinetPayConfig{
		BaseURL:       envOr("CINETPAY_BASE_URL", "https://api-checkout.cinetpay.com"),
		APIKey:        os.Getenv("CINETPAY_API_KEY"),
		SiteID:        os.Getenv("CINETPAY_SITE_ID"),
		WebhookSecret: os.Getenv("CINETPAY_SECRET_KEY"),
	}
	if cfg.CinetPay.APIKey == "" || cfg.CinetPay.SiteID == "" || cfg.CinetPay.WebhookSecret == "" {
		return Config{}, fmt.Errorf("CinetPay config missing: CINETPAY_API_KEY, CINETPAY_SITE_ID, CINETPAY_SECRET_KEY required")
	}

	cfg.Wave = WaveConfig{
		BaseURL:       envOr("WAVE_BASE_URL", "https://api.wave.com"),
		APIKey:        os.Getenv("WAVE_API_KEY"),
		WebhookSecret: os.Getenv("WAVE_WEBHOOK_SECRET"),
	}
	if cfg.Wave.APIKey == "" || cfg.Wave.WebhookSecret == "" {
		return Config{}, fmt.Errorf("Wave config missing: WAVE_API_KEY, WAVE_WEBHOOK_SECRET required")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durOr(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
