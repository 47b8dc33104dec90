package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEndpoint      = "https://api.click.uz/v2/merchant/"
	defaultServiceName   = "default"
	defaultPaymentsTable = "payments"
	defaultSessionHeader = "Auth"
)

// Service is one named set of Click credentials.
type Service struct {
	MerchantID string
	ServiceID  string
	UserID     string
	SecretKey  string
}

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	ClickEndpoint       string
	ClickDefaultService string
	ClickServices       map[string]Service
	// ClickServiceOrder keeps the declaration order of CLICK_SERVICES.
	ClickServiceOrder []string

	PaymentsTable string

	SessionHeader string
	SessionToken  string
	SessionAccess []string

	// InternalSecretKey lets trusted callers use the internal rate tier.
	InternalSecretKey string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    envOr("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),

		ClickEndpoint:       envOr("CLICK_API_ENDPOINT", defaultEndpoint),
		ClickDefaultService: envOr("CLICK_DEFAULT_SERVICE", defaultServiceName),

		PaymentsTable: envOr("CLICK_PAYMENTS_TABLE", defaultPaymentsTable),

		SessionHeader: envOr("CLICK_SESSION_AUTH_HEADER", defaultSessionHeader),
		SessionToken:  os.Getenv("CLICK_SESSION_TOKEN"),
		SessionAccess: splitList(envOr("CLICK_SESSION_ACCESS", "/prepare,/complete")),

		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
	}

	cfg.ClickServiceOrder = splitList(envOr("CLICK_SERVICES", defaultServiceName))
	cfg.ClickServices = make(map[string]Service, len(cfg.ClickServiceOrder))
	for _, name := range cfg.ClickServiceOrder {
		cfg.ClickServices[name] = loadService(name)
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// DefaultServiceKey returns the configured default when it exists,
// otherwise the first declared service. Empty when nothing is configured.
func (c *Config) DefaultServiceKey() string {
	if _, ok := c.ClickServices[c.ClickDefaultService]; ok {
		return c.ClickDefaultService
	}
	if len(c.ClickServiceOrder) > 0 {
		return c.ClickServiceOrder[0]
	}
	return ""
}

// loadService reads CLICK_<NAME>_* variables. The "default" service also
// accepts the unprefixed CLICK_* variables.
func loadService(name string) Service {
	prefix := "CLICK_" + strings.ToUpper(name) + "_"
	get := func(key string) string {
		if v := os.Getenv(prefix + key); v != "" {
			return v
		}
		if name == defaultServiceName {
			return os.Getenv("CLICK_" + key)
		}
		return ""
	}

	return Service{
		MerchantID: get("MERCHANT_ID"),
		ServiceID:  get("SERVICE_ID"),
		UserID:     get("USER_ID"),
		SecretKey:  get("SECRET_KEY"),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
