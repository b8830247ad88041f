// Package config loads application configuration from the environment.
// Provider credentials are intentionally not validated here: a category with
// missing credentials fails at call time with a configuration error, so that
// properly configured categories keep working.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL string

	// Outbound pacing
	MinCallInterval time.Duration
	CooldownWindow  time.Duration
	ProviderTimeout time.Duration

	// Cache TTLs per category plus the long-lived place resolution tier.
	FlightCacheTTL time.Duration
	TrainCacheTTL  time.Duration
	BusCacheTTL    time.Duration
	HotelCacheTTL  time.Duration
	PlaceCacheTTL  time.Duration
	RedisCacheTTL  time.Duration

	// Flight + lodging provider family (OAuth client credentials).
	AmadeusBaseURL      string
	AmadeusClientID     string
	AmadeusClientSecret string

	// Rail provider (static key in headers).
	RailAPIKey  string
	RailAPIHost string

	// Bus provider (static key in headers).
	BusAPIKey  string
	BusAPIHost string

	// Secondary lodging provider (static key).
	StayAPIKey  string
	StayAPIHost string

	// Generative fallback model (OpenAI-compatible chat completions).
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		RedisURL: getEnv("REDIS_URL", ""),

		MinCallInterval: mustDuration(getEnv("PROVIDER_MIN_INTERVAL", "1100ms")),
		CooldownWindow:  mustDuration(getEnv("PROVIDER_COOLDOWN_WINDOW", "60s")),
		ProviderTimeout: mustDuration(getEnv("PROVIDER_TIMEOUT", "15s")),

		FlightCacheTTL: mustDuration(getEnv("FLIGHT_CACHE_TTL", "10m")),
		TrainCacheTTL:  mustDuration(getEnv("TRAIN_CACHE_TTL", "10m")),
		BusCacheTTL:    mustDuration(getEnv("BUS_CACHE_TTL", "10m")),
		HotelCacheTTL:  mustDuration(getEnv("HOTEL_CACHE_TTL", "30m")),
		PlaceCacheTTL:  mustDuration(getEnv("PLACE_CACHE_TTL", "24h")),
		RedisCacheTTL:  mustDuration(getEnv("REDIS_CACHE_TTL", "2h")),

		AmadeusBaseURL:      getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusClientID:     getEnv("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: getEnv("AMADEUS_CLIENT_SECRET", ""),

		RailAPIKey:  getEnv("RAIL_API_KEY", ""),
		RailAPIHost: getEnv("RAIL_API_HOST", "irctc1.p.rapidapi.com"),

		BusAPIKey:  getEnv("BUS_API_KEY", ""),
		BusAPIHost: getEnv("BUS_API_HOST", "redbus-api.p.rapidapi.com"),

		StayAPIKey:  getEnv("STAY_API_KEY", ""),
		StayAPIHost: getEnv("STAY_API_HOST", "booking-com15.p.rapidapi.com"),

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.moonshot.ai/v1"),
		LLMModel:   getEnv("LLM_MODEL", "kimi-k2-turbo-preview"),
	}

	if cfg.MinCallInterval <= 0 {
		return nil, fmt.Errorf("PROVIDER_MIN_INTERVAL must be a positive duration")
	}
	if cfg.CooldownWindow <= 0 {
		return nil, fmt.Errorf("PROVIDER_COOLDOWN_WINDOW must be a positive duration")
	}
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Module-scoped getters (principle of least privilege, per platform config)
// =============================================================================

func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool       { return c.RedisURL != "" }
func (c *Config) GetLLMAPIKey() string       { return c.LLMAPIKey }
func (c *Config) GetLLMBaseURL() string      { return c.LLMBaseURL }
func (c *Config) GetLLMModel() string        { return c.LLMModel }
func (c *Config) IsLLMEnabled() bool         { return c.LLMAPIKey != "" }
func (c *Config) GetAmadeusBaseURL() string  { return c.AmadeusBaseURL }
func (c *Config) GetAmadeusClientID() string { return c.AmadeusClientID }
func (c *Config) GetAmadeusClientSecret() string {
	return c.AmadeusClientSecret
}
func (c *Config) GetRailAPIKey() string  { return c.RailAPIKey }
func (c *Config) GetRailAPIHost() string { return c.RailAPIHost }
func (c *Config) GetBusAPIKey() string   { return c.BusAPIKey }
func (c *Config) GetBusAPIHost() string  { return c.BusAPIHost }
func (c *Config) GetStayAPIKey() string  { return c.StayAPIKey }
func (c *Config) GetStayAPIHost() string { return c.StayAPIHost }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
