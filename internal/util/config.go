package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAPIBaseURL  = "http://localhost:8000/api/v1"
	defaultHTTPTimeout = 30 * time.Second

	defaultCookieName = "hmis_session"
	defaultCookieTTL  = 168 * time.Hour

	defaultRateLimit     = 100
	defaultRateInterval  = 1 * time.Minute
	defaultRateBlockTime = 5 * time.Minute

	// DefaultTenant scopes requests when no tenant has been selected yet.
	DefaultTenant = "default"

	TokenPartsExpected = 2
	RawTokenLength     = 32
	JWTLeeWay          = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

// ClientConfig configures the API client that talks to the HMIS backend.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewClientConfig() *ClientConfig {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &ClientConfig{
		BaseURL: baseURL,
		Timeout: parseDurationOrDefault("HTTP_TIMEOUT", defaultHTTPTimeout),
	}
}

// GatewayConfig configures the cookie-terminating session gateway.
type GatewayConfig struct {
	BackendBaseURL string
	OpenAPISpec    string
	CookieName     string
	CookieTTL      time.Duration
	SecureCookies  bool
	MetricsAPIKey  string
	WebhookURL     string
}

func NewGatewayConfig() *GatewayConfig {
	backend := os.Getenv("BACKEND_BASE_URL")
	if backend == "" {
		backend = defaultAPIBaseURL
	}

	cookieName := os.Getenv("SESSION_COOKIE_NAME")
	if cookieName == "" {
		cookieName = defaultCookieName
	}

	return &GatewayConfig{
		BackendBaseURL: backend,
		OpenAPISpec:    os.Getenv("OPENAPI_SPEC"),
		CookieName:     cookieName,
		CookieTTL:      parseDurationOrDefault("SESSION_COOKIE_TTL", defaultCookieTTL),
		SecureCookies:  os.Getenv("SECURE_COOKIES") == "true",
		MetricsAPIKey:  os.Getenv("METRICS_API_KEY"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
	}
}

type RateLimiterConfig struct {
	Limit     int
	Interval  time.Duration
	BlockTime time.Duration
}

func NewRateLimiterConfig() *RateLimiterConfig {
	limitStr := os.Getenv("RATE_LIMIT_LIMIT")
	limit := defaultRateLimit
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		} else {
			log.Printf("Invalid RATE_LIMIT_LIMIT: %s, using default %d", limitStr, defaultRateLimit)
		}
	}

	interval := parseDurationOrDefault("RATE_LIMIT_INTERVAL", defaultRateInterval)
	blockTime := parseDurationOrDefault("RATE_LIMIT_BLOCK_TIME", defaultRateBlockTime)

	return &RateLimiterConfig{
		Limit:     limit,
		Interval:  interval,
		BlockTime: blockTime,
	}
}

// SessionFilePath returns where hmisctl persists its credentials.
func SessionFilePath() string {
	if p := os.Getenv("SESSION_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hmisctl-session.json"
	}
	return home + "/.config/hmisctl/session.json"
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
