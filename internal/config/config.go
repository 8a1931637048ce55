package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress            string
	DatabaseURI           string
	BackendAddress        string
	RedisAddress          string
	KafkaBrokers          []string
	KafkaTopic            string
	EventBufferSize       int
	CheckoutKey           string
	CheckoutScriptURL     string
	DefaultCurrency       string
	MerchantName          string
	OrdersRedirectURL     string
	FreeEnrollRedirectURL string
	StatusPollInterval    time.Duration
	StatusPollTimeout     time.Duration
	SessionTTL            time.Duration
	ShutdownTimeout       time.Duration
	TeardownDelays        []time.Duration
	LogLevel              string
}

const (
	defaultRunAddress        = ":8080"
	defaultRedisAddress      = "localhost:6379"
	defaultKafkaTopic        = "checkout.outcomes"
	defaultEventBufferSize   = 256
	defaultCheckoutScriptURL = "https://checkout.razorpay.com/v1/checkout.js"
	defaultCurrency          = "INR"
	defaultMerchantName      = "Course Checkout"
	defaultOrdersRedirect    = "/my-orders"
	defaultFreeEnrollURL     = "/enrollment/success"
	defaultStatusPoll        = 3 * time.Second
	defaultStatusPollTimeout = 10 * time.Minute
	defaultSessionTTL        = 30 * time.Minute
	defaultShutdownTimeout   = 10 * time.Second
	defaultTeardownDelays    = "300ms,1s"
	defaultLogLevel          = "info"
)

// Load parses configuration from .env, environment variables and flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		BackendAddress:        getString(lookup, "BACKEND_ADDRESS", ""),
		RedisAddress:          getString(lookup, "REDIS_ADDRESS", defaultRedisAddress),
		KafkaBrokers:          splitCSV(getString(lookup, "KAFKA_BROKERS", "")),
		KafkaTopic:            getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		EventBufferSize:       getInt(lookup, "EVENT_BUFFER_SIZE", defaultEventBufferSize),
		CheckoutKey:           getString(lookup, "CHECKOUT_KEY", ""),
		CheckoutScriptURL:     getString(lookup, "CHECKOUT_SCRIPT_URL", defaultCheckoutScriptURL),
		DefaultCurrency:       getString(lookup, "DEFAULT_CURRENCY", defaultCurrency),
		MerchantName:          getString(lookup, "MERCHANT_NAME", defaultMerchantName),
		OrdersRedirectURL:     getString(lookup, "ORDERS_REDIRECT_URL", defaultOrdersRedirect),
		FreeEnrollRedirectURL: getString(lookup, "FREE_ENROLL_REDIRECT_URL", defaultFreeEnrollURL),
		StatusPollInterval:    getDuration(lookup, "STATUS_POLL_INTERVAL", defaultStatusPoll),
		StatusPollTimeout:     getDuration(lookup, "STATUS_POLL_TIMEOUT", defaultStatusPollTimeout),
		SessionTTL:            getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("checkoutd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.StatusPollInterval.String()
		pollTimeoutStr     = cfg.StatusPollTimeout.String()
		sessionTTLStr      = cfg.SessionTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		teardownDelaysStr  = getString(lookup, "TEARDOWN_DELAYS", defaultTeardownDelays)
		kafkaBrokersStr    = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.BackendAddress, "b", cfg.BackendAddress, "Course backend base URL")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for widget state")
	fs.StringVar(&kafkaBrokersStr, "kafka", kafkaBrokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.CheckoutKey, "checkout-key", cfg.CheckoutKey, "Public key of the checkout widget")
	fs.StringVar(&cfg.CheckoutScriptURL, "checkout-script", cfg.CheckoutScriptURL, "Checkout script URL")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between order status polls")
	fs.StringVar(&pollTimeoutStr, "poll-timeout", pollTimeoutStr, "Maximum time to wait for payment confirmation")
	fs.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "How long finished sessions stay queryable")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&teardownDelaysStr, "teardown-delays", teardownDelaysStr, "Delays of repeated widget cleanup")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.StatusPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.StatusPollTimeout, err = time.ParseDuration(pollTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid poll timeout: %w", err)
	}

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.TeardownDelays, err = parseDurations(teardownDelaysStr); err != nil {
		return nil, fmt.Errorf("invalid teardown delays: %w", err)
	}

	cfg.KafkaBrokers = splitCSV(kafkaBrokersStr)

	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = defaultEventBufferSize
	}

	if cfg.StatusPollInterval <= 0 {
		cfg.StatusPollInterval = defaultStatusPoll
	}

	if cfg.StatusPollTimeout <= 0 {
		cfg.StatusPollTimeout = defaultStatusPollTimeout
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.BackendAddress == "" {
		return nil, fmt.Errorf("backend address must be provided")
	}

	if cfg.CheckoutKey == "" {
		return nil, fmt.Errorf("checkout key must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseDurations(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitCSV(s) {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative delay %s", part)
		}
		out = append(out, d)
	}
	return out, nil
}
