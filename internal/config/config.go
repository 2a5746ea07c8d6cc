package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
)

// Config holds all runtime configuration for the crossbook server.
type Config struct {
	Port            int
	LogLevel        string
	PriceScale      int
	MatchInterval   time.Duration // 0 disables scheduled matching
	TradeHistory    int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Settlement      Settlement
}

// Settlement selects where executed trades are handed off.
type Settlement struct {
	Sink         string // none, journal, kafka, postgres or webhook
	JournalDir   string
	KafkaBrokers []string
	KafkaTopic   string
	DatabaseURL  string
	WebhookURL   string
	Timeout      time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	priceScale, err := getInt("PRICE_SCALE", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_SCALE: %w", err)
	}
	if priceScale < 0 || priceScale > domain.MaxPriceScale {
		return nil, fmt.Errorf("invalid PRICE_SCALE: %d, must be between 0 and %d", priceScale, domain.MaxPriceScale)
	}

	matchInterval, err := getDuration("MATCH_INTERVAL", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_INTERVAL: %w", err)
	}
	if matchInterval < 0 {
		return nil, fmt.Errorf("invalid MATCH_INTERVAL: %v, must not be negative", matchInterval)
	}

	tradeHistory, err := getInt("TRADE_HISTORY", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid TRADE_HISTORY: %w", err)
	}
	if tradeHistory < 0 {
		return nil, fmt.Errorf("invalid TRADE_HISTORY: %d, must not be negative", tradeHistory)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	settlement, err := loadSettlement()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		PriceScale:      priceScale,
		MatchInterval:   matchInterval,
		TradeHistory:    tradeHistory,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		Settlement:      settlement,
	}, nil
}

// loadSettlement reads the sink selection. Sink-specific variables are
// only required for the sink that is selected.
func loadSettlement() (Settlement, error) {
	timeout, err := getDuration("SINK_TIMEOUT", 5*time.Second)
	if err != nil {
		return Settlement{}, fmt.Errorf("invalid SINK_TIMEOUT: %w", err)
	}

	s := Settlement{
		Sink:         getStr("SETTLEMENT_SINK", "none"),
		JournalDir:   getStr("JOURNAL_DIR", "./data/journal"),
		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getStr("KAFKA_TOPIC", "trades"),
		DatabaseURL:  getStr("DATABASE_URL", ""),
		WebhookURL:   getStr("WEBHOOK_URL", ""),
		Timeout:      timeout,
	}

	switch s.Sink {
	case "none", "journal":
	case "kafka":
		if len(s.KafkaBrokers) == 0 {
			return Settlement{}, fmt.Errorf("KAFKA_BROKERS is required when SETTLEMENT_SINK=kafka")
		}
	case "postgres":
		if s.DatabaseURL == "" {
			return Settlement{}, fmt.Errorf("DATABASE_URL is required when SETTLEMENT_SINK=postgres")
		}
	case "webhook":
		parsed, err := url.ParseRequestURI(s.WebhookURL)
		if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return Settlement{}, fmt.Errorf("invalid WEBHOOK_URL: %q, must be an absolute http(s) URL", s.WebhookURL)
		}
	default:
		return Settlement{}, fmt.Errorf("invalid SETTLEMENT_SINK: %q, must be one of: none, journal, kafka, postgres, webhook", s.Sink)
	}
	return s, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getList splits a comma separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
