// Package config loads daemon settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvLogLevel          = "HPP_LOG_LEVEL"
	EnvHTTPAddr          = "HPP_HTTP_ADDR"
	EnvDBDriver          = "HPP_DB_DRIVER"
	EnvDBDSN             = "HPP_DB_DSN"
	EnvCacheTTL          = "HPP_CACHE_TTL"
	EnvPriceScanEvery    = "HPP_PRICE_SCAN_EVERY"
	EnvCacheSweepEvery   = "HPP_CACHE_SWEEP_EVERY"
	EnvCostCheckEvery    = "HPP_COST_CHECK_EVERY"
	EnvRecalcConcurrency = "HPP_RECALC_CONCURRENCY"
	EnvAlertBatchSize    = "HPP_ALERT_BATCH_SIZE"
	EnvAlertBatchPause   = "HPP_ALERT_BATCH_PAUSE"
	EnvImpactHigh        = "HPP_IMPACT_HIGH"
	EnvImpactMedium      = "HPP_IMPACT_MEDIUM"
	EnvImpactRelative    = "HPP_IMPACT_RELATIVE"
	EnvCurrency          = "HPP_CURRENCY"
)

// Config holds daemon settings.
type Config struct {
	LogLevel string
	HTTPAddr string

	DBDriver string // "sqlite" or "postgres"
	DBDSN    string

	CacheTTL        time.Duration
	PriceScanEvery  time.Duration
	CacheSweepEvery time.Duration
	CostCheckEvery  time.Duration

	RecalcConcurrency int
	AlertBatchSize    int
	AlertBatchPause   time.Duration

	ImpactHigh     float64
	ImpactMedium   float64
	ImpactRelative bool

	Currency string

	// Warnings collects values that failed to parse and fell back to a
	// default. The caller logs them once a logger exists.
	Warnings []string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:          "normal",
		HTTPAddr:          ":8080",
		DBDriver:          "sqlite",
		DBDSN:             "hpp.db",
		CacheTTL:          24 * time.Hour,
		PriceScanEvery:    5 * time.Minute,
		CacheSweepEvery:   10 * time.Minute,
		CostCheckEvery:    15 * time.Minute,
		RecalcConcurrency: 4,
		AlertBatchSize:    10,
		AlertBatchPause:   time.Second,
		ImpactHigh:        1000,
		ImpactMedium:      500,
		Currency:          "IDR",
	}
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	// Missing .env is fine; production injects real env vars.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function so tests
// don't have to touch the process environment.
func FromLookup(lookup func(string) (string, bool)) Config {
	cfg := Default()
	p := parser{lookup: lookup, cfg: &cfg}

	p.str(EnvLogLevel, &cfg.LogLevel)
	p.str(EnvHTTPAddr, &cfg.HTTPAddr)
	p.str(EnvDBDriver, &cfg.DBDriver)
	p.str(EnvDBDSN, &cfg.DBDSN)
	p.duration(EnvCacheTTL, &cfg.CacheTTL)
	p.duration(EnvPriceScanEvery, &cfg.PriceScanEvery)
	p.duration(EnvCacheSweepEvery, &cfg.CacheSweepEvery)
	p.duration(EnvCostCheckEvery, &cfg.CostCheckEvery)
	p.integer(EnvRecalcConcurrency, &cfg.RecalcConcurrency)
	p.integer(EnvAlertBatchSize, &cfg.AlertBatchSize)
	p.duration(EnvAlertBatchPause, &cfg.AlertBatchPause)
	p.float(EnvImpactHigh, &cfg.ImpactHigh)
	p.float(EnvImpactMedium, &cfg.ImpactMedium)
	p.boolean(EnvImpactRelative, &cfg.ImpactRelative)
	p.str(EnvCurrency, &cfg.Currency)

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	return cfg
}

type parser struct {
	lookup func(string) (string, bool)
	cfg    *Config
}

func (p parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p parser) warn(key, value string) {
	p.cfg.Warnings = append(p.cfg.Warnings, key+"="+strconv.Quote(value)+" is invalid, using default")
}

func (p parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.warn(key, v)
		return
	}
	*dst = d
}

func (p parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.warn(key, v)
		return
	}
	*dst = n
}

func (p parser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.warn(key, v)
		return
	}
	*dst = f
}

func (p parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.warn(key, v)
		return
	}
	*dst = b
}
