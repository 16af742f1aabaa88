package config

import (
	"os"
	"strconv"
	"time"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/pkg/errors"
)

// Merge policies for repeated variant identifiers
const (
	MergePolicyMerge   = "merge"
	MergePolicyReplace = "replace"
)

// Config represents the application configuration
type Config struct {
	// Pipeline input and required outputs
	InputPath   string
	OutputPath  string
	FiltersPath string

	// URL canonicalization
	AffiliateTag   string
	TrackingParams []string

	// Reconciliation and extraction
	MergePolicy    string
	DefaultVoltage *float64
	// defaultVoltageRaw is DEFAULT_VOLTAGE as set, kept for Validate
	defaultVoltageRaw string

	// Optional export sinks, disabled when empty
	SQLitePath  string
	XLSXPath    string
	DatabaseURL string

	// Redis change feed, disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration, disabled when empty
	MemcacheAddr string
	CacheTTL     time.Duration

	// Prometheus textfile output, disabled when empty
	MetricsPath string

	// Repeat the batch on this interval; zero runs once
	RunInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "604800"))
	runInterval, _ := strconv.Atoi(getEnv("RUN_INTERVAL_SECONDS", "0"))

	return &Config{
		InputPath:            getEnv("INPUT_PATH", "public/data/amazon-query-result.json"),
		OutputPath:           getEnv("OUTPUT_PATH", "public/data/memory-cards.json"),
		FiltersPath:          getEnv("FILTERS_PATH", "public/data/product-filters.json"),
		AffiliateTag:         getEnv("AFFILIATE_TAG", "accentiofinde-20"),
		TrackingParams:       helpers.SplitList(getEnv("TRACKING_PARAMS", "dib,dib_tag"), ","),
		MergePolicy:          getEnv("MERGE_POLICY", MergePolicyMerge),
		DefaultVoltage:       parseOptionalFloat(os.Getenv("DEFAULT_VOLTAGE")),
		defaultVoltageRaw:    os.Getenv("DEFAULT_VOLTAGE"),
		SQLitePath:           os.Getenv("SQLITE_PATH"),
		XLSXPath:             os.Getenv("XLSX_PATH"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "catalog"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		CacheTTL:             time.Duration(cacheTTL) * time.Second,
		MetricsPath:          os.Getenv("METRICS_PATH"),
		RunInterval:          time.Duration(runInterval) * time.Second,
		Environment:          getEnv("CATALOG_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.NewConfiguration("INPUT_PATH must not be empty", nil)
	}
	if c.OutputPath == "" {
		return errors.NewConfiguration("OUTPUT_PATH must not be empty", nil)
	}
	if c.FiltersPath == "" {
		return errors.NewConfiguration("FILTERS_PATH must not be empty", nil)
	}
	if c.defaultVoltageRaw != "" && c.DefaultVoltage == nil {
		return errors.NewConfiguration("DEFAULT_VOLTAGE must be a number, got \""+c.defaultVoltageRaw+"\"", nil)
	}
	if c.DefaultVoltage != nil && *c.DefaultVoltage <= 0 {
		return errors.NewConfiguration("DEFAULT_VOLTAGE must be positive", nil)
	}
	if c.MergePolicy != MergePolicyMerge && c.MergePolicy != MergePolicyReplace {
		return errors.NewConfiguration("MERGE_POLICY must be \"merge\" or \"replace\", got \""+c.MergePolicy+"\"", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if c.RedisAddr != "" && c.CacheTTL <= 0 {
		return errors.NewConfiguration("CACHE_TTL_SECONDS must be positive", nil)
	}
	if c.RunInterval < 0 {
		return errors.NewConfiguration("RUN_INTERVAL_SECONDS must not be negative", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseOptionalFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
