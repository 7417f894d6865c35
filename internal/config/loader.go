package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables and the optional
// vocabulary file. It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	vocab, err := LoadVocabulary(cfg.Export.VocabFile)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.Vocab = vocab

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// loadStruct fills every field tagged with env from the environment,
// descending into nested sections. The first non-empty variable among env
// and envAlt wins; the default tag applies when both are unset.
func loadStruct(v reflect.Value) error {
	for i := 0; i < v.NumField(); i++ {
		field, sf := v.Field(i), v.Type().Field(i)
		if !field.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct && sf.Type != timeType {
			if err := loadStruct(field); err != nil {
				return err
			}
			continue
		}

		name, ok := sf.Tag.Lookup("env")
		if !ok {
			continue
		}
		raw := firstEnv(name, sf.Tag.Get("envAlt"))
		if raw == "" {
			if sf.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := decode(field, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if val := strings.TrimSpace(os.Getenv(n)); val != "" {
			return val
		}
	}
	return ""
}

// decode parses raw into field. Lists are comma-separated.
func decode(field reflect.Value, raw string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil

	case field.Kind() == reflect.String:
		field.SetString(raw)
		return nil

	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
		return nil

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
		return nil

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
		return nil
	}
	return fmt.Errorf("unsupported field type %s", field.Type())
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Store validation
	switch strings.ToLower(c.Store.Driver) {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, "SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
		if c.Store.InsertBatchSize <= 0 {
			errs = append(errs, "SQLITE_INSERT_BATCH_SIZE must be positive")
		}
	case DriverPostgres:
		if c.Store.URL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_DRIVER is postgres")
		}
		if c.Store.MaxConns < c.Store.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Store.MaxConns, c.Store.MinConns))
		}
		if c.Store.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Store.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: sqlite, postgres", c.Store.Driver))
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if c.Upload.Timeout <= 0 {
		errs = append(errs, "UPLOAD_TIMEOUT must be positive")
	}
	if c.Upload.ResultRetention < 0 {
		errs = append(errs, "UPLOAD_RESULT_RETENTION must be non-negative")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Export validation
	if c.Export.Concurrency <= 0 {
		errs = append(errs, "EXPORT_CONCURRENCY must be positive")
	}
	if c.Export.HistoryLimit <= 0 {
		errs = append(errs, "HISTORY_LIMIT must be positive")
	}
	if c.Export.RawPageSize <= 0 {
		errs = append(errs, "RAW_PAGE_SIZE must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	if c.Store.Driver == DriverPostgres {
		b.WriteString(fmt.Sprintf("Store: {Driver: %q, URL: [MASKED], MaxConns: %d}, ",
			c.Store.Driver, c.Store.MaxConns))
	} else {
		b.WriteString(fmt.Sprintf("Store: {Driver: %q, Path: %q}, ", c.Store.Driver, c.Store.Path))
	}
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxWaitTime: %s, Timeout: %s}, ",
		c.Upload.MaxFileSize, c.Upload.MaxWaitTime, c.Upload.Timeout))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Export: {Concurrency: %d, VocabFile: %q}, ",
		c.Export.Concurrency, c.Export.VocabFile))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
