package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/mapmaker/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Boundary dataset the plots are drawn on.
	Boundary             domain.BoundaryRef
	BoundaryFetchEnabled bool
	BoundaryTimeout      time.Duration
	BoundaryCacheSize    int

	// Data file handling. FetchTimeout bounds downloads of data files given by URL.
	MaxUploadBytes   int64
	FetchTimeout     time.Duration
	DefaultEncoding  string
	DefaultDelimiter rune
}

// ReadDefaults returns the CSV options applied when a request leaves them empty.
func (c *Config) ReadDefaults() domain.ReadOptions {
	return domain.ReadOptions{Encoding: c.DefaultEncoding, Delimiter: c.DefaultDelimiter}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	boundaryTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("BOUNDARY_TIMEOUT", "10s"))
	if err != nil || boundaryTimeout <= 0 {
		return nil, errors.New("invalid BOUNDARY_TIMEOUT")
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	maxUpload, err := strconv.ParseInt(sharedcfg.EnvOrDefault("MAX_UPLOAD_BYTES", "33554432"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, errors.New("invalid MAX_UPLOAD_BYTES: must be a positive integer")
	}

	encoding := strings.ToLower(sharedcfg.EnvOrDefault("DEFAULT_ENCODING", domain.DefaultEncoding))
	if !slices.Contains(domain.Encodings, encoding) {
		return nil, fmt.Errorf("invalid DEFAULT_ENCODING: must be one of %s", strings.Join(domain.Encodings, ", "))
	}

	delimiter, err := domain.ParseDelimiter(sharedcfg.EnvOrDefault("DEFAULT_DELIMITER", "comma"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_DELIMITER: %w", err)
	}

	fetchEnabled := true
	if v := os.Getenv("BOUNDARY_FETCH_ENABLED"); v != "" {
		fetchEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Boundary: domain.BoundaryRef{
			URL:         sharedcfg.EnvOrDefault("BOUNDARY_URL", domain.DefaultBoundary.URL),
			Feature:     sharedcfg.EnvOrDefault("BOUNDARY_FEATURE", domain.DefaultBoundary.Feature),
			KeyProperty: sharedcfg.EnvOrDefault("BOUNDARY_KEY_PROPERTY", domain.DefaultBoundary.KeyProperty),
		},
		BoundaryFetchEnabled: fetchEnabled,
		BoundaryTimeout:      boundaryTimeout,
		BoundaryCacheSize:    parseBoundaryCacheSize(),

		MaxUploadBytes:   maxUpload,
		FetchTimeout:     fetchTimeout,
		DefaultEncoding:  encoding,
		DefaultDelimiter: delimiter,
	}

	return cfg, nil
}

func parseBoundaryCacheSize() int {
	if s := os.Getenv("BOUNDARY_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 4
}
