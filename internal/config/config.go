package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// Config defines configuration for a migration run.
type Config struct {
	MongoURI        string `yaml:"mongo_uri"`
	Database        string `yaml:"database"`
	Collection      string `yaml:"collection"`
	Bucket          string `yaml:"bucket"`
	CredentialsJSON string `yaml:"gcs_credentials_json"`
	ObjectPrefix    string `yaml:"object_prefix"`

	PageSize        int           `yaml:"page_size"`
	Concurrency     int           `yaml:"concurrency"`
	CommitBatchSize int           `yaml:"commit_batch_size"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	BatchPause      time.Duration `yaml:"batch_pause"`
	SubBatchPause   time.Duration `yaml:"sub_batch_pause"`
	WritePause      time.Duration `yaml:"write_pause"`
	MaxBodySize     int64         `yaml:"max_body_size"`
	UserAgent       string        `yaml:"user_agent"`

	Fields Fields `yaml:"fields"`
}

// Fields names the document fields the records are read from.
type Fields struct {
	Owner       string `yaml:"owner"`
	Media       string `yaml:"media"`
	URL         string `yaml:"url"`
	Kind        string `yaml:"kind"`
	DefaultKind string `yaml:"default_kind"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		PageSize:        500,
		Concurrency:     10,
		CommitBatchSize: 50,
		RequestTimeout:  30 * time.Second,
		MaxRetries:      3,
		RetryDelay:      2 * time.Second,
		BatchPause:      2 * time.Second,
		SubBatchPause:   500 * time.Millisecond,
		WritePause:      100 * time.Millisecond,
		MaxBodySize:     50 * 1024 * 1024, // 50MB
		UserAgent:       "imgupload",
		Fields: Fields{
			Owner: "productId",
			Media: "media",
			URL:   "medium",
			Kind:  "type",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	MongoURI        string `yaml:"mongo_uri"`
	Database        string `yaml:"database"`
	Collection      string `yaml:"collection"`
	Bucket          string `yaml:"bucket"`
	CredentialsJSON string `yaml:"gcs_credentials_json"`
	ObjectPrefix    string `yaml:"object_prefix"`

	PageSize        int    `yaml:"page_size"`
	Concurrency     int    `yaml:"concurrency"`
	CommitBatchSize int    `yaml:"commit_batch_size"`
	RequestTimeout  string `yaml:"request_timeout"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryDelay      string `yaml:"retry_delay"`
	BatchPause      string `yaml:"batch_pause"`
	SubBatchPause   string `yaml:"sub_batch_pause"`
	WritePause      string `yaml:"write_pause"`
	MaxBodySize     string `yaml:"max_body_size"`
	UserAgent       string `yaml:"user_agent"`

	Fields Fields `yaml:"fields"`
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default().Merge(Config{
		MongoURI:        yc.MongoURI,
		Database:        yc.Database,
		Collection:      yc.Collection,
		Bucket:          yc.Bucket,
		CredentialsJSON: yc.CredentialsJSON,
		ObjectPrefix:    yc.ObjectPrefix,
		PageSize:        yc.PageSize,
		Concurrency:     yc.Concurrency,
		CommitBatchSize: yc.CommitBatchSize,
		MaxRetries:      yc.MaxRetries,
		UserAgent:       yc.UserAgent,
		Fields:          yc.Fields,
	})

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"request_timeout", yc.RequestTimeout, &cfg.RequestTimeout},
		{"retry_delay", yc.RetryDelay, &cfg.RetryDelay},
		{"batch_pause", yc.BatchPause, &cfg.BatchPause},
		{"sub_batch_pause", yc.SubBatchPause, &cfg.SubBatchPause},
		{"write_pause", yc.WritePause, &cfg.WritePause},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := ParseDuration(d.value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if yc.MaxBodySize != "" {
		size, err := progress.ParseBytes(yc.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("parse max_body_size: %w", err)
		}
		cfg.MaxBodySize = size
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	strs := []struct {
		env string
		dst *string
	}{
		{"MONGO_URI", &c.MongoURI},
		{"DB_NAME", &c.Database},
		{"COLLECTION_NAME", &c.Collection},
		{"BUCKET_NAME", &c.Bucket},
		{"GCS_CREDENTIALS_JSON", &c.CredentialsJSON},
		{"OBJECT_PREFIX", &c.ObjectPrefix},
		{"USER_AGENT", &c.UserAgent},
		{"OWNER_FIELD", &c.Fields.Owner},
		{"MEDIA_FIELD", &c.Fields.Media},
		{"URL_FIELD", &c.Fields.URL},
		{"KIND_FIELD", &c.Fields.Kind},
		{"DEFAULT_KIND", &c.Fields.DefaultKind},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"BATCH_SIZE", &c.PageSize},
		{"MAX_CONCURRENT_DOWNLOADS", &c.Concurrency},
		{"UPLOAD_BATCH_SIZE", &c.CommitBatchSize},
		{"MAX_RETRIES", &c.MaxRetries},
	}
	for _, i := range ints {
		if v := os.Getenv(i.env); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("parse %s: %w", i.env, err)
			}
			*i.dst = n
		}
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", &c.RequestTimeout},
		{"RETRY_DELAY", &c.RetryDelay},
		{"BATCH_PAUSE", &c.BatchPause},
		{"UPLOAD_BATCH_PAUSE", &c.SubBatchPause},
		{"UPLOAD_DELAY", &c.WritePause},
	}
	for _, d := range durations {
		if v := os.Getenv(d.env); v != "" {
			dur, err := ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", d.env, err)
			}
			*d.dst = dur
		}
	}

	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse MAX_BODY_SIZE: %w", err)
		}
		c.MaxBodySize = size
	}

	return nil
}

// ParseDuration parses a Go duration ("1m30s") or a number of seconds ("30",
// "0.5").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// UsesGCSName reports whether Bucket is a bare GCS bucket name rather than a
// bucket URL such as gs://name or s3://name.
func (c *Config) UsesGCSName() bool {
	return c.Bucket != "" && !strings.Contains(c.Bucket, "://")
}

// Validate validates the configuration. Missing required keys are reported
// together in a *MissingKeysError before any value is range-checked.
func (c *Config) Validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.Database == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Collection == "" {
		missing = append(missing, "COLLECTION_NAME")
	}
	if c.Bucket == "" {
		missing = append(missing, "BUCKET_NAME")
	}
	if c.UsesGCSName() && c.CredentialsJSON == "" {
		missing = append(missing, "GCS_CREDENTIALS_JSON")
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}

	switch {
	case c.PageSize <= 0:
		return ErrInvalidPageSize
	case c.Concurrency <= 0:
		return ErrInvalidConcurrency
	case c.CommitBatchSize <= 0:
		return ErrInvalidCommitBatchSize
	case c.RequestTimeout <= 0:
		return ErrInvalidTimeout
	case c.MaxRetries < 1:
		return ErrInvalidRetries
	case c.RetryDelay < 0, c.BatchPause < 0, c.SubBatchPause < 0, c.WritePause < 0:
		return ErrInvalidPause
	case c.MaxBodySize < 0:
		return ErrInvalidBodySize
	}

	if c.CredentialsJSON != "" {
		if err := checkCredentials(c.CredentialsJSON); err != nil {
			return err
		}
	}

	return nil
}

// checkCredentials verifies the credentials look like a Google key file.
func checkCredentials(raw string) error {
	var key struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if key.Type == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// IsConfigError reports whether err is a validation error from this package.
func IsConfigError(err error) bool {
	var mk *MissingKeysError
	if errors.As(err, &mk) {
		return true
	}
	for _, sentinel := range []error{
		ErrInvalidPageSize,
		ErrInvalidConcurrency,
		ErrInvalidCommitBatchSize,
		ErrInvalidTimeout,
		ErrInvalidRetries,
		ErrInvalidPause,
		ErrInvalidBodySize,
		ErrInvalidCredentials,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.MongoURI != "" {
		c.MongoURI = override.MongoURI
	}
	if override.Database != "" {
		c.Database = override.Database
	}
	if override.Collection != "" {
		c.Collection = override.Collection
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.CredentialsJSON != "" {
		c.CredentialsJSON = override.CredentialsJSON
	}
	if override.ObjectPrefix != "" {
		c.ObjectPrefix = override.ObjectPrefix
	}
	if override.PageSize != 0 {
		c.PageSize = override.PageSize
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.CommitBatchSize != 0 {
		c.CommitBatchSize = override.CommitBatchSize
	}
	if override.RequestTimeout != 0 {
		c.RequestTimeout = override.RequestTimeout
	}
	if override.MaxRetries != 0 {
		c.MaxRetries = override.MaxRetries
	}
	if override.RetryDelay != 0 {
		c.RetryDelay = override.RetryDelay
	}
	if override.BatchPause != 0 {
		c.BatchPause = override.BatchPause
	}
	if override.SubBatchPause != 0 {
		c.SubBatchPause = override.SubBatchPause
	}
	if override.WritePause != 0 {
		c.WritePause = override.WritePause
	}
	if override.MaxBodySize != 0 {
		c.MaxBodySize = override.MaxBodySize
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.Fields.Owner != "" {
		c.Fields.Owner = override.Fields.Owner
	}
	if override.Fields.Media != "" {
		c.Fields.Media = override.Fields.Media
	}
	if override.Fields.URL != "" {
		c.Fields.URL = override.Fields.URL
	}
	if override.Fields.Kind != "" {
		c.Fields.Kind = override.Fields.Kind
	}
	if override.Fields.DefaultKind != "" {
		c.Fields.DefaultKind = override.Fields.DefaultKind
	}
	return c
}

// LogValue renders the settings for logging. Credentials are never included;
// the Mongo URI is logged under a key the secure log handler masks.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mongo_uri", c.MongoURI),
		slog.String("database", c.Database),
		slog.String("collection", c.Collection),
		slog.String("bucket", c.Bucket),
		slog.String("object_prefix", c.ObjectPrefix),
		slog.Int("page_size", c.PageSize),
		slog.Int("concurrency", c.Concurrency),
		slog.Int("commit_batch_size", c.CommitBatchSize),
		slog.Duration("request_timeout", c.RequestTimeout),
		slog.Int("max_retries", c.MaxRetries),
		slog.Duration("retry_delay", c.RetryDelay),
		slog.Duration("batch_pause", c.BatchPause),
	)
}
