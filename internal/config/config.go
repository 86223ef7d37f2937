package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, falling back to defaults when it
// does not exist, then applies CAMPUS_* environment overrides.
func Load(configPath string) (*AppConfig, error) {
	return load(configPath, os.LookupEnv)
}

func load(configPath string, lookup func(string) (string, bool)) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	case len(bytes.TrimSpace(content)) > 0:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Mongo: MongoConfig{
			Host:     defaultMongoHost,
			Port:     defaultMongoPort,
			Database: defaultMongoDatabase,
			Timeout:  defaultMongoTimeout,
		},
		Storage: StorageConfig{
			Driver:      defaultStorageDriver,
			Bucket:      defaultBucket,
			ChunkSizeKB: defaultChunkSizeKB,
			MaxFileMB:   defaultMaxFileMB,
			MaxFiles:    defaultMaxFiles,
			S3:          S3Config{Prefix: defaultS3Prefix},
		},
		Logs: LogsConfig{
			Dir:          defaultLogsDir,
			RotateSizeMB: defaultRotateSizeMB,
			RotateKeep:   defaultRotateKeep,
		},
		Metrics: MetricsConfig{Path: defaultMetricsPath},
	}
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup(envMongoURI); ok && strings.TrimSpace(v) != "" {
		cfg.Mongo.URI = v
	}
	if v, ok := lookup(envRedisURL); ok && strings.TrimSpace(v) != "" {
		cfg.Redis.URL = v
	}
	if v, ok := lookup(envJWTSecret); ok && strings.TrimSpace(v) != "" {
		cfg.JWTSecret = v
	}
	if v, ok := lookup(envPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envPort, v, err)
		}
		cfg.Port = port
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Mongo.URI == "" && (c.Mongo.Port < 1 || c.Mongo.Port > 65535) {
		return fmt.Errorf("invalid mongo.port %d, expected 1-65535", c.Mongo.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Storage.Driver {
	case "gridfs", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q, expected gridfs, s3 or memory", c.Storage.Driver)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}

// LogDir resolves logs.dir against the executable directory.
func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Logs.Dir, defaultLogsDir)
}

// MaxFileBytes is the per-upload ceiling in bytes.
func (c *AppConfig) MaxFileBytes() int64 {
	return int64(c.Storage.MaxFileMB) * 1024 * 1024
}

// ChunkSizeBytes is the GridFS chunk size in bytes.
func (c *AppConfig) ChunkSizeBytes() int32 {
	return int32(c.Storage.ChunkSizeKB * 1024)
}

// MetricsEnabled defaults to true when metrics.enable is not set.
func (c *AppConfig) MetricsEnabled() bool {
	return c.Metrics.Enable == nil || *c.Metrics.Enable
}
