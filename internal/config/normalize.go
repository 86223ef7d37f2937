package config

import "strings"

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Mongo = normalizeMongoConfig(cfg.Mongo)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	cfg.Logs = normalizeLogsConfig(cfg.Logs)

	cfg.Metrics.Path = strings.TrimSpace(cfg.Metrics.Path)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		cfg.Metrics.Path = "/" + cfg.Metrics.Path
	}
}

func normalizeMongoConfig(cfg MongoConfig) MongoConfig {
	cfg.URI = strings.TrimSpace(cfg.URI)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.AuthSource = strings.TrimSpace(cfg.AuthSource)
	cfg.Database = strings.TrimSpace(cfg.Database)

	if cfg.Host == "" {
		cfg.Host = defaultMongoHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultMongoPort
	}
	if cfg.Database == "" {
		cfg.Database = defaultMongoDatabase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMongoTimeout
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisConfig) RedisConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		return "redis://" + trimmed
	}
	return trimmed
}

func normalizeStorageConfig(cfg StorageConfig) StorageConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Driver == "" {
		cfg.Driver = defaultStorageDriver
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaultBucket
	}
	if cfg.ChunkSizeKB <= 0 {
		cfg.ChunkSizeKB = defaultChunkSizeKB
	}
	if cfg.MaxFileMB <= 0 {
		cfg.MaxFileMB = defaultMaxFileMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}

	s3 := &cfg.S3
	s3.Bucket = strings.TrimSpace(s3.Bucket)
	s3.Region = strings.TrimSpace(s3.Region)
	s3.Endpoint = strings.TrimRight(strings.TrimSpace(s3.Endpoint), "/")
	s3.Prefix = strings.Trim(strings.TrimSpace(s3.Prefix), "/")
	if s3.Prefix == "" {
		s3.Prefix = defaultS3Prefix
	}
	return cfg
}

func normalizeLogsConfig(cfg LogsConfig) LogsConfig {
	cfg.Dir = strings.TrimSpace(cfg.Dir)
	if cfg.Dir == "" {
		cfg.Dir = defaultLogsDir
	}
	if cfg.RotateSizeMB <= 0 {
		cfg.RotateSizeMB = defaultRotateSizeMB
	}
	if cfg.RotateKeep <= 0 {
		cfg.RotateKeep = defaultRotateKeep
	}
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	e := strings.ToLower(strings.TrimSpace(env))
	if e == "prod" || e == "production" {
		return "production"
	}
	return defaultEnv
}
