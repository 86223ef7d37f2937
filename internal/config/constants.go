package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 3000
	defaultEnv           = "development"
	defaultMongoHost     = "127.0.0.1"
	defaultMongoPort     = 27017
	defaultMongoDatabase = "campus"
	defaultMongoTimeout  = 10
	defaultRedisPort     = 6379
	defaultStorageDriver = "gridfs"
	defaultBucket        = "uploads"
	defaultChunkSizeKB   = 255
	defaultMaxFileMB     = 50
	defaultMaxFiles      = 10
	defaultS3Prefix      = "blobs"
	defaultLogsDir       = "logs"
	defaultRotateSizeMB  = 20
	defaultRotateKeep    = 7
	defaultMetricsPath   = "/metrics"

	envMongoURI  = "CAMPUS_MONGO_URI"
	envRedisURL  = "CAMPUS_REDIS_URL"
	envJWTSecret = "CAMPUS_JWT_SECRET"
	envPort      = "CAMPUS_PORT"
)
