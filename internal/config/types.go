package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int           `yaml:"port"`
	Env            string        `yaml:"env"` // "development" | "production"
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Timezone       string        `yaml:"timezone"`
	JWTSecret      string        `yaml:"jwt_secret"`
	Mongo          MongoConfig   `yaml:"mongo"`
	Redis          RedisConfig   `yaml:"redis"`
	Storage        StorageConfig `yaml:"storage"`
	Logs           LogsConfig    `yaml:"logs"`
	Metrics        MetricsConfig `yaml:"metrics"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	AuthSource string `yaml:"auth_source"`
	Database   string `yaml:"database"`
	// Timeout bounds connect and ping, in seconds.
	Timeout int `yaml:"timeout"`
}

// RedisConfig is optional. Without a URL or host, rate limiting and
// request idempotence are disabled.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type StorageConfig struct {
	Driver      string   `yaml:"driver"` // gridfs | s3 | memory
	Bucket      string   `yaml:"bucket"`
	ChunkSizeKB int      `yaml:"chunk_size_kb"`
	MaxFileMB   int      `yaml:"max_file_mb"`
	MaxFiles    int      `yaml:"max_files"`
	S3          S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

type LogsConfig struct {
	Dir          string `yaml:"dir"`
	RotateSizeMB int    `yaml:"rotate_size_mb"`
	RotateKeep   int    `yaml:"rotate_keep"`
}

type MetricsConfig struct {
	Enable *bool  `yaml:"enable"`
	Path   string `yaml:"path"`
}
