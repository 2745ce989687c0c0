package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env        string `env:"ENV" env-required:"true"`
	HTTP       HTTPConfig
	Postgres   PostgresConfig
	JWT        JWTConfig
	Cache      CacheConfig
	Uploads    UploadsConfig
	VirusTotal VirusTotalConfig
	SMTP       SMTPConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"task-manager-api"`
	SigningKey      []byte        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

type CacheConfig struct {
	FilterTTL time.Duration `env:"CACHE_FILTER_TTL" env-default:"10m"`
}

type UploadsConfig struct {
	Dir          string        `env:"UPLOADS_DIR" env-default:"storage/attachments"`
	PollInterval time.Duration `env:"UPLOADS_SCAN_POLL_INTERVAL" env-default:"10s"`
	MaxPolls     int           `env:"UPLOADS_SCAN_MAX_POLLS" env-default:"10"`
	JobTTL       time.Duration `env:"UPLOADS_JOB_TTL" env-default:"1h"`
}

type VirusTotalConfig struct {
	APIKey  string        `env:"VIRUSTOTAL_API_KEY" env-required:"true"`
	BaseURL string        `env:"VIRUSTOTAL_BASE_URL" env-default:"https://www.virustotal.com/api/v3"`
	Timeout time.Duration `env:"VIRUSTOTAL_TIMEOUT" env-default:"30s"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-required:"true"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME" env-required:"true"`
	Password string `env:"SMTP_PASSWORD" env-required:"true"`
	From     string `env:"SMTP_FROM" env-required:"true"`
}
