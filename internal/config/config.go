package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings. The target database
// must have the PostGIS extension installed; region geocoding runs in SQL.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"         env:"AUTH_JWT_SECRET"         env-required:"true"`
	JWTIssuer        string        `yaml:"jwt_issuer"         env:"AUTH_JWT_ISSUER"         env-default:"trekkr"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"   env:"AUTH_ACCESS_TOKEN_TTL"   env-default:"1h"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"  env:"AUTH_REFRESH_TOKEN_TTL"  env-default:"336h"`
	PasswordHashCost int           `yaml:"password_hash_cost" env:"AUTH_PASSWORD_HASH_COST" env-default:"10"`
}

// IngestConfig holds location ingestion settings.
type IngestConfig struct {
	MaxBatchSize       int `yaml:"max_batch_size"        env:"INGEST_MAX_BATCH_SIZE"        env-default:"100"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"INGEST_RATE_LIMIT_PER_MINUTE" env-default:"120"`

	// JitterRing is how many grid rings away a claimed cell may be from the
	// coordinate-derived cell before the sample is rejected.
	JitterRing int `yaml:"jitter_ring" env:"INGEST_JITTER_RING" env-default:"1"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
