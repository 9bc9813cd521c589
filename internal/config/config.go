package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Mail     MailConfig     `yaml:"mail"`
	Notify   NotifyConfig   `yaml:"notify"`
	Redis    RedisConfig    `yaml:"redis"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RequestTimeout  time.Duration `yaml:"request_timeout"  env:"SERVER_REQUEST_TIMEOUT"  env-default:"15s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// StatementTimeout is applied per session; 0 leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"30s"`
	ApplicationName  string        `yaml:"application_name"  env:"DATABASE_APPLICATION_NAME"  env-default:"regpulse"`
}

// AuthConfig holds credential and token settings.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"         env:"AUTH_JWT_SECRET"         env-required:"true"`
	JWTIssuer        string        `yaml:"jwt_issuer"         env:"AUTH_JWT_ISSUER"         env-default:"regpulse"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"   env:"AUTH_ACCESS_TOKEN_TTL"   env-default:"12h"`
	PasswordHashCost int           `yaml:"password_hash_cost" env:"AUTH_PASSWORD_HASH_COST" env-default:"12"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// MailConfig holds outbound mail settings. Driver "log" writes messages to the
// application log instead of sending them.
type MailConfig struct {
	Driver   string        `yaml:"driver"   env:"MAIL_DRIVER"   env-default:"log"`
	Host     string        `yaml:"host"     env:"MAIL_HOST"`
	Port     int           `yaml:"port"     env:"MAIL_PORT"     env-default:"587"`
	Username string        `yaml:"username" env:"MAIL_USERNAME"`
	Password string        `yaml:"password" env:"MAIL_PASSWORD"`
	From     string        `yaml:"from"     env:"MAIL_FROM"     env-default:"no-reply@regpulse.local"`
	TLS      string        `yaml:"tls"      env:"MAIL_TLS"      env-default:"opportunistic"`
	Timeout  time.Duration `yaml:"timeout"  env:"MAIL_TIMEOUT"  env-default:"10s"`
}

// NotifyConfig tunes the notification outbox worker.
type NotifyConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"NOTIFY_POLL_INTERVAL" env-default:"5s"`
	BatchSize    int           `yaml:"batch_size"    env:"NOTIFY_BATCH_SIZE"    env-default:"20"`
	MaxAttempts  int           `yaml:"max_attempts"  env:"NOTIFY_MAX_ATTEMPTS"  env-default:"5"`
	Concurrency  int           `yaml:"concurrency"   env:"NOTIFY_CONCURRENCY"   env-default:"8"`
	SendTimeout  time.Duration `yaml:"send_timeout"  env:"NOTIFY_SEND_TIMEOUT"  env-default:"15s"`
	Retention    time.Duration `yaml:"retention"     env:"NOTIFY_RETENTION"     env-default:"720h"`
}

// RedisConfig holds the optional filter-value cache settings. An empty URL
// disables the cache.
type RedisConfig struct {
	URL          string        `yaml:"url"            env:"REDIS_URL"`
	PoolSize     int           `yaml:"pool_size"      env:"REDIS_POOL_SIZE"      env-default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"1"`
	DialTimeout  time.Duration `yaml:"dial_timeout"   env:"REDIS_DIAL_TIMEOUT"   env-default:"2s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"   env:"REDIS_READ_TIMEOUT"   env-default:"1s"`
	WriteTimeout time.Duration `yaml:"write_timeout"  env:"REDIS_WRITE_TIMEOUT"  env-default:"1s"`
	FilterTTL    time.Duration `yaml:"filter_ttl"     env:"REDIS_FILTER_TTL"     env-default:"10m"`
}

// Enabled reports whether a Redis URL is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}
