package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimit       int           `yaml:"rate_limit"       env:"SERVER_RATE_LIMIT"       env-default:"600"` // requests per minute per caller on the public API, 0 disables
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	LockTimeout     time.Duration `yaml:"lock_timeout"       env:"DATABASE_LOCK_TIMEOUT"       env-default:"5s"` // 0 waits forever
}

// AuthConfig holds access-token validation settings. Tokens are issued by
// the platform's auth service; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"elevateu"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RankingConfig holds ranking pipeline parameters.
type RankingConfig struct {
	RetryMaxAttempts    int           `yaml:"retry_max_attempts"    env:"RANKING_RETRY_MAX_ATTEMPTS"    env-default:"5"`
	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff" env:"RANKING_RETRY_INITIAL_BACKOFF" env-default:"20ms"`
	RetryMaxBackoff     time.Duration `yaml:"retry_max_backoff"     env:"RANKING_RETRY_MAX_BACKOFF"     env-default:"1s"`
	DefaultLimit        int           `yaml:"default_limit"         env:"RANKING_DEFAULT_LIMIT"         env-default:"10"`
	MaxLimit            int           `yaml:"max_limit"             env:"RANKING_MAX_LIMIT"             env-default:"100"`
}

// SchedulerConfig holds the cron specs for periodic maintenance.
type SchedulerConfig struct {
	Enabled         bool   `yaml:"enabled"           env:"SCHEDULER_ENABLED"           env-default:"true"`
	WindowSweepSpec string `yaml:"window_sweep_spec" env:"SCHEDULER_WINDOW_SWEEP_SPEC" env-default:"@hourly"`
	RecomputeSpec   string `yaml:"recompute_spec"    env:"SCHEDULER_RECOMPUTE_SPEC"    env-default:"@every 6h"`
}

// KafkaConfig holds the engagement event consumer settings.
type KafkaConfig struct {
	Enabled    bool          `yaml:"enabled"     env:"KAFKA_ENABLED"     env-default:"false"`
	BrokersRaw string        `yaml:"brokers"     env:"KAFKA_BROKERS"     env-default:"localhost:9092"`
	Topic      string        `yaml:"topic"       env:"KAFKA_TOPIC"       env-default:"engagement-events"`
	GroupID    string        `yaml:"group_id"    env:"KAFKA_GROUP_ID"    env-default:"ranking-engine"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"KAFKA_SESSION_TTL" env-default:"30s"`
}

// Brokers splits the comma-separated broker list.
func (k KafkaConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(k.BrokersRaw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}
