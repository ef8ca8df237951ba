// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Redis backs the C1 broker/status-store contract.
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisDialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`

	// TikaURL specifies the base URL for the Apache Tika server used for
	// PDF/DOCX/image text extraction. Plain text/CSV uploads bypass it.
	TikaURL string `env:"TIKA_URL" envDefault:"http://tika:9998"`

	// ArtifactPath points at a JSON-serialized linear-weight model artifact
	// consulted by the learned-model override. When empty or unreadable the
	// classifier degrades to keyword-only scoring.
	ArtifactPath string `env:"ARTIFACT_PATH"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"docclassify"`

	MaxUploadMB           int64         `env:"MAX_UPLOAD_MB" envDefault:"10"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// DataRetention governs how long task status/result records survive in
	// the KV store before they expire (via TTL, not a sweeper).
	DataRetention time.Duration `env:"DATA_RETENTION" envDefault:"24h"`

	// WorkerID identifies this worker process in logs, metrics, and result
	// records. Defaults to the hostname when unset at wiring time.
	WorkerID string `env:"WORKER_ID"`
	// WorkerPollTimeout bounds each blocking-pop call against the task queue.
	WorkerPollTimeout time.Duration `env:"WORKER_POLL_TIMEOUT" envDefault:"5s"`
	// WorkerClaimMaxElapsedTime bounds the backoff retry loop around a failed claim.
	WorkerClaimMaxElapsedTime time.Duration `env:"WORKER_CLAIM_MAX_ELAPSED_TIME" envDefault:"30s"`
	// HeartbeatInterval controls how often a worker refreshes its health record.
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"10s"`
	// WorkerHealthCheckPath is where the worker writes its health-check file.
	WorkerHealthCheckPath string `env:"WORKER_HEALTHCHECK_PATH" envDefault:"/app/worker_healthcheck.txt"`
	// SharedTmpDir is the bulletin-board directory the ingest API stages
	// uploads into and workers read them back from.
	SharedTmpDir string `env:"SHARED_TMP_DIR" envDefault:"/app/shared_tmp"`
	// ResultWaitTimeout is a bound for a synchronous caller's wait on a task's
	// result queue; no component in this repository reads it.
	ResultWaitTimeout time.Duration `env:"RESULT_WAIT_TIMEOUT" envDefault:"60s"`

	// Autoscaling controller configuration (C6).
	MinWorkers            int           `env:"MIN_WORKERS" envDefault:"2"`
	MaxWorkers            int           `env:"MAX_WORKERS" envDefault:"10"`
	WorkerReplicas        int           `env:"WORKER_REPLICAS" envDefault:"3"`
	QueueHighThreshold    int64         `env:"QUEUE_HIGH_THRESHOLD" envDefault:"20"`
	QueueLowThreshold     int64         `env:"QUEUE_LOW_THRESHOLD" envDefault:"5"`
	ScalingInterval       time.Duration `env:"SCALING_INTERVAL" envDefault:"30s"`
	ScalingCooldown       time.Duration `env:"SCALING_COOLDOWN" envDefault:"60s"`
	// OrchestratorScaleCmd is a template for the shell command used to apply a
	// scaling decision, with {{.Count}} substituted for the desired replica
	// count. Defaults to a docker compose scale invocation.
	OrchestratorScaleCmd string `env:"ORCHESTRATOR_SCALE_CMD" envDefault:"docker compose up --scale worker={{.Count}} -d"`

	// Retry/backoff tuning returned by GetBackoffConfig. The worker claim loop
	// does not read these; it uses WorkerClaimMaxElapsedTime with a fixed 1s interval.
	BackoffMaxElapsedTime  time.Duration `env:"BACKOFF_MAX_ELAPSED_TIME" envDefault:"30s"`
	BackoffInitialInterval time.Duration `env:"BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	BackoffMaxInterval     time.Duration `env:"BACKOFF_MAX_INTERVAL" envDefault:"5s"`
	BackoffMultiplier      float64       `env:"BACKOFF_MULTIPLIER" envDefault:"1.5"`

	// Circuit breaker tuning for the KVStore adapter.
	CircuitBreakerMaxFailures int           `env:"CIRCUIT_BREAKER_MAX_FAILURES" envDefault:"5"`
	CircuitBreakerTimeout     time.Duration `env:"CIRCUIT_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// RedisAddr returns the host:port address of the Redis backend.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// GetBackoffConfig returns backoff configuration appropriate for the current environment.
// In test environments, uses much shorter timeouts for faster test execution.
func (c Config) GetBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.BackoffMaxElapsedTime, c.BackoffInitialInterval, c.BackoffMaxInterval, c.BackoffMultiplier
}
