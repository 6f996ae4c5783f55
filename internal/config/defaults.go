package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerMaxBodySize     = 4 << 20

	DefaultGRPCPort = 9090

	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBUser          = "esg"
	DefaultDBName          = "esg_materiality"
	DefaultDBSSLMode       = "disable"
	DefaultDBMaxConns      = 25
	DefaultDBMaxIdleConns  = 10
	DefaultDBMigrationPath = "migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "esgm:"
	DefaultRedisTTL       = 10 * time.Minute

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "esg-materiality"
	DefaultKafkaAutoOffsetReset = "earliest"

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucket        = "esg-snapshots"
	DefaultMinIOPresignExpiry = 15 * time.Minute

	DefaultWorkerConcurrency  = 4
	DefaultWorkerMaxRetries   = 3
	DefaultWorkerRetryBackoff = 500 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stdout"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "esgm"

	DefaultMatrixTitle        = "Materiality Matrix"
	DefaultMatrixAxisMin      = 0.0
	DefaultMatrixAxisMax      = 4.5
	DefaultMatrixTickStep     = 0.5
	DefaultMatrixJitterAmount = 0.08

	DefaultSessionSelectionTTL   = 12 * time.Hour
	DefaultSessionMatrixCacheTTL = 5 * time.Minute
	DefaultSessionExportLockTTL  = 30 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with the default.  Fields
// that have already been set (non-zero values) are left unchanged so that
// explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDBMaxIdleConns
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultDBMigrationPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	// DB is an int; 0 is a valid explicit value and also the default.

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = DefaultKafkaAutoOffsetReset
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = 3
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultWorkerRetryBackoff
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Matrix ────────────────────────────────────────────────────────────────
	if cfg.Matrix.Title == "" {
		cfg.Matrix.Title = DefaultMatrixTitle
	}
	if cfg.Matrix.AxisMin == 0 && cfg.Matrix.AxisMax == 0 {
		cfg.Matrix.AxisMin = DefaultMatrixAxisMin
		cfg.Matrix.AxisMax = DefaultMatrixAxisMax
	}
	if cfg.Matrix.TickStep == 0 {
		cfg.Matrix.TickStep = DefaultMatrixTickStep
	}
	// JitterAmount 0 is a valid explicit value; the loader registers the
	// default with viper instead.

	// ── Session ───────────────────────────────────────────────────────────────
	if cfg.Session.SelectionTTL == 0 {
		cfg.Session.SelectionTTL = DefaultSessionSelectionTTL
	}
	if cfg.Session.MatrixCacheTTL == 0 {
		cfg.Session.MatrixCacheTTL = DefaultSessionMatrixCacheTTL
	}
	if cfg.Session.ExportLockTTL == 0 {
		cfg.Session.ExportLockTTL = DefaultSessionExportLockTTL
	}
}
