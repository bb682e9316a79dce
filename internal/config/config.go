package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env         string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Reservation ReservationConfig
	Broker      BrokerConfig
	Worker      WorkerConfig
	Metrics     BasicAuthConfig
	Admin       BasicAuthConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定。Hostが空の場合Redisは使用しない
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ReservationConfig は予約受付（アドミッション制御）の設定
type ReservationConfig struct {
	// LockTimeout は便の行ロック取得を待つ上限（SET LOCAL lock_timeout）
	LockTimeout time.Duration
	// StatementTimeout は1ステートメントの実行上限（SET LOCAL statement_timeout）
	StatementTimeout   time.Duration
	MaxSeatsPerBooking int
	// GateLock* はRedisによる前段ロックの設定。正しさは行ロックが保証する
	GateLockTTL        time.Duration
	GateLockRetries    int
	GateLockRetryDelay time.Duration
	AvailabilityTTL    time.Duration
}

// BrokerConfig はRabbitMQ設定。URLが空の場合イベント発行は無効
type BrokerConfig struct {
	URL   string
	Queue string
}

// WorkerConfig はバックグラウンドワーカー設定
type WorkerConfig struct {
	StatsInterval time.Duration
}

// BasicAuthConfig はBasic認証の設定
type BasicAuthConfig struct {
	User     string
	Password string
}

// IsEnabled は認証が有効かどうかを返す
func (c *BasicAuthConfig) IsEnabled() bool {
	return c.User != "" && c.Password != ""
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bus_reservation"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Reservation: ReservationConfig{
			LockTimeout:        getDurationEnv("RESERVATION_LOCK_TIMEOUT", 5*time.Second),
			StatementTimeout:   getDurationEnv("RESERVATION_STATEMENT_TIMEOUT", 10*time.Second),
			MaxSeatsPerBooking: getPositiveIntEnv("RESERVATION_MAX_SEATS", 10),
			GateLockTTL:        getDurationEnv("RESERVATION_GATE_LOCK_TTL", 10*time.Second),
			GateLockRetries:    getIntEnv("RESERVATION_GATE_LOCK_RETRIES", 50),
			GateLockRetryDelay: getDurationEnv("RESERVATION_GATE_LOCK_RETRY_DELAY", 100*time.Millisecond),
			AvailabilityTTL:    getDurationEnv("AVAILABILITY_CACHE_TTL", 5*time.Second),
		},
		Broker: BrokerConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "reservation.events"),
		},
		Worker: WorkerConfig{
			StatsInterval: getDurationEnv("STATS_INTERVAL", 30*time.Second),
		},
		Metrics: BasicAuthConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
		Admin: BasicAuthConfig{
			User:     getEnv("ADMIN_USER", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	// DATABASE_URL / REDIS_URL が設定されている場合は個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		if db, ok := parseDatabaseURL(raw); ok {
			cfg.Database = db
		}
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		if rc, ok := parseRedisURL(raw, cfg.Redis.DB); ok {
			cfg.Redis = rc
		}
	}
	return cfg
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled はRedisが設定されているかを返す
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func parseDatabaseURL(raw string) (DatabaseConfig, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return DatabaseConfig{}, false
	}
	password, _ := u.User.Password()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "require"
	}
	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   trimSlash(u.Path),
		SSLMode:  sslMode,
	}, true
}

func parseRedisURL(raw string, db int) (RedisConfig, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return RedisConfig{}, false
	}
	password, _ := u.User.Password()
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	if n, err := strconv.Atoi(trimSlash(u.Path)); err == nil {
		db = n
	}
	return RedisConfig{
		Host:     u.Hostname(),
		Port:     port,
		Password: password,
		DB:       db,
	}, true
}

func trimSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getPositiveIntEnv(key string, defaultValue int) int {
	if i := getIntEnv(key, defaultValue); i > 0 {
		return i
	}
	return defaultValue
}

// getDurationEnv は解析できない値と0以下の値を既定値として扱う
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
