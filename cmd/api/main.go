package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/api/router"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/application"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "読み込む .env ファイル")
	migrationsPath := flag.String("migrations", "migrations", "マイグレーションファイルのディレクトリ")
	skipMigrations := flag.Bool("skip-migrations", false, "起動時のマイグレーションを実行しない")
	flag.Parse()

	// .env は任意。存在しない場合は環境変数のみを使う
	envErr := godotenv.Load(*envFile)

	cfg := config.Load()

	logger.Set(logger.NewLogger(cfg.Env))
	defer logger.Sync()
	log := logger.Get()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn(".env の読み込みに失敗しました", zap.String("path", *envFile), zap.Error(envErr))
	}

	// データベース
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	if !*skipMigrations {
		version, err := postgres.RunMigrations(db.DB, *migrationsPath)
		if err != nil {
			log.Fatal("マイグレーションエラー", zap.Error(err))
		}
		log.Info("マイグレーション完了", zap.String("path", *migrationsPath), zap.Uint("version", version))
	}

	// Redis（任意）。nil のままならゲートロックと空席キャッシュは無効
	var (
		redisClient *redis.Client
		lockManager redisinfra.LockManagerInterface
		cache       application.AvailabilityCache
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn("Redis に接続できないため行ロックのみで動作します", zap.Error(err))
		} else {
			defer redisClient.Close()
			lockManager = redisinfra.NewLockManager(redisClient)
			cache = redisinfra.NewAvailabilityCache(redisClient)
		}
	}

	// イベント発行（任意）
	var publisher handler.EventPublisher
	if cfg.Broker.URL != "" {
		p := rabbitmq.NewPublisher(cfg.Broker)
		defer p.Close()
		publisher = p
	}

	m := metrics.Init()

	// サービス
	txManager := postgres.NewTxManager(db, cfg.Reservation.LockTimeout, cfg.Reservation.StatementTimeout)
	tripRepo := postgres.NewTripRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	reservationService := application.NewReservationService(
		txManager, tripRepo, reservationRepo, lockManager, cache,
		application.WithOptions(application.ReservationOptionsFromConfig(cfg.Reservation)),
		application.WithMetrics(m),
	)
	availabilityService := application.NewAvailabilityService(tripRepo, reservationRepo, cache, cfg.Reservation.AvailabilityTTL)

	// HTTP
	e := router.New(router.Handlers{
		Reservation:      handler.NewReservationHandler(reservationService, publisher),
		AdminReservation: handler.NewAdminReservationHandler(reservationService, publisher),
		Trip:             handler.NewTripHandler(availabilityService),
		Health:           handler.NewHealthHandler(healthCheckers(db, redisClient)),
	}, router.Options{
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		MetricsAuth: cfg.Metrics,
		AdminAuth:   cfg.Admin,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	if !cfg.Admin.IsEnabled() {
		log.Warn("ADMIN_USER / ADMIN_PASSWORD が未設定のため管理者APIは無効です")
	}

	// ワーカー
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	statsCollector := worker.NewReservationStatsCollector(reservationService, m, cfg.Worker.StatsInterval)
	go statsCollector.Start(ctx)

	// Graceful shutdown
	go func() {
		log.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")
	statsCollector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("サーバーシャットダウンエラー", zap.Error(err))
		return
	}

	log.Info("サーバーが正常にシャットダウンしました")
}

func healthCheckers(db *sqlx.DB, rc *redis.Client) map[string]handler.HealthChecker {
	checkers := map[string]handler.HealthChecker{
		"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}
	if rc != nil {
		checkers["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
	}
	return checkers
}
