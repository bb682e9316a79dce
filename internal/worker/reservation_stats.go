package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
)

// ReservationCounter はステータス別の予約数を集計するインターフェース
type ReservationCounter interface {
	ReservationCounts(ctx context.Context) (map[string]int, error)
}

// DefaultStatsInterval は集計間隔が指定されない場合の既定値
const DefaultStatsInterval = 30 * time.Second

// ReservationStatsCollector は予約数を定期的に集計しゲージへ反映するワーカー
type ReservationStatsCollector struct {
	counter  ReservationCounter
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReservationStatsCollector は新しいコレクターを作成
func NewReservationStatsCollector(
	counter ReservationCounter,
	m *metrics.Metrics,
	interval time.Duration,
) *ReservationStatsCollector {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &ReservationStatsCollector{
		counter:  counter,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はコレクターを開始する。起動直後に一度集計する
func (c *ReservationStatsCollector) Start(ctx context.Context) {
	logger.Info("予約統計ワーカー開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	c.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約統計ワーカー停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			logger.Info("予約統計ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// Stop はコレクターを停止
func (c *ReservationStatsCollector) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *ReservationStatsCollector) collect(ctx context.Context) {
	log := logger.Get()

	counts, err := c.counter.ReservationCounts(ctx)
	if err != nil {
		log.Error("予約数の集計失敗", zap.Error(err))
		return
	}

	c.metrics.SetReservationCounts(counts)
	log.Debug("予約数を集計", zap.Any("counts", counts))
}
