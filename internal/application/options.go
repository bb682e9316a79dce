package application

import (
	"time"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
)

// ReservationOptions は予約受付の動作設定
type ReservationOptions struct {
	MaxSeatsPerBooking int
	GateLockTTL        time.Duration
	GateLockRetries    int
	GateLockRetryDelay time.Duration
}

// DefaultReservationOptions は既定の動作設定を返す
func DefaultReservationOptions() ReservationOptions {
	return ReservationOptions{
		MaxSeatsPerBooking: reservation.DefaultMaxSeatsPerBooking,
		GateLockTTL:        10 * time.Second,
		GateLockRetries:    50,
		GateLockRetryDelay: 100 * time.Millisecond,
	}
}

// ReservationOptionsFromConfig は設定ファイルの値から動作設定を作成する
func ReservationOptionsFromConfig(cfg config.ReservationConfig) ReservationOptions {
	opts := DefaultReservationOptions()
	if cfg.MaxSeatsPerBooking > 0 {
		opts.MaxSeatsPerBooking = cfg.MaxSeatsPerBooking
	}
	if cfg.GateLockTTL > 0 {
		opts.GateLockTTL = cfg.GateLockTTL
	}
	if cfg.GateLockRetries > 0 {
		opts.GateLockRetries = cfg.GateLockRetries
	}
	if cfg.GateLockRetryDelay > 0 {
		opts.GateLockRetryDelay = cfg.GateLockRetryDelay
	}
	return opts
}

// Option は ReservationService の任意設定
type Option func(*ReservationService)

func WithClock(c clock.Clock) Option {
	return func(s *ReservationService) { s.clock = c }
}

func WithCodeGenerator(g reservation.CodeGenerator) Option {
	return func(s *ReservationService) { s.newCode = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ReservationService) { s.metrics = m }
}

func WithOptions(o ReservationOptions) Option {
	return func(s *ReservationService) { s.opts = o }
}
