package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
)

const defaultAvailabilityTTL = 5 * time.Second

// AvailabilityCache は空席表示のキャッシュ
type AvailabilityCache interface {
	Get(ctx context.Context, tripID string) (trip.Availability, error)
	Generation(ctx context.Context, tripID string) (int64, error)
	// Set は gen 以降に無効化されていない場合のみ保存し、保存したかを返す
	Set(ctx context.Context, a trip.Availability, gen int64, ttl time.Duration) (bool, error)
	AvailabilityInvalidator
}

// AvailabilityService は便の空席状況を表示用に返す。予約受付の判定には関与しない
type AvailabilityService struct {
	tripRepo        trip.Repository
	reservationRepo reservation.Repository
	cache           AvailabilityCache
	ttl             time.Duration
}

// NewAvailabilityService は AvailabilityService を作成する。cache は nil を許容する
func NewAvailabilityService(tr trip.Repository, rr reservation.Repository, cache AvailabilityCache, ttl time.Duration) *AvailabilityService {
	if ttl <= 0 {
		ttl = defaultAvailabilityTTL
	}
	return &AvailabilityService{tripRepo: tr, reservationRepo: rr, cache: cache, ttl: ttl}
}

// GetAvailability は便の定員・確定座席数・空席数を返す。
// キャッシュは集計前の世代を控えて保存するため、集計中に予約が確定した場合は古い値を書き戻さない
func (s *AvailabilityService) GetAvailability(ctx context.Context, tripID string) (trip.Availability, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		a, err := s.cache.Get(ctx, tripID)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.ForTrip(tripID).Warn("空席キャッシュの取得に失敗しました", zap.Error(err))
		}
		gen, err = s.cache.Generation(ctx, tripID)
		if err != nil {
			logger.ForTrip(tripID).Warn("空席キャッシュの世代取得に失敗しました", zap.Error(err))
		} else {
			cacheable = true
		}
	}

	t, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return trip.Availability{}, err
	}
	reserved, err := s.reservationRepo.SumConfirmedSeats(ctx, nil, tripID, "")
	if err != nil {
		return trip.Availability{}, fmt.Errorf("空席状況の取得に失敗: %w", err)
	}
	a := trip.NewAvailability(t, reserved)

	if cacheable {
		stored, err := s.cache.Set(ctx, a, gen, s.ttl)
		if err != nil {
			logger.ForTrip(tripID).Warn("空席キャッシュの保存に失敗しました", zap.Error(err))
		} else if !stored {
			logger.ForTrip(tripID).Debug("集計中に無効化されたため空席キャッシュを保存しません")
		}
	}
	return a, nil
}
