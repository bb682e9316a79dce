package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AvailabilityInvalidator は空席表示キャッシュの無効化を行う
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, tripID string) error
}

// BookingContext は操作の呼び出し元。Privileged（管理者）は便の公開・出発前チェックを免除されるが定員は免除されない
type BookingContext struct {
	UserID     string
	Privileged bool
}

// ReservationService は便の座席予約の受付判定を行う。
// 判定は便の行ロックを取得したトランザクション内で確定座席数を集計して行い、集計値を保存しない
type ReservationService struct {
	txManager       transaction.Manager
	tripRepo        trip.Repository
	reservationRepo reservation.Repository
	lockManager     redisinfra.LockManagerInterface
	cache           AvailabilityInvalidator
	metrics         *metrics.Metrics
	clock           clock.Clock
	newCode         reservation.CodeGenerator
	opts            ReservationOptions
}

// NewReservationService は ReservationService を作成する。lm と cache は nil を許容する
func NewReservationService(
	txm transaction.Manager,
	tr trip.Repository,
	rr reservation.Repository,
	lm redisinfra.LockManagerInterface,
	cache AvailabilityInvalidator,
	options ...Option,
) *ReservationService {
	s := &ReservationService{
		txManager:       txm,
		tripRepo:        tr,
		reservationRepo: rr,
		lockManager:     lm,
		cache:           cache,
		clock:           clock.Real(),
		newCode:         reservation.NewCode,
		opts:            DefaultReservationOptions(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

type ReserveInput struct {
	TripID  string
	Seats   int
	Booking BookingContext
}

// Reserve は便に座席を確保する
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*reservation.Reservation, error) {
	res, err := s.reserve(ctx, input)
	s.observe("reserve", err)
	if err != nil {
		s.logRejected("reserve", err, zap.String("trip_id", input.TripID), zap.Int("seats", input.Seats))
		return nil, err
	}
	s.invalidate(ctx, res.TripID)
	logger.ForReservation(res.ID).Info("予約を受け付けました",
		zap.String("trip_id", res.TripID),
		zap.String("code", res.Code),
		zap.Int("seats", res.SeatsCount),
		zap.Bool("privileged", input.Booking.Privileged),
	)
	return res, nil
}

func (s *ReservationService) reserve(ctx context.Context, input ReserveInput) (*reservation.Reservation, error) {
	if input.TripID == "" {
		return nil, reservation.ErrTripIDRequired
	}
	if input.Booking.UserID == "" {
		return nil, reservation.ErrUserIDRequired
	}
	if err := reservation.ValidateSeatCount(input.Seats, s.opts.MaxSeatsPerBooking); err != nil {
		return nil, err
	}

	release, err := s.acquireGate(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	defer release()

	var res *reservation.Reservation
	err = s.withinTx(ctx, func(tx transaction.Tx) error {
		t, err := s.lockTrip(ctx, tx, input.TripID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if !input.Booking.Privileged && !t.IsBookable(now) {
			return trip.ErrTripNotBookable
		}
		if err := s.checkCapacity(ctx, tx, t, input.Seats, ""); err != nil {
			return err
		}

		res = reservation.NewReservation(s.newCode(), t.ID, input.Booking.UserID, input.Seats, t.PriceFor(input.Seats), now)
		if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
			return err
		}
		res.Trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type CancelInput struct {
	ReservationID string
	Booking       BookingContext
}

// Cancel は予約をキャンセルする。便の行ロックは取得しない
func (s *ReservationService) Cancel(ctx context.Context, input CancelInput) (*reservation.Reservation, error) {
	res, err := s.cancel(ctx, input)
	s.observe("cancel", err)
	if err != nil {
		s.logRejected("cancel", err, zap.String("reservation_id", input.ReservationID))
		return nil, err
	}
	s.invalidate(ctx, res.TripID)
	logger.ForReservation(res.ID).Info("予約をキャンセルしました",
		zap.String("trip_id", res.TripID),
		zap.Int("seats", res.SeatsCount),
		zap.Bool("privileged", input.Booking.Privileged),
	)
	return res, nil
}

func (s *ReservationService) cancel(ctx context.Context, input CancelInput) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	err := s.withinTx(ctx, func(tx transaction.Tx) error {
		var err error
		res, err = s.reservationRepo.GetForUpdate(ctx, tx, input.ReservationID)
		if err != nil {
			return err
		}
		// 他人の予約は存在しないものとして扱う
		if !input.Booking.Privileged && res.UserID != input.Booking.UserID {
			return reservation.ErrReservationNotFound
		}
		if !res.IsConfirmed() {
			return reservation.ErrAlreadyCancelled
		}

		t, err := s.tripRepo.GetInTx(ctx, tx, res.TripID)
		if err != nil {
			return fmt.Errorf("便取得に失敗: %w", err)
		}
		now := s.clock.Now()
		if t.HasDeparted(now) {
			return reservation.ErrTripDeparted
		}

		if err := res.Cancel(now); err != nil {
			return err
		}
		if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
			return err
		}
		res.Trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateInput は管理者による予約変更。nil の項目は変更しない
type UpdateInput struct {
	ReservationID string
	TripID        *string
	Seats         *int
	Status        *reservation.Status
}

// Update は予約の便・座席数・ステータスを変更する（管理者操作）。
// 確定状態となる予約の便・座席数の変更と再確定は、変更先の便で定員を再確認する
func (s *ReservationService) Update(ctx context.Context, input UpdateInput) (*reservation.Reservation, error) {
	res, previousTripID, changed, err := s.update(ctx, input)
	switch {
	case err != nil:
		s.observe("update", err)
		s.logRejected("update", err, zap.String("reservation_id", input.ReservationID))
		return nil, err
	case !changed:
		s.metrics.ObserveReservation("update", "noop")
		return res, nil
	}
	s.observe("update", nil)
	s.invalidate(ctx, res.TripID)
	if previousTripID != res.TripID {
		s.invalidate(ctx, previousTripID)
	}
	logger.ForReservation(res.ID).Info("予約を変更しました",
		zap.String("trip_id", res.TripID),
		zap.String("previous_trip_id", previousTripID),
		zap.Int("seats", res.SeatsCount),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

func (s *ReservationService) update(ctx context.Context, input UpdateInput) (*reservation.Reservation, string, bool, error) {
	if input.TripID != nil && *input.TripID == "" {
		return nil, "", false, reservation.ErrTripIDRequired
	}
	if input.Seats != nil {
		if err := reservation.ValidateSeatCount(*input.Seats, s.opts.MaxSeatsPerBooking); err != nil {
			return nil, "", false, err
		}
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, "", false, reservation.ErrInvalidStatus
	}

	var (
		res            *reservation.Reservation
		previousTripID string
		changed        bool
	)
	err := s.withinTx(ctx, func(tx transaction.Tx) error {
		var err error
		// ロック順序は 予約 → 変更先の便
		res, err = s.reservationRepo.GetForUpdate(ctx, tx, input.ReservationID)
		if err != nil {
			return err
		}
		previousTripID = res.TripID

		targetTripID, targetSeats, targetStatus := res.TripID, res.SeatsCount, res.Status
		if input.TripID != nil {
			targetTripID = *input.TripID
		}
		if input.Seats != nil {
			targetSeats = *input.Seats
		}
		if input.Status != nil {
			targetStatus = *input.Status
		}
		tripChanged := targetTripID != res.TripID
		seatsChanged := targetSeats != res.SeatsCount
		statusChanged := targetStatus != res.Status

		if !tripChanged && !seatsChanged && !statusChanged {
			t, err := s.tripRepo.GetInTx(ctx, tx, res.TripID)
			if err != nil {
				return fmt.Errorf("便取得に失敗: %w", err)
			}
			res.Trip = t
			return nil
		}

		var t *trip.Trip
		if targetStatus == reservation.StatusConfirmed {
			t, err = s.lockTrip(ctx, tx, targetTripID)
			if err != nil {
				return err
			}
			if err := s.checkCapacity(ctx, tx, t, targetSeats, res.ID); err != nil {
				return err
			}
		} else {
			t, err = s.tripRepo.GetInTx(ctx, tx, targetTripID)
			if err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if statusChanged {
			switch targetStatus {
			case reservation.StatusCancelled:
				departed, err := s.departed(ctx, tx, previousTripID, t, now)
				if err != nil {
					return err
				}
				if departed {
					return reservation.ErrTripDeparted
				}
				if err := res.Cancel(now); err != nil {
					return err
				}
			case reservation.StatusConfirmed:
				if err := res.Reinstate(now); err != nil {
					return err
				}
			}
		}
		if tripChanged || seatsChanged {
			res.TripID = targetTripID
			res.SeatsCount = targetSeats
			res.TotalPrice = t.PriceFor(targetSeats)
		}
		res.UpdatedAt = now

		if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
			return err
		}
		res.Trip = t
		changed = true
		return nil
	})
	if err != nil {
		return nil, "", false, err
	}
	return res, previousTripID, changed, nil
}

// departed は予約中の便が出発済みかを返す。変更先の便を読み込み済みならそれを使う
func (s *ReservationService) departed(ctx context.Context, tx transaction.Tx, tripID string, loaded *trip.Trip, now time.Time) (bool, error) {
	t := loaded
	if t == nil || t.ID != tripID {
		var err error
		if t, err = s.tripRepo.GetInTx(ctx, tx, tripID); err != nil {
			return false, fmt.Errorf("便取得に失敗: %w", err)
		}
	}
	return t.HasDeparted(now), nil
}

// GetReservation は予約を取得する。本人以外の予約は管理者のみ参照できる
func (s *ReservationService) GetReservation(ctx context.Context, id string, booking BookingContext) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Privileged && res.UserID != booking.UserID {
		return nil, reservation.ErrReservationNotFound
	}
	t, err := s.tripRepo.GetByID(ctx, res.TripID)
	if err != nil {
		return nil, fmt.Errorf("便取得に失敗: %w", err)
	}
	res.Trip = t
	return res, nil
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if userID == "" {
		return nil, reservation.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservationRepo.GetByUserID(ctx, userID, limit, offset)
}

// ReservationCounts はステータス別の予約件数を返す
func (s *ReservationService) ReservationCounts(ctx context.Context) (map[string]int, error) {
	counts, err := s.reservationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]int, len(counts))
	for status, n := range counts {
		result[string(status)] = n
	}
	return result, nil
}

// withinTx は fn をトランザクション内で実行する。fn がエラーを返した場合はロールバックする
func (s *ReservationService) withinTx(ctx context.Context, fn func(tx transaction.Tx) error) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

func (s *ReservationService) lockTrip(ctx context.Context, tx transaction.Tx, tripID string) (*trip.Trip, error) {
	start := time.Now()
	t, err := s.tripRepo.GetForUpdate(ctx, tx, tripID)
	s.metrics.ObserveTripLockWait(time.Since(start))
	return t, err
}

// checkCapacity は確定座席数を集計し、要求座席数が空席数以下かを確認する
func (s *ReservationService) checkCapacity(ctx context.Context, tx transaction.Tx, t *trip.Trip, seats int, excludeID string) error {
	reserved, err := s.reservationRepo.SumConfirmedSeats(ctx, tx, t.ID, excludeID)
	if err != nil {
		return err
	}
	available := t.Capacity() - reserved
	if seats > available {
		return reservation.NewInsufficientSeatsError(seats, available)
	}
	return nil
}

// acquireGate はRedisの前段ロックを取得し、解放関数を返す。
// Redis障害時は行ロックのみで続行する
func (s *ReservationService) acquireGate(ctx context.Context, tripID string) (func(), error) {
	noop := func() {}
	if s.lockManager == nil {
		return noop, nil
	}

	start := time.Now()
	lock, err := s.lockManager.AcquireLockWithRetry(ctx, "trip:"+tripID, s.opts.GateLockTTL, s.opts.GateLockRetries, s.opts.GateLockRetryDelay)
	s.metrics.ObserveGateLock("acquire", err == nil, time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, redisinfra.ErrLockNotAcquired):
			return nil, transaction.ErrBusy
		case errors.Is(err, context.DeadlineExceeded):
			return nil, transaction.ErrTimeout
		case errors.Is(err, context.Canceled):
			return nil, err
		}
		logger.ForTrip(tripID).Warn("前段ロックを取得できないため行ロックのみで続行します", zap.Error(err))
		return noop, nil
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.ForTrip(tripID).Warn("前段ロックの解放に失敗しました", zap.Error(err))
		}
	}, nil
}

// invalidate は空席表示キャッシュを無効化する。失敗しても予約結果には影響しない
func (s *ReservationService) invalidate(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tripID); err != nil {
		logger.ForTrip(tripID).Warn("空席キャッシュの無効化に失敗しました", zap.Error(err))
	}
}

func (s *ReservationService) observe(operation string, err error) {
	s.metrics.ObserveReservation(operation, Outcome(err))
}

func (s *ReservationService) logRejected(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation), zap.String("outcome", Outcome(err)), zap.Error(err))
	if Outcome(err) == OutcomeError {
		logger.Error("予約処理に失敗しました", fields...)
		return
	}
	logger.Warn("予約を受け付けませんでした", fields...)
}
