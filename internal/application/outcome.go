package application

import (
	"errors"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

// 予約処理の結果種別（メトリクスのラベル値）
const (
	OutcomeSuccess           = "success"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientSeats = "insufficient_seats"
	OutcomeInvalidState      = "invalid_state"
	OutcomeInvalidRequest    = "invalid_request"
	OutcomeBusy              = "busy"
	OutcomeTimeout           = "timeout"
	OutcomeError             = "error"
)

// Outcome はエラーを結果種別に分類する
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, reservation.ErrInsufficientSeats):
		return OutcomeInsufficientSeats
	case errors.Is(err, trip.ErrTripNotFound), errors.Is(err, reservation.ErrReservationNotFound):
		return OutcomeNotFound
	case errors.Is(err, reservation.ErrInvalidState):
		return OutcomeInvalidState
	case errors.Is(err, reservation.ErrInvalidSeatCount),
		errors.Is(err, reservation.ErrInvalidStatus),
		errors.Is(err, reservation.ErrTripIDRequired),
		errors.Is(err, reservation.ErrUserIDRequired):
		return OutcomeInvalidRequest
	case errors.Is(err, transaction.ErrBusy):
		return OutcomeBusy
	case errors.Is(err, transaction.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
