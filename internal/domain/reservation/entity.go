package reservation

import (
	"time"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// IsValid は定義済みのステータスかを返す
func (s Status) IsValid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// DefaultMaxSeatsPerBooking は1予約あたりの座席数上限の既定値
const DefaultMaxSeatsPerBooking = 10

// Reservation は便の座席予約を表す。
// 座席は番号指定ではなく数量で確保し、確定済み予約の SeatsCount 合計がバス定員を超えてはならない
type Reservation struct {
	ID          string
	Code        string
	TripID      string
	UserID      string
	SeatsCount  int
	TotalPrice  int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CancelledAt *time.Time

	// Trip は表示用に読み込まれた便（バス情報込み）。永続化対象ではない
	Trip *trip.Trip
}

// NewReservation は確定状態の新しい予約を作成する
func NewReservation(code, tripID, userID string, seats, totalPrice int, now time.Time) *Reservation {
	return &Reservation{
		Code:       code,
		TripID:     tripID,
		UserID:     userID,
		SeatsCount: seats,
		TotalPrice: totalPrice,
		Status:     StatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateSeatCount は座席数が 1..max の範囲にあるかを検証する
func ValidateSeatCount(seats, max int) error {
	if seats <= 0 || seats > max {
		return ErrInvalidSeatCount
	}
	return nil
}

// IsConfirmed は予約が確定状態かを返す
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// Cancel は予約をキャンセルし、キャンセル時刻を記録する
func (r *Reservation) Cancel(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// Reinstate はキャンセル済み予約を確定状態に戻す（管理者操作）。
// 定員の再確認は呼び出し側の責務
func (r *Reservation) Reinstate(now time.Time) error {
	if r.Status != StatusCancelled {
		return ErrNotCancelled
	}
	r.Status = StatusConfirmed
	r.CancelledAt = nil
	r.UpdatedAt = now
	return nil
}
