package rabbitmq

import (
	"time"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
)

// イベント種別
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationUpdated   = "reservation.updated"
)

// ReservationEvent はコミット済みの予約変更を通知するメッセージ
type ReservationEvent struct {
	Type          string     `json:"type"`
	ReservationID string     `json:"reservation_id"`
	Code          string     `json:"code"`
	TripID        string     `json:"trip_id"`
	UserID        string     `json:"user_id"`
	SeatsCount    int        `json:"seats_count"`
	TotalPrice    int        `json:"total_price"`
	Status        string     `json:"status"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// NewReservationEvent は予約からイベントを作成する
func NewReservationEvent(eventType string, r *reservation.Reservation, occurredAt time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		Code:          r.Code,
		TripID:        r.TripID,
		UserID:        r.UserID,
		SeatsCount:    r.SeatsCount,
		TotalPrice:    r.TotalPrice,
		Status:        string(r.Status),
		CancelledAt:   r.CancelledAt,
		OccurredAt:    occurredAt.UTC(),
	}
}
