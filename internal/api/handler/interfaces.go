package handler

import (
	"context"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/application"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*reservation.Reservation, error)
	Cancel(ctx context.Context, input application.CancelInput) (*reservation.Reservation, error)
	Update(ctx context.Context, input application.UpdateInput) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string, booking application.BookingContext) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
}

// AvailabilityServiceInterface は空席照会サービスのインターフェース
type AvailabilityServiceInterface interface {
	GetAvailability(ctx context.Context, tripID string) (trip.Availability, error)
}

// EventPublisher はコミット済みの予約変更を外部へ通知する
type EventPublisher interface {
	PublishReservation(ctx context.Context, eventType string, r *reservation.Reservation) error
}
