package handler

import (
	"time"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
)

type BusResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity" example:"40"`
}

type TripResponse struct {
	ID                string      `json:"id"`
	OriginCityID      string      `json:"origin_city_id"`
	DestinationCityID string      `json:"destination_city_id"`
	DepartureTime     time.Time   `json:"departure_time"`
	Price             int         `json:"price" example:"3500"`
	IsActive          bool        `json:"is_active"`
	Bus               BusResponse `json:"bus"`
}

type ReservationResponse struct {
	ID          string        `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Code        string        `json:"code" example:"RES-7KQ2M9XD"`
	TripID      string        `json:"trip_id"`
	UserID      string        `json:"user_id" example:"user-123"`
	SeatsCount  int           `json:"seats_count" example:"2"`
	TotalPrice  int           `json:"total_price" example:"7000"`
	Status      string        `json:"status" example:"confirmed"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Trip        *TripResponse `json:"trip,omitempty"`
}

func toTripResponse(t *trip.Trip) *TripResponse {
	if t == nil {
		return nil
	}
	return &TripResponse{
		ID: t.ID, OriginCityID: t.OriginCityID, DestinationCityID: t.DestinationCityID,
		DepartureTime: t.DepartureTime, Price: t.Price, IsActive: t.IsActive,
		Bus: BusResponse{ID: t.Bus.ID, Name: t.Bus.Name, Capacity: t.Bus.Capacity},
	}
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, Code: r.Code, TripID: r.TripID, UserID: r.UserID,
		SeatsCount: r.SeatsCount, TotalPrice: r.TotalPrice, Status: string(r.Status),
		CancelledAt: r.CancelledAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Trip: toTripResponse(r.Trip),
	}
}

func toReservationResponses(rs []*reservation.Reservation) []ReservationResponse {
	responses := make([]ReservationResponse, len(rs))
	for i, r := range rs {
		responses[i] = toReservationResponse(r)
	}
	return responses
}
