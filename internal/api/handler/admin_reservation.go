package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/application"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/rabbitmq"
)

// AdminReservationHandler は管理者向けの予約ハンドラー。
// 一般ユーザー向けとの違いは特権フラグのみで、定員チェックは同じく適用される
type AdminReservationHandler struct {
	service   ReservationServiceInterface
	publisher EventPublisher
}

// NewAdminReservationHandler は AdminReservationHandler を作成する
func NewAdminReservationHandler(s ReservationServiceInterface, publisher EventPublisher) *AdminReservationHandler {
	return &AdminReservationHandler{service: s, publisher: publisher}
}

var adminBooking = application.BookingContext{Privileged: true}

type AdminCreateReservationRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	UserID string `json:"user_id" validate:"required" example:"user-123"`
	Seats  int    `json:"seats" example:"2"`
}

// UpdateReservationRequest は未指定の項目を変更しない
type UpdateReservationRequest struct {
	TripID *string `json:"trip_id,omitempty" validate:"omitempty,min=1"`
	Seats  *int    `json:"seats,omitempty"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=confirmed cancelled" example:"cancelled"`
}

// Create godoc
// @Summary 予約を代理作成（管理者）
// @Description 非公開・出発済みの便にも予約できます。定員は超えられません
// @Tags admin
// @Accept json
// @Produce json
// @Param request body AdminCreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "空席不足"
// @Router /admin/reservations [post]
func (h *AdminReservationHandler) Create(c echo.Context) error {
	var req AdminCreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	booking := adminBooking
	booking.UserID = req.UserID

	r, err := h.service.Reserve(c.Request().Context(), application.ReserveInput{
		TripID: req.TripID, Seats: req.Seats, Booking: booking,
	})
	if err != nil {
		return err
	}
	publishEvent(c.Request().Context(), h.publisher, rabbitmq.EventReservationConfirmed, r)
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得（管理者）
// @Tags admin
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /admin/reservations/{id} [get]
func (h *AdminReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"), adminBooking)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Update godoc
// @Summary 予約を変更（管理者）
// @Description 便・座席数・ステータスを変更します。確定状態になる変更は定員を再チェックします
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body UpdateReservationRequest true "変更内容"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /admin/reservations/{id} [patch]
func (h *AdminReservationHandler) Update(c echo.Context) error {
	var req UpdateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	input := application.UpdateInput{
		ReservationID: c.Param("id"),
		TripID:        req.TripID,
		Seats:         req.Seats,
	}
	if req.Status != nil {
		status := reservation.Status(*req.Status)
		input.Status = &status
	}

	r, err := h.service.Update(c.Request().Context(), input)
	if err != nil {
		return err
	}
	publishEvent(c.Request().Context(), h.publisher, rabbitmq.EventReservationUpdated, r)
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル（管理者）
// @Tags admin
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /admin/reservations/{id}/cancel [post]
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	r, err := h.service.Cancel(c.Request().Context(), application.CancelInput{
		ReservationID: c.Param("id"), Booking: adminBooking,
	})
	if err != nil {
		return err
	}
	publishEvent(c.Request().Context(), h.publisher, rabbitmq.EventReservationCancelled, r)
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
