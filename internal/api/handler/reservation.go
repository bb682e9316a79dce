package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/application"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/infrastructure/rabbitmq"
)

// ReservationHandler は一般ユーザー向けの予約ハンドラー
type ReservationHandler struct {
	service   ReservationServiceInterface
	publisher EventPublisher
}

// NewReservationHandler は ReservationHandler を作成する。publisher は nil でもよい
func NewReservationHandler(s ReservationServiceInterface, publisher EventPublisher) *ReservationHandler {
	return &ReservationHandler{service: s, publisher: publisher}
}

type CreateReservationRequest struct {
	TripID string `json:"trip_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Seats  int    `json:"seats" example:"2"`
}

func userBooking(c echo.Context) (application.BookingContext, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return application.BookingContext{}, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return application.BookingContext{UserID: userID}, nil
}

// Create godoc
// @Summary 予約を作成
// @Description 便の座席を指定数だけ確保します
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "便が存在しないか予約受付外"
// @Failure 409 {object} api.ErrorResponse "空席不足"
// @Failure 503 {object} api.ErrorResponse
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	booking, err := userBooking(c)
	if err != nil {
		return err
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
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
// @Summary 予約を取得
// @Description 自分の予約を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	booking, err := userBooking(c)
	if err != nil {
		return err
	}
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"), booking)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	booking, err := userBooking(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	rs, err := h.service.GetUserReservations(c.Request().Context(), booking.UserID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponses(rs))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 出発前の確定済み予約をキャンセルします
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "キャンセル済みまたは出発済み"
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	booking, err := userBooking(c)
	if err != nil {
		return err
	}
	r, err := h.service.Cancel(c.Request().Context(), application.CancelInput{
		ReservationID: c.Param("id"), Booking: booking,
	})
	if err != nil {
		return err
	}
	publishEvent(c.Request().Context(), h.publisher, rabbitmq.EventReservationCancelled, r)
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
