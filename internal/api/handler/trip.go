package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type TripHandler struct {
	service AvailabilityServiceInterface
}

func NewTripHandler(s AvailabilityServiceInterface) *TripHandler {
	return &TripHandler{service: s}
}

type AvailabilityResponse struct {
	TripID    string `json:"trip_id"`
	Capacity  int    `json:"capacity" example:"40"`
	Reserved  int    `json:"reserved" example:"12"`
	Available int    `json:"available" example:"28"`
}

// GetAvailability godoc
// @Summary 便の空席数を取得
// @Description 表示用の空席数です。予約の可否はこの値ではなく予約時に判定されます
// @Tags trips
// @Produce json
// @Param id path string true "便ID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /trips/{id}/availability [get]
func (h *TripHandler) GetAvailability(c echo.Context) error {
	a, err := h.service.GetAvailability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		TripID: a.TripID, Capacity: a.Capacity, Reserved: a.Reserved, Available: a.Available,
	})
}
