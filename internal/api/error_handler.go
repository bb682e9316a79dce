package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/application"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`

	// 空席不足の場合のみ設定する
	Requested *int `json:"requested,omitempty"`
	Available *int `json:"available,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー。
// ドメインエラーを種別ごとのステータスコードに変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := NewErrorResponse(err)

	// エラーログを出力（5xx エラーの場合）
	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(resp.Code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

// NewErrorResponse はエラーからレスポンスを作成する
func NewErrorResponse(err error) ErrorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message, ok := he.Message.(string)
		if !ok {
			message = http.StatusText(he.Code)
		}
		return ErrorResponse{Error: message, Code: he.Code}
	}

	var seatsErr *reservation.InsufficientSeatsError
	if errors.As(err, &seatsErr) {
		return ErrorResponse{
			Error:     reservation.ErrInsufficientSeats.Error(),
			Code:      http.StatusConflict,
			Kind:      application.OutcomeInsufficientSeats,
			Requested: &seatsErr.Requested,
			Available: &seatsErr.Available,
		}
	}

	kind := application.Outcome(err)
	switch kind {
	case application.OutcomeNotFound:
		// 非公開・出発済みの便も存在しない便と同じ応答にする
		message := reservation.ErrReservationNotFound.Error()
		if errors.Is(err, trip.ErrTripNotFound) {
			message = trip.ErrTripNotFound.Error()
		}
		return ErrorResponse{Error: message, Code: http.StatusNotFound, Kind: kind}
	case application.OutcomeInvalidState:
		return ErrorResponse{Error: err.Error(), Code: http.StatusConflict, Kind: kind}
	case application.OutcomeInvalidRequest:
		return ErrorResponse{Error: err.Error(), Code: http.StatusBadRequest, Kind: kind}
	case application.OutcomeBusy:
		return ErrorResponse{Error: "他の予約処理が実行中です。しばらくしてから再試行してください", Code: http.StatusServiceUnavailable, Kind: kind}
	case application.OutcomeTimeout:
		return ErrorResponse{Error: "予約処理がタイムアウトしました", Code: http.StatusGatewayTimeout, Kind: kind}
	}
	return ErrorResponse{Error: "内部サーバーエラー", Code: http.StatusInternalServerError}
}
