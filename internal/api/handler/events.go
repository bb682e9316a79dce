package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/logger"
)

const publishTimeout = 2 * time.Second

// publishEvent はコミット後のイベントを送信する。失敗してもリクエストは失敗させない
func publishEvent(ctx context.Context, p EventPublisher, eventType string, r *reservation.Reservation) {
	if p == nil || r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishReservation(ctx, eventType, r); err != nil {
		logger.Warn("予約イベントの送信に失敗",
			zap.String("event_type", eventType),
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
	}
}
