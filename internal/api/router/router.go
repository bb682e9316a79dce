package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/api"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー群
type Handlers struct {
	Reservation      *handler.ReservationHandler
	AdminReservation *handler.AdminReservationHandler
	Trip             *handler.TripHandler
	Health           *handler.HealthHandler
}

// Options はルーティングの設定
type Options struct {
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	MetricsAuth config.BasicAuthConfig
	AdminAuth   config.BasicAuthConfig
}

// New はミドルウェアとルートを設定したEchoインスタンスを作成する
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))
	}

	e.GET("/health", h.Health.Check)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.OptionalBasicAuth(opts.MetricsAuth))

	v1 := e.Group("/api/v1")
	v1.GET("/trips/:id/availability", h.Trip.GetAvailability)

	v1.POST("/reservations", h.Reservation.Create)
	v1.GET("/reservations", h.Reservation.GetUserReservations)
	v1.GET("/reservations/:id", h.Reservation.GetByID)
	v1.POST("/reservations/:id/cancel", h.Reservation.Cancel)

	admin := v1.Group("/admin", middleware.RequiredBasicAuth(opts.AdminAuth))
	admin.POST("/reservations", h.AdminReservation.Create)
	admin.GET("/reservations/:id", h.AdminReservation.GetByID)
	admin.PATCH("/reservations/:id", h.AdminReservation.Update)
	admin.POST("/reservations/:id/cancel", h.AdminReservation.Cancel)

	return e
}
