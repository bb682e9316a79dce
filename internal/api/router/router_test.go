package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
	"github.com/sanosuguru/go-bus-seat-reservation/internal/pkg/metrics"
)

func newTestRouter(adminAuth config.BasicAuthConfig) *http.ServeMux {
	reg := prometheus.NewRegistry()
	e := New(Handlers{
		Reservation:      handler.NewReservationHandler(nil, nil),
		AdminReservation: handler.NewAdminReservationHandler(nil, nil),
		Trip:             handler.NewTripHandler(nil),
		Health:           handler.NewHealthHandler(nil),
	}, Options{
		Metrics:   metrics.NewWithRegistry(reg),
		Gatherer:  reg,
		AdminAuth: adminAuth,
	})
	mux := http.NewServeMux()
	mux.Handle("/", e)
	return mux
}

func TestNew_Health(t *testing.T) {
	mux := newTestRouter(config.BasicAuthConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestNew_Metrics(t *testing.T) {
	mux := newTestRouter(config.BasicAuthConfig{})

	// 1リクエスト分のメトリクスを発生させる
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNew_AdminRequiresAuth(t *testing.T) {
	t.Run("認証未設定なら403", func(t *testing.T) {
		mux := newTestRouter(config.BasicAuthConfig{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reservations", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("認証情報なしなら401", func(t *testing.T) {
		mux := newTestRouter(config.BasicAuthConfig{User: "admin", Password: "secret"})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/reservations/res-1", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNew_UserRoutesRequireUserID(t *testing.T) {
	mux := newTestRouter(config.BasicAuthConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
