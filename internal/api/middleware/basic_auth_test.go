package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
)

func newAuthEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, mw)
	return e
}

func request(e *echo.Echo, user, pass string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOptionalBasicAuth(t *testing.T) {
	cfg := config.BasicAuthConfig{User: "prom", Password: "secret"}

	tests := []struct {
		name       string
		cfg        config.BasicAuthConfig
		user, pass string
		wantStatus int
	}{
		{"未設定ならスキップ", config.BasicAuthConfig{}, "", "", http.StatusOK},
		{"正しい認証情報", cfg, "prom", "secret", http.StatusOK},
		{"パスワード誤り", cfg, "prom", "wrong", http.StatusUnauthorized},
		{"ユーザー誤り", cfg, "other", "secret", http.StatusUnauthorized},
		{"認証情報なし", cfg, "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(newAuthEcho(OptionalBasicAuth(tt.cfg)), tt.user, tt.pass)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequiredBasicAuth(t *testing.T) {
	t.Run("未設定なら拒否する", func(t *testing.T) {
		rec := request(newAuthEcho(RequiredBasicAuth(config.BasicAuthConfig{User: "admin"})), "admin", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("正しい認証情報なら通す", func(t *testing.T) {
		cfg := config.BasicAuthConfig{User: "admin", Password: "secret"}
		rec := request(newAuthEcho(RequiredBasicAuth(cfg)), "admin", "secret")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("誤った認証情報は401", func(t *testing.T) {
		cfg := config.BasicAuthConfig{User: "admin", Password: "secret"}
		rec := request(newAuthEcho(RequiredBasicAuth(cfg)), "admin", "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
