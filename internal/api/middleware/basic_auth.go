package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sanosuguru/go-bus-seat-reservation/internal/config"
)

// OptionalBasicAuth は認証情報が設定されている場合のみ Basic 認証を要求する。
// 設定されていない場合は認証をスキップする（/metrics のローカル開発用）
func OptionalBasicAuth(cfg config.BasicAuthConfig) echo.MiddlewareFunc {
	if !cfg.IsEnabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return basicAuth(cfg)
}

// RequiredBasicAuth は常に Basic 認証を要求する。
// 認証情報が設定されていない場合はすべてのリクエストを拒否する
func RequiredBasicAuth(cfg config.BasicAuthConfig) echo.MiddlewareFunc {
	if !cfg.IsEnabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(http.StatusForbidden, "管理者認証が設定されていません")
			}
		}
	}
	return basicAuth(cfg)
}

func basicAuth(cfg config.BasicAuthConfig) echo.MiddlewareFunc {
	expectedUser := []byte(cfg.User)
	expectedPass := []byte(cfg.Password)

	return middleware.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
		// タイミング攻撃を防ぐため ConstantTimeCompare を使用
		userMatch := subtle.ConstantTimeCompare([]byte(username), expectedUser) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(password), expectedPass) == 1

		return userMatch && passMatch, nil
	})
}
